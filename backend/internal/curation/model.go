// Package curation stores human curations of statements and uses them to
// pick the statements that still need review.
package curation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagCorrect marks a positive curation. Every other tag is negative.
const TagCorrect = "correct"

// Curation is one judgement of a statement or of one of its evidences.
type Curation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PAHash     int64     `gorm:"column:pa_hash;index;not null" json:"pa_hash"`
	SourceHash int64     `gorm:"column:source_hash;index" json:"source_hash"`
	Tag        string    `gorm:"column:tag;not null" json:"tag"`
	Curator    string    `gorm:"column:curator;not null" json:"curator"`
	Text       string    `gorm:"column:text" json:"text,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (Curation) TableName() string {
	return "curation"
}

// BeforeCreate assigns an id when the caller did not.
func (c *Curation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Positive reports whether the curation confirms the statement.
func (c Curation) Positive() bool {
	return c.Tag == TagCorrect
}
