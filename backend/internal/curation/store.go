package curation

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "cogex/backend/pkg/errors"
	"cogex/backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Store persists curations.
type Store interface {
	List(ctx context.Context) ([]Curation, error)
	Create(ctx context.Context, c *Curation) error
	ForHashes(ctx context.Context, hashes []int64) ([]Curation, error)
}

// OpenDB opens the curation database. DSNs starting with postgres:// or
// postgresql:// select Postgres; anything else is a SQLite file path.
func OpenDB(dsn string) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	if isPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		if dir := dirOf(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create curation database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, apperrors.NewCurationStoreFailed("open", err)
	}
	return db, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func dirOf(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	if dir := filepath.Dir(dsn); dir != "." {
		return dir
	}
	return ""
}

// GormStore is a Store backed by gorm.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore wraps an open database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:     db,
		logger: logger.Get().With(zap.String("component", "curation_store")),
	}
}

// AutoMigrate creates or updates the curation table.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Curation{}); err != nil {
		return apperrors.NewCurationStoreFailed("migrate", err)
	}
	return nil
}

// List returns every curation, oldest first.
func (s *GormStore) List(ctx context.Context) ([]Curation, error) {
	var results []Curation
	if err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, apperrors.NewCurationStoreFailed("list", err)
	}
	return results, nil
}

// Create validates and inserts c. ID and CreatedAt are filled in when zero.
func (s *GormStore) Create(ctx context.Context, c *Curation) error {
	if err := validate(c); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperrors.NewCurationStoreFailed("create", err)
	}
	s.logger.Info("Curation recorded",
		zap.Int64("pa_hash", c.PAHash),
		zap.String("tag", c.Tag),
		zap.String("curator", c.Curator),
	)
	return nil
}

// ForHashes returns the curations of the given statement hashes.
func (s *GormStore) ForHashes(ctx context.Context, hashes []int64) ([]Curation, error) {
	var results []Curation
	if len(hashes) == 0 {
		return results, nil
	}
	if err := s.db.WithContext(ctx).
		Where("pa_hash IN ?", hashes).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, apperrors.NewCurationStoreFailed("query", err)
	}
	return results, nil
}

func validate(c *Curation) error {
	switch {
	case c == nil:
		return apperrors.NewInvalidInput("curation", "missing body")
	case c.PAHash == 0:
		return apperrors.NewInvalidInput("pa_hash", "is required")
	case strings.TrimSpace(c.Tag) == "":
		return apperrors.NewInvalidInput("tag", "is required")
	case strings.TrimSpace(c.Curator) == "":
		return apperrors.NewInvalidInput("curator", "is required")
	}
	return nil
}
