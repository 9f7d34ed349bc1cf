package api

import (
	"net/http"
	"strconv"
	"strings"

	"cogex/backend/internal/curation"
	apperrors "cogex/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// pageOptions reads include_db_evidence, filter_curated, object_prefix and
// limit from the query string.
func pageOptions(c *gin.Context) (curation.Options, error) {
	var opts curation.Options
	var err error
	if opts.IncludeDBEvidence, err = parseBool(c, "include_db_evidence", false); err != nil {
		return opts, err
	}
	if opts.FilterCurated, err = parseBool(c, "filter_curated", true); err != nil {
		return opts, err
	}
	opts.ObjectPrefix = c.Query("object_prefix")
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, apperrors.NewInvalidInput("limit", "must be a non-negative integer")
		}
		opts.Limit = n
	}
	return opts, nil
}

func (h *Handler) respondPage(c *gin.Context, page *curation.Page, err error) {
	if err != nil {
		h.respondError(c, "Failed to build curation page", err)
		return
	}
	for i := range page.Statements {
		for j := range page.Statements[i].Evidences {
			ev := &page.Statements[i].Evidences[j]
			ev.JSON = unescapeJSONText(ev.JSON)
		}
	}
	c.JSON(http.StatusOK, page)
}

// CurateKind serves one of the predefined curator lists.
func (h *Handler) CurateKind(c *gin.Context) {
	opts, err := pageOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.curator.Candidates(c.Request.Context(), c.Param("kind"), opts)
	h.respondPage(c, page, err)
}

// CurateEntity serves statements about the entity named by a CURIE.
func (h *Handler) CurateEntity(c *gin.Context) {
	opts, err := pageOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	prefix, id, ok := strings.Cut(c.Param("curie"), ":")
	if !ok || prefix == "" || id == "" {
		badRequest(c, apperrors.NewInvalidInput("curie", "expected prefix:identifier"))
		return
	}
	page, err := h.curator.Entity(c.Request.Context(), prefix, id, opts)
	h.respondPage(c, page, err)
}

// CuratePaper serves statements with evidence from the paper given by the
// identifier query parameter.
func (h *Handler) CuratePaper(c *gin.Context) {
	opts, err := pageOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	paper, err := curation.ParsePaperIdentifier(c.Query("identifier"))
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.curator.Paper(c.Request.Context(), paper, opts)
	h.respondPage(c, page, err)
}

// CurateMeSH serves statements from papers annotated with a MeSH term.
func (h *Handler) CurateMeSH(c *gin.Context) {
	opts, err := pageOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.curator.MeSH(c.Request.Context(), c.Param("term"), c.Param("subset"), opts)
	h.respondPage(c, page, err)
}

// CurateGO serves statements between genes annotated with a GO term.
func (h *Handler) CurateGO(c *gin.Context) {
	opts, err := pageOptions(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.curator.GOTerm(c.Request.Context(), c.Param("term"), opts)
	h.respondPage(c, page, err)
}

// ListCurations returns stored curations, optionally only those of the
// comma separated statement hashes in the hashes query parameter.
func (h *Handler) ListCurations(c *gin.Context) {
	var hashes []int64
	if raw := c.Query("hashes"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			h64, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				badRequest(c, apperrors.NewInvalidInput("hashes", part+" is not a statement hash"))
				return
			}
			hashes = append(hashes, h64)
		}
	}
	curations, err := h.curator.Curations(c.Request.Context(), hashes)
	if err != nil {
		h.respondError(c, "Failed to list curations", err)
		return
	}
	if curations == nil {
		curations = []curation.Curation{}
	}
	c.JSON(http.StatusOK, gin.H{"curations": curations})
}

type curationRequest struct {
	PAHash     int64  `json:"pa_hash" binding:"required"`
	SourceHash int64  `json:"source_hash"`
	Tag        string `json:"tag" binding:"required"`
	Curator    string `json:"curator" binding:"required"`
	Text       string `json:"text"`
}

// RecordCuration stores one curation.
func (h *Handler) RecordCuration(c *gin.Context) {
	var req curationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cur := &curation.Curation{
		PAHash:     req.PAHash,
		SourceHash: req.SourceHash,
		Tag:        req.Tag,
		Curator:    req.Curator,
		Text:       UnicodeEscape(req.Text),
	}
	if err := h.curator.Record(c.Request.Context(), cur); err != nil {
		h.respondError(c, "Failed to record curation", err)
		return
	}
	c.JSON(http.StatusCreated, cur)
}
