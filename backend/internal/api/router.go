// Package api exposes gene list analysis and curation over HTTP.
package api

import (
	"context"
	"net/http"

	"cogex/backend/internal/constants"
	"cogex/backend/internal/curation"
	"cogex/backend/internal/enrichment"
	"cogex/backend/internal/genesets"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// GeneAnalyzer runs gene list analyses.
type GeneAnalyzer interface {
	Discrete(ctx context.Context, genes genesets.GeneSet, opts enrichment.DiscreteOptions) (enrichment.DiscreteResults, error)
	Signed(ctx context.Context, positive, negative genesets.GeneSet, opts enrichment.SignedOptions) ([]enrichment.RCRResult, error)
	Continuous(ctx context.Context, in enrichment.ContinuousInput) ([]enrichment.GSEAResult, error)
	Kinase(ctx context.Context, sites genesets.GeneSet, opts enrichment.KinaseOptions) ([]enrichment.Result, error)
	ParseGeneList(ctx context.Context, entries []string) (genesets.GeneSet, []string, error)
	SetSizes(ctx context.Context, source string, thr genesets.Thresholds) (map[string]int, error)
}

// Curator builds curation pages and records curations.
type Curator interface {
	Candidates(ctx context.Context, kind string, opts curation.Options) (*curation.Page, error)
	Entity(ctx context.Context, prefix, id string, opts curation.Options) (*curation.Page, error)
	Paper(ctx context.Context, paper curation.PaperID, opts curation.Options) (*curation.Page, error)
	MeSH(ctx context.Context, term, subset string, opts curation.Options) (*curation.Page, error)
	GOTerm(ctx context.Context, term string, opts curation.Options) (*curation.Page, error)
	Record(ctx context.Context, c *curation.Curation) error
	Curations(ctx context.Context, hashes []int64) ([]curation.Curation, error)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker func(ctx context.Context) error

// Handler serves the HTTP API.
type Handler struct {
	analyzer GeneAnalyzer
	curator  Curator
	health   HealthChecker
	logger   *zap.Logger
}

// RouterConfig wires the router.
type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	Analyzer    GeneAnalyzer
	Curator     Curator
	// Health is optional; /health reports ok without it.
	Health HealthChecker
	Logger *zap.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		analyzer: cfg.Analyzer,
		curator:  cfg.Curator,
		health:   cfg.Health,
		logger:   log,
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = constants.ServiceName
	}

	router := gin.New()
	router.MaxMultipartMemory = constants.MaxUploadMemory
	router.Use(otelgin.Middleware(serviceName))
	router.Use(RequestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(CORS(cfg.CORSOrigins))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		gene := api.Group("/gene")
		gene.POST("/discrete", h.Discrete)
		gene.POST("/signed", h.Signed)
		gene.POST("/continuous", h.Continuous)
		gene.POST("/continuous/upload", h.ContinuousUpload)
		gene.POST("/kinase", h.Kinase)

		api.GET("/genesets/:source", h.GeneSetSizes)

		curate := api.Group("/curate")
		curate.GET("/paper", h.CuratePaper)
		curate.GET("/entity/:curie", h.CurateEntity)
		curate.GET("/mesh/:term", h.CurateMeSH)
		curate.GET("/mesh/:term/:subset", h.CurateMeSH)
		curate.GET("/go/:term", h.CurateGO)
		curate.GET("/:kind", h.CurateKind)

		api.GET("/curations", h.ListCurations)
		api.POST("/curations", h.RecordCuration)
	}
	return router
}

// Health reports service status.
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
