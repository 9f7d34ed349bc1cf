package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cogex/backend/internal/enrichment"
	"cogex/backend/internal/genesets"
	apperrors "cogex/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// thresholdParams are the confidence thresholds shared by every analysis.
type thresholdParams struct {
	MinimumEvidenceCount int     `json:"minimum_evidence_count" form:"minimum_evidence_count"`
	MinimumBelief        float64 `json:"minimum_belief" form:"minimum_belief"`
}

func (p thresholdParams) thresholds() genesets.Thresholds {
	thr := genesets.DefaultThresholds()
	if p.MinimumEvidenceCount > 0 {
		thr.MinimumEvidenceCount = p.MinimumEvidenceCount
	}
	if p.MinimumBelief > 0 {
		thr.MinimumBelief = p.MinimumBelief
	}
	return thr
}

// oraParams configure the multiple testing correction of ORA and RCR.
type oraParams struct {
	Method            string  `json:"method"`
	Alpha             float64 `json:"alpha"`
	KeepInsignificant bool    `json:"keep_insignificant"`
}

func (p oraParams) options() enrichment.ORAOptions {
	opts := enrichment.DefaultORAOptions()
	if p.Method != "" {
		opts.Method = p.Method
	}
	if p.Alpha != 0 {
		opts.Alpha = p.Alpha
	}
	opts.KeepInsignificant = p.KeepInsignificant
	return opts
}

type discreteRequest struct {
	Genes      []string `json:"genes" binding:"required"`
	Background []string `json:"background"`
	oraParams
	thresholdParams
	IndraPathAnalysis bool `json:"indra_path_analysis"`
	PropagateGO       bool `json:"propagate_go"`
}

// Discrete runs over-representation analysis of a gene list.
func (h *Handler) Discrete(c *gin.Context) {
	var req discreteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	genes, unresolved, err := h.analyzer.ParseGeneList(ctx, splitEntries(req.Genes))
	if err != nil {
		h.respondError(c, "Failed to parse genes", err)
		return
	}
	if len(genes) == 0 {
		badRequest(c, apperrors.NewInvalidInput("genes", "no genes could be resolved"))
		return
	}

	opts := enrichment.DiscreteOptions{
		ORAOptions:        req.oraParams.options(),
		Thresholds:        req.thresholdParams.thresholds(),
		IndraPathAnalysis: req.IndraPathAnalysis,
		PropagateGO:       req.PropagateGO,
	}
	if len(req.Background) > 0 {
		background, _, err := h.analyzer.ParseGeneList(ctx, splitEntries(req.Background))
		if err != nil {
			h.respondError(c, "Failed to parse background genes", err)
			return
		}
		opts.Background = background
	}

	results, err := h.analyzer.Discrete(ctx, genes, opts)
	if err != nil {
		h.respondError(c, "Discrete analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"genes":      genes.Sorted(),
		"unresolved": nonNil(unresolved),
		"results":    results,
	})
}

type signedRequest struct {
	PositiveGenes []string `json:"positive_genes"`
	NegativeGenes []string `json:"negative_genes"`
	oraParams
	thresholdParams
}

// Signed runs reverse causal reasoning over up- and down-regulated genes.
func (h *Handler) Signed(c *gin.Context) {
	var req signedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	positive, posUnresolved, err := h.analyzer.ParseGeneList(ctx, splitEntries(req.PositiveGenes))
	if err != nil {
		h.respondError(c, "Failed to parse genes", err)
		return
	}
	negative, negUnresolved, err := h.analyzer.ParseGeneList(ctx, splitEntries(req.NegativeGenes))
	if err != nil {
		h.respondError(c, "Failed to parse genes", err)
		return
	}

	results, err := h.analyzer.Signed(ctx, positive, negative, enrichment.SignedOptions{
		ORAOptions: req.oraParams.options(),
		Thresholds: req.thresholdParams.thresholds(),
	})
	if err != nil {
		h.respondError(c, "Signed analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"positive_genes": positive.Sorted(),
		"negative_genes": negative.Sorted(),
		"unresolved":     nonNil(append(posUnresolved, negUnresolved...)),
		"results":        results,
	})
}

type kinaseRequest struct {
	Phosphosites []string `json:"phosphosites" binding:"required"`
	Background   []string `json:"background"`
	oraParams
	thresholdParams
}

// Kinase runs over-representation analysis of phosphosites against kinase
// substrate sites.
func (h *Handler) Kinase(c *gin.Context) {
	var req kinaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sites, invalid := enrichment.ParsePhosphositeList(splitEntries(req.Phosphosites))
	if len(sites) == 0 {
		badRequest(c, apperrors.NewInvalidInput("phosphosites", "no phosphosites in GENE-SITE form, e.g. MAPK1-T202"))
		return
	}
	opts := enrichment.KinaseOptions{
		ORAOptions: req.oraParams.options(),
		Thresholds: req.thresholdParams.thresholds(),
	}
	if len(req.Background) > 0 {
		opts.Background, _ = enrichment.ParsePhosphositeList(splitEntries(req.Background))
	}

	results, err := h.analyzer.Kinase(c.Request.Context(), sites, opts)
	if err != nil {
		h.respondError(c, "Kinase analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"phosphosites": sites.Sorted(),
		"invalid":      nonNil(invalid),
		"results":      results,
	})
}

// gseaParams override the GSEA defaults when set.
type gseaParams struct {
	Species           string  `json:"species" form:"species"`
	Source            string  `json:"source" form:"source"`
	Permutations      int     `json:"permutations" form:"permutations"`
	Alpha             float64 `json:"alpha" form:"alpha"`
	KeepInsignificant *bool   `json:"keep_insignificant" form:"keep_insignificant"`
	MinSize           int     `json:"min_size" form:"min_size"`
	MaxSize           int     `json:"max_size" form:"max_size"`
	Weight            float64 `json:"weight" form:"weight"`
	Seed              uint64  `json:"seed" form:"seed"`
	thresholdParams
}

func (p gseaParams) input(table enrichment.ScoreTable) enrichment.ContinuousInput {
	opts := enrichment.DefaultGSEAOptions()
	if p.Permutations > 0 {
		opts.Permutations = p.Permutations
	}
	if p.Alpha > 0 {
		opts.Alpha = p.Alpha
	}
	if p.KeepInsignificant != nil {
		opts.KeepInsignificant = *p.KeepInsignificant
	}
	if p.MinSize > 0 {
		opts.MinSize = p.MinSize
	}
	if p.MaxSize > 0 {
		opts.MaxSize = p.MaxSize
	}
	if p.Weight > 0 {
		opts.Weight = p.Weight
	}
	if p.Seed > 0 {
		opts.Seed = p.Seed
	}
	species := p.Species
	if species == "" {
		species = enrichment.SpeciesHuman
	}
	source := p.Source
	if source == "" {
		source = genesets.SourceGO
	}
	return enrichment.ContinuousInput{
		Table:      table,
		Species:    species,
		Source:     source,
		Thresholds: p.thresholds(),
		GSEA:       opts,
	}
}

type continuousRequest struct {
	GeneNames []string  `json:"gene_names" binding:"required"`
	Values    []float64 `json:"values" binding:"required"`
	gseaParams
}

// Continuous runs GSEA over a table of gene scores.
func (h *Handler) Continuous(c *gin.Context) {
	var req continuousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.GeneNames) != len(req.Values) {
		badRequest(c, apperrors.NewInvalidInput("values", "gene_names and values differ in length"))
		return
	}
	table := enrichment.ScoreTable{GeneNames: req.GeneNames, Values: req.Values}
	h.runContinuous(c, req.gseaParams.input(table))
}

// ContinuousUpload runs GSEA over an uploaded CSV or TSV file. The file field
// is "file"; column names come from gene_name_column and
// log_fold_change_column.
func (h *Handler) ContinuousUpload(c *gin.Context) {
	var params gseaParams
	if err := c.ShouldBind(&params); err != nil {
		badRequest(c, err)
		return
	}
	geneColumn := c.DefaultPostForm("gene_name_column", "gene_name")
	scoreColumn := c.DefaultPostForm("log_fold_change_column", "log2FoldChange")

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, apperrors.NewInvalidInput("file", "a CSV or TSV file is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, apperrors.NewInvalidInput("file", err.Error()))
		return
	}
	defer f.Close()

	table, err := enrichment.ReadScoreTable(f, enrichment.SeparatorFor(header.Filename), geneColumn, scoreColumn)
	if err != nil {
		h.respondError(c, "Failed to read input file", err)
		return
	}
	h.runContinuous(c, params.input(table))
}

func (h *Handler) runContinuous(c *gin.Context, in enrichment.ContinuousInput) {
	results, err := h.analyzer.Continuous(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "Continuous analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":  in.Source,
		"species": in.Species,
		"results": results,
	})
}

// GeneSetSizes summarizes the gene sets of one source.
func (h *Handler) GeneSetSizes(c *gin.Context) {
	var params thresholdParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	source := c.Param("source")
	sizes, err := h.analyzer.SetSizes(c.Request.Context(), source, params.thresholds())
	if err != nil {
		h.respondError(c, "Failed to load gene sets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":   source,
		"count":    len(sizes),
		"sizes":    sizes,
		"sources":  genesets.Sources(),
		"max_size": maxValue(sizes),
	})
}

// splitEntries splits every entry on commas and whitespace so that clients
// may send either a list or a pasted text field.
func splitEntries(entries []string) []string {
	var out []string
	for _, e := range entries {
		out = append(out, enrichment.ParseTextField(e)...)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func maxValue(m map[string]int) int {
	best := 0
	for _, v := range m {
		if v > best {
			best = v
		}
	}
	return best
}

func parseBool(c *gin.Context, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, apperrors.NewInvalidInput(key, fmt.Sprintf("%q is not a boolean", raw))
	}
	return v, nil
}
