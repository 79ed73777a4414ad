// handlers.go - HTTP handlers for prescription analysis and lookups

package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/ai"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/lookup"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
	"github.com/bosocmputer/prescription_analyzer/internal/ocr"
	"github.com/bosocmputer/prescription_analyzer/internal/pipeline"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
	"github.com/bosocmputer/prescription_analyzer/internal/storage"
	"github.com/bosocmputer/prescription_analyzer/internal/translate"
)

// Disclaimer is attached to every analysis response
const Disclaimer = "This schedule is generated automatically from a photo and may contain mistakes. " +
	"Always confirm medicines and doses with your doctor or pharmacist."

// analysisTimeout bounds one upload from OCR to translation
const analysisTimeout = 5 * time.Minute

// Credential override headers
const (
	HeaderVisionKey      = "X-Vision-Api-Key"
	HeaderGeminiKey      = "X-Gemini-Api-Key"
	HeaderOpenAIKey      = "X-OpenAI-Api-Key"
	HeaderAnthropicKey   = "X-Anthropic-Api-Key"
	HeaderTranslationKey = "X-Translation-Api-Key"
)

// DrugInfoService resolves drug information through the lookup tiers
type DrugInfoService interface {
	Lookup(ctx context.Context, name string, reqCtx *common.RequestContext) (*models.DrugInfo, *common.TokenUsage, error)
}

// SafetyService serves the supplemental openFDA sections
type SafetyService interface {
	Interactions(ctx context.Context, name string) (*models.DrugInteractions, error)
	AdverseEvents(ctx context.Context, name string, limit int) ([]models.AdverseEvent, error)
}

// AlternativesService finds generic alternatives
type AlternativesService interface {
	SearchMedicine(ctx context.Context, name string) ([]models.GenericAlternative, error)
}

// StoreService finds dispensing stores
type StoreService interface {
	Find(ctx context.Context, q lookup.StoreQuery, reqCtx *common.RequestContext) ([]models.Store, error)
}

// Handler serves the HTTP API
type Handler struct {
	cfg          *configs.Config
	analyzer     *pipeline.Analyzer
	sessions     *SessionStore
	drugs        func(p configs.ProviderConfig) DrugInfoService
	safety       SafetyService
	alternatives AlternativesService
	stores       StoreService
	translator   func(p configs.ProviderConfig) translate.Translator
}

// NewHandler wires the handler to the real providers
func NewHandler(cfg *configs.Config, limiter *ratelimit.Limiter) *Handler {
	fda := lookup.NewFDAClient(cfg, limiter)
	jan := lookup.NewJanAushadhiClient(cfg, limiter)
	aiOpts := ai.OptionsFromConfig(cfg, limiter)
	reference := storage.ReferenceData{}

	return &Handler{
		cfg:      cfg,
		analyzer: pipeline.NewAnalyzer(cfg, limiter),
		sessions: NewSessionStore(time.Duration(cfg.SessionTTLMin) * time.Minute),
		drugs: func(p configs.ProviderConfig) DrugInfoService {
			d := &lookup.DrugLookup{Authoritative: fda, Reference: reference}
			if gen, err := ai.CreateTextGenerator(p, aiOpts); err == nil {
				d.Generator = gen
			}
			return d
		},
		safety:       fda,
		alternatives: jan,
		stores:       &lookup.StoreFinder{Remote: jan, Directory: reference},
		translator: func(p configs.ProviderConfig) translate.Translator {
			return translate.NewGoogleTranslator(p.Credentials.TranslationAPIKey, cfg, limiter)
		},
	}
}

// RegisterRoutes mounts the API under /api/v1
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	v1.POST("/analyze-prescription", h.AnalyzePrescriptionHandler)
	v1.GET("/sessions/:id", h.GetSessionHandler)
	v1.POST("/sessions/:id/language", h.SwitchLanguageHandler)
	v1.DELETE("/sessions/:id", h.DeleteSessionHandler)

	v1.POST("/translate", h.TranslateHandler)
	v1.GET("/languages", h.LanguagesHandler)

	v1.GET("/drugs/search/:name", h.DrugSearchHandler)
	v1.GET("/drugs/interactions/:name", h.InteractionsHandler)
	v1.GET("/drugs/adverse-events/:name", h.AdverseEventsHandler)
	v1.GET("/drugs/alternatives/:name", h.AlternativesHandler)
	v1.GET("/stores/search", h.StoreSearchHandler)
	v1.GET("/medicines/:name/overview", h.MedicineOverviewHandler)
}

// providersFromRequest applies the request's provider choices and
// credential headers over the environment defaults
func (h *Handler) providersFromRequest(c *gin.Context) configs.ProviderConfig {
	override := configs.ProviderConfig{
		OCRProvider:    c.PostForm("ocr_provider"),
		LLMProvider:    c.PostForm("llm_provider"),
		TargetLanguage: c.PostForm("language"),
		Credentials: configs.Credentials{
			VisionAPIKey:      c.GetHeader(HeaderVisionKey),
			GeminiAPIKey:      c.GetHeader(HeaderGeminiKey),
			OpenAIAPIKey:      c.GetHeader(HeaderOpenAIKey),
			AnthropicAPIKey:   c.GetHeader(HeaderAnthropicKey),
			TranslationAPIKey: c.GetHeader(HeaderTranslationKey),
		},
	}
	if override.LLMProvider == "" {
		override.LLMProvider = c.Query("llm_provider")
	}
	if override.TargetLanguage == "" {
		override.TargetLanguage = c.Query("language")
	}
	return h.cfg.Providers().WithOverrides(override)
}

func respondError(c *gin.Context, err error, extra gin.H) {
	body := gin.H{}
	for k, v := range common.UserFacing(err) {
		body[k] = v
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(common.HTTPStatus(err), body)
}

// AnalyzePrescriptionHandler runs the pipeline over one uploaded file
func (h *Handler) AnalyzePrescriptionHandler(c *gin.Context) {
	reqCtx := common.NewRequestContext("api")

	maxBytes := int64(h.cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "file is required",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload", "request_id": reqCtx.RequestID})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload", "request_id": reqCtx.RequestID})
		return
	}

	img, err := ocr.DetectImage(data, fileHeader.Filename)
	if err != nil {
		respondError(c, err, gin.H{"request_id": reqCtx.RequestID})
		return
	}
	reqCtx.LogInfo("upload %s (%s, %d bytes)", fileHeader.Filename, img.MIMEType, len(data))

	providers := h.providersFromRequest(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), analysisTimeout)
	defer cancel()

	result, err := h.analyzer.Analyze(ctx, img, providers, reqCtx)
	if err != nil {
		respondError(c, err, gin.H{
			"request_id":         reqCtx.RequestID,
			"processing_summary": reqCtx.GetPartialSummary(),
		})
		return
	}

	sessionID := h.sessions.Put(result.Session)

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"session_id":         sessionID,
		"language":           result.Language,
		"record":             result.Record,
		"schedule":           result.Schedule,
		"confidence":         result.Confidence,
		"translated_view":    result.View,
		"translation_notice": result.Notice,
		"raw_text":           result.RawText,
		"disclaimer":         Disclaimer,
		"request_id":         reqCtx.RequestID,
		"summary":            reqCtx.GetSummary(),
	})
}

// GetSessionHandler returns the session's current view and the original
func (h *Handler) GetSessionHandler(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
		return
	}
	lang, view := session.Current()
	c.JSON(http.StatusOK, gin.H{
		"session_id": c.Param("id"),
		"language":   lang,
		"view":       view,
		"original":   session.Original(),
		"languages":  session.CachedLanguages(),
	})
}

// DeleteSessionHandler discards a session
func (h *Handler) DeleteSessionHandler(c *gin.Context) {
	h.sessions.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type switchLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// SwitchLanguageHandler makes a language current for a session. Returning to
// English restores the retained original.
func (h *Handler) SwitchLanguageHandler(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
		return
	}

	var req switchLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language is required", "details": err.Error()})
		return
	}

	reqCtx := common.NewRequestContext("api")
	p := h.providersFromRequest(c)

	res, err := session.SwitchLanguage(c.Request.Context(), h.translator(p), req.Language, reqCtx)
	if err != nil {
		lang, _ := session.Current()
		respondError(c, err, gin.H{"request_id": reqCtx.RequestID, "language": lang})
		return
	}

	lang, _ := session.Current()
	c.JSON(http.StatusOK, gin.H{
		"session_id": c.Param("id"),
		"language":   lang,
		"view":       res.View,
		"cached":     res.Cached,
		"superseded": res.Superseded,
		"request_id": reqCtx.RequestID,
	})
}

type translateRequest struct {
	Texts        []string `json:"texts"`
	Target       string   `json:"target" binding:"required"`
	EstimateOnly bool     `json:"estimate_only"`
}

// TranslateHandler translates a batch of strings, one output per input.
// With estimate_only it returns the expected cost without calling the
// provider.
func (h *Handler) TranslateHandler(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	estimate := 0.0
	if !translate.IsSource(req.Target) {
		if _, ok := translate.NormalizeLanguage(req.Target); !ok {
			respondError(c, common.UnsupportedInput("unsupported target language %q", req.Target), nil)
			return
		}
		estimate = translate.EstimateCost(req.Texts, h.cfg.Pricing.TranslationPerMillionChar)
	}
	if req.EstimateOnly {
		c.JSON(http.StatusOK, gin.H{"target": req.Target, "estimated_cost_usd": estimate})
		return
	}

	out, usage, err := translate.TranslateBatch(c.Request.Context(), h.translator(h.providersFromRequest(c)), req.Texts, req.Target)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"translations": out, "usage": usage, "estimated_cost_usd": estimate})
}

// LanguagesHandler lists the selectable target languages
func (h *Handler) LanguagesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"source":    configs.SourceLanguage,
		"default":   h.cfg.DefaultLanguage,
		"languages": translate.Languages,
	})
}

// lookupDrug runs the drug tiers and translates the result when a language
// other than English is requested. A translation failure keeps the English
// record and adds a notice.
func (h *Handler) lookupDrug(ctx context.Context, p configs.ProviderConfig, name string, reqCtx *common.RequestContext) (gin.H, error) {
	info, _, err := h.drugs(p).Lookup(ctx, name, reqCtx)
	if err != nil {
		return nil, err
	}

	body := gin.H{"query": name, "cleaned_name": lookup.CleanMedicineName(name), "drug": info, "source": info.Source}
	lang := p.Language()
	if translate.IsSource(lang) {
		return body, nil
	}

	translated, _, err := translate.TranslateDrugInfo(ctx, h.translator(p), *info, lang)
	if err != nil {
		body["translation_notice"] = common.UserFacing(err)
		return body, nil
	}
	body["translated"] = translated
	body["language"] = lang
	return body, nil
}

// DrugSearchHandler returns drug information for a medicine name
func (h *Handler) DrugSearchHandler(c *gin.Context) {
	reqCtx := common.NewRequestContext("api")
	body, err := h.lookupDrug(c.Request.Context(), h.providersFromRequest(c), c.Param("name"), reqCtx)
	if err != nil {
		respondError(c, err, gin.H{"request_id": reqCtx.RequestID})
		return
	}
	c.JSON(http.StatusOK, body)
}

// InteractionsHandler returns label interaction sections
func (h *Handler) InteractionsHandler(c *gin.Context) {
	name := lookup.CleanMedicineName(c.Param("name"))
	interactions, err := h.safety.Interactions(c.Request.Context(), name)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, interactions)
}

// AdverseEventsHandler returns adverse event report summaries
func (h *Handler) AdverseEventsHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	name := lookup.CleanMedicineName(c.Param("name"))

	events, err := h.safety.AdverseEvents(c.Request.Context(), name, limit)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adverse_events": events})
}

// AlternativesHandler returns generic alternatives, cheapest first
func (h *Handler) AlternativesHandler(c *gin.Context) {
	name := lookup.CleanMedicineName(c.Param("name"))
	alts, err := h.alternatives.SearchMedicine(c.Request.Context(), name)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": name, "alternatives": alts, "count": len(alts)})
}

// StoreSearchHandler finds stores by PIN, state and district
func (h *Handler) StoreSearchHandler(c *gin.Context) {
	var q lookup.StoreQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	reqCtx := common.NewRequestContext("api")
	stores, err := h.stores.Find(c.Request.Context(), q, reqCtx)
	if err != nil {
		respondError(c, err, gin.H{"request_id": reqCtx.RequestID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores, "count": len(stores)})
}

func partStatus(data interface{}, err error) gin.H {
	if err != nil {
		part := gin.H{"status": "error"}
		for k, v := range common.UserFacing(err) {
			part[k] = v
		}
		if common.KindOf(err) == common.KindNoMatchFound {
			part["status"] = "not_found"
		}
		return part
	}
	return gin.H{"status": "ok", "data": data}
}

// MedicineOverviewHandler fetches drug information, alternatives and (with a
// pin_code) stores concurrently and joins them. Each part reports its own
// status; one failing part never hides the others.
func (h *Handler) MedicineOverviewHandler(c *gin.Context) {
	name := c.Param("name")
	pin := strings.TrimSpace(c.Query("pin_code"))
	p := h.providersFromRequest(c)
	reqCtx := common.NewRequestContext("api")
	ctx := c.Request.Context()

	var drug, alternatives, stores gin.H
	var g errgroup.Group

	g.Go(func() error {
		body, err := h.lookupDrug(ctx, p, name, reqCtx)
		drug = partStatus(body, err)
		return nil
	})
	g.Go(func() error {
		alts, err := h.alternatives.SearchMedicine(ctx, lookup.CleanMedicineName(name))
		alternatives = partStatus(alts, err)
		return nil
	})
	if pin != "" {
		g.Go(func() error {
			found, err := h.stores.Find(ctx, lookup.StoreQuery{PinCode: pin}, reqCtx)
			stores = partStatus(found, err)
			return nil
		})
	}
	g.Wait()

	resp := gin.H{
		"medicine":     name,
		"cleaned_name": lookup.CleanMedicineName(name),
		"drug_info":    drug,
		"alternatives": alternatives,
		"request_id":   reqCtx.RequestID,
	}
	if stores != nil {
		resp["stores"] = stores
	} else {
		resp["stores"] = gin.H{"status": "skipped", "details": "pass pin_code to search nearby stores"}
	}
	c.JSON(http.StatusOK, resp)
}
