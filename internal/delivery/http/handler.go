package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/usecase"
)

// Handler holds the services behind the message surface
type Handler struct {
	session    *usecase.SessionService
	history    *usecase.HistoryService
	classifier *usecase.ClassifierService
	ranking    *usecase.RankingService
	analyzer   *usecase.AnalyzerService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	session *usecase.SessionService,
	history *usecase.HistoryService,
	classifier *usecase.ClassifierService,
	ranking *usecase.RankingService,
	analyzer *usecase.AnalyzerService,
) *Handler {
	return &Handler{
		session:    session,
		history:    history,
		classifier: classifier,
		ranking:    ranking,
		analyzer:   analyzer,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shoplens-backend",
		"version": "1.0.0",
	})
}

// HandleMessage decodes the envelope and dispatches on its type. Unknown
// kinds are rejected with a 400, never silently dropped.
func (h *Handler) HandleMessage(c *gin.Context) {
	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message envelope: " + err.Error()})
		return
	}

	switch msg.Type {
	case MessageSaveContext:
		h.saveContext(c, msg.Payload)
	case MessageGetContext:
		h.getContext(c)
	case MessageClearContext:
		h.clearContext(c)
	case MessageHasContext:
		h.hasContext(c)
	case MessageCheckSite:
		h.checkSite(c, msg.Payload)
	case MessageExtractProducts:
		h.extractProducts(c, msg.Payload)
	case MessageRankProducts:
		h.rankProducts(c, msg.Payload)
	case MessageGetHistory:
		h.getHistory(c)
	case MessageDeleteHistoryEntry:
		h.deleteHistoryEntry(c, msg.Payload)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (h *Handler) saveContext(c *gin.Context, payload json.RawMessage) {
	var pc domain.ProductContext
	if err := unmarshalPayload(payload, &pc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed saveContext payload"})
		return
	}

	stored, err := h.session.Save(c.Request.Context(), &pc)
	if err != nil {
		respondError(c, err)
		return
	}

	// History capture is fire-and-forget; Upsert absorbs its own storage
	// errors so a failed write never fails the save.
	h.history.Upsert(c.Request.Context(), stored)

	c.JSON(http.StatusOK, gin.H{"context": stored})
}

func (h *Handler) getContext(c *gin.Context) {
	pc, err := h.session.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	// pc is null when no context is held
	c.JSON(http.StatusOK, gin.H{"context": pc})
}

func (h *Handler) clearContext(c *gin.Context) {
	if err := h.session.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (h *Handler) hasContext(c *gin.Context) {
	held, err := h.session.Has(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasContext": held})
}

func (h *Handler) checkSite(c *gin.Context, payload json.RawMessage) {
	var req domain.SiteCheckRequest
	if err := unmarshalPayload(payload, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed checkSite payload"})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "checkSite requires a url"})
		return
	}

	result := h.classifier.Check(c.Request.Context(), &req)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) extractProducts(c *gin.Context, payload json.RawMessage) {
	var req domain.PageAnalysisRequest
	if err := unmarshalPayload(payload, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed extractProducts payload"})
		return
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) rankProducts(c *gin.Context, payload json.RawMessage) {
	var req rankProductsPayload
	if err := unmarshalPayload(payload, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed rankProducts payload"})
		return
	}
	if len(req.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rankProducts requires a non-empty products list"})
		return
	}

	rankCtx := req.Context
	if rankCtx.Query == "" {
		if pc, err := h.session.Get(c.Request.Context()); err == nil && pc != nil {
			rankCtx = domain.RankContext{
				Query:             pc.Query,
				Requirements:      pc.Requirements,
				MentionedProducts: pc.MentionedProducts,
				RecentMessages:    pc.RecentMessages,
			}
		}
	}

	result, err := h.ranking.Rank(c.Request.Context(), rankCtx, req.Products)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getHistory(c *gin.Context) {
	entries := h.history.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) deleteHistoryEntry(c *gin.Context, payload json.RawMessage) {
	var req deleteHistoryPayload
	if err := unmarshalPayload(payload, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed deleteHistoryEntry payload"})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deleteHistoryEntry requires an id"})
		return
	}

	// Absent ids are not an error; delete is idempotent
	h.history.Delete(c.Request.Context(), req.ID)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// unmarshalPayload decodes a payload into dst, treating a missing payload
// as an empty object so required-field checks report the specific field.
func unmarshalPayload(payload json.RawMessage, dst interface{}) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return json.Unmarshal(payload, dst)
}

// respondError maps domain errors onto HTTP statuses. Unrecognized errors
// surface as a 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAnalysisInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "analysis already in progress for this page"})
	case errors.Is(err, domain.ErrScoringUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "scoring service temporarily unavailable"})
	case errors.Is(err, domain.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
