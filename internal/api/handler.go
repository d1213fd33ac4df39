package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
	"EthioNews/internal/topic"
	"EthioNews/internal/usecase"
)

// Service is the read side the handlers depend on.
type Service interface {
	Feed(ctx context.Context, q ports.FeedQuery) ([]domain.Story, error)
	Search(ctx context.Context, q ports.SearchQuery) ([]domain.Story, error)
	Story(ctx context.Context, id string) (domain.Story, error)
	DailyBrief(ctx context.Context, slot domain.Slot, lang domain.Lang) (usecase.Brief, error)
	Audio(ctx context.Context, id string) (domain.Audio, error)
	Sources() []domain.Source
	Ping(ctx context.Context) error
}

// AudioGenerator produces per-story narration on demand.
type AudioGenerator interface {
	StoryAudio(ctx context.Context, storyID string, lang domain.Lang) (domain.Audio, error)
}

// HandlerDeps wires the HTTP handlers.
type HandlerDeps struct {
	Service Service
	Audio   AudioGenerator
	Version string
	Logger  *slog.Logger
	Clock   func() time.Time
}

type Handler struct {
	svc     Service
	audio   AudioGenerator
	version string
	log     *slog.Logger
	clock   func() time.Time
}

func NewHandler(deps HandlerDeps) *Handler {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Handler{svc: deps.Service, audio: deps.Audio, version: deps.Version, log: log, clock: clock}
}

// Feed: GET /api/feed?lang=en&topic=economy&source=all&since=2024-05-01T00:00:00Z&limit=20
func (h *Handler) Feed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stories, err := h.svc.Feed(c.Request.Context(), ports.FeedQuery{
		Lang:   langOrDefault(req.Lang),
		Topic:  filterValue(req.Topic),
		Source: filterValue(req.Source),
		Since:  req.Since,
		Limit:  limitOrDefault(req.Limit),
	})
	if err != nil {
		h.writeError(c, "feed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": nonNil(stories)})
}

// Search: GET /api/search?q=coffee&lang=en&limit=20
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required: " + err.Error()})
		return
	}

	stories, err := h.svc.Search(c.Request.Context(), ports.SearchQuery{
		Text:  req.Query,
		Limit: limitOrDefault(req.Limit),
	})
	if err != nil {
		h.writeError(c, "search", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": nonNil(stories)})
}

// Story: GET /api/story/:id
func (h *Handler) Story(c *gin.Context) {
	story, err := h.svc.Story(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "story", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": story})
}

// DailyBrief: GET /api/daily-brief?slot=am&lang=en
func (h *Handler) DailyBrief(c *gin.Context) {
	var req briefRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brief, err := h.svc.DailyBrief(c.Request.Context(), slotOrDefault(req.Slot), langOrDefault(req.Lang))
	if err != nil {
		h.writeError(c, "daily brief", err)
		return
	}
	c.JSON(http.StatusOK, brief)
}

// StoryAudio: POST /api/story/:id/audio
// Body: {"lang": "am"}; an empty body means English.
func (h *Handler) StoryAudio(c *gin.Context) {
	var req storyAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	audio, err := h.audio.StoryAudio(c.Request.Context(), c.Param("id"), langOrDefault(req.Lang))
	if err != nil {
		h.writeError(c, "story audio", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio": audio})
}

// AudioFile: GET /api/audio/:id streams the MP3.
func (h *Handler) AudioFile(c *gin.Context) {
	audio, err := h.svc.Audio(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "audio", err)
		return
	}
	if _, err := os.Stat(audio.FilePath); err != nil {
		h.log.Warn("audio file missing", "audio_id", audio.ID, "path", audio.FilePath, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "audio file not found"})
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	c.File(audio.FilePath)
}

// Sources: GET /api/sources
func (h *Handler) Sources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": nonNil(h.svc.Sources())})
}

// Topics: GET /api/topics
func (h *Handler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": topic.Topics()})
}

// Health: GET /health
func (h *Handler) Health(c *gin.Context) {
	status, database, code := "ok", "connected", http.StatusOK
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		h.log.Error("health check failed", "error", err)
		status, database, code = "error", "disconnected", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  database,
		"version":   h.version,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeError(c *gin.Context, op string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.log.Error("request failed", "op", op, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
