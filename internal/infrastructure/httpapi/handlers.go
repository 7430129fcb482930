package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"BlogIngest/internal/domain"
	"BlogIngest/internal/logging"
	"BlogIngest/internal/usecase"
)

// Ingestor is the use-case surface the HTTP layer drives.
type Ingestor interface {
	StartIngest(ctx context.Context, subjectID, url string) (domain.IngestResult, error)
	Preview(ctx context.Context, url string) (domain.Preview, error)
	LoadDigest(ctx context.Context, subjectID, linkID string) (usecase.StoredDigest, error)
}

var _ Ingestor = (*usecase.IngestService)(nil)

type startRequest struct {
	URL string `json:"url"`
}

type successBody struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorBody struct {
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// Handler serves the ingest endpoints.
type Handler struct {
	ingest Ingestor
	logger *slog.Logger
}

// NewHandler binds the HTTP layer to an ingestor.
func NewHandler(ingest Ingestor, log *slog.Logger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{ingest: ingest, logger: log}
}

// StartIngest handles POST /api/v1/ingest/resumes/:resumeId/velog/start.
func (h *Handler) StartIngest(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorBody{Status: "error", ErrorCode: domain.CodeInvalidInput, Message: "invalid request body"})
		return
	}

	result, err := h.ingest.StartIngest(c.Request.Context(), c.Param("resumeId"), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successBody{Status: "success", Data: result})
}

// LoadDigest handles GET /api/v1/ingest/resumes/:resumeId/links/:linkId.
func (h *Handler) LoadDigest(c *gin.Context) {
	stored, err := h.ingest.LoadDigest(c.Request.Context(), c.Param("resumeId"), c.Param("linkId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successBody{Status: "success", Data: stored})
}

// Preview handles GET /api/v1/debug/velog?url=.
func (h *Handler) Preview(c *gin.Context) {
	preview, err := h.ingest.Preview(c.Request.Context(), c.Query("url"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successBody{Status: "success", Data: preview})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		h.logger.Debug("request rejected", "path", c.FullPath(), "code", code, "error", err)
	}
	c.JSON(status, errorBody{Status: "error", ErrorCode: code, Message: messageFor(code, err)})
}

func statusFor(code string) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Internal failures never leak their cause to callers.
func messageFor(code string, err error) string {
	switch code {
	case domain.CodeInternal:
		return "internal server error"
	case domain.CodeCrawlingFailed:
		if errors.Is(err, domain.ErrNavigation) {
			return "crawling failed: " + domain.ErrNavigation.Error()
		}
		return "crawling failed"
	default:
		return err.Error()
	}
}
