package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/services/compressor"
	"github.com/phambaophuc/tiny-compress-images/internal/services/queue"
	"github.com/phambaophuc/tiny-compress-images/internal/services/storage"
)

type Compressor interface {
	CompressAttachment(ctx context.Context, id int64) (*models.CompressionSummary, error)
	Status(ctx context.Context, id int64) ([]models.RenditionStatus, error)
}

type Publisher interface {
	PublishJob(ctx context.Context, job *models.CompressionJob) error
	HealthCheck() string
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]string
}

type AttachmentHandler struct {
	compressor Compressor
	publisher  Publisher
	health     HealthChecker
	logger     *zap.Logger
}

// NewAttachmentHandler wires the handler. publisher may be nil, in which
// case compression runs inside the request.
func NewAttachmentHandler(c Compressor, publisher Publisher, health HealthChecker, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		compressor: c,
		publisher:  publisher,
		health:     health,
		logger:     logger,
	}
}

func (h *AttachmentHandler) GetStatus(c *gin.Context) {
	id, err := parseAttachmentID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	statuses, err := h.compressor.Status(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    statuses,
	})
}

func (h *AttachmentHandler) Compress(c *gin.Context) {
	id, err := parseAttachmentID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if h.publisher != nil {
		job := queue.NewJob(id)
		if err := h.publisher.PublishJob(c.Request.Context(), job); err != nil {
			h.logger.Error("Failed to publish job", zap.Int64("attachment_id", id), zap.Error(err))
			respondError(c, http.StatusServiceUnavailable, "Failed to queue compression")
			return
		}
		c.JSON(http.StatusAccepted, models.APIResponse{
			Success: true,
			Data:    job,
		})
		return
	}

	summary, err := h.compressor.CompressAttachment(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    summary,
	})
}

func (h *AttachmentHandler) HealthCheck(c *gin.Context) {
	services := h.health.HealthCheck(c.Request.Context())
	if h.publisher != nil {
		services["rabbitmq"] = h.publisher.HealthCheck()
	} else {
		services["rabbitmq"] = "not configured"
	}
	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func (h *AttachmentHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrAttachmentNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, compressor.ErrNoAPIKey):
		respondError(c, http.StatusPreconditionFailed, err.Error())
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
