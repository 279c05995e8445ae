package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/settings"
)

const maxFormMemory = 1 << 20

type SettingsHandler struct {
	store  settings.Store
	opts   settings.Options
	logger *zap.Logger
}

func NewSettingsHandler(store settings.Store, opts settings.Options, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, opts: opts, logger: logger}
}

// controller returns a fresh controller so sizes are read per request.
func (h *SettingsHandler) controller() *settings.Settings {
	return settings.New(h.store, h.opts, h.logger)
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	s := h.controller()

	fields := []models.SettingsField{}
	for _, field := range s.Fields() {
		html, err := field.Render(ctx)
		if err != nil {
			h.logger.Error("Failed to render field", zap.String("key", field.Key), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "Failed to render settings")
			return
		}
		fields = append(fields, models.SettingsField{Key: field.Key, Label: field.Label, HTML: html})
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: gin.H{
			"section": settings.SectionTitle,
			"fields":  fields,
			"sizes":   s.Sizes(ctx),
		},
	})
}

func (h *SettingsHandler) SaveSettings(c *gin.Context) {
	// Multipart values are merged into PostForm; url-encoded bodies report
	// ErrNotMultipart after being parsed.
	err := c.Request.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respondError(c, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	s := h.controller()
	if err := s.Save(c.Request.Context(), c.Request.PostForm); err != nil {
		h.logger.Warn("Failed to save settings", zap.Error(err))
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: gin.H{
			"tinify_sizes": s.TinifySizes(c.Request.Context()),
		},
	})
}
