package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

// RequireForm rejects request bodies that are not HTML form submissions.
func RequireForm() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		if !strings.HasPrefix(contentType, "application/x-www-form-urlencoded") &&
			!strings.HasPrefix(contentType, "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, models.APIResponse{
				Success: false,
				Error:   "Expected a form submission",
			})
			return
		}

		ctx.Next()
	}
}
