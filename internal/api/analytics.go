package api

import (
	"net/http"
	"strconv"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/analytics"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler exposes the per-model performance summaries.
type AnalyticsHandler struct {
	analytics *analytics.Service
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc}
}

// Stats returns the user's per-model aggregates over the requested window.
// days=0 covers the whole log.
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.Error(apperrors.NewInvalidInputError("invalid days parameter"))
			return
		}
		days = parsed
	}

	summary, err := h.analytics.GetStats(middleware.AuthenticatedUserID(c), days)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
