package api

import (
	"net/http"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/providers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var startTime = time.Now()

// HealthHandler reports liveness of the database and which providers are
// configured.
type HealthHandler struct {
	db      *gorm.DB
	clients *providers.Factory
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db *gorm.DB, clients *providers.Factory) *HealthHandler {
	return &HealthHandler{db: db, clients: clients}
}

// Check answers the health probe.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	dbStatus := "ok"
	if err := h.db.Exec("SELECT 1").Error; err != nil {
		dbStatus = err.Error()
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).Round(time.Second).String(),
		"components": gin.H{
			"database":  dbStatus,
			"providers": h.clients.ValidateKeys(),
		},
	})
}
