package api

import (
	"net/http"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/providers"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/registry"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ModelHandler exposes the model catalog and the user's model preference.
type ModelHandler struct {
	store   *store.Store
	clients *providers.Factory
}

// NewModelHandler creates a ModelHandler.
func NewModelHandler(st *store.Store, clients *providers.Factory) *ModelHandler {
	return &ModelHandler{store: st, clients: clients}
}

type modelView struct {
	Name        string  `json:"name"`
	Provider    string  `json:"provider"`
	Description string  `json:"description"`
	PriceIn     float64 `json:"price_in_per_1k"`
	PriceOut    float64 `json:"price_out_per_1k"`
	Available   bool    `json:"available"`
}

// List returns the catalog in its stable order, with per-provider
// availability from the configured credentials.
func (h *ModelHandler) List(c *gin.Context) {
	available := h.clients.ValidateKeys()

	views := make([]modelView, 0, len(registry.Names()))
	for _, name := range registry.Names() {
		info := registry.Get(name)
		views = append(views, modelView{
			Name:        name,
			Provider:    info.Provider,
			Description: info.Description,
			PriceIn:     info.PriceIn,
			PriceOut:    info.PriceOut,
			Available:   available[info.Provider],
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": views})
}

type modelChoiceRequest struct {
	Model string `json:"model" binding:"required"`
}

// SaveChoice upserts the user's preferred model.
func (h *ModelHandler) SaveChoice(c *gin.Context) {
	var req modelChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid model choice payload").WithDetails(err.Error()))
		return
	}
	if !registry.Known(req.Model) {
		c.Error(apperrors.NewInvalidInputError("unknown model: " + req.Model))
		return
	}

	userID := middleware.AuthenticatedUserID(c)
	if err := h.store.SaveModelChoice(userID, req.Model); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": req.Model})
}

// GetChoice returns the user's saved model, falling back to the default.
func (h *ModelHandler) GetChoice(c *gin.Context) {
	choice, err := h.store.GetModelChoice(middleware.AuthenticatedUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	if choice == "" {
		choice = registry.DefaultModel
	}
	c.JSON(http.StatusOK, gin.H{"model": choice})
}
