package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/portrait"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// CampaignHandler manages campaigns and their GM portraits.
type CampaignHandler struct {
	store    *store.Store
	portrait *portrait.Generator
	log      *logger.Logger
}

// NewCampaignHandler creates a CampaignHandler.
func NewCampaignHandler(st *store.Store, gen *portrait.Generator, log *logger.Logger) *CampaignHandler {
	return &CampaignHandler{store: st, portrait: gen, log: log}
}

// Create creates a campaign and kicks off GM portrait generation in the
// background; the portrait reference appears on the campaign once ready.
func (h *CampaignHandler) Create(c *gin.Context) {
	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid campaign payload").WithDetails(err.Error()))
		return
	}

	userID := middleware.AuthenticatedUserID(c)
	campaign, err := h.store.CreateCampaign(userID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	if h.portrait != nil {
		go func(cp models.Campaign) {
			if _, err := h.portrait.GenerateAndSaveGMPortrait(context.Background(), &cp); err != nil {
				h.log.Warn("gm portrait generation failed", "campaign_id", cp.ID, "error", err)
			}
		}(*campaign)
	}

	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

// List returns the user's campaigns with message counts and last activity.
func (h *CampaignHandler) List(c *gin.Context) {
	summaries, err := h.store.GetUserCampaigns(middleware.AuthenticatedUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": summaries})
}

// Get returns one campaign.
func (h *CampaignHandler) Get(c *gin.Context) {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.store.GetCampaign(middleware.AuthenticatedUserID(c), campaignID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// Delete soft-deletes a campaign.
func (h *CampaignHandler) Delete(c *gin.Context) {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeactivateCampaign(middleware.AuthenticatedUserID(c), campaignID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GeneratePortrait regenerates the GM portrait synchronously.
func (h *CampaignHandler) GeneratePortrait(c *gin.Context) {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.store.GetCampaign(middleware.AuthenticatedUserID(c), campaignID)
	if err != nil {
		c.Error(err)
		return
	}

	ref, err := h.portrait.GenerateAndSaveGMPortrait(c.Request.Context(), campaign)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gm_portrait": ref})
}

// pathID parses a positive integer path parameter, reporting InvalidInput
// through the error middleware on failure.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.Error(apperrors.NewInvalidInputError("invalid " + name + " parameter"))
		return 0, false
	}
	return uint(id), true
}
