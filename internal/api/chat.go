package api

import (
	"net/http"
	"strconv"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/session"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ChatHandler exposes the conversation loop over HTTP.
type ChatHandler struct {
	store *store.Store
	orch  *session.Orchestrator
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(st *store.Store, orch *session.Orchestrator) *ChatHandler {
	return &ChatHandler{store: st, orch: orch}
}

type startRequest struct {
	CharacterID *uint `json:"character_id"`
}

// Start seeds a fresh campaign conversation and returns the GM's opening
// turn.
func (h *ChatHandler) Start(c *gin.Context) {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.NewInvalidInputError("invalid start payload").WithDetails(err.Error()))
			return
		}
	}

	result, err := h.orch.Start(c.Request.Context(), middleware.AuthenticatedUserID(c), campaignID, req.CharacterID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"turn": result})
}

type messageRequest struct {
	Content     string `json:"content" binding:"required"`
	CharacterID *uint  `json:"character_id"`
}

// SendMessage appends a player turn and returns the GM's reply. Failed
// provider calls still return 200: the error summary is a normal assistant
// turn in the transcript.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid message payload").WithDetails(err.Error()))
		return
	}

	result, err := h.orch.SendMessage(c.Request.Context(), middleware.AuthenticatedUserID(c), campaignID, req.CharacterID, req.Content)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"turn": result})
}

// History returns a campaign's transcript in ascending order. Without an
// id query parameter it targets the user's most recently active campaign.
func (h *ChatHandler) History(c *gin.Context) {
	var campaignID *uint
	if raw := c.Query("campaign_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.Error(apperrors.NewInvalidInputError("invalid campaign_id parameter"))
			return
		}
		id := uint(parsed)
		campaignID = &id
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.store.GetCampaignMessages(middleware.AuthenticatedUserID(c), campaignID, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// CampaignHistory returns the transcript for one campaign path parameter.
func (h *ChatHandler) CampaignHistory(c *gin.Context) {
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.store.GetCampaignMessages(middleware.AuthenticatedUserID(c), &campaignID, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
