package api

import (
	"context"
	"net/http"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/portrait"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// CharacterHandler manages characters and their portraits.
type CharacterHandler struct {
	store    *store.Store
	portrait *portrait.Generator
	log      *logger.Logger
}

// NewCharacterHandler creates a CharacterHandler.
func NewCharacterHandler(st *store.Store, gen *portrait.Generator, log *logger.Logger) *CharacterHandler {
	return &CharacterHandler{store: st, portrait: gen, log: log}
}

// Create creates a character and generates its portrait in the background.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid character payload").WithDetails(err.Error()))
		return
	}

	userID := middleware.AuthenticatedUserID(c)
	character, err := h.store.CreateCharacter(userID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	if h.portrait != nil {
		go func(ch models.Character) {
			if _, err := h.portrait.GenerateAndSaveCharacterPortrait(context.Background(), &ch); err != nil {
				h.log.Warn("character portrait generation failed", "character_id", ch.ID, "error", err)
			}
		}(*character)
	}

	c.JSON(http.StatusCreated, gin.H{"character": character})
}

// List returns the user's characters.
func (h *CharacterHandler) List(c *gin.Context) {
	characters, err := h.store.GetUserCharacters(middleware.AuthenticatedUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": characters})
}

// Get returns one character.
func (h *CharacterHandler) Get(c *gin.Context) {
	characterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	character, err := h.store.GetCharacter(middleware.AuthenticatedUserID(c), characterID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": character})
}

// Delete soft-deletes a character.
func (h *CharacterHandler) Delete(c *gin.Context) {
	characterID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeactivateCharacter(middleware.AuthenticatedUserID(c), characterID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GeneratePortrait regenerates the character portrait synchronously.
func (h *CharacterHandler) GeneratePortrait(c *gin.Context) {
	characterID, ok := pathID(c, "id")
	if !ok {
		return
	}

	character, err := h.store.GetCharacter(middleware.AuthenticatedUserID(c), characterID)
	if err != nil {
		c.Error(err)
		return
	}

	ref, err := h.portrait.GenerateAndSaveCharacterPortrait(c.Request.Context(), character)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portrait_url": ref})
}
