package api

import (
	"errors"
	"net/http"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/jwt"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	store *store.Store
	jwt   *jwt.Service
	log   *logger.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(st *store.Store, jwtService *jwt.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{store: st, jwt: jwtService, log: log}
}

// Signup registers a new user and returns a token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid signup payload").WithDetails(err.Error()))
		return
	}

	user, err := h.store.CreateUser(&req)
	if err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			c.Error(apperrors.NewError(http.StatusConflict, "email_taken", err.Error()))
			return
		}
		c.Error(err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse(), "token": token})
}

// Login authenticates a user and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid login payload").WithDetails(err.Error()))
		return
	}

	user, err := h.store.Authenticate(&req)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.Error(err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse(), "token": token})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.store.GetUser(middleware.AuthenticatedUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}
