package api

import (
	"net/http"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/session"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/jwt"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsMaxMessageSize = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP layer already enforces CORS.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler streams chat turns over a websocket. Each inbound frame is one
// player turn; each outbound frame is the GM's reply for it.
type WSHandler struct {
	orch *session.Orchestrator
	jwt  *jwt.Service
	log  *logger.Logger
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(orch *session.Orchestrator, jwtService *jwt.Service, log *logger.Logger) *WSHandler {
	return &WSHandler{orch: orch, jwt: jwtService, log: log}
}

type wsTurnRequest struct {
	CampaignID  uint   `json:"campaign_id"`
	CharacterID *uint  `json:"character_id,omitempty"`
	Content     string `json:"content"`
}

type wsTurnReply struct {
	Turn  *session.TurnResult `json:"turn,omitempty"`
	Error *wsError            `json:"error,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Serve authenticates the connection via a token query parameter, upgrades
// it and runs the turn loop until the client disconnects.
func (h *WSHandler) Serve(c *gin.Context) {
	claims, err := h.jwt.ValidateToken(c.Query("token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	log := h.log.WithUserID(claims.UserID)
	log.Info("websocket session opened")

	for {
		var req wsTurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		result, err := h.orch.SendMessage(c.Request.Context(), claims.UserID, req.CampaignID, req.CharacterID, req.Content)

		reply := wsTurnReply{Turn: result}
		if err != nil {
			appErr := apperrors.FromError(err)
			reply.Error = &wsError{Code: appErr.Code, Message: appErr.Message}
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("websocket write failed", "error", err)
			return
		}
	}
}
