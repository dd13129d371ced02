package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/callengine"
)

// TokenHandlers issues media platform grants.
type TokenHandlers struct {
	engine callengine.Engine
	log    *zerolog.Logger
}

// NewTokenHandlers creates a new token handlers instance.
func NewTokenHandlers(engine callengine.Engine, logger *zerolog.Logger) *TokenHandlers {
	return &TokenHandlers{
		engine: engine,
		log:    logger,
	}
}

// TokenRequest represents the token request body.
type TokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}

// TokenResponse represents a issued grant.
type TokenResponse struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// IssueToken handles grant issuance.
// POST /api/token
func (h *TokenHandlers) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.log.Debug().Err(err).Msg("invalid token request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
		return
	}

	info, err := h.engine.GenerateJoinInfo(c.Request.Context(), callengine.GrantRequest{
		RoomName:        req.RoomName,
		ParticipantName: req.ParticipantName,
	})
	if err != nil {
		respondError(c, h.log, err, msgMissingTokenFields, map[string]string{
			"roomName":        req.RoomName,
			"participantName": req.ParticipantName,
		})
		return
	}

	h.log.Info().
		Str("room", info.RoomName).
		Str("identity", info.Identity).
		Str("role", string(info.Role)).
		Msg("token issued")
	c.JSON(http.StatusOK, TokenResponse{
		Token:     info.Token,
		URL:       info.URL,
		ExpiresAt: info.ExpiresAt.Format(time.RFC3339),
	})
}

// bindOptionalJSON decodes the body into dst, treating an empty body as {}.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
