package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/core"
)

// Messages returned to callers. Configuration and internal failures stay generic.
const (
	msgInvalidBody        = "invalid request body"
	msgMisconfiguration   = "Server misconfiguration. Check environment variables."
	msgInternal           = "internal server error"
	msgRateLimited        = "rate limit exceeded"
	msgMissingTokenFields = "Missing roomName or participantName"
	msgMissingViewerField = "Missing roomName or action"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	// Missing and Received are set for validation failures only.
	Missing  []string          `json:"missing,omitempty"`
	Received map[string]string `json:"received,omitempty"`
}

// respondError maps the error taxonomy onto a status code and body.
// received is echoed back for validation failures so callers can debug their payload.
func respondError(c *gin.Context, logger *zerolog.Logger, err error, validationMsg string, received map[string]string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:    validationMsg,
			Missing:  verr.Fields,
			Received: received,
		})
	case errors.Is(err, core.ErrConfiguration):
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("server misconfiguration")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgMisconfiguration})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	}
}
