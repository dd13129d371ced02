package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/livestage-server/internal/config"
)

type tokenVideo struct {
	Room       string `json:"room"`
	CanPublish *bool  `json:"canPublish"`
	Hidden     bool   `json:"hidden"`
}

type tokenClaims struct {
	Video tokenVideo `json:"video"`
	jwt.RegisteredClaims
}

func parseToken(t *testing.T, token string) *tokenClaims {
	t.Helper()

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testAPISecret), nil
	})
	require.NoError(t, err)
	return claims
}

func TestIssueTokenForViewerAndHost(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, "POST", "/api/token", `{"roomName":"studio-1","participantName":"viewer-bob"}`)
	require.Equal(t, http.StatusOK, status, string(raw))
	viewer := decode[TokenResponse](t, raw)
	assert.Equal(t, testMediaURL, viewer.URL)

	expires, err := time.Parse(time.RFC3339, viewer.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expires, 5*time.Second)

	claims := parseToken(t, viewer.Token)
	assert.Equal(t, "viewer-bob", claims.Subject)
	assert.Equal(t, "studio-1", claims.Video.Room)
	require.NotNil(t, claims.Video.CanPublish)
	assert.False(t, *claims.Video.CanPublish)
	assert.True(t, claims.Video.Hidden)

	status, raw = env.do(t, "POST", "/api/token", `{"roomName":"studio-1","participantName":"alice"}`)
	require.Equal(t, http.StatusOK, status, string(raw))
	host := parseToken(t, decode[TokenResponse](t, raw).Token)
	require.NotNil(t, host.Video.CanPublish)
	assert.True(t, *host.Video.CanPublish)
	assert.False(t, host.Video.Hidden)
}

func TestIssueTokenValidationEchoesInput(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, "POST", "/api/token", `{"roomName":"studio-1"}`)
	require.Equal(t, http.StatusBadRequest, status)

	resp := decode[ErrorResponse](t, raw)
	assert.Equal(t, msgMissingTokenFields, resp.Error)
	assert.Equal(t, []string{"participantName"}, resp.Missing)
	assert.Equal(t, map[string]string{"roomName": "studio-1", "participantName": ""}, resp.Received)
}

func TestIssueTokenEmptyBodyIsValidationError(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, "POST", "/api/token", "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"roomName", "participantName"}, decode[ErrorResponse](t, raw).Missing)
}

func TestIssueTokenMalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, "POST", "/api/token", `{"roomName":`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgInvalidBody, decode[ErrorResponse](t, raw).Error)
}

func TestIssueTokenMisconfigurationHidesSecrets(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.LiveKit.URL = "" })

	status, raw := env.do(t, "POST", "/api/token", `{"roomName":"r","participantName":"p"}`)
	require.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, msgMisconfiguration, decode[ErrorResponse](t, raw).Error)
	assert.NotContains(t, string(raw), testAPISecret)
	assert.NotContains(t, string(raw), testAPIKey)
}

func TestIssueTokenRateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.TokenRateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	})

	status, _ := env.do(t, "POST", "/api/token", `{"roomName":"r","participantName":"p"}`)
	require.Equal(t, http.StatusOK, status)

	status, raw := env.do(t, "POST", "/api/token", `{"roomName":"r","participantName":"p"}`)
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, msgRateLimited, decode[ErrorResponse](t, raw).Error)

	// Viewer endpoints are not throttled.
	status, _ = env.do(t, "GET", "/api/viewers/r", "")
	assert.Equal(t, http.StatusOK, status)
}
