package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/livestage-server/internal/callengine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestTokenCommandPrintsJoinInfo(t *testing.T) {
	path := writeConfig(t, `
livekit:
  api_key: APIdevkey
  api_secret: dev-secret-that-is-long-enough-for-hmac-0123456789
  url: wss://media.example.test
`)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--room", "studio-1", "--identity", "viewer-eve"})
	require.NoError(t, cmd.Execute())

	var info callengine.JoinInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "studio-1", info.RoomName)
	assert.Equal(t, callengine.RoleViewer, info.Role)
	assert.Equal(t, "wss://media.example.test", info.URL)
	assert.NotEmpty(t, info.Token)
}

func TestTokenCommandRequiresIdentity(t *testing.T) {
	path := writeConfig(t, "livekit:\n  api_key: k\n  api_secret: s\n  url: wss://x\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", path, "--room", "studio-1"})
	assert.Error(t, cmd.Execute())
}
