package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/livestage-server/internal/callengine/livekit"
	"github.com/vovakirdan/livestage-server/internal/config"
	"github.com/vovakirdan/livestage-server/internal/core"
	"github.com/vovakirdan/livestage-server/internal/metrics"
	"github.com/vovakirdan/livestage-server/internal/presence"
	"github.com/vovakirdan/livestage-server/internal/proto"
)

const (
	testAPIKey    = "APIdevkey"
	testAPISecret = "dev-secret-that-is-long-enough-for-hmac-0123456789"
	testMediaURL  = "wss://media.example.test"
)

type testEnv struct {
	ts      *httptest.Server
	tracker *presence.Tracker
	metrics *metrics.Metrics
	// stopHub cancels the hub's run loop.
	stopHub context.CancelFunc
}

// newTestEnv starts a full router. mutate may adjust the config before wiring.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.LiveKit.APIKey = testAPIKey
	cfg.LiveKit.APISecret = testAPISecret
	cfg.LiveKit.URL = testMediaURL
	cfg.TokenRateLimit = config.RateLimitConfig{}
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	m := metrics.New(metrics.WithViewerSeriesLimit(cfg.MaxViewerSeries))
	hub := core.NewHub(m, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	tracker := presence.NewTracker(m)
	engine := livekit.New(cfg.LiveKit, livekit.WithObserver(m), livekit.WithLogger(&logger))

	router := NewRouter(Deps{Hub: hub, Tracker: tracker, Engine: engine, Metrics: m}, cfg, &logger)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, tracker: tracker, metrics: m, stopHub: cancel}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	return e.doWithHeaders(t, method, path, body, nil)
}

func (e *testEnv) doWithHeaders(t *testing.T, method, path, body string, headers map[string]string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := stdhttp.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type wireOutbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) wireOutbound {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var out wireOutbound
	if err := wsjson.Read(readCtx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

// joinWS joins a room and waits for the acknowledgement.
func joinWS(t *testing.T, ctx context.Context, conn *websocket.Conn, room string) {
	t.Helper()

	send(t, ctx, conn, proto.InboundTypeJoinRoom, room)
	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeRoomJoined {
		t.Fatalf("expected %s, got %+v", proto.OutboundTypeRoomJoined, out)
	}
}
