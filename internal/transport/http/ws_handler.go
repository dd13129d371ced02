package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/livestage-server/internal/config"
	"github.com/vovakirdan/livestage-server/internal/core"
	"github.com/vovakirdan/livestage-server/internal/proto"
)

// errClientReleased reports that the hub dropped the client, which happens on shutdown.
var errClientReleased = errors.New("client released by hub")

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	accept    websocket.AcceptOptions
	readLimit int64
	perMinute int
	now       func() time.Time
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		accept:    acceptOptions(cfg.AllowedOrigins),
		readLimit: cfg.MaxMessageBytes,
		perMinute: cfg.MessagesPerMinute,
		now:       time.Now,
		log:       logger,
	}
}

func acceptOptions(origins []string) websocket.AcceptOptions {
	for _, o := range origins {
		if o == "*" {
			return websocket.AcceptOptions{InsecureSkipVerify: true}
		}
	}
	return websocket.AcceptOptions{OriginPatterns: origins}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	accept := h.accept
	conn, err := websocket.Accept(w, r, &accept)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := core.NewClient(uuid.NewString())
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	h.log.Debug().Str("client_id", client.ID).Str("remote", remoteHost(r)).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	if errors.Is(err, errClientReleased) {
		// Close before cancelling: a cancelled read context tears the socket down without a close frame.
		h.log.Debug().Str("client_id", client.ID).Msg("ws released by hub")
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		cancel()
		<-errCh
		return
	}
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("client_id", client.ID).Msg("ws disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newMessageLimiter(h.perMinute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			if websocket.CloseStatus(err) == -1 {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			}
			return err
		}

		if protoErr := h.rateLimit(limiter, inbound); protoErr != nil {
			if err := h.reject(ctx, conn, client, protoErr); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(client, inbound, h.now())
		if protoErr != nil {
			if err := h.reject(ctx, conn, client, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// rateLimit only applies to chat messages; membership changes are never throttled.
func (h *WSHandler) rateLimit(l *rate.Limiter, inbound proto.Inbound) *proto.Error {
	if inbound.Type != proto.InboundTypeChatMessage || allowMessage(l) {
		return nil
	}
	return &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}
}

func (h *WSHandler) reject(ctx context.Context, conn *websocket.Conn, client *core.Client, protoErr *proto.Error) error {
	h.log.Debug().Str("client_id", client.ID).Str("code", protoErr.Code).Msg(protoErr.Msg)
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: protoErr,
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return errClientReleased
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
