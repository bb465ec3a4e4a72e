package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"unibus/internal/hub"
	"unibus/internal/telemetry"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// WSHandler turns each websocket connection into a registered
// observer. Inbound frames carry no semantics except ping, which is
// answered; everything else is consumed and dropped.
type WSHandler struct {
	registry   *hub.Registry
	metrics    telemetry.Sink
	bufferSize int
	logger     zerolog.Logger
}

func NewWSHandler(registry *hub.Registry, metrics telemetry.Sink, bufferSize int, logger zerolog.Logger) *WSHandler {
	if metrics == nil {
		metrics = telemetry.NopSink{}
	}
	return &WSHandler{
		registry:   registry,
		metrics:    metrics,
		bufferSize: bufferSize,
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

type wsInbound struct {
	Type string `json:"type"`
}

type wsPong struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}

	observer := hub.NewObserver(h.bufferSize)
	handle := h.registry.Register(observer)
	h.metrics.RecordObservers(h.registry.Len())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, observer)

	h.readLoop(ctx, conn, observer)

	// the read loop returning means the connection is gone: remove
	// the observer now, not on the next broadcast attempt.
	h.registry.Unregister(handle)
	h.metrics.RecordObservers(h.registry.Len())
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, observer *hub.Observer) {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug().Err(err).Str("observer_id", observer.ID).Msg("websocket read ended")
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			h.sendPong(observer)
		}
		// all other client frames are keepalive noise
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, observer *hub.Observer) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case frame, ok := <-observer.Frames():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server closing")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendPong(observer *hub.Observer) {
	data, err := json.Marshal(wsPong{Type: "pong"})
	if err != nil {
		return
	}
	if err := observer.TrySend(data); err != nil {
		h.logger.Debug().Err(err).Str("observer_id", observer.ID).Msg("pong dropped")
	}
}
