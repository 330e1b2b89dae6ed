package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tieubaoca/foodchat-be/middleware"
	"github.com/tieubaoca/foodchat-be/service"
	"github.com/tieubaoca/foodchat-be/types"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// WSChatHandler serves chat completions over a websocket. Each chat frame runs
// one relay; the fragments arrive as chunk frames followed by a done or error
// frame.
type WSChatHandler struct {
	relay        *service.StreamRelay
	upgrader     websocket.Upgrader
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewWSChatHandler(relay *service.StreamRelay, allowedOrigins []string, maxBodyBytes int64, logger *zap.Logger) *WSChatHandler {
	cors := NewCorsHandler(allowedOrigins)
	return &WSChatHandler{
		relay: relay,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cors.allowOrigin(origin) != ""
			},
		},
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

func (h *WSChatHandler) HandleChat(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		log.Info("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(h.maxBodyBytes)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ws := &wsConn{conn: conn}
	go ws.keepAlive(ctx)

	for {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("Websocket read error", zap.Error(err))
			}
			return
		}

		var req types.WebsocketRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if ws.writeError("invalid frame: " + err.Error()) != nil {
				return
			}
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			err = ws.writeJSON(types.WebSocketResponse{Type: types.TypeWebsocketPong})
		case types.TypeWebsocketChat:
			err = h.relayChat(ctx, ws, req.Payload, log)
		default:
			err = ws.writeError("unknown message type " + req.Type)
		}
		if err != nil {
			log.Info("Closing websocket after write failure", zap.Error(err))
			return
		}
	}
}

// relayChat runs one relay for a chat frame. Only transport failures are
// returned; everything else is reported to the client as an error frame.
func (h *WSChatHandler) relayChat(ctx context.Context, ws *wsConn, payload json.RawMessage, log *zap.Logger) error {
	var chat types.WebSocketChatPayload
	if err := json.Unmarshal(payload, &chat); err != nil {
		return ws.writeError(errMalformed("invalid chat payload: " + err.Error()).Error())
	}
	if chat.Messages == nil {
		return ws.writeError(errMalformed("payload.messages must be an array").Error())
	}
	if err := types.ValidateMessages(chat.Messages); err != nil {
		return ws.writeError(err.Error())
	}

	stats, err := h.relay.Relay(ctx, service.BuildConversation(chat.Messages), &wsSink{ws: ws})
	log = log.With(
		zap.Int("messages", len(chat.Messages)),
		zap.Int("fragments", stats.Fragments),
		zap.Int("bytes", stats.Bytes),
	)

	switch {
	case err == nil:
		log.Debug("Websocket chat stream completed")
		return ws.writeJSON(types.WebSocketResponse{Type: types.TypeWebsocketDone})
	case errors.Is(err, service.ErrUpstreamSetup):
		log.Error("Failed to start chat completion", zap.Error(err))
		return ws.writeError("chat completion service unavailable")
	case errors.Is(err, service.ErrTransportWrite):
		return err
	default:
		log.Error("Websocket chat stream failed", zap.Error(err))
		return ws.writeError("chat completion interrupted")
	}
}

// wsConn wraps the connection for the handler goroutine, its only writer of
// data frames. The keepalive pinger only uses WriteControl, which gorilla
// allows concurrently.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v interface{}) error {
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) writeError(message string) error {
	return w.writeJSON(types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebSocketErrorResponse{Message: message},
	})
}

func (w *wsConn) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

type wsSink struct {
	ws *wsConn
}

func (s *wsSink) Open() error {
	return s.ws.writeJSON(types.WebSocketResponse{Type: types.TypeWebsocketProcessing})
}

func (s *wsSink) WriteFragment(fragment string) error {
	return s.ws.writeJSON(types.WebSocketResponse{
		Type:    types.TypeWebsocketChunk,
		Payload: types.WebSocketChunkResponse{Content: fragment},
	})
}
