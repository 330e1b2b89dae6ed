package types

import "encoding/json"

const (
	TypeWebsocketPing       = "ping"
	TypeWebsocketPong       = "pong"
	TypeWebsocketChat       = "chat"
	TypeWebsocketProcessing = "processing"
	TypeWebsocketChunk      = "chunk"
	TypeWebsocketDone       = "done"
	TypeWebsocketError      = "error"
)

type WebsocketRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WebSocketChatPayload struct {
	Messages []Message `json:"messages"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type WebSocketChunkResponse struct {
	Content string `json:"content"`
}

type WebSocketErrorResponse struct {
	Message string `json:"message"`
}
