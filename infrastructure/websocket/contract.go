package websocket

import "encoding/json"

// Inbound frame types.
const (
	FrameJoin    = "join"
	FrameMessage = "message"
	FrameLeave   = "leave"
)

// Frame is what clients send. Data is decoded by the handler once the type
// is known.
type Frame struct {
	Type      string          `json:"type"`
	RoomToken string          `json:"roomToken,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type JoinInput struct {
	DisplayName string `json:"displayName"`
	RoomToken   string `json:"roomToken,omitempty"`
}

type MessageInput struct {
	Body string `json:"body"`
}

// Error codes raised by the transport itself.
const (
	CodeInvalidFrame = "invalid_frame"
	CodeUnknownType  = "unknown_type"
	CodeRateLimited  = "rate_limited"
	CodeTooLarge     = "message_too_large"
)
