package socket

import "encoding/json"

// Inbound commands delivered by connected clients.
const (
	CommandJoin            = "join"
	CommandLeave           = "leave"
	CommandApplyOperation  = "applyOperation"
	CommandUpdateCursor    = "updateCursor"
	CommandUpdateSelection = "updateSelection"
	CommandSendMessage     = "sendMessage"
	CommandInitializeFile  = "initializeFile"
)

// EventError is the transport-level rejection frame; every other outbound
// event name comes from the engine unchanged.
const EventError = "error"

// InboundMessage is the wire envelope for client commands. UserID is
// overwritten with the authenticated id server-side, so a client cannot
// act on behalf of another user.
type InboundMessage struct {
	Command   string          `json:"command"`
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// OutboundMessage wraps an engine event for delivery to a client.
type OutboundMessage struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

type MessagePayload struct {
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

type InitializeFilePayload struct {
	FileID  string `json:"file_id"`
	Content string `json:"content,omitempty"`
}

type ErrorPayload struct {
	Command string `json:"command"`
	Message string `json:"message"`
}
