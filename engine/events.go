package engine

import (
	"log"
	"sync"
	"time"
)

// Event names consumed by the transport collaborator.
const (
	EventSessionCreated   = "sessionCreated"
	EventUserJoined       = "userJoinedSession"
	EventUserLeft         = "userLeftSession"
	EventOperationApplied = "operationApplied"
	EventCursorUpdated    = "cursorUpdated"
	EventSelectionUpdated = "selectionUpdated"
	EventMessageSent      = "messageSent"
	EventFileInitialized  = "fileInitialized"
	EventFileStateSync    = "fileStateSync"
	EventOperationsBatch  = "operationsBatch"
)

// Event is one engine notification. TargetUserID, when set, addresses a
// single user; otherwise the event is for every member of the session,
// minus ExcludeUserID if set. The transport decides how to deliver it.
type Event struct {
	Name          string
	SessionID     string
	UserID        string
	TargetUserID  string
	ExcludeUserID string
	Payload       any
}

// Handler receives engine events. Handlers run on the calling goroutine
// after the engine has released its lock, so they may call back into the
// engine, but they should hand long work off to their own goroutines.
type Handler func(Event)

// bus fans events out to registered handlers in registration order. A
// panicking handler is isolated so it cannot take down the apply path.
type bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func (b *bus) subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *bus) publish(events ...Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, e := range events {
		for _, h := range handlers {
			safeCall(h, e)
		}
	}
}

func safeCall(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: event handler panicked on %s: %v", e.Name, r)
		}
	}()
	h(e)
}

// Typed event payloads.

type SessionCreatedPayload struct {
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type UserJoinedPayload struct {
	User User `json:"user"`
}

type UserLeftPayload struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type OperationAppliedPayload struct {
	Operation Operation `json:"operation"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
}

type CursorUpdatedPayload struct {
	UserID string         `json:"user_id"`
	Cursor CursorPosition `json:"cursor"`
}

type SelectionUpdatedPayload struct {
	UserID    string         `json:"user_id"`
	Selection SelectionRange `json:"selection"`
}

type FileSyncPayload struct {
	FileID  string `json:"file_id"`
	Content string `json:"content"`
	Version int    `json:"version"`
}

type OperationsBatchPayload struct {
	Operations []Operation `json:"operations"`
}
