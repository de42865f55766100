package socket

import (
	"encoding/json"
	"errors"
	"sync"

	"codecollab/engine"
	"codecollab/pkg/logger"
)

// ContentSource supplies initial file content for the initializeFile
// command, keyed by owning project. Implemented by the persistence layer;
// a nil source falls back to the content carried in the client payload.
type ContentSource interface {
	FileContent(projectID, fileID string) (string, error)
}

// Hub bridges websocket connections and the collaboration engine. Inbound
// frames are dispatched to engine calls; engine events are routed back out
// to the right connections (a single target user, or every session member
// minus an excluded one). The hub holds no collaboration state of its own
// beyond the connection registry.
type Hub struct {
	engine *engine.Engine
	source ContentSource

	mu      sync.Mutex
	clients map[string]*Client // keyed by user id
}

func NewHub(eng *engine.Engine, source ContentSource) *Hub {
	h := &Hub{
		engine:  eng,
		source:  source,
		clients: make(map[string]*Client),
	}
	eng.Subscribe(h.route)
	return h
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.User.ID]; ok {
		// A reconnect replaces the previous connection.
		old.Conn.Close()
	}
	h.clients[c.User.ID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	current, ok := h.clients[c.User.ID]
	active := ok && current == c
	if active {
		delete(h.clients, c.User.ID)
		close(c.Send)
	}
	h.mu.Unlock()

	// A dropped connection is a leave. A stale connection that was already
	// replaced by a reconnect must not tear down the new membership.
	if active {
		h.engine.LeaveSession(c.User.ID)
	}
}

// route delivers one engine event to the connections it addresses. It runs
// after the engine has released its lock, so calling back into the engine
// for the member list is safe.
func (h *Hub) route(e engine.Event) {
	payload, err := json.Marshal(OutboundMessage{
		Event:     e.Name,
		SessionID: e.SessionID,
		UserID:    e.UserID,
		Payload:   e.Payload,
	})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s event: %v", e.Name, err)
		return
	}

	if e.TargetUserID != "" {
		h.send(e.TargetUserID, payload)
		return
	}

	s, ok := h.engine.GetSession(e.SessionID)
	if !ok {
		return
	}
	for userID := range s.Users {
		if userID == e.ExcludeUserID {
			continue
		}
		h.send(userID, payload)
	}
}

func (h *Hub) send(userID string, payload []byte) {
	h.mu.Lock()
	c, ok := h.clients[userID]
	h.mu.Unlock()
	if !ok {
		return
	}
	select {
	case c.Send <- payload:
	default:
		// The send buffer is full, so the client is lagging badly. Closing
		// the connection lets its read pump unregister it cleanly.
		logger.Sugar.Warnf("Client %s's send buffer is full. Disconnecting.", userID)
		c.Conn.Close()
	}
}

func (h *Hub) dispatch(c *Client, msg InboundMessage) {
	switch msg.Command {
	case CommandJoin:
		if _, err := h.engine.JoinSession(msg.SessionID, c.User); err != nil {
			h.sendError(c, msg.Command, err)
		}

	case CommandLeave:
		h.engine.LeaveSession(c.User.ID)

	case CommandApplyOperation:
		if !c.User.Permissions.CanEdit {
			logger.Sugar.Warnf("Permission denied: user %s tried to edit in session %s", c.User.ID, msg.SessionID)
			h.sendError(c, msg.Command, errors.New("editing not permitted"))
			return
		}
		var op engine.Operation
		if err := json.Unmarshal(msg.Payload, &op); err != nil {
			logger.Sugar.Errorf("Error unmarshalling operation from %s: %v", c.User.ID, err)
			return
		}
		op.AuthorID = c.User.ID
		h.engine.ApplyOperation(msg.SessionID, op)

	case CommandUpdateCursor:
		var cursor engine.CursorPosition
		if err := json.Unmarshal(msg.Payload, &cursor); err != nil {
			logger.Sugar.Errorf("Error unmarshalling cursor from %s: %v", c.User.ID, err)
			return
		}
		h.engine.UpdateCursor(c.User.ID, cursor)

	case CommandUpdateSelection:
		var sel engine.SelectionRange
		if err := json.Unmarshal(msg.Payload, &sel); err != nil {
			logger.Sugar.Errorf("Error unmarshalling selection from %s: %v", c.User.ID, err)
			return
		}
		h.engine.UpdateSelection(c.User.ID, sel)

	case CommandSendMessage:
		var p MessagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Error unmarshalling chat message from %s: %v", c.User.ID, err)
			return
		}
		h.engine.SendMessage(c.User.ID, p.Content, p.Kind)

	case CommandInitializeFile:
		var p InitializeFilePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Error unmarshalling initializeFile from %s: %v", c.User.ID, err)
			return
		}
		content := p.Content
		if h.source != nil {
			if s, ok := h.engine.GetSession(msg.SessionID); ok {
				loaded, err := h.source.FileContent(s.ProjectID, p.FileID)
				if err != nil {
					logger.Sugar.Warnf("No stored content for %s/%s, starting empty: %v", s.ProjectID, p.FileID, err)
				} else {
					content = loaded
				}
			}
		}
		h.engine.InitializeFile(msg.SessionID, p.FileID, content)

	default:
		logger.Sugar.Warnf("Unknown command %q from user %s", msg.Command, c.User.ID)
	}
}

func (h *Hub) sendError(c *Client, command string, err error) {
	payload, _ := json.Marshal(OutboundMessage{
		Event:   EventError,
		Payload: ErrorPayload{Command: command, Message: err.Error()},
	})
	h.send(c.User.ID, payload)
}
