package engine

import (
	"time"

	"github.com/google/uuid"
)

// UpdateCursor overwrites the user's cursor and notifies the other session
// members. A user with no current session is a silent no-op; no session or
// user state is created for them.
func (e *Engine) UpdateCursor(userID string, cursor CursorPosition) {
	e.mu.Lock()
	u, sessionID := e.memberLocked(userID)
	if u == nil {
		e.mu.Unlock()
		return
	}
	c := cursor
	u.Cursor = &c
	u.LastSeen = time.Now()
	e.mu.Unlock()

	e.bus.publish(Event{
		Name:          EventCursorUpdated,
		SessionID:     sessionID,
		UserID:        userID,
		ExcludeUserID: userID,
		Payload:       CursorUpdatedPayload{UserID: userID, Cursor: cursor},
	})
}

// UpdateSelection overwrites the user's selection range, last writer wins.
func (e *Engine) UpdateSelection(userID string, selection SelectionRange) {
	e.mu.Lock()
	u, sessionID := e.memberLocked(userID)
	if u == nil {
		e.mu.Unlock()
		return
	}
	sel := selection
	u.Selection = &sel
	u.LastSeen = time.Now()
	e.mu.Unlock()

	e.bus.publish(Event{
		Name:          EventSelectionUpdated,
		SessionID:     sessionID,
		UserID:        userID,
		ExcludeUserID: userID,
		Payload:       SelectionUpdatedPayload{UserID: userID, Selection: selection},
	})
}

// SendMessage appends a chat message to the sender's session and notifies
// every member, sender included, so clients render all messages through
// one path. Messages are never transformed or deduplicated; a duplicate
// send produces a duplicate message.
func (e *Engine) SendMessage(userID, content, kind string) {
	if kind == "" {
		kind = MessageText
	}

	e.mu.Lock()
	u, sessionID := e.memberLocked(userID)
	if u == nil {
		e.mu.Unlock()
		return
	}
	msg := Message{
		ID:           uuid.NewString(),
		Kind:         kind,
		Content:      content,
		AuthorID:     u.ID,
		AuthorName:   u.Name,
		AuthorAvatar: u.Avatar,
		SentAt:       time.Now(),
	}
	s := e.sessions[sessionID]
	s.Messages = append(s.Messages, msg)
	e.mu.Unlock()

	e.bus.publish(Event{
		Name:      EventMessageSent,
		SessionID: sessionID,
		UserID:    userID,
		Payload:   msg,
	})
}

// memberLocked requires the engine lock. Resolves a user id to their
// session membership, nil if they have none.
func (e *Engine) memberLocked(userID string) (*User, string) {
	sessionID, ok := e.userSessions[userID]
	if !ok {
		return nil, ""
	}
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, ""
	}
	u, ok := s.Users[userID]
	if !ok {
		return nil, ""
	}
	return u, sessionID
}
