package engine

import "time"

// JoinSession adds the user to the session with status online. A user
// belongs to at most one session system-wide, so a join implicitly tears
// down any previous membership first. The joiner receives a fileStateSync
// event per existing file (current content and version) before any
// further operation can reach them; the rest of the session is then
// notified of the join.
func (e *Engine) JoinSession(sessionID string, u User) (Session, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}

	var events []Event
	if prev, in := e.userSessions[u.ID]; in && prev != sessionID {
		events = append(events, e.leaveLocked(u.ID)...)
	}

	u.Color = colorFor(u.ID)
	u.Status = StatusOnline
	u.LastSeen = time.Now()
	member := u
	s.Users[u.ID] = &member
	s.Active = true
	e.userSessions[u.ID] = sessionID

	for _, fs := range s.Files {
		events = append(events, Event{
			Name:         EventFileStateSync,
			SessionID:    sessionID,
			TargetUserID: u.ID,
			Payload: FileSyncPayload{
				FileID:  fs.FileID,
				Content: fs.Content,
				Version: fs.Version,
			},
		})
	}
	events = append(events, Event{
		Name:          EventUserJoined,
		SessionID:     sessionID,
		UserID:        u.ID,
		ExcludeUserID: u.ID,
		Payload:       UserJoinedPayload{User: member},
	})

	snap := s.snapshot()
	e.mu.Unlock()

	e.bus.publish(events...)
	return snap, nil
}

// LeaveSession removes the user from their current session, if any.
func (e *Engine) LeaveSession(userID string) {
	e.mu.Lock()
	events := e.leaveLocked(userID)
	e.mu.Unlock()
	e.bus.publish(events...)
}

// leaveLocked requires the engine lock. Marks the user offline, drops them
// from the session and builds the userLeftSession event for the remaining
// members. An empty session goes inactive but keeps its file states.
func (e *Engine) leaveLocked(userID string) []Event {
	sessionID, ok := e.userSessions[userID]
	if !ok {
		return nil
	}
	delete(e.userSessions, userID)

	s, ok := e.sessions[sessionID]
	if !ok {
		return nil
	}

	name := userID
	if u, ok := s.Users[userID]; ok {
		u.Status = StatusOffline
		u.LastSeen = time.Now()
		name = u.Name
		delete(s.Users, userID)
	}
	if len(s.Users) == 0 {
		s.Active = false
	}

	return []Event{{
		Name:      EventUserLeft,
		SessionID: sessionID,
		UserID:    userID,
		Payload:   UserLeftPayload{UserID: userID, UserName: name},
	}}
}
