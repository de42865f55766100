package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned by JoinSession for an unknown session id.
// Joining a nonexistent session is an unambiguous client error; every
// other lookup miss in the engine is a silent no-op, which tolerates races
// between "user left" and late-arriving presence updates.
var ErrSessionNotFound = errors.New("collaboration session not found")

const (
	defaultFlushInterval = 100 * time.Millisecond
	defaultBufferCap     = 1000
)

// Engine is the authoritative in-memory collaboration core for one
// process. All public operations take the single engine mutex, mutate
// state, then publish events after releasing it; the original design is
// single-threaded and this lock is its Go equivalent. Construct with New,
// call Start to begin the broadcast flush ticker, Stop on shutdown.
type Engine struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	userSessions map[string]string // user id -> session id, at most one
	buffers      map[string][]Operation

	bus           bus
	flushInterval time.Duration
	bufferCap     int

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New() *Engine {
	return &Engine{
		sessions:      make(map[string]*Session),
		userSessions:  make(map[string]string),
		buffers:       make(map[string][]Operation),
		flushInterval: defaultFlushInterval,
		bufferCap:     defaultBufferCap,
		done:          make(chan struct{}),
	}
}

// Subscribe registers a handler for engine events. Handlers are invoked in
// registration order.
func (e *Engine) Subscribe(h Handler) {
	e.bus.subscribe(h)
}

// Start launches the periodic broadcast-buffer flush.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.flushLoop()
}

// Stop halts the flush ticker and flushes whatever is still buffered.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
	e.FlushAll()
}

// CreateSession registers a new session with no users, files or messages.
func (e *Engine) CreateSession(projectID, name string) Session {
	s := &Session{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Users:     make(map[string]*User),
		Files:     make(map[string]*FileState),
		CreatedAt: time.Now(),
		Active:    true,
	}

	e.mu.Lock()
	e.sessions[s.ID] = s
	snap := s.snapshot()
	e.mu.Unlock()

	e.bus.publish(Event{
		Name:      EventSessionCreated,
		SessionID: s.ID,
		Payload: SessionCreatedPayload{
			SessionID: s.ID,
			ProjectID: s.ProjectID,
			Name:      s.Name,
			CreatedAt: s.CreatedAt,
		},
	})
	return snap
}

// ApplyOperation routes an inbound edit to its file state. The file is
// created lazily if no operation or initialize call has touched it yet.
// Unknown sessions and duplicate operation ids are silent no-ops. The
// accepted (transformed) operation is queued on the session's broadcast
// buffer and the author receives an operationApplied ack carrying the new
// content and version.
func (e *Engine) ApplyOperation(sessionID string, op Operation) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return
	}

	fs, ok := s.Files[op.FileID]
	if !ok {
		fs = newFileState(op.FileID)
		s.Files[op.FileID] = fs
	}

	t, accepted := fs.apply(op)
	if !accepted {
		e.mu.Unlock()
		return
	}

	events := e.enqueueLocked(sessionID, t)
	events = append(events, Event{
		Name:         EventOperationApplied,
		SessionID:    sessionID,
		UserID:       op.AuthorID,
		TargetUserID: op.AuthorID,
		Payload: OperationAppliedPayload{
			Operation: t,
			Content:   fs.Content,
			Version:   fs.Version,
		},
	})
	e.mu.Unlock()

	e.bus.publish(events...)
}

// InitializeFile seeds (or resets) a file's collaborative state with
// content sourced from the persistence collaborator. Unknown sessions are
// a silent no-op.
func (e *Engine) InitializeFile(sessionID, fileID, content string) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return
	}

	fs, ok := s.Files[fileID]
	if !ok {
		fs = newFileState(fileID)
		s.Files[fileID] = fs
	}
	fs.initialize(content)
	e.mu.Unlock()

	e.bus.publish(Event{
		Name:      EventFileInitialized,
		SessionID: sessionID,
		Payload:   FileSyncPayload{FileID: fileID, Content: content, Version: 1},
	})
}

// GetSession returns a deep copy of the session, or false if unknown.
func (e *Engine) GetSession(sessionID string) (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return s.snapshot(), true
}

// GetUserSession returns the id of the session the user currently belongs
// to, or false if they belong to none.
func (e *Engine) GetUserSession(userID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.userSessions[userID]
	return id, ok
}

// CompactFileLog drops operation-log entries that every author covered by
// the watermark has already observed, bounding memory in long sessions.
// The watermark should be the minimum of all active authors' clocks.
// Returns the number of entries dropped.
func (e *Engine) CompactFileLog(sessionID, fileID string, watermark VectorClock) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return 0
	}
	fs, ok := s.Files[fileID]
	if !ok {
		return 0
	}
	return fs.compact(watermark)
}
