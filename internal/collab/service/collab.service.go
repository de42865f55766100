package service

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"codecollab/engine"
	"codecollab/internal/collab/repository"
	"codecollab/pkg/logger"
	"codecollab/store"
)

const snapshotInterval = 10 * time.Second

type dirtyFile struct {
	sessionID string
	fileID    string
}

// CollabService orchestrates the engine and durable storage: it creates
// session rows, seeds files from their last snapshot, archives chat
// messages, and periodically flushes edited file content back to the
// database. It also serves as the transport's ContentSource.
type CollabService struct {
	Repo   *repository.CollabRepository
	Engine *engine.Engine

	mu    sync.Mutex
	dirty map[dirtyFile]struct{}
}

func NewCollabService(repo *repository.CollabRepository, eng *engine.Engine) *CollabService {
	s := &CollabService{
		Repo:   repo,
		Engine: eng,
		dirty:  make(map[dirtyFile]struct{}),
	}
	eng.Subscribe(s.observe)
	return s
}

func (s *CollabService) CreateSession(projectID, name string) (engine.Session, error) {
	if projectID == "" {
		return engine.Session{}, errors.New("project id is required")
	}
	if name == "" {
		name = "Untitled Session"
	}

	sess := s.Engine.CreateSession(projectID, name)
	if err := s.Repo.CreateSession(sess.ID, projectID, name); err != nil {
		return engine.Session{}, err
	}
	return sess, nil
}

// InitializeFile seeds a file into the session from its last persisted
// snapshot. A file with no snapshot starts empty.
func (s *CollabService) InitializeFile(sessionID, fileID string) error {
	sess, ok := s.Engine.GetSession(sessionID)
	if !ok {
		return engine.ErrSessionNotFound
	}

	content, err := s.Repo.FileContent(sess.ProjectID, fileID)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	s.Engine.InitializeFile(sessionID, fileID, content)
	return nil
}

// FileContent implements socket.ContentSource.
func (s *CollabService) FileContent(projectID, fileID string) (string, error) {
	return s.Repo.FileContent(projectID, fileID)
}

// observe watches engine events: operation batches mark files dirty for
// the next snapshot pass, chat messages are archived as they happen.
func (s *CollabService) observe(e engine.Event) {
	switch e.Name {
	case engine.EventOperationsBatch:
		p, ok := e.Payload.(engine.OperationsBatchPayload)
		if !ok {
			return
		}
		s.mu.Lock()
		for _, op := range p.Operations {
			s.dirty[dirtyFile{sessionID: e.SessionID, fileID: op.FileID}] = struct{}{}
		}
		s.mu.Unlock()

	case engine.EventMessageSent:
		m, ok := e.Payload.(engine.Message)
		if !ok {
			return
		}
		if err := s.Repo.ArchiveMessage(e.SessionID, m); err != nil {
			logger.Sugar.Warnf("Message %s not archived: %v", m.ID, err)
		}
	}
}

// SnapshotWorker persists dirty file states every snapshotInterval until
// stop closes, then performs a final flush. Run it in its own goroutine.
func (s *CollabService) SnapshotWorker(stop <-chan struct{}) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flushSnapshots()
		case <-stop:
			s.flushSnapshots()
			return
		}
	}
}

func (s *CollabService) flushSnapshots() {
	s.mu.Lock()
	pending := s.dirty
	s.dirty = make(map[dirtyFile]struct{})
	s.mu.Unlock()

	for key := range pending {
		sess, ok := s.Engine.GetSession(key.sessionID)
		if !ok {
			continue
		}
		fs, ok := sess.Files[key.fileID]
		if !ok {
			continue
		}

		err := s.Repo.SaveSnapshot(store.FileSnapshot{
			ProjectID: sess.ProjectID,
			FileID:    fs.FileID,
			Content:   fs.Content,
			Version:   fs.Version,
		})
		if err != nil {
			// Leave the file dirty so the next tick retries.
			s.mu.Lock()
			s.dirty[key] = struct{}{}
			s.mu.Unlock()
			continue
		}
		logger.Sugar.Infof("Snapshotted %s/%s at version %d", sess.ProjectID, fs.FileID, fs.Version)
	}
}
