package repository

import (
	"database/sql"

	"codecollab/engine"
	"codecollab/pkg/logger"
	"codecollab/store"
)

type CollabRepository struct {
	DB *sql.DB
}

func NewCollabRepository(db *sql.DB) *CollabRepository {
	return &CollabRepository{DB: db}
}

// FileContent returns the last persisted content of a project file.
// Propagates sql.ErrNoRows for files never snapshotted.
func (r *CollabRepository) FileContent(projectID, fileID string) (string, error) {
	var content string
	err := r.DB.QueryRow("SELECT content FROM file_snapshots WHERE project_id = $1 AND file_id = $2",
		projectID, fileID).Scan(&content)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load content for %s/%s: %v", projectID, fileID, err)
	}
	return content, err
}

func (r *CollabRepository) SaveSnapshot(snap store.FileSnapshot) error {
	_, err := r.DB.Exec(`INSERT INTO file_snapshots (project_id, file_id, content, version, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (project_id, file_id) DO UPDATE SET content = $3, version = $4, updated_at = NOW()`,
		snap.ProjectID, snap.FileID, snap.Content, snap.Version)
	if err != nil {
		logger.Sugar.Errorf("Failed to save snapshot for %s/%s: %v", snap.ProjectID, snap.FileID, err)
	}
	return err
}

func (r *CollabRepository) CreateSession(id, projectID, name string) error {
	_, err := r.DB.Exec(`INSERT INTO collab_sessions (id, project_id, name, created_at) VALUES ($1, $2, $3, NOW())`,
		id, projectID, name)
	if err != nil {
		logger.Sugar.Errorf("Failed to create session row %s: %v", id, err)
	}
	return err
}

func (r *CollabRepository) ArchiveMessage(sessionID string, m engine.Message) error {
	_, err := r.DB.Exec(`INSERT INTO session_messages (id, session_id, kind, content, author_id, author_name, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, sessionID, m.Kind, m.Content, m.AuthorID, m.AuthorName, m.SentAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to archive message %s in session %s: %v", m.ID, sessionID, err)
	}
	return err
}
