package store

import "time"

// FileSnapshot is the persisted form of a file's collaborative content.
// The snapshot worker writes one row per project/file pair; the same row
// seeds the engine when the file re-enters a session.
type FileSnapshot struct {
	ProjectID string    `json:"project_id"`
	FileID    string    `json:"file_id"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
