package model

import "time"

type CreateSessionRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type InitializeFileRequest struct {
	SessionID string `json:"session_id"`
	FileID    string `json:"file_id"`
}

type ParticipantInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Status string `json:"status"`
}

type FileInfo struct {
	FileID  string `json:"file_id"`
	Version int    `json:"version"`
}

type SessionResponse struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id"`
	Name         string            `json:"name"`
	Active       bool              `json:"active"`
	CreatedAt    time.Time         `json:"created_at"`
	Participants []ParticipantInfo `json:"participants"`
	Files        []FileInfo        `json:"files"`
}
