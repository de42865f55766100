package engine

import (
	"hash/fnv"
	"time"
)

// User presence status values.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// MessageKind values for chat messages.
const (
	MessageText        = "text"
	MessageSystem      = "system"
	MessageFileShare   = "file_share"
	MessageCodeSnippet = "code_snippet"
)

// Operation kinds.
const (
	OpInsert = "insert"
	OpDelete = "delete"
	OpRetain = "retain"
)

// Permissions is the per-user permission set supplied by the identity
// collaborator at join time. The engine carries it but does not enforce it;
// enforcement happens before operations reach the engine.
type Permissions struct {
	CanEdit    bool `json:"can_edit"`
	CanComment bool `json:"can_comment"`
	CanShare   bool `json:"can_share"`
	CanDelete  bool `json:"can_delete"`
}

// CursorPosition is ephemeral, last-writer-wins per user.
type CursorPosition struct {
	FileID  string `json:"file_id"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Visible bool   `json:"visible"`
}

// SelectionRange is ephemeral, last-writer-wins per user.
type SelectionRange struct {
	FileID      string `json:"file_id"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

// User is one participant in a collaboration session.
type User struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Avatar      string          `json:"avatar,omitempty"`
	Color       string          `json:"color"`
	Status      string          `json:"status"`
	LastSeen    time.Time       `json:"last_seen"`
	Cursor      *CursorPosition `json:"cursor,omitempty"`
	Selection   *SelectionRange `json:"selection,omitempty"`
	Permissions Permissions     `json:"permissions"`
}

// Operation is a single edit authored by one user. The Timestamp is the
// author's local logical clock (a plain incrementing integer, not wall
// time) and Clock is the vector clock snapshot the author carried when
// submitting. Operations are immutable once created; the transformed copy
// appended to the log keeps the same ID so de-duplication still works.
type Operation struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	FileID     string            `json:"file_id"`
	AuthorID   string            `json:"author_id"`
	Timestamp  int               `json:"timestamp"`
	Position   int               `json:"position"`
	Content    string            `json:"content,omitempty"`
	Length     int               `json:"length,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Clock      VectorClock       `json:"clock,omitempty"`
}

// Message is a chat message scoped to a session. Appended in arrival
// order, never edited, never deduplicated.
type Message struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// Session groups the users, file states and chat history of one
// collaborative editing session.
type Session struct {
	ID        string                `json:"id"`
	ProjectID string                `json:"project_id"`
	Name      string                `json:"name"`
	Users     map[string]*User      `json:"users"`
	Files     map[string]*FileState `json:"files"`
	Messages  []Message             `json:"messages"`
	CreatedAt time.Time             `json:"created_at"`
	Active    bool                  `json:"active"`
}

// snapshot deep-copies the session so callers can read it without holding
// the engine lock.
func (s *Session) snapshot() Session {
	out := *s
	out.Users = make(map[string]*User, len(s.Users))
	for id, u := range s.Users {
		cp := *u
		out.Users[id] = &cp
	}
	out.Files = make(map[string]*FileState, len(s.Files))
	for id, f := range s.Files {
		out.Files[id] = f.snapshot()
	}
	out.Messages = append([]Message(nil), s.Messages...)
	return out
}

// A small fixed palette; every client derives the same color for the same
// user id, so cursors and avatars stay consistent across replicas.
var userPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

func colorFor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return userPalette[int(h.Sum32())%len(userPalette)]
}
