package engine

import "time"

// FileState is the authoritative in-memory record of one file's
// collaborative content within a session. Content is the materialized
// result of replaying every accepted operation; Log keeps the accepted
// (already transformed) operations so new arrivals can be checked for
// concurrency against them. Log grows with every accepted operation, so
// long-lived sessions should call Compact once all active authors have
// advanced past a watermark.
type FileState struct {
	FileID       string      `json:"file_id"`
	Content      string      `json:"content"`
	Version      int         `json:"version"`
	Log          []Operation `json:"-"`
	Clock        VectorClock `json:"clock"`
	LastModified time.Time   `json:"last_modified"`
	ModifiedBy   string      `json:"modified_by"`

	applied map[string]struct{}
}

func newFileState(fileID string) *FileState {
	return &FileState{
		FileID:  fileID,
		Clock:   make(VectorClock),
		applied: make(map[string]struct{}),
	}
}

// initialize resets the state to the given content at version 1 with an
// empty log. Used when a file enters collaborative editing for the first
// time, seeded from the persistence collaborator.
func (f *FileState) initialize(content string) {
	f.Content = content
	f.Version = 1
	f.Log = nil
	f.Clock = make(VectorClock)
	f.applied = make(map[string]struct{})
	f.LastModified = time.Now()
}

// apply transforms the operation against the concurrent portion of the log
// and splices it into the content. Returns the transformed operation and
// whether it was accepted; an operation id seen before is a no-op, which
// makes redelivery by the transport harmless.
func (f *FileState) apply(op Operation) (Operation, bool) {
	if _, dup := f.applied[op.ID]; dup {
		return Operation{}, false
	}

	t := transform(op, f.Log)
	switch t.Kind {
	case OpInsert:
		f.Content = spliceInsert(f.Content, t.Position, t.Content)
	case OpDelete:
		f.Content = spliceDelete(f.Content, t.Position, t.Length)
	case OpRetain:
		// retain carries attributes only; content is untouched.
	}

	f.Log = append(f.Log, t)
	f.applied[t.ID] = struct{}{}
	f.Version++
	f.Clock = f.Clock.Bump(op.AuthorID)
	f.LastModified = time.Now()
	f.ModifiedBy = op.AuthorID
	return t, true
}

// compact drops log entries every author has already observed according to
// the watermark clock, i.e. entries with Timestamp <= watermark[author].
// Returns the number of entries dropped.
func (f *FileState) compact(watermark VectorClock) int {
	kept := f.Log[:0]
	for _, op := range f.Log {
		if op.Timestamp > watermark[op.AuthorID] {
			kept = append(kept, op)
		}
	}
	dropped := len(f.Log) - len(kept)
	f.Log = kept
	return dropped
}

func (f *FileState) snapshot() *FileState {
	cp := *f
	cp.Log = append([]Operation(nil), f.Log...)
	cp.Clock = f.Clock.Clone()
	cp.applied = nil
	return &cp
}

// Positions arrive as character offsets from clients, so splicing works on
// runes, and out-of-range offsets are clamped to the current content
// rather than rejected.

func spliceInsert(content string, pos int, text string) string {
	r := []rune(content)
	if pos < 0 {
		pos = 0
	}
	if pos > len(r) {
		pos = len(r)
	}
	return string(r[:pos]) + text + string(r[pos:])
}

func spliceDelete(content string, pos, length int) string {
	r := []rune(content)
	if pos < 0 {
		pos = 0
	}
	if pos > len(r) {
		pos = len(r)
	}
	end := pos + length
	if end > len(r) {
		end = len(r)
	}
	if end < pos {
		end = pos
	}
	return string(r[:pos]) + string(r[end:])
}
