package engine

// VectorClock maps author id to the number of that author's operations
// incorporated so far. Entries only ever increase.
type VectorClock map[string]int

// Clone returns a copy of the clock. A nil clock clones to an empty one.
func (c VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(c))
	for id, n := range c {
		out[id] = n
	}
	return out
}

// Bump returns a copy of the clock with the author's counter incremented
// (starting from zero for an unseen author). Other entries are untouched.
func (c VectorClock) Bump(authorID string) VectorClock {
	out := c.Clone()
	out[authorID]++
	return out
}

// concurrent reports whether a and b are concurrent with respect to the
// reference clock: neither author's counter in the clock had yet observed
// the other's operation. Callers pass the incoming operation's carried
// clock snapshot, so for an incoming a and a logged b this reduces to
// "a's author had not seen b when a was written".
//
// This is an approximation of true causal concurrency; it relies on
// sessions being short-lived and mostly synchronous. It does not carry
// full causal histories.
func concurrent(a, b Operation, clock VectorClock) bool {
	return a.Timestamp > clock[a.AuthorID] && b.Timestamp > clock[b.AuthorID]
}
