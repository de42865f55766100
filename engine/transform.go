package engine

// transform adjusts the incoming operation's position against every logged
// operation concurrent with it, folding through the log in order. The
// returned operation keeps the incoming id, so applying it still
// de-duplicates correctly.
func transform(op Operation, log []Operation) Operation {
	out := op
	for _, prev := range log {
		if !concurrent(out, prev, op.Clock) {
			continue
		}
		out = transformPair(out, prev)
	}
	return out
}

// transformPair applies the pairwise positional rules for one concurrent
// predecessor. Positions at or before the predecessor's position are left
// alone; positions after it shift by the predecessor's effect on length.
//
// Equal-position insert/insert pairs are tie-broken by author id (the
// lexicographically smaller author keeps the earlier position) so that the
// final content is identical no matter which operation arrived first.
//
// Delete/delete and retain pairs need no adjustment in this model; true
// delete/delete transformation would require range-overlap handling.
func transformPair(in, prev Operation) Operation {
	switch {
	case in.Kind == OpInsert && prev.Kind == OpInsert:
		if in.Position < prev.Position {
			return in
		}
		if in.Position == prev.Position && in.AuthorID < prev.AuthorID {
			return in
		}
		in.Position += len([]rune(prev.Content))

	case in.Kind == OpDelete && prev.Kind == OpInsert:
		if in.Position > prev.Position {
			in.Position += len([]rune(prev.Content))
		}

	case in.Kind == OpInsert && prev.Kind == OpDelete:
		if in.Position > prev.Position {
			in.Position -= prev.Length
			if in.Position < prev.Position {
				in.Position = prev.Position
			}
		}
	}
	return in
}
