package domain

import "github.com/blackmichael/skybridge/internal/bluesky"

// LedgerEntry is the recorded outcome of a successful cross-post. Post is
// the created destination record; Root is the root of the thread the post
// belongs to, or nil if the post is itself a thread root.
//
// A failed cross-post is recorded as a nil *LedgerEntry, not as a zero
// value, so "attempted and failed" and "succeeded" cannot be confused.
type LedgerEntry struct {
	Post bluesky.PostRef
	Root *bluesky.PostRef
}

// RootRef returns the thread root this entry's children should reference:
// the entry's own post if it is a root, otherwise the recorded root.
func (e *LedgerEntry) RootRef() bluesky.PostRef {
	if e.Root != nil {
		return *e.Root
	}
	return e.Post
}
