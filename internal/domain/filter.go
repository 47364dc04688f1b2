package domain

import "github.com/blackmichael/skybridge/internal/mastodon"

// Filter decides which streaming events are eligible for cross-posting.
type Filter struct {
	accountID string
}

// NewFilter creates a filter for the tracked account.
func NewFilter(accountID string) *Filter {
	return &Filter{accountID: accountID}
}

// Admit reports whether an event should be cross-posted. It is pure and has
// no side effects.
//
// An event is rejected when any of the following holds: it is not a new
// status ("update"); the status is not public; the status is muted; the
// author is not the tracked account; the status mentions anyone (there is no
// cross-platform handle mapping, so mentions cannot be carried over); it is
// a reply to someone other than the tracked account (only self-threads are
// continued); or it carries a non-image attachment (the post is rejected
// whole rather than published with a partial attachment set).
func (f *Filter) Admit(event *mastodon.StatusEvent) bool {
	if event.Kind != mastodon.EventUpdate || event.Status == nil {
		return false
	}

	status := event.Status
	switch {
	case status.Visibility != "public":
		return false
	case status.Muted:
		return false
	case status.Account.ID != f.accountID:
		return false
	case len(status.Mentions) > 0:
		return false
	case status.InReplyToID != "" && status.InReplyToAccountID != f.accountID:
		return false
	}

	for _, media := range status.MediaAttachments {
		if media.Type != "image" {
			return false
		}
	}

	return true
}
