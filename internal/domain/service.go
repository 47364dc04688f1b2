package domain

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/blackmichael/skybridge/internal/mastodon"
)

// Stats is a snapshot of the bridge's processing counters.
type Stats struct {
	EventsSeen   int64     `json:"events_seen"`
	Posted       int64     `json:"posted"`
	Failed       int64     `json:"failed"`
	LastEventAt  time.Time `json:"last_event_at"`
	LastPostedAt time.Time `json:"last_posted_at"`
}

// Service is the core cross-posting pipeline. It consumes streaming events
// strictly one at a time: later statuses may reply to earlier ones, and the
// ledger must hold the parent's entry before a child is assembled, so no
// reordering or parallel fan-out across statuses is permitted. Within one
// status, media transloads do run concurrently.
type Service struct {
	filter    *Filter
	assembler *Assembler
	publisher Publisher
	ledger    ThreadLedger
	logger    *slog.Logger

	eventsSeen   atomic.Int64
	posted       atomic.Int64
	failed       atomic.Int64
	lastEventUS  atomic.Int64
	lastPostedUS atomic.Int64
}

// NewService creates the cross-posting service.
func NewService(filter *Filter, assembler *Assembler, publisher Publisher, ledger ThreadLedger, logger *slog.Logger) *Service {
	return &Service{
		filter:    filter,
		assembler: assembler,
		publisher: publisher,
		ledger:    ledger,
		logger:    logger,
	}
}

// Handle processes one streaming event to completion. Failures in assembly
// or submission are recorded as a failure entry in the ledger and returned
// for logging; they never halt the stream, and no failure class is retried.
func (s *Service) Handle(ctx context.Context, event *mastodon.StatusEvent) error {
	s.eventsSeen.Add(1)
	s.lastEventUS.Store(time.Now().UnixMicro())

	if !s.filter.Admit(event) {
		return nil
	}

	status := event.Status
	s.logger.Info("processing status", "id", status.ID, "url", status.URL)

	record, err := s.assembler.Assemble(ctx, status)
	if err != nil {
		s.recordFailure(ctx, status, err)
		return err
	}

	ref, err := s.publisher.CreatePost(ctx, record)
	if err != nil {
		s.recordFailure(ctx, status, &SubmissionError{Err: err})
		return &SubmissionError{Err: err}
	}

	entry := &LedgerEntry{Post: *ref}
	if record.Reply != nil {
		root := record.Reply.Root
		entry.Root = &root
	}

	if err := s.ledger.Record(ctx, status.ID, entry); err != nil {
		// The post is already live; a failed ledger write only degrades
		// thread continuity for this status's children. Do not unwind,
		// do not crash the loop.
		s.logger.Error("ledger write failed after successful post",
			"id", status.ID,
			"post_uri", ref.URI,
			"error", err,
		)
	}

	s.posted.Add(1)
	s.lastPostedUS.Store(time.Now().UnixMicro())
	s.logger.Info("cross-posted status", "id", status.ID, "post_uri", ref.URI)
	return nil
}

// recordFailure writes the terminal failure marker for a status. The marker
// prevents any implicit retry and makes children of this status assemble
// without a reply reference.
func (s *Service) recordFailure(ctx context.Context, status *mastodon.Status, cause error) {
	s.failed.Add(1)
	s.logger.Error("cross-post failed",
		"id", status.ID,
		"url", status.URL,
		"error", cause,
	)

	if err := s.ledger.Record(ctx, status.ID, nil); err != nil {
		s.logger.Error("ledger write failed for failure marker", "id", status.ID, "error", err)
	}
}

// Stats returns a snapshot of processing counters.
func (s *Service) Stats() Stats {
	stats := Stats{
		EventsSeen: s.eventsSeen.Load(),
		Posted:     s.posted.Load(),
		Failed:     s.failed.Load(),
	}
	if us := s.lastEventUS.Load(); us > 0 {
		stats.LastEventAt = time.UnixMicro(us).UTC()
	}
	if us := s.lastPostedUS.Load(); us > 0 {
		stats.LastPostedAt = time.UnixMicro(us).UTC()
	}
	return stats
}
