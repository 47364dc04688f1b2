package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blackmichael/skybridge/internal/bluesky"
	"github.com/blackmichael/skybridge/internal/mastodon"
)

// memLedger is an in-memory ThreadLedger. Presence in the map distinguishes
// "processed" from "never seen"; a nil value is a recorded failure.
type memLedger struct {
	entries    map[string]*LedgerEntry
	failWrites bool
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]*LedgerEntry)}
}

func (l *memLedger) Resolve(_ context.Context, sourceID string) (*LedgerEntry, error) {
	entry, ok := l.entries[sourceID]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (l *memLedger) Record(_ context.Context, sourceID string, entry *LedgerEntry) error {
	if l.failWrites {
		return errors.New("disk full")
	}
	if _, ok := l.entries[sourceID]; ok {
		return nil
	}
	l.entries[sourceID] = entry
	return nil
}

func newTestAssembler(t *testing.T, ledger ThreadLedger, uploader BlobUploader) *Assembler {
	t.Helper()
	validator, err := bluesky.NewRecordValidator()
	if err != nil {
		t.Fatalf("NewRecordValidator() error = %v", err)
	}
	return NewAssembler(NewTransloader(uploader), ledger, validator)
}

func testStatus(id string) *mastodon.Status {
	return &mastodon.Status{
		ID:         id,
		URL:        "https://mastodon.example/@me/" + id,
		Visibility: "public",
		Language:   "en",
		Content:    "<p>Hello</p><p>World</p>",
		CreatedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Account:    mastodon.Account{ID: trackedAccount},
	}
}

func TestAssemblePlainPost(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, newMemLedger(), &fakeUploader{})
	record, err := assembler.Assemble(context.Background(), testStatus("1"))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if record.Text != "Hello\n\nWorld" {
		t.Errorf("Text = %q, want %q", record.Text, "Hello\n\nWorld")
	}
	if len(record.Langs) != 1 || record.Langs[0] != "en" {
		t.Errorf("Langs = %v, want [en]", record.Langs)
	}
	if record.CreatedAt != "2026-03-14T09:26:53Z" {
		t.Errorf("CreatedAt = %q", record.CreatedAt)
	}
	if record.Reply != nil {
		t.Errorf("Reply = %+v, want nil", record.Reply)
	}
	if record.Embed != nil {
		t.Errorf("Embed = %+v, want nil", record.Embed)
	}
}

func TestAssembleThreadContinuity(t *testing.T) {
	t.Parallel()

	rootRef := bluesky.PostRef{URI: "at://did:plc:me/app.bsky.feed.post/root", CID: "cid-root"}
	ledger := newMemLedger()
	ledger.entries["1"] = &LedgerEntry{Post: rootRef} // a root has no root of its own

	assembler := newTestAssembler(t, ledger, &fakeUploader{})

	reply := testStatus("2")
	reply.InReplyToID = "1"
	reply.InReplyToAccountID = trackedAccount

	record, err := assembler.Assemble(context.Background(), reply)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if record.Reply == nil {
		t.Fatal("Reply = nil, want a reply reference")
	}
	if record.Reply.Parent != rootRef {
		t.Errorf("Reply.Parent = %+v, want %+v", record.Reply.Parent, rootRef)
	}
	if record.Reply.Root != rootRef {
		t.Errorf("Reply.Root = %+v, want the parent's own identity", record.Reply.Root)
	}
}

func TestAssembleDeepReplyKeepsRoot(t *testing.T) {
	t.Parallel()

	rootRef := bluesky.PostRef{URI: "at://did:plc:me/app.bsky.feed.post/root", CID: "cid-root"}
	midRef := bluesky.PostRef{URI: "at://did:plc:me/app.bsky.feed.post/mid", CID: "cid-mid"}
	ledger := newMemLedger()
	ledger.entries["2"] = &LedgerEntry{Post: midRef, Root: &rootRef}

	assembler := newTestAssembler(t, ledger, &fakeUploader{})

	reply := testStatus("3")
	reply.InReplyToID = "2"
	reply.InReplyToAccountID = trackedAccount

	record, err := assembler.Assemble(context.Background(), reply)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if record.Reply.Parent != midRef {
		t.Errorf("Reply.Parent = %+v, want %+v", record.Reply.Parent, midRef)
	}
	if record.Reply.Root != rootRef {
		t.Errorf("Reply.Root = %+v, want the thread root %+v", record.Reply.Root, rootRef)
	}
}

func TestAssembleBrokenThread(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ledger func() *memLedger
	}{
		{
			name:   "parent never processed",
			ledger: newMemLedger,
		},
		{
			name: "parent failed",
			ledger: func() *memLedger {
				l := newMemLedger()
				l.entries["1"] = nil
				return l
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assembler := newTestAssembler(t, tt.ledger(), &fakeUploader{})

			reply := testStatus("2")
			reply.InReplyToID = "1"
			reply.InReplyToAccountID = trackedAccount

			record, err := assembler.Assemble(context.Background(), reply)
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			// the thread breaks silently into a disconnected post
			if record.Reply != nil {
				t.Errorf("Reply = %+v, want nil", record.Reply)
			}
		})
	}
}

func TestAssembleImagesEmbed(t *testing.T) {
	t.Parallel()

	server := newImageServer(t)
	assembler := newTestAssembler(t, newMemLedger(), &fakeUploader{})

	status := testStatus("1")
	status.Card = &mastodon.Card{URL: "https://blog.example/post", Title: "ignored"}
	status.MediaAttachments = []mastodon.MediaAttachment{
		{
			Type:        "image",
			URL:         server.URL + "/a.png",
			Description: "a red square",
			Meta:        mastodon.MediaMeta{Original: mastodon.MediaDimensions{Width: 640, Height: 480}},
		},
		{
			Type: "image",
			URL:  server.URL + "/b.png",
		},
	}

	record, err := assembler.Assemble(context.Background(), status)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	// images win over the card; a post never carries both embeds
	embed, ok := record.Embed.(*bluesky.ImagesEmbed)
	if !ok {
		t.Fatalf("Embed = %T, want *bluesky.ImagesEmbed", record.Embed)
	}
	if len(embed.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(embed.Images))
	}
	if embed.Images[0].Alt != "a red square" {
		t.Errorf("Images[0].Alt = %q", embed.Images[0].Alt)
	}
	if ar := embed.Images[0].AspectRatio; ar == nil || ar.Width != 640 || ar.Height != 480 {
		t.Errorf("Images[0].AspectRatio = %+v, want 640x480", embed.Images[0].AspectRatio)
	}
	if embed.Images[1].AspectRatio != nil {
		t.Errorf("Images[1].AspectRatio = %+v, want nil without dimensions", embed.Images[1].AspectRatio)
	}
}

func TestAssembleExternalEmbedWithThumbnail(t *testing.T) {
	t.Parallel()

	server := newImageServer(t)
	assembler := newTestAssembler(t, newMemLedger(), &fakeUploader{})

	status := testStatus("1")
	status.Card = &mastodon.Card{
		URL:         "https://blog.example/post",
		Title:       "A Post",
		Description: "about things",
		Image:       server.URL + "/thumb.png",
	}

	record, err := assembler.Assemble(context.Background(), status)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	embed, ok := record.Embed.(*bluesky.ExternalEmbed)
	if !ok {
		t.Fatalf("Embed = %T, want *bluesky.ExternalEmbed", record.Embed)
	}
	if embed.External.URI != "https://blog.example/post" {
		t.Errorf("External.URI = %q", embed.External.URI)
	}
	if embed.External.Thumb == nil {
		t.Fatal("External.Thumb = nil, want the transloaded blob")
	}
	if got := embed.External.Thumb.Ref.Link; got != "link-thumb.png" {
		t.Errorf("External.Thumb.Ref.Link = %q, want %q", got, "link-thumb.png")
	}
}

func TestAssembleExternalEmbedWithoutThumbnail(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, newMemLedger(), &fakeUploader{})

	status := testStatus("1")
	status.Card = &mastodon.Card{URL: "https://blog.example/post", Title: "A Post"}

	record, err := assembler.Assemble(context.Background(), status)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	embed, ok := record.Embed.(*bluesky.ExternalEmbed)
	if !ok {
		t.Fatalf("Embed = %T, want *bluesky.ExternalEmbed", record.Embed)
	}
	if embed.External.Thumb != nil {
		t.Errorf("External.Thumb = %+v, want nil", embed.External.Thumb)
	}
}

func TestAssembleMediaAtomicity(t *testing.T) {
	t.Parallel()

	server := newImageServer(t)
	assembler := newTestAssembler(t, newMemLedger(), &fakeUploader{})

	status := testStatus("1")
	status.MediaAttachments = []mastodon.MediaAttachment{
		{Type: "image", URL: server.URL + "/a.png"},
		{Type: "image", URL: server.URL + "/missing.png"},
	}

	_, err := assembler.Assemble(context.Background(), status)
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError when any attachment fails", err)
	}
}

func TestAssembleFacetsOverFinalText(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, newMemLedger(), &fakeUploader{})

	status := testStatus("1")
	status.Content = `<p>read this: <a href="https://docs.example/guide">https://docs.example/guide</a></p>`

	record, err := assembler.Assemble(context.Background(), status)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(record.Facets) != 1 {
		t.Fatalf("got %d facets, want 1", len(record.Facets))
	}

	facet := record.Facets[0]
	got := record.Text[facet.Index.ByteStart:facet.Index.ByteEnd]
	if got != "https://docs.example/guide" {
		t.Errorf("facet range covers %q, want the link", got)
	}
}
