package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blackmichael/skybridge/internal/bluesky"
	"github.com/blackmichael/skybridge/internal/mastodon"
)

// Assembler builds destination post records from admitted source statuses.
type Assembler struct {
	transloader *Transloader
	ledger      ThreadLedger
	validator   RecordValidator
}

// NewAssembler creates an Assembler.
func NewAssembler(transloader *Transloader, ledger ThreadLedger, validator RecordValidator) *Assembler {
	return &Assembler{
		transloader: transloader,
		ledger:      ledger,
		validator:   validator,
	}
}

// Assemble builds a validated destination record for a status: reformatted
// text, facets detected over the final text, language tags, a reply
// reference resolved through the ledger, and at most one embed. A record
// that fails schema validation is returned as a ValidationError, which is
// terminal for the status.
func (a *Assembler) Assemble(ctx context.Context, status *mastodon.Status) (*bluesky.PostRecord, error) {
	text := Reformat(status.Content, status.URL)

	record := bluesky.NewPostRecord(text, status.CreatedAt.UTC().Format(time.RFC3339))
	// Facet offsets are byte ranges into the final text, so detection must
	// run after truncation.
	record.Facets = bluesky.DetectFacets(text)
	if status.Language != "" {
		record.Langs = []string{status.Language}
	}

	if status.InReplyToID != "" {
		reply, err := a.resolveReply(ctx, status.InReplyToID)
		if err != nil {
			return nil, err
		}
		record.Reply = reply
	}

	embed, err := a.resolveEmbed(ctx, status)
	if err != nil {
		return nil, err
	}
	record.Embed = embed

	if err := a.validator.Validate(record); err != nil {
		return nil, &ValidationError{Err: err}
	}

	return record, nil
}

// resolveReply maps a source parent ID to destination reply references. If
// the parent was never processed, or was processed but failed, the reply
// reference is omitted and the thread silently breaks into a disconnected
// post.
func (a *Assembler) resolveReply(ctx context.Context, parentID string) (*bluesky.ReplyRef, error) {
	entry, err := a.ledger.Resolve(ctx, parentID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve parent %s: %w", parentID, err)
	}
	if entry == nil {
		// parent was attempted and failed
		return nil, nil
	}

	return &bluesky.ReplyRef{
		Parent: entry.Post,
		Root:   entry.RootRef(),
	}, nil
}

// resolveEmbed builds the status's single embed. Image attachments take
// priority over the link-preview card; a post never carries both.
func (a *Assembler) resolveEmbed(ctx context.Context, status *mastodon.Status) (bluesky.Embed, error) {
	if len(status.MediaAttachments) > 0 {
		return a.imagesEmbed(ctx, status.MediaAttachments)
	}
	if status.Card != nil {
		return a.externalEmbed(ctx, status.Card)
	}
	return nil, nil
}

func (a *Assembler) imagesEmbed(ctx context.Context, attachments []mastodon.MediaAttachment) (bluesky.Embed, error) {
	urls := make([]string, len(attachments))
	for i, media := range attachments {
		urls[i] = media.URL
	}

	blobs, err := a.transloader.Transload(ctx, urls)
	if err != nil {
		return nil, err
	}

	images := make([]bluesky.EmbedImage, len(attachments))
	for i, media := range attachments {
		images[i] = bluesky.EmbedImage{
			Image: *blobs[i],
			Alt:   media.Description,
		}
		if media.Meta.Original.Width > 0 && media.Meta.Original.Height > 0 {
			images[i].AspectRatio = &bluesky.AspectRatio{
				Width:  media.Meta.Original.Width,
				Height: media.Meta.Original.Height,
			}
		}
	}

	return bluesky.NewImagesEmbed(images), nil
}

func (a *Assembler) externalEmbed(ctx context.Context, card *mastodon.Card) (bluesky.Embed, error) {
	info := bluesky.ExternalInfo{
		URI:         card.URL,
		Title:       card.Title,
		Description: card.Description,
	}

	if card.Image != "" {
		blobs, err := a.transloader.Transload(ctx, []string{card.Image})
		if err != nil {
			return nil, err
		}
		info.Thumb = blobs[0]
	}

	return bluesky.NewExternalEmbed(info), nil
}
