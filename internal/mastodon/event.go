package mastodon

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds emitted on the streaming websocket that this bridge cares
// about. "update" is a newly published status; "status.update" is an edit.
const (
	EventUpdate       = "update"
	EventStatusUpdate = "status.update"
	EventDelete       = "delete"
)

// StatusEvent is a parsed streaming event. Status is populated only for
// kinds that carry a status payload (update, status.update).
type StatusEvent struct {
	Kind   string
	Status *Status
}

// Status is a Mastodon status as delivered in streaming payloads.
type Status struct {
	ID                 string            `json:"id"`
	URL                string            `json:"url"`
	Visibility         string            `json:"visibility"`
	Muted              bool              `json:"muted"`
	Language           string            `json:"language"`
	Content            string            `json:"content"`
	CreatedAt          time.Time         `json:"created_at"`
	InReplyToID        string            `json:"in_reply_to_id"`
	InReplyToAccountID string            `json:"in_reply_to_account_id"`
	Account            Account           `json:"account"`
	Mentions           []Mention         `json:"mentions"`
	MediaAttachments   []MediaAttachment `json:"media_attachments"`
	Card               *Card             `json:"card"`
}

// Account identifies the author of a status.
type Account struct {
	ID   string `json:"id"`
	Acct string `json:"acct"`
}

// Mention is a reference to another account within a status.
type Mention struct {
	ID   string `json:"id"`
	Acct string `json:"acct"`
}

// MediaAttachment is a media file attached to a status.
type MediaAttachment struct {
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Meta        MediaMeta `json:"meta"`
}

// MediaMeta carries the natural dimensions of an attachment.
type MediaMeta struct {
	Original MediaDimensions `json:"original"`
}

// MediaDimensions is a width/height pair in pixels.
type MediaDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Card is a link preview generated by the source server for the first URL
// in a status.
type Card struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// streamEnvelope is the raw websocket frame. The payload field is a string
// containing JSON, per the Mastodon streaming API.
type streamEnvelope struct {
	Stream  []string `json:"stream"`
	Event   string   `json:"event"`
	Payload string   `json:"payload"`
}

// ParseEvent decodes a raw streaming frame into a StatusEvent. For event
// kinds that do not carry a status payload (e.g. delete, which carries a
// bare ID) Status is left nil.
func ParseEvent(data []byte) (*StatusEvent, error) {
	var env streamEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	event := &StatusEvent{Kind: env.Event}

	if (env.Event == EventUpdate || env.Event == EventStatusUpdate) && env.Payload != "" {
		var status Status
		if err := json.Unmarshal([]byte(env.Payload), &status); err != nil {
			return nil, fmt.Errorf("unmarshal status payload: %w", err)
		}
		event.Status = &status
	}

	return event, nil
}
