package bluesky

// Record and embed type identifiers in the app.bsky lexicon.
const (
	RecordTypePost    = "app.bsky.feed.post"
	EmbedTypeImages   = "app.bsky.embed.images"
	EmbedTypeExternal = "app.bsky.embed.external"
	FacetTypeLink     = "app.bsky.richtext.facet#link"
	FacetTypeTag      = "app.bsky.richtext.facet#tag"
)

// PostRecord is the record body for app.bsky.feed.post.
type PostRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	Facets    []Facet   `json:"facets,omitempty"`
	Langs     []string  `json:"langs,omitempty"`
	CreatedAt string    `json:"createdAt"`
	Reply     *ReplyRef `json:"reply,omitempty"`
	Embed     Embed     `json:"embed,omitempty"`
}

// NewPostRecord returns a PostRecord with the lexicon type set.
func NewPostRecord(text, createdAt string) *PostRecord {
	return &PostRecord{
		Type:      RecordTypePost,
		Text:      text,
		CreatedAt: createdAt,
	}
}

// PostRef is a strong reference to a specific version of a record.
type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef contains references to the parent and root of a reply chain.
type ReplyRef struct {
	Root   PostRef `json:"root"`
	Parent PostRef `json:"parent"`
}

// Facet is a rich-text annotation anchored to a byte range of the post text.
type Facet struct {
	Index    ByteRange      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// ByteRange is a half-open [start, end) range of UTF-8 byte offsets.
type ByteRange struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// FacetFeature describes what a facet annotates: a link or a hashtag.
type FacetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

// Embed is the post's media embed. The two variants are mutually exclusive;
// a post carries at most one, never both.
type Embed interface {
	isEmbed()
}

// ImagesEmbed is an app.bsky.embed.images embed of up to four images.
type ImagesEmbed struct {
	Type   string       `json:"$type"`
	Images []EmbedImage `json:"images"`
}

func (*ImagesEmbed) isEmbed() {}

// NewImagesEmbed returns an ImagesEmbed with the lexicon type set.
func NewImagesEmbed(images []EmbedImage) *ImagesEmbed {
	return &ImagesEmbed{Type: EmbedTypeImages, Images: images}
}

// EmbedImage is a single image within an ImagesEmbed.
type EmbedImage struct {
	Image       BlobRef      `json:"image"`
	Alt         string       `json:"alt"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

// AspectRatio is the natural width/height of an image.
type AspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExternalEmbed is an app.bsky.embed.external link-preview embed.
type ExternalEmbed struct {
	Type     string       `json:"$type"`
	External ExternalInfo `json:"external"`
}

func (*ExternalEmbed) isEmbed() {}

// NewExternalEmbed returns an ExternalEmbed with the lexicon type set.
func NewExternalEmbed(info ExternalInfo) *ExternalEmbed {
	return &ExternalEmbed{Type: EmbedTypeExternal, External: info}
}

// ExternalInfo describes the link preview: target URL, display text, and an
// optional thumbnail blob.
type ExternalInfo struct {
	URI         string   `json:"uri"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Thumb       *BlobRef `json:"thumb,omitempty"`
}
