package bluesky

import (
	"regexp"
	"sort"
	"strings"
)

var (
	linkRe = regexp.MustCompile(`https?://[^\s<>"']+`)
	tagRe  = regexp.MustCompile(`(?:^|\s)(#[\p{L}\p{N}_]+)`)
)

// trailingPunct are characters stripped from the end of a detected link;
// they almost always belong to the surrounding sentence, not the URL.
const trailingPunct = ".,;:!?)»\"'"

// DetectFacets finds links and hashtags in the given text and returns them
// as facets with UTF-8 byte ranges. The text must be final: offsets are not
// adjusted if the text changes afterwards.
func DetectFacets(text string) []Facet {
	var facets []Facet

	for _, loc := range linkRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		end -= len(text[start:end]) - len(strings.TrimRight(text[start:end], trailingPunct))
		if end <= start {
			continue
		}
		facets = append(facets, Facet{
			Index: ByteRange{ByteStart: start, ByteEnd: end},
			Features: []FacetFeature{
				{Type: FacetTypeLink, URI: text[start:end]},
			},
		})
	}

	for _, loc := range tagRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		facets = append(facets, Facet{
			Index: ByteRange{ByteStart: start, ByteEnd: end},
			Features: []FacetFeature{
				{Type: FacetTypeTag, Tag: text[start+1 : end]},
			},
		})
	}

	sort.Slice(facets, func(i, j int) bool {
		return facets[i].Index.ByteStart < facets[j].Index.ByteStart
	})

	return facets
}
