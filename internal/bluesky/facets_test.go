package bluesky

import "testing"

func TestDetectFacets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []Facet
	}{
		{
			name: "no facets",
			text: "just words here",
			want: nil,
		},
		{
			name: "single link",
			text: "see https://example.com/page for more",
			want: []Facet{{
				Index:    ByteRange{ByteStart: 4, ByteEnd: 28},
				Features: []FacetFeature{{Type: FacetTypeLink, URI: "https://example.com/page"}},
			}},
		},
		{
			name: "link offsets are bytes after multibyte text",
			text: "héllo https://a.example",
			want: []Facet{{
				Index:    ByteRange{ByteStart: 7, ByteEnd: 24},
				Features: []FacetFeature{{Type: FacetTypeLink, URI: "https://a.example"}},
			}},
		},
		{
			name: "trailing sentence punctuation excluded",
			text: "read https://example.com/page.",
			want: []Facet{{
				Index:    ByteRange{ByteStart: 5, ByteEnd: 29},
				Features: []FacetFeature{{Type: FacetTypeLink, URI: "https://example.com/page"}},
			}},
		},
		{
			name: "hashtag",
			text: "shipping #golang today",
			want: []Facet{{
				Index:    ByteRange{ByteStart: 9, ByteEnd: 16},
				Features: []FacetFeature{{Type: FacetTypeTag, Tag: "golang"}},
			}},
		},
		{
			name: "hashtag at start",
			text: "#release notes",
			want: []Facet{{
				Index:    ByteRange{ByteStart: 0, ByteEnd: 8},
				Features: []FacetFeature{{Type: FacetTypeTag, Tag: "release"}},
			}},
		},
		{
			name: "link and tag sorted by offset",
			text: "#first then https://example.com",
			want: []Facet{
				{
					Index:    ByteRange{ByteStart: 0, ByteEnd: 6},
					Features: []FacetFeature{{Type: FacetTypeTag, Tag: "first"}},
				},
				{
					Index:    ByteRange{ByteStart: 12, ByteEnd: 31},
					Features: []FacetFeature{{Type: FacetTypeLink, URI: "https://example.com"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DetectFacets(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d facets %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i].Index != tt.want[i].Index {
					t.Errorf("facet[%d].Index = %+v, want %+v", i, got[i].Index, tt.want[i].Index)
				}
				if len(got[i].Features) != 1 || got[i].Features[0] != tt.want[i].Features[0] {
					t.Errorf("facet[%d].Features = %+v, want %+v", i, got[i].Features, tt.want[i].Features)
				}
			}
		})
	}
}
