package domain

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"
)

// maxGraphemes is the destination platform's post length limit, measured in
// user-perceived grapheme clusters.
const maxGraphemes = 300

// ellipsisSeparator joins a truncated snippet to the appended source URL.
// It costs two graphemes.
const ellipsisSeparator = "… "

// Reformat converts status HTML to destination plain text. Structural markup
// is normalized to newlines (<br> to "\n", paragraph boundaries to "\n\n")
// before tags are stripped, so line structure survives. Text at or under the
// grapheme limit is returned as-is; longer text is truncated at a word
// boundary and suffixed with the status's canonical URL.
func Reformat(content, sourceURL string) string {
	text := flattenHTML(content)
	if uniseg.GraphemeClusterCount(text) <= maxGraphemes {
		return text
	}
	return truncate(text, sourceURL)
}

// flattenHTML strips markup while converting line-break and paragraph
// elements into newlines. Entities are decoded by the tokenizer.
func flattenHTML(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := tokenizer.TagName(); string(name) == "br" {
				b.WriteString("\n")
			}
		case html.EndTagToken:
			if name, _ := tokenizer.TagName(); string(name) == "p" {
				b.WriteString("\n\n")
			}
		}
	}
}

// truncate greedily accumulates whole word tokens, plus any non-word text
// adjoining them, into a snippet that leaves room for the separator and the
// source URL. It stops at the first word that would meet or exceed the
// budget, so no word is ever split and the result never exceeds the
// grapheme limit. For a pathological input whose first word alone exceeds
// the budget, the snippet is empty and the result is just the separator and
// URL.
func truncate(text, sourceURL string) string {
	budget := maxGraphemes - uniseg.GraphemeClusterCount(sourceURL) - uniseg.GraphemeClusterCount(ellipsisSeparator)

	var snippet strings.Builder
	var pending strings.Builder // non-word run awaiting the next accepted word
	used, pendingLen := 0, 0

	rest := text
	state := -1
	for len(rest) > 0 {
		var token string
		token, rest, state = uniseg.FirstWordInString(rest, state)
		n := uniseg.GraphemeClusterCount(token)

		if !isWordLike(token) {
			pending.WriteString(token)
			pendingLen += n
			continue
		}

		if used+pendingLen+n >= budget {
			break
		}
		snippet.WriteString(pending.String())
		snippet.WriteString(token)
		used += pendingLen + n
		pending.Reset()
		pendingLen = 0
	}

	return snippet.String() + ellipsisSeparator + sourceURL
}

// isWordLike reports whether a segment produced by word segmentation carries
// letters or digits, as opposed to whitespace and punctuation.
func isWordLike(segment string) bool {
	for _, r := range segment {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
