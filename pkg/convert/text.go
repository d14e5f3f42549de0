package convert

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

// tweetPermalinkRe matches a tweet permalink so it can be rewritten to
// point back at the bridge.
var tweetPermalinkRe = regexp.MustCompile(`^https://twitter\.com/([^/]+)/status/(\d+)`)

// RenderedText is the HTML rendering of a tweet's text plus the mention
// and hashtag references found while rendering.
type RenderedText struct {
	Content  string
	Mentions []mastodon.Mention
	Tags     []mastodon.Tag
}

type spanKind int

const (
	spanMention spanKind = iota
	spanURL
	spanHashtag
	spanMedia
	spanEnd
)

type textSpan struct {
	kind       spanKind
	start, end int
	mention    *twitter.MentionEntity
	url        *twitter.URLEntity
	hashtag    *twitter.HashtagEntity
}

// RenderText renders a tweet's text as HTML, linkifying mentions, URLs
// and hashtags and stripping inline media links. Entity offsets arrive
// as codepoint indices but emoji outside the BMP occupy two UTF-16 code
// units, so all offsets are remapped to UTF-16 before slicing; the remap
// covers one unit past the text so a trailing span at the display range
// end survives intact. The display range end is honored via a synthetic
// terminator span, which truncates the reply prefix and trailing
// attachment links the upstream API leaves in full_text.
func (t *Translator) RenderText(text string, entities twitter.Entities, displayRange [2]int) RenderedText {
	spans := make([]textSpan, 0, len(entities.UserMentions)+len(entities.URLs)+len(entities.Hashtags)+len(entities.Media)+1)
	for i := range entities.UserMentions {
		m := &entities.UserMentions[i]
		spans = append(spans, textSpan{kind: spanMention, start: m.Indices[0], end: m.Indices[1], mention: m})
	}
	for i := range entities.URLs {
		u := &entities.URLs[i]
		spans = append(spans, textSpan{kind: spanURL, start: u.Indices[0], end: u.Indices[1], url: u})
	}
	for i := range entities.Hashtags {
		h := &entities.Hashtags[i]
		spans = append(spans, textSpan{kind: spanHashtag, start: h.Indices[0], end: h.Indices[1], hashtag: h})
	}
	for i := range entities.Media {
		m := &entities.Media[i]
		spans = append(spans, textSpan{kind: spanMedia, start: m.Indices[0], end: m.Indices[1]})
	}
	spans = append(spans, textSpan{kind: spanEnd, start: displayRange[1], end: displayRange[1]})

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	units := utf16.Encode([]rune(text))
	remap := codepointToUTF16Offsets(text)
	offset := func(cp int) int {
		if cp < 0 {
			return 0
		}
		if cp >= len(remap) {
			return remap[len(remap)-1]
		}
		return remap[cp]
	}
	slice := func(from, to int) string {
		if from >= to || from >= len(units) {
			return ""
		}
		if to > len(units) {
			to = len(units)
		}
		return string(utf16.Decode(units[from:to]))
	}

	rendered := RenderedText{Mentions: []mastodon.Mention{}, Tags: []mastodon.Tag{}}
	var out strings.Builder
	last := 0
	for _, sp := range spans {
		start, end := offset(sp.start), offset(sp.end)
		if start > last {
			out.WriteString(slice(last, start))
		}

		switch sp.kind {
		case spanMention:
			mentionURL := t.root + "/@" + sp.mention.ScreenName
			rendered.Mentions = append(rendered.Mentions, mastodon.Mention{
				ID:       sp.mention.IDStr,
				Username: sp.mention.ScreenName,
				URL:      mentionURL,
				Acct:     sp.mention.ScreenName,
			})
			out.WriteString(`<span class="h-card"><a href="` + html.EscapeString(mentionURL) +
				`" class="u-url mention" rel="nofollow noopener noreferrer" target="_blank">@<span>` +
				html.EscapeString(sp.mention.ScreenName) + `</span></a></span>`)
		case spanURL:
			expanded := t.RewritePermalink(sp.url.ExpandedURL)
			out.WriteString(`<a href="` + html.EscapeString(expanded) +
				`" rel="nofollow noopener noreferrer" target="_blank">` +
				html.EscapeString(sp.url.DisplayURL) + `</a>`)
		case spanHashtag:
			tagURL := "https://twitter.com/tags/" + sp.hashtag.Text
			rendered.Tags = append(rendered.Tags, mastodon.Tag{Name: sp.hashtag.Text, URL: tagURL})
			escaped := html.EscapeString(sp.hashtag.Text)
			out.WriteString(`<a href="https://twitter.com/tags/` + escaped +
				`" class="mention hashtag" rel="nofollow noopener noreferrer" target="_blank">#<span>` +
				escaped + `</span></a>`)
		case spanMedia:
			// Media spans emit nothing; advancing past them strips the
			// trailing t.co link from the rendered text.
		case spanEnd:
			rendered.Content = out.String()
			return rendered
		}

		last = end
	}

	rendered.Content = out.String()
	return rendered
}

// RewritePermalink points a tweet permalink at the bridge so clients
// open it in place; other URLs pass through unchanged.
func (t *Translator) RewritePermalink(u string) string {
	if m := tweetPermalinkRe.FindStringSubmatch(u); m != nil {
		return t.root + "/@" + m[1] + "/" + m[2]
	}
	return u
}

// codepointToUTF16Offsets returns, for each codepoint index of text plus
// one padding position beyond it, the corresponding UTF-16 code-unit
// offset.
func codepointToUTF16Offsets(text string) []int {
	runes := []rune(text)
	offsets := make([]int, len(runes)+2)
	pos := 0
	for i, r := range runes {
		offsets[i] = pos
		if r >= 0x10000 {
			pos += 2
		} else {
			pos++
		}
	}
	offsets[len(runes)] = pos
	offsets[len(runes)+1] = pos + 1
	return offsets
}
