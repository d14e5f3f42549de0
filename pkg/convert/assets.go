package convert

import "github.com/epetousis/BirdBridge/pkg/mastodon"

// Badge emoji shortcodes. The bridge serves the matching PNGs under
// /static/.
const (
	BlueVerifiedShortcode = "blue_verified"
	PissVerifiedShortcode = "piss_verified"
	VerifiedShortcode     = "verified"
)

// Image1Px is the placeholder card image; some clients refuse to render
// a link card without one.
func (t *Translator) Image1Px() string {
	return t.root + "/static/1px.png"
}

func (t *Translator) badgeEmoji(shortcode string) mastodon.Emoji {
	u := t.root + "/static/" + shortcode + ".png"
	return mastodon.Emoji{
		Shortcode:       shortcode,
		URL:             u,
		StaticURL:       u,
		VisibleInPicker: false,
		Category:        "Icons",
	}
}
