// Package convert translates normalized Twitter records into Mastodon
// API shapes: users to accounts, tweets to statuses, cards to polls and
// link previews, and activity entries to notifications.
package convert

import (
	"strings"

	"github.com/rs/zerolog"
)

// Translator converts Twitter records into Mastodon records. It is bound
// to the bridge's public origin, which appears in rewritten permalinks,
// mention links and badge emoji URLs.
type Translator struct {
	root string
	log  zerolog.Logger
}

// New returns a Translator rooted at the given public origin.
func New(root string, log zerolog.Logger) *Translator {
	return &Translator{
		root: strings.TrimSuffix(root, "/"),
		log:  log.With().Str("component", "translator").Logger(),
	}
}

// Root returns the bridge's public origin without a trailing slash.
func (t *Translator) Root() string { return t.root }

// StructuralError reports an upstream payload whose shape contradicts
// its own declared structure, such as a poll card missing one of its
// counted choices.
type StructuralError struct {
	Detail string
}

func (e *StructuralError) Error() string { return "convert: " + e.Detail }
