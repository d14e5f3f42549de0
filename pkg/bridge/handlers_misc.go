package bridge

import (
	"net/http"

	"github.com/epetousis/BirdBridge/pkg/convert"
	"github.com/epetousis/BirdBridge/pkg/mastodon"
)

func (s *Server) handleInstance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uri":               s.cfg.Domain,
		"title":             "Twitter",
		"short_description": "A lazy bridge to Twitter",
		"description":       "A lazy bridge to Twitter",
		"email":             "example@example.com",
		"version":           "0.0.1",
		"urls":              map[string]any{},
		"stats": map[string]any{
			"user_count":   1,
			"status_count": 99999,
			"domain_count": 1,
		},
		"languages":         []string{"en"},
		"registrations":     false,
		"approval_required": true,
		"invites_enabled":   false,
		"configuration": map[string]any{
			"accounts": map[string]any{
				"max_featured_tags": 0,
			},
			"statuses": map[string]any{
				"max_characters":              280,
				"max_media_attachments":       4,
				"characters_reserved_per_url": 23,
			},
			"polls": map[string]any{
				"max_options":               4,
				"max_characters_per_option": 20,
				"min_expiration":            1,
				"max_expiration":            100000,
			},
		},
		"rules": []any{},
	})
}

func (s *Server) handleCustomEmojis(w http.ResponseWriter, _ *http.Request, _ *Session) {
	writeJSON(w, http.StatusOK, []mastodon.Emoji{
		s.badge(convert.VerifiedShortcode),
		s.badge(convert.BlueVerifiedShortcode),
		s.badge(convert.PissVerifiedShortcode),
	})
}

func (s *Server) badge(shortcode string) mastodon.Emoji {
	u := s.cfg.Root + "/static/" + shortcode + ".png"
	return mastodon.Emoji{
		Shortcode:       shortcode,
		URL:             u,
		StaticURL:       u,
		VisibleInPicker: false,
		Category:        "Icons",
	}
}

func (s *Server) handleEmptyList(w http.ResponseWriter, _ *http.Request, _ *Session) {
	writeJSON(w, http.StatusOK, []any{})
}

func (s *Server) handlePollVote(w http.ResponseWriter, _ *http.Request, _ *Session) {
	writeError(w, http.StatusInternalServerError, "Polls are not yet supported. Please vote in the Twitter app.")
}
