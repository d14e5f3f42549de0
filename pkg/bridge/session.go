package bridge

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/epetousis/BirdBridge/pkg/cache"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

const (
	userCacheTTL    = 5 * time.Minute
	userCacheSize   = 1024
	cursorCacheTTL  = 15 * time.Minute
	cursorCacheSize = 4096
)

// Session is one authenticated bridge user: an upstream client plus the
// per-user caches that make paginated GraphQL timelines navigable.
type Session struct {
	client *twitter.Client

	// users caches GraphQL user lookups by id for relationship queries
	// and account fetches.
	users *cache.Cache[*twitter.User]
	// cursors remembers the bottom cursor of the last page served per
	// (endpoint, subject) so the next max_id request can continue it.
	// Keys are scoped to this session's user; cursors are not portable
	// across accounts.
	cursors *cache.Cache[string]
}

func newSession(client *twitter.Client) *Session {
	return &Session{
		client:  client,
		users:   cache.New[*twitter.User](userCacheTTL, userCacheSize),
		cursors: cache.New[string](cursorCacheTTL, cursorCacheSize),
	}
}

// Client returns the session's upstream client.
func (s *Session) Client() *twitter.Client { return s.client }

// UserID returns the session's own upstream user id.
func (s *Session) UserID() string { return s.client.UserID() }

func (s *Session) cursorKey(endpoint, subjectID string) string {
	return s.UserID() + "-" + endpoint + "-" + subjectID
}

// Cursor returns the stored continuation cursor for an endpoint/subject
// pair, if any.
func (s *Session) Cursor(endpoint, subjectID string) (string, bool) {
	return s.cursors.Get(s.cursorKey(endpoint, subjectID))
}

// SetCursor stores the continuation cursor for an endpoint/subject pair.
// An empty cursor clears the entry so an exhausted timeline does not
// serve a stale continuation.
func (s *Session) SetCursor(endpoint, subjectID, cursor string) {
	key := s.cursorKey(endpoint, subjectID)
	if cursor == "" {
		s.cursors.Delete(key)
		return
	}
	s.cursors.Put(key, cursor)
}

// User fetches a user by id through the session cache. Concurrent
// lookups of the same id share one upstream call.
func (s *Session) User(ctx context.Context, id string, log zerolog.Logger) (*twitter.User, error) {
	return s.users.GetOrFetch(ctx, id, func(ctx context.Context) (*twitter.User, error) {
		data, err := s.client.GetGraphQL(ctx, twitter.OpUserResultByID, map[string]any{
			"include_smart_block":           true,
			"includeTweetImpression":        true,
			"includeTranslatableProfile":    true,
			"includeHasBirdwatchNotes":      false,
			"include_tipjar":                true,
			"include_highlights_info":       true,
			"includeEditPerspective":        false,
			"include_reply_device_follow":   true,
			"includeEditControl":            true,
			"include_verified_phone_status": false,
			"rest_id":                       id,
		}, map[string]any{
			"verified_phone_label_enabled": true,
		})
		if err != nil {
			return nil, err
		}
		if data.UserResult == nil || data.UserResult.Result == nil {
			return nil, twitter.ErrIncompleteResult
		}
		user, err := twitter.NormalizeUserResult(&data.UserResult.Result.UserResult)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("user_id", id).Msg("Fetched user")
		return user, nil
	})
}
