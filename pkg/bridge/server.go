package bridge

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/epetousis/BirdBridge/pkg/convert"
	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

// image1PxPNG is a 1x1 transparent PNG, served as the placeholder card
// image.
var image1PxPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// Server is the bridge HTTP server: it authenticates Mastodon clients
// against configured sessions and serves the client API off the upstream
// network.
type Server struct {
	cfg      *Config
	log      zerolog.Logger
	tr       *convert.Translator
	sessions map[string]*Session
	router   *mux.Router
}

// NewServer builds a server from configuration. Upstream client options
// are appended to the config-derived ones; tests use them to point
// sessions at a fake upstream.
func NewServer(cfg *Config, log zerolog.Logger, clientOpts ...twitter.ClientOption) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.With().Str("component", "bridge").Logger(),
		tr:       convert.New(cfg.Root, log),
		sessions: make(map[string]*Session, len(cfg.Sessions)),
	}
	for _, sc := range cfg.Sessions {
		opts := []twitter.ClientOption{
			twitter.WithBaseURL(cfg.APIBase),
			twitter.WithHeaders(cfg.ExtraHeaders),
			twitter.WithLogger(log),
		}
		opts = append(opts, clientOpts...)
		s.sessions[sc.Token] = newSession(twitter.NewClient(sc.Credentials, opts...))
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.withLogging(s.withCORS(s.router))
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.log.Info().Str("address", s.cfg.ListenAddress).Msg("Starting bridge")
	return http.ListenAndServe(s.cfg.ListenAddress, s.Handler())
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/instance", s.handleInstance).Methods(http.MethodGet)
	r.HandleFunc("/static/1px.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(image1PxPNG)
	}).Methods(http.MethodGet)
	if s.cfg.StaticDir != "" {
		r.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
	}

	get := func(path string, h sessionHandler) {
		r.HandleFunc(path, s.authed(h)).Methods(http.MethodGet)
	}
	post := func(path string, h sessionHandler) {
		r.HandleFunc(path, s.authed(h)).Methods(http.MethodPost)
	}

	get("/api/v1/accounts/verify_credentials", s.handleVerifyCredentials)
	get("/api/v1/timelines/home", s.handleHomeTimeline)
	get("/api/v1/notifications", s.handleNotifications)
	get("/api/v1/follow_requests", s.handleEmptyList)
	get("/api/v1/filters", s.handleEmptyList)
	get("/api/v1/custom_emojis", s.handleCustomEmojis)
	get("/api/v1/favourites", s.handleFavourites)
	get("/api/v1/bookmarks", s.handleBookmarks)
	get("/api/v1/lists", s.handleLists)
	get("/api/v1/timelines/list/{list_id:[0-9]+}", s.handleListTimeline)
	get("/api/v1/timelines/tag/{tag}", s.handleTagTimeline)

	get("/api/v1/accounts/relationships", s.handleRelationships)
	get("/api/v1/accounts/familiar_followers", s.handleFamiliarFollowers)
	get("/api/v1/accounts/search", s.handleAccountSearch)
	get("/api/v1/accounts/{id:[0-9]+}", s.handleAccount)
	get("/api/v1/accounts/{id:[0-9]+}/featured_tags", s.handleEmptyList)
	get("/api/v1/accounts/{id:[0-9]+}/statuses", s.handleAccountStatuses)
	get("/api/v1/accounts/{id:[0-9]+}/followers", s.handleFollowers)
	get("/api/v1/accounts/{id:[0-9]+}/following", s.handleFollowing)
	post("/api/v1/accounts/{id:[0-9]+}/follow", s.handleFollow)
	post("/api/v1/accounts/{id:[0-9]+}/unfollow", s.handleUnfollow)
	post("/api/v1/accounts/{id:[0-9]+}/block", s.handleBlock)
	post("/api/v1/accounts/{id:[0-9]+}/unblock", s.handleUnblock)
	get("/api/v1/blocks", s.handleBlocks)

	post("/api/v1/statuses", s.handleCreateStatus)
	get("/api/v1/statuses/{id:[0-9]+}", s.handleStatus)
	r.HandleFunc("/api/v1/statuses/{id:[0-9]+}", s.authed(s.handleDeleteStatus)).Methods(http.MethodDelete)
	get("/api/v1/statuses/{id:[0-9]+}/context", s.handleContext)
	get("/api/v1/statuses/{id:[0-9]+}/favourited_by", s.handleFavouritedBy)
	get("/api/v1/statuses/{id:[0-9]+}/reblogged_by", s.handleRebloggedBy)
	post("/api/v1/statuses/{id:[0-9]+}/favourite", s.handleFavourite)
	post("/api/v1/statuses/{id:[0-9]+}/unfavourite", s.handleUnfavourite)
	post("/api/v1/statuses/{id:[0-9]+}/reblog", s.handleReblog)
	post("/api/v1/statuses/{id:[0-9]+}/unreblog", s.handleUnreblog)
	post("/api/v1/statuses/{id:[0-9]+}/bookmark", s.handleBookmark)
	post("/api/v1/statuses/{id:[0-9]+}/unbookmark", s.handleUnbookmark)

	get("/api/v2/search", s.handleSearch)

	post("/api/v1/polls/{id:[0-9]+}/votes", s.handlePollVote)

	return r
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *Session)

// authed resolves the bearer token into a session before running h.
func (s *Server) authed(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "The access token is invalid")
			return
		}
		session, ok := s.sessions[token]
		if !ok {
			writeError(w, http.StatusUnauthorized, "The access token is invalid")
			return
		}
		h(w, r, session)
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestParams merges the query string with any form or JSON body into
// one parameter bag, the way clients expect to mix them freely. Array
// suffixes ("types[]") are stripped so lookups see plain keys; JSON
// numbers keep their digits so snowflake ids survive intact.
func requestParams(r *http.Request) url.Values {
	params := url.Values{}
	for k, vs := range r.URL.Query() {
		params[strings.TrimSuffix(k, "[]")] = append(params[strings.TrimSuffix(k, "[]")], vs...)
	}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var body map[string]any
		if err := dec.Decode(&body); err == nil {
			for k, v := range body {
				key := strings.TrimSuffix(k, "[]")
				switch val := v.(type) {
				case []any:
					for _, item := range val {
						params.Add(key, jsonScalar(item))
					}
				default:
					params.Set(key, jsonScalar(v))
				}
			}
		}
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, vs := range r.PostForm {
				params[strings.TrimSuffix(k, "[]")] = append(params[strings.TrimSuffix(k, "[]")], vs...)
			}
		}
	default:
		if err := r.ParseForm(); err == nil {
			for k, vs := range r.PostForm {
				params[strings.TrimSuffix(k, "[]")] = append(params[strings.TrimSuffix(k, "[]")], vs...)
			}
		}
	}
	return params
}

func jsonScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		raw, _ := json.Marshal(val)
		return string(raw)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, mastodon.Error{Error: message})
}

// writeUpstreamError maps an upstream failure onto a client-facing
// error: structured rejections keep a meaningful status, transport
// failures surface as a bad gateway.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	if apiErr, ok := twitter.AsAPIError(err); ok {
		switch {
		case apiErr.IsNotFound():
			writeError(w, http.StatusNotFound, "Record not found")
		case apiErr.IsRateLimited():
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded.")
		case apiErr.StatusCode != http.StatusOK:
			writeError(w, apiErr.StatusCode, apiErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, apiErr.Error())
		}
		return
	}
	s.log.Error().Err(err).Msg("Upstream request failed")
	writeError(w, http.StatusBadGateway, "Upstream request failed")
}
