package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/epetousis/BirdBridge/pkg/twitter"
)

const testToken = "secret-token"

// fakeUpstream is an httptest server standing in for the upstream API.
// Tests register per-path handlers on it and point a bridge at its URL.
type fakeUpstream struct {
	mux *http.ServeMux
	srv *httptest.Server
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{mux: http.NewServeMux()}
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) handle(path string, h http.HandlerFunc) {
	f.mux.HandleFunc(path, h)
}

// respond registers a handler that always answers with v as JSON.
func (f *fakeUpstream) respond(path string, v any) {
	f.handle(path, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, v)
	})
}

// newTestServer builds a bridge handler backed by the fake upstream,
// with one session bound to testToken.
func newTestServer(t *testing.T, fake *fakeUpstream) http.Handler {
	t.Helper()
	cfg := &Config{
		Root:    "https://bird.test",
		Domain:  "bird.test",
		APIBase: fake.srv.URL,
		Sessions: []SessionConfig{{
			Token: testToken,
			Credentials: twitter.Credentials{
				ConsumerKey:       "ck",
				ConsumerSecret:    "cs",
				AccessToken:       "1000-at",
				AccessTokenSecret: "ats",
			},
		}},
	}
	if err := cfg.applyDefaults(); err != nil {
		t.Fatal(err)
	}
	return NewServer(cfg, zerolog.Nop()).Handler()
}

// get runs an authenticated GET against the bridge handler.
func get(handler http.Handler, target string) *httptest.ResponseRecorder {
	return request(handler, http.MethodGet, target, testToken)
}

func request(handler http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// decodeBody decodes a recorded JSON response.
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// restTweet builds a minimal legacy REST tweet.
func restTweet(id string) twitter.Tweet {
	text := "tweet " + id
	return twitter.Tweet{
		IDStr:            id,
		User:             &twitter.User{IDStr: "200", ScreenName: "alice", Name: "Alice"},
		CreatedAt:        "Wed Oct 05 20:12:05 +0000 2022",
		FullText:         text,
		DisplayTextRange: [2]int{0, len(text)},
	}
}

// graphTweetResult builds a complete GraphQL tweet result.
func graphTweetResult(id string) *twitter.TweetResult {
	return &twitter.TweetResult{
		RestID: id,
		Legacy: &twitter.Tweet{
			CreatedAt:        "Wed Oct 05 20:12:05 +0000 2022",
			FullText:         "tweet " + id,
			DisplayTextRange: [2]int{0, len("tweet " + id)},
		},
		Core: &twitter.TweetCore{UserResult: twitter.UserResultWrapper{Result: &twitter.UserResult{
			RestID: "200",
			Legacy: &twitter.User{ScreenName: "alice", Name: "Alice"},
		}}},
	}
}

// graphTweetEntry builds a timeline entry holding one complete GraphQL
// tweet result.
func graphTweetEntry(id string) twitter.TimelineEntry {
	return twitter.TimelineEntry{Content: &twitter.TimelineEntryContent{
		Content: &twitter.TimelineItemContent{TweetResult: &twitter.TweetResultWrapper{Result: graphTweetResult(id)}},
	}}
}

func graphCursorEntry(value string) twitter.TimelineEntry {
	return twitter.TimelineEntry{Content: &twitter.TimelineEntryContent{
		Content: &twitter.TimelineItemContent{
			Typename:   "TimelineTimelineCursor",
			CursorType: "Bottom",
			Value:      value,
		},
	}}
}

// profileTimelineBody builds the user_result GraphQL envelope profile
// timelines come back in, with an optional bottom cursor.
func profileTimelineBody(userID, cursor string, ids ...string) map[string]any {
	entries := make([]twitter.TimelineEntry, 0, len(ids)+1)
	for _, id := range ids {
		entries = append(entries, graphTweetEntry(id))
	}
	if cursor != "" {
		entries = append(entries, graphCursorEntry(cursor))
	}
	instructions := []twitter.TimelineInstruction{{Typename: "TimelineAddEntries", Entries: entries}}
	return map[string]any{"data": map[string]any{"user_result": map[string]any{"result": map[string]any{
		"rest_id": userID,
		"timeline_response": map[string]any{
			"timeline": map[string]any{"instructions": instructions},
		},
	}}}}
}

// graphVariables decodes the variables query parameter of a GraphQL GET.
func graphVariables(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var variables map[string]any
	if err := json.Unmarshal([]byte(r.URL.Query().Get("variables")), &variables); err != nil {
		t.Errorf("variables not JSON: %v", err)
	}
	return variables
}

// linkParts splits a Link header into its prev/next halves.
func linkParts(t *testing.T, rec *httptest.ResponseRecorder) (prev, next string) {
	t.Helper()
	link := rec.Header().Get("Link")
	if link == "" {
		t.Fatal("no Link header")
	}
	for _, part := range strings.Split(link, ", <") {
		switch {
		case strings.HasSuffix(part, `rel="prev"`):
			prev = part
		case strings.HasSuffix(part, `rel="next"`):
			next = part
		}
	}
	return prev, next
}
