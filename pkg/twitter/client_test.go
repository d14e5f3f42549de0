package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func testCreds() Credentials {
	return Credentials{
		ConsumerKey:       "ck",
		ConsumerSecret:    "cs",
		AccessToken:       "123-at",
		AccessTokenSecret: "ats",
	}
}

// TestClientGetSignsRequests verifies every request carries an OAuth
// header and any configured extra headers.
func TestClientGetSignsRequests(t *testing.T) {
	t.Parallel()
	var gotAuth, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotExtra = r.Header.Get("X-Custom")
		_, _ = w.Write([]byte(`{"id_str":"1"}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(),
		WithBaseURL(srv.URL),
		WithHeaders(map[string]string{"X-Custom": "yes"}))
	var out struct {
		IDStr string `json:"id_str"`
	}
	if err := c.Get(context.Background(), "/1.1/test.json", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gotAuth, "OAuth ") || !strings.Contains(gotAuth, `oauth_consumer_key="ck"`) {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotExtra != "yes" {
		t.Errorf("extra header = %q, want yes", gotExtra)
	}
	if out.IDStr != "1" {
		t.Errorf("decoded id = %q", out.IDStr)
	}
}

// TestClientErrorMapping verifies a non-2xx response decodes into an
// APIError with the upstream error codes preserved.
func TestClientErrorMapping(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":34,"message":"Sorry, that page does not exist."}]}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), WithBaseURL(srv.URL))
	err := c.Get(context.Background(), "/1.1/missing.json", nil, nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("err = %v, want APIError", err)
	}
	if !apiErr.IsNotFound() {
		t.Errorf("IsNotFound() = false for %+v", apiErr)
	}
	if apiErr.IsRateLimited() {
		t.Errorf("IsRateLimited() = true for %+v", apiErr)
	}
}

// TestClientRetriesServerErrors verifies GETs retry 5xx responses but
// give up immediately on structured rejections like 429.
func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), WithBaseURL(srv.URL))
	var out []Tweet
	if err := c.Get(context.Background(), "/1.1/statuses/home_timeline.json", nil, &out); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}

	var rateCalls atomic.Int32
	rated := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		rateCalls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`))
	}))
	defer rated.Close()

	c2 := NewClient(testCreds(), WithBaseURL(rated.URL))
	err := c2.Get(context.Background(), "/1.1/statuses/home_timeline.json", nil, nil)
	if apiErr, ok := AsAPIError(err); !ok || !apiErr.IsRateLimited() {
		t.Fatalf("err = %v, want rate limit APIError", err)
	}
	if got := rateCalls.Load(); got != 1 {
		t.Errorf("rate-limited endpoint called %d times, want 1", got)
	}
}

// TestGetGraphQL verifies variables and features are sent as JSON query
// parameters and that a 200 envelope with errors maps to an APIError.
func TestGetGraphQL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var variables map[string]any
		if err := json.Unmarshal([]byte(r.URL.Query().Get("variables")), &variables); err != nil {
			t.Errorf("variables not JSON: %v", err)
		}
		if variables["rest_id"] != "42" {
			t.Errorf("variables = %v", variables)
		}
		var features map[string]any
		if err := json.Unmarshal([]byte(r.URL.Query().Get("features")), &features); err != nil {
			t.Errorf("features not JSON: %v", err)
		}
		if features["longform_notetweets_inline_media_enabled"] != true {
			t.Error("default features not merged")
		}
		_, _ = w.Write([]byte(`{"data":{"tweet_bookmark_put":"Done"}}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), WithBaseURL(srv.URL))
	data, err := c.GetGraphQL(context.Background(), "/abc/TestQuery", map[string]any{"rest_id": "42"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if data.TweetBookmarkPut != "Done" {
		t.Errorf("data = %+v", data)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{},"errors":[{"code":34,"message":"missing"}]}`))
	}))
	defer failing.Close()

	c2 := NewClient(testCreds(), WithBaseURL(failing.URL))
	_, err = c2.GetGraphQL(context.Background(), "/abc/TestQuery", nil, nil)
	if apiErr, ok := AsAPIError(err); !ok || !apiErr.IsNotFound() {
		t.Fatalf("err = %v, want not-found APIError", err)
	}
}

// TestPostGraphQLBody verifies mutations send a JSON body with merged
// features and are signed without body parameters.
func TestPostGraphQLBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body struct {
			Variables map[string]any `json:"variables"`
			Features  map[string]any `json:"features"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("body not JSON: %v", err)
		}
		if body.Variables["tweet_text"] != "hi" {
			t.Errorf("variables = %v", body.Variables)
		}
		if len(body.Features) == 0 {
			t.Error("features missing from body")
		}
		_, _ = w.Write([]byte(`{"data":{"tweet_bookmark_delete":"Done"}}`))
	}))
	defer srv.Close()

	c := NewClient(testCreds(), WithBaseURL(srv.URL))
	data, err := c.PostGraphQL(context.Background(), "/abc/TestMutation", map[string]any{"tweet_text": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if data.TweetBookmarkDelete != "Done" {
		t.Errorf("data = %+v", data)
	}
}
