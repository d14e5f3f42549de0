package twitter

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func fixedSigner() *Signer {
	s := NewSigner(Credentials{
		ConsumerKey:       "ck",
		ConsumerSecret:    "cs",
		AccessToken:       "123-at",
		AccessTokenSecret: "ats",
	})
	s.nonce = func() string { return "AAAABBBB-CCCC-DDDD-EEEE-FFFF00001111" }
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

// TestAuthorizationHeader verifies the full header against a fixture
// computed independently: sorted parameters, percent-encoded values, and
// the realm folded into the signature base string.
func TestAuthorizationHeader(t *testing.T) {
	t.Parallel()
	u, err := url.Parse("https://api.twitter.com/1.1/statuses/home_timeline.json?count=200&since_id=99")
	if err != nil {
		t.Fatal(err)
	}
	got := fixedSigner().Authorization("GET", u, nil)
	want := `OAuth oauth_consumer_key="ck", ` +
		`oauth_nonce="AAAABBBB-CCCC-DDDD-EEEE-FFFF00001111", ` +
		`oauth_realm="https%3A%2F%2Fapi.twitter.com%2F", ` +
		`oauth_signature="fMl9xNC%2F2eT41i57dsyALm5%2Fhuc%3D", ` +
		`oauth_signature_method="HMAC-SHA1", ` +
		`oauth_timestamp="1700000000", ` +
		`oauth_token="123-at", ` +
		`oauth_version="1.0"`
	if got != want {
		t.Errorf("Authorization header mismatch\n got: %s\nwant: %s", got, want)
	}
}

// TestAuthorizationDeterministic verifies that identical inputs with a
// pinned nonce and clock always produce the same signature.
func TestAuthorizationDeterministic(t *testing.T) {
	t.Parallel()
	u, _ := url.Parse("https://api.twitter.com/1.1/statuses/home_timeline.json?count=200&since_id=99")
	s := fixedSigner()
	if a, b := s.Authorization("GET", u, nil), s.Authorization("GET", u, nil); a != b {
		t.Errorf("signatures differ across calls: %q vs %q", a, b)
	}
}

// TestAuthorizationFormBody verifies form-encoded body parameters
// participate in the signature base string.
func TestAuthorizationFormBody(t *testing.T) {
	t.Parallel()
	u, _ := url.Parse("https://api.twitter.com/1.1/favorites/create.json")
	body := url.Values{"id": {"42"}, "tweet_mode": {"extended"}}
	got := fixedSigner().Authorization("POST", u, body)
	if !strings.Contains(got, `oauth_signature="EkmuH4%2F81ImjSO1jPS6nTZbh08w%3D"`) {
		t.Errorf("form body signature mismatch, header: %s", got)
	}
	// Body parameters sign the request but never appear in the header.
	if strings.Contains(got, "tweet_mode") {
		t.Errorf("body parameter leaked into header: %s", got)
	}
}

// TestOAuthEscape verifies RFC 3986 percent-encoding: unreserved bytes
// pass through, everything else becomes two uppercase hex digits.
func TestOAuthEscape(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"abcXYZ019-._~", "abcXYZ019-._~"},
		{"a b", "a%20b"},
		{"a+b/c", "a%2Bb%2Fc"},
		{"\n", "%0A"},
		{"é", "%C3%A9"},
		{"https://api.twitter.com/", "https%3A%2F%2Fapi.twitter.com%2F"},
	}
	for _, tc := range cases {
		if got := oauthEscape(tc.in); got != tc.want {
			t.Errorf("oauthEscape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestCredentialsUserID verifies the user id is the access token prefix.
func TestCredentialsUserID(t *testing.T) {
	t.Parallel()
	if got := (Credentials{AccessToken: "12345-abcdef"}).UserID(); got != "12345" {
		t.Errorf("UserID() = %q, want %q", got, "12345")
	}
	if got := (Credentials{AccessToken: "noid"}).UserID(); got != "" {
		t.Errorf("UserID() = %q, want empty", got)
	}
}
