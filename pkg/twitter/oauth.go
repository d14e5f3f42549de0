package twitter

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const oauthRealm = "https://api.twitter.com/"

// Credentials is one authenticated Twitter identity: the app's consumer
// pair plus the user's access pair. It is never mutated after login.
type Credentials struct {
	ConsumerKey       string `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret    string `yaml:"consumer_secret" json:"consumer_secret"`
	AccessToken       string `yaml:"access_token" json:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret" json:"access_token_secret"`
}

// UserID returns the numeric user ID embedded in the access token.
func (c Credentials) UserID() string {
	if i := strings.IndexByte(c.AccessToken, '-'); i >= 0 {
		return c.AccessToken[:i]
	}
	return ""
}

// Signer produces OAuth 1.0a Authorization headers for requests to the
// Twitter API. Signatures include a fresh nonce and timestamp per call and
// are therefore not cacheable.
//
// One deliberate quirk carried over from the upstream client: oauth_realm
// is treated as a regular protocol parameter and participates in the
// signature base string.
type Signer struct {
	creds Credentials

	// Overridable for deterministic signature tests.
	nonce func() string
	now   func() time.Time
}

// NewSigner returns a Signer for the given credentials.
func NewSigner(creds Credentials) *Signer {
	return &Signer{
		creds: creds,
		nonce: func() string { return strings.ToUpper(uuid.NewString()) },
		now:   time.Now,
	}
}

// oauthEscape percent-encodes s using the RFC 3986 unreserved set, the
// encoding both the signature base string and the header values require.
func oauthEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			const hex = "0123456789ABCDEF"
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}

// hmacKey derives the signing key from the two secrets.
func (s *Signer) hmacKey() []byte {
	return []byte(oauthEscape(s.creds.ConsumerSecret) + "&" + oauthEscape(s.creds.AccessTokenSecret))
}

// signature computes the base64 HMAC-SHA1 signature over the canonical
// parameter string: all protocol parameters, the URL's query parameters
// and any form-encoded body parameters, each percent-encoded and sorted
// lexicographically as encoded key=value pairs.
func (s *Signer) signature(oauthParams map[string]string, method string, u *url.URL, body url.Values) string {
	var pairs []string
	for k, v := range oauthParams {
		pairs = append(pairs, oauthEscape(k)+"="+oauthEscape(v))
	}
	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, oauthEscape(k)+"="+oauthEscape(v))
		}
	}
	for k, vs := range body {
		for _, v := range vs {
			pairs = append(pairs, oauthEscape(k)+"="+oauthEscape(v))
		}
	}
	sort.Strings(pairs)

	baseURL := u.Scheme + "://" + u.Host + u.Path
	base := strings.ToUpper(method) + "&" + oauthEscape(baseURL) + "&" + oauthEscape(strings.Join(pairs, "&"))

	mac := hmac.New(sha1.New, s.hmacKey())
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Authorization builds the OAuth header value for one request. Body
// parameters participate in the signature only when form-encoded; JSON
// bodies are authenticated via the query parameters alone, so callers
// pass nil for them.
func (s *Signer) Authorization(method string, u *url.URL, body url.Values) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_token":            s.creds.AccessToken,
		"oauth_version":          "1.0",
		"oauth_realm":            oauthRealm,
	}
	oauthParams["oauth_signature"] = s.signature(oauthParams, method, u, body)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, oauthEscape(k)+`="`+oauthEscape(oauthParams[k])+`"`)
	}
	return "OAuth " + strings.Join(parts, ", ")
}
