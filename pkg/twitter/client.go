package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production API origin.
const DefaultBaseURL = "https://api.twitter.com"

// GraphQL operation paths the bridge calls. The hash segment is part of
// the upstream persisted-query identifier.
const (
	OpTweetResultByID        = "/2hxSMXGNMNIocZb8pUn9bQ/TweetResultByIdQuery"
	OpUserResultByID         = "/yj7_QJBu7z2-dMmeaQttAA/UserResultByIdQuery"
	OpUserResultByScreenName = "/Kp3gw_7XAwbWYoFTTAlVog/UserResultByScreenNameQuery"
	OpFavoritesTimeline      = "/xUGO-xGK_bD7TWpW2des6Q/FavoritesByTimeTimelineV2"
	OpBookmarkTimeline       = "/E-Rqts_gtMp60KgQK2Xv9A/BookmarkTimelineV2"
	OpProfileTweets          = "/bulo6Tdznb4dPxWwL2iYnw/UserWithProfileTweetsQueryV2"
	OpProfileTweetsReplies   = "/Tkfp8LLOl0oJPv45HU9cTA/UserWithProfileTweetsAndRepliesQueryV2"
	OpBlockingTimeline       = "/zpVMuUseSzQbrioY8K3cTw/ViewerBlockingTimelineQuery"
	OpConversationTimeline   = "/nDLClSQMkXj5sp4n4qjFtg/ConversationTimelineV2"
	OpFavoritersTimeline     = "/098IQ5T4TeTVlwtaRQh7Rw/FavoritersTimeline"
	OpRetweetersTimeline     = "/qYfITpqIDKrPUwJjledDqw/RetweetersTimeline"
	OpFamiliarFollowers      = "/Mj1OuwJog0E8Wo1JKf0zbg/UserFriendsFollowingTimelineQuery"
	OpTrustedFriendsLists    = "/LaVEkyIlCyXrD_QXqWkdYA/TrustedFriendsListsQuery"
	OpCreateTweet            = "/f4fzP-emDqiJatuGuzfApg/CreateTweet"
	OpDeleteTweet            = "/kZyJ4Q1TNsZNByfrGX7Huw/DeleteTweet"
	OpCreateRetweet          = "/JEZIa5OfTnyblbLkht1UNg/CreateRetweet"
	OpDeleteRetweet          = "/r1IaAd_GIEunlPjVWVlD_w/DeleteRetweet"
	OpBookmarkAdd            = "/-V21wukAaCGXHbUZPZ2wGw/BookmarkAdd"
	OpBookmarkDelete         = "/G-V_AGDp-QKivnyTUCtTjA/BookmarkDelete"
)

// defaultGraphQLFeatures is the feature-flag set every GraphQL call must
// carry; the upstream API rejects requests missing any of them.
var defaultGraphQLFeatures = map[string]any{
	"longform_notetweets_inline_media_enabled":                                  true,
	"super_follow_badge_privacy_enabled":                                        true,
	"longform_notetweets_rich_text_read_enabled":                                true,
	"super_follow_user_api_enabled":                                             true,
	"super_follow_tweet_api_enabled":                                            true,
	"hidden_profile_likes_enabled":                                              false,
	"hidden_profile_subscriptions_enabled":                                      false,
	"android_graphql_skip_api_media_color_palette":                              true,
	"creator_subscriptions_tweet_preview_api_enabled":                           true,
	"freedom_of_speech_not_reach_fetch_enabled":                                 true,
	"tweetypie_unmention_optimization_enabled":                                  true,
	"longform_notetweets_consumption_enabled":                                   true,
	"subscriptions_verification_info_enabled":                                   true,
	"blue_business_profile_image_shape_enabled":                                 true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled":   true,
	"super_follow_exclusive_tweet_notifications_enabled":                        true,
}

// GraphQLTimelineHolder nests a timeline response under viewer/user nodes.
type GraphQLTimelineHolder struct {
	TimelineResponse *TimelineResponse `json:"timeline_response"`
}

// GraphQLUserResult is a user result that may also carry a timeline
// (profile statuses, favourites).
type GraphQLUserResult struct {
	UserResult
	TimelineResponse *TimelineResponse `json:"timeline_response,omitempty"`
}

// GraphQLUserWrapper wraps a GraphQLUserResult under its "result" key.
type GraphQLUserWrapper struct {
	Result *GraphQLUserResult `json:"result"`
}

// GraphQLData is the union of the data payloads of every GraphQL
// operation the bridge issues; only the branch matching the operation is
// populated.
type GraphQLData struct {
	TweetResult      *TweetResultWrapper    `json:"tweet_result,omitempty"`
	UserResult       *GraphQLUserWrapper    `json:"user_result,omitempty"`
	TimelineResponse *TimelineResponse      `json:"timeline_response,omitempty"`
	Viewer           *GraphQLTimelineHolder `json:"viewer,omitempty"`
	User             *GraphQLTimelineHolder `json:"user,omitempty"`
	CreateTweet      *struct {
		TweetResult *TweetResultWrapper `json:"tweet_result"`
	} `json:"create_tweet,omitempty"`
	CreateRetweet *struct {
		TweetResult *TweetResultWrapper `json:"tweet_result"`
	} `json:"create_retweet,omitempty"`
	TweetBookmarkPut    string `json:"tweet_bookmark_put,omitempty"`
	TweetBookmarkDelete string `json:"tweet_bookmark_delete,omitempty"`
	TrustedFriendsLists []struct {
		RestID string `json:"rest_id"`
	} `json:"authenticated_user_trusted_friends_lists,omitempty"`
}

type graphQLEnvelope struct {
	Data   *GraphQLData  `json:"data"`
	Errors []ErrorDetail `json:"errors"`
}

type restErrorEnvelope struct {
	Errors []ErrorDetail `json:"errors"`
}

// Client is an authenticated Twitter API client bound to one session's
// credentials. All calls are signed per request; idempotent GETs are
// retried on transport failures and 5xx responses, everything else is
// issued exactly once (retry policy for the engine proper lives with the
// caller, not here).
type Client struct {
	creds   Credentials
	signer  *Signer
	http    *http.Client
	baseURL string
	headers map[string]string
	log     zerolog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API origin (tests).
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithHeaders adds extra headers (user agent spoofing etc.) to every request.
func WithHeaders(h map[string]string) ClientOption {
	return func(c *Client) { c.headers = h }
}

// WithLogger sets the client's logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log.With().Str("component", "twitter_client").Logger() }
}

// NewClient creates a client for the given credentials.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		creds:   creds,
		signer:  NewSigner(creds),
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: DefaultBaseURL,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID returns the authenticated user's ID.
func (c *Client) UserID() string { return c.creds.UserID() }

// do issues one signed request. Exactly one of form/jsonBody may be set.
// A non-2xx response or error payload is returned as *APIError with the
// body's data (if any) still decoded into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, jsonBody any, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var bodyReader io.Reader
	contentType := ""
	signedForm := url.Values(nil)
	switch {
	case jsonBody != nil:
		// JSON bodies stay out of the signature base string.
		raw, err := json.Marshal(jsonBody)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
		contentType = "application/json"
	case form != nil:
		bodyReader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
		signedForm = form
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", c.signer.Authorization(method, u, signedForm))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response for %s: %w", path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Upstream request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope restErrorEnvelope
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response for %s: %w", path, err)
		}
	}
	return nil
}

// Get issues a signed GET and decodes the JSON response into out,
// retrying transient failures with backoff.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Do(
		func() error {
			return c.do(ctx, http.MethodGet, path, query, nil, nil, out)
		},
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Uint("attempt", n).Err(err).Str("path", path).Msg("Retrying upstream GET")
		}),
		retry.RetryIf(func(err error) bool {
			// Only transport failures and server-side errors are worth a
			// retry; structured rejections (404, 429, ...) are final.
			if apiErr, ok := AsAPIError(err); ok {
				return apiErr.StatusCode >= 500
			}
			return true
		}),
	)
}

// PostForm issues a signed form-encoded POST and decodes the JSON
// response into out. POSTs are not retried.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, form, nil, out)
}

func mergeFeatures(features map[string]any) map[string]any {
	merged := make(map[string]any, len(defaultGraphQLFeatures)+len(features))
	for k, v := range defaultGraphQLFeatures {
		merged[k] = v
	}
	for k, v := range features {
		merged[k] = v
	}
	return merged
}

func jsonString(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

// graphQLResult turns an envelope into (data, error), folding a 200
// response with an errors list into an APIError.
func graphQLResult(env graphQLEnvelope, err error) (*GraphQLData, error) {
	if err != nil {
		return env.Data, err
	}
	if len(env.Errors) > 0 {
		return env.Data, &APIError{StatusCode: http.StatusOK, Errors: env.Errors}
	}
	if env.Data == nil {
		return nil, fmt.Errorf("graphql response: %w", ErrIncompleteResult)
	}
	return env.Data, nil
}

// GetGraphQL issues a GraphQL query with variables and features encoded
// as query parameters.
func (c *Client) GetGraphQL(ctx context.Context, op string, variables, features map[string]any) (*GraphQLData, error) {
	q := url.Values{}
	q.Set("variables", jsonString(variables))
	q.Set("features", jsonString(mergeFeatures(features)))
	var env graphQLEnvelope
	err := c.Get(ctx, "/graphql"+op, q, &env)
	return graphQLResult(env, err)
}

// PostGraphQL issues a GraphQL mutation with a JSON body.
func (c *Client) PostGraphQL(ctx context.Context, op string, variables map[string]any) (*GraphQLData, error) {
	body := map[string]any{
		"variables": variables,
		"features":  mergeFeatures(nil),
	}
	var env graphQLEnvelope
	err := c.do(ctx, http.MethodPost, "/graphql"+op, nil, nil, body, &env)
	return graphQLResult(env, err)
}
