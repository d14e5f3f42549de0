package twitter

import "fmt"

// Result typenames the normalizer special-cases.
const (
	typeVisibilityResults = "TweetWithVisibilityResults"
	typeTombstone         = "TweetTombstone"
)

// UserResult is a GraphQL user result.
type UserResult struct {
	Typename       string `json:"__typename,omitempty"`
	RestID         string `json:"rest_id"`
	Legacy         *User  `json:"legacy"`
	IsBlueVerified bool   `json:"is_blue_verified"`
}

// UserResultWrapper wraps a user result under its "result" key.
type UserResultWrapper struct {
	Result *UserResult `json:"result"`
}

// TweetResult is a GraphQL tweet result. A result may be wrapped in a
// visibility-limited envelope, in which case Tweet holds the real result.
type TweetResult struct {
	Typename           string              `json:"__typename,omitempty"`
	Tweet              *TweetResult        `json:"tweet,omitempty"`
	RestID             string              `json:"rest_id"`
	Legacy             *Tweet              `json:"legacy"`
	Core               *TweetCore          `json:"core,omitempty"`
	NoteTweet          *NoteTweet          `json:"note_tweet,omitempty"`
	QuotedStatusResult *TweetResultWrapper `json:"quoted_status_result,omitempty"`
	ConversationMuted  bool                `json:"conversation_muted,omitempty"`
}

// TweetResultWrapper wraps a tweet result under its "result" key.
type TweetResultWrapper struct {
	Result *TweetResult `json:"result"`
}

// TweetCore carries the author reference of a GraphQL tweet result.
type TweetCore struct {
	UserResult UserResultWrapper `json:"user_result"`
}

// NoteTweet carries the full text of tweets longer than the classic limit.
type NoteTweet struct {
	NoteTweetResults struct {
		Result *struct {
			Text      string    `json:"text"`
			EntitySet *Entities `json:"entity_set"`
		} `json:"result"`
	} `json:"note_tweet_results"`
}

// unwrap pulls the real result out of a visibility-limited envelope.
func (r *TweetResult) unwrap() *TweetResult {
	if r.Tweet != nil {
		return r.Tweet
	}
	return r
}

// NormalizeUserResult converts a GraphQL user result into the legacy
// shape. Blue verification collapses every tier into "verified", so the
// legacy flags are reconstructed from is_blue_verified and verified_type.
func NormalizeUserResult(res *UserResult) (*User, error) {
	if res == nil || res.Legacy == nil {
		return nil, fmt.Errorf("normalize user: %w", ErrIncompleteResult)
	}
	user := *res.Legacy
	if user.IDStr == "" {
		user.IDStr = res.RestID
	}
	user.ExtIsBlueVerified = res.IsBlueVerified && user.VerifiedType == ""
	user.Verified = res.IsBlueVerified
	// The graph payload carries verified_type where the REST payload has
	// ext_verified_type; the converters read the latter.
	if user.ExtVerifiedType == "" {
		user.ExtVerifiedType = user.VerifiedType
	}
	return &user, nil
}

// NormalizeTweetResult converts a GraphQL tweet result into the legacy
// Tweet shape, unwrapping visibility envelopes, promoting note-tweet long
// text, and resolving the author, quoted status and retweeted status into
// the fields the converters read. A result without legacy, core and
// rest_id yields ErrIncompleteResult.
func NormalizeTweetResult(res *TweetResult) (*Tweet, error) {
	if res == nil {
		return nil, fmt.Errorf("normalize tweet: %w", ErrIncompleteResult)
	}
	inner := res.unwrap()
	if inner.Legacy == nil || inner.Core == nil || inner.RestID == "" {
		return nil, fmt.Errorf("normalize tweet: %w", ErrIncompleteResult)
	}

	tweet := *inner.Legacy
	tweet.IDStr = inner.RestID
	tweet.LimitedReplies = res.Typename == typeVisibilityResults
	tweet.ConversationMuted = inner.ConversationMuted

	if nt := inner.NoteTweet; nt != nil && nt.NoteTweetResults.Result != nil && nt.NoteTweetResults.Result.Text != "" {
		tweet.FullText = nt.NoteTweetResults.Result.Text
		if nt.NoteTweetResults.Result.EntitySet != nil {
			tweet.Entities = *nt.NoteTweetResults.Result.EntitySet
		}
		tweet.DisplayTextRange = [2]int{0, len([]rune(tweet.FullText))}
	}

	author, err := NormalizeUserResult(inner.Core.UserResult.Result)
	if err != nil {
		return nil, err
	}
	tweet.User = author

	// Quoted statuses: a tombstoned or absent quote on a quote tweet means
	// the quoted tweet has been deleted.
	if qsr := inner.QuotedStatusResult; qsr != nil && qsr.Result != nil && qsr.Result.Typename != typeTombstone {
		quoted := qsr.Result.unwrap()
		if q, err := NormalizeTweetResult(qsr.Result); err == nil {
			tweet.QuotedStatus = q
			expanded := fmt.Sprintf("https://twitter.com/%s/status/%s", q.User.ScreenName, quoted.RestID)
			display := expanded
			if len(display) > 40 {
				display = display[:40] + "…"
			}
			tweet.QuotedStatusPermalink = &Permalink{Expanded: expanded, Display: display}
		}
	} else if inner.Legacy.IsQuoteStatus {
		tweet.QuoteDeleted = true
	}

	// Retweets arrive as a nested result on the legacy payload.
	if rsr := inner.Legacy.RetweetedStatusResult; rsr != nil && rsr.Result != nil {
		if rt, err := NormalizeTweetResult(rsr.Result); err == nil {
			tweet.RetweetedStatus = rt
		}
	}
	tweet.RetweetedStatusResult = nil

	return &tweet, nil
}
