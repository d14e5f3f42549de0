// Package twitter models the Twitter API surfaces the bridge consumes:
// the legacy v1.1 REST shapes, the internal GraphQL result shapes, and an
// OAuth 1.0a signing client. GraphQL results are normalized into the
// legacy Tweet/User shapes before translation so the converters only ever
// see one representation.
package twitter

// Entities holds the annotated spans of a tweet or user description.
// Offsets are codepoint-based; see the convert package for the UTF-16
// remapping applied before slicing.
type Entities struct {
	UserMentions []MentionEntity `json:"user_mentions,omitempty"`
	URLs         []URLEntity     `json:"urls,omitempty"`
	Hashtags     []HashtagEntity `json:"hashtags,omitempty"`
	Media        []MediaEntity   `json:"media,omitempty"`
}

// Merge overlays non-empty span lists from other on top of e. The REST API
// splits media between entities and extended_entities; extended wins.
func (e Entities) Merge(other *Entities) Entities {
	if other == nil {
		return e
	}
	merged := e
	if len(other.UserMentions) > 0 {
		merged.UserMentions = other.UserMentions
	}
	if len(other.URLs) > 0 {
		merged.URLs = other.URLs
	}
	if len(other.Hashtags) > 0 {
		merged.Hashtags = other.Hashtags
	}
	if len(other.Media) > 0 {
		merged.Media = other.Media
	}
	return merged
}

// MentionEntity is an @-mention span.
type MentionEntity struct {
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Indices    [2]int `json:"indices"`
}

// URLEntity is a t.co link span with its resolved destination.
type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	Indices     [2]int `json:"indices"`
}

// HashtagEntity is a #tag span.
type HashtagEntity struct {
	Text    string `json:"text"`
	Indices [2]int `json:"indices"`
}

// MediaEntity is an inline media span. The span covers the t.co link that
// the upstream API appends to the text; rendering strips it.
type MediaEntity struct {
	IDStr                 string          `json:"id_str"`
	Type                  string          `json:"type"`
	URL                   string          `json:"url"`
	MediaURLHTTPS         string          `json:"media_url_https"`
	ExtAltText            string          `json:"ext_alt_text,omitempty"`
	Indices               [2]int          `json:"indices"`
	OriginalInfo          *MediaSize      `json:"original_info,omitempty"`
	VideoInfo             *VideoInfo      `json:"video_info,omitempty"`
	SensitiveMediaWarning map[string]bool `json:"sensitive_media_warning,omitempty"`
}

// MediaSize holds original media dimensions.
type MediaSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoInfo holds the variant list for video and animated_gif media.
type VideoInfo struct {
	Variants []VideoVariant `json:"variants"`
}

// VideoVariant is one encoding of a video.
type VideoVariant struct {
	Bitrate     int64  `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// CardImage is an image binding value on a card.
type CardImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// BindingValue is one entry of a card's binding_values map.
type BindingValue struct {
	StringValue  string     `json:"string_value,omitempty"`
	BooleanValue bool       `json:"boolean_value,omitempty"`
	ImageValue   *CardImage `json:"image_value,omitempty"`
}

// Card is a legacy card payload: polls and link previews share this shape,
// distinguished by Name.
type Card struct {
	Name          string                  `json:"name"`
	URL           string                  `json:"url"`
	BindingValues map[string]BindingValue `json:"binding_values"`
}

// Permalink is the quoted-status permalink pair.
type Permalink struct {
	Expanded string `json:"expanded"`
	Display  string `json:"display"`
}

// TrustedFriendsMetadata identifies the circle a restricted tweet belongs to.
type TrustedFriendsMetadata struct {
	Metadata struct {
		OwnerScreenName string `json:"owner_screen_name"`
	} `json:"metadata"`
}

// Tweet is the legacy REST tweet shape, which doubles as the bridge's
// internal normalized form. The trailing unexported-by-wire fields are
// filled by GraphQL normalization only.
type Tweet struct {
	IDStr                string     `json:"id_str"`
	UserIDStr            string     `json:"user_id_str,omitempty"`
	User                 *User      `json:"user,omitempty"`
	CreatedAt            string     `json:"created_at"`
	FullText             string     `json:"full_text"`
	DisplayTextRange     [2]int     `json:"display_text_range"`
	Entities             Entities   `json:"entities"`
	ExtendedEntities     *Entities  `json:"extended_entities,omitempty"`
	Lang                 string     `json:"lang,omitempty"`
	Source               string     `json:"source,omitempty"`
	InReplyToStatusIDStr string     `json:"in_reply_to_status_id_str,omitempty"`
	InReplyToUserIDStr   string     `json:"in_reply_to_user_id_str,omitempty"`
	ConversationIDStr    string     `json:"conversation_id_str,omitempty"`
	ReplyCount           int64      `json:"reply_count"`
	RetweetCount         int64      `json:"retweet_count"`
	FavoriteCount        int64      `json:"favorite_count"`
	Favorited            bool       `json:"favorited"`
	Retweeted            bool       `json:"retweeted"`
	Bookmarked           bool       `json:"bookmarked"`
	PossiblySensitive    bool       `json:"possibly_sensitive"`
	RetweetedStatus      *Tweet     `json:"retweeted_status,omitempty"`
	IsQuoteStatus        bool       `json:"is_quote_status"`
	QuotedStatus         *Tweet     `json:"quoted_status,omitempty"`
	QuotedStatusPermalink *Permalink `json:"quoted_status_permalink,omitempty"`
	Card                 *Card      `json:"card,omitempty"`
	LimitedActions       string     `json:"limited_actions,omitempty"`
	TrustedFriends       *TrustedFriendsMetadata `json:"ext_trusted_friends_metadata,omitempty"`

	// RetweetedStatusResult only appears on GraphQL legacy payloads; see
	// NormalizeTweetResult.
	RetweetedStatusResult *TweetResultWrapper `json:"retweeted_status_result,omitempty"`

	// Normalization metadata, never on the wire.
	LimitedReplies    bool `json:"-"`
	QuoteDeleted      bool `json:"-"`
	ConversationMuted bool `json:"-"`
}

// User is the legacy REST user shape.
type User struct {
	IDStr                string `json:"id_str"`
	ScreenName           string `json:"screen_name"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
	ProfileBannerURL     string `json:"profile_banner_url,omitempty"`
	Protected            bool   `json:"protected"`
	CreatedAt            string `json:"created_at"`
	Status               *Tweet `json:"status,omitempty"`
	StatusesCount        int64  `json:"statuses_count"`
	FollowersCount       int64  `json:"followers_count"`
	FriendsCount         int64  `json:"friends_count"`
	Verified             bool   `json:"verified"`
	VerifiedType         string `json:"verified_type,omitempty"`
	ExtVerifiedType      string `json:"ext_verified_type,omitempty"`
	ExtIsBlueVerified    bool   `json:"ext_is_blue_verified,omitempty"`

	// Relationship flags. The upstream API omits them when false; absent
	// is treated as false, a documented fidelity gap.
	Following         bool `json:"following,omitempty"`
	WantRetweets      bool `json:"want_retweets,omitempty"`
	Notifications     bool `json:"notifications,omitempty"`
	FollowedBy        bool `json:"followed_by,omitempty"`
	Blocking          bool `json:"blocking,omitempty"`
	BlockedBy         bool `json:"blocked_by,omitempty"`
	Muting            bool `json:"muting,omitempty"`
	FollowRequestSent bool `json:"follow_request_sent,omitempty"`
}

// Activity is a legacy activity/about_me feed entry. Sources are always
// users; the tweet being acted on sits in Targets except for mentions,
// where it is in TargetObjects.
type Activity struct {
	Action        string  `json:"action"`
	MaxPosition   string  `json:"max_position"`
	CreatedAt     string  `json:"created_at"`
	Sources       []*User `json:"sources"`
	Targets       []Tweet `json:"targets"`
	TargetObjects []Tweet `json:"target_objects"`
}

// TwitterList is a legacy list record.
type TwitterList struct {
	IDStr string `json:"id_str"`
	Name  string `json:"name"`
}

// UserListPage wraps the followers/friends list responses.
type UserListPage struct {
	Users []*User `json:"users"`
}

// SearchPage wraps the search/tweets response.
type SearchPage struct {
	Statuses []Tweet `json:"statuses"`
}
