// Package mastodon defines the Mastodon client API shapes the bridge
// produces. Only the fields the bridge actually populates are modeled;
// timestamps are pre-rendered ISO 8601 strings because the converters
// build them directly from Twitter's timestamp formats.
package mastodon

// Emoji is a custom emoji definition, used for the verification badges.
type Emoji struct {
	Shortcode       string `json:"shortcode"`
	URL             string `json:"url"`
	StaticURL       string `json:"static_url"`
	VisibleInPicker bool   `json:"visible_in_picker"`
	Category        string `json:"category,omitempty"`
}

// Field is a profile metadata field.
type Field struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	VerifiedAt *string `json:"verified_at"`
}

// AccountSource is the extra per-self block returned by verify_credentials.
type AccountSource struct {
	Privacy             string  `json:"privacy"`
	Note                string  `json:"note"`
	Sensitive           bool    `json:"sensitive"`
	Language            string  `json:"language"`
	FollowRequestsCount int     `json:"follow_requests_count"`
	Fields              []Field `json:"fields"`
}

// Account is a user profile.
type Account struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Acct           string         `json:"acct"`
	URL            string         `json:"url"`
	DisplayName    string         `json:"display_name"`
	Note           string         `json:"note"`
	Avatar         string         `json:"avatar"`
	AvatarStatic   string         `json:"avatar_static"`
	Header         string         `json:"header"`
	HeaderStatic   string         `json:"header_static"`
	Locked         bool           `json:"locked"`
	Bot            bool           `json:"bot"`
	CreatedAt      string         `json:"created_at"`
	LastStatusAt   *string        `json:"last_status_at,omitempty"`
	StatusesCount  int64          `json:"statuses_count"`
	FollowersCount int64          `json:"followers_count"`
	FollowingCount int64          `json:"following_count"`
	Emojis         []Emoji        `json:"emojis"`
	Fields         []Field        `json:"fields"`
	Source         *AccountSource `json:"source,omitempty"`
}

// Mention is a reference to an account within status content.
type Mention struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	URL      string `json:"url"`
	Acct     string `json:"acct"`
}

// Tag is a hashtag reference within status content.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AttachmentSize describes the original dimensions of a media attachment.
type AttachmentSize struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Size   string  `json:"size"`
	Aspect float64 `json:"aspect"`
}

// AttachmentMeta carries media dimension metadata.
type AttachmentMeta struct {
	Original AttachmentSize `json:"original"`
}

// Attachment is a media attachment on a status.
type Attachment struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	URL         string          `json:"url"`
	PreviewURL  string          `json:"preview_url"`
	Description string          `json:"description,omitempty"`
	Meta        *AttachmentMeta `json:"meta,omitempty"`
}

// PollOption is a single poll choice with its vote tally.
type PollOption struct {
	Title      string `json:"title"`
	VotesCount int64  `json:"votes_count"`
}

// Poll is a poll attached to a status.
type Poll struct {
	ID         string       `json:"id"`
	ExpiresAt  string       `json:"expires_at"`
	Expired    bool         `json:"expired"`
	Multiple   bool         `json:"multiple"`
	VotesCount int64        `json:"votes_count"`
	Voted      bool         `json:"voted"`
	OwnVotes   []int        `json:"own_votes"`
	Options    []PollOption `json:"options"`
	Emojis     []Emoji      `json:"emojis"`
}

// Card is a link preview card.
type Card struct {
	URL          string  `json:"url"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Type         string  `json:"type"`
	AuthorName   string  `json:"author_name"`
	AuthorURL    string  `json:"author_url"`
	ProviderName string  `json:"provider_name"`
	ProviderURL  string  `json:"provider_url"`
	HTML         string  `json:"html"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Image        string  `json:"image"`
	EmbedURL     string  `json:"embed_url"`
	Blurhash     *string `json:"blurhash"`
}

// Application identifies the client a status was posted with.
type Application struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

// Status is a single post. A reblog wrapper status carries no content of
// its own: text, content, counts and URL stay zeroed and Reblog points at
// the translated original.
type Status struct {
	ID                 string       `json:"id"`
	URI                string       `json:"uri"`
	CreatedAt          string       `json:"created_at"`
	Account            *Account     `json:"account"`
	Visibility         string       `json:"visibility"`
	Sensitive          bool         `json:"sensitive"`
	SpoilerText        string       `json:"spoiler_text"`
	MediaAttachments   []Attachment `json:"media_attachments"`
	Application        *Application `json:"application"`
	Reblog             *Status      `json:"reblog"`
	InReplyToID        *string      `json:"in_reply_to_id"`
	InReplyToAccountID *string      `json:"in_reply_to_account_id"`
	Language           *string      `json:"language"`
	URL                *string      `json:"url"`
	RepliesCount       int64        `json:"replies_count"`
	ReblogsCount       int64        `json:"reblogs_count"`
	FavouritesCount    int64        `json:"favourites_count"`
	Content            string       `json:"content"`
	Text               string       `json:"text"`
	Mentions           []Mention    `json:"mentions"`
	Tags               []Tag        `json:"tags"`
	Emojis             []Emoji      `json:"emojis"`
	Poll               *Poll        `json:"poll,omitempty"`
	Card               *Card        `json:"card,omitempty"`
	Favourited         bool         `json:"favourited"`
	Reblogged          bool         `json:"reblogged"`
	Bookmarked         bool         `json:"bookmarked"`
	Muted              bool         `json:"muted"`
}

// Notification is a single notification feed entry.
type Notification struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	CreatedAt string   `json:"created_at"`
	Account   *Account `json:"account"`
	Status    *Status  `json:"status,omitempty"`
}

// Relationship describes the authenticated user's relationship to another
// account. Absent upstream fields default to false; see the relationships
// handler for the fidelity caveat.
type Relationship struct {
	ID                  string `json:"id"`
	Following           bool   `json:"following"`
	ShowingReblogs      bool   `json:"showing_reblogs"`
	Notifying           bool   `json:"notifying"`
	FollowedBy          bool   `json:"followed_by"`
	Blocking            bool   `json:"blocking"`
	BlockedBy           bool   `json:"blocked_by"`
	Muting              bool   `json:"muting"`
	MutingNotifications bool   `json:"muting_notifications"`
	Requested           bool   `json:"requested"`
	DomainBlocking      bool   `json:"domain_blocking"`
	Endorsed            bool   `json:"endorsed"`
	Note                string `json:"note,omitempty"`
}

// List is a user-curated list.
type List struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	RepliesPolicy string `json:"replies_policy"`
}

// Context is the ancestor/descendant view of a conversation.
type Context struct {
	Ancestors   []*Status `json:"ancestors"`
	Descendants []*Status `json:"descendants"`
}

// SearchResults is the /api/v2/search response shape.
type SearchResults struct {
	Accounts []*Account `json:"accounts"`
	Hashtags []Tag      `json:"hashtags"`
	Statuses []*Status  `json:"statuses"`
}

// Error is the standard error response body.
type Error struct {
	Error string `json:"error"`
}
