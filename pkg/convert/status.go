package convert

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

const quoteDeletedMarker = "\n\n[Quote tweet has been deleted]"

var tweetSourceRe = regexp.MustCompile(`<a href="(.+)" rel="nofollow">(.+)</a>`)

// Status converts a normalized tweet into a Mastodon status. A tweet
// without an author yields nil. Retweets become reblog wrappers: the
// wrapper carries no text, counts or URL of its own and points at the
// translated original instead.
func (t *Translator) Status(tweet *twitter.Tweet) *mastodon.Status {
	if tweet == nil || tweet.User == nil {
		return nil
	}
	account := t.Account(tweet.User)
	if account == nil {
		return nil
	}

	visibility := "public"
	if tweet.User.Protected {
		visibility = "private"
	}

	uri := "https://twitter.com/" + url.PathEscape(tweet.User.ScreenName) + "/status/" + url.PathEscape(tweet.IDStr)
	status := &mastodon.Status{
		ID:               tweet.IDStr,
		URI:              uri,
		CreatedAt:        Timestamp(tweet.CreatedAt),
		Account:          account,
		Visibility:       visibility,
		Sensitive:        tweet.PossiblySensitive,
		SpoilerText:      t.spoilerText(tweet),
		MediaAttachments: []mastodon.Attachment{},
		Application:      convertTweetSource(tweet.Source),
		Mentions:         []mastodon.Mention{},
		Tags:             []mastodon.Tag{},
		Emojis:           []mastodon.Emoji{},
		Favourited:       tweet.Favorited,
		Reblogged:        tweet.Retweeted,
		Bookmarked:       tweet.Bookmarked,
		Muted:            tweet.ConversationMuted,
	}

	if tweet.RetweetedStatus != nil {
		status.Reblog = t.Status(tweet.RetweetedStatus)
		if tweet.RetweetedStatus.IsQuoteStatus && status.Reblog != nil {
			// Hoist the quote card so clients render it on the wrapper.
			status.Card = status.Reblog.Card
		}
	} else {
		t.fillOwnContent(status, tweet)
	}

	if tweet.Card != nil {
		poll, card, err := t.Card(tweet.Card, tweet.Entities)
		if err != nil {
			t.log.Warn().Err(err).Str("tweet", tweet.IDStr).Msg("Dropping malformed card")
		}
		if poll != nil {
			status.Poll = poll
		}
		if card != nil && status.Card == nil {
			status.Card = card
		}
	}

	if tweet.LimitedActions == "limit_trusted_friends_tweet" {
		owner := "???"
		if tweet.TrustedFriends != nil && tweet.TrustedFriends.Metadata.OwnerScreenName != "" {
			owner = tweet.TrustedFriends.Metadata.OwnerScreenName
		}
		status.SpoilerText = "🔵 " + owner + "'s circle"
	}

	if tweet.QuoteDeleted {
		status.Content += quoteDeletedMarker
		status.Text += quoteDeletedMarker
	}

	return status
}

// fillOwnContent populates the fields a reblog wrapper leaves zeroed.
func (t *Translator) fillOwnContent(status *mastodon.Status, tweet *twitter.Tweet) {
	if tweet.InReplyToStatusIDStr != "" {
		status.InReplyToID = &tweet.InReplyToStatusIDStr
	}
	if tweet.InReplyToUserIDStr != "" {
		status.InReplyToAccountID = &tweet.InReplyToUserIDStr
	}
	if tweet.Lang != "" {
		status.Language = &tweet.Lang
	}
	uri := status.URI
	status.URL = &uri
	status.RepliesCount = tweet.ReplyCount
	status.ReblogsCount = tweet.RetweetCount
	status.FavouritesCount = tweet.FavoriteCount

	rendered := t.RenderText(tweet.FullText, tweet.Entities.Merge(tweet.ExtendedEntities), tweet.DisplayTextRange)
	status.Content = rendered.Content
	status.Mentions = rendered.Mentions
	status.Tags = rendered.Tags
	status.Text = tweet.FullText

	if tweet.ExtendedEntities != nil {
		for i := range tweet.ExtendedEntities.Media {
			status.MediaAttachments = append(status.MediaAttachments, Media(&tweet.ExtendedEntities.Media[i]))
		}
	}

	if tweet.IsQuoteStatus && tweet.QuotedStatusPermalink != nil {
		t.appendQuote(status, tweet)
	}
}

// appendQuote represents the quoted tweet as a link card plus an inline
// link, the closest shapes the client API offers.
func (t *Translator) appendQuote(status *mastodon.Status, tweet *twitter.Tweet) {
	expanded := t.RewritePermalink(tweet.QuotedStatusPermalink.Expanded)

	if quote := tweet.QuotedStatus; quote != nil && quote.User != nil {
		card := t.emptyLinkCard()
		card.URL = expanded
		if quote.User.Name != "" {
			card.Title = "🔁 " + quote.User.Name + " (@" + quote.User.ScreenName + ")"
		} else {
			card.Title = "🔁 @" + quote.User.ScreenName
		}
		card.Description = quote.FullText
		status.Card = card
	}

	// Clients want to see a plain link too, unless the text already has one.
	escaped := html.EscapeString(expanded)
	if !strings.Contains(status.Content, escaped) {
		status.Content += ` <a href="` + escaped + `" rel="nofollow noopener noreferrer" target="_blank">` +
			html.EscapeString(tweet.QuotedStatusPermalink.Display) + `</a>`
	}
}

// spoilerText assembles the content warning from sensitive media labels
// and the limited-replies marker.
func (t *Translator) spoilerText(tweet *twitter.Tweet) string {
	var components []string
	if tweet.ExtendedEntities != nil {
		seen := map[string]bool{}
		for _, m := range tweet.ExtendedEntities.Media {
			for key := range m.SensitiveMediaWarning {
				if key != "other" && !seen[key] {
					seen[key] = true
				}
			}
		}
		for key := range seen {
			components = append(components, formatWarningLabel(key))
		}
		sort.Strings(components)
	}
	if tweet.LimitedReplies {
		components = append(components, "Limited replies")
	}
	return strings.Join(components, ", ")
}

// formatWarningLabel turns a key like "adult_content" into "Adult content".
func formatWarningLabel(key string) string {
	spaced := strings.Replace(key, "_", " ", 1)
	if spaced == "" {
		return spaced
	}
	return strings.ToUpper(spaced[:1]) + spaced[1:]
}

// convertTweetSource parses the source anchor tag into an application
// record; an unexpected shape yields nil.
func convertTweetSource(source string) *mastodon.Application {
	m := tweetSourceRe.FindStringSubmatch(source)
	if m == nil {
		return nil
	}
	return &mastodon.Application{Name: m[2], Website: m[1]}
}
