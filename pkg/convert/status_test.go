package convert

import (
	"reflect"
	"strings"
	"testing"

	"github.com/epetousis/BirdBridge/pkg/twitter"
)

func convUser() *twitter.User {
	return &twitter.User{
		IDStr:                "100",
		ScreenName:           "alice",
		Name:                 "Alice",
		ProfileImageURLHTTPS: "https://pbs.twimg.com/profile_images/1/me_normal.jpg",
		CreatedAt:            "Mon Jan 02 03:04:05 +0000 2017",
	}
}

func convTweet(id string) *twitter.Tweet {
	return &twitter.Tweet{
		IDStr:            id,
		User:             convUser(),
		CreatedAt:        "Wed Oct 05 20:12:05 +0000 2022",
		FullText:         "hello world",
		DisplayTextRange: [2]int{0, 11},
		Source:           `<a href="https://example.com/client" rel="nofollow">Some Client</a>`,
		ReplyCount:       1,
		RetweetCount:     2,
		FavoriteCount:    3,
	}
}

// TestStatusBasic verifies a plain tweet converts with its permalink,
// timestamp, counts and client application resolved.
func TestStatusBasic(t *testing.T) {
	t.Parallel()
	status := testTranslator().Status(convTweet("42"))
	if status == nil {
		t.Fatal("status is nil")
	}
	if status.ID != "42" || status.URI != "https://twitter.com/alice/status/42" {
		t.Errorf("identity fields: %+v", status)
	}
	if status.CreatedAt != "2022-10-05T20:12:05.000Z" {
		t.Errorf("CreatedAt = %q", status.CreatedAt)
	}
	if status.URL == nil || *status.URL != status.URI {
		t.Errorf("URL = %v", status.URL)
	}
	if status.Content != "hello world" || status.Text != "hello world" {
		t.Errorf("content = %q, text = %q", status.Content, status.Text)
	}
	if status.RepliesCount != 1 || status.ReblogsCount != 2 || status.FavouritesCount != 3 {
		t.Errorf("counts: %+v", status)
	}
	if status.Application == nil || status.Application.Name != "Some Client" ||
		status.Application.Website != "https://example.com/client" {
		t.Errorf("application = %+v", status.Application)
	}
	if status.Visibility != "public" {
		t.Errorf("visibility = %q", status.Visibility)
	}
}

// TestStatusWithoutAuthor verifies a tweet lacking its author converts
// to nothing rather than a half-filled status.
func TestStatusWithoutAuthor(t *testing.T) {
	t.Parallel()
	tweet := convTweet("1")
	tweet.User = nil
	if status := testTranslator().Status(tweet); status != nil {
		t.Errorf("status = %+v, want nil", status)
	}
}

// TestStatusProtectedAuthor verifies protected accounts yield private
// visibility.
func TestStatusProtectedAuthor(t *testing.T) {
	t.Parallel()
	tweet := convTweet("1")
	tweet.User.Protected = true
	if status := testTranslator().Status(tweet); status.Visibility != "private" {
		t.Errorf("visibility = %q, want private", status.Visibility)
	}
}

// TestStatusReblog verifies retweets become wrappers: the wrapper keeps
// no text, counts or URL of its own and the original hangs off Reblog.
func TestStatusReblog(t *testing.T) {
	t.Parallel()
	original := convTweet("10")
	original.User = &twitter.User{IDStr: "200", ScreenName: "bob", Name: "Bob"}
	wrapper := convTweet("11")
	wrapper.FullText = "RT @bob: hello world"
	wrapper.RetweetedStatus = original

	status := testTranslator().Status(wrapper)
	if status.Reblog == nil || status.Reblog.ID != "10" {
		t.Fatalf("reblog = %+v", status.Reblog)
	}
	if status.Content != "" || status.Text != "" || status.URL != nil {
		t.Errorf("wrapper carries own content: %+v", status)
	}
	if status.RepliesCount != 0 || status.ReblogsCount != 0 || status.FavouritesCount != 0 {
		t.Errorf("wrapper carries counts: %+v", status)
	}
	if status.Reblog.Content != "hello world" {
		t.Errorf("reblog content = %q", status.Reblog.Content)
	}
}

// TestStatusReblogQuoteCardHoist verifies a retweet of a quote tweet
// copies the quote card onto the wrapper.
func TestStatusReblogQuoteCardHoist(t *testing.T) {
	t.Parallel()
	quoted := convTweet("5")
	quoted.User = &twitter.User{IDStr: "300", ScreenName: "carol", Name: "Carol"}
	original := convTweet("10")
	original.IsQuoteStatus = true
	original.QuotedStatus = quoted
	original.QuotedStatusPermalink = &twitter.Permalink{
		Expanded: "https://twitter.com/carol/status/5",
		Display:  "twitter.com/carol/status/5",
	}
	wrapper := convTweet("11")
	wrapper.RetweetedStatus = original

	status := testTranslator().Status(wrapper)
	if status.Reblog == nil || status.Reblog.Card == nil {
		t.Fatal("quote card missing from reblog")
	}
	if status.Card != status.Reblog.Card {
		t.Error("quote card not hoisted onto the wrapper")
	}
}

// TestStatusQuote verifies a quote tweet gets a link card describing the
// quoted tweet plus an inline link on the bridge's own domain.
func TestStatusQuote(t *testing.T) {
	t.Parallel()
	quoted := convTweet("5")
	quoted.User = &twitter.User{IDStr: "300", ScreenName: "bob", Name: "Bob"}
	quoted.FullText = "the original take"
	tweet := convTweet("9")
	tweet.IsQuoteStatus = true
	tweet.QuotedStatus = quoted
	tweet.QuotedStatusPermalink = &twitter.Permalink{
		Expanded: "https://twitter.com/bob/status/5",
		Display:  "twitter.com/bob/status/5",
	}

	status := testTranslator().Status(tweet)
	if status.Card == nil {
		t.Fatal("quote card missing")
	}
	if status.Card.Title != "🔁 Bob (@bob)" {
		t.Errorf("card title = %q", status.Card.Title)
	}
	if status.Card.Description != "the original take" {
		t.Errorf("card description = %q", status.Card.Description)
	}
	if status.Card.URL != "https://bird.test/@bob/5" {
		t.Errorf("card URL = %q", status.Card.URL)
	}
	if !strings.Contains(status.Content, `href="https://bird.test/@bob/5"`) {
		t.Errorf("inline link missing: %q", status.Content)
	}
}

// TestStatusQuoteWithoutDisplayName verifies the card title falls back
// to the bare handle.
func TestStatusQuoteWithoutDisplayName(t *testing.T) {
	t.Parallel()
	quoted := convTweet("5")
	quoted.User = &twitter.User{IDStr: "300", ScreenName: "bob"}
	tweet := convTweet("9")
	tweet.IsQuoteStatus = true
	tweet.QuotedStatus = quoted
	tweet.QuotedStatusPermalink = &twitter.Permalink{Expanded: "https://twitter.com/bob/status/5"}

	status := testTranslator().Status(tweet)
	if status.Card == nil || status.Card.Title != "🔁 @bob" {
		t.Errorf("card = %+v", status.Card)
	}
}

// TestStatusQuoteDeleted verifies a deleted quote appends the marker to
// both the rendered and raw text.
func TestStatusQuoteDeleted(t *testing.T) {
	t.Parallel()
	tweet := convTweet("9")
	tweet.QuoteDeleted = true
	status := testTranslator().Status(tweet)
	if !strings.HasSuffix(status.Content, "[Quote tweet has been deleted]") {
		t.Errorf("content = %q", status.Content)
	}
	if !strings.HasSuffix(status.Text, "[Quote tweet has been deleted]") {
		t.Errorf("text = %q", status.Text)
	}
}

// TestStatusSpoiler verifies sensitive media labels assemble into a
// sorted content warning, "other" is dropped, and the limited-replies
// marker lands last.
func TestStatusSpoiler(t *testing.T) {
	t.Parallel()
	tweet := convTweet("9")
	tweet.LimitedReplies = true
	tweet.ExtendedEntities = &twitter.Entities{Media: []twitter.MediaEntity{
		{IDStr: "1", Type: "photo", SensitiveMediaWarning: map[string]bool{"graphic_violence": true, "other": true}},
		{IDStr: "2", Type: "photo", SensitiveMediaWarning: map[string]bool{"adult_content": true, "graphic_violence": true}},
	}}
	status := testTranslator().Status(tweet)
	if status.SpoilerText != "Adult content, Graphic violence, Limited replies" {
		t.Errorf("spoiler = %q", status.SpoilerText)
	}
}

// TestStatusCircle verifies circle tweets get the circle spoiler, with a
// placeholder when the owner is unknown.
func TestStatusCircle(t *testing.T) {
	t.Parallel()
	tweet := convTweet("9")
	tweet.LimitedActions = "limit_trusted_friends_tweet"
	tweet.TrustedFriends = &twitter.TrustedFriendsMetadata{}
	tweet.TrustedFriends.Metadata.OwnerScreenName = "alice"
	if status := testTranslator().Status(tweet); status.SpoilerText != "🔵 alice's circle" {
		t.Errorf("spoiler = %q", status.SpoilerText)
	}

	tweet.TrustedFriends = nil
	if status := testTranslator().Status(tweet); status.SpoilerText != "🔵 ???'s circle" {
		t.Errorf("fallback spoiler = %q", status.SpoilerText)
	}
}

// TestStatusRepeatable verifies conversion does not mutate its input:
// translating the same tweet twice gives equal results.
func TestStatusRepeatable(t *testing.T) {
	t.Parallel()
	tweet := convTweet("9")
	tweet.ExtendedEntities = &twitter.Entities{Media: []twitter.MediaEntity{
		{IDStr: "1", Type: "photo", MediaURLHTTPS: "https://pbs.twimg.com/media/x.jpg", Indices: [2]int{0, 11}},
	}}
	tr := testTranslator()
	first := tr.Status(tweet)
	second := tr.Status(tweet)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("conversion not repeatable:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestConvertTweetSource verifies source anchors parse and garbage maps
// to no application.
func TestConvertTweetSource(t *testing.T) {
	t.Parallel()
	app := convertTweetSource(`<a href="https://example.com" rel="nofollow">App</a>`)
	if app == nil || app.Name != "App" || app.Website != "https://example.com" {
		t.Errorf("app = %+v", app)
	}
	if convertTweetSource("Twitter Web App") != nil {
		t.Error("plain-text source produced an application")
	}
}
