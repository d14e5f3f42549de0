package convert

import (
	"strings"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

// defaultHeader stands in for users without a profile banner; clients
// expect some header URL to exist.
const defaultHeader = "https://abs.twimg.com/images/themes/theme1/bg.png"

// Account converts a user record into a Mastodon account. A record
// without an ID yields nil.
func (t *Translator) Account(user *twitter.User) *mastodon.Account {
	if user == nil || user.IDStr == "" {
		return nil
	}

	// The _normal variant is a 48px thumbnail; dropping the suffix yields
	// the original upload.
	avatar := strings.Replace(user.ProfileImageURLHTTPS, "_normal", "", 1)
	header := user.ProfileBannerURL
	if header == "" {
		header = defaultHeader
	}

	account := &mastodon.Account{
		ID:             user.IDStr,
		Username:       user.ScreenName,
		Acct:           user.ScreenName,
		URL:            "https://twitter.com/" + user.ScreenName,
		DisplayName:    user.Name,
		Note:           t.linkifyBio(user.Description),
		Avatar:         avatar,
		AvatarStatic:   avatar,
		Header:         header,
		HeaderStatic:   header,
		Locked:         user.Protected,
		Bot:            false,
		CreatedAt:      Timestamp(user.CreatedAt),
		StatusesCount:  user.StatusesCount,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FriendsCount,
		Emojis:         []mastodon.Emoji{},
		Fields:         []mastodon.Field{},
	}
	if user.Status != nil {
		last := Timestamp(user.Status.CreatedAt)
		account.LastStatusAt = &last
	}

	// Verification collapsed into paid tiers; each gets its own badge.
	switch {
	case user.ExtIsBlueVerified:
		t.appendBadge(account, BlueVerifiedShortcode)
	case user.Verified && user.ExtVerifiedType == "Business":
		t.appendBadge(account, PissVerifiedShortcode)
	case user.Verified:
		t.appendBadge(account, VerifiedShortcode)
	}

	return account
}

func (t *Translator) appendBadge(account *mastodon.Account, shortcode string) {
	account.Emojis = append(account.Emojis, t.badgeEmoji(shortcode))
	account.DisplayName += " :" + shortcode + ":"
}

// linkifyBio turns bare @mentions in a profile bio into account links.
// Handles that run into another @, a word character or a dot-joined
// domain label are left alone so email addresses and fediverse handles
// don't get mangled; a handle ending a sentence ("@user. ") still
// counts. Hand-rolled because the reference pattern needs negative
// lookahead, which RE2 does not support.
func (t *Translator) linkifyBio(bio string) string {
	var b strings.Builder
	i := 0
	for i < len(bio) {
		if bio[i] != '@' {
			b.WriteByte(bio[i])
			i++
			continue
		}
		j := i + 1
		for j < len(bio) && isWordByte(bio[j]) {
			j++
		}
		if j == i+1 || !handleBoundary(bio, j) {
			b.WriteString(bio[i:j])
			i = j
			continue
		}
		name := bio[i+1 : j]
		b.WriteString(`<a href="` + t.root + `/@` + name + `">@` + name + `</a>`)
		i = j
	}
	return b.String()
}

// handleBoundary reports whether position j terminates a plain handle.
func handleBoundary(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	switch s[j] {
	case '@':
		return false
	case '.':
		// A dot followed by more text means a domain, not a sentence end.
		return j+1 < len(s) && isSpaceByte(s[j+1])
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
