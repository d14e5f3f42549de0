package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

var pollCardRe = regexp.MustCompile(`^poll(\d+)choice`)

// Card converts a legacy card into either a poll or a link preview.
// Poll cards declare their choice count in their name; a declared choice
// missing from the binding values is a StructuralError. Unrecognized
// card types convert to nothing.
func (t *Translator) Card(card *twitter.Card, entities twitter.Entities) (*mastodon.Poll, *mastodon.Card, error) {
	if m := pollCardRe.FindStringSubmatch(card.Name); m != nil {
		poll, err := t.convertPoll(card, m[1])
		return poll, nil, err
	}
	if card.Name == "summary" || card.Name == "summary_large_image" {
		return nil, t.convertLinkCard(card, entities), nil
	}
	t.log.Warn().Str("card", card.Name).Msg("Unhandled card type")
	return nil, nil, nil
}

func (t *Translator) convertPoll(card *twitter.Card, countStr string) (*mastodon.Poll, error) {
	optionCount, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, &StructuralError{Detail: "poll card has unparseable choice count " + countStr}
	}

	options := make([]mastodon.PollOption, 0, optionCount)
	var totalVotes int64
	for i := 1; i <= optionCount; i++ {
		count, ok := card.BindingValues[fmt.Sprintf("choice%d_count", i)]
		if !ok {
			return nil, &StructuralError{
				Detail: fmt.Sprintf("poll declares %d options but option %d is missing", optionCount, i),
			}
		}
		votes, err := strconv.ParseInt(count.StringValue, 10, 64)
		if err != nil {
			return nil, &StructuralError{
				Detail: fmt.Sprintf("poll option %d has unparseable count %q", i, count.StringValue),
			}
		}
		options = append(options, mastodon.PollOption{
			Title:      card.BindingValues[fmt.Sprintf("choice%d_label", i)].StringValue,
			VotesCount: votes,
		})
		totalVotes += votes
	}

	// selected_choice is 1-based; Mastodon own_votes are 0-based.
	ownVotes := []int{}
	if selected := card.BindingValues["selected_choice"].StringValue; selected != "" {
		if choice, err := strconv.Atoi(selected); err == nil {
			ownVotes = append(ownVotes, choice-1)
		}
	}

	return &mastodon.Poll{
		ID:         strings.TrimPrefix(card.URL, "card://"),
		ExpiresAt:  PollTimestamp(card.BindingValues["end_datetime_utc"].StringValue),
		Expired:    card.BindingValues["counts_are_final"].BooleanValue,
		Multiple:   false,
		VotesCount: totalVotes,
		Voted:      len(ownVotes) > 0,
		OwnVotes:   ownVotes,
		Options:    options,
		Emojis:     []mastodon.Emoji{},
	}, nil
}

func (t *Translator) convertLinkCard(card *twitter.Card, entities twitter.Entities) *mastodon.Card {
	out := t.emptyLinkCard()
	out.URL = tryExpandURL(card.BindingValues["card_url"].StringValue, entities)
	out.Title = card.BindingValues["title"].StringValue
	out.Description = card.BindingValues["description"].StringValue

	// Square thumbnails render obnoxiously large in some clients, so only
	// sufficiently wide ones are kept.
	if image := card.BindingValues["thumbnail_image_large"].ImageValue; image != nil && image.Height > 0 {
		if ratio := float64(image.Width) / float64(image.Height); ratio >= 1.5 {
			out.Width = image.Width
			out.Height = image.Height
			out.Image = image.URL
		}
	}

	return out
}

// emptyLinkCard is the shared scaffold of every link preview: 1000x1
// with a placeholder image, since some clients refuse imageless cards.
func (t *Translator) emptyLinkCard() *mastodon.Card {
	return &mastodon.Card{
		Type:   "link",
		Width:  1000,
		Height: 1,
		Image:  t.Image1Px(),
	}
}

// tryExpandURL resolves a t.co link through the tweet's URL entities,
// falling back to the wrapped link itself.
func tryExpandURL(tcoURL string, entities twitter.Entities) string {
	for _, entity := range entities.URLs {
		if entity.URL == tcoURL {
			return entity.ExpandedURL
		}
	}
	return tcoURL
}
