package convert

import (
	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

// Notification converts an activity feed entry into a Mastodon
// notification. Unrecognized activity kinds yield nil and are dropped
// from the feed.
func (t *Translator) Notification(activity *twitter.Activity) *mastodon.Notification {
	note := &mastodon.Notification{
		ID:        activity.MaxPosition,
		CreatedAt: Timestamp(activity.CreatedAt),
	}
	if len(activity.Sources) > 0 {
		note.Account = t.Account(activity.Sources[0])
	}

	switch activity.Action {
	case "favorite":
		note.Type = "favourite"
		note.Status = t.firstStatus(activity.Targets)
	case "reply", "mention":
		note.Type = "mention"
		// Mentions carry the tweet in target_objects, replies in targets.
		if activity.Action == "mention" {
			note.Status = t.firstStatus(activity.TargetObjects)
		} else {
			note.Status = t.firstStatus(activity.Targets)
		}
	case "retweet":
		note.Type = "reblog"
		note.Status = t.firstStatus(activity.Targets)
	case "follow":
		note.Type = "follow"
	default:
		t.log.Warn().Str("action", activity.Action).Msg("Unhandled activity kind")
		return nil
	}

	return note
}

func (t *Translator) firstStatus(tweets []twitter.Tweet) *mastodon.Status {
	if len(tweets) == 0 {
		return nil
	}
	return t.Status(&tweets[0])
}
