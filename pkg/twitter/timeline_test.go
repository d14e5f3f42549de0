package twitter

import "testing"

func tweetEntry(result *TweetResult) TimelineEntry {
	return TimelineEntry{Content: &TimelineEntryContent{
		Content: &TimelineItemContent{TweetResult: &TweetResultWrapper{Result: result}},
	}}
}

func cursorEntry(cursorType, value string) TimelineEntry {
	return TimelineEntry{Content: &TimelineEntryContent{
		Content: &TimelineItemContent{Typename: "TimelineTimelineCursor", CursorType: cursorType, Value: value},
	}}
}

// TestTweetsFromInstructions verifies ordered extraction, bottom-cursor
// detection and that records failing normalization are skipped without
// failing the page.
func TestTweetsFromInstructions(t *testing.T) {
	t.Parallel()
	instructions := []TimelineInstruction{{
		Typename: "TimelineAddEntries",
		Entries: []TimelineEntry{
			tweetEntry(graphTweet("3", "first")),
			tweetEntry(&TweetResult{RestID: "broken"}), // incomplete, skipped
			tweetEntry(graphTweet("2", "second")),
			cursorEntry("Top", "cursor-top"),
			cursorEntry("Bottom", "cursor-bottom"),
		},
	}}

	tweets, next := TweetsFromInstructions(instructions, false)
	if len(tweets) != 2 || tweets[0].IDStr != "3" || tweets[1].IDStr != "2" {
		t.Fatalf("tweets = %+v", tweets)
	}
	if next != "cursor-bottom" {
		t.Errorf("next cursor = %q, want cursor-bottom", next)
	}
}

// TestTweetsFromInstructionsRelatedFilter verifies entries from the
// related-tweets widget are dropped.
func TestTweetsFromInstructionsRelatedFilter(t *testing.T) {
	t.Parallel()
	related := tweetEntry(graphTweet("9", "suggested"))
	related.Content.ClientEventInfo = &ClientEventInfo{Component: "related_tweet"}
	instructions := []TimelineInstruction{{
		Typename: "TimelineAddEntries",
		Entries:  []TimelineEntry{tweetEntry(graphTweet("1", "real")), related},
	}}

	tweets, _ := TweetsFromInstructions(instructions, false)
	if len(tweets) != 1 || tweets[0].IDStr != "1" {
		t.Fatalf("tweets = %+v", tweets)
	}
}

// TestTweetsFromInstructionsConversationModule verifies a vertical
// conversation module yields its last (focal) item.
func TestTweetsFromInstructionsConversationModule(t *testing.T) {
	t.Parallel()
	module := TimelineEntry{Content: &TimelineEntryContent{
		Typename:          "TimelineTimelineModule",
		ModuleDisplayType: "VerticalConversation",
		Items: []TimelineModuleItem{
			moduleItem(graphTweet("11", "root")),
			moduleItem(graphTweet("12", "focal reply")),
		},
	}}
	instructions := []TimelineInstruction{{Typename: "TimelineAddEntries", Entries: []TimelineEntry{module}}}

	tweets, _ := TweetsFromInstructions(instructions, false)
	if len(tweets) != 1 || tweets[0].IDStr != "12" {
		t.Fatalf("tweets = %+v", tweets)
	}
}

func moduleItem(result *TweetResult) TimelineModuleItem {
	var item TimelineModuleItem
	item.Item.Content = &TimelineItemContent{TweetResult: &TweetResultWrapper{Result: result}}
	return item
}

// TestTweetsFromInstructionsPinned verifies pinned mode only considers
// the TimelinePinEntry instruction.
func TestTweetsFromInstructionsPinned(t *testing.T) {
	t.Parallel()
	pin := tweetEntry(graphTweet("77", "pinned"))
	instructions := []TimelineInstruction{
		{Typename: "TimelineAddEntries", Entries: []TimelineEntry{tweetEntry(graphTweet("1", "recent"))}},
		{Typename: "TimelinePinEntry", Entry: &pin},
	}

	tweets, _ := TweetsFromInstructions(instructions, true)
	if len(tweets) != 1 || tweets[0].IDStr != "77" {
		t.Fatalf("tweets = %+v", tweets)
	}
}

// TestUsersFromInstructions verifies user timelines normalize into legacy
// users and skip incomplete records.
func TestUsersFromInstructions(t *testing.T) {
	t.Parallel()
	userEntry := func(res *UserResult) TimelineEntry {
		return TimelineEntry{Content: &TimelineEntryContent{
			Content: &TimelineItemContent{UserResult: &UserResultWrapper{Result: res}},
		}}
	}
	instructions := []TimelineInstruction{{
		Typename: "TimelineAddEntries",
		Entries: []TimelineEntry{
			userEntry(graphUser("1", "alice", true)),
			userEntry(&UserResult{RestID: "2"}), // no legacy payload
			userEntry(graphUser("3", "bob", false)),
		},
	}}

	users := UsersFromInstructions(instructions)
	if len(users) != 2 || users[0].ScreenName != "alice" || users[1].ScreenName != "bob" {
		t.Fatalf("users = %+v", users)
	}
}
