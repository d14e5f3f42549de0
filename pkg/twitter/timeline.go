package twitter

// Instruction typenames and markers used when walking timeline responses.
const (
	instrAddEntries         = "TimelineAddEntries"
	instrPinEntry           = "TimelinePinEntry"
	contentCursor           = "TimelineTimelineCursor"
	contentModule           = "TimelineTimelineModule"
	moduleConversation      = "VerticalConversation"
	componentRelatedTweet   = "related_tweet"
	cursorTypeBottom        = "Bottom"
)

// ClientEventInfo tags a timeline entry with the widget it belongs to.
type ClientEventInfo struct {
	Component string `json:"component"`
}

// TimelineItemContent is the inner content of a timeline entry or module
// item: a tweet, a user, or a cursor.
type TimelineItemContent struct {
	Typename    string              `json:"__typename,omitempty"`
	TweetResult *TweetResultWrapper `json:"tweetResult,omitempty"`
	UserResult  *UserResultWrapper  `json:"userResult,omitempty"`
	CursorType  string              `json:"cursorType,omitempty"`
	Value       string              `json:"value,omitempty"`
}

// TimelineModuleItem is one item of a timeline module.
type TimelineModuleItem struct {
	Item struct {
		Content *TimelineItemContent `json:"content"`
	} `json:"item"`
}

// TimelineEntryContent is the outer content of a timeline entry.
type TimelineEntryContent struct {
	Typename          string               `json:"__typename,omitempty"`
	Content           *TimelineItemContent `json:"content,omitempty"`
	ClientEventInfo   *ClientEventInfo     `json:"clientEventInfo,omitempty"`
	ModuleDisplayType string               `json:"moduleDisplayType,omitempty"`
	Items             []TimelineModuleItem `json:"items,omitempty"`
	CursorType        string               `json:"cursorType,omitempty"`
	Value             string               `json:"value,omitempty"`
}

// TimelineEntry is one entry of a TimelineAddEntries instruction.
type TimelineEntry struct {
	Content *TimelineEntryContent `json:"content"`
}

// TimelineInstruction is one element of a timeline's heterogeneous
// instruction list.
type TimelineInstruction struct {
	Typename string          `json:"__typename"`
	Entry    *TimelineEntry  `json:"entry,omitempty"`
	Entries  []TimelineEntry `json:"entries,omitempty"`
}

// Timeline is the common GraphQL timeline envelope.
type Timeline struct {
	Instructions []TimelineInstruction `json:"instructions"`
}

// TimelineResponse wraps a timeline, which some operations nest one level
// deeper than others.
type TimelineResponse struct {
	Timeline     *Timeline             `json:"timeline,omitempty"`
	Instructions []TimelineInstruction `json:"instructions,omitempty"`
}

// InstructionList returns the instruction list regardless of nesting.
func (tr *TimelineResponse) InstructionList() []TimelineInstruction {
	if tr == nil {
		return nil
	}
	if tr.Timeline != nil {
		return tr.Timeline.Instructions
	}
	return tr.Instructions
}

// cursorContent returns the cursor payload of an entry, whichever nesting
// level it sits at.
func (c *TimelineEntryContent) cursorContent() (cursorType, value string) {
	if c == nil {
		return "", ""
	}
	if c.Content != nil && c.Content.Typename == contentCursor {
		return c.Content.CursorType, c.Content.Value
	}
	if c.Typename == contentCursor {
		return c.CursorType, c.Value
	}
	return "", ""
}

// TweetsFromInstructions extracts normalized tweets from a timeline
// instruction list, in timeline order, along with the bottom cursor if the
// page carries one. With pinned set, only the pinned entry is considered.
// Entries from the related-tweets widget are dropped, conversation modules
// yield their focal (last) item, and records failing normalization are
// skipped rather than failing the page.
func TweetsFromInstructions(instructions []TimelineInstruction, pinned bool) ([]*Tweet, string) {
	var entries []TimelineEntry
	for _, instr := range instructions {
		if pinned {
			if instr.Typename == instrPinEntry && instr.Entry != nil {
				entries = append(entries, *instr.Entry)
			}
		} else if instr.Typename == instrAddEntries {
			entries = append(entries, instr.Entries...)
		}
	}

	var nextCursor string
	for _, e := range entries {
		if ct, val := e.Content.cursorContent(); ct == cursorTypeBottom {
			nextCursor = val
		}
	}

	var tweets []*Tweet
	for _, e := range entries {
		content := e.Content
		if content == nil {
			continue
		}
		if content.ClientEventInfo != nil && content.ClientEventInfo.Component == componentRelatedTweet {
			continue
		}

		var result *TweetResultWrapper
		if content.Typename == contentModule && content.ModuleDisplayType == moduleConversation && len(content.Items) > 0 {
			// The last reply of a conversation module is the focal tweet.
			focal := content.Items[len(content.Items)-1]
			if focal.Item.Content != nil {
				result = focal.Item.Content.TweetResult
			}
		} else if content.Content != nil {
			result = content.Content.TweetResult
		}
		if result == nil || result.Result == nil {
			continue
		}

		tweet, err := NormalizeTweetResult(result.Result)
		if err != nil {
			continue
		}
		tweets = append(tweets, tweet)
	}

	return tweets, nextCursor
}

// UsersFromInstructions extracts normalized users from a timeline
// instruction list, skipping records that fail normalization.
func UsersFromInstructions(instructions []TimelineInstruction) []*User {
	var users []*User
	for _, instr := range instructions {
		if instr.Typename != instrAddEntries {
			continue
		}
		for _, e := range instr.Entries {
			if e.Content == nil || e.Content.Content == nil || e.Content.Content.UserResult == nil {
				continue
			}
			user, err := NormalizeUserResult(e.Content.Content.UserResult.Result)
			if err != nil {
				continue
			}
			users = append(users, user)
		}
	}
	return users
}
