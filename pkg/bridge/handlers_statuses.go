package bridge

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

// unifiedCardsFeature accompanies every timeline query.
var unifiedCardsFeature = map[string]any{
	"unified_cards_ad_metadata_container_dynamic_card_content_query_enabled": true,
}

func tweetByIDVariables(id string) map[string]any {
	return map[string]any{
		"includeTweetImpression":            true,
		"includeHasBirdwatchNotes":          false,
		"includeEditPerspective":            false,
		"includeEditControl":                true,
		"includeCommunityTweetRelationship": true,
		"rest_id":                           id,
		"includeTweetVisibilityNudge":       true,
	}
}

func tweetActionVariables(key, id string) map[string]any {
	return map[string]any{
		"includeTweetImpression":   true,
		"includeHasBirdwatchNotes": false,
		"includeEditPerspective":   false,
		key:                        id,
		"includeEditControl":       true,
	}
}

// fetchStatus loads one tweet by id and translates it.
func (s *Server) fetchStatus(ctx context.Context, session *Session, id string) (*mastodon.Status, error) {
	data, err := session.Client().GetGraphQL(ctx, twitter.OpTweetResultByID, tweetByIDVariables(id), nil)
	if err != nil {
		return nil, err
	}
	if data.TweetResult == nil {
		return nil, twitter.ErrIncompleteResult
	}
	tweet, err := twitter.NormalizeTweetResult(data.TweetResult.Result)
	if err != nil {
		return nil, err
	}
	return s.tr.Status(tweet), nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, session *Session) {
	status, err := s.fetchStatus(r.Context(), session, mux.Vars(r)["id"])
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDeleteStatus(w http.ResponseWriter, r *http.Request, session *Session) {
	variables := tweetActionVariables("tweet_id", mux.Vars(r)["id"])
	if _, err := session.Client().PostGraphQL(r.Context(), twitter.OpDeleteTweet, variables); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleCreateStatus(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	text := params.Get("status")
	replyTarget := params.Get("in_reply_to_id")
	visibility := params.Get("visibility")

	variables := map[string]any{
		"nullcast":                          false,
		"includeTweetImpression":            true,
		"includeHasBirdwatchNotes":          false,
		"includeEditPerspective":            false,
		"includeEditControl":                true,
		"includeCommunityTweetRelationship": false,
		"includeTweetVisibilityNudge":       true,
		"tweet_text":                        text,
	}

	if replyTarget != "" {
		if visibility != "public" {
			writeError(w, http.StatusBadRequest, "You cannot make a reply to a tweet followers only. Please set to public and try again.")
			return
		}
		variables["reply"] = map[string]any{
			"exclude_reply_user_ids": []string{},
			"in_reply_to_tweet_id":   replyTarget,
		}
	}

	if visibility == "direct" {
		writeError(w, http.StatusBadRequest, "Direct messages are not supported.")
		return
	}

	if visibility != "public" {
		// Non-public posts go to the poster's circle, which requires a
		// trusted friends list to exist.
		data, err := session.Client().GetGraphQL(r.Context(), twitter.OpTrustedFriendsLists, map[string]any{
			"includeTweetImpression":   true,
			"includeHasBirdwatchNotes": false,
			"includeEditPerspective":   false,
			"includeEditControl":       true,
		}, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to retrieve trusted friend list information. Your post has not been created for your safety.")
			return
		}
		if len(data.TrustedFriendsLists) == 0 {
			writeError(w, http.StatusBadRequest, "You must create a trusted friends list (i.e a Twitter Circle) before you can use it.")
			return
		}
		variables["trusted_friends_control_options"] = map[string]any{
			"trusted_friends_list_id": data.TrustedFriendsLists[0].RestID,
		}
	}

	data, err := session.Client().PostGraphQL(r.Context(), twitter.OpCreateTweet, variables)
	if err != nil {
		if apiErr, ok := twitter.AsAPIError(err); ok && apiErr.IsReplyRestricted() {
			writeError(w, http.StatusForbidden, "The original Tweet author restricted who can reply to this Tweet. You are not permitted to reply.")
			return
		}
		s.writeUpstreamError(w, err)
		return
	}
	if data.CreateTweet == nil || data.CreateTweet.TweetResult == nil {
		writeError(w, http.StatusInternalServerError, "Upstream returned no tweet")
		return
	}
	tweet, err := twitter.NormalizeTweetResult(data.CreateTweet.TweetResult.Result)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tr.Status(tweet))
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request, session *Session) {
	id := mux.Vars(r)["id"]
	focalID, _ := strconv.ParseUint(id, 10, 64)

	variables := map[string]any{
		"includeTweetImpression":            true,
		"includeHasBirdwatchNotes":          false,
		"isReaderMode":                      false,
		"includeEditPerspective":            false,
		"includeEditControl":                true,
		"focalTweetId":                      id,
		"includeCommunityTweetRelationship": true,
		"includeTweetVisibilityNudge":       true,
	}
	data, err := session.Client().GetGraphQL(r.Context(), twitter.OpConversationTimeline, variables, unifiedCardsFeature)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	tweets, nextCursor := twitter.TweetsFromInstructions(data.TimelineResponse.InstructionList(), false)

	// One upstream page rarely holds the whole thread; fetch a bounded
	// number of continuations. The real endpoint returns thousands of
	// ancestors and descendants, which is not feasible to replicate here.
	for page := 0; nextCursor != "" && page < s.cfg.MaxContextPages; page++ {
		s.log.Debug().Int("page", page+1).Msg("Fetching additional context page")
		variables["cursor"] = nextCursor
		data, err = session.Client().GetGraphQL(r.Context(), twitter.OpConversationTimeline, variables, unifiedCardsFeature)
		if err != nil {
			break
		}
		var more []*twitter.Tweet
		more, nextCursor = twitter.TweetsFromInstructions(data.TimelineResponse.InstructionList(), false)
		tweets = append(tweets, more...)
	}

	var focalConversation string
	for _, tweet := range tweets {
		if tweet.IDStr == id {
			focalConversation = tweet.ConversationIDStr
			break
		}
	}

	result := mastodon.Context{Ancestors: []*mastodon.Status{}, Descendants: []*mastodon.Status{}}
	for _, tweet := range tweets {
		n, err := strconv.ParseUint(tweet.IDStr, 10, 64)
		if err != nil {
			continue
		}
		status := s.tr.Status(tweet)
		if status == nil {
			continue
		}
		switch {
		case n < focalID && tweet.ConversationIDStr == focalConversation:
			result.Ancestors = append(result.Ancestors, status)
		case n > focalID:
			result.Descendants = append(result.Descendants, status)
		}
	}
	sortStatusesByID(result.Ancestors)
	sortStatusesByID(result.Descendants)

	writeJSON(w, http.StatusOK, result)
}

func sortStatusesByID(statuses []*mastodon.Status) {
	sort.Slice(statuses, func(i, j int) bool {
		a, _ := strconv.ParseUint(statuses[i].ID, 10, 64)
		b, _ := strconv.ParseUint(statuses[j].ID, 10, 64)
		return a < b
	})
}

// userTimelineHandler serves favourited_by and reblogged_by, which share
// a shape: a user timeline keyed by tweet id.
func (s *Server) userTimelineHandler(op string) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, session *Session) {
		variables := map[string]any{
			"includeTweetImpression":      true,
			"includeHasBirdwatchNotes":    false,
			"includeEditPerspective":      false,
			"tweet_id":                    mux.Vars(r)["id"],
			"includeEditControl":          true,
			"includeTweetVisibilityNudge": true,
		}
		data, err := session.Client().GetGraphQL(r.Context(), op, variables, unifiedCardsFeature)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		accounts := []*mastodon.Account{}
		for _, user := range twitter.UsersFromInstructions(data.TimelineResponse.InstructionList()) {
			if account := s.tr.Account(user); account != nil {
				accounts = append(accounts, account)
			}
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func (s *Server) handleFavouritedBy(w http.ResponseWriter, r *http.Request, session *Session) {
	s.userTimelineHandler(twitter.OpFavoritersTimeline)(w, r, session)
}

func (s *Server) handleRebloggedBy(w http.ResponseWriter, r *http.Request, session *Session) {
	// Quote tweets do not appear here; the upstream timeline only lists
	// plain retweeters.
	s.userTimelineHandler(twitter.OpRetweetersTimeline)(w, r, session)
}

// restTweetAction serves favourite/unfavourite: a legacy REST action
// that answers with the affected tweet.
func (s *Server) restTweetAction(w http.ResponseWriter, r *http.Request, session *Session, path string) {
	params := restParams()
	params.Set("id", mux.Vars(r)["id"])
	var tweet twitter.Tweet
	if err := session.Client().PostForm(r.Context(), path, params, &tweet); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tr.Status(&tweet))
}

func (s *Server) handleFavourite(w http.ResponseWriter, r *http.Request, session *Session) {
	s.restTweetAction(w, r, session, "/1.1/favorites/create.json")
}

func (s *Server) handleUnfavourite(w http.ResponseWriter, r *http.Request, session *Session) {
	s.restTweetAction(w, r, session, "/1.1/favorites/destroy.json")
}

func (s *Server) handleReblog(w http.ResponseWriter, r *http.Request, session *Session) {
	variables := tweetActionVariables("tweet_id", mux.Vars(r)["id"])
	variables["includeTweetVisibilityNudge"] = true
	data, err := session.Client().PostGraphQL(r.Context(), twitter.OpCreateRetweet, variables)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if data.CreateRetweet == nil || data.CreateRetweet.TweetResult == nil {
		writeError(w, http.StatusInternalServerError, "Upstream returned no tweet")
		return
	}
	tweet, err := twitter.NormalizeTweetResult(data.CreateRetweet.TweetResult.Result)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tr.Status(tweet))
}

func (s *Server) handleUnreblog(w http.ResponseWriter, r *http.Request, session *Session) {
	id := mux.Vars(r)["id"]
	variables := tweetActionVariables("source_tweet_id", id)
	if _, err := session.Client().PostGraphQL(r.Context(), twitter.OpDeleteRetweet, variables); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	status, err := s.fetchStatus(r.Context(), session, id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// bookmarkAction runs a bookmark mutation and, on confirmation, answers
// with a fresh copy of the tweet.
func (s *Server) bookmarkAction(w http.ResponseWriter, r *http.Request, session *Session, op string, confirmed func(*twitter.GraphQLData) bool) {
	id := mux.Vars(r)["id"]
	data, err := session.Client().PostGraphQL(r.Context(), op, tweetActionVariables("tweet_id", id))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if !confirmed(data) {
		writeError(w, http.StatusInternalServerError, "Upstream did not confirm the bookmark change")
		return
	}
	status, err := s.fetchStatus(r.Context(), session, id)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request, session *Session) {
	s.bookmarkAction(w, r, session, twitter.OpBookmarkAdd, func(d *twitter.GraphQLData) bool {
		return d.TweetBookmarkPut == "Done"
	})
}

func (s *Server) handleUnbookmark(w http.ResponseWriter, r *http.Request, session *Session) {
	s.bookmarkAction(w, r, session, twitter.OpBookmarkDelete, func(d *twitter.GraphQLData) bool {
		return d.TweetBookmarkDelete == "Done"
	})
}
