package bridge

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

func (s *Server) handleHomeTimeline(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	pq := pageQueryFrom(params)

	base := restParams()
	base.Set("include_my_retweet", "1")

	fetch := func(ctx context.Context, p url.Values) ([]twitter.Tweet, error) {
		var tweets []twitter.Tweet
		err := session.Client().Get(ctx, "/1.1/statuses/home_timeline.json", p, &tweets)
		return tweets, err
	}

	var tweets []twitter.Tweet
	lowerBound, boundErr := strconv.ParseUint(pq.MinID, 10, 64)
	if pq.MinID != "" && pq.MaxID == "" && pq.SinceID == "" && boundErr == nil {
		// A min_id-only refresh wants everything newer than the client's
		// last-read position; the REST API cannot answer that in one
		// call, so the gap is backfilled batch by batch.
		b := &Backfiller{
			MaxPages: s.cfg.Backfill.MaxPages,
			Fetch:    fetch,
			Log:      s.log,
		}
		tweets = b.Run(r.Context(), lowerBound, base)
	} else {
		pq.Inject(base)
		var err error
		tweets, err = fetch(r.Context(), base)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
	}

	statuses := s.translateTweets(tweets)
	addPageLinks(w, r.URL, statusIDs(statuses))
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) translateTweets(tweets []twitter.Tweet) []*mastodon.Status {
	statuses := []*mastodon.Status{}
	for i := range tweets {
		if status := s.tr.Status(&tweets[i]); status != nil {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

// mentionsExcludeTypes is the exclusion list one popular client sends to
// ask for a mentions-only feed.
var mentionsExcludeTypes = []string{
	"follow", "favourite", "reblog", "poll",
	"admin.sign_up", "update", "follow_request", "admin.report",
}

// isMentionsTimelineQuery recognizes the two query fingerprints clients
// use to request only mentions.
func isMentionsTimelineQuery(params url.Values) bool {
	if types := params["types"]; len(types) > 0 {
		if len(types) == 1 && types[0] == "mention" {
			return true
		}
		if len(types) == 2 && types[0] == "mention" && types[1] == "mention" {
			return true
		}
		return false
	}
	if excluded := params["exclude_types"]; len(excluded) == len(mentionsExcludeTypes) {
		for i, v := range excluded {
			if v != mentionsExcludeTypes[i] {
				return false
			}
		}
		return len(excluded) > 0
	}
	return false
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	restQuery := restParams()
	pageQueryFrom(params).Inject(restQuery)

	if isMentionsTimelineQuery(params) {
		var tweets []twitter.Tweet
		if err := session.Client().Get(r.Context(), "/1.1/statuses/mentions_timeline.json", restQuery, &tweets); err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		notifications := []*mastodon.Notification{}
		for i := range tweets {
			status := s.tr.Status(&tweets[i])
			if status == nil {
				continue
			}
			notifications = append(notifications, &mastodon.Notification{
				ID:        status.ID,
				Type:      "mention",
				CreatedAt: status.CreatedAt,
				Account:   status.Account,
				Status:    status,
			})
		}
		addPageLinks(w, r.URL, notificationIDs(notifications))
		writeJSON(w, http.StatusOK, notifications)
		return
	}

	restQuery.Set("skip_aggregation", "true")
	var activities []twitter.Activity
	if err := session.Client().Get(r.Context(), "/1.1/activity/about_me.json", restQuery, &activities); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	notifications := []*mastodon.Notification{}
	for i := range activities {
		if note := s.tr.Notification(&activities[i]); note != nil {
			notifications = append(notifications, note)
		}
	}
	addPageLinks(w, r.URL, notificationIDs(notifications))
	writeJSON(w, http.StatusOK, notifications)
}

func notificationIDs(notifications []*mastodon.Notification) []string {
	ids := make([]string, len(notifications))
	for i, note := range notifications {
		ids[i] = note.ID
	}
	return ids
}

func (s *Server) handleFavourites(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	variables := map[string]any{
		"includeTweetImpression":      true,
		"includeHasBirdwatchNotes":    false,
		"includeEditPerspective":      false,
		"includeEditControl":          true,
		"count":                       parseLimit(params.Get("limit"), 20, 100),
		"rest_id":                     session.UserID(),
		"includeTweetVisibilityNudge": true,
	}
	data, err := session.Client().GetGraphQL(r.Context(), twitter.OpFavoritesTimeline, variables, unifiedCardsFeature)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	statuses := []*mastodon.Status{}
	if data.UserResult != nil && data.UserResult.Result != nil && data.UserResult.Result.TimelineResponse != nil {
		tweets, _ := twitter.TweetsFromInstructions(data.UserResult.Result.TimelineResponse.InstructionList(), false)
		for _, tweet := range tweets {
			if status := s.tr.Status(tweet); status != nil {
				statuses = append(statuses, status)
			}
		}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	variables := map[string]any{
		"includeTweetImpression":      true,
		"includeHasBirdwatchNotes":    false,
		"includeEditPerspective":      false,
		"includeEditControl":          true,
		"count":                       parseLimit(params.Get("limit"), 20, 100),
		"includeTweetVisibilityNudge": true,
	}
	data, err := session.Client().GetGraphQL(r.Context(), twitter.OpBookmarkTimeline, variables, unifiedCardsFeature)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	statuses := []*mastodon.Status{}
	if data.TimelineResponse != nil {
		tweets, _ := twitter.TweetsFromInstructions(data.TimelineResponse.InstructionList(), false)
		for _, tweet := range tweets {
			if status := s.tr.Status(tweet); status != nil {
				statuses = append(statuses, status)
			}
		}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request, session *Session) {
	params := url.Values{"user_id": {session.UserID()}}
	var twitterLists []twitter.TwitterList
	if err := session.Client().Get(r.Context(), "/1.1/lists/list.json", params, &twitterLists); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	lists := []mastodon.List{}
	for _, l := range twitterLists {
		lists = append(lists, mastodon.List{
			ID:            l.IDStr,
			Title:         l.Name,
			RepliesPolicy: "none",
		})
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleListTimeline(w http.ResponseWriter, r *http.Request, session *Session) {
	params := restParams()
	params.Set("list_id", mux.Vars(r)["list_id"])
	pageQueryFrom(requestParams(r)).Inject(params)

	var tweets []twitter.Tweet
	if err := session.Client().Get(r.Context(), "/1.1/lists/statuses.json", params, &tweets); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	statuses := s.translateTweets(tweets)
	addPageLinks(w, r.URL, statusIDs(statuses))
	writeJSON(w, http.StatusOK, statuses)
}

// searchTweets runs a recent-tweet search and translates the page.
func (s *Server) searchTweets(r *http.Request, session *Session, q string, params url.Values) ([]*mastodon.Status, error) {
	searchParams := restParams()
	pageQueryFrom(params).Inject(searchParams)
	searchParams.Set("count", strconv.Itoa(parseLimit(params.Get("limit"), 20, 100)))
	searchParams.Set("q", q)
	searchParams.Set("result_type", "recent")

	var page twitter.SearchPage
	if err := session.Client().Get(r.Context(), "/1.1/search/tweets.json", searchParams, &page); err != nil {
		return nil, err
	}
	return s.translateTweets(page.Statuses), nil
}

func (s *Server) handleTagTimeline(w http.ResponseWriter, r *http.Request, session *Session) {
	statuses, err := s.searchTweets(r, session, "#"+mux.Vars(r)["tag"], requestParams(r))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	addPageLinks(w, r.URL, statusIDs(statuses))
	writeJSON(w, http.StatusOK, statuses)
}

// bridgeStatusURLRe matches a status permalink on this bridge.
var bridgeStatusURLRe = regexp.MustCompile(`^(.+)/@([^/]+)/(\d+)$`)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)

	// Resolution queries turn a pasted bridge permalink back into the
	// status it names.
	if params.Get("limit") == "1" && truthy(params.Get("resolve")) && params.Get("type") == "statuses" {
		m := bridgeStatusURLRe.FindStringSubmatch(params.Get("q"))
		if m == nil || m[1] != s.cfg.Root {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		status, err := s.fetchStatus(r.Context(), session, m[3])
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mastodon.SearchResults{
			Accounts: []*mastodon.Account{},
			Hashtags: []mastodon.Tag{},
			Statuses: []*mastodon.Status{status},
		})
		return
	}

	if params.Get("type") == "statuses" {
		statuses, err := s.searchTweets(r, session, params.Get("q"), params)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		addPageLinks(w, r.URL, statusIDs(statuses))
		writeJSON(w, http.StatusOK, mastodon.SearchResults{
			Accounts: []*mastodon.Account{},
			Hashtags: []mastodon.Tag{},
			Statuses: statuses,
		})
		return
	}

	writeError(w, http.StatusNotFound, "Record not found")
}
