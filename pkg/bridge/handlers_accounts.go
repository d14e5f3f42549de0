package bridge

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/epetousis/BirdBridge/pkg/mastodon"
	"github.com/epetousis/BirdBridge/pkg/twitter"
)

func (s *Server) handleVerifyCredentials(w http.ResponseWriter, r *http.Request, session *Session) {
	var user twitter.User
	if err := session.Client().Get(r.Context(), "/1.1/account/verify_credentials.json", nil, &user); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	account := s.tr.Account(&user)
	if account == nil {
		writeError(w, http.StatusInternalServerError, "Upstream returned no user")
		return
	}

	privacy := "public"
	if user.Protected {
		privacy = "private"
	}
	account.Source = &mastodon.AccountSource{
		Privacy:  privacy,
		Note:     user.Description,
		Language: "en",
		Fields:   []mastodon.Field{},
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request, session *Session) {
	user, err := session.User(r.Context(), mux.Vars(r)["id"], s.log)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tr.Account(user))
}

// accountStatusesEndpoint scopes this handler's cursor cache entries.
const accountStatusesEndpoint = "statuses"

func (s *Server) handleAccountStatuses(w http.ResponseWriter, r *http.Request, session *Session) {
	id := mux.Vars(r)["id"]
	params := requestParams(r)
	pq := pageQueryFrom(params)
	pinned := truthy(params.Get("pinned"))

	// Older pages are only reachable through the cursor left behind by
	// the previous page; without one there is nothing older to serve.
	cursor, haveCursor := session.Cursor(accountStatusesEndpoint, id)
	if pq.MaxID != "" && !haveCursor {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	op := twitter.OpProfileTweetsReplies
	if truthy(params.Get("exclude_replies")) {
		op = twitter.OpProfileTweets
	}

	variables := map[string]any{
		"includeTweetImpression":      true,
		"includeHasBirdwatchNotes":    false,
		"includeEditPerspective":      false,
		"includeEditControl":          true,
		"count":                       parseLimit(pq.Limit, 20, 100),
		"rest_id":                     id,
		"includeTweetVisibilityNudge": true,
		"autoplay_enabled":            true,
	}
	if pq.MaxID != "" && !pinned {
		variables["cursor"] = cursor
	}

	data, err := session.Client().GetGraphQL(r.Context(), op, variables, unifiedCardsFeature)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	if data.UserResult == nil || data.UserResult.Result == nil || data.UserResult.Result.TimelineResponse == nil {
		// No timeline in the result, possibly due to being blocked.
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	tweets, nextCursor := twitter.TweetsFromInstructions(data.UserResult.Result.TimelineResponse.InstructionList(), pinned)
	session.SetCursor(accountStatusesEndpoint, id, nextCursor)

	excludeReblogs := truthy(params.Get("exclude_reblogs"))
	statuses := []*mastodon.Status{}
	for _, tweet := range tweets {
		status := s.tr.Status(tweet)
		if status == nil || (excludeReblogs && status.Reblog != nil) {
			continue
		}
		statuses = append(statuses, status)
	}

	// Serving the same tweets twice confuses paging clients, so clamp the
	// page to the requested id window.
	if pq.MaxID != "" {
		if maxID, err := strconv.ParseUint(pq.MaxID, 10, 64); err == nil {
			statuses = filterStatuses(statuses, func(n uint64) bool { return n <= maxID })
		}
	}
	if pq.MinID != "" {
		if minID, err := strconv.ParseUint(pq.MinID, 10, 64); err == nil {
			statuses = filterStatuses(statuses, func(n uint64) bool { return n >= minID })
		}
	}

	addPageLinks(w, r.URL, statusIDs(statuses))
	if s.cfg.PaginationSafetyBufferMS > 0 {
		s.log.Debug().Int("ms", s.cfg.PaginationSafetyBufferMS).Msg("Delaying paginated response")
		time.Sleep(time.Duration(s.cfg.PaginationSafetyBufferMS) * time.Millisecond)
	}
	writeJSON(w, http.StatusOK, statuses)
}

func filterStatuses(statuses []*mastodon.Status, keep func(uint64) bool) []*mastodon.Status {
	out := statuses[:0]
	for _, status := range statuses {
		n, err := strconv.ParseUint(status.ID, 10, 64)
		if err != nil || keep(n) {
			out = append(out, status)
		}
	}
	return out
}

func statusIDs(statuses []*mastodon.Status) []string {
	ids := make([]string, len(statuses))
	for i, status := range statuses {
		ids[i] = status.ID
	}
	return ids
}

// userListHandler serves followers/following, which differ only in the
// REST path.
func (s *Server) userListHandler(w http.ResponseWriter, r *http.Request, session *Session, path string) {
	params := restParams()
	params.Set("user_id", mux.Vars(r)["id"])
	if limit := requestParams(r).Get("limit"); limit != "" {
		params.Set("count", limit)
	}
	var page twitter.UserListPage
	if err := session.Client().Get(r.Context(), path, params, &page); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	accounts := []*mastodon.Account{}
	for _, user := range page.Users {
		if account := s.tr.Account(user); account != nil {
			accounts = append(accounts, account)
		}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request, session *Session) {
	s.userListHandler(w, r, session, "/1.1/followers/list.json")
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request, session *Session) {
	s.userListHandler(w, r, session, "/1.1/friends/list.json")
}

func (s *Server) followAction(w http.ResponseWriter, r *http.Request, session *Session, path string, following bool) {
	params := restParams()
	params.Set("user_id", mux.Vars(r)["id"])
	var user twitter.User
	if err := session.Client().PostForm(r.Context(), path, params, &user); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        params.Get("user_id"),
		"following": following,
	})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request, session *Session) {
	s.followAction(w, r, session, "/1.1/friendships/create.json", true)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request, session *Session) {
	s.followAction(w, r, session, "/1.1/friendships/destroy.json", false)
}

// blockAction runs blocks/create or blocks/destroy and answers with a
// relationship built from the returned user. The upstream API omits
// relationship fields that are false, so absent reads as false here.
func (s *Server) blockAction(w http.ResponseWriter, r *http.Request, session *Session, path string, blocking bool) {
	id := mux.Vars(r)["id"]
	params := url.Values{"user_id": {id}}
	var user twitter.User
	if err := session.Client().PostForm(r.Context(), path, params, &user); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	rel := relationshipFrom(id, &user)
	rel.Blocking = blocking
	writeJSON(w, http.StatusOK, rel)
}

func relationshipFrom(id string, user *twitter.User) *mastodon.Relationship {
	return &mastodon.Relationship{
		ID:             id,
		Following:      user.Following,
		ShowingReblogs: user.WantRetweets,
		Notifying:      user.Notifications,
		FollowedBy:     user.FollowedBy,
		Blocking:       user.Blocking,
		BlockedBy:      user.BlockedBy,
		Muting:         user.Muting,
		Requested:      user.FollowRequestSent,
	}
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request, session *Session) {
	s.blockAction(w, r, session, "/1.1/blocks/create.json", true)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request, session *Session) {
	s.blockAction(w, r, session, "/1.1/blocks/destroy.json", false)
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request, session *Session) {
	variables := map[string]any{
		"include_smart_block":         false,
		"includeTweetImpression":      true,
		"includeHasBirdwatchNotes":    false,
		"includeEditPerspective":      false,
		"includeEditControl":          true,
		"rest_id":                     session.UserID(),
		"includeTweetVisibilityNudge": true,
	}
	data, err := session.Client().GetGraphQL(r.Context(), twitter.OpBlockingTimeline, variables, nil)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	accounts := []*mastodon.Account{}
	if data.Viewer != nil {
		for _, user := range twitter.UsersFromInstructions(data.Viewer.TimelineResponse.InstructionList()) {
			if account := s.tr.Account(user); account != nil {
				accounts = append(accounts, account)
			}
		}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	ids := params["id"]
	if len(ids) > 1 {
		s.log.Warn().Int("count", len(ids)).Msg("Relationships query with multiple ids")
	}

	results := []*mastodon.Relationship{}
	for _, id := range ids {
		user, err := session.User(r.Context(), id, s.log)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		results = append(results, relationshipFrom(user.IDStr, user))
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleFamiliarFollowers(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	variables := map[string]any{
		"include_smart_block":         false,
		"includeTweetImpression":      true,
		"includeHasBirdwatchNotes":    false,
		"includeEditPerspective":      false,
		"includeEditControl":          true,
		"rest_id":                     params.Get("id"),
		"count":                       parseLimit(params.Get("limit"), 20, 100),
		"includeTweetVisibilityNudge": true,
	}
	data, err := session.Client().GetGraphQL(r.Context(), twitter.OpFamiliarFollowers, variables, unifiedCardsFeature)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	accounts := []*mastodon.Account{}
	if data.User != nil {
		for _, user := range twitter.UsersFromInstructions(data.User.TimelineResponse.InstructionList()) {
			if account := s.tr.Account(user); account != nil {
				accounts = append(accounts, account)
			}
		}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// localHandleRe matches "user@domain" account queries.
var localHandleRe = regexp.MustCompile(`^([^@]+)@([^@]+)$`)

func (s *Server) handleAccountSearch(w http.ResponseWriter, r *http.Request, session *Session) {
	params := requestParams(r)
	q := params.Get("q")

	// Resolution queries look up one exact handle on this instance.
	if params.Get("limit") == "1" && truthy(params.Get("resolve")) {
		m := localHandleRe.FindStringSubmatch(q)
		if m == nil || m[2] != s.cfg.Domain {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		variables := map[string]any{
			"include_smart_block":           true,
			"includeTweetImpression":        true,
			"includeTranslatableProfile":    true,
			"includeHasBirdwatchNotes":      false,
			"include_tipjar":                true,
			"include_highlights_info":       true,
			"includeEditPerspective":        false,
			"screen_name":                   m[1],
			"include_reply_device_follow":   true,
			"includeEditControl":            true,
			"include_verified_phone_status": false,
		}
		data, err := session.Client().GetGraphQL(r.Context(), twitter.OpUserResultByScreenName, variables, map[string]any{
			"verified_phone_label_enabled": true,
		})
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		if data.UserResult == nil || data.UserResult.Result == nil {
			writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		user, err := twitter.NormalizeUserResult(&data.UserResult.Result.UserResult)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []*mastodon.Account{s.tr.Account(user)})
		return
	}

	// Free-text user search; a trailing @domain would confuse upstream.
	if i := strings.IndexByte(q, '@'); i > 0 {
		q = q[:i]
	}
	searchParams := restParams()
	pageQueryFrom(params).Inject(searchParams)
	searchParams.Set("count", strconv.Itoa(parseLimit(params.Get("limit"), 20, 100)))
	searchParams.Set("q", q)
	searchParams.Set("result_type", "recent")

	var users []*twitter.User
	if err := session.Client().Get(r.Context(), "/1.1/users/search.json", searchParams, &users); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	accounts := []*mastodon.Account{}
	ids := []string{}
	for _, user := range users {
		if account := s.tr.Account(user); account != nil {
			accounts = append(accounts, account)
			ids = append(ids, account.ID)
		}
	}
	addPageLinks(w, r.URL, ids)
	writeJSON(w, http.StatusOK, accounts)
}

func truthy(v string) bool {
	switch v {
	case "", "0", "false":
		return false
	}
	return true
}

func parseLimit(v string, fallback, max int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
