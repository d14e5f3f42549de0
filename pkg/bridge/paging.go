package bridge

import (
	"net/http"
	"net/url"
	"strconv"
)

// PageQuery carries the Mastodon paging parameters of one request.
type PageQuery struct {
	Limit   string
	MaxID   string
	SinceID string
	MinID   string
}

func pageQueryFrom(params url.Values) PageQuery {
	return PageQuery{
		Limit:   params.Get("limit"),
		MaxID:   params.Get("max_id"),
		SinceID: params.Get("since_id"),
		MinID:   params.Get("min_id"),
	}
}

// Inject maps the Mastodon paging parameters onto the legacy REST ones.
// min_id degrades to since_id: the REST API has no "oldest first from
// here" mode, which is what the backfill loop exists to emulate.
func (pq PageQuery) Inject(params url.Values) {
	if pq.Limit != "" {
		params.Set("count", pq.Limit)
	}
	if pq.MaxID != "" {
		params.Set("max_id", pq.MaxID)
	}
	if pq.SinceID != "" {
		params.Set("since_id", pq.SinceID)
	}
	if pq.MinID != "" {
		params.Set("since_id", pq.MinID)
	}
}

// restParams is the stock parameter set for legacy REST tweet endpoints:
// extended tweets with cards, entities and the verification extensions
// the translator reads.
func restParams() url.Values {
	return url.Values{
		"include_cards":                        {"1"},
		"cards_platform":                       {"iPhone-13"},
		"include_entities":                     {"1"},
		"include_user_entities":                {"1"},
		"include_ext_trusted_friends_metadata": {"true"},
		"include_ext_verified_type":            {"true"},
		"include_ext_is_blue_verified":         {"true"},
		"include_ext_vibe":                     {"true"},
		"include_ext_alt_text":                 {"true"},
		"include_composer_source":              {"true"},
		"include_quote_count":                  {"1"},
		"include_reply_count":                  {"1"},
		"tweet_mode":                           {"extended"},
	}
}

// addPageLinks emits the Link header clients page with: rel="prev" asks
// for anything newer than the highest id served, rel="next" for anything
// older than the lowest. Items without numeric ids are ignored; an empty
// page emits no header.
func addPageLinks(w http.ResponseWriter, requestURL *url.URL, ids []string) {
	var lowest, highest uint64
	seen := false
	for _, id := range ids {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		if !seen || n < lowest {
			lowest = n
		}
		if !seen || n > highest {
			highest = n
		}
		seen = true
	}
	if !seen {
		return
	}

	u := *requestURL
	q := u.Query()
	q.Del("min_id")
	q.Del("max_id")
	q.Del("since_id")

	q.Set("min_id", strconv.FormatUint(highest, 10))
	u.RawQuery = q.Encode()
	prevURL := u.String()

	q.Del("min_id")
	q.Set("max_id", strconv.FormatUint(lowest-1, 10))
	u.RawQuery = q.Encode()
	nextURL := u.String()

	w.Header().Set("Link", "<"+prevURL+`>; rel="prev", <`+nextURL+`>; rel="next"`)
}
