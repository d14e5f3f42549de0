package bridge

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/epetousis/BirdBridge/pkg/twitter"
)

// backfillBatchSize is the upstream maximum page size; fetching it saves
// round trips.
const backfillBatchSize = 200

// Backfiller fills the gap between a client's last-read timeline
// position and the present. Clients that refresh with min_id expect
// everything newer, oldest first; the legacy REST API answers since_id
// with the newest page instead, so the gap is walked manually: full
// batches anchored at since_id = lowerBound - 1, moving max_id backwards
// until the lower bound is reached.
type Backfiller struct {
	// MaxPages bounds the walk; a refresh never issues more batches.
	MaxPages int
	// Fetch loads one REST timeline batch.
	Fetch func(ctx context.Context, params url.Values) ([]twitter.Tweet, error)
	Log   zerolog.Logger
}

// Run walks the timeline backwards from the newest tweet until it sees
// lowerBound, a short batch, the page bound, or an upstream error. On
// error the tweets collected so far are returned; a partial fill is
// strictly better than none, and the client repairs the rest on its next
// refresh. base is not mutated.
func (b *Backfiller) Run(ctx context.Context, lowerBound uint64, base url.Values) []twitter.Tweet {
	params := url.Values{}
	for k, vs := range base {
		params[k] = vs
	}
	params.Set("count", strconv.Itoa(backfillBatchSize))
	// Ask for the last-read tweet too so its presence marks completion.
	params.Set("since_id", strconv.FormatUint(lowerBound-1, 10))

	b.Log.Info().Uint64("lower_bound", lowerBound).Msg("Backfilling timeline gap")

	var tweets []twitter.Tweet
	var maxID uint64
	haveMaxID := false

	for page := 0; page < b.MaxPages; page++ {
		if haveMaxID {
			params.Set("max_id", strconv.FormatUint(maxID, 10))
		}

		batch, err := b.Fetch(ctx, params)
		if err != nil {
			b.Log.Error().Err(err).Int("collected", len(tweets)).Msg("Backfill fetch failed, returning partial results")
			return tweets
		}

		for i := range batch {
			tweet := batch[i]
			id, err := strconv.ParseUint(tweet.IDStr, 10, 64)
			if err != nil {
				continue
			}
			if id <= lowerBound {
				// The last-read tweet is in hand, so nothing is missing.
				b.Log.Debug().Msg("Reached last-read tweet, backfill complete")
				return tweets
			}
			if !haveMaxID || id-1 < maxID {
				maxID = id - 1
				haveMaxID = true
			}
			tweets = append(tweets, tweet)
		}

		b.Log.Debug().
			Int("batch", len(batch)).
			Int("total", len(tweets)).
			Uint64("max_id", maxID).
			Msg("Loaded backfill batch")

		// Filtering eats into each page, so a full page rarely comes back
		// with all 200. Anything under three quarters means the end.
		if len(batch) < backfillBatchSize*3/4 {
			return tweets
		}
	}

	b.Log.Warn().Int("collected", len(tweets)).Msg("Backfill hit page bound before reaching last-read tweet")
	return tweets
}
