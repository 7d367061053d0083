package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"showcase/internal/middleware"
)

const (
	feedVersionKey  = "feed:version"
	feedKeyFormat   = "feed:v%d:%s:p%d:l%d"
	ratingKeyFormat = "rating:%d"
)

const (
	FeedTTL   = 30 * time.Second
	RatingTTL = 5 * time.Minute
)

// FeedVersion returns the current anonymous-feed generation. Zero when the
// cache is unavailable.
func FeedVersion(ctx context.Context) int64 {
	rdb := GetClient()
	if rdb == nil {
		return 0
	}
	v, err := rdb.Get(ctx, feedVersionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// FeedKey names one cached anonymous feed page. Bumping the version orphans
// every older page, which then expires on its TTL.
func FeedKey(ctx context.Context, feed string, page, limit int) string {
	return fmt.Sprintf(feedKeyFormat, FeedVersion(ctx), feed, page, limit)
}

// InvalidateFeeds moves every anonymous feed to a new generation.
func InvalidateFeeds(ctx context.Context) {
	rdb := GetClient()
	if rdb == nil {
		return
	}
	if err := rdb.Incr(ctx, feedVersionKey).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "feed cache invalidation failed", slog.String("error", err.Error()))
	}
}

func RatingKey(userID uint) string {
	return fmt.Sprintf(ratingKeyFormat, userID)
}

func Invalidate(ctx context.Context, key string) {
	if rdb := GetClient(); rdb != nil {
		rdb.Del(ctx, key)
	}
}

func InvalidateRating(ctx context.Context, userID uint) {
	Invalidate(ctx, RatingKey(userID))
}
