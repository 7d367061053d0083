// Package notifications publishes user-facing activity events over Redis
// pub/sub.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"showcase/internal/middleware"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	EventPostLiked      = "post.liked"
	EventPostCommented  = "post.commented"
	EventCommentReplied = "comment.replied"
	EventReviewReceived = "review.received"
	EventPostModerated  = "post.moderated"
)

const userChannelPrefix = "notifications:user:"

// Event is one notification for a single recipient.
type Event struct {
	Type      string    `json:"type"`
	ActorID   uint      `json:"actor_id,omitempty"`
	SubjectID uint      `json:"subject_id"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// UserChannel returns the channel of one recipient.
func UserChannel(userID uint) string {
	return fmt.Sprintf("%s%d", userChannelPrefix, userID)
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Notify publishes ev to recipientID. Self-notifications are dropped.
func (n *Notifier) Notify(ctx context.Context, recipientID uint, ev Event) error {
	if n == nil || n.rdb == nil || recipientID == 0 || recipientID == ev.ActorID {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(recipientID), payload).Err()
}

// Subscribe delivers every published event to onEvent until ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(recipientID uint, ev Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(ctx, msg, onEvent)
			}
		}
	}()

	return nil
}

func deliver(ctx context.Context, msg *redis.Message, onEvent func(uint, Event)) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.ErrorContext(ctx, "panic in notification subscriber",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	id, err := strconv.ParseUint(strings.TrimPrefix(msg.Channel, userChannelPrefix), 10, 64)
	if err != nil {
		return
	}
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		middleware.Logger.WarnContext(ctx, "dropping malformed notification",
			slog.String("channel", msg.Channel), slog.String("error", err.Error()))
		return
	}
	onEvent(uint(id), ev)
}
