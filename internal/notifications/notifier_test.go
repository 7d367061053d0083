package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.Notify(context.Background(), 1, Event{Type: EventPostLiked}))
	assert.NoError(t, n.Subscribe(context.Background(), func(uint, Event) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))
	assert.Equal(t, "notifications:user:100", UserChannel(100))
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNotifier_DeliversToRecipient(t *testing.T) {
	_, rdb := setupRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type delivery struct {
		to uint
		ev Event
	}
	got := make(chan delivery, 4)
	require.NoError(t, n.Subscribe(ctx, func(to uint, ev Event) {
		got <- delivery{to, ev}
	}))

	require.NoError(t, n.Notify(context.Background(), 7, Event{Type: EventPostLiked, ActorID: 3, SubjectID: 42}))

	select {
	case d := <-got:
		assert.Equal(t, uint(7), d.to)
		assert.Equal(t, EventPostLiked, d.ev.Type)
		assert.Equal(t, uint(42), d.ev.SubjectID)
		assert.False(t, d.ev.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNotifier_SkipsSelfNotification(t *testing.T) {
	_, rdb := setupRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Event, 1)
	require.NoError(t, n.Subscribe(ctx, func(_ uint, ev Event) { got <- ev }))

	require.NoError(t, n.Notify(context.Background(), 3, Event{Type: EventPostLiked, ActorID: 3}))
	assert.Never(t, func() bool { return len(got) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
}
