package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn func(context.Context, *models.Notification) error
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}

func TestSink_Record_PersistsAndPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	var stored *models.Notification
	repo := &notificationRepoStub{createFn: func(_ context.Context, n *models.Notification) error {
		n.CreatedAt = time.Now()
		stored = n
		return nil
	}}
	sink := NewSink(repo, NewNotifier(rdb))

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel(2))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, sink.Record(ctx, 1, 2, models.NotificationTypeLike))

	require.NotNil(t, stored)
	assert.Equal(t, uint(1), stored.FromUserID)
	assert.Equal(t, uint(2), stored.ToUserID)
	assert.Equal(t, models.NotificationTypeLike, stored.Type)

	select {
	case msg := <-sub.Channel():
		var payload struct {
			FromUserID uint   `json:"from_user_id"`
			ToUserID   uint   `json:"to_user_id"`
			Type       string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
		assert.Equal(t, uint(1), payload.FromUserID)
		assert.Equal(t, uint(2), payload.ToUserID)
		assert.Equal(t, models.NotificationTypeLike, payload.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published notification")
	}
}

func TestSink_Record_RepoFailureSurfaces(t *testing.T) {
	repo := &notificationRepoStub{createFn: func(_ context.Context, _ *models.Notification) error {
		return models.NewInternalError(errors.New("db down"))
	}}
	sink := NewSink(repo, NewNotifier(nil))

	err := sink.Record(context.Background(), 1, 2, models.NotificationTypeLike)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
}

func TestSink_Record_NilRedisStillPersists(t *testing.T) {
	stored := false
	repo := &notificationRepoStub{createFn: func(_ context.Context, _ *models.Notification) error {
		stored = true
		return nil
	}}
	sink := NewSink(repo, NewNotifier(nil))

	require.NoError(t, sink.Record(context.Background(), 1, 2, models.NotificationTypeLike))
	assert.True(t, stored)
}

func TestNotifier_UserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:42", UserChannel(42))
}

func TestNotifier_PatternSubscriberReceives(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	notifier := NewNotifier(rdb)
	received := make(chan string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		received <- channel + "|" + payload
	}))
	// Give the pattern subscription a moment to establish.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, notifier.PublishUser(ctx, 7, "ping"))

	select {
	case got := <-received:
		assert.Equal(t, UserChannel(7)+"|ping", got)
	case <-time.After(2 * time.Second):
		t.Fatal("pattern subscriber never received the message")
	}
}
