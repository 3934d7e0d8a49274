package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotificationService_Dispatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	userIDs := []int64{env.students[0].ID, env.students[1].ID}
	require.NoError(t, env.notifications.Enqueue(ctx, userIDs, model.NotificationMessage, "Hello", "World"))
	require.NoError(t, env.notifications.Enqueue(ctx, nil, model.NotificationMessage, "Nobody", "Nothing"))

	sent, err := env.notifications.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, env.notifier.messages, 2)

	for _, n := range env.store.Notifications.All() {
		assert.Equal(t, model.NotificationStateSent, n.State)
		assert.Equal(t, 1, n.Attempts)
		assert.NotNil(t, n.SentAt)
	}

	// повторный запуск ничего не отправляет
	sent, err = env.notifications.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestNotificationService_Retries(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	user := &model.User{FullName: "Alice", Email: "alice@example.com"}
	require.NoError(t, store.Users.Add(ctx, user))

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := NewNotificationService(store.Notifications, store.Users, notifier, 10, 2, zap.NewNop())
	require.NoError(t, svc.Enqueue(ctx, []int64{user.ID}, model.NotificationMessage, "Hi", "There"))

	sent, err := svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	n := store.Notifications.All()[0]
	assert.Equal(t, model.NotificationStatePending, n.State)
	assert.Equal(t, 1, n.Attempts)
	assert.Equal(t, "smtp down", n.LastError)

	_, err = svc.DispatchPending(ctx)
	require.NoError(t, err)
	n = store.Notifications.All()[0]
	assert.Equal(t, model.NotificationStateFailed, n.State)
	assert.Equal(t, 2, n.Attempts)
}

func TestNotificationService_UnknownUser(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := NewNotificationService(store.Notifications, store.Users, &recordingNotifier{}, 10, 5, zap.NewNop())
	require.NoError(t, svc.Enqueue(ctx, []int64{404}, model.NotificationMessage, "Hi", "There"))

	sent, err := svc.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, model.NotificationStateFailed, store.Notifications.All()[0].State)
}
