package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"go.uber.org/zap"
)

type NotificationService struct {
	repo        NotificationStore
	users       UserStore
	notifier    notify.Notifier
	batchSize   int
	maxAttempts int
	logger      *zap.Logger
}

func NewNotificationService(
	repo NotificationStore,
	users UserStore,
	notifier notify.Notifier,
	batchSize int,
	maxAttempts int,
	logger *zap.Logger,
) *NotificationService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &NotificationService{
		repo:        repo,
		users:       users,
		notifier:    notifier,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Enqueue кладёт одно и то же уведомление в outbox для каждого пользователя
func (s *NotificationService) Enqueue(ctx context.Context, userIDs []int64, kind model.NotificationKind, subject, body string) error {
	if len(userIDs) == 0 {
		return nil
	}

	notifications := make([]*model.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, model.NewNotification(id, kind, subject, body))
	}

	if err := s.repo.Enqueue(ctx, notifications...); err != nil {
		return fmt.Errorf("enqueue notifications: %w", err)
	}

	s.logger.Debug("Notifications enqueued",
		zap.String("kind", string(kind)),
		zap.Int("count", len(notifications)))
	return nil
}

// DispatchPending отправляет одну пачку уведомлений. Возвращает число отправленных.
func (s *NotificationService) DispatchPending(ctx context.Context) (int, error) {
	pending, err := s.repo.FetchPending(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}

	sent := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		user, err := s.users.GetByID(ctx, n.UserID)
		if err != nil {
			return sent, fmt.Errorf("get user: %w", err)
		}

		// Пользователя нет - повторять бессмысленно
		if user == nil {
			if err := s.repo.MarkFailed(ctx, n.ID, model.ErrUserNotFound.Error(), 1); err != nil {
				return sent, fmt.Errorf("mark failed: %w", err)
			}
			continue
		}

		to := notify.Recipient{
			UserID:     user.ID,
			Name:       user.FullName,
			Email:      user.Email,
			TelegramID: user.TelegramID,
		}

		if err := s.notifier.Notify(ctx, to, notify.Message{Subject: n.Subject, Body: n.Body}); err != nil {
			s.logger.Warn("Failed to deliver notification",
				zap.String("notification_id", n.ID.String()),
				zap.Int64("user_id", n.UserID),
				zap.Int("attempt", n.Attempts+1),
				zap.Error(err))

			if err := s.repo.MarkFailed(ctx, n.ID, err.Error(), s.maxAttempts); err != nil {
				return sent, fmt.Errorf("mark failed: %w", err)
			}
			continue
		}

		if err := s.repo.MarkSent(ctx, n.ID); err != nil {
			return sent, fmt.Errorf("mark sent: %w", err)
		}
		sent++
	}

	return sent, nil
}
