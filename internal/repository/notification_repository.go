package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(pool)}
}

// Enqueue добавляет уведомления в outbox
func (r *NotificationRepository) Enqueue(ctx context.Context, notifications ...*model.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, kind, subject, body, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	for _, n := range notifications {
		err := r.QueryRow(ctx, query, n.ID, n.UserID, n.Kind, n.Subject, n.Body, n.State).Scan(&n.CreatedAt)
		if err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
	}
	return nil
}

// FetchPending получает пачку неотправленных уведомлений, старые первыми
func (r *NotificationRepository) FetchPending(ctx context.Context, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, kind, subject, body, state, attempts, last_error, created_at, sent_at
		FROM notifications
		WHERE state = 'pending'
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending notifications: %w", err)
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Kind,
			&n.Subject,
			&n.Body,
			&n.State,
			&n.Attempts,
			&n.LastError,
			&n.CreatedAt,
			&n.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkSent отмечает уведомление отправленным
func (r *NotificationRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `
		UPDATE notifications
		SET state = 'sent', attempts = attempts + 1, last_error = '', sent_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

// MarkFailed увеличивает счётчик попыток; после maxAttempts переводит в failed
func (r *NotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string, maxAttempts int) error {
	affected, err := r.ExecAffected(ctx, `
		UPDATE notifications
		SET attempts = attempts + 1,
		    last_error = $2,
		    state = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
	`, id, lastError, maxAttempts)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}
