package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/google/uuid"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Enqueue(_ context.Context, notifications ...*model.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, n := range notifications {
		n.CreatedAt = r.db.now()
		c := *n
		r.db.notifications = append(r.db.notifications, &c)
	}
	return nil
}

func (r *NotificationRepository) FetchPending(_ context.Context, limit int) ([]*model.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Notification
	for _, n := range r.db.notifications {
		if len(out) == limit {
			break
		}
		if n.State == model.NotificationStatePending {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *NotificationRepository) MarkSent(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, err := r.find(id)
	if err != nil {
		return err
	}
	now := r.db.now()
	n.State = model.NotificationStateSent
	n.Attempts++
	n.LastError = ""
	n.SentAt = &now
	return nil
}

func (r *NotificationRepository) MarkFailed(_ context.Context, id uuid.UUID, lastError string, maxAttempts int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, err := r.find(id)
	if err != nil {
		return err
	}
	n.Attempts++
	n.LastError = lastError
	if n.Attempts >= maxAttempts {
		n.State = model.NotificationStateFailed
	}
	return nil
}

// All возвращает копию outbox в порядке добавления
func (r *NotificationRepository) All() []*model.Notification {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Notification, 0, len(r.db.notifications))
	for _, n := range r.db.notifications {
		c := *n
		out = append(out, &c)
	}
	return out
}

func (r *NotificationRepository) find(id uuid.UUID) (*model.Notification, error) {
	for _, n := range r.db.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("notification not found")
}
