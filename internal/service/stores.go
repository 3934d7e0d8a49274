package service

import (
	"context"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/google/uuid"
)

// Контракты хранилища. Реализуются repository (PostgreSQL) и repository/memory.

type ScheduleStore interface {
	Create(ctx context.Context, schedule *model.Schedule, textKey string) error
	Update(ctx context.Context, schedule *model.Schedule, textKey string, expectedVersion int) error
	GetBySlug(ctx context.Context, slug string) (*model.Schedule, error)
	GetByID(ctx context.Context, id int64) (*model.Schedule, error)
	List(ctx context.Context, q model.ScheduleQuery) ([]*model.Schedule, int, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]*model.Schedule, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindByTextKey(ctx context.Context, textKey, excludeSlug string) (*model.Schedule, error)
	// DeleteCascade без force возвращает *model.RegistrationsConflictError при активных записях
	DeleteCascade(ctx context.Context, scheduleID int64, force bool) ([]int64, error)
}

type RegistrationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Registration, error)
	List(ctx context.Context, q model.RegistrationQuery) ([]*model.Registration, int, error)
	ListBySchedule(ctx context.Context, scheduleID int64) ([]*model.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Registration, error)
	ApprovedCounts(ctx context.Context, scheduleIDs []int64) (map[int64]map[string]int, error)
	UpdateStatus(ctx context.Context, reg *model.Registration, expectedVersion int) error
	UpdatePayment(ctx context.Context, reg *model.Registration, expectedVersion int) error
}

type TutorStore interface {
	Create(ctx context.Context, tutor *model.Tutor) error
	GetByID(ctx context.Context, id int64) (*model.Tutor, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Tutor, error)
	List(ctx context.Context) ([]*model.Tutor, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
}

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
	Upsert(ctx context.Context, admin *model.Admin) error
}

type NotificationStore interface {
	Enqueue(ctx context.Context, notifications ...*model.Notification) error
	FetchPending(ctx context.Context, limit int) ([]*model.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string, maxAttempts int) error
}

// PrincipalCache - необязательный кэш аутентифицированных пользователей
type PrincipalCache interface {
	Get(ctx context.Context, adminID int64) (*model.Principal, error)
	Set(ctx context.Context, p *model.Principal) error
	Delete(ctx context.Context, adminID int64) error
}
