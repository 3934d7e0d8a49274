package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RegistrationRepository struct {
	*base.Repository
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{Repository: base.NewRepository(pool)}
}

const registrationColumns = `
	id, user_id, schedule_id, session_id, status, payment_status, payment_link,
	notes, rejection_reason, version, created_at, updated_at
`

// GetByID получает запись по ID
func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*model.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get registration by id: %w", err)
	}
	return reg, nil
}

// List получает страницу всех записей с общим количеством
func (r *RegistrationRepository) List(ctx context.Context, q model.RegistrationQuery) ([]*model.Registration, int, error) {
	page := q.Page.Normalize()

	var total int
	err := r.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE ($1 = '' OR status = $1)`,
		string(q.Status),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	regs, err := r.queryMany(ctx, query, string(q.Status), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

// ListBySchedule получает все записи расписания
func (r *RegistrationRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE schedule_id = $1
		ORDER BY created_at DESC
	`
	return r.queryMany(ctx, query, scheduleID)
}

// ListByUser получает все записи студента
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryMany(ctx, query, userID)
}

// ApprovedCounts считает одобренные записи по сессиям для набора расписаний.
// Результат: schedule_id -> session_id -> count.
func (r *RegistrationRepository) ApprovedCounts(ctx context.Context, scheduleIDs []int64) (map[int64]map[string]int, error) {
	counts := make(map[int64]map[string]int, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return counts, nil
	}

	rows, err := r.Query(ctx, `
		SELECT schedule_id, session_id, COUNT(*)
		FROM registrations
		WHERE schedule_id = ANY($1) AND status = 'approved'
		GROUP BY schedule_id, session_id
	`, scheduleIDs)
	if err != nil {
		return nil, fmt.Errorf("count approved registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID int64
		var sessionID string
		var n int
		if err := rows.Scan(&scheduleID, &sessionID, &n); err != nil {
			return nil, fmt.Errorf("scan approved count: %w", err)
		}
		if counts[scheduleID] == nil {
			counts[scheduleID] = make(map[string]int)
		}
		counts[scheduleID][sessionID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approved counts: %w", err)
	}
	return counts, nil
}

// UpdateStatus обновляет статус с проверкой версии.
// Переход разрешён только из pending, это проверяется и в запросе.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, reg *model.Registration, expectedVersion int) error {
	query := `
		UPDATE registrations
		SET status = $1, notes = $2, rejection_reason = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND status = 'pending' AND ($5 = 0 OR version = $5)
		RETURNING version, updated_at
	`

	err := r.QueryRow(ctx, query,
		reg.Status,
		reg.Notes,
		reg.RejectionReason,
		reg.ID,
		expectedVersion,
	).Scan(&reg.Version, &reg.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return r.conflictOrMissing(ctx, reg.ID)
		}
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// UpdatePayment обновляет статус оплаты и ссылку
func (r *RegistrationRepository) UpdatePayment(ctx context.Context, reg *model.Registration, expectedVersion int) error {
	query := `
		UPDATE registrations
		SET payment_status = $1, payment_link = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND status = 'approved' AND payment_status IN ('unpaid', 'pending')
		  AND ($4 = 0 OR version = $4)
		RETURNING version, updated_at
	`

	err := r.QueryRow(ctx, query,
		reg.PaymentStatus,
		reg.PaymentLink,
		reg.ID,
		expectedVersion,
	).Scan(&reg.Version, &reg.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return r.conflictOrMissing(ctx, reg.ID)
		}
		return fmt.Errorf("update registration payment: %w", err)
	}
	return nil
}

// conflictOrMissing различает отсутствующую запись и конкурентное изменение
func (r *RegistrationRepository) conflictOrMissing(ctx context.Context, id int64) error {
	var exists bool
	if err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check registration exists: %w", err)
	}
	if exists {
		return model.ErrVersionConflict
	}
	return model.ErrRegistrationNotFound
}

func (r *RegistrationRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*model.Registration, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get registrations: %w", err)
	}
	defer rows.Close()

	var regs []*model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return regs, nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.ScheduleID,
		&reg.SessionID,
		&reg.Status,
		&reg.PaymentStatus,
		&reg.PaymentLink,
		&reg.Notes,
		&reg.RejectionReason,
		&reg.Version,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}
