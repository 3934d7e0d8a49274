package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository struct {
	*base.Repository
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{Repository: base.NewRepository(pool)}
}

const scheduleColumns = `id, slug, title, text, price, status, images, version, created_at, updated_at`

// Create создаёт расписание вместе с сессиями
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule, textKey string) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO schedules (slug, title, text, text_key, price, status, images)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, version, created_at, updated_at
		`

		err := tx.QueryRow(
			ctx, query,
			schedule.Slug,
			schedule.Title,
			schedule.Text,
			textKey,
			schedule.Price,
			schedule.Status,
			nonNilStrings(schedule.Images),
		).Scan(&schedule.ID, &schedule.Version, &schedule.CreatedAt, &schedule.UpdatedAt)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return model.ErrDuplicateSchedule
			}
			return fmt.Errorf("create schedule: %w", err)
		}

		return insertSessions(ctx, tx, schedule)
	})
}

// Update обновляет расписание и заменяет его сессии.
// expectedVersion = 0 отключает проверку версии.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.Schedule, textKey string, expectedVersion int) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE schedules
			SET title = $1, text = $2, text_key = $3, price = $4, status = $5, images = $6,
			    version = version + 1, updated_at = NOW()
			WHERE id = $7 AND ($8 = 0 OR version = $8)
			RETURNING version, updated_at
		`

		err := tx.QueryRow(
			ctx, query,
			schedule.Title,
			schedule.Text,
			textKey,
			schedule.Price,
			schedule.Status,
			nonNilStrings(schedule.Images),
			schedule.ID,
			expectedVersion,
		).Scan(&schedule.Version, &schedule.UpdatedAt)
		if err != nil {
			if base.IsNotFound(err) {
				var exists bool
				if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schedules WHERE id = $1)`, schedule.ID).Scan(&exists); err != nil {
					return fmt.Errorf("check schedule exists: %w", err)
				}
				if exists {
					return model.ErrVersionConflict
				}
				return model.ErrScheduleNotFound
			}
			return fmt.Errorf("update schedule: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM schedule_sessions WHERE schedule_id = $1`, schedule.ID); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}

		return insertSessions(ctx, tx, schedule)
	})
}

func insertSessions(ctx context.Context, tx pgx.Tx, schedule *model.Schedule) error {
	query := `
		INSERT INTO schedule_sessions (id, schedule_id, position, start_date, end_date, time, period, capacity, tutor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i := range schedule.Sessions {
		sess := &schedule.Sessions[i]
		if sess.ID == "" {
			sess.ID = uuid.NewString()
		}

		_, err := tx.Exec(ctx, query,
			sess.ID,
			schedule.ID,
			i,
			sess.StartDate,
			sess.EndDate,
			sess.Time,
			sess.Period,
			sess.Capacity,
			sess.TutorID,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}
	return nil
}

// GetBySlug получает расписание по slug
func (r *ScheduleRepository) GetBySlug(ctx context.Context, slug string) (*model.Schedule, error) {
	return r.getOne(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE slug = $1`, slug)
}

// GetByID получает расписание по ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	return r.getOne(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
}

func (r *ScheduleRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Schedule, error) {
	schedule, err := scanSchedule(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	if err := r.loadSessions(ctx, []*model.Schedule{schedule}); err != nil {
		return nil, err
	}
	return schedule, nil
}

// List получает страницу расписаний и общее количество
func (r *ScheduleRepository) List(ctx context.Context, q model.ScheduleQuery) ([]*model.Schedule, int, error) {
	page := q.Page.Normalize()

	where := []string{"TRUE"}
	args := []interface{}{}
	if q.Search != "" {
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(text) LIKE $%d)", len(args), len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM schedules WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		scheduleColumns, cond, len(args)-1, len(args))

	schedules, err := r.queryMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

// ListByTutor получает расписания, где тьютор ведёт хотя бы одну сессию
func (r *ScheduleRepository) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE id IN (SELECT schedule_id FROM schedule_sessions WHERE tutor_id = $1)
		ORDER BY created_at DESC
	`
	return r.queryMany(ctx, query, tutorID)
}

func (r *ScheduleRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*model.Schedule, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	if err := r.loadSessions(ctx, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// loadSessions подгружает сессии одним запросом для всех расписаний
func (r *ScheduleRepository) loadSessions(ctx context.Context, schedules []*model.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Schedule, len(schedules))
	ids := make([]int64, 0, len(schedules))
	for _, s := range schedules {
		s.Sessions = []model.Session{}
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	query := `
		SELECT schedule_id, id, start_date, end_date, time, period, capacity, tutor_id
		FROM schedule_sessions
		WHERE schedule_id = ANY($1)
		ORDER BY schedule_id, position
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("get sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID int64
		var sess model.Session
		if err := rows.Scan(
			&scheduleID,
			&sess.ID,
			&sess.StartDate,
			&sess.EndDate,
			&sess.Time,
			&sess.Period,
			&sess.Capacity,
			&sess.TutorID,
		); err != nil {
			return fmt.Errorf("scan session: %w", err)
		}
		byID[scheduleID].Sessions = append(byID[scheduleID].Sessions, sess)
	}
	return rows.Err()
}

// SlugExists проверяет занят ли slug
func (r *ScheduleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schedules WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

// FindByTextKey ищет расписание с тем же нормализованным текстом, исключая excludeSlug
func (r *ScheduleRepository) FindByTextKey(ctx context.Context, textKey, excludeSlug string) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE text_key = $1 AND slug <> $2 LIMIT 1`

	schedule, err := scanSchedule(r.QueryRow(ctx, query, textKey, excludeSlug))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule by text: %w", err)
	}
	return schedule, nil
}

// DeleteCascade удаляет расписание, его сессии и записи.
// Строка расписания блокируется до подсчёта активных записей, поэтому новая запись
// не может появиться между проверкой и удалением. Без force при активных записях
// возвращает *model.RegistrationsConflictError и ничего не удаляет.
// Возвращает id пользователей с активными записями.
func (r *ScheduleRepository) DeleteCascade(ctx context.Context, scheduleID int64, force bool) ([]int64, error) {
	var userIDs []int64

	err := r.InTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM schedules WHERE id = $1 FOR UPDATE`, scheduleID).Scan(&id)
		if err != nil {
			if base.IsNotFound(err) {
				return model.ErrScheduleNotFound
			}
			return fmt.Errorf("lock schedule: %w", err)
		}

		var active int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM registrations
			WHERE schedule_id = $1 AND status IN ('pending', 'approved')
		`, scheduleID).Scan(&active)
		if err != nil {
			return fmt.Errorf("count active registrations: %w", err)
		}
		if active > 0 && !force {
			return &model.RegistrationsConflictError{Count: active}
		}

		rows, err := tx.Query(ctx, `
			SELECT DISTINCT user_id FROM registrations
			WHERE schedule_id = $1 AND status IN ('pending', 'approved')
			ORDER BY user_id
		`, scheduleID)
		if err != nil {
			return fmt.Errorf("get affected users: %w", err)
		}
		userIDs, err = pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("scan affected users: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM registrations WHERE schedule_id = $1`, scheduleID); err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, scheduleID); err != nil {
			return fmt.Errorf("delete schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return userIDs, nil
}

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(
		&s.ID,
		&s.Slug,
		&s.Title,
		&s.Text,
		&s.Price,
		&s.Status,
		&s.Images,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
