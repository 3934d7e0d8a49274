package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TutorRepository struct {
	*base.Repository
}

func NewTutorRepository(pool *pgxpool.Pool) *TutorRepository {
	return &TutorRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт тьютора
func (r *TutorRepository) Create(ctx context.Context, tutor *model.Tutor) error {
	query := `
		INSERT INTO tutors (name, email, bio, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, tutor.Name, tutor.Email, tutor.Bio, tutor.IsActive).
		Scan(&tutor.ID, &tutor.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tutor: %w", err)
	}
	return nil
}

// GetByID получает тьютора по ID
func (r *TutorRepository) GetByID(ctx context.Context, id int64) (*model.Tutor, error) {
	query := `SELECT id, name, email, bio, is_active, created_at FROM tutors WHERE id = $1`

	tutor, err := scanTutor(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutor by id: %w", err)
	}
	return tutor, nil
}

// GetByIDs получает тьюторов по списку ID
func (r *TutorRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Tutor, error) {
	if len(ids) == 0 {
		return []*model.Tutor{}, nil
	}
	return r.queryMany(ctx,
		`SELECT id, name, email, bio, is_active, created_at FROM tutors WHERE id = ANY($1) ORDER BY id`, ids)
}

// List получает всех тьюторов
func (r *TutorRepository) List(ctx context.Context) ([]*model.Tutor, error) {
	return r.queryMany(ctx, `SELECT id, name, email, bio, is_active, created_at FROM tutors ORDER BY name`)
}

func (r *TutorRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*model.Tutor, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get tutors: %w", err)
	}
	defer rows.Close()

	tutors := []*model.Tutor{}
	for rows.Next() {
		tutor, err := scanTutor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tutor: %w", err)
		}
		tutors = append(tutors, tutor)
	}
	return tutors, rows.Err()
}

func scanTutor(row pgx.Row) (*model.Tutor, error) {
	var t model.Tutor
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Bio, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
