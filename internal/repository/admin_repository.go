package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepository struct {
	*base.Repository
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{Repository: base.NewRepository(pool)}
}

const adminColumns = `id, email, full_name, password_hash, role, tutor_id, created_at`

// GetByEmail получает учётную запись по email
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE LOWER(email) = LOWER($1)`, email)
}

// GetByID получает учётную запись по ID
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

func (r *AdminRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Admin, error) {
	var a model.Admin
	err := r.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Email,
		&a.FullName,
		&a.PasswordHash,
		&a.Role,
		&a.TutorID,
		&a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

// Upsert создаёт учётную запись или обновляет существующую с тем же email
func (r *AdminRepository) Upsert(ctx context.Context, admin *model.Admin) error {
	query := `
		INSERT INTO admins (email, full_name, password_hash, role, tutor_id)
		VALUES (LOWER($1), $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    password_hash = EXCLUDED.password_hash,
		    role = EXCLUDED.role,
		    tutor_id = EXCLUDED.tutor_id
		RETURNING id, email, created_at
	`

	err := r.QueryRow(ctx, query,
		admin.Email,
		admin.FullName,
		admin.PasswordHash,
		admin.Role,
		admin.TutorID,
	).Scan(&admin.ID, &admin.Email, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	return nil
}
