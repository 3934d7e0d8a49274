package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Add сохраняет студента, id назначается хранилищем
func (r *UserRepository) Add(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user.ID = r.db.nextID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.db.now()
	}
	c := *user
	r.db.users[user.ID] = &c
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *UserRepository) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []int64) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

type TutorRepository struct {
	db *DB
}

func NewTutorRepository(db *DB) *TutorRepository {
	return &TutorRepository{db: db}
}

func (r *TutorRepository) Create(_ context.Context, tutor *model.Tutor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	tutor.ID = r.db.nextID()
	tutor.CreatedAt = r.db.now()
	c := *tutor
	r.db.tutors[tutor.ID] = &c
	return nil
}

func (r *TutorRepository) GetByID(_ context.Context, id int64) (*model.Tutor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if t, ok := r.db.tutors[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r *TutorRepository) GetByIDs(_ context.Context, ids []int64) ([]*model.Tutor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Tutor, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.db.tutors[id]; ok {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *TutorRepository) List(_ context.Context) ([]*model.Tutor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Tutor, 0, len(r.db.tutors))
	for _, t := range r.db.tutors {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type AdminRepository struct {
	db *DB
}

func NewAdminRepository(db *DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, a := range r.db.admins {
		if strings.EqualFold(a.Email, email) {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (r *AdminRepository) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if a, ok := r.db.admins[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (r *AdminRepository) Upsert(_ context.Context, admin *model.Admin) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	admin.Email = strings.ToLower(admin.Email)
	for id, a := range r.db.admins {
		if a.Email == admin.Email {
			admin.ID = id
			admin.CreatedAt = a.CreatedAt
			c := *admin
			r.db.admins[id] = &c
			return nil
		}
	}

	admin.ID = r.db.nextID()
	admin.CreatedAt = r.db.now()
	c := *admin
	r.db.admins[admin.ID] = &c
	return nil
}
