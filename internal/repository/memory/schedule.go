package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/google/uuid"
)

type ScheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(_ context.Context, schedule *model.Schedule, textKey string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, s := range r.db.schedules {
		if s.Slug == schedule.Slug {
			return model.ErrDuplicateSchedule
		}
	}
	for _, sess := range schedule.Sessions {
		if _, ok := r.db.tutors[sess.TutorID]; !ok {
			return model.ErrTutorNotFound
		}
	}

	now := r.db.now()
	schedule.ID = r.db.nextID()
	schedule.Version = 1
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	assignSessionIDs(schedule)

	r.db.schedules[schedule.ID] = copySchedule(schedule)
	r.db.textKeys[schedule.ID] = textKey
	return nil
}

func (r *ScheduleRepository) Update(_ context.Context, schedule *model.Schedule, textKey string, expectedVersion int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.schedules[schedule.ID]
	if !ok {
		return model.ErrScheduleNotFound
	}
	if expectedVersion != 0 && stored.Version != expectedVersion {
		return model.ErrVersionConflict
	}

	schedule.Slug = stored.Slug
	schedule.CreatedAt = stored.CreatedAt
	schedule.Version = stored.Version + 1
	schedule.UpdatedAt = r.db.now()
	assignSessionIDs(schedule)

	r.db.schedules[schedule.ID] = copySchedule(schedule)
	r.db.textKeys[schedule.ID] = textKey
	return nil
}

func assignSessionIDs(schedule *model.Schedule) {
	for i := range schedule.Sessions {
		if schedule.Sessions[i].ID == "" {
			schedule.Sessions[i].ID = uuid.NewString()
		}
	}
}

func (r *ScheduleRepository) GetBySlug(_ context.Context, slug string) (*model.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.schedules {
		if s.Slug == slug {
			return copySchedule(s), nil
		}
	}
	return nil, nil
}

func (r *ScheduleRepository) GetByID(_ context.Context, id int64) (*model.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.schedules[id]; ok {
		return copySchedule(s), nil
	}
	return nil, nil
}

func (r *ScheduleRepository) List(_ context.Context, q model.ScheduleQuery) ([]*model.Schedule, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var matched []*model.Schedule
	for _, s := range r.db.schedules {
		if q.Status != "" && s.Status != q.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Title), search) && !strings.Contains(strings.ToLower(s.Text), search) {
			continue
		}
		matched = append(matched, copySchedule(s))
	}
	sortSchedules(matched)

	page := q.Page.Normalize()
	total := len(matched)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *ScheduleRepository) ListByTutor(_ context.Context, tutorID int64) ([]*model.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Schedule
	for _, s := range r.db.schedules {
		if s.HasTutor(tutorID) {
			out = append(out, copySchedule(s))
		}
	}
	sortSchedules(out)
	return out, nil
}

// sortSchedules - новые первыми, при равном времени по убыванию id
func sortSchedules(s []*model.Schedule) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].ID > s[j].ID
		}
		return s[i].CreatedAt.After(s[j].CreatedAt)
	})
}

func (r *ScheduleRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.schedules {
		if s.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *ScheduleRepository) FindByTextKey(_ context.Context, textKey, excludeSlug string) (*model.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for id, key := range r.db.textKeys {
		s := r.db.schedules[id]
		if key == textKey && s.Slug != excludeSlug {
			return copySchedule(s), nil
		}
	}
	return nil, nil
}

// DeleteCascade проверяет активные записи и удаляет под одной блокировкой
func (r *ScheduleRepository) DeleteCascade(_ context.Context, scheduleID int64, force bool) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.schedules[scheduleID]; !ok {
		return nil, model.ErrScheduleNotFound
	}

	if !force {
		active := 0
		for _, reg := range r.db.registrations {
			if reg.ScheduleID == scheduleID && isActive(reg) {
				active++
			}
		}
		if active > 0 {
			return nil, &model.RegistrationsConflictError{Count: active}
		}
	}

	seen := make(map[int64]struct{})
	var userIDs []int64
	for id, reg := range r.db.registrations {
		if reg.ScheduleID != scheduleID {
			continue
		}
		if isActive(reg) {
			if _, ok := seen[reg.UserID]; !ok {
				seen[reg.UserID] = struct{}{}
				userIDs = append(userIDs, reg.UserID)
			}
		}
		delete(r.db.registrations, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	delete(r.db.schedules, scheduleID)
	delete(r.db.textKeys, scheduleID)
	return userIDs, nil
}
