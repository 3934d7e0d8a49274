package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

type RegistrationRepository struct {
	db *DB
}

func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func isActive(reg *model.Registration) bool {
	return reg.Status == model.RegistrationStatusPending || reg.Status == model.RegistrationStatusApproved
}

// Add сохраняет запись как есть. Записи создаются вне админки, поэтому метод нужен для наполнения.
func (r *RegistrationRepository) Add(_ context.Context, reg *model.Registration) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.schedules[reg.ScheduleID]; !ok {
		return model.ErrScheduleNotFound
	}

	now := r.db.now()
	reg.ID = r.db.nextID()
	if reg.Version == 0 {
		reg.Version = 1
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	r.db.registrations[reg.ID] = copyRegistration(reg)
	return nil
}

func (r *RegistrationRepository) GetByID(_ context.Context, id int64) (*model.Registration, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if reg, ok := r.db.registrations[id]; ok {
		return copyRegistration(reg), nil
	}
	return nil, nil
}

func (r *RegistrationRepository) List(_ context.Context, q model.RegistrationQuery) ([]*model.Registration, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []*model.Registration
	for _, reg := range r.db.registrations {
		if q.Status == "" || reg.Status == q.Status {
			matched = append(matched, copyRegistration(reg))
		}
	}
	sortRegistrations(matched)

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

func (r *RegistrationRepository) ListBySchedule(_ context.Context, scheduleID int64) ([]*model.Registration, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Registration
	for _, reg := range r.db.registrations {
		if reg.ScheduleID == scheduleID {
			out = append(out, copyRegistration(reg))
		}
	}
	sortRegistrations(out)
	return out, nil
}

func (r *RegistrationRepository) ListByUser(_ context.Context, userID int64) ([]*model.Registration, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Registration
	for _, reg := range r.db.registrations {
		if reg.UserID == userID {
			out = append(out, copyRegistration(reg))
		}
	}
	sortRegistrations(out)
	return out, nil
}

func sortRegistrations(regs []*model.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID > regs[j].ID
		}
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
}

func (r *RegistrationRepository) ApprovedCounts(_ context.Context, scheduleIDs []int64) (map[int64]map[string]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = struct{}{}
	}

	counts := make(map[int64]map[string]int, len(scheduleIDs))
	for _, reg := range r.db.registrations {
		if _, ok := wanted[reg.ScheduleID]; !ok || !reg.IsApproved() {
			continue
		}
		if counts[reg.ScheduleID] == nil {
			counts[reg.ScheduleID] = make(map[string]int)
		}
		counts[reg.ScheduleID][reg.SessionID]++
	}
	return counts, nil
}

func (r *RegistrationRepository) UpdateStatus(_ context.Context, reg *model.Registration, expectedVersion int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, err := r.checkVersion(reg.ID, expectedVersion)
	if err != nil {
		return err
	}
	if !stored.IsPending() {
		return model.ErrVersionConflict
	}

	stored.Status = reg.Status
	stored.Notes = reg.Notes
	stored.RejectionReason = reg.RejectionReason
	stored.Version++
	stored.UpdatedAt = r.db.now()

	reg.Version = stored.Version
	reg.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *RegistrationRepository) UpdatePayment(_ context.Context, reg *model.Registration, expectedVersion int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, err := r.checkVersion(reg.ID, expectedVersion)
	if err != nil {
		return err
	}
	if !stored.IsApproved() || stored.PaymentStatus.Final() {
		return model.ErrVersionConflict
	}

	stored.PaymentStatus = reg.PaymentStatus
	stored.PaymentLink = reg.PaymentLink
	stored.Version++
	stored.UpdatedAt = r.db.now()

	reg.Version = stored.Version
	reg.UpdatedAt = stored.UpdatedAt
	return nil
}

// checkVersion вызывается под блокировкой
func (r *RegistrationRepository) checkVersion(id int64, expectedVersion int) (*model.Registration, error) {
	stored, ok := r.db.registrations[id]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	if expectedVersion != 0 && stored.Version != expectedVersion {
		return nil, model.ErrVersionConflict
	}
	return stored, nil
}
