package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

// Store собирает все репозитории поверх одной DB
type Store struct {
	DB            *DB
	Schedules     *ScheduleRepository
	Registrations *RegistrationRepository
	Tutors        *TutorRepository
	Users         *UserRepository
	Admins        *AdminRepository
	Notifications *NotificationRepository
}

func NewStore() *Store {
	db := NewDB()
	return &Store{
		DB:            db,
		Schedules:     NewScheduleRepository(db),
		Registrations: NewRegistrationRepository(db),
		Tutors:        NewTutorRepository(db),
		Users:         NewUserRepository(db),
		Admins:        NewAdminRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// SeedDemo наполняет хранилище для локального запуска:
// тьютор, расписание с двумя сессиями, три студента и записи в разных статусах.
func (s *Store) SeedDemo(ctx context.Context) error {
	tutor := &model.Tutor{Name: "Demo Tutor", Email: "tutor@localhost", IsActive: true}
	if err := s.Tutors.Create(ctx, tutor); err != nil {
		return fmt.Errorf("seed tutor: %w", err)
	}

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	schedule := &model.Schedule{
		Slug:   "demo-course",
		Title:  "Demo course",
		Text:   "Intro course for local testing",
		Price:  150000,
		Status: model.ScheduleStatusPublished,
		Sessions: []model.Session{
			{StartDate: start, EndDate: start.AddDate(0, 0, 14), Time: "10:00", Period: 2, Capacity: 5, TutorID: tutor.ID},
			{StartDate: start, EndDate: start.AddDate(0, 0, 14), Time: "18:00", Period: 2, Capacity: 3, TutorID: tutor.ID},
		},
	}
	if err := s.Schedules.Create(ctx, schedule, "intro-course-for-local-testing"); err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}

	students := []*model.User{
		{FullName: "Alice Student", Email: "alice@localhost", Verified: true},
		{FullName: "Bob Student", Email: "bob@localhost", Verified: true},
		{FullName: "Carol Student", Email: "carol@localhost"},
	}
	for _, u := range students {
		if err := s.Users.Add(ctx, u); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
	}

	regs := []*model.Registration{
		model.NewRegistration(students[0].ID, schedule.ID, schedule.Sessions[0].ID),
		model.NewRegistration(students[1].ID, schedule.ID, schedule.Sessions[0].ID),
		model.NewRegistration(students[2].ID, schedule.ID, schedule.Sessions[1].ID),
	}
	regs[1].Status = model.RegistrationStatusApproved
	for _, reg := range regs {
		if err := s.Registrations.Add(ctx, reg); err != nil {
			return fmt.Errorf("seed registration: %w", err)
		}
	}
	return nil
}
