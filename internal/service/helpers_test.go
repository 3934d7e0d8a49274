package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"github.com/Freeeeeet/schedule_registrations/internal/payment"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	err      error
	messages []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, _ notify.Recipient, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

type staticLinks struct {
	link  string
	order payment.Order
}

func (l *staticLinks) PaymentLink(_ context.Context, order payment.Order) (string, error) {
	l.order = order
	if order.Amount <= 0 {
		return "", payment.ErrFreeOrder
	}
	return l.link, nil
}

type testEnv struct {
	store         *memory.Store
	notifier      *recordingNotifier
	notifications *NotificationService
	registrations *RegistrationService
	schedules     *ScheduleService
	tutors        *TutorService

	tutor    *model.Tutor
	students []*model.User
}

func newTestEnv(t *testing.T, links payment.LinkGenerator) *testEnv {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()
	notifier := &recordingNotifier{}

	env := &testEnv{store: store, notifier: notifier}
	env.notifications = NewNotificationService(store.Notifications, store.Users, notifier, 10, 3, logger)
	env.registrations = NewRegistrationService(store.Registrations, store.Schedules, store.Users, store.Tutors, env.notifications, links, logger)
	env.schedules = NewScheduleService(store.Schedules, store.Registrations, store.Tutors, env.notifications, logger)
	env.tutors = NewTutorService(store.Tutors, logger)

	env.tutor = &model.Tutor{Name: "Jane Tutor", Email: "jane@example.com", IsActive: true}
	require.NoError(t, store.Tutors.Create(ctx, env.tutor))

	for _, name := range []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank"} {
		u := &model.User{FullName: name, Email: name + "@example.com"}
		require.NoError(t, store.Users.Add(ctx, u))
		env.students = append(env.students, u)
	}
	return env
}

func (e *testEnv) newSchedule(title, text string, capacities ...int) *model.Schedule {
	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	s := &model.Schedule{
		Title:  title,
		Text:   text,
		Price:  250000,
		Status: model.ScheduleStatusPublished,
	}
	for _, c := range capacities {
		s.Sessions = append(s.Sessions, model.Session{
			StartDate: start,
			EndDate:   start.AddDate(0, 1, 0),
			Time:      "18:00-20:00",
			Period:    2,
			Capacity:  c,
			TutorID:   e.tutor.ID,
		})
	}
	return s
}

func (e *testEnv) createSchedule(t *testing.T, title, text string, capacities ...int) *model.Schedule {
	t.Helper()
	s, err := e.schedules.Create(context.Background(), e.newSchedule(title, text, capacities...))
	require.NoError(t, err)
	return s
}

func (e *testEnv) register(t *testing.T, student *model.User, schedule *model.Schedule, session int) *model.Registration {
	t.Helper()
	reg := model.NewRegistration(student.ID, schedule.ID, schedule.Sessions[session].ID)
	require.NoError(t, e.store.Registrations.Add(context.Background(), reg))
	return reg
}

func (e *testEnv) approve(t *testing.T, reg *model.Registration) *model.Registration {
	t.Helper()
	updated, err := e.registrations.UpdateStatus(context.Background(), reg.ID,
		model.StatusChange{To: model.RegistrationStatusApproved}, 0)
	require.NoError(t, err)
	return updated
}
