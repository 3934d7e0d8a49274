package controller

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatRegistrations(t *testing.T) {
	assert.Equal(t, "You have no registrations yet.", FormatRegistrations(nil))

	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	text := FormatRegistrations([]*model.Registration{
		{
			ScheduleID:    1,
			Status:        model.RegistrationStatusApproved,
			PaymentStatus: model.PaymentStatusPending,
			PaymentLink:   "https://pay.example.com/1",
			Schedule:      &model.Schedule{Title: "Go basics", Price: 250000},
			Session:       &model.Session{StartDate: start, Time: "18:00-20:00"},
		},
		{ScheduleID: 7, Status: model.RegistrationStatusPending, PaymentStatus: model.PaymentStatusUnpaid},
		{
			ScheduleID:      8,
			Status:          model.RegistrationStatusRejected,
			PaymentStatus:   model.PaymentStatusUnpaid,
			RejectionReason: "Course is full",
		},
	})

	assert.Contains(t, text, "• Go basics\n  ✅ Approved · 💳 Payment pending")
	assert.Contains(t, text, "📆 02 Nov 2026, 18:00-20:00")
	assert.Contains(t, text, "💵 Rp 250.000")
	assert.Contains(t, text, "Pay here: https://pay.example.com/1")
	assert.Contains(t, text, "• schedule #7\n  ⏳ Waiting for approval · 💤 Not paid")
	assert.Contains(t, text, "Reason: Course is full")
}

func TestListForStudent(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()
	require.NoError(t, store.SeedDemo(ctx))

	chatID := int64(555)
	linked := &model.User{FullName: "Linked", Email: "linked@example.com", TelegramID: &chatID}
	require.NoError(t, store.Users.Add(ctx, linked))
	schedule, err := store.Schedules.GetBySlug(ctx, "demo-course")
	require.NoError(t, err)
	require.NoError(t, store.Registrations.Add(ctx, model.NewRegistration(linked.ID, schedule.ID, schedule.Sessions[0].ID)))

	notifications := service.NewNotificationService(store.Notifications, store.Users, notify.NewLogNotifier(logger), 10, 3, logger)
	regs := service.NewRegistrationService(store.Registrations, store.Schedules, store.Users, store.Tutors, notifications, nil, logger)

	var _ StudentRegistrations = regs

	list, err := regs.ListForStudent(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, FormatRegistrations(list), "• Demo course\n  ⏳ Waiting for approval")

	_, err = regs.ListForStudent(ctx, 404)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
