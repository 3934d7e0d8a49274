package apiclient

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/controller/httpapi"
	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newLiveServer поднимает настоящий API поверх демо-данных в памяти
func newLiveServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()
	require.NoError(t, store.SeedDemo(ctx))

	notifications := service.NewNotificationService(store.Notifications, store.Users, notify.NewLogNotifier(logger), 10, 3, logger)
	auth := service.NewAuthService(store.Admins, nil, "e2e-secret", time.Hour, logger)
	require.NoError(t, auth.CreateAdmin(ctx, &model.Admin{Email: "ops@example.com", FullName: "Ops", Role: model.RoleAdmin}, "ops-password"))

	server := httpapi.NewServer(httpapi.Options{
		Logger:        logger,
		Auth:          auth,
		Schedules:     service.NewScheduleService(store.Schedules, store.Registrations, store.Tutors, notifications, logger),
		Registrations: service.NewRegistrationService(store.Registrations, store.Schedules, store.Users, store.Tutors, notifications, nil, logger),
		Tutors:        service.NewTutorService(store.Tutors, logger),
	})

	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestClient_OperatorFlow(t *testing.T) {
	srv, store := newLiveServer(t)
	ctx := context.Background()
	tokens := NewMemoryTokenStore(nil)
	c := New(srv.URL, tokens, 5*time.Second, zap.NewNop())

	_, err := c.Login(ctx, "ops@example.com", "wrong-password")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	session, err := c.Login(ctx, "ops@example.com", "ops-password")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, session.Admin.Role)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", me.Email)

	schedule, err := c.GetSchedule(ctx, "demo-course")
	require.NoError(t, err)

	list, err := c.ScheduleRegistrations(ctx, schedule.ID, model.FilterPending)
	require.NoError(t, err)
	require.Len(t, list.Registrations, 2)
	assert.Equal(t, 3, list.Stats.Total)

	reg, err := c.GetRegistration(ctx, list.Registrations[0].ID)
	require.NoError(t, err)
	assert.Contains(t, reg.Actions, model.ActionApprove)

	approved, err := c.UpdateStatus(ctx, &reg.Registration, model.StatusChange{To: model.RegistrationStatusApproved, Notes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationStatusApproved, approved.Status)

	// устаревшая копия записи
	_, err = c.UpdatePaymentStatus(ctx, &model.Registration{
		ID: reg.ID, Status: model.RegistrationStatusApproved, PaymentStatus: model.PaymentStatusUnpaid, Version: reg.Version,
	}, model.PaymentStatusPaid)
	require.ErrorIs(t, err, model.ErrVersionConflict)

	paid, err := c.UpdatePaymentStatus(ctx, &approved.Registration, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)

	capacity, err := c.Capacity(ctx, schedule.ID)
	require.NoError(t, err)
	require.NotNil(t, capacity.Capacity)
	assert.Equal(t, 2, capacity.Capacity.Enrolled)

	_, err = c.DeleteSchedule(ctx, "demo-course", false)
	require.ErrorIs(t, err, ErrRegistrationsConflict)

	result, err := c.DeleteSchedule(ctx, "demo-course", true)
	require.NoError(t, err)
	assert.Equal(t, 3, result.NotifiedUsers)
	assert.Len(t, store.Notifications.All(), 2+3)

	_, err = c.GetSchedule(ctx, "demo-course")
	assert.ErrorIs(t, err, model.ErrScheduleNotFound)
}
