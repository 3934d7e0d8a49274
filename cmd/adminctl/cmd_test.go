package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/apiclient"
	"github.com/Freeeeeet/schedule_registrations/internal/controller/httpapi"
	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store  *memory.Store
	tokens *apiclient.MemoryTokenStore
	url    string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()
	require.NoError(t, store.SeedDemo(ctx))

	notifications := service.NewNotificationService(store.Notifications, store.Users, notify.NewLogNotifier(logger), 10, 3, logger)
	auth := service.NewAuthService(store.Admins, nil, "adminctl-secret", time.Hour, logger)
	require.NoError(t, auth.CreateAdmin(ctx, &model.Admin{Email: "ops@example.com", FullName: "Ops", Role: model.RoleAdmin}, "ops-password"))

	srv := httptest.NewServer(httpapi.NewServer(httpapi.Options{
		Logger:        logger,
		Auth:          auth,
		Schedules:     service.NewScheduleService(store.Schedules, store.Registrations, store.Tutors, notifications, logger),
		Registrations: service.NewRegistrationService(store.Registrations, store.Schedules, store.Users, store.Tutors, notifications, nil, logger),
		Tutors:        service.NewTutorService(store.Tutors, logger),
	}))
	t.Cleanup(srv.Close)

	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte("ops-password"), nil }
	t.Cleanup(func() { readPasswordFunc = orig })

	return &fixture{store: store, tokens: apiclient.NewMemoryTokenStore(nil), url: srv.URL}
}

// exec запускает команду, input подаётся на stdin
func (f *fixture) exec(input string, args ...string) (string, error) {
	var out bytes.Buffer
	client := apiclient.New(f.url, f.tokens, 5*time.Second, zap.NewNop())
	err := newCommandLine(client, strings.NewReader(input), &out).run(context.Background(), append([]string{"adminctl"}, args...))
	return out.String(), err
}

func (f *fixture) scheduleID(t *testing.T) int64 {
	t.Helper()
	schedule, err := f.store.Schedules.GetBySlug(context.Background(), "demo-course")
	require.NoError(t, err)
	require.NotNil(t, schedule)
	return schedule.ID
}

func (f *fixture) registrationID(t *testing.T, status model.RegistrationStatus) string {
	t.Helper()
	regs, err := f.store.Registrations.ListBySchedule(context.Background(), f.scheduleID(t))
	require.NoError(t, err)
	for _, reg := range regs {
		if reg.Status == status {
			return strconv.FormatInt(reg.ID, 10)
		}
	}
	t.Fatalf("no %s registration", status)
	return ""
}

func Test_commandLine_login(t *testing.T) {
	f := setup(t)

	_, err := f.exec("", "registrations")
	assert.ErrorIs(t, err, apiclient.ErrNotLoggedIn)

	out, err := f.exec("", "login", "-email", "ops@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as ops@example.com (admin)")

	session, err := f.tokens.Load()
	require.NoError(t, err)
	require.NotNil(t, session)

	_, err = f.exec("", "logout")
	require.NoError(t, err)
	session, err = f.tokens.Load()
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = f.exec("", "login")
	assert.ErrorIs(t, err, errHelp)

	_, err = f.exec("", "unknown")
	assert.ErrorIs(t, err, errHelp)
}

func Test_commandLine_lifecycle(t *testing.T) {
	f := setup(t)
	_, err := f.exec("", "login", "-email", "ops@example.com")
	require.NoError(t, err)

	scheduleID := strconv.FormatInt(f.scheduleID(t), 10)

	out, err := f.exec("", "registrations", "-schedule", scheduleID, "-filter", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "total 3, approved 1, pending 2")
	assert.Contains(t, out, "Alice Student")
	assert.NotContains(t, out, "Bob Student")

	pending := f.registrationID(t, model.RegistrationStatusPending)

	out, err = f.exec("", "show", pending)
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   pending")
	assert.Contains(t, out, "approve")

	// без причины запрос даже не уходит
	_, err = f.exec("", "reject", pending)
	assert.ErrorIs(t, err, model.ErrRejectionReasonRequired)

	out, err = f.exec("", "approve", pending, "-notes", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, "is now approved")

	_, err = f.exec("", "reject", pending, "-reason", "late")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	out, err = f.exec("", "pay", pending)
	require.NoError(t, err)
	assert.Contains(t, out, "payment is now paid")

	_, err = f.exec("", "free", pending)
	assert.ErrorIs(t, err, model.ErrPaymentFinalized)

	out, err = f.exec("", "capacity", scheduleID)
	require.NoError(t, err)
	assert.Contains(t, out, "Demo course")
	assert.Contains(t, out, "total: 2 of 8")

	_, err = f.exec("", "show", "abc")
	assert.Error(t, err)
}

func Test_parseWithArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{name: "arg first", args: []string{"5", "-notes", "hi"}, want: "5"},
		{name: "flags first", args: []string{"-notes", "hi", "5"}, want: "5"},
		{name: "missing", args: []string{"-notes", "hi"}, wantErr: errHelp.Error()},
		{name: "extra after flags", args: []string{"5", "-notes", "hi", "6"}, wantErr: "unexpected arguments: 6"},
		{name: "extra after arg", args: []string{"-notes", "hi", "5", "6", "7"}, wantErr: "unexpected arguments: 6 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cli := newCommandLine(nil, strings.NewReader(""), &out)
			fs := cli.flagSet("approve")
			notes := fs.String("notes", "", "")

			got, err := parseWithArg(fs, tt.args)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Contains(t, out.String(), "Usage of approve")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "hi", *notes)
		})
	}
}

func Test_commandLine_deleteSchedule(t *testing.T) {
	f := setup(t)
	_, err := f.exec("", "login", "-email", "ops@example.com")
	require.NoError(t, err)

	out, err := f.exec("n\n", "delete-schedule", "demo-course")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")
	f.scheduleID(t)

	out, err = f.exec("y\n", "delete-schedule", "demo-course")
	require.NoError(t, err)
	assert.Contains(t, out, "schedule demo-course deleted, 3 students notified")

	_, err = f.exec("", "delete-schedule", "demo-course", "-force")
	assert.ErrorIs(t, err, model.ErrScheduleNotFound)
}
