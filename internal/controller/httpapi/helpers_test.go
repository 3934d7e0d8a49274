package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/notify"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiTest struct {
	t      *testing.T
	server *Server
	store  *memory.Store

	adminToken string
	tutorToken string

	tutor    *model.Tutor
	schedule *model.Schedule
	students []*model.User
}

type envelope struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Fields  []model.FieldError `json:"fields"`
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()

	notifications := service.NewNotificationService(store.Notifications, store.Users, notify.NewLogNotifier(logger), 10, 3, logger)
	auth := service.NewAuthService(store.Admins, nil, "test-secret", time.Hour, logger)
	schedules := service.NewScheduleService(store.Schedules, store.Registrations, store.Tutors, notifications, logger)
	registrations := service.NewRegistrationService(store.Registrations, store.Schedules, store.Users, store.Tutors, notifications, nil, logger)
	tutors := service.NewTutorService(store.Tutors, logger)

	a := &apiTest{
		t:     t,
		store: store,
		server: NewServer(Options{
			Logger:        logger,
			Auth:          auth,
			Schedules:     schedules,
			Registrations: registrations,
			Tutors:        tutors,
		}),
	}

	a.tutor = &model.Tutor{Name: "Jane Tutor", Email: "jane@example.com", IsActive: true}
	require.NoError(t, store.Tutors.Create(ctx, a.tutor))

	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	schedule, err := schedules.Create(ctx, &model.Schedule{
		Title:  "Go basics",
		Text:   "Learn Go",
		Price:  250000,
		Status: model.ScheduleStatusPublished,
		Sessions: []model.Session{
			{StartDate: start, EndDate: start.AddDate(0, 1, 0), Time: "18:00-20:00", Period: 2, Capacity: 2, TutorID: a.tutor.ID},
			{StartDate: start, EndDate: start.AddDate(0, 1, 0), Time: "10:00-12:00", Period: 2, Capacity: 1, TutorID: a.tutor.ID},
		},
	})
	require.NoError(t, err)
	a.schedule = schedule

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		u := &model.User{FullName: name, Email: name + "@example.com"}
		require.NoError(t, store.Users.Add(ctx, u))
		a.students = append(a.students, u)
	}

	require.NoError(t, auth.CreateAdmin(ctx, &model.Admin{Email: "root@example.com", FullName: "Root", Role: model.RoleAdmin}, "correct-horse"))
	tutorID := a.tutor.ID
	require.NoError(t, auth.CreateAdmin(ctx, &model.Admin{Email: "jane@example.com", FullName: "Jane", Role: model.RoleTutor, TutorID: &tutorID}, "tutor-horse"))

	a.adminToken = a.login("root@example.com", "correct-horse")
	a.tutorToken = a.login("jane@example.com", "tutor-horse")
	return a
}

func (a *apiTest) login(email, password string) string {
	a.t.Helper()
	rec := a.do("POST", "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, 200, rec.Code, rec.Body.String())

	var result service.LoginResult
	a.decode(rec, &result)
	return result.Token
}

func (a *apiTest) register(student *model.User, session int) *model.Registration {
	a.t.Helper()
	reg := model.NewRegistration(student.ID, a.schedule.ID, a.schedule.Sessions[session].ID)
	require.NoError(a.t, a.store.Registrations.Add(context.Background(), reg))
	return reg
}

func (a *apiTest) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

// decode разбирает конверт и, если передан out, его data
func (a *apiTest) decode(rec *httptest.ResponseRecorder, out interface{}) envelope {
	a.t.Helper()

	var env envelope
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil {
		require.Equal(a.t, statusSuccess, env.Status, rec.Body.String())
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
	return env
}
