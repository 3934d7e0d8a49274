package httpapi

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registrationResponse struct {
	model.Registration
	Actions []model.Action `json:"actions"`
}

func TestAuth(t *testing.T) {
	a := newAPITest(t)

	rec := a.do("GET", "/api/registrations/all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, statusError, a.decode(rec, nil).Status)

	rec = a.do("GET", "/api/registrations/all", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do("GET", "/api/auth/me", a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.Principal
	a.decode(rec, &me)
	assert.Equal(t, model.RoleAdmin, me.Role)
	assert.Equal(t, "root@example.com", me.Email)

	rec = a.do("POST", "/api/auth/login", "", map[string]string{"email": "root@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do("POST", "/api/auth/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := a.decode(rec, nil)
	require.NotEmpty(t, env.Fields)
	assert.Equal(t, "email", env.Fields[0].Field)
}

func TestRegistrationLifecycle(t *testing.T) {
	a := newAPITest(t)
	reg := a.register(a.students[0], 0)
	path := fmt.Sprintf("/api/registrations/%d", reg.ID)

	// отклонение без причины
	rec := a.do("PATCH", path+"/status", a.adminToken, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrRejectionReasonRequired.Error(), a.decode(rec, nil).Message)

	// оплата до одобрения
	rec = a.do("PATCH", path+"/payment-status", a.adminToken, map[string]string{"paymentStatus": "paid"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do("GET", path, a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view registrationResponse
	a.decode(rec, &view)
	assert.ElementsMatch(t, []model.Action{model.ActionSendMessage, model.ActionApprove, model.ActionReject}, view.Actions)

	rec = a.do("PATCH", path+"/status", a.adminToken, map[string]interface{}{"status": "approved", "notes": "welcome", "version": view.Version})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a.decode(rec, &view)
	assert.Equal(t, model.RegistrationStatusApproved, view.Status)
	assert.Equal(t, "welcome", view.Notes)
	assert.Contains(t, view.Actions, model.ActionMarkPaid)

	// повторное решение и устаревшая версия
	rec = a.do("PATCH", path+"/status", a.adminToken, map[string]string{"status": "rejected", "rejectionReason": "late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = a.do("PATCH", path+"/payment-status", a.adminToken, map[string]interface{}{"paymentStatus": "paid", "version": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do("PATCH", path+"/payment-status", a.adminToken, map[string]string{"paymentStatus": "paid"})
	require.Equal(t, http.StatusOK, rec.Code)
	a.decode(rec, &view)
	assert.Equal(t, model.PaymentStatusPaid, view.PaymentStatus)
	assert.Equal(t, []model.Action{model.ActionSendMessage}, view.Actions)

	rec = a.do("PATCH", path+"/payment-status", a.adminToken, map[string]string{"paymentStatus": "free"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do("GET", "/api/registrations/999", a.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectWithReasonInNotes(t *testing.T) {
	a := newAPITest(t)
	reg := a.register(a.students[0], 0)
	path := fmt.Sprintf("/api/registrations/%d/status", reg.ID)

	// пустые notes без reason
	rec := a.do("PATCH", path, a.adminToken, map[string]string{"status": "rejected", "notes": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do("PATCH", path, a.adminToken, map[string]string{
		"status": "rejected",
		"notes":  "Course is full\n\nAdditional Notes: try next month",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view registrationResponse
	a.decode(rec, &view)
	assert.Equal(t, model.RegistrationStatusRejected, view.Status)
	assert.Equal(t, "Course is full", view.RejectionReason)
	assert.Equal(t, "Course is full\n\nAdditional Notes: try next month", view.Notes)

	other := a.register(a.students[1], 0)
	rec = a.do("PATCH", fmt.Sprintf("/api/registrations/%d/status", other.ID), a.adminToken,
		map[string]string{"status": "rejected", "notes": "Spam"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a.decode(rec, &view)
	assert.Equal(t, "Spam", view.RejectionReason)
	assert.Equal(t, "Spam", view.Notes)
}

func TestPaymentLinkAndMessage(t *testing.T) {
	a := newAPITest(t)
	reg := a.register(a.students[0], 0)
	path := fmt.Sprintf("/api/registrations/%d", reg.ID)

	rec := a.do("POST", path+"/payment-link", a.adminToken, map[string]string{"paymentLink": "https://pay.example.com/1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do("PATCH", path+"/status", a.adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	// генератор не настроен, ссылка обязательна
	rec = a.do("POST", path+"/payment-link", a.adminToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do("POST", path+"/payment-link", a.adminToken, map[string]string{"paymentLink": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do("POST", path+"/payment-link", a.adminToken, map[string]string{"paymentLink": "https://pay.example.com/1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view registrationResponse
	a.decode(rec, &view)
	assert.Equal(t, model.PaymentStatusPending, view.PaymentStatus)
	assert.Equal(t, "https://pay.example.com/1", view.PaymentLink)

	rec = a.do("POST", path+"/send-message", a.adminToken, map[string]string{"message": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrMessageRequired.Error(), a.decode(rec, nil).Message)

	rec = a.do("POST", path+"/send-message", a.adminToken, map[string]string{"message": "See you on Monday"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScheduleRegistrationsAndCapacity(t *testing.T) {
	a := newAPITest(t)
	first := a.register(a.students[0], 1)
	a.register(a.students[1], 0)
	a.register(a.students[2], 0)

	rec := a.do("PATCH", fmt.Sprintf("/api/registrations/%d/status", first.ID), a.adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do("GET", fmt.Sprintf("/api/registrations/schedule/%d?status=pending", a.schedule.ID), a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list service.ScheduleRegistrations
	a.decode(rec, &list)
	assert.Len(t, list.Registrations, 2)
	assert.Equal(t, 3, list.Stats.Total)
	assert.Equal(t, 1, list.Stats.Approved)
	assert.Equal(t, 1, list.Capacity.Enrolled)
	assert.Equal(t, 3, list.Capacity.Capacity)

	rec = a.do("GET", fmt.Sprintf("/api/registrations/schedule/%d?status=bogus", a.schedule.ID), a.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do("GET", fmt.Sprintf("/api/registrations/schedule/%d/capacity", a.schedule.ID), a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var schedule model.Schedule
	a.decode(rec, &schedule)
	require.Len(t, schedule.Sessions, 2)
	assert.False(t, schedule.Sessions[0].Availability.IsFull)
	assert.True(t, schedule.Sessions[1].Availability.IsFull)
	assert.Equal(t, 0, schedule.Sessions[1].Availability.Available)

	rec = a.do("GET", fmt.Sprintf("/api/registrations/schedule/%d/export", a.schedule.ID), a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "registrations_go-basics.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = a.do("GET", "/api/registrations/all?status=approved", a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.RegistrationPage
	a.decode(rec, &page)
	assert.Equal(t, 1, page.Total)
}

func TestTutorAccess(t *testing.T) {
	a := newAPITest(t)
	a.register(a.students[0], 0)

	rec := a.do("GET", "/api/registrations/all", a.tutorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do("DELETE", "/api/schedule/"+a.schedule.Slug, a.tutorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do("GET", fmt.Sprintf("/api/registrations/tutor/schedule/%d", a.schedule.ID), a.tutorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list service.ScheduleRegistrations
	a.decode(rec, &list)
	assert.Len(t, list.Registrations, 1)

	rec = a.do("GET", "/api/tutor/me/schedules", a.tutorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var schedules []model.Schedule
	a.decode(rec, &schedules)
	require.Len(t, schedules, 1)
	assert.Equal(t, a.schedule.Slug, schedules[0].Slug)

	rec = a.do("GET", "/api/tutor/me/schedules", a.adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteSchedule(t *testing.T) {
	a := newAPITest(t)
	a.register(a.students[0], 0)
	a.register(a.students[1], 1)
	path := "/api/schedule/" + a.schedule.Slug

	rec := a.do("DELETE", path, a.adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, a.decode(rec, nil).Message, "registrations")

	rec = a.do("GET", path, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do("DELETE", path+"?forceDelete=maybe", a.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do("DELETE", path+"?forceDelete=true", a.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.DeleteResult
	a.decode(rec, &result)
	assert.Equal(t, 2, result.NotifiedUsers)

	rec = a.do("GET", path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSchedule(t *testing.T) {
	a := newAPITest(t)
	sessions := fmt.Sprintf(`[{"startDate":"2026-12-01","endDate":"2026-12-20","time":"09:00-11:00","period":2,"capacity":4,"tutor":%d}]`, a.tutor.ID)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("title", "Rust basics"))
	require.NoError(t, w.WriteField("text", "Learn Rust"))
	require.NoError(t, w.WriteField("price", "100000"))
	require.NoError(t, w.WriteField("status", "published"))
	require.NoError(t, w.WriteField("images", "https://cdn.example.com/rust.png"))
	require.NoError(t, w.WriteField("sessions", sessions))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/schedule", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.adminToken)
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Schedule
	a.decode(rec, &created)
	assert.Equal(t, "rust-basics", created.Slug)
	assert.Equal(t, []string{"https://cdn.example.com/rust.png"}, created.Images)
	require.Len(t, created.Sessions, 1)
	assert.Equal(t, 4, created.Sessions[0].Capacity)

	rec = a.do("POST", "/api/schedule", a.adminToken, map[string]interface{}{
		"title": "Broken", "text": "Broken dates",
		"sessions": []map[string]interface{}{{"startDate": "01.12.2026", "endDate": "2026-12-20", "time": "09:00", "period": 2, "capacity": 1, "tutor": a.tutor.ID}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := a.decode(rec, nil)
	require.Len(t, env.Fields, 1)
	assert.Equal(t, "sessions[0].startDate", env.Fields[0].Field)

	rec = a.do("POST", "/api/schedule", a.adminToken, map[string]interface{}{
		"title": "Copy", "text": "learn rust",
		"sessions": []map[string]interface{}{{"startDate": "2026-12-01", "endDate": "2026-12-20", "time": "09:00", "period": 2, "capacity": 1, "tutor": a.tutor.ID}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do("POST", "/api/schedule/check-duplicate", a.adminToken, map[string]string{"text": "Learn Rust"})
	require.Equal(t, http.StatusOK, rec.Code)
	var dup struct {
		IsDuplicate bool `json:"isDuplicate"`
	}
	a.decode(rec, &dup)
	assert.True(t, dup.IsDuplicate)
}

func TestTutors(t *testing.T) {
	a := newAPITest(t)

	rec := a.do("POST", "/api/tutor", a.adminToken, map[string]string{"name": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := a.decode(rec, nil)
	require.NotEmpty(t, env.Fields)
	assert.Equal(t, "name", env.Fields[0].Field)

	rec = a.do("POST", "/api/tutor", a.adminToken, map[string]string{"name": "Mark", "email": "mark@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tutor model.Tutor
	a.decode(rec, &tutor)
	assert.True(t, tutor.IsActive)

	rec = a.do("GET", fmt.Sprintf("/api/tutor/%d", tutor.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do("GET", "/api/tutor/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do("GET", "/api/tutor", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tutors []model.Tutor
	a.decode(rec, &tutors)
	assert.Len(t, tutors, 2)
}
