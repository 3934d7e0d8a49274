package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"go.uber.org/zap"
)

// Registration - запись вместе с доступными оператору действиями
type Registration struct {
	model.Registration
	Actions []model.Action `json:"actions"`
}

type RegistrationPage struct {
	Registrations []*model.Registration `json:"registrations"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	TotalPages    int                   `json:"totalPages"`
}

type ScheduleRegistrations struct {
	Schedule      *model.Schedule         `json:"schedule"`
	Registrations []*model.Registration   `json:"registrations"`
	Stats         model.RegistrationStats `json:"stats"`
	Capacity      model.Capacity          `json:"capacity"`
}

type DeleteResult struct {
	NotifiedUsers int `json:"notifiedUsers"`
}

// Login получает токен и сохраняет его вместе с данными администратора
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/login", "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Token     string           `json:"token"`
		ExpiresAt time.Time        `json:"expiresAt"`
		Admin     *model.Principal `json:"admin"`
	}
	if err := c.decode(resp, &result); err != nil {
		return nil, err
	}
	if result.Token == "" || result.Admin == nil {
		return nil, fmt.Errorf("%w: empty login response", ErrRequestFailed)
	}

	session := &Session{Token: result.Token, Admin: result.Admin, ExpiresAt: result.ExpiresAt}
	if err := c.tokens.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.logger.Info("Logged in", zap.String("email", result.Admin.Email), zap.String("role", string(result.Admin.Role)))
	return session, nil
}

func (c *Client) Logout() error {
	return c.tokens.Clear()
}

func (c *Client) Me(ctx context.Context) (*model.Principal, error) {
	var p model.Principal
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRegistrations - общий список записей; пустой status - все
func (c *Client) ListRegistrations(ctx context.Context, status model.RegistrationStatus, page model.Page) (*RegistrationPage, error) {
	if status != "" && !status.Valid() {
		return nil, model.NewValidationError(model.ErrInvalidStatus,
			model.FieldError{Field: "status", Error: "must be one of pending, approved, rejected"})
	}
	page = page.Normalize()

	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	q.Set("page", strconv.Itoa(page.Page))
	q.Set("limit", strconv.Itoa(page.Limit))

	var result RegistrationPage
	if err := c.do(ctx, http.MethodGet, "/api/registrations/all?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetRegistration(ctx context.Context, id int64) (*Registration, error) {
	var reg Registration
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/registrations/%d", id), nil, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (c *Client) ScheduleRegistrations(ctx context.Context, scheduleID int64, filter model.RegistrationFilter) (*ScheduleRegistrations, error) {
	path := fmt.Sprintf("/api/registrations/schedule/%d", scheduleID)
	if filter != "" && filter != model.FilterAll {
		path += "?status=" + url.QueryEscape(string(filter))
	}

	var result ScheduleRegistrations
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateStatus меняет статус записи. Переход проверяется до запроса,
// причина отклонения обязательна. Версия записи уходит на сервер для проверки.
func (c *Client) UpdateStatus(ctx context.Context, current *model.Registration, change model.StatusChange) (*Registration, error) {
	if err := model.ValidateStatusChange(current.Status, change); err != nil {
		return nil, err
	}

	// причина отклонения уходит внутри notes
	body := map[string]interface{}{
		"status":  change.To,
		"notes":   model.ComposeNotes(change),
		"version": current.Version,
	}

	var reg Registration
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/registrations/%d/status", current.ID), body, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// UpdatePaymentStatus отмечает оплату; для неодобренной записи запрос не отправляется
func (c *Client) UpdatePaymentStatus(ctx context.Context, current *model.Registration, to model.PaymentStatus) (*Registration, error) {
	if err := model.ValidatePaymentChange(current, to); err != nil {
		return nil, err
	}

	body := map[string]interface{}{"paymentStatus": to, "version": current.Version}
	var reg Registration
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/registrations/%d/payment-status", current.ID), body, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// SendPaymentLink отправляет ссылку на оплату; пустая ссылка - сервер выпустит её сам
func (c *Client) SendPaymentLink(ctx context.Context, current *model.Registration, link string) (*Registration, error) {
	if err := model.ValidatePaymentLink(current); err != nil {
		return nil, err
	}

	body := map[string]string{"paymentLink": strings.TrimSpace(link)}
	var reg Registration
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/registrations/%d/payment-link", current.ID), body, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (c *Client) SendMessage(ctx context.Context, registrationID int64, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.NewValidationError(model.ErrMessageRequired,
			model.FieldError{Field: "message", Error: model.ErrMessageRequired.Error()})
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/registrations/%d/send-message", registrationID),
		map[string]string{"message": message}, nil)
}

func (c *Client) GetSchedule(ctx context.Context, slug string) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := c.do(ctx, http.MethodGet, "/api/schedule/"+url.PathEscape(slug), nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteSchedule удаляет расписание. Без force сервер отказывает, если есть активные записи:
// тогда возвращается ошибка с ErrRegistrationsConflict и текстом сервера.
func (c *Client) DeleteSchedule(ctx context.Context, slug string, force bool) (*DeleteResult, error) {
	path := "/api/schedule/" + url.PathEscape(slug)
	if force {
		path += "?forceDelete=true"
	}

	var result DeleteResult
	err := c.do(ctx, http.MethodDelete, path, nil, &result)

	var apiErr *APIError
	if errors.As(err, &apiErr) && isRegistrationsConflict(apiErr) {
		apiErr.Err = ErrRegistrationsConflict
		return nil, apiErr
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func isRegistrationsConflict(e *APIError) bool {
	switch e.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(e.Message), "registrations")
	}
	return false
}

// Capacity - расписание с заполненностью каждой сессии
func (c *Client) Capacity(ctx context.Context, scheduleID int64) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/registrations/schedule/%d/capacity", scheduleID), nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// CapacityOf считает заполненность расписания по уже загруженным записям
func CapacityOf(schedule *model.Schedule, registrations []*model.Registration) model.Capacity {
	return model.ScheduleCapacity(schedule, registrations)
}

// SessionCapacityOf считает заполненность одной сессии
func SessionCapacityOf(session model.Session, registrations []*model.Registration) model.Capacity {
	return model.SessionCapacity(session, registrations)
}
