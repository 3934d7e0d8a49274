package model

import "time"

type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"  // Ожидает решения администратора
	RegistrationStatusApproved RegistrationStatus = "approved" // Одобрена
	RegistrationStatusRejected RegistrationStatus = "rejected" // Отклонена, требуется причина
)

// Valid проверяет, что статус входит в допустимое множество
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected:
		return true
	}
	return false
}

// Terminal - approved и rejected больше не меняются
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationStatusApproved || s == RegistrationStatusRejected
}

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPending PaymentStatus = "pending" // Ссылка на оплату отправлена
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFree    PaymentStatus = "free"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid, PaymentStatusFree:
		return true
	}
	return false
}

// Final - оплата завершена (paid или free)
func (s PaymentStatus) Final() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFree
}

// Registration связывает студента с конкретной сессией расписания
type Registration struct {
	ID              int64              `json:"id"`
	UserID          int64              `json:"userId"`
	ScheduleID      int64              `json:"scheduleId"`
	SessionID       string             `json:"sessionId"`
	Status          RegistrationStatus `json:"status"`
	PaymentStatus   PaymentStatus      `json:"paymentStatus"`
	PaymentLink     string             `json:"paymentLink,omitempty"`
	Notes           string             `json:"notes"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`

	// Дополнительные поля для удобства (не из БД)
	User     *User     `json:"user,omitempty"`
	Schedule *Schedule `json:"schedule,omitempty"`
	Session  *Session  `json:"session,omitempty"`
}

// IsPending checks if registration is waiting for a decision
func (r *Registration) IsPending() bool {
	return r.Status == RegistrationStatusPending
}

// IsApproved checks if registration is approved
func (r *Registration) IsApproved() bool {
	return r.Status == RegistrationStatusApproved
}

// IsComplete - одобрена и оплата завершена
func (r *Registration) IsComplete() bool {
	return r.IsApproved() && r.PaymentStatus.Final()
}

// NewRegistration создаёт запись в начальном состоянии pending/unpaid
func NewRegistration(userID, scheduleID int64, sessionID string) *Registration {
	return &Registration{
		UserID:        userID,
		ScheduleID:    scheduleID,
		SessionID:     sessionID,
		Status:        RegistrationStatusPending,
		PaymentStatus: PaymentStatusUnpaid,
		Version:       1,
	}
}
