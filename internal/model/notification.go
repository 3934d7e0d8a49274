package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationStatusChanged   NotificationKind = "status_changed"
	NotificationPaymentChanged  NotificationKind = "payment_changed"
	NotificationPaymentLink     NotificationKind = "payment_link"
	NotificationMessage         NotificationKind = "message"
	NotificationScheduleDeleted NotificationKind = "schedule_deleted"
)

type NotificationState string

const (
	NotificationStatePending NotificationState = "pending"
	NotificationStateSent    NotificationState = "sent"
	NotificationStateFailed  NotificationState = "failed" // попытки исчерпаны
)

// Notification - запись outbox, отправляется фоновым диспетчером
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	UserID    int64             `json:"userId"`
	Kind      NotificationKind  `json:"kind"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	State     NotificationState `json:"state"`
	Attempts  int               `json:"attempts"`
	LastError string            `json:"lastError,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	SentAt    *time.Time        `json:"sentAt,omitempty"`
}

func NewNotification(userID int64, kind NotificationKind, subject, body string) *Notification {
	return &Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Kind:    kind,
		Subject: subject,
		Body:    body,
		State:   NotificationStatePending,
	}
}
