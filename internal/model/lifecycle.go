package model

import (
	"fmt"
	"strings"
)

// StatusChange - запрошенное изменение статуса записи.
// RejectionReason обязателен для перехода в rejected.
type StatusChange struct {
	To              RegistrationStatus
	Notes           string
	RejectionReason string
}

// statusTransition - одно разрешённое ребро машины состояний
type statusTransition struct {
	From RegistrationStatus
	To   RegistrationStatus
}

var statusTransitions = []statusTransition{
	{From: RegistrationStatusPending, To: RegistrationStatusApproved},
	{From: RegistrationStatusPending, To: RegistrationStatusRejected},
}

// CanTransition сообщает, разрешён ли переход статуса
func CanTransition(from, to RegistrationStatus) bool {
	for _, tr := range statusTransitions {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}

// ValidateStatusChange проверяет изменение статуса для текущей записи.
// Используется и клиентом (до запроса), и сервером.
func ValidateStatusChange(current RegistrationStatus, change StatusChange) error {
	if !change.To.Valid() {
		return NewValidationError(fmt.Errorf("%w: %q", ErrInvalidStatus, change.To),
			FieldError{Field: "status", Error: "must be one of pending, approved, rejected"})
	}
	if change.To == RegistrationStatusRejected && strings.TrimSpace(change.RejectionReason) == "" {
		return NewValidationError(ErrRejectionReasonRequired,
			FieldError{Field: "rejectionReason", Error: ErrRejectionReasonRequired.Error()})
	}
	if !CanTransition(current, change.To) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, change.To)
	}
	return nil
}

// ValidatePaymentChange проверяет отметку оплаты: только для approved и только в paid/free
func ValidatePaymentChange(reg *Registration, to PaymentStatus) error {
	if to != PaymentStatusPaid && to != PaymentStatusFree {
		return NewValidationError(fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, to),
			FieldError{Field: "paymentStatus", Error: "must be one of paid, free"})
	}
	if !reg.IsApproved() {
		return ErrPaymentNotAllowed
	}
	if reg.PaymentStatus.Final() {
		return ErrPaymentFinalized
	}
	return nil
}

// ValidatePaymentLink проверяет возможность отправки ссылки на оплату
func ValidatePaymentLink(reg *Registration) error {
	if !reg.IsApproved() {
		return ErrPaymentNotAllowed
	}
	if reg.PaymentStatus.Final() {
		return ErrPaymentFinalized
	}
	return nil
}

// ComposeNotes собирает текст заметки так, как его видит оператор
func ComposeNotes(change StatusChange) string {
	notes := strings.TrimSpace(change.Notes)
	if change.To != RegistrationStatusRejected {
		return notes
	}
	reason := strings.TrimSpace(change.RejectionReason)
	if notes == "" {
		return reason
	}
	return reason + additionalNotesSeparator + notes
}

const additionalNotesSeparator = "\n\nAdditional Notes: "

// SplitNotes разбирает заметку, собранную ComposeNotes для отклонения:
// причина идёт первой, дополнительные заметки после разделителя
func SplitNotes(notes string) (reason, extra string) {
	reason, extra, _ = strings.Cut(notes, additionalNotesSeparator)
	return strings.TrimSpace(reason), strings.TrimSpace(extra)
}

// Action - действие, доступное оператору над записью
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionMarkPaid        Action = "mark_paid"
	ActionMarkFree        Action = "mark_free"
	ActionSendPaymentLink Action = "send_payment_link"
	ActionSendMessage     Action = "send_message"
)

// AvailableActions возвращает действия, разрешённые в текущем состоянии записи
func AvailableActions(reg *Registration) []Action {
	actions := []Action{ActionSendMessage}

	for _, tr := range statusTransitions {
		if tr.From != reg.Status {
			continue
		}
		switch tr.To {
		case RegistrationStatusApproved:
			actions = append(actions, ActionApprove)
		case RegistrationStatusRejected:
			actions = append(actions, ActionReject)
		}
	}

	if reg.IsApproved() && !reg.PaymentStatus.Final() {
		actions = append(actions, ActionSendPaymentLink, ActionMarkPaid, ActionMarkFree)
	}

	return actions
}

// HasAction проверяет наличие действия в списке доступных
func HasAction(reg *Registration, action Action) bool {
	for _, a := range AvailableActions(reg) {
		if a == action {
			return true
		}
	}
	return false
}
