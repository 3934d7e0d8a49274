package formatting

import "github.com/Freeeeeet/schedule_registrations/internal/model"

// StatusDisplay представляет отображение статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

// GetRegistrationStatusDisplay возвращает emoji и текст для статуса записи
func GetRegistrationStatusDisplay(status model.RegistrationStatus) StatusDisplay {
	displays := map[model.RegistrationStatus]StatusDisplay{
		model.RegistrationStatusPending:  {"⏳", "Waiting for approval"},
		model.RegistrationStatusApproved: {"✅", "Approved"},
		model.RegistrationStatusRejected: {"🚫", "Rejected"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}

// GetPaymentStatusDisplay возвращает emoji и текст для статуса оплаты
func GetPaymentStatusDisplay(status model.PaymentStatus) StatusDisplay {
	displays := map[model.PaymentStatus]StatusDisplay{
		model.PaymentStatusUnpaid:  {"💤", "Not paid"},
		model.PaymentStatusPending: {"💳", "Payment pending"},
		model.PaymentStatusPaid:    {"💰", "Paid"},
		model.PaymentStatusFree:    {"🎁", "Free"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}
