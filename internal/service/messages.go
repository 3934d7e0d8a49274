package service

import (
	"fmt"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

// Тексты уведомлений студентам

func scheduleTitle(reg *model.Registration) string {
	if reg.Schedule != nil {
		return reg.Schedule.Title
	}
	return fmt.Sprintf("schedule #%d", reg.ScheduleID)
}

func statusMessage(reg *model.Registration) (string, string) {
	title := scheduleTitle(reg)

	switch reg.Status {
	case model.RegistrationStatusApproved:
		body := fmt.Sprintf("Your registration for %s has been approved.", title)
		if reg.Session != nil {
			body += fmt.Sprintf(" The session starts on %s at %s.", reg.Session.StartDate.Format("02 Jan 2006"), reg.Session.Time)
		}
		if reg.Notes != "" {
			body += "\n\n" + reg.Notes
		}
		return "Registration approved: " + title, body
	case model.RegistrationStatusRejected:
		return "Registration rejected: " + title,
			fmt.Sprintf("Unfortunately your registration for %s has been rejected.\n\nReason: %s", title, reg.Notes)
	}
	return "Registration updated: " + title, fmt.Sprintf("Your registration for %s is now %s.", title, reg.Status)
}

func paymentMessage(reg *model.Registration) (string, string) {
	title := scheduleTitle(reg)
	if reg.PaymentStatus == model.PaymentStatusFree {
		return "Payment waived: " + title, fmt.Sprintf("No payment is required for %s. See you there!", title)
	}
	return "Payment received: " + title, fmt.Sprintf("We have received your payment for %s. Thank you!", title)
}

func paymentLinkMessage(reg *model.Registration) (string, string) {
	title := scheduleTitle(reg)
	return "Payment link: " + title,
		fmt.Sprintf("Please complete the payment for %s using the link below:\n%s", title, reg.PaymentLink)
}

func scheduleDeletedMessage(schedule *model.Schedule) (string, string) {
	return "Schedule cancelled: " + schedule.Title,
		fmt.Sprintf("%s has been cancelled and your registration was removed. We apologise for the inconvenience.", schedule.Title)
}
