package formatting

import (
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// FormatSession - даты и время сессии
func FormatSession(s *model.Session) string {
	text := FormatDate(s.StartDate)
	if !s.EndDate.IsZero() && !s.EndDate.Equal(s.StartDate) {
		text += " - " + FormatDate(s.EndDate)
	}
	if s.Time != "" {
		text += ", " + s.Time
	}
	return text
}
