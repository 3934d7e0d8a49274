package model

import "time"

type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusPublished ScheduleStatus = "published"
)

// Schedule - предложение из одной или нескольких сессий
type Schedule struct {
	ID        int64          `json:"id"`
	Slug      string         `json:"slug"`
	Title     string         `json:"title"`
	Text      string         `json:"text"`
	Price     int64          `json:"price"`
	Status    ScheduleStatus `json:"status"`
	Images    []string       `json:"images"`
	Sessions  []Session      `json:"sessions"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	// Вычисляется при чтении, не хранится
	Capacity *Capacity `json:"capacity,omitempty"`
}

// Session - конкретное занятие внутри расписания со своим тьютором и вместимостью
type Session struct {
	ID        string    `json:"id"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Time      string    `json:"time"`   // например "18:00-20:00"
	Period    float64   `json:"period"` // длительность в часах
	Capacity  int       `json:"capacity"`
	TutorID   int64     `json:"tutor"`

	Tutor        *Tutor    `json:"tutorInfo,omitempty"`
	Availability *Capacity `json:"availability,omitempty"`
}

// FindSession ищет сессию по id
func (s *Schedule) FindSession(sessionID string) *Session {
	for i := range s.Sessions {
		if s.Sessions[i].ID == sessionID {
			return &s.Sessions[i]
		}
	}
	return nil
}

// TotalCapacity - сумма вместимостей всех сессий
func (s *Schedule) TotalCapacity() int {
	total := 0
	for _, sess := range s.Sessions {
		total += sess.Capacity
	}
	return total
}

// TutorIDs возвращает уникальные id тьюторов сессий
func (s *Schedule) TutorIDs() []int64 {
	seen := make(map[int64]struct{}, len(s.Sessions))
	ids := make([]int64, 0, len(s.Sessions))
	for _, sess := range s.Sessions {
		if _, ok := seen[sess.TutorID]; ok {
			continue
		}
		seen[sess.TutorID] = struct{}{}
		ids = append(ids, sess.TutorID)
	}
	return ids
}

// HasTutor проверяет, назначен ли тьютор хотя бы на одну сессию
func (s *Schedule) HasTutor(tutorID int64) bool {
	for _, sess := range s.Sessions {
		if sess.TutorID == tutorID {
			return true
		}
	}
	return false
}
