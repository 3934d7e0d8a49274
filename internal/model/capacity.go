package model

// Capacity - производное представление заполненности сессии или расписания.
// Не хранится, пересчитывается при каждом чтении.
type Capacity struct {
	Enrolled  int     `json:"enrolledStudents"`
	Capacity  int     `json:"studentCapacity"`
	Available int     `json:"available"`
	IsFull    bool    `json:"isFull"`
	Percent   float64 `json:"enrolledPercent"`
}

// NewCapacity считает доступные места; available никогда не бывает отрицательным
func NewCapacity(enrolled, capacity int) Capacity {
	available := capacity - enrolled
	if available < 0 {
		available = 0
	}

	var percent float64
	if capacity > 0 {
		percent = float64(enrolled) / float64(capacity) * 100
	}

	return Capacity{
		Enrolled:  enrolled,
		Capacity:  capacity,
		Available: available,
		IsFull:    enrolled >= capacity,
		Percent:   percent,
	}
}

// CountApproved считает одобренные записи по сессиям
func CountApproved(registrations []*Registration) map[string]int {
	counts := make(map[string]int)
	for _, r := range registrations {
		if r.IsApproved() {
			counts[r.SessionID]++
		}
	}
	return counts
}

// SessionCapacity считает заполненность одной сессии по списку записей
func SessionCapacity(session Session, registrations []*Registration) Capacity {
	return NewCapacity(CountApproved(registrations)[session.ID], session.Capacity)
}

// ApplyCapacity заполняет Capacity расписания и его сессий по счётчикам одобренных записей
func ApplyCapacity(schedule *Schedule, approvedBySession map[string]int) {
	enrolled := 0
	for i := range schedule.Sessions {
		sess := &schedule.Sessions[i]
		c := NewCapacity(approvedBySession[sess.ID], sess.Capacity)
		sess.Availability = &c
		enrolled += c.Enrolled
	}
	total := NewCapacity(enrolled, schedule.TotalCapacity())
	schedule.Capacity = &total
}

// ScheduleCapacity считает заполненность расписания по списку его записей
func ScheduleCapacity(schedule *Schedule, registrations []*Registration) Capacity {
	ApplyCapacity(schedule, CountApproved(registrations))
	return *schedule.Capacity
}
