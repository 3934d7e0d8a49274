package model

// RegistrationFilter - фильтр списка записей, как в админке
type RegistrationFilter string

const (
	FilterAll      RegistrationFilter = "all"
	FilterPending  RegistrationFilter = "pending"
	FilterApproved RegistrationFilter = "approved"
	FilterRejected RegistrationFilter = "rejected"
	FilterPaid     RegistrationFilter = "paid"
	FilterUnpaid   RegistrationFilter = "unpaid" // одобрена, но не оплачена
)

// ParseRegistrationFilter приводит строку к фильтру; пустая строка - all
func ParseRegistrationFilter(s string) (RegistrationFilter, bool) {
	switch f := RegistrationFilter(s); f {
	case "":
		return FilterAll, true
	case FilterAll, FilterPending, FilterApproved, FilterRejected, FilterPaid, FilterUnpaid:
		return f, true
	}
	return "", false
}

// Match проверяет, подходит ли запись под фильтр
func (f RegistrationFilter) Match(r *Registration) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterPaid:
		return r.PaymentStatus == PaymentStatusPaid
	case FilterUnpaid:
		return r.PaymentStatus == PaymentStatusUnpaid && r.IsApproved()
	default:
		return r.Status == RegistrationStatus(f)
	}
}

// Apply оставляет только подходящие записи
func (f RegistrationFilter) Apply(registrations []*Registration) []*Registration {
	out := make([]*Registration, 0, len(registrations))
	for _, r := range registrations {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// RegistrationStats - сводка по записям расписания
type RegistrationStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
	Paid     int `json:"paid"`
	Unpaid   int `json:"unpaid"`
}

func ComputeStats(registrations []*Registration) RegistrationStats {
	stats := RegistrationStats{Total: len(registrations)}
	for _, r := range registrations {
		switch r.Status {
		case RegistrationStatusApproved:
			stats.Approved++
		case RegistrationStatusPending:
			stats.Pending++
		case RegistrationStatusRejected:
			stats.Rejected++
		}
		if r.PaymentStatus == PaymentStatusPaid {
			stats.Paid++
		}
		if FilterUnpaid.Match(r) {
			stats.Unpaid++
		}
	}
	return stats
}

// Page - параметры пагинации
type Page struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize выставляет значения по умолчанию и ограничивает limit
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages считает количество страниц для totalItems
func (p Page) TotalPages(totalItems int) int {
	if totalItems == 0 {
		return 1
	}
	return (totalItems + p.Limit - 1) / p.Limit
}

// ScheduleQuery - параметры списка расписаний
type ScheduleQuery struct {
	Search string
	Status ScheduleStatus // пусто - все
	Page   Page
}

// RegistrationQuery - параметры общего списка записей
type RegistrationQuery struct {
	Status RegistrationStatus // пусто - все
	Page   Page
}
