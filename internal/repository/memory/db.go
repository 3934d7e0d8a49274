// Package memory хранит данные в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory для локального запуска.
package memory

import (
	"sync"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

type DB struct {
	mu sync.RWMutex

	seq           int64
	users         map[int64]*model.User
	tutors        map[int64]*model.Tutor
	admins        map[int64]*model.Admin
	schedules     map[int64]*model.Schedule
	textKeys      map[int64]string
	registrations map[int64]*model.Registration
	notifications []*model.Notification

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:         make(map[int64]*model.User),
		tutors:        make(map[int64]*model.Tutor),
		admins:        make(map[int64]*model.Admin),
		schedules:     make(map[int64]*model.Schedule),
		textKeys:      make(map[int64]string),
		registrations: make(map[int64]*model.Registration),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// nextID вызывается под блокировкой
func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

func copySchedule(s *model.Schedule) *model.Schedule {
	c := *s
	c.Images = append([]string(nil), s.Images...)
	c.Sessions = append([]model.Session(nil), s.Sessions...)
	c.Capacity = nil
	for i := range c.Sessions {
		c.Sessions[i].Availability = nil
		c.Sessions[i].Tutor = nil
	}
	return &c
}

func copyRegistration(r *model.Registration) *model.Registration {
	c := *r
	c.User, c.Schedule, c.Session = nil, nil, nil
	return &c
}
