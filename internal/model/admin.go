package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleTutor Role = "tutor"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTutor
}

// Admin - учётная запись панели управления (администратор или тьютор)
type Admin struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TutorID      *int64    `json:"tutorId,omitempty"` // только для role = tutor
	CreatedAt    time.Time `json:"createdAt"`
}

// SetPassword хеширует пароль
func (a *Admin) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword сверяет пароль с хешем
func (a *Admin) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
}

// Principal - аутентифицированный пользователь запроса
type Principal struct {
	AdminID  int64  `json:"adminId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
	TutorID  *int64 `json:"tutorId,omitempty"`
}

func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p *Principal) IsTutor() bool {
	return p.Role == RoleTutor && p.TutorID != nil
}

// CanManageSchedule - админ управляет всеми расписаниями, тьютор только своими
func (p *Principal) CanManageSchedule(s *Schedule) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsTutor() && s.HasTutor(*p.TutorID)
}

func (a *Admin) Principal() *Principal {
	return &Principal{
		AdminID:  a.ID,
		Email:    a.Email,
		FullName: a.FullName,
		Role:     a.Role,
		TutorID:  a.TutorID,
	}
}
