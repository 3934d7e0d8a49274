package model

import "time"

// User - студент, подающий заявки на расписания
type User struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Verified    bool      `json:"verified"`
	TelegramID  *int64    `json:"telegramId,omitempty"` // указатель - может быть nil
	CreatedAt   time.Time `json:"createdAt"`
}
