// Package models содержит доменные модели сервиса регистрации: учётную запись,
// её профиль, ожидающую подтверждения регистрацию, пригласительный билет
// и снимок настроек инстанса. Структуры используются в бизнес‑логике и при
// работе с хранилищем.
package models

import "time"

// Account представляет учётную запись пользователя.
type Account struct {
	ID            string    // Уникальный упорядоченный по времени идентификатор (UUIDv7)
	Username      string    // Имя пользователя в исходном регистре
	UsernameLower string    // Имя пользователя в нижнем регистре, по нему проверяется уникальность
	Host          *string   // nil для локальной учётной записи
	Token         string    // Собственный API-токен учётной записи
	CreatedAt     time.Time // Дата создания
}

// IsLocal сообщает, принадлежит ли учётная запись текущему инстансу.
func (a *Account) IsLocal() bool {
	return a.Host == nil
}

// Profile хранит данные профиля учётной записи (1:1 с Account).
type Profile struct {
	UserID          string
	PasswordHash    string
	Email           *string
	EmailVerified   bool
	EmailVerifyCode *string
}

// AccountView упрощённое клиентское представление учётной записи.
type AccountView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Host          *string   `json:"host"`
	CreatedAt     time.Time `json:"createdAt"`
	Email         *string   `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
}

// NewAccountView собирает AccountView из учётной записи и профиля.
func NewAccountView(a *Account, p *Profile) AccountView {
	view := AccountView{
		ID:        a.ID,
		Username:  a.Username,
		Host:      a.Host,
		CreatedAt: a.CreatedAt,
	}
	if p != nil {
		view.Email = p.Email
		view.EmailVerified = p.EmailVerified
	}
	return view
}
