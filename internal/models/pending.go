package models

// PendingRegistration — регистрация, ожидающая подтверждения по email.
// Время создания закодировано в ID (UUIDv7).
type PendingRegistration struct {
	ID       string
	Code     string // Одноразовый код подтверждения
	Email    string
	Username string
	Password string // bcrypt-хэш пароля
}
