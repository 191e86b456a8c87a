package models

import "time"

// CaptchaProvider описывает включение и секрет одного провайдера капчи.
type CaptchaProvider struct {
	Enabled   bool
	SecretKey string
}

// Configured сообщает, нужно ли проверять ответ этого провайдера.
func (p CaptchaProvider) Configured() bool {
	return p.Enabled && p.SecretKey != ""
}

// Meta — снимок настроек инстанса, влияющих на регистрацию.
type Meta struct {
	Hcaptcha                CaptchaProvider
	Recaptcha               CaptchaProvider
	Turnstile               CaptchaProvider
	DisableRegistration     bool
	EnableRegistrationLimit bool
	EmailRequiredForSignup  bool
	PreservedUsernames      []string
	BannedEmailDomains      []string
}

// Signin — запись о входе в учётную запись.
type Signin struct {
	ID        string
	UserID    string
	IP        string
	UserAgent string
	Success   bool
	CreatedAt time.Time
}
