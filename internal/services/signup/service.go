// Package signup реализует регистрацию учётных записей: проверку капчи,
// пригласительных билетов, лимита регистраций и имени пользователя,
// немедленное создание учётной записи или ожидающую регистрацию
// с подтверждением по email.
package signup

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/signup-service/internal/email"
	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
	"github.com/magabrotheeeer/signup-service/internal/services/session"
)

// PendingExpiry время жизни ожидающей регистрации и срок, на который
// билет закрепляется за ней.
const PendingExpiry = 30 * time.Minute

// codeLength длина кода подтверждения email.
const codeLength = 16

// Store описывает операции хранилища, используемые регистрацией.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetMeta(ctx context.Context) (*models.Meta, error)

	GetTicketByCode(ctx context.Context, code string) (*models.RegistrationTicket, error)
	GetTicketByPendingID(ctx context.Context, pendingID string) (*models.RegistrationTicket, error)
	TransitionTicket(ctx context.Context, id string, from, to models.TicketState) error

	LocalUsernameExists(ctx context.Context, usernameLower string) (bool, error)
	UsedUsernameExists(ctx context.Context, usernameLower string) (bool, error)

	CreatePending(ctx context.Context, p *models.PendingRegistration) error
	GetPendingByCode(ctx context.Context, code string) (*models.PendingRegistration, error)
	DeletePending(ctx context.Context, id string) error

	VerifyProfileEmail(ctx context.Context, userID, email string) error
}

// CaptchaVerifier проверяет ответы провайдеров капчи.
type CaptchaVerifier interface {
	VerifyHcaptcha(ctx context.Context, secret, response string) error
	VerifyRecaptcha(ctx context.Context, secret, response string) error
	VerifyTurnstile(ctx context.Context, secret, response string) error
}

// EmailValidator проверяет пригодность адреса для регистрации.
type EmailValidator interface {
	Validate(ctx context.Context, address string) (email.Result, error)
}

// EmailSender отправляет письмо.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// AccountCreator создаёт учётные записи.
type AccountCreator interface {
	Create(ctx context.Context, p accounts.Params) (*accounts.Result, error)
	CreateWithHash(ctx context.Context, p accounts.HashedParams) (*accounts.Result, error)
}

// Limiter решает, разрешена ли сейчас открытая регистрация.
type Limiter interface {
	IsAvailable(ctx context.Context, consuming bool) (bool, error)
}

// SessionIssuer выдаёт сессию новой учётной записи.
type SessionIssuer interface {
	Signin(ctx context.Context, meta session.RequestMeta, account *models.Account) (*session.Result, error)
}

// Recorder собирает метрики исходов регистрации.
type Recorder interface {
	SignupOutcome(outcome string)
	PendingOutcome(outcome string)
	MailPublishFailed()
}

// Deps зависимости Service.
type Deps struct {
	Store          Store
	Captcha        CaptchaVerifier
	EmailValidator EmailValidator
	EmailSender    EmailSender
	Accounts       AccountCreator
	Limiter        Limiter
	Sessions       SessionIssuer
	Metrics        Recorder
}

// Options настройки регистрации.
type Options struct {
	// TestMode отключает проверку капчи и разрешает указывать host.
	TestMode bool
	// URL публичный адрес инстанса для ссылки подтверждения.
	URL string
}

// Service выполняет регистрацию и подтверждение ожидающих регистраций.
type Service struct {
	log  *slog.Logger
	deps Deps
	opts Options
	now  func() time.Time
}

// New создаёт Service.
func New(log *slog.Logger, deps Deps, opts Options) *Service {
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	return &Service{
		log:  log,
		deps: deps,
		opts: opts,
		now:  time.Now,
	}
}

type nopRecorder struct{}

func (nopRecorder) SignupOutcome(string)  {}
func (nopRecorder) PendingOutcome(string) {}
func (nopRecorder) MailPublishFailed()    {}
