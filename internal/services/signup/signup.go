package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/signup-service/internal/captcha"
	"github.com/magabrotheeeer/signup-service/internal/lib/idgen"
	"github.com/magabrotheeeer/signup-service/internal/lib/password"
	"github.com/magabrotheeeer/signup-service/internal/lib/rndstr"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
	"github.com/magabrotheeeer/signup-service/internal/storage"
)

// Request запрос на регистрацию.
type Request struct {
	Username          string
	Password          string
	Host              *string // учитывается только в тестовом режиме
	InvitationCode    string
	EmailAddress      string
	HcaptchaResponse  string
	RecaptchaResponse string
	TurnstileResponse string
}

// Result итог регистрации. При Pending == true учётная запись ещё не
// создана и ожидает подтверждения email.
type Result struct {
	Pending bool
	Account models.AccountView
	Token   string
}

// Signup регистрирует учётную запись.
func (s *Service) Signup(ctx context.Context, req Request) (*Result, error) {
	const op = "signup.Signup"
	log := s.log.With(sl.Op(op), slog.String("username", req.Username))

	res, err := s.signup(ctx, req)
	if err != nil {
		var rejection *Error
		if errors.As(err, &rejection) {
			log.Info("signup rejected", slog.String("code", rejection.Code), sl.Err(err))
			s.deps.Metrics.SignupOutcome(rejection.Code)
			return nil, err
		}
		log.Error("signup failed", sl.Err(err))
		s.deps.Metrics.SignupOutcome("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.Pending {
		log.Info("pending registration created")
		s.deps.Metrics.SignupOutcome("pending")
	} else {
		log.Info("account created", slog.String("account_id", res.Account.ID))
		s.deps.Metrics.SignupOutcome("created")
	}
	return res, nil
}

func (s *Service) signup(ctx context.Context, req Request) (*Result, error) {
	meta, err := s.deps.Store.GetMeta(ctx)
	if err != nil {
		return nil, err
	}

	if !s.opts.TestMode {
		if err := s.verifyCaptcha(ctx, meta, req); err != nil {
			return nil, err
		}
	}

	var host *string
	if s.opts.TestMode {
		host = req.Host
	}

	if meta.EmailRequiredForSignup {
		if req.EmailAddress == "" {
			return nil, ErrEmailUnavailable
		}
		res, err := s.deps.EmailValidator.Validate(ctx, req.EmailAddress)
		if err != nil {
			return nil, err
		}
		if !res.Available {
			return nil, ErrEmailUnavailable.reveal(fmt.Errorf("email unavailable: %s", res.Reason))
		}
	}

	var ticket *models.RegistrationTicket
	if (meta.DisableRegistration || meta.EnableRegistrationLimit) && req.InvitationCode != "" {
		ticket, err = s.ValidateTicket(ctx, req.InvitationCode, meta.EmailRequiredForSignup)
		if err != nil {
			return nil, err
		}
	}

	if meta.DisableRegistration {
		if ticket == nil {
			return nil, ErrRegistrationClosed
		}
	} else if meta.EnableRegistrationLimit && ticket == nil {
		ok, err := s.deps.Limiter.IsAvailable(ctx, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRegistrationLimitExceeded
		}
	}

	if meta.EmailRequiredForSignup {
		if err := s.createPending(ctx, req, meta, ticket); err != nil {
			return nil, err
		}
		return &Result{Pending: true}, nil
	}
	return s.createAccount(ctx, req, host, ticket)
}

// captchaError сопоставляет ошибку проверки капчи с отказом. Ответ
// провайдера отдаётся клиенту, сбой запроса к провайдеру нет.
func captchaError(err error) error {
	if errors.Is(err, captcha.ErrRequestFailed) {
		return ErrCaptchaRejected.wrap(err)
	}
	return ErrCaptchaRejected.reveal(err)
}

func (s *Service) verifyCaptcha(ctx context.Context, meta *models.Meta, req Request) error {
	if meta.Hcaptcha.Configured() {
		if err := s.deps.Captcha.VerifyHcaptcha(ctx, meta.Hcaptcha.SecretKey, req.HcaptchaResponse); err != nil {
			return captchaError(err)
		}
	}
	if meta.Recaptcha.Configured() {
		if err := s.deps.Captcha.VerifyRecaptcha(ctx, meta.Recaptcha.SecretKey, req.RecaptchaResponse); err != nil {
			return captchaError(err)
		}
	}
	if meta.Turnstile.Configured() {
		if err := s.deps.Captcha.VerifyTurnstile(ctx, meta.Turnstile.SecretKey, req.TurnstileResponse); err != nil {
			return captchaError(err)
		}
	}
	return nil
}

// createPending сохраняет ожидающую регистрацию, закрепляет за ней билет
// и ставит письмо с ссылкой подтверждения в очередь.
func (s *Service) createPending(ctx context.Context, req Request, meta *models.Meta, ticket *models.RegistrationTicket) error {
	if err := s.CheckUsername(ctx, req.Username, meta.PreservedUsernames); err != nil {
		return err
	}
	if !accounts.ValidLocalUsername(req.Username) {
		return ErrAccountCreationFailed.reveal(accounts.ErrInvalidUsername)
	}
	if req.Password == "" {
		return ErrAccountCreationFailed.reveal(accounts.ErrInvalidPassword)
	}

	code, err := rndstr.Secure(codeLength, rndstr.UnambiguousChars)
	if err != nil {
		return err
	}
	hash, err := password.GetHash(req.Password)
	if err != nil {
		return err
	}
	id, err := idgen.New()
	if err != nil {
		return err
	}

	pending := &models.PendingRegistration{
		ID:       id,
		Code:     code,
		Email:    req.EmailAddress,
		Username: req.Username,
		Password: hash,
	}

	err = s.deps.Store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.deps.Store.CreatePending(ctx, pending); err != nil {
			return err
		}
		if ticket == nil {
			return nil
		}
		to := models.ProvisionallyAllocatedTicket(s.now(), pending.ID)
		return s.transitionTicket(ctx, ticket, to)
	})
	if err != nil {
		return err
	}

	s.sendConfirmation(ctx, pending)
	return nil
}

// sendConfirmation ставит письмо подтверждения в очередь. Ошибка отправки
// не отменяет регистрацию: она логируется и учитывается в метриках.
func (s *Service) sendConfirmation(ctx context.Context, pending *models.PendingRegistration) {
	const op = "signup.sendConfirmation"

	link := strings.TrimRight(s.opts.URL, "/") + "/signup-complete/" + pending.Code
	html := fmt.Sprintf(`To complete signup, please click this link:<br><a href="%s">%s</a>`, link, link)
	text := fmt.Sprintf("To complete signup, please click this link: %s", link)

	if err := s.deps.EmailSender.Send(ctx, pending.Email, "Signup", html, text); err != nil {
		s.log.Error("failed to queue signup confirmation",
			sl.Op(op),
			slog.String("pending_id", pending.ID),
			sl.Err(err),
		)
		s.deps.Metrics.MailPublishFailed()
	}
}

// createAccount создаёт учётную запись сразу и окончательно использует билет.
func (s *Service) createAccount(ctx context.Context, req Request, host *string, ticket *models.RegistrationTicket) (*Result, error) {
	var created *accounts.Result
	err := s.deps.Store.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.deps.Accounts.Create(ctx, accounts.Params{
			Username: req.Username,
			Password: req.Password,
			Host:     host,
		})
		if err != nil {
			return accountError(err)
		}
		created = res

		if ticket == nil {
			return nil
		}
		to := models.ConsumedTicket(res.Account.ID, s.now())
		return s.transitionTicket(ctx, ticket, to)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Account: models.NewAccountView(created.Account, created.Profile),
		Token:   created.Secret,
	}, nil
}

// transitionTicket переводит билет из прочитанного ранее состояния в to.
// Если билет успели занять параллельно, регистрация по нему закрыта.
func (s *Service) transitionTicket(ctx context.Context, ticket *models.RegistrationTicket, to models.TicketState) error {
	err := s.deps.Store.TransitionTicket(ctx, ticket.ID, ticket.State, to)
	if errors.Is(err, storage.ErrTicketConflict) {
		return ErrRegistrationClosed.wrap(err)
	}
	return err
}

// accountError сопоставляет ошибку создания учётной записи с отказом регистрации.
func accountError(err error) error {
	switch {
	case errors.Is(err, accounts.ErrDuplicatedUsername):
		return ErrDuplicatedUsername.wrap(err)
	case errors.Is(err, accounts.ErrUsedUsername):
		return ErrUsedUsername.wrap(err)
	case errors.Is(err, accounts.ErrDeniedUsername):
		return ErrDeniedUsername.wrap(err)
	case errors.Is(err, accounts.ErrInvalidUsername):
		return ErrAccountCreationFailed.describe(err, accounts.ErrInvalidUsername.Error())
	case errors.Is(err, accounts.ErrInvalidPassword):
		return ErrAccountCreationFailed.describe(err, accounts.ErrInvalidPassword.Error())
	default:
		return ErrAccountCreationFailed.wrap(err)
	}
}
