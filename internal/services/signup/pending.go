package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/signup-service/internal/lib/idgen"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
	"github.com/magabrotheeeer/signup-service/internal/services/session"
	"github.com/magabrotheeeer/signup-service/internal/storage"
)

// SignupPending завершает ожидающую регистрацию по коду подтверждения:
// создаёт учётную запись, подтверждает её email, окончательно использует
// закреплённый билет и выдаёт сессию.
func (s *Service) SignupPending(ctx context.Context, code string, meta session.RequestMeta) (*session.Result, error) {
	const op = "signup.SignupPending"
	log := s.log.With(sl.Op(op))

	account, err := s.completePending(ctx, code)
	if err != nil {
		var rejection *Error
		if errors.As(err, &rejection) {
			log.Info("pending completion rejected", slog.String("code", rejection.Code), sl.Err(err))
			s.deps.Metrics.PendingOutcome(rejection.Code)
			return nil, err
		}
		log.Error("pending completion failed", sl.Err(err))
		s.deps.Metrics.PendingOutcome("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.deps.Sessions.Signin(ctx, meta, account)
	if err != nil {
		log.Error("failed to issue session", slog.String("account_id", account.ID), sl.Err(err))
		s.deps.Metrics.PendingOutcome("error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("pending registration completed", slog.String("account_id", account.ID))
	s.deps.Metrics.PendingOutcome("completed")
	return res, nil
}

// completePending выполняет создание учётной записи, удаление ожидающей
// регистрации, подтверждение email и использование билета в одной транзакции.
func (s *Service) completePending(ctx context.Context, code string) (*models.Account, error) {
	pending, err := s.deps.Store.GetPendingByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}

	createdAt, err := idgen.Time(pending.ID)
	if err != nil {
		return nil, err
	}
	if s.now().Sub(createdAt) >= PendingExpiry {
		return nil, ErrPendingExpired
	}

	var account *models.Account
	err = s.deps.Store.WithTx(ctx, func(ctx context.Context) error {
		// Удаление первым блокирует запись: параллельное подтверждение тем же
		// кодом дождётся фиксации и получит PendingNotFound.
		if err := s.deps.Store.DeletePending(ctx, pending.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrPendingNotFound
			}
			return err
		}

		res, err := s.deps.Accounts.CreateWithHash(ctx, accounts.HashedParams{
			Username:     pending.Username,
			PasswordHash: pending.Password,
		})
		if err != nil {
			return accountError(err)
		}

		if err := s.deps.Store.VerifyProfileEmail(ctx, res.Account.ID, pending.Email); err != nil {
			return err
		}

		ticket, err := s.deps.Store.GetTicketByPendingID(ctx, pending.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return err
		default:
			at := ticket.State.Since
			if at.IsZero() {
				at = s.now()
			}
			to := models.ConsumedTicket(res.Account.ID, at)
			if err := s.transitionTicket(ctx, ticket, to); err != nil {
				return err
			}
		}

		account = res.Account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
