// Package session выдаёт токен доступа новой учётной записи и фиксирует вход.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/signup-service/internal/lib/idgen"
	"github.com/magabrotheeeer/signup-service/internal/lib/jwt"
	"github.com/magabrotheeeer/signup-service/internal/lib/sl"
	"github.com/magabrotheeeer/signup-service/internal/models"
)

// Store сохраняет записи о входах.
type Store interface {
	CreateSignin(ctx context.Context, signin *models.Signin) error
}

// RequestMeta сведения о клиенте, выполнившем запрос.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Result ответ на успешный вход.
type Result struct {
	ID string `json:"id"`
	I  string `json:"i"`
}

// Issuer выдаёт сессии.
type Issuer struct {
	store    Store
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewIssuer создаёт Issuer.
func NewIssuer(store Store, jwtMaker jwt.Maker, log *slog.Logger) *Issuer {
	return &Issuer{store: store, jwtMaker: jwtMaker, log: log}
}

// Signin выпускает JWT для учётной записи и записывает факт входа.
// Ошибка записи журнала входов не прерывает выдачу токена.
func (i *Issuer) Signin(ctx context.Context, meta RequestMeta, account *models.Account) (*Result, error) {
	const op = "session.Signin"

	token, err := i.jwtMaker.GenerateToken(account.Username, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := idgen.New()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	signin := &models.Signin{
		ID:        id,
		UserID:    account.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Success:   true,
	}
	if err := i.store.CreateSignin(ctx, signin); err != nil {
		i.log.Error("failed to record signin",
			sl.Op(op),
			slog.String("account_id", account.ID),
			sl.Err(err),
		)
	}

	return &Result{ID: account.ID, I: token}, nil
}
