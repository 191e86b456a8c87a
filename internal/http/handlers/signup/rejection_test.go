package signup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signup-service/internal/captcha"
	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
	signupservice "github.com/magabrotheeeer/signup-service/internal/services/signup"
)

// stubStore реализует только методы, нужные немедленной регистрации.
type stubStore struct {
	signupservice.Store
	meta *models.Meta
}

func (s *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *stubStore) GetMeta(context.Context) (*models.Meta, error) {
	return s.meta, nil
}

type stubAccounts struct {
	signupservice.AccountCreator
	err error
}

func (s *stubAccounts) Create(context.Context, accounts.Params) (*accounts.Result, error) {
	return nil, s.err
}

type stubCaptcha struct {
	signupservice.CaptchaVerifier
	err error
}

func (s *stubCaptcha) VerifyHcaptcha(context.Context, string, string) error {
	return s.err
}

func TestHandler_RejectionMessages(t *testing.T) {
	hcaptchaMeta := &models.Meta{Hcaptcha: models.CaptchaProvider{Enabled: true, SecretKey: "secret"}}

	tests := []struct {
		name        string
		meta        *models.Meta
		accountErr  error
		captchaErr  error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "invalid username reaches client",
			meta:        &models.Meta{},
			accountErr:  fmt.Errorf("accounts.Create: %w", accounts.ErrInvalidUsername),
			wantCode:    "ACCOUNT_CREATION_FAILED",
			wantMessage: "invalid username",
		},
		{
			name:        "invalid password reaches client",
			meta:        &models.Meta{},
			accountErr:  fmt.Errorf("accounts.Create: %w", accounts.ErrInvalidPassword),
			wantCode:    "ACCOUNT_CREATION_FAILED",
			wantMessage: "invalid password",
		},
		{
			name:        "storage failure hidden",
			meta:        &models.Meta{},
			accountErr:  fmt.Errorf("accounts.Create: %w", errors.New("pq: connection reset by peer")),
			wantCode:    "ACCOUNT_CREATION_FAILED",
			wantMessage: "account creation failed",
		},
		{
			name:        "provider error codes reach client",
			meta:        hcaptchaMeta,
			captchaErr:  errors.New("hcaptcha-failed: invalid-input-response"),
			wantCode:    "CAPTCHA_REJECTED",
			wantMessage: "hcaptcha-failed: invalid-input-response",
		},
		{
			name:        "provider transport failure hidden",
			meta:        hcaptchaMeta,
			captchaErr:  fmt.Errorf("hcaptcha-%w: %w", captcha.ErrRequestFailed, errors.New("dial tcp 10.1.2.3:443: i/o timeout")),
			wantCode:    "CAPTCHA_REJECTED",
			wantMessage: "captcha verification failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := signupservice.New(newNoopLogger(), signupservice.Deps{
				Store:    &stubStore{meta: tt.meta},
				Captcha:  &stubCaptcha{err: tt.captchaErr},
				Accounts: &stubAccounts{err: tt.accountErr},
			}, signupservice.Options{})

			rec := doRequest(t, New(newNoopLogger(), service), `{"username":"bad name","password":"pw","hcaptcha-response":"token"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var got struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantCode, got.Error.Code)
			assert.Equal(t, tt.wantMessage, got.Error.Message)
		})
	}
}
