package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/magabrotheeeer/signup-service/internal/models"
)

// GetMeta читает текущий снимок настроек инстанса. Значение не кэшируется:
// изменения администратора видны со следующего вызова.
func (s *Storage) GetMeta(ctx context.Context) (*models.Meta, error) {
	const op = "storage.GetMeta"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT enable_hcaptcha, COALESCE(hcaptcha_secret_key, ''),
			         enable_recaptcha, COALESCE(recaptcha_secret_key, ''),
			         enable_turnstile, COALESCE(turnstile_secret_key, ''),
			         disable_registration, enable_registration_limit, email_required_for_signup,
			         preserved_usernames, banned_email_domains
			  FROM meta
			  WHERE id = 1`

	m := &models.Meta{}
	types := pgtype.NewMap()
	err := s.conn(ctx).QueryRowContext(ctx, query).Scan(
		&m.Hcaptcha.Enabled, &m.Hcaptcha.SecretKey,
		&m.Recaptcha.Enabled, &m.Recaptcha.SecretKey,
		&m.Turnstile.Enabled, &m.Turnstile.SecretKey,
		&m.DisableRegistration, &m.EnableRegistrationLimit, &m.EmailRequiredForSignup,
		types.SQLScanner(&m.PreservedUsernames), types.SQLScanner(&m.BannedEmailDomains),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// UpdateMeta сохраняет снимок настроек инстанса.
func (s *Storage) UpdateMeta(ctx context.Context, m *models.Meta) error {
	const op = "storage.UpdateMeta"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	preserved := m.PreservedUsernames
	if preserved == nil {
		preserved = []string{}
	}
	banned := m.BannedEmailDomains
	if banned == nil {
		banned = []string{}
	}

	query := `UPDATE meta SET
			      enable_hcaptcha = $1, hcaptcha_secret_key = $2,
			      enable_recaptcha = $3, recaptcha_secret_key = $4,
			      enable_turnstile = $5, turnstile_secret_key = $6,
			      disable_registration = $7, enable_registration_limit = $8,
			      email_required_for_signup = $9,
			      preserved_usernames = $10, banned_email_domains = $11
			  WHERE id = 1`
	if _, err := s.conn(ctx).ExecContext(ctx, query,
		m.Hcaptcha.Enabled, m.Hcaptcha.SecretKey,
		m.Recaptcha.Enabled, m.Recaptcha.SecretKey,
		m.Turnstile.Enabled, m.Turnstile.SecretKey,
		m.DisableRegistration, m.EnableRegistrationLimit, m.EmailRequiredForSignup,
		preserved, banned); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
