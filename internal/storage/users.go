package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/signup-service/internal/models"
)

// LocalUsernameExists сообщает, занято ли имя локальной учётной записью.
func (s *Storage) LocalUsernameExists(ctx context.Context, usernameLower string) (bool, error) {
	const op = "storage.LocalUsernameExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (
			      SELECT 1 FROM users WHERE username_lower = $1 AND host IS NULL
			  )`
	if err := s.conn(ctx).QueryRowContext(ctx, query, usernameLower).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// UsedUsernameExists сообщает, использовалось ли имя ранее удалённой учётной записью.
func (s *Storage) UsedUsernameExists(ctx context.Context, usernameLower string) (bool, error) {
	const op = "storage.UsedUsernameExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM used_usernames WHERE username = $1)`
	if err := s.conn(ctx).QueryRowContext(ctx, query, usernameLower).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateAccount сохраняет учётную запись и её профиль. При нарушении
// уникальности имени возвращает ErrUsernameConflict.
func (s *Storage) CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	return s.WithTx(ctx, func(ctx context.Context) error {
		db := s.conn(ctx)

		query := `INSERT INTO users (id, username, username_lower, host, token)
				  VALUES ($1, $2, $3, $4, $5)
				  RETURNING created_at`
		err := db.QueryRowContext(ctx, query,
			account.ID, account.Username, account.UsernameLower,
			nullString(account.Host), account.Token).Scan(&account.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s: %w", op, ErrUsernameConflict)
			}
			return fmt.Errorf("%s: insert user: %w", op, err)
		}

		query = `INSERT INTO user_profiles (user_id, password_hash, email, email_verified, email_verify_code)
				 VALUES ($1, $2, $3, $4, $5)`
		if _, err := db.ExecContext(ctx, query,
			profile.UserID, profile.PasswordHash, nullString(profile.Email),
			profile.EmailVerified, nullString(profile.EmailVerifyCode)); err != nil {
			return fmt.Errorf("%s: insert profile: %w", op, err)
		}
		return nil
	})
}

// GetProfile возвращает профиль учётной записи.
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT user_id, COALESCE(password_hash, ''), email, email_verified, email_verify_code
			  FROM user_profiles
			  WHERE user_id = $1`
	p := &models.Profile{}
	var email, code sql.NullString
	err := s.conn(ctx).QueryRowContext(ctx, query, userID).
		Scan(&p.UserID, &p.PasswordHash, &email, &p.EmailVerified, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.Email = stringPtr(email)
	p.EmailVerifyCode = stringPtr(code)
	return p, nil
}

// VerifyProfileEmail записывает подтверждённый адрес в профиль.
func (s *Storage) VerifyProfileEmail(ctx context.Context, userID, email string) error {
	const op = "storage.VerifyProfileEmail"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE user_profiles
			  SET email = $2, email_verified = TRUE, email_verify_code = NULL
			  WHERE user_id = $1`
	res, err := s.conn(ctx).ExecContext(ctx, query, userID, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// EmailInUse сообщает, подтверждён ли адрес каким-либо профилем.
func (s *Storage) EmailInUse(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailInUse"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (
			      SELECT 1 FROM user_profiles WHERE email_verified AND LOWER(email) = $1
			  )`
	if err := s.conn(ctx).QueryRowContext(ctx, query, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
