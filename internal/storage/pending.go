package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/signup-service/internal/lib/idgen"
	"github.com/magabrotheeeer/signup-service/internal/models"
)

// CreatePending сохраняет ожидающую подтверждения регистрацию.
func (s *Storage) CreatePending(ctx context.Context, p *models.PendingRegistration) error {
	const op = "storage.CreatePending"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO user_pendings (id, code, email, username, password)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.conn(ctx).ExecContext(ctx, query,
		p.ID, p.Code, p.Email, p.Username, p.Password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPendingByCode возвращает ожидающую регистрацию по коду подтверждения.
func (s *Storage) GetPendingByCode(ctx context.Context, code string) (*models.PendingRegistration, error) {
	const op = "storage.GetPendingByCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, code, email, username, password
			  FROM user_pendings
			  WHERE code = $1`
	p := &models.PendingRegistration{}
	err := s.conn(ctx).QueryRowContext(ctx, query, code).
		Scan(&p.ID, &p.Code, &p.Email, &p.Username, &p.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// DeletePending удаляет ожидающую регистрацию. Если запись уже удалена,
// возвращает ErrNotFound.
func (s *Storage) DeletePending(ctx context.Context, id string) error {
	const op = "storage.DeletePending"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM user_pendings WHERE id = $1`, id)
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

// DeletePendingsBefore удаляет ожидающие регистрации, созданные раньше before,
// и возвращает число удалённых записей. Момент создания закодирован в UUIDv7,
// поэтому сравнивается сам идентификатор.
func (s *Storage) DeletePendingsBefore(ctx context.Context, before time.Time) (int64, error) {
	const op = "storage.DeletePendingsBefore"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM user_pendings WHERE id < $1`, idgen.Floor(before))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
