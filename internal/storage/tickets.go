package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/signup-service/internal/models"
)

const ticketColumns = `id, code, expires_at, used_at, used_by_id, pending_user_id, created_at`

// CreateTicket сохраняет новый неиспользованный билет.
func (s *Storage) CreateTicket(ctx context.Context, t *models.RegistrationTicket) error {
	const op = "storage.CreateTicket"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	var expiresAt sql.NullTime
	if t.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *t.ExpiresAt, Valid: true}
	}
	query := `INSERT INTO registration_tickets (id, code, expires_at)
			  VALUES ($1, $2, $3)
			  RETURNING created_at`
	if err := s.conn(ctx).QueryRowContext(ctx, query, t.ID, t.Code, expiresAt).Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	t.State = models.UnusedTicket()
	return nil
}

// GetTicketByCode возвращает билет по коду приглашения.
func (s *Storage) GetTicketByCode(ctx context.Context, code string) (*models.RegistrationTicket, error) {
	const op = "storage.GetTicketByCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + ticketColumns + ` FROM registration_tickets WHERE code = $1`
	t, err := scanTicket(s.conn(ctx).QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// GetTicketByPendingID возвращает билет, закреплённый за ожидающей регистрацией.
func (s *Storage) GetTicketByPendingID(ctx context.Context, pendingID string) (*models.RegistrationTicket, error) {
	const op = "storage.GetTicketByPendingID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + ticketColumns + ` FROM registration_tickets
			  WHERE pending_user_id = $1 AND used_by_id IS NULL
			  ORDER BY used_at DESC
			  LIMIT 1`
	t, err := scanTicket(s.conn(ctx).QueryRowContext(ctx, query, pendingID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// TransitionTicket переводит билет из состояния from в состояние to.
// Обновление выполняется только если в базе билет всё ещё находится в from,
// иначе возвращается ErrTicketConflict.
func (s *Storage) TransitionTicket(ctx context.Context, id string, from, to models.TicketState) error {
	const op = "storage.TransitionTicket"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if from.Kind == models.TicketConsumed {
		return fmt.Errorf("%s: %w", op, ErrTicketConflict)
	}

	fromUsedAt, _, fromPending := ticketStateColumns(from)
	toUsedAt, toUsedBy, toPending := ticketStateColumns(to)

	query := `UPDATE registration_tickets
			  SET used_at = $2, used_by_id = $3, pending_user_id = $4
			  WHERE id = $1
			    AND used_by_id IS NULL
			    AND used_at IS NOT DISTINCT FROM $5
			    AND pending_user_id IS NOT DISTINCT FROM $6`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		id, toUsedAt, toUsedBy, toPending, fromUsedAt, fromPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrTicketConflict)
	}
	return nil
}

// ticketStateColumns раскладывает состояние билета по колонкам used_at,
// used_by_id и pending_user_id.
func ticketStateColumns(st models.TicketState) (usedAt sql.NullTime, usedBy, pending sql.NullString) {
	switch st.Kind {
	case models.TicketProvisionallyAllocated:
		usedAt = sql.NullTime{Time: st.Since, Valid: true}
		pending = sql.NullString{String: st.PendingID, Valid: st.PendingID != ""}
	case models.TicketConsumed:
		usedAt = sql.NullTime{Time: st.At, Valid: true}
		usedBy = sql.NullString{String: st.AccountID, Valid: true}
	}
	return usedAt, usedBy, pending
}

func scanTicket(row *sql.Row) (*models.RegistrationTicket, error) {
	t := &models.RegistrationTicket{}
	var (
		expiresAt, usedAt sql.NullTime
		usedBy, pending   sql.NullString
	)
	err := row.Scan(&t.ID, &t.Code, &expiresAt, &usedAt, &usedBy, &pending, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		v := expiresAt.Time
		t.ExpiresAt = &v
	}
	t.State = ticketState(usedAt, usedBy, pending)
	return t, nil
}

func ticketState(usedAt sql.NullTime, usedBy, pending sql.NullString) models.TicketState {
	switch {
	case usedBy.Valid:
		var at time.Time
		if usedAt.Valid {
			at = usedAt.Time
		}
		return models.ConsumedTicket(usedBy.String, at)
	case usedAt.Valid:
		return models.ProvisionallyAllocatedTicket(usedAt.Time, pending.String)
	default:
		return models.UnusedTicket()
	}
}
