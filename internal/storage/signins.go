package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/signup-service/internal/models"
)

// CreateSignin записывает факт входа в учётную запись.
func (s *Storage) CreateSignin(ctx context.Context, signin *models.Signin) error {
	const op = "storage.CreateSignin"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO signins (id, user_id, ip, user_agent, success)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`
	if err := s.conn(ctx).QueryRowContext(ctx, query,
		signin.ID, signin.UserID, signin.IP, signin.UserAgent, signin.Success).
		Scan(&signin.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
