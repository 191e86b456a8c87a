package signup

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
)

// CheckUsername проверяет, свободно ли локальное имя: не занято действующей
// учётной записью, не использовалось ранее и не зарезервировано.
// Сравнение выполняется без учёта регистра.
func (s *Service) CheckUsername(ctx context.Context, username string, preserved []string) error {
	const op = "signup.CheckUsername"
	lower := strings.ToLower(username)

	exists, err := s.deps.Store.LocalUsernameExists(ctx, lower)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return ErrDuplicatedUsername
	}

	used, err := s.deps.Store.UsedUsernameExists(ctx, lower)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if used {
		return ErrUsedUsername
	}

	if accounts.IsPreserved(lower, preserved) {
		return ErrDeniedUsername
	}
	return nil
}
