package signup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/storage"
)

// ValidateTicket возвращает билет по коду, если его можно использовать сейчас.
// Отсутствующий, истёкший и использованный билеты неразличимы: во всех
// случаях возвращается nil без ошибки. Ошибка означает сбой хранилища.
func (s *Service) ValidateTicket(ctx context.Context, code string, emailRequired bool) (*models.RegistrationTicket, error) {
	const op = "signup.ValidateTicket"

	ticket, err := s.deps.Store.GetTicketByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !TicketUsable(ticket, emailRequired, s.now()) {
		return nil, nil
	}
	return ticket, nil
}

// TicketUsable решает, можно ли выдать билет новой регистрации в момент now.
//
// Использованный учётной записью или истёкший билет не выдаётся. При
// регистрации с подтверждением email билет, закреплённый за ожидающей
// регистрацией менее PendingExpiry назад, занят; более старое закрепление
// считается брошенным. Без подтверждения email билет одноразовый.
func TicketUsable(t *models.RegistrationTicket, emailRequired bool, now time.Time) bool {
	if t == nil {
		return false
	}
	if t.State.Kind == models.TicketConsumed {
		return false
	}
	if t.Expired(now) {
		return false
	}
	if emailRequired {
		return !t.State.LeaseActive(now, PendingExpiry)
	}
	return t.State.Kind == models.TicketUnused
}
