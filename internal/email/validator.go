package email

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/signup-service/internal/models"
)

// Причины недоступности адреса.
const (
	ReasonFormat = "format"
	ReasonUsed   = "used"
	ReasonBanned = "banned"
	ReasonMX     = "mx"
)

// Result — результат проверки адреса.
type Result struct {
	Available bool
	Reason    string
}

// Store — данные, необходимые для проверки адреса.
type Store interface {
	EmailInUse(ctx context.Context, email string) (bool, error)
	GetMeta(ctx context.Context) (*models.Meta, error)
}

// Resolver выполняет DNS-запросы MX-записей.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Validator проверяет, можно ли зарегистрировать учётную запись на адрес.
type Validator struct {
	store    Store
	validate *validator.Validate
	resolver Resolver
	checkMX  bool
}

// NewValidator создаёт Validator. Если resolver равен nil, MX-записи не проверяются.
func NewValidator(store Store, resolver Resolver) *Validator {
	return &Validator{
		store:    store,
		validate: validator.New(),
		resolver: resolver,
		checkMX:  resolver != nil,
	}
}

// Validate проверяет формат адреса, его занятость, домен и наличие MX-записей.
func (v *Validator) Validate(ctx context.Context, address string) (Result, error) {
	const op = "email.Validate"

	address = strings.TrimSpace(address)
	if err := v.validate.Var(address, "required,email"); err != nil {
		return Result{Reason: ReasonFormat}, nil
	}

	inUse, err := v.store.EmailInUse(ctx, address)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if inUse {
		return Result{Reason: ReasonUsed}, nil
	}

	domain := strings.ToLower(address[strings.LastIndex(address, "@")+1:])

	meta, err := v.store.GetMeta(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if isBanned(domain, meta.BannedEmailDomains) {
		return Result{Reason: ReasonBanned}, nil
	}

	if v.checkMX {
		records, err := v.resolver.LookupMX(ctx, domain)
		if err != nil || len(records) == 0 {
			return Result{Reason: ReasonMX}, nil
		}
	}

	return Result{Available: true}, nil
}

// isBanned сообщает, совпадает ли домен с запрещённым или является его поддоменом.
func isBanned(domain string, banned []string) bool {
	for _, b := range banned {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if domain == b || strings.HasSuffix(domain, "."+b) {
			return true
		}
	}
	return false
}
