// Package accounts создаёт локальные учётные записи: по открытому паролю
// при немедленной регистрации и по готовому хэшу при подтверждении email.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/magabrotheeeer/signup-service/internal/lib/idgen"
	"github.com/magabrotheeeer/signup-service/internal/lib/password"
	"github.com/magabrotheeeer/signup-service/internal/lib/rndstr"
	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/storage"
)

// tokenLength длина API-токена учётной записи.
const tokenLength = 16

var usernamePattern = regexp.MustCompile(`^\w{1,20}$`)

var (
	// ErrInvalidUsername имя не соответствует допустимому формату.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword пустой пароль.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrDuplicatedUsername имя уже занято.
	ErrDuplicatedUsername = errors.New("duplicated username")
	// ErrUsedUsername имя принадлежало удалённой учётной записи.
	ErrUsedUsername = errors.New("used username")
	// ErrDeniedUsername имя зарезервировано инстансом.
	ErrDeniedUsername = errors.New("denied username")
)

// Store описывает операции хранилища, нужные для создания учётной записи.
type Store interface {
	UsedUsernameExists(ctx context.Context, usernameLower string) (bool, error)
	GetMeta(ctx context.Context) (*models.Meta, error)
	CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error
}

// Params параметры создания по открытому паролю.
type Params struct {
	Username string
	Password string
	Host     *string
}

// HashedParams параметры создания по уже вычисленному bcrypt-хэшу.
type HashedParams struct {
	Username     string
	PasswordHash string
	Host         *string
}

// Result созданная учётная запись и её API-токен.
type Result struct {
	Account *models.Account
	Profile *models.Profile
	Secret  string
}

// Creator создаёт учётные записи.
type Creator struct {
	store Store
}

// NewCreator создаёт Creator.
func NewCreator(store Store) *Creator {
	return &Creator{store: store}
}

// Create хэширует пароль и создаёт учётную запись.
func (c *Creator) Create(ctx context.Context, p Params) (*Result, error) {
	const op = "accounts.Create"

	if p.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
	}
	if err := c.checkUsername(ctx, p.Username, p.Host); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(p.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := c.insert(ctx, p.Username, hash, p.Host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// CreateWithHash создаёт учётную запись с переданным хэшем без повторного хэширования.
func (c *Creator) CreateWithHash(ctx context.Context, p HashedParams) (*Result, error) {
	const op = "accounts.CreateWithHash"

	if p.PasswordHash == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
	}
	if err := c.checkUsername(ctx, p.Username, p.Host); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := c.insert(ctx, p.Username, p.PasswordHash, p.Host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// checkUsername проверяет формат локального имени, журнал использованных
// имён и зарезервированный список. Занятость имени проверяется уникальным
// индексом при вставке.
func (c *Creator) checkUsername(ctx context.Context, username string, host *string) error {
	if host != nil {
		if username == "" {
			return ErrInvalidUsername
		}
		return nil
	}
	if !ValidLocalUsername(username) {
		return ErrInvalidUsername
	}

	lower := strings.ToLower(username)
	used, err := c.store.UsedUsernameExists(ctx, lower)
	if err != nil {
		return err
	}
	if used {
		return ErrUsedUsername
	}

	meta, err := c.store.GetMeta(ctx)
	if err != nil {
		return err
	}
	if IsPreserved(lower, meta.PreservedUsernames) {
		return ErrDeniedUsername
	}
	return nil
}

func (c *Creator) insert(ctx context.Context, username, hash string, host *string) (*Result, error) {
	id, err := idgen.New()
	if err != nil {
		return nil, err
	}
	secret, err := rndstr.Secure(tokenLength, rndstr.AlphanumericChars)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:            id,
		Username:      username,
		UsernameLower: strings.ToLower(username),
		Host:          host,
		Token:         secret,
	}
	profile := &models.Profile{
		UserID:       id,
		PasswordHash: hash,
	}

	if err := c.store.CreateAccount(ctx, account, profile); err != nil {
		if errors.Is(err, storage.ErrUsernameConflict) {
			return nil, ErrDuplicatedUsername
		}
		return nil, err
	}
	return &Result{Account: account, Profile: profile, Secret: secret}, nil
}

// ValidLocalUsername сообщает, допустимо ли имя для локальной учётной записи.
func ValidLocalUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsPreserved сообщает, входит ли имя в список зарезервированных без учёта регистра.
func IsPreserved(username string, preserved []string) bool {
	lower := strings.ToLower(username)
	return slices.ContainsFunc(preserved, func(p string) bool {
		return strings.ToLower(p) == lower
	})
}
