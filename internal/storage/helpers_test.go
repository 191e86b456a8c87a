package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/signup-service/internal/lib/idgen"
	"github.com/magabrotheeeer/signup-service/internal/migrations"
	"github.com/magabrotheeeer/signup-service/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateAccount создает локальную учётную запись с профилем
func (f *TestDataFactory) CreateAccount(t *testing.T, username string) *models.Account {
	t.Helper()

	id, err := idgen.New()
	require.NoError(t, err)

	account := &models.Account{
		ID:            id,
		Username:      username,
		UsernameLower: strings.ToLower(username),
		Token:         "token-" + id,
	}
	profile := &models.Profile{UserID: id, PasswordHash: "hash"}
	require.NoError(t, f.storage.CreateAccount(context.Background(), account, profile))
	return account
}

// CreateUsedUsername помечает имя как использованное ранее
func (f *TestDataFactory) CreateUsedUsername(t *testing.T, username string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO used_usernames (username) VALUES ($1)`, strings.ToLower(username))
	require.NoError(t, err)
}

// CreateTicket создает неиспользованный билет
func (f *TestDataFactory) CreateTicket(t *testing.T, code string, expiresAt *time.Time) *models.RegistrationTicket {
	t.Helper()

	id, err := idgen.New()
	require.NoError(t, err)

	ticket := &models.RegistrationTicket{ID: id, Code: code, ExpiresAt: expiresAt}
	require.NoError(t, f.storage.CreateTicket(context.Background(), ticket))
	return ticket
}

// CreatePending создает ожидающую регистрацию
func (f *TestDataFactory) CreatePending(t *testing.T, code, username, email string) *models.PendingRegistration {
	t.Helper()

	id, err := idgen.New()
	require.NoError(t, err)

	p := &models.PendingRegistration{
		ID:       id,
		Code:     code,
		Email:    email,
		Username: username,
		Password: "hash",
	}
	require.NoError(t, f.storage.CreatePending(context.Background(), p))
	return p
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// CountRows возвращает количество строк в таблице
func (v *TestVerification) CountRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(nat.Port("5432/tcp")),
			).WithDeadline(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err, "failed to connect to database")

	require.NoError(t, migrations.Run(storage.DB, migrationsPath(t)))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

func migrationsPath(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("MIGRATIONS_PATH"); p != "" {
		return p
	}
	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(root, "migrations")
}
