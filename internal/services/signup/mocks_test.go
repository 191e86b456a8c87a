package signup

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/signup-service/internal/email"
	"github.com/magabrotheeeer/signup-service/internal/models"
	"github.com/magabrotheeeer/signup-service/internal/services/accounts"
	"github.com/magabrotheeeer/signup-service/internal/services/session"
)

type mockStore struct {
	mock.Mock
	txMu sync.Mutex
	txs  int
}

func (m *mockStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	m.txs++
	m.txMu.Unlock()
	return fn(ctx)
}

func (m *mockStore) GetMeta(ctx context.Context) (*models.Meta, error) {
	args := m.Called(ctx)
	meta, _ := args.Get(0).(*models.Meta)
	return meta, args.Error(1)
}

func (m *mockStore) GetTicketByCode(ctx context.Context, code string) (*models.RegistrationTicket, error) {
	args := m.Called(ctx, code)
	t, _ := args.Get(0).(*models.RegistrationTicket)
	return t, args.Error(1)
}

func (m *mockStore) GetTicketByPendingID(ctx context.Context, pendingID string) (*models.RegistrationTicket, error) {
	args := m.Called(ctx, pendingID)
	t, _ := args.Get(0).(*models.RegistrationTicket)
	return t, args.Error(1)
}

func (m *mockStore) TransitionTicket(ctx context.Context, id string, from, to models.TicketState) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockStore) LocalUsernameExists(ctx context.Context, usernameLower string) (bool, error) {
	args := m.Called(ctx, usernameLower)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) UsedUsernameExists(ctx context.Context, usernameLower string) (bool, error) {
	args := m.Called(ctx, usernameLower)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreatePending(ctx context.Context, p *models.PendingRegistration) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockStore) GetPendingByCode(ctx context.Context, code string) (*models.PendingRegistration, error) {
	args := m.Called(ctx, code)
	p, _ := args.Get(0).(*models.PendingRegistration)
	return p, args.Error(1)
}

func (m *mockStore) DeletePending(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) VerifyProfileEmail(ctx context.Context, userID, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

type mockCaptcha struct {
	mock.Mock
}

func (m *mockCaptcha) VerifyHcaptcha(ctx context.Context, secret, response string) error {
	return m.Called(ctx, secret, response).Error(0)
}

func (m *mockCaptcha) VerifyRecaptcha(ctx context.Context, secret, response string) error {
	return m.Called(ctx, secret, response).Error(0)
}

func (m *mockCaptcha) VerifyTurnstile(ctx context.Context, secret, response string) error {
	return m.Called(ctx, secret, response).Error(0)
}

type mockEmailValidator struct {
	mock.Mock
}

func (m *mockEmailValidator) Validate(ctx context.Context, address string) (email.Result, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(email.Result), args.Error(1)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) Send(ctx context.Context, to, subject, html, text string) error {
	return m.Called(ctx, to, subject, html, text).Error(0)
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) Create(ctx context.Context, p accounts.Params) (*accounts.Result, error) {
	args := m.Called(ctx, p)
	res, _ := args.Get(0).(*accounts.Result)
	return res, args.Error(1)
}

func (m *mockAccounts) CreateWithHash(ctx context.Context, p accounts.HashedParams) (*accounts.Result, error) {
	args := m.Called(ctx, p)
	res, _ := args.Get(0).(*accounts.Result)
	return res, args.Error(1)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) IsAvailable(ctx context.Context, consuming bool) (bool, error) {
	args := m.Called(ctx, consuming)
	return args.Bool(0), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Signin(ctx context.Context, meta session.RequestMeta, account *models.Account) (*session.Result, error) {
	args := m.Called(ctx, meta, account)
	res, _ := args.Get(0).(*session.Result)
	return res, args.Error(1)
}

// recorder запоминает исходы для проверки метрик.
type recorder struct {
	mu           sync.Mutex
	signups      []string
	pendings     []string
	mailFailures int
}

func (r *recorder) SignupOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signups = append(r.signups, outcome)
}

func (r *recorder) PendingOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendings = append(r.pendings, outcome)
}

func (r *recorder) MailPublishFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mailFailures++
}

type fixture struct {
	store    *mockStore
	captcha  *mockCaptcha
	validate *mockEmailValidator
	sender   *mockEmailSender
	accounts *mockAccounts
	limiter  *mockLimiter
	sessions *mockSessions
	metrics  *recorder
	service  *Service
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		store:    new(mockStore),
		captcha:  new(mockCaptcha),
		validate: new(mockEmailValidator),
		sender:   new(mockEmailSender),
		accounts: new(mockAccounts),
		limiter:  new(mockLimiter),
		sessions: new(mockSessions),
		metrics:  &recorder{},
	}
	f.service = New(newNoopLogger(), Deps{
		Store:          f.store,
		Captcha:        f.captcha,
		EmailValidator: f.validate,
		EmailSender:    f.sender,
		Accounts:       f.accounts,
		Limiter:        f.limiter,
		Sessions:       f.sessions,
		Metrics:        f.metrics,
	}, opts)
	f.service.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.store.AssertExpectations(t)
	f.captcha.AssertExpectations(t)
	f.validate.AssertExpectations(t)
	f.sender.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
	f.limiter.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func createdAccount(id, username string) *accounts.Result {
	return &accounts.Result{
		Account: &models.Account{
			ID:            id,
			Username:      username,
			UsernameLower: username,
			CreatedAt:     testNow,
		},
		Profile: &models.Profile{UserID: id, PasswordHash: "hash"},
		Secret:  "secret-token-123",
	}
}
