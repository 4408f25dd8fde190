package accounts_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// testRepoManager satisfies accounts.RepositoryManager with mock stores.
// RunInTx hands the callback an empty bun.Tx; failures are injected
// through the store mocks, not the transaction boundary.
type testRepoManager struct {
	accounts    *MockAccounts
	activations *MockActivations
}

func newTestRepoManager() *testRepoManager {
	return &testRepoManager{
		accounts:    &MockAccounts{},
		activations: &MockActivations{},
	}
}

func (m *testRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (m *testRepoManager) Accounts() accounts.Accounts       { return m.accounts }
func (m *testRepoManager) Activations() accounts.Activations { return m.activations }
func (m *testRepoManager) Validate() error                   { return nil }
func (m *testRepoManager) MustValidate()                     {}

// MockAccounts implements accounts.Accounts
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) Create(ctx context.Context, record *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, record)
	return accountArg(args.Get(0)), args.Error(1)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, tx, record)
	return accountArg(args.Get(0)), args.Error(1)
}

func (m *MockAccounts) GetByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	args := m.Called(ctx, id)
	return accountArg(args.Get(0)), args.Error(1)
}

func (m *MockAccounts) GetByLogin(ctx context.Context, login string) (*accounts.Account, error) {
	args := m.Called(ctx, login)
	return accountArg(args.Get(0)), args.Error(1)
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	return accountArg(args.Get(0)), args.Error(1)
}

func (m *MockAccounts) GetByLoginOrEmail(ctx context.Context, identifier string) (*accounts.Account, error) {
	args := m.Called(ctx, identifier)
	return accountArg(args.Get(0)), args.Error(1)
}

func (m *MockAccounts) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	args := m.Called(ctx, login)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) UpdatePasswordHash(ctx context.Context, login, passwordHash string) (int64, error) {
	args := m.Called(ctx, login, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccounts) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, login, passwordHash string) (int64, error) {
	args := m.Called(ctx, tx, login, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccounts) TrackAttemptedLogin(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccounts) TrackSuccessfulLogin(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func accountArg(v any) *accounts.Account {
	if v == nil {
		return nil
	}
	return v.(*accounts.Account)
}

// MockActivations implements accounts.Activations
type MockActivations struct {
	mock.Mock
}

func (m *MockActivations) Create(ctx context.Context, record *accounts.Activation) (*accounts.Activation, error) {
	args := m.Called(ctx, record)
	return activationArg(args.Get(0)), args.Error(1)
}

func (m *MockActivations) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Activation) (*accounts.Activation, error) {
	args := m.Called(ctx, tx, record)
	return activationArg(args.Get(0)), args.Error(1)
}

func (m *MockActivations) GetByToken(ctx context.Context, token string) (*accounts.Activation, error) {
	args := m.Called(ctx, token)
	return activationArg(args.Get(0)), args.Error(1)
}

func (m *MockActivations) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*accounts.Activation, error) {
	args := m.Called(ctx, accountID)
	return activationArg(args.Get(0)), args.Error(1)
}

func (m *MockActivations) Activate(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivations) ActivateTx(ctx context.Context, tx bun.IDB, token string) (int64, error) {
	args := m.Called(ctx, tx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivations) Deactivate(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivations) DeactivateTx(ctx context.Context, tx bun.IDB, token string) (int64, error) {
	args := m.Called(ctx, tx, token)
	return args.Get(0).(int64), args.Error(1)
}

func activationArg(v any) *accounts.Activation {
	if v == nil {
		return nil
	}
	return v.(*accounts.Activation)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendActivation(ctx context.Context, email, login, token string) error {
	args := m.Called(ctx, email, login, token)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, resetToken string) error {
	args := m.Called(ctx, email, resetToken)
	return args.Error(0)
}

// MockTokenService implements accounts.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueSession(identity accounts.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssueResetToken(identity accounts.Identity) (string, time.Time, error) {
	args := m.Called(identity)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) Validate(tokenString string) (accounts.AuthClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(accounts.AuthClaims), args.Error(1)
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, login, password string) (accounts.Identity, error) {
	args := m.Called(ctx, login, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(accounts.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(accounts.Identity), args.Error(1)
}

// testIdentity is a fixed identity fixture
type testIdentity struct {
	id    string
	login string
	email string
}

func (t testIdentity) ID() string    { return t.id }
func (t testIdentity) Login() string { return t.login }
func (t testIdentity) Email() string { return t.email }

// plainHasher swaps bcrypt out of unit tests
type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) ComparePasswordAndHash(password, hash string) error {
	if "hashed:"+password != hash {
		return accounts.ErrMismatchedHashAndPassword
	}
	return nil
}
