package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// MaxLoginAttempts is the maximum number of failed attempts an account
// gets inside the cool down window
var MaxLoginAttempts = 5

// CoolDownPeriod is the window in which failed attempts accumulate
var CoolDownPeriod = "24h"

// AccountProvider resolves identities from the accounts store and verifies
// credentials. Lookup misses are normalized to a credential mismatch so an
// unauthenticated caller cannot probe which logins exist.
type AccountProvider struct {
	store  Accounts
	hasher PasswordAuthenticator
	logger Logger
}

var _ IdentityProvider = (*AccountProvider)(nil)

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store Accounts) *AccountProvider {
	return &AccountProvider{
		store:  store,
		hasher: BcryptHasher{},
		logger: defLogger{},
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *AccountProvider) WithHasher(h PasswordAuthenticator) *AccountProvider {
	if h != nil {
		p.hasher = h
	}
	return p
}

// VerifyIdentity will find the account, compare the password, and return
// the identity. The caller decides what a verified identity is allowed to
// do; activation state is not checked here.
func (p *AccountProvider) VerifyIdentity(ctx context.Context, login, password string) (Identity, error) {
	account, err := p.store.GetByLogin(ctx, login)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during verification")
	}

	if account.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*account.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			account.LoginAttempts = 0
		}
	}

	// too many attempts in the window, cool off
	if account.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := p.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if err2 := p.store.TrackAttemptedLogin(ctx, account); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := p.store.TrackSuccessfulLogin(ctx, account); err != nil {
		p.logger.Error("failed to track successful login: %v", err)
	}

	return identityFromAccount(account), nil
}

// FindIdentityByIdentifier resolves an account by login or email
func (p *AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := p.store.GetByLoginOrEmail(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return identityFromAccount(account), nil
}

type accountIdentity struct {
	id    string
	login string
	email string
}

func (a accountIdentity) ID() string {
	return a.id
}

func (a accountIdentity) Login() string {
	return a.login
}

func (a accountIdentity) Email() string {
	return a.email
}

var _ Identity = accountIdentity{}

func identityFromAccount(account *Account) accountIdentity {
	return accountIdentity{
		id:    account.ID.String(),
		login: account.Login,
		email: account.Email,
	}
}
