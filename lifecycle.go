package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const operationTimeout = time.Second * 10

// RegisterAccountMessage carries a registration request
type RegisterAccountMessage struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// UseHashid derives the account ID deterministically from the email
	UseHashid bool `json:"-"`
}

func (m RegisterAccountMessage) Type() string { return "account.register" }

// LoginMessage carries submitted credentials
type LoginMessage struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (m LoginMessage) Type() string { return "account.login" }

// FinalizePasswordResetMessage completes a reset started by RequestPasswordReset
type FinalizePasswordResetMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (m FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

// LoginResult is the session artifact handed back on successful login
type LoginResult struct {
	Token    string   `json:"token"`
	Identity Identity `json:"-"`
}

// LogoutInstruction tells the transport edge to discard the client held
// session artifact. Sessions are stateless signed tokens, nothing is
// invalidated server side.
type LogoutInstruction struct {
	ClearSession bool   `json:"clear_session"`
	Message      string `json:"message"`
}

// Lifecycle orchestrates registration, activation, login and password flows.
// It is stateless between calls; all durable state goes through the
// RepositoryManager.
type Lifecycle struct {
	repo     RepositoryManager
	provider IdentityProvider
	hasher   PasswordAuthenticator
	tokens   TokenService
	mailer   Mailer
	logger   Logger
}

// NewLifecycle wires the lifecycle service with default collaborators.
// The identity provider and hasher can be replaced through the With setters.
func NewLifecycle(repo RepositoryManager, tokens TokenService, mailer Mailer) *Lifecycle {
	return &Lifecycle{
		repo:     repo,
		provider: NewAccountProvider(repo.Accounts()),
		hasher:   BcryptHasher{},
		tokens:   tokens,
		mailer:   mailer,
		logger:   defLogger{},
	}
}

func (s *Lifecycle) WithLogger(l Logger) *Lifecycle {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Lifecycle) WithIdentityProvider(p IdentityProvider) *Lifecycle {
	if p != nil {
		s.provider = p
	}
	return s
}

func (s *Lifecycle) WithHasher(h PasswordAuthenticator) *Lifecycle {
	if h != nil {
		s.hasher = h
	}
	return s
}

// Register validates the candidate, persists the account together with its
// activation record and sends the activation notification. Login and email
// duplicates are rejected; the database uniqueness constraints remain the
// authority under concurrent registration.
func (s *Lifecycle) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during registration")
	default:
	}

	if err := ValidateCandidate(Candidate{Login: msg.Login, Email: msg.Email, Password: msg.Password}, true); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account := &Account{
		Login: msg.Login,
		Email: msg.Email,
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if taken, err := s.repo.Accounts().ExistsByLogin(ctx, msg.Login); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check login availability")
		} else if taken {
			return goerrors.New("an account with this login already exists", goerrors.CategoryConflict).
				WithTextCode("LOGIN_TAKEN").
				WithCode(goerrors.CodeConflict)
		}

		if taken, err := s.repo.Accounts().ExistsByEmail(ctx, msg.Email); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		} else if taken {
			return goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
				WithTextCode("EMAIL_TAKEN").
				WithCode(goerrors.CodeConflict)
		}

		hash, err := s.hasher.HashPassword(msg.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		account.PasswordHash = hash

		if msg.UseHashid {
			if id, err := hashid.NewUUID(msg.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = s.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		if _, err = s.repo.Activations().CreateTx(ctx, tx, NewActivation(account.ID)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create activation record")
		}

		return nil
	})

	if err != nil {
		return nil, asRichError(err, "account registration transaction failed")
	}

	// integrity re-read: a missing activation after commit means the store
	// lied about the atomic create
	activation, err := s.repo.Activations().GetByAccountID(ctx, account.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "activation record not found after registration").
			WithMetadata(map[string]any{"account_id": account.ID.String()})
	}

	if err := s.mailer.SendActivation(ctx, account.Email, account.Login, activation.Token); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send activation notification")
	}

	return account, nil
}

// Activate flips an activation record to activated. The update is a single
// conditional statement; anything other than one affected row is a conflict.
func (s *Lifecycle) Activate(ctx context.Context, token string) error {
	return s.transition(ctx, token, true)
}

// Deactivate is the symmetric inverse of Activate
func (s *Lifecycle) Deactivate(ctx context.Context, token string) error {
	return s.transition(ctx, token, false)
}

func (s *Lifecycle) transition(ctx context.Context, token string, activate bool) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during activation change")
	default:
	}

	if token == "" {
		return goerrors.New("activation token must not be empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		activation, err := s.repo.Activations().GetByToken(ctx, token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("no activation record matches this token", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound).
					WithMetadata(map[string]any{"token": token})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve activation record")
		}

		if activation.Activated == activate {
			msg := "account is already activated"
			if !activate {
				msg = "account is already deactivated"
			}
			return goerrors.New(msg, goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict)
		}

		var updated int64
		if activate {
			updated, err = s.repo.Activations().ActivateTx(ctx, tx, token)
		} else {
			updated, err = s.repo.Activations().DeactivateTx(ctx, tx, token)
		}
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update activation record")
		}

		if updated != 1 {
			return goerrors.New("activation change did not affect exactly one record", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{"updated": updated})
		}

		return nil
	})

	if err != nil {
		return asRichError(err, "activation change transaction failed")
	}

	return nil
}

// Login verifies credentials, then (and only then) checks activation state,
// and finally issues the signed session artifact. The ordering is load
// bearing: activation state is not disclosed to callers that fail
// authentication.
func (s *Lifecycle) Login(ctx context.Context, msg LoginMessage) (*LoginResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during login")
	default:
	}

	if err := ValidateCandidate(Candidate{Login: msg.Login, Password: msg.Password}, false); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	identity, err := s.provider.VerifyIdentity(ctx, msg.Login, msg.Password)
	if err != nil {
		s.logger.Debug("login verification failed for %s: %v", msg.Login, err)
		return nil, err
	}

	accountID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity carries a malformed account id")
	}

	activation, err := s.repo.Activations().GetByAccountID(ctx, accountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("account has no activation record", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{"account_id": identity.ID()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve activation record")
	}

	if !activation.Activated {
		return nil, ErrAccountDisabled
	}

	token, err := s.tokens.IssueSession(identity)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	return &LoginResult{Token: token, Identity: identity}, nil
}

// Logout returns the instruction for the caller to discard its session
// artifact. There is no server side session to tear down.
func (s *Lifecycle) Logout() *LogoutInstruction {
	return &LogoutInstruction{
		ClearSession: true,
		Message:      "logged out",
	}
}

// ChangePassword updates the password of the account identified by the
// caller's verified principal. The principal is an explicit parameter,
// never read from ambient state.
func (s *Lifecycle) ChangePassword(ctx context.Context, principal, newPassword string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password change")
	default:
	}

	if principal == "" {
		return goerrors.New("principal must not be empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err := s.repo.Accounts().UpdatePasswordHashTx(ctx, tx, principal, hash)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		if updated != 1 {
			return goerrors.New("password change did not affect exactly one record", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{"updated": updated, "principal": principal})
		}

		return nil
	})

	if err != nil {
		return asRichError(err, "password change transaction failed")
	}

	return nil
}

// ResendActivation re-sends the activation notification using the existing
// stored token. The token is never regenerated on resend.
func (s *Lifecycle) ResendActivation(ctx context.Context, loginOrEmail string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during activation resend")
	default:
	}

	if loginOrEmail == "" {
		return goerrors.New("login or email must not be empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.repo.Accounts().GetByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account")
	}

	activation, err := s.repo.Activations().GetByAccountID(ctx, account.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return goerrors.New("account has no activation record", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{"account_id": account.ID.String()})
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve activation record")
	}

	if activation.Activated {
		return goerrors.New("account is already activated", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}

	if err := s.mailer.SendActivation(ctx, account.Email, account.Login, activation.Token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send activation notification")
	}

	return nil
}

// RequestPasswordReset issues a reset grant and mails it when the address
// resolves to an account. The response is identical either way so the
// operation cannot be used to enumerate addresses.
func (s *Lifecycle) RequestPasswordReset(ctx context.Context, email string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset request")
	default:
	}

	if email == "" {
		return goerrors.New("email must not be empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// same success shape as the found case
			s.logger.Debug("password reset requested for unknown email %s", email)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account")
	}

	resetToken, _, err := s.tokens.IssueResetToken(identityFromAccount(account))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	if err := s.mailer.SendPasswordReset(ctx, account.Email, resetToken); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset notification")
	}

	return nil
}

// FinalizePasswordReset redeems a reset grant and installs the new password
func (s *Lifecycle) FinalizePasswordReset(ctx context.Context, msg FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset finalization")
	default:
	}

	if msg.Token == "" {
		return goerrors.New("reset token must not be empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if err := validatePassword(msg.Password); err != nil {
		return err
	}

	claims, err := s.tokens.Validate(msg.Token)
	if err != nil {
		return err
	}

	if claims.Use() != TokenUsePasswordReset {
		return ErrTokenMalformed
	}

	return s.ChangePassword(ctx, claims.Login(), msg.Password)
}

func validatePassword(password string) error {
	if password == "" {
		return goerrors.New("password must not be empty", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if len(password) < 8 || len(password) > 100 {
		return goerrors.New("password must be between 8 and 100 characters", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}

func asRichError(err error, fallback string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, fallback)
}
