package accounts

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the store contract the lifecycle service depends on. The
// concrete implementation sits on go-repository-bun; consumers only see
// the operations the flows need.
type Accounts interface {
	Create(ctx context.Context, record *Account) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByLogin(ctx context.Context, login string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByLoginOrEmail(ctx context.Context, identifier string) (*Account, error)
	ExistsByLogin(ctx context.Context, login string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, login, passwordHash string) (int64, error)
	UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, login, passwordHash string) (int64, error)
	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accountsRepo)(nil)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "login"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *accountsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *accountsRepo) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.getByColumn(ctx, "id", id.String())
}

func (a *accountsRepo) GetByLogin(ctx context.Context, login string) (*Account, error) {
	return a.getByColumn(ctx, "login", login)
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.email) = LOWER(?)", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

// GetByLoginOrEmail resolves an identifier the way a caller typed it:
// email shaped values hit the email column first, then the login column.
func (a *accountsRepo) GetByLoginOrEmail(ctx context.Context, identifier string) (*Account, error) {
	trimmed := strings.TrimSpace(identifier)

	if isEmail(trimmed) {
		record, err := a.GetByEmail(ctx, trimmed)
		if err == nil {
			return record, nil
		}
		if !repository.IsRecordNotFound(err) {
			return nil, err
		}
	}

	record, err := a.GetByLogin(ctx, trimmed)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"identifier": identifier})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	return a.db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.login = ?", login).
		Exists(ctx)
}

func (a *accountsRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.db.NewSelect().
		Model((*Account)(nil)).
		Where("LOWER(?TableAlias.email) = LOWER(?)", email).
		Exists(ctx)
}

func (a *accountsRepo) UpdatePasswordHash(ctx context.Context, login, passwordHash string) (int64, error) {
	return a.UpdatePasswordHashTx(ctx, a.db, login, passwordHash)
}

// UpdatePasswordHashTx reports the affected row count so callers can
// enforce the exactly-one-record contract.
func (a *accountsRepo) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, login, passwordHash string) (int64, error) {
	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", now).
		Where("?TableAlias.login = ?", login).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (a *accountsRepo) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	loggedInAt := time.Now()
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Set("login_attempt_at = NULL").
		Set("login_attempts = 0").
		Where("?TableAlias.id = ?", account.ID).
		Exec(ctx)

	return err
}

func (a *accountsRepo) TrackAttemptedLogin(ctx context.Context, account *Account) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("login_attempts = ?", account.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("?TableAlias.id = ?", account.ID).
		Exec(ctx)

	return err
}

func (a *accountsRepo) getByColumn(ctx context.Context, column, value string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}

	return record, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
