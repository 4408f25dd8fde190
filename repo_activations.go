package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Activations is the activation state store. Activate and Deactivate are
// single conditional updates keyed on the current state, so the affected
// row count settles idempotency races without a separate read.
type Activations interface {
	Create(ctx context.Context, record *Activation) (*Activation, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Activation) (*Activation, error)
	GetByToken(ctx context.Context, token string) (*Activation, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Activation, error)
	Activate(ctx context.Context, token string) (int64, error)
	ActivateTx(ctx context.Context, tx bun.IDB, token string) (int64, error)
	Deactivate(ctx context.Context, token string) (int64, error)
	DeactivateTx(ctx context.Context, tx bun.IDB, token string) (int64, error)
}

type activationsRepo struct {
	repository.Repository[*Activation]
	db *bun.DB
}

var _ Activations = (*activationsRepo)(nil)

func NewActivationsRepository(db *bun.DB) Activations {
	repo := repository.NewRepository[*Activation](db, repository.ModelHandlers[*Activation]{
		NewRecord: func() *Activation { return &Activation{} },
		GetID: func(a *Activation) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Activation, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &activationsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *activationsRepo) Create(ctx context.Context, record *Activation) (*Activation, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *activationsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Activation) (*Activation, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *activationsRepo) GetByToken(ctx context.Context, token string) (*Activation, error) {
	record := &Activation{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"token": token})
		}
		return nil, err
	}

	return record, nil
}

func (a *activationsRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Activation, error) {
	record := &Activation{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"account_id": accountID.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *activationsRepo) Activate(ctx context.Context, token string) (int64, error) {
	return a.ActivateTx(ctx, a.db, token)
}

func (a *activationsRepo) ActivateTx(ctx context.Context, tx bun.IDB, token string) (int64, error) {
	return a.flipTx(ctx, tx, token, false, true)
}

func (a *activationsRepo) Deactivate(ctx context.Context, token string) (int64, error) {
	return a.DeactivateTx(ctx, a.db, token)
}

func (a *activationsRepo) DeactivateTx(ctx context.Context, tx bun.IDB, token string) (int64, error) {
	return a.flipTx(ctx, tx, token, true, false)
}

// flipTx transitions activated from->to in one statement; a concurrent
// caller that lost the race sees zero rows affected.
func (a *activationsRepo) flipTx(ctx context.Context, tx bun.IDB, token string, from, to bool) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*Activation)(nil)).
		Set("activated = ?", to).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.activated = ?", from).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
