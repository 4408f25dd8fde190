package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the registered user model. Login is unique and case sensitive,
// Email is unique case insensitive; both constraints are enforced by the
// database, the service checks are advisory.
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Login          string     `bun:"login,notnull,unique" json:"login,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Activation tracks the activation state of one Account. Exactly one row
// per account, created in the same transaction as the account itself.
// Token is assigned once and survives resends; Activated flips through
// conditional updates only.
type Activation struct {
	bun.BaseModel `bun:"table:activations,alias:act"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,unique,type:uuid" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:belongs-to,join:account_id=id" json:"account,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	Activated     bool       `bun:"activated,notnull,default:false" json:"activated"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewActivation builds the initial, not yet activated record for an account
func NewActivation(accountID uuid.UUID) *Activation {
	return &Activation{
		AccountID: accountID,
		Token:     uuid.NewString(),
		Activated: false,
	}
}
