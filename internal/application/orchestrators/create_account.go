package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"regulars/internal/domain/account"
	"regulars/internal/domain/audit"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"max=200"`
	Password string `json:"password" validate:"required,min=12"`
	Role     string `json:"role" validate:"required,oneof=admin instructor"`
	ActorID  string `json:"-"` // empty for the startup seed
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Audit        AuditSink // optional
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Active account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	if err := validateStruct(input); err != nil {
		return account.Account{}, err
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, input.Email); err == nil {
		return account.Account{}, ErrEmailAlreadyExists
	} else if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	acct := account.Account{
		ID:        uuid.New().String(),
		Email:     strings.TrimSpace(input.Email),
		Name:      input.Name,
		Role:      input.Role,
		Active:    true,
		CreatedAt: clock(deps.Now).UTC(),
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, invalid("%s", err.Error())
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, invalid("%s", err.Error())
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	if deps.Audit != nil && input.ActorID != "" {
		deps.Audit.Record(audit.NewEvent(acct.CreatedAt, input.ActorID, audit.ActionCreateAccount, audit.EntityAccount, acct.ID).
			WithMetadata("email", acct.Email).
			WithMetadata("role", acct.Role))
	}
	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", acct.Role)
	return acct, nil
}

// ExecuteSeedAdmin creates the configured admin account unless one with that
// email already exists.
// PRE: Database is migrated
// POST: Admin account exists for email
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    email,
		Name:     "Admin",
		Password: password,
		Role:     account.RoleAdmin,
	}, deps)
	if errors.Is(err, ErrEmailAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
