package orchestrators

import (
	"context"
	"errors"
	"testing"

	"regulars/internal/domain/account"
	"regulars/internal/domain/audit"
)

const testPassword = "correct horse battery"

func seedAccount(t *testing.T, store *fakeAccounts, email string, active bool) account.Account {
	t.Helper()
	a, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
		Email: email, Name: "Pat", Password: testPassword, Role: account.RoleInstructor,
	}, CreateAccountDeps{AccountStore: store, Now: testNow})
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		a.Active = false
		_ = store.Save(context.Background(), a)
	}
	return a
}

func TestExecuteLogin_Success(t *testing.T) {
	store := newFakeAccounts()
	want := seedAccount(t, store, "pat@studio.test", true)
	rec := &recordingAudit{}

	got, err := ExecuteLogin(context.Background(), LoginInput{Email: "pat@studio.test", Password: testPassword},
		LoginDeps{AccountStore: store, Audit: rec, Now: testNow})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != want.ID {
		t.Errorf("id = %s, want %s", got.ID, want.ID)
	}
	if a := rec.actions(); len(a) != 1 || a[0] != audit.ActionLogin {
		t.Errorf("audit = %v", a)
	}
}

func TestExecuteLogin_Failures(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "pat@studio.test", true)
	seedAccount(t, store, "gone@studio.test", false)
	deps := LoginDeps{AccountStore: store, Now: testNow}

	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "pat@studio.test", Password: "wrong password!"}, deps); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "who@studio.test", Password: testPassword}, deps); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: %v", err)
	}
	if _, err := ExecuteLogin(context.Background(), LoginInput{Email: "gone@studio.test", Password: testPassword}, deps); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("inactive: %v", err)
	}
}

func TestExecuteLogin_LocksAfterRepeatedFailures(t *testing.T) {
	store := newFakeAccounts()
	seedAccount(t, store, "pat@studio.test", true)
	deps := LoginDeps{AccountStore: store, Now: testNow}

	for range 5 {
		_, _ = ExecuteLogin(context.Background(), LoginInput{Email: "pat@studio.test", Password: "nope nope nope"}, deps)
	}
	_, err := ExecuteLogin(context.Background(), LoginInput{Email: "pat@studio.test", Password: testPassword}, deps)
	if !errors.Is(err, ErrAccountLocked) {
		t.Errorf("err = %v, want ErrAccountLocked", err)
	}
}

func TestExecuteSeedAdmin_Idempotent(t *testing.T) {
	store := newFakeAccounts()
	deps := CreateAccountDeps{AccountStore: store, Now: testNow}

	for range 2 {
		if err := ExecuteSeedAdmin(context.Background(), deps, "owner@studio.test", testPassword); err != nil {
			t.Fatal(err)
		}
	}
	if len(store.accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(store.accounts))
	}
	for _, a := range store.accounts {
		if !a.IsAdmin() || !a.Active {
			t.Errorf("seeded account %+v", a)
		}
	}
}
