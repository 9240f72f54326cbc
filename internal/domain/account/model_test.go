package account_test

import (
	"errors"
	"testing"
	"time"

	"regulars/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account account.Account
		want    error
	}{
		{"valid admin", account.Account{Email: "admin@studio.test", Role: account.RoleAdmin}, nil},
		{"valid instructor", account.Account{Email: "ana@studio.test", Role: account.RoleInstructor}, nil},
		{"empty email", account.Account{Role: account.RoleAdmin}, account.ErrEmptyEmail},
		{"no at sign", account.Account{Email: "nope", Role: account.RoleAdmin}, account.ErrInvalidEmail},
		{"bad role", account.Account{Email: "x@studio.test", Role: "dancer"}, account.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.account.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAccount_Password(t *testing.T) {
	var a account.Account
	if err := a.SetPassword("short"); !errors.Is(err, account.ErrPasswordTooShort) {
		t.Errorf("short password err = %v", err)
	}
	if err := a.SetPassword("long enough secret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := a.CheckPassword("long enough secret"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := a.CheckPassword("wrong password!!"); !errors.Is(err, account.ErrWrongPassword) {
		t.Errorf("CheckPassword(wrong) = %v", err)
	}
}

func TestAccount_Lockout(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var a account.Account
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin(now)
	}
	if a.IsLocked(now) {
		t.Fatal("locked after 4 failures")
	}
	a.RecordFailedLogin(now)
	if !a.IsLocked(now) {
		t.Fatal("not locked after 5 failures")
	}
	if a.IsLocked(now.Add(16 * time.Minute)) {
		t.Error("lock should expire after 15 minutes")
	}
	a.ResetFailedLogins()
	if a.FailedLogins != 0 || a.IsLocked(now) {
		t.Error("ResetFailedLogins did not clear state")
	}
}
