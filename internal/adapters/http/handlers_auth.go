package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	accountStore "regulars/internal/adapters/storage/account"
	"regulars/internal/application/orchestrators"
	"regulars/internal/domain/account"
)

// loginResponse is returned by a successful login.
type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   account.Account `json:"account"`
}

// handleCSRFToken handles GET /api/auth/csrf for clients posting the login form.
func (s *server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": csrf.Token(r)})
}

// handleLogin handles POST /api/auth/login with a JSON body or a form.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.LoginInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !decodeJSON(w, r, &input) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid form submission")
			return
		}
		input.Email = r.PostFormValue("email")
		input.Password = r.PostFormValue("password")
	}

	acct, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		AccountStore: s.stores.Accounts,
		Audit:        s.audit,
		Now:          s.now,
	})
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials),
		errors.Is(err, orchestrators.ErrAccountInactive),
		errors.Is(err, orchestrators.ErrAccountLocked):
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}

	token, expires, err := s.tokens.Issue(acct)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, Account: acct})
}

// handleMe handles GET /api/auth/me
func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	acct, err := s.stores.Accounts.GetByID(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// handleListInstructors handles GET /api/users (admin)
func (s *server) handleListInstructors(w http.ResponseWriter, r *http.Request) {
	list, err := s.stores.Accounts.List(r.Context(), accountStore.ListFilter{Role: account.RoleInstructor})
	if err != nil {
		internalError(w, err)
		return
	}
	if list == nil {
		list = []account.Account{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateInstructor handles POST /api/users (admin). The role defaults
// to instructor.
func (s *server) handleCreateInstructor(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var input orchestrators.CreateAccountInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Role == "" {
		input.Role = account.RoleInstructor
	}
	input.ActorID = id.AccountID
	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), input, orchestrators.CreateAccountDeps{
		AccountStore: s.stores.Accounts,
		Audit:        s.audit,
		Now:          s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}
