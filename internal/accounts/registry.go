package accounts

import (
	"crypto/subtle"
	"fmt"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

// TestAccount is a demo login kept in configuration. Its password is stored
// and compared in plain text; these accounts never reach a store.
type TestAccount struct {
	ID       int64  `toml:"id" validate:"required"`
	Username string `toml:"username" validate:"required,min=3"`
	Password string `toml:"password" validate:"required"`
	Email    string `toml:"email"`
}

type Registry struct {
	accounts map[string]TestAccount
}

func NewRegistry(accounts []TestAccount) (*Registry, error) {
	byName := make(map[string]TestAccount, len(accounts))
	ids := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		if _, ok := byName[a.Username]; ok {
			return nil, fmt.Errorf("duplicate test account %q", a.Username)
		}
		if other, ok := ids[a.ID]; ok {
			return nil, fmt.Errorf("test accounts %q and %q share id %d", other, a.Username, a.ID)
		}
		byName[a.Username] = a
		ids[a.ID] = a.Username
	}
	return &Registry{accounts: byName}, nil
}

func (r *Registry) Has(username string) bool {
	_, ok := r.accounts[username]
	return ok
}

func (r *Registry) Lookup(username string) (TestAccount, bool) {
	a, ok := r.accounts[username]
	return a, ok
}

// Check reports whether username is a test account and, if so, whether
// password matches it.
func (r *Registry) Check(username, password string) (models.Identity, bool, bool) {
	a, ok := r.accounts[username]
	if !ok {
		return models.Identity{}, false, false
	}
	if subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) != 1 {
		return models.Identity{}, true, false
	}
	return a.identity(), true, true
}

func (a TestAccount) identity() models.Identity {
	return models.Identity{UserID: a.ID, Username: a.Username, Email: a.Email}
}

func (a TestAccount) profile() models.Profile {
	return models.Profile{ID: a.ID, Username: a.Username, Email: a.Email}
}
