package fakebackend

import (
	"errors"
	"sync"

	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/fakedata"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("incorrect username or password")

type account struct {
	user stock.User
	hash []byte
}

// Users is the fake backend's account directory
type Users struct {
	mu       sync.RWMutex
	accounts map[string]account
}

// DemoUsers creates one account per role, named after the role, all sharing password
func DemoUsers(password string, seed uint64) (*Users, error) {
	g := fakedata.New(seed, fakedata.DefaultConfig().Now)
	u := &Users{accounts: make(map[string]account)}
	for _, role := range []stock.Role{stock.RoleAdmin, stock.RoleUser, stock.RoleViewer} {
		profile := g.User(role)
		profile.Username = string(role)
		if err := u.Add(profile, password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Add registers user with a bcrypt hash of password
func (u *Users) Add(user stock.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	if user.Permissions == nil {
		user.Permissions = stock.DefaultPermissions(user.Role)
	}
	u.mu.Lock()
	u.accounts[user.Username] = account{user: user, hash: hash}
	u.mu.Unlock()
	return nil
}

// Authenticate checks a username and password
func (u *Users) Authenticate(username, password string) (stock.User, error) {
	u.mu.RLock()
	acc, ok := u.accounts[username]
	u.mu.RUnlock()
	if !ok || !acc.user.Active {
		return stock.User{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return stock.User{}, ErrBadCredentials
	}
	return acc.user, nil
}

// Lookup returns the profile of username
func (u *Users) Lookup(username string) (stock.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	acc, ok := u.accounts[username]
	return acc.user, ok
}
