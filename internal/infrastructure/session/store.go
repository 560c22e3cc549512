// Package session persists the bearer token and current-user record between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Storage keys shared by every store
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

// ErrCorrupt is returned by Load when stored data cannot be decoded
var ErrCorrupt = errors.New("session: stored data is corrupt")

// Data is one persisted session
type Data struct {
	Token string      `json:"auth_token,omitempty"`
	User  *stock.User `json:"auth_user,omitempty"`
}

// Complete reports whether both the token and the user are present
func (d Data) Complete() bool {
	return d.Token != "" && d.User != nil
}

// Store persists a session. Load on an empty store returns a zero Data and no error.
type Store interface {
	Load(ctx context.Context) (Data, error)
	Save(ctx context.Context, data Data) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	data Data
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored session
func (s *MemoryStore) Load(_ context.Context) (Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyData(s.data), nil
}

// Save replaces the stored session
func (s *MemoryStore) Save(_ context.Context, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = copyData(data)
	return nil
}

// Clear removes the stored session
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Data{}
	return nil
}

var _ Store = (*MemoryStore)(nil)

func copyData(d Data) Data {
	out := Data{Token: d.Token}
	if d.User != nil {
		u := *d.User
		u.Permissions = append([]string(nil), d.User.Permissions...)
		out.User = &u
	}
	return out
}

func encodeUser(u *stock.User) ([]byte, error) {
	if u == nil {
		return nil, nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("session: failed to encode user: %w", err)
	}
	return b, nil
}

func decodeUser(b []byte) (*stock.User, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var u stock.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &u, nil
}
