package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and local development.
// It enforces the same username/email uniqueness as the Postgres schema.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]*User)}
}

func (m *MemoryStore) Create(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return nil, ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return nil, ErrDuplicateEmail
		}
	}

	stored := cloneUser(u)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.users[stored.ID] = stored

	return cloneUser(stored), nil
}

func (m *MemoryStore) Update(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return nil, ErrNotFound
	}

	for id, other := range m.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return nil, ErrDuplicateUsername
		}
		if other.Email == u.Email {
			return nil, ErrDuplicateEmail
		}
	}

	stored := cloneUser(u)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	m.users[stored.ID] = stored

	return cloneUser(stored), nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)

	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u, ok := m.users[id]; ok {
		return cloneUser(u), nil
	}

	return nil, ErrNotFound
}

func (m *MemoryStore) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}

	return nil, ErrNotFound
}

func (m *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}

	return nil, ErrNotFound
}

func (m *MemoryStore) List(_ context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, cloneUser(u))
	}

	return users, nil
}

// cloneUser copies the record so callers never share mutable state with
// the store.
func cloneUser(u *User) *User {
	clone := *u
	if u.PhoneNumber != nil {
		phone := *u.PhoneNumber
		clone.PhoneNumber = &phone
	}
	return &clone
}
