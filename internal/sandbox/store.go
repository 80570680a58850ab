package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrUserExists signals a registration with an already-taken login name.
	ErrUserExists = errors.New("sandbox: user already registered")

	// ErrUserNotFound signals a lookup for an unknown login name.
	ErrUserNotFound = errors.New("sandbox: user not found")

	// ErrSiteAccountExists signals that the user already linked the site.
	ErrSiteAccountExists = errors.New("sandbox: site account already exists")
)

// User is a registered sandbox user. IDs are numeric because the upstream
// API reports numeric user ids in its envelopes.
type User struct {
	ID           int64
	LoginName    string
	PasswordHash []byte
	Email        string
	FirstName    string
	LastName     string
	City         string
	Country      string
	LoginCount   int64
	LastLoginAt  time.Time
	CreatedAt    time.Time
}

// SiteAccount links a user to a catalog site.
type SiteAccount struct {
	ID        int64
	UserID    int64
	SiteID    int64
	CreatedAt time.Time
}

// UserStore persists registered users.
type UserStore interface {
	// Create stores the user and assigns its id. Returns ErrUserExists when
	// the login name is taken.
	Create(ctx context.Context, u User) (User, error)
	FindByLogin(ctx context.Context, login string) (User, error)
	// RecordLogin bumps the login counter and stamps the login time,
	// returning the updated user.
	RecordLogin(ctx context.Context, login string, at time.Time) (User, error)
}

// SiteAccountStore persists site links.
type SiteAccountStore interface {
	// Create stores the link and assigns its id. Returns
	// ErrSiteAccountExists when the user already linked the site.
	Create(ctx context.Context, a SiteAccount) (SiteAccount, error)
}

// Id ranges keep sandbox identifiers recognizable in logs and payloads.
const (
	firstUserID        = 330001
	firstSiteAccountID = 10920001
)

type memoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User
}

// NewMemoryUserStore builds the in-memory user store the sandbox runs on
// when no database is configured.
func NewMemoryUserStore() UserStore {
	return &memoryUserStore{nextID: firstUserID, users: make(map[string]User)}
}

func (s *memoryUserStore) Create(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.LoginName]; exists {
		return User{}, ErrUserExists
	}
	u.ID = s.nextID
	s.nextID++
	s.users[u.LoginName] = u
	return u, nil
}

func (s *memoryUserStore) FindByLogin(_ context.Context, login string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[login]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *memoryUserStore) RecordLogin(_ context.Context, login string, at time.Time) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[login]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.LoginCount++
	u.LastLoginAt = at
	s.users[login] = u
	return u, nil
}

type memorySiteAccountStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[[2]int64]SiteAccount
}

// NewMemorySiteAccountStore builds the in-memory site-account store.
func NewMemorySiteAccountStore() SiteAccountStore {
	return &memorySiteAccountStore{nextID: firstSiteAccountID, accounts: make(map[[2]int64]SiteAccount)}
}

func (s *memorySiteAccountStore) Create(_ context.Context, a SiteAccount) (SiteAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{a.UserID, a.SiteID}
	if _, exists := s.accounts[key]; exists {
		return SiteAccount{}, ErrSiteAccountExists
	}
	a.ID = s.nextID
	s.nextID++
	s.accounts[key] = a
	return a, nil
}
