package sandbox

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionRegistry tracks the conversation sessions the sandbox has minted.
// Both kinds expire after the configured TTL; expired tokens are dropped on
// lookup.
type sessionRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	cobrand map[string]cobrandSession
	user    map[string]userSession
}

type cobrandSession struct {
	login     string
	expiresAt time.Time
}

type userSession struct {
	login     string
	userID    int64
	expiresAt time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		ttl:     ttl,
		now:     time.Now,
		cobrand: make(map[string]cobrandSession),
		user:    make(map[string]userSession),
	}
}

func (r *sessionRegistry) mintCobrand(login string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := r.stampToken(0)
	r.cobrand[token] = cobrandSession{login: login, expiresAt: r.now().Add(r.ttl)}
	return token
}

func (r *sessionRegistry) resolveCobrand(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.cobrand[token]
	if !ok {
		return false
	}
	if r.now().After(s.expiresAt) {
		delete(r.cobrand, token)
		return false
	}
	return true
}

func (r *sessionRegistry) mintUser(login string, userID int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := r.stampToken(1)
	r.user[token] = userSession{login: login, userID: userID, expiresAt: r.now().Add(r.ttl)}
	return token
}

func (r *sessionRegistry) resolveUser(token string) (userSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.user[token]
	if !ok {
		return userSession{}, false
	}
	if r.now().After(s.expiresAt) {
		delete(r.user, token)
		return userSession{}, false
	}
	return s, true
}

// stampToken mints a token in the upstream shape: a date stamp, a channel
// digit, and an opaque suffix.
func (r *sessionRegistry) stampToken(channel int) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%d:%s", r.now().Format("01022006"), channel, suffix)
}
