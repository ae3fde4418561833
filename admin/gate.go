package admin

import (
	"crypto/subtle"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate checks the admin password. It only decides whether the admin view is
// shown; the password is shared and static, so it is not access control.
type Gate struct {
	password []byte
	limiter  *LoginLimiter
}

func NewGate(password string, loginsPerMinute int) *Gate {
	return &Gate{
		password: []byte(password),
		limiter:  NewLoginLimiter(loginsPerMinute, 3),
	}
}

func (g *Gate) Check(password string) bool {
	if len(g.password) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), g.password) == 1
}

// AllowAttempt spends one attempt for ip and reports whether it was allowed.
func (g *Gate) AllowAttempt(ip string) bool {
	return g.limiter.Allow(ip)
}

// Locked reports whether ip has used up its attempts for now.
func (g *Gate) Locked(ip string) bool {
	return g.limiter.Exhausted(ip)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter is a per-IP token bucket for login attempts.
type LoginLimiter struct {
	mu             sync.Mutex
	entries        map[string]*limiterEntry
	requestsPerMin int
	burst          int
	idleTTL        time.Duration
}

func NewLoginLimiter(requestsPerMinute int, burst int) *LoginLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &LoginLimiter{
		entries:        make(map[string]*limiterEntry),
		requestsPerMin: requestsPerMinute,
		burst:          burst,
		idleTTL:        15 * time.Minute,
	}
}

func (l *LoginLimiter) Allow(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.entries, key)
		}
	}

	entry, ok := l.entries[ip]
	if !ok {
		perSecond := float64(l.requestsPerMin) / 60.0
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// Exhausted reports whether ip has no attempt left, without spending one.
func (l *LoginLimiter) Exhausted(ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[ip]
	return ok && entry.limiter.Tokens() < 1
}
