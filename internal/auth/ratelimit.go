package auth

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// LoginLimitConfig tunes a LoginLimiter. Zero values take the defaults.
type LoginLimitConfig struct {
	MaxFailures int           // failed logins allowed per window (default: 5)
	Window      time.Duration // how long failures are remembered (default: 15m)
	Lockout     time.Duration // how long a pair stays locked (default: 30m)

	Now func() time.Time
}

// LoginLimiter locks out a client IP and email pair after repeated failed
// logins. Entries are pruned as failures come in, so there is nothing to stop.
type LoginLimiter struct {
	cfg LoginLimitConfig

	mu        sync.Mutex
	pairs     map[loginKey]*loginFailures
	lastPrune time.Time
}

type loginKey struct {
	ip    string
	email string
}

type loginFailures struct {
	count       int
	since       time.Time
	lockedUntil time.Time
}

func NewLoginLimiter(cfg LoginLimitConfig) *LoginLimiter {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LoginLimiter{cfg: cfg, pairs: make(map[loginKey]*loginFailures)}
}

// Emails are compared case-insensitively.
func keyFor(ip, email string) loginKey {
	return loginKey{ip: ip, email: strings.ToLower(strings.TrimSpace(email))}
}

// stale reports whether f no longer affects anything at now.
func (l *LoginLimiter) stale(f *loginFailures, now time.Time) bool {
	if !f.lockedUntil.IsZero() {
		return !now.Before(f.lockedUntil)
	}
	return now.Sub(f.since) > l.cfg.Window
}

// Locked returns how long the pair remains locked out; zero means a login
// attempt may proceed.
func (l *LoginLimiter) Locked(ip, email string) time.Duration {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.pairs[keyFor(ip, email)]
	if !ok || f.lockedUntil.IsZero() || !now.Before(f.lockedUntil) {
		return 0
	}
	return f.lockedUntil.Sub(now)
}

// Fail counts a failed login. When it reaches the limit the pair is locked and
// the lockout length is returned; otherwise Fail returns zero.
func (l *LoginLimiter) Fail(ip, email string) time.Duration {
	now := l.cfg.Now()
	key := keyFor(ip, email)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	f, ok := l.pairs[key]
	if !ok || l.stale(f, now) {
		f = &loginFailures{since: now}
		l.pairs[key] = f
	}
	f.count++
	if f.count < l.cfg.MaxFailures {
		return 0
	}
	f.lockedUntil = now.Add(l.cfg.Lockout)
	return l.cfg.Lockout
}

// Succeed forgets earlier failures of the pair.
func (l *LoginLimiter) Succeed(ip, email string) {
	l.mu.Lock()
	delete(l.pairs, keyFor(ip, email))
	l.mu.Unlock()
}

// prune drops stale entries at most once per window. Callers hold l.mu.
func (l *LoginLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.cfg.Window {
		return
	}
	l.lastPrune = now
	for key, f := range l.pairs {
		if l.stale(f, now) {
			delete(l.pairs, key)
		}
	}
}

// tracked is the number of pairs currently remembered.
func (l *LoginLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pairs)
}

// Middleware rejects a login with 429 while its IP and email pair is locked.
// The body is read with ShouldBindBodyWith so the handler can bind it again;
// handlers report the outcome with Fail and Succeed.
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.Email == "" {
			c.Next()
			return
		}

		if wait := l.Locked(c.ClientIP(), body.Email); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many login attempts",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
