// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts hits per key in fixed windows. It is safe for concurrent
// use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit hits per key every period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Sweep drops expired windows and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for k, w := range l.windows {
		if !now.Before(w.expiresAt) {
			delete(l.windows, k)
			n++
		}
	}
	return n
}

// ClientIP extracts the client IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Guard limits an action both per client IP and per subject (a username
// for logins, an email for code resends).
type Guard struct {
	byIP       *Limiter
	bySubject  *Limiter
	ipMsg      string
	subjectMsg string
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	IPLimit        int
	IPPeriod       time.Duration
	SubjectLimit   int
	SubjectPeriod  time.Duration
	IPMessage      string
	SubjectMessage string
}

// NewGuard builds a Guard from cfg.
func NewGuard(cfg GuardConfig) *Guard {
	return &Guard{
		byIP:       New(cfg.IPLimit, cfg.IPPeriod),
		bySubject:  New(cfg.SubjectLimit, cfg.SubjectPeriod),
		ipMsg:      cfg.IPMessage,
		subjectMsg: cfg.SubjectMessage,
	}
}

// NewLoginGuard allows 10 attempts per IP per minute and perUser (default
// 5) per username per 5 minutes.
func NewLoginGuard(perUser int) *Guard {
	if perUser <= 0 {
		perUser = 5
	}
	return NewGuard(GuardConfig{
		IPLimit:        10,
		IPPeriod:       time.Minute,
		SubjectLimit:   perUser,
		SubjectPeriod:  5 * time.Minute,
		IPMessage:      "Too many login attempts. Please wait a minute before trying again.",
		SubjectMessage: "Too many login attempts for this account. Please wait a few minutes.",
	})
}

// NewResendGuard allows 20 resends per IP per 10 minutes and perEmail
// (default 3) per email per 10 minutes.
func NewResendGuard(perEmail int) *Guard {
	if perEmail <= 0 {
		perEmail = 3
	}
	return NewGuard(GuardConfig{
		IPLimit:        20,
		IPPeriod:       10 * time.Minute,
		SubjectLimit:   perEmail,
		SubjectPeriod:  10 * time.Minute,
		IPMessage:      "Too many requests. Please wait before requesting another OTP.",
		SubjectMessage: "Too many OTP requests for this email. Please wait a few minutes.",
	})
}

// Check records an attempt and returns (allowed, reason).
func (g *Guard) Check(r *http.Request, subject string) (bool, string) {
	if g == nil {
		return true, ""
	}
	if !g.byIP.Allow(ClientIP(r)) {
		return false, g.ipMsg
	}
	if key := strings.ToLower(strings.TrimSpace(subject)); key != "" {
		if !g.bySubject.Allow(key) {
			return false, g.subjectMsg
		}
	}
	return true, ""
}

// ResetSubject clears the subject counter, e.g. after a successful login.
func (g *Guard) ResetSubject(subject string) {
	if g == nil {
		return
	}
	g.bySubject.Reset(strings.ToLower(strings.TrimSpace(subject)))
}

// Sweep drops expired windows from both limiters.
func (g *Guard) Sweep() int {
	if g == nil {
		return 0
	}
	return g.byIP.Sweep() + g.bySubject.Sweep()
}
