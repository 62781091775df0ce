package security

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Action identifies a cooldown-gated action.
type Action string

const (
	ActionLaunch Action = "launch"
	ActionSwap   Action = "swap"
	ActionClaim  Action = "claim"
	ActionQuote  Action = "quote"
)

// CooldownPolicy maps an action to the minimum time between two uses by the same subject.
// Actions missing from the policy are never limited.
type CooldownPolicy map[Action]time.Duration

// DefaultCooldownPolicy returns the per-user durations applied when nothing is configured.
func DefaultCooldownPolicy() CooldownPolicy {
	return CooldownPolicy{
		ActionLaunch: time.Hour,
		ActionSwap:   30 * time.Second,
		ActionClaim:  time.Minute,
	}
}

// DefaultServerLaunchCooldown is the per-server launch interval.
const DefaultServerLaunchCooldown = 10 * time.Minute

// CooldownResult is the outcome of a cooldown check.
// Remaining is a whole number of seconds and is only set when Allowed is false.
type CooldownResult struct {
	Allowed   bool
	Remaining int
}

type cooldownKey struct {
	subject string
	action  Action
}

// RateLimiter tracks when each subject last used each action.
// Subjects are user IDs for the per-user limiter and guild IDs for the server limiter.
type RateLimiter struct {
	mu       sync.Mutex
	policy   CooldownPolicy
	lastUsed map[cooldownKey]time.Time
	held     map[cooldownKey]struct{}
	now      func() time.Time
}

// RateLimiterOption customizes a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now. Tests use it to simulate elapsed time.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		l.now = now
	}
}

// NewRateLimiter creates a RateLimiter enforcing the given policy.
func NewRateLimiter(policy CooldownPolicy, options ...RateLimiterOption) *RateLimiter {
	copied := make(CooldownPolicy, len(policy))
	for action, d := range policy {
		if d > 0 {
			copied[action] = d
		}
	}

	l := &RateLimiter{
		policy:   copied,
		lastUsed: make(map[cooldownKey]time.Time),
		held:     make(map[cooldownKey]struct{}),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// NewServerRateLimiter creates a RateLimiter keyed by guild ID that limits launches only.
// Its state is independent from any per-user limiter.
func NewServerRateLimiter(d time.Duration, options ...RateLimiterOption) *RateLimiter {
	return NewRateLimiter(CooldownPolicy{ActionLaunch: d}, options...)
}

// Duration returns the configured cooldown for action, or zero.
func (l *RateLimiter) Duration(action Action) time.Duration {
	return l.policy[action]
}

// Check reports whether subject may perform action now.
func (l *RateLimiter) Check(subject string, action Action) CooldownResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.check(cooldownKey{subject: subject, action: action})
}

// Record marks action as used by subject now.
// Call it only after the gated action was actually allowed to proceed.
func (l *RateLimiter) Record(subject string, action Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastUsed[cooldownKey{subject: subject, action: action}] = l.now()
}

// Acquire checks the cooldown and, when allowed, holds the action for subject until
// the returned Reservation is committed or released. While held, other Check and
// Acquire calls for the same subject and action are refused with the full duration
// remaining. The Reservation is nil when the result is not allowed.
func (l *RateLimiter) Acquire(subject string, action Action) (*Reservation, CooldownResult) {
	key := cooldownKey{subject: subject, action: action}

	l.mu.Lock()
	defer l.mu.Unlock()

	res := l.check(key)
	if !res.Allowed {
		return nil, res
	}

	if _, limited := l.policy[action]; limited {
		l.held[key] = struct{}{}
	}
	return &Reservation{limiter: l, key: key}, res
}

func (l *RateLimiter) check(key cooldownKey) CooldownResult {
	d, ok := l.policy[key.action]
	if !ok {
		return CooldownResult{Allowed: true}
	}

	if _, held := l.held[key]; held {
		return CooldownResult{Allowed: false, Remaining: ceilSeconds(d)}
	}

	last, ok := l.lastUsed[key]
	if !ok {
		return CooldownResult{Allowed: true}
	}

	elapsed := l.now().Sub(last)
	if elapsed >= d {
		return CooldownResult{Allowed: true}
	}
	return CooldownResult{Allowed: false, Remaining: ceilSeconds(d - elapsed)}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(time.Second)))
}

// Reservation is a held cooldown slot obtained from RateLimiter.Acquire.
// The first call to Commit or Release wins; later calls are no-ops.
type Reservation struct {
	limiter *RateLimiter
	key     cooldownKey
	done    bool
}

// Commit records the use and drops the hold.
func (r *Reservation) Commit() {
	if r == nil {
		return
	}

	l := r.limiter
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	delete(l.held, r.key)
	if _, limited := l.policy[r.key.action]; limited {
		l.lastUsed[r.key] = l.now()
	}
}

// Release drops the hold without recording a use.
func (r *Reservation) Release() {
	if r == nil {
		return
	}

	l := r.limiter
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done {
		return
	}
	r.done = true
	delete(l.held, r.key)
}

// FormatRemaining renders a wait time for users: seconds below a minute,
// otherwise whole minutes rounded up.
func FormatRemaining(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
	minutes := int(math.Ceil(float64(seconds) / 60))
	return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
