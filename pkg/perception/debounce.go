// Package perception turns camera frames and voice chunks from the robot
// into greetings and actions by way of remote recognition backends.
//
// Frames and chunks arrive far faster than the backends should be called.
// A Debouncer admits at most one upload per request cooldown and suppresses
// repeated greetings of the same person.
package perception

import (
	"sync"
	"time"
)

const (
	DefaultRequestCooldown  = 2 * time.Second
	DefaultIdentityCooldown = 10 * time.Second
)

// Debouncer holds the greeting debounce state. All methods are safe for
// concurrent use; the network call between AdmitRequest and Observe must
// happen outside of it.
type Debouncer struct {
	requestCooldown  time.Duration
	identityCooldown time.Duration

	mu           sync.Mutex
	lastRequest  time.Time
	requested    bool
	lastIdentity string
	lastGreeted  time.Time
}

// NewDebouncer creates a debouncer. Non-positive cooldowns fall back to the
// defaults.
func NewDebouncer(requestCooldown, identityCooldown time.Duration) *Debouncer {
	if requestCooldown <= 0 {
		requestCooldown = DefaultRequestCooldown
	}
	if identityCooldown <= 0 {
		identityCooldown = DefaultIdentityCooldown
	}
	return &Debouncer{requestCooldown: requestCooldown, identityCooldown: identityCooldown}
}

// AdmitRequest reports whether an upload may start at now. On admission the
// request time is recorded; a rejected call changes nothing.
func (d *Debouncer) AdmitRequest(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.requested && now.Sub(d.lastRequest) < d.requestCooldown {
		return false
	}
	d.lastRequest = now
	d.requested = true
	return true
}

// Observe records a recognition result and reports whether to greet. An
// empty identity forgets the remembered person. The same person is not
// greeted again within the identity cooldown of the last greeting.
func (d *Debouncer) Observe(identity string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if identity == "" {
		d.lastIdentity = ""
		return false
	}
	if identity == d.lastIdentity && now.Sub(d.lastGreeted) < d.identityCooldown {
		return false
	}
	d.lastIdentity = identity
	d.lastGreeted = now
	return true
}

// LastIdentity is the person greeted last, or "" after a miss.
func (d *Debouncer) LastIdentity() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastIdentity
}
