// Package emergency runs the SOS countdown: a user confirms, a short
// countdown runs, and the alert becomes active until dismissed. Activation
// only changes state; nothing is dispatched.
package emergency

import (
	"errors"
	"time"
)

const (
	StateConfirm  = "confirm"
	StateCounting = "counting"
	StateActive   = "active"

	// DefaultCountdown is the time between start and activation.
	DefaultCountdown = 5 * time.Second
	tick             = time.Second
)

var (
	ErrAlreadyStarted = errors.New("SOS countdown already running")
	ErrAlreadyActive  = errors.New("SOS is already active")
	ErrNotActive      = errors.New("SOS is not active")
	ErrNotCounting    = errors.New("no SOS countdown to cancel")
)

// Session is one user's SOS state. The counting → active step is derived
// from the clock, so a session never needs a timer of its own.
type Session struct {
	state     string
	countdown time.Duration
	startedAt time.Time
}

func NewSession(countdown time.Duration) *Session {
	if countdown <= 0 {
		countdown = DefaultCountdown
	}
	return &Session{state: StateConfirm, countdown: countdown}
}

// Snapshot is the view of a session at a point in time.
type Snapshot struct {
	State            string     `json:"state"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	ActivatedAt      *time.Time `json:"activatedAt,omitempty"`
}

// settle moves a finished countdown to active.
func (s *Session) settle(now time.Time) {
	if s.state == StateCounting && !now.Before(s.startedAt.Add(s.countdown)) {
		s.state = StateActive
	}
}

// Start begins the countdown from confirm.
func (s *Session) Start(now time.Time) error {
	s.settle(now)
	switch s.state {
	case StateCounting:
		return ErrAlreadyStarted
	case StateActive:
		return ErrAlreadyActive
	}
	s.state = StateCounting
	s.startedAt = now
	return nil
}

// Cancel stops a running countdown. Once active, only Dismiss clears it.
func (s *Session) Cancel(now time.Time) error {
	s.settle(now)
	switch s.state {
	case StateActive:
		return ErrAlreadyActive
	case StateConfirm:
		return ErrNotCounting
	}
	s.reset()
	return nil
}

// Dismiss closes an active alert.
func (s *Session) Dismiss(now time.Time) error {
	s.settle(now)
	if s.state != StateActive {
		return ErrNotActive
	}
	s.reset()
	return nil
}

func (s *Session) reset() {
	s.state = StateConfirm
	s.startedAt = time.Time{}
}

// State reports the session at now. RemainingSeconds drops by one for each
// whole second elapsed.
func (s *Session) State(now time.Time) Snapshot {
	s.settle(now)
	snap := Snapshot{State: s.state}
	total := int(s.countdown / tick)

	switch s.state {
	case StateConfirm:
		snap.RemainingSeconds = total
	case StateCounting:
		started := s.startedAt
		snap.StartedAt = &started
		snap.RemainingSeconds = total - int(now.Sub(s.startedAt)/tick)
		if snap.RemainingSeconds < 1 {
			snap.RemainingSeconds = 1
		}
	case StateActive:
		started := s.startedAt
		activated := s.startedAt.Add(s.countdown)
		snap.StartedAt = &started
		snap.ActivatedAt = &activated
	}
	return snap
}
