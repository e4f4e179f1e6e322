package emergency

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store keeps SOS sessions in memory, keyed by user. A user with no entry
// is in the confirm state.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	countdown time.Duration
	now       func() time.Time
}

func NewStore(countdown time.Duration) *Store {
	return &Store{
		sessions:  make(map[string]*Session),
		countdown: countdown,
		now:       time.Now,
	}
}

func (s *Store) session(userID string) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = NewSession(s.countdown)
		s.sessions[userID] = sess
	}
	return sess
}

// forget drops sessions that are back at confirm.
func (s *Store) forget(userID string, sess *Session) {
	if sess.state == StateConfirm {
		delete(s.sessions, userID)
	}
}

func (s *Store) Start(userID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := s.session(userID)
	if err := sess.Start(now); err != nil {
		return sess.State(now), err
	}
	log.Warn().Str("user_id", userID).Msg("SOS countdown started")
	return sess.State(now), nil
}

func (s *Store) Cancel(userID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := s.session(userID)
	err := sess.Cancel(now)
	snap := sess.State(now)
	s.forget(userID, sess)
	if err == nil {
		log.Info().Str("user_id", userID).Msg("SOS countdown cancelled")
	}
	return snap, err
}

func (s *Store) Dismiss(userID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := s.session(userID)
	err := sess.Dismiss(now)
	snap := sess.State(now)
	s.forget(userID, sess)
	if err == nil {
		log.Info().Str("user_id", userID).Msg("SOS dismissed")
	}
	return snap, err
}

func (s *Store) State(userID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return NewSession(s.countdown).State(s.now())
	}
	return sess.State(s.now())
}

// Len is the number of users not in the confirm state.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
