package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"atoz-search/internal/services"
)

// ControllerFactory creates the controller backing a new session.
type ControllerFactory func() *services.Controller

type session struct {
	controller *services.Controller
	lastSeen   time.Time
}

// SessionStore maps browser sessions to their controllers. Sessions idle for
// longer than the TTL are closed by a background janitor.
type SessionStore struct {
	sessions map[string]*session
	mutex    sync.Mutex
	factory  ControllerFactory
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewSessionStore(factory ControllerFactory, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &SessionStore{
		sessions: make(map[string]*session),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.Named("sessions"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go s.cleanupExpired(janitorInterval(ttl))
	return s
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

// Acquire returns the controller for id, creating a fresh session when id is
// unknown or empty. The returned id is the one the client should keep.
func (s *SessionStore) Acquire(id string) (string, *services.Controller) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && id != "" {
		sess.lastSeen = now
		return id, sess.controller
	}

	id = uuid.NewString()
	sess := &session{controller: s.factory(), lastSeen: now}
	s.sessions[id] = sess
	s.logger.Debug("session created", zap.String("session_id", id))
	return id, sess.controller
}

// Lookup returns the controller for an existing session.
func (s *SessionStore) Lookup(id string) (*services.Controller, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.controller, true
}

func (s *SessionStore) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) cleanupExpired(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *SessionStore) evictExpired() int {
	s.mutex.Lock()
	now := s.now()
	var expired []*services.Controller
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			expired = append(expired, sess.controller)
			delete(s.sessions, id)
		}
	}
	s.mutex.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close stops the janitor and closes every session.
func (s *SessionStore) Close() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done

		s.mutex.Lock()
		sessions := s.sessions
		s.sessions = make(map[string]*session)
		s.mutex.Unlock()

		for _, sess := range sessions {
			sess.controller.Close()
		}
	})
}
