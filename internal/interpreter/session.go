package interpreter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds what has been collected for one search conversation.
type Session struct {
	ID            string
	Fields        Fields
	Missing       []string
	FollowUpAsked bool
	Finished      bool
	UpdatedAt     time.Time
}

// awaitingReply reports whether a clarification question is outstanding.
func (s Session) awaitingReply() bool {
	return s.FollowUpAsked && !s.Finished
}

// SessionStore keeps sessions in memory. Safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Create starts a session. An empty id gets a generated one; an existing
// session with the same id is replaced.
func (s *SessionStore) Create(id string, fields Fields) Session {
	if id == "" {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{ID: id, Fields: fields, UpdatedAt: s.now()}
	s.sessions[id] = sess
	return sess
}

// Get returns a copy of the session.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Save stores sess, refreshing its timestamp.
func (s *SessionStore) Save(sess Session) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = s.now()
	s.sessions[sess.ID] = sess
	return sess
}

// Finalize fills defaults for the unanswered secondary fields and marks
// the session finished.
func (s *SessionStore) Finalize(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.Fields = withDefaults(sess.Fields)
	sess.Missing = nil
	sess.Finished = true
	sess.UpdatedAt = s.now()
	s.sessions[id] = sess
	return sess, true
}

// Evict removes a session.
func (s *SessionStore) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// EvictIdle removes sessions not touched within maxIdle and returns how
// many were removed.
func (s *SessionStore) EvictIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	n := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func withDefaults(f Fields) Fields {
	if f.Industry == "" {
		f.Industry = DefaultIndustry
	}
	if f.CompanySize == "" {
		f.CompanySize = DefaultCompanySize
	}
	if f.Certifications == "" {
		f.Certifications = DefaultCertifications
	}
	return f
}
