// Package session keeps triage reports between the detect and trace steps.
// Sessions live in memory and expire after a TTL; they are not persisted.
package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/triage"
)

// DefaultTTL is used when the configured TTL is not positive.
const DefaultTTL = 30 * time.Minute

// Session is one detect step's result as handed to the trace step.
type Session struct {
	ID        string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	Report    triage.Report `json:"report"`
}

// Encode serializes s. Decode(Encode(s)) equals s.
func Encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.New(err).
			Component("session").
			Category(errors.CategoryValidation).
			Build()
	}
	return data, nil
}

// Decode parses a serialized session. A missing id or nil record list is
// rejected since the trace step cannot work with them.
func Decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.New(err).
			Component("session").
			Category(errors.CategoryValidation).
			Context("operation", "decode_session").
			Build()
	}
	if s.Report.Records == nil {
		return nil, errors.Newf("session has no records list").
			Component("session").
			Category(errors.CategoryValidation).
			Build()
	}
	return &s, nil
}

// Store is an expiring in-memory session store, safe for concurrent use.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
	log   logger.Logger
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
		now:   time.Now,
		log:   logger.Global().Module("session"),
	}
}

// Save stores report under a fresh id and returns the session.
func (s *Store) Save(report triage.Report) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Report:    report,
	}
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
	s.log.Debug("session saved", logger.SessionID(sess.ID), logger.Int("records", len(report.Records)))
	return sess
}

// Get returns a stored session or a NotFound error.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, errors.Newf("session %s not found or expired", id).
			Component("session").
			Category(errors.CategoryNotFound).
			Build()
	}
	return v.(*Session), nil
}

// Delete drops a session; unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
