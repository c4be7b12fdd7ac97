// ABOUTME: Append-only store of logged visits, keyed by session
// ABOUTME: Visits are assigned an id on add and never modified afterwards
package visit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/store"
	"go.uber.org/zap"
)

type Store struct {
	mu     sync.Mutex
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time
	visits []models.Visit
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	store.LoadJSON(s.kv, store.KeyVisits, &s.visits, s.logger)
	return s
}

// Add appends v, filling in ID and CreatedAt when unset, and returns the
// stored copy.
func (s *Store) Add(v models.Visit) models.Visit {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	s.visits = append(s.visits, v)

	if err := store.SaveJSON(s.kv, store.KeyVisits, s.visits); err != nil {
		s.logger.Warn("failed to persist visits", zap.Error(err))
	}
	s.logger.Debug("visit stored",
		zap.String("visit_id", v.ID.String()),
		zap.String("session_id", v.SessionID),
		zap.String("status", v.SalesStatus))
	return v
}

// ForSession returns the visits logged under sessionID in insertion order.
func (s *Store) ForSession(sessionID string) []models.Visit {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Visit
	for _, v := range s.visits {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Get(id uuid.UUID) (models.Visit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.visits {
		if v.ID == id {
			return v, true
		}
	}
	return models.Visit{}, false
}

func (s *Store) All() []models.Visit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Visit(nil), s.visits...)
}
