package menu

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"maitred/internal/models"
	"maitred/internal/monitoring"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrSuperseded is returned by Load when a newer load was issued before this one finished
var ErrSuperseded = errors.New("menu load superseded by a newer load")

// Source fetches the full dish list
type Source interface {
	Fetch(ctx context.Context) ([]models.Dish, error)
}

// Status describes the outcome of the latest applied load
type Status struct {
	Loaded   bool      `json:"loaded"`
	Count    int       `json:"count"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Store holds the current menu snapshot. The snapshot is replaced wholesale
// on every applied load.
type Store struct {
	source  Source
	log     logrus.FieldLogger
	metrics *monitoring.Metrics

	issued uint64

	mu       sync.RWMutex
	dishes   []models.Dish
	byID     map[int]int
	loaded   bool
	lastErr  error
	loadedAt time.Time
}

// NewStore creates an empty store reading from source
func NewStore(source Source, log logrus.FieldLogger, metrics *monitoring.Metrics) *Store {
	return &Store{
		source:  source,
		log:     log.WithField("component", "menu"),
		metrics: metrics,
		byID:    map[int]int{},
	}
}

// Load fetches the menu and replaces the snapshot. A failed fetch empties the
// snapshot and records the error. Only the most recently issued load is applied.
func (s *Store) Load(ctx context.Context) error {
	seq := atomic.AddUint64(&s.issued, 1)
	dishes, err := s.source.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != atomic.LoadUint64(&s.issued) {
		s.log.WithField("seq", seq).Debug("discarding stale menu load")
		return ErrSuperseded
	}

	s.loadedAt = time.Now()
	if err != nil {
		s.dishes = nil
		s.byID = map[int]int{}
		s.loaded = false
		s.lastErr = err
		s.metrics.MenuLoad(false)
		s.log.WithError(err).Warn("menu load failed")
		return err
	}

	s.dishes = make([]models.Dish, len(dishes))
	copy(s.dishes, dishes)
	s.byID = make(map[int]int, len(dishes))
	for i, d := range s.dishes {
		s.byID[d.ID] = i
	}
	s.loaded = true
	s.lastErr = nil
	s.metrics.MenuLoad(true)
	s.log.WithField("dishes", len(dishes)).Info("menu loaded")
	return nil
}

// Dishes returns a copy of the current snapshot in source order
func (s *Store) Dishes() []models.Dish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Dish, len(s.dishes))
	copy(out, s.dishes)
	return out
}

// ByCategory returns the dishes of one category; "all" or empty returns every dish
func (s *Store) ByCategory(category models.Category) []models.Dish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Dish, 0, len(s.dishes))
	for i := range s.dishes {
		if category == "" || s.dishes[i].IsInCategory(category) {
			out = append(out, s.dishes[i])
		}
	}
	return out
}

// Find looks a dish up by id
func (s *Store) Find(id int) (models.Dish, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.Dish{}, false
	}
	return s.dishes[i], true
}

// Status reports the outcome of the latest applied load
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Loaded:   s.loaded,
		Count:    len(s.dishes),
		LoadedAt: s.loadedAt,
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// LastError returns the error of the latest applied load, if any
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
