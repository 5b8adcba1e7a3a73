package contextinfo

import (
	"context"
	"sync"
	"time"

	"maitred/internal/monitoring"

	"github.com/sirupsen/logrus"
)

// ClockInterval is how often the date and time fields are recomputed
const ClockInterval = 60 * time.Second

// Fetcher looks up the current weather
type Fetcher interface {
	Fetch(ctx context.Context) (*Weather, error)
}

// Refresher keeps a current Snapshot. Clock fields and weather refresh on
// independent schedules and a weather failure never touches the clock fields.
type Refresher struct {
	weather         Fetcher
	weatherInterval time.Duration
	loc             *time.Location
	log             logrus.FieldLogger
	metrics         *monitoring.Metrics
	now             func() time.Time

	mu         sync.RWMutex
	clock      Snapshot
	current    *Weather
	weatherSeq uint64
}

// NewRefresher creates a refresher. A nil weather fetcher disables weather.
func NewRefresher(weather Fetcher, weatherInterval time.Duration, loc *time.Location, log logrus.FieldLogger, metrics *monitoring.Metrics) *Refresher {
	if loc == nil {
		loc = time.Local
	}
	r := &Refresher{
		weather:         weather,
		weatherInterval: weatherInterval,
		loc:             loc,
		log:             log.WithField("component", "context"),
		metrics:         metrics,
		now:             time.Now,
	}
	r.RefreshClock()
	return r
}

// Snapshot returns the clock fields merged with the latest weather
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.clock
	if r.current != nil {
		w := *r.current
		s.Weather = &w
	}
	return s
}

// RefreshClock recomputes the clock fields, keeping the current weather
func (r *Refresher) RefreshClock() {
	s := Compute(r.now(), r.loc)
	r.mu.Lock()
	r.clock = s
	r.mu.Unlock()
}

// RefreshWeather fetches the weather. Only the most recently started fetch
// may publish its result; a failure clears the weather portion.
func (r *Refresher) RefreshWeather(ctx context.Context) {
	if r.weather == nil {
		return
	}
	if f, ok := r.weather.(*WeatherClient); ok && !f.Enabled() {
		return
	}

	r.mu.Lock()
	r.weatherSeq++
	seq := r.weatherSeq
	r.mu.Unlock()

	w, err := r.weather.Fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.weatherSeq {
		return
	}
	if err != nil {
		r.current = nil
		r.metrics.WeatherFetch(false)
		r.log.WithError(err).Warn("weather update failed")
		return
	}
	r.current = w
	r.metrics.WeatherFetch(true)
	r.log.WithFields(logrus.Fields{
		"condition":   w.Condition,
		"temperature": w.TemperatureC,
	}).Debug("weather updated")
}

// Run refreshes immediately and then on both schedules until ctx is done
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshClock()
	go r.RefreshWeather(ctx)

	clock := time.NewTicker(ClockInterval)
	defer clock.Stop()

	var weatherTick <-chan time.Time
	if r.weather != nil && r.weatherInterval > 0 {
		t := time.NewTicker(r.weatherInterval)
		defer t.Stop()
		weatherTick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-clock.C:
			r.RefreshClock()
		case <-weatherTick:
			go r.RefreshWeather(ctx)
		}
	}
}
