package contextinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Hong Kong", r.URL.Query().Get("q"))
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{"weather":[{"main":"Rain","description":"light rain"}],"main":{"temp":17.6}}`))
	}))
	defer srv.Close()

	w, err := NewWeatherClient(srv.URL, "k", "Hong Kong", time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rain", w.Condition)
	assert.Equal(t, 18, w.TemperatureC)
}

func TestWeatherClient_Disabled(t *testing.T) {
	c := NewWeatherClient("http://unused", " ", "Hong Kong", time.Second)
	assert.False(t, c.Enabled())
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrWeatherDisabled)
}

func TestWeatherClient_BadResponses(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
		"shape":  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"cod":"404"}`)) },
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()
			_, err := NewWeatherClient(srv.URL, "k", "Hong Kong", time.Second).Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}

type fakeWeather struct {
	calls int32
	fn    func(call int32) (*Weather, error)
}

func (f *fakeWeather) Fetch(ctx context.Context) (*Weather, error) {
	return f.fn(atomic.AddInt32(&f.calls, 1))
}

func TestRefresher_WeatherFailureKeepsClock(t *testing.T) {
	log, _ := test.NewNullLogger()
	fw := &fakeWeather{fn: func(call int32) (*Weather, error) {
		if call == 1 {
			return &Weather{Condition: "clear", TemperatureC: 30}, nil
		}
		return nil, errors.New("timeout")
	}}
	r := NewRefresher(fw, time.Minute, time.UTC, log, nil)
	r.now = func() time.Time { return time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) }
	r.RefreshClock()

	r.RefreshWeather(context.Background())
	s := r.Snapshot()
	require.NotNil(t, s.Weather)
	assert.Equal(t, "clear", s.Weather.Condition)
	assert.Equal(t, SeasonSummer, s.Season)

	r.RefreshWeather(context.Background())
	s = r.Snapshot()
	assert.Nil(t, s.Weather)
	assert.Equal(t, "July 1, 2025", s.Date)
	assert.Equal(t, "09:00 AM", s.Time)
}

func TestRefresher_StaleWeatherDiscarded(t *testing.T) {
	log, _ := test.NewNullLogger()
	release := make(chan struct{})
	started := make(chan struct{})
	fw := &fakeWeather{fn: func(call int32) (*Weather, error) {
		if call == 1 {
			close(started)
			<-release
			return &Weather{Condition: "snow", TemperatureC: -2}, nil
		}
		return &Weather{Condition: "clouds", TemperatureC: 12}, nil
	}}
	r := NewRefresher(fw, time.Minute, time.UTC, log, nil)

	done := make(chan struct{})
	go func() {
		r.RefreshWeather(context.Background())
		close(done)
	}()
	<-started
	r.RefreshWeather(context.Background())
	close(release)
	<-done

	s := r.Snapshot()
	require.NotNil(t, s.Weather)
	assert.Equal(t, "clouds", s.Weather.Condition)
}

func TestRefresher_DisabledClientSkipsFetch(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := NewRefresher(NewWeatherClient("http://unused", "", "x", time.Second), time.Minute, time.UTC, log, nil)
	r.RefreshWeather(context.Background())
	assert.Nil(t, r.Snapshot().Weather)
}
