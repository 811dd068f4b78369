package weather_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-weather/internal/selection"
	"github.com/i474232898/city-weather/internal/weather"
)

// fakeClient serves canned responses per city. When a gate is registered for a
// city, Current blocks until the gate is closed, ignoring ctx cancellation.
type fakeClient struct {
	mu          sync.Mutex
	current     map[string]weather.CurrentConditions
	currentErr  map[string]error
	forecast    map[string]*weather.ForecastSample
	forecastErr map[string]error
	gates       map[string]chan struct{}
	calls       []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		current:     map[string]weather.CurrentConditions{},
		currentErr:  map[string]error{},
		forecast:    map[string]*weather.ForecastSample{},
		forecastErr: map[string]error{},
		gates:       map[string]chan struct{}{},
	}
}

func (f *fakeClient) gate(city string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[city] = ch
	return ch
}

func (f *fakeClient) Current(_ context.Context, city string) (weather.CurrentConditions, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "current:"+city)
	gate := f.gates[city]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.currentErr[city]; err != nil {
		return weather.CurrentConditions{}, err
	}
	return f.current[city], nil
}

func (f *fakeClient) Forecast(_ context.Context, city string) (*weather.ForecastSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "forecast:"+city)
	if err := f.forecastErr[city]; err != nil {
		return nil, err
	}
	return f.forecast[city], nil
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type recorder struct {
	mu    sync.Mutex
	views []weather.View
}

func (r *recorder) Record(v weather.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func okConditions(name string, temp float64) weather.CurrentConditions {
	return weather.CurrentConditions{
		Code:    weather.CodeOK,
		Name:    name,
		Dt:      i64(1700000000),
		Weather: []weather.Condition{{Description: "clear sky", Icon: "01d"}},
		Main:    &weather.MainReading{Temp: f64(temp), FeelsLike: f64(temp), Humidity: f64(50)},
		Wind:    &weather.WindReading{Speed: f64(5.0)},
	}
}

func TestPipeline_StartsIdleWithLoadingFlag(t *testing.T) {
	p := weather.NewPipeline(newFakeClient(), nil)
	defer p.Close()

	v := p.View()
	assert.Equal(t, weather.StateIdle, v.State)
	assert.True(t, v.Loading)
	assert.Empty(t, v.City)
	assert.Nil(t, v.Display)
}

func TestPipeline_ReadyDerivesDisplay(t *testing.T) {
	client := newFakeClient()
	client.current["Paris"] = okConditions("Paris", 21.7)
	client.forecast["Paris"] = &weather.ForecastSample{Pop: 0.42}
	rec := &recorder{}

	p := weather.NewPipeline(client, rec)
	defer p.Close()

	p.OnCityChange("Paris")
	p.Wait()

	v := p.View()
	require.Equal(t, weather.StateReady, v.State)
	assert.False(t, v.Loading)
	assert.Equal(t, "Paris", v.City)
	assert.NotEmpty(t, v.ID)
	require.NotNil(t, v.Display)
	assert.Equal(t, "22°C", v.Display.Temperature)
	assert.Equal(t, "18", v.Display.Wind)
	assert.Equal(t, "42%", v.Display.Rain)

	assert.Equal(t, []string{"current:Paris", "forecast:Paris"}, client.callLog())
	require.Len(t, rec.views, 1)
	assert.Equal(t, v, rec.views[0])
}

func TestPipeline_EmptyForecastList(t *testing.T) {
	client := newFakeClient()
	client.current["Quito"] = okConditions("Quito", 14)

	p := weather.NewPipeline(client, nil)
	defer p.Close()

	p.OnCityChange("Quito")
	p.Wait()

	v := p.View()
	require.Equal(t, weather.StateReady, v.State)
	assert.Equal(t, "--%", v.Display.Rain)
}

func TestPipeline_NotFoundWinsOverForecast(t *testing.T) {
	tests := []struct {
		name        string
		forecast    *weather.ForecastSample
		forecastErr error
	}{
		{name: "forecast ok", forecast: &weather.ForecastSample{Pop: 0.9}},
		{name: "forecast transport error", forecastErr: fmt.Errorf("%w: connection reset", weather.ErrTransport)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.current["Atlantis"] = weather.CurrentConditions{Code: 404, Message: "city not found"}
			client.forecast["Atlantis"] = tt.forecast
			client.forecastErr["Atlantis"] = tt.forecastErr
			rec := &recorder{}

			p := weather.NewPipeline(client, rec)
			defer p.Close()

			p.OnCityChange("Atlantis")
			p.Wait()

			v := p.View()
			assert.Equal(t, weather.StateFailed, v.State)
			assert.Equal(t, weather.FailureNotFound, v.Failure)
			assert.Equal(t, "city not found", v.Message)
			assert.False(t, v.Loading)
			assert.Nil(t, v.Display)
			assert.Empty(t, rec.views)
		})
	}
}

func TestPipeline_NotFoundWithoutMessage(t *testing.T) {
	client := newFakeClient()
	client.current["X"] = weather.CurrentConditions{Code: 401}

	p := weather.NewPipeline(client, nil)
	defer p.Close()

	p.OnCityChange("X")
	p.Wait()

	v := p.View()
	assert.Equal(t, weather.FailureNotFound, v.Failure)
	assert.Equal(t, "city not found", v.Message)
}

func TestPipeline_TransportFailure(t *testing.T) {
	t.Run("current fails", func(t *testing.T) {
		client := newFakeClient()
		client.currentErr["Paris"] = fmt.Errorf("%w: dial tcp: timeout", weather.ErrTransport)

		p := weather.NewPipeline(client, nil)
		defer p.Close()

		p.OnCityChange("Paris")
		p.Wait()

		v := p.View()
		assert.Equal(t, weather.StateFailed, v.State)
		assert.Equal(t, weather.FailureTransport, v.Failure)
		assert.False(t, v.Loading)
		assert.Nil(t, v.Display)
		assert.Equal(t, []string{"current:Paris"}, client.callLog())
	})

	t.Run("forecast fails", func(t *testing.T) {
		client := newFakeClient()
		client.current["Paris"] = okConditions("Paris", 10)
		client.forecastErr["Paris"] = fmt.Errorf("%w: invalid character", weather.ErrTransport)

		p := weather.NewPipeline(client, nil)
		defer p.Close()

		p.OnCityChange("Paris")
		p.Wait()

		v := p.View()
		assert.Equal(t, weather.StateFailed, v.State)
		assert.Equal(t, weather.FailureTransport, v.Failure)
		assert.Nil(t, v.Display)
	})
}

func TestPipeline_LoadingViewClearsPreviousData(t *testing.T) {
	client := newFakeClient()
	client.current["Paris"] = okConditions("Paris", 20)
	client.current["Tokyo"] = okConditions("Tokyo", 8)

	p := weather.NewPipeline(client, nil)
	defer p.Close()

	p.OnCityChange("Paris")
	p.Wait()
	require.Equal(t, weather.StateReady, p.View().State)

	gate := client.gate("Tokyo")
	p.OnCityChange("Tokyo")

	v := p.View()
	assert.Equal(t, weather.StateLoading, v.State)
	assert.True(t, v.Loading)
	assert.Equal(t, "Tokyo", v.City)
	assert.Nil(t, v.Display, "stale Paris data must not be shown while Tokyo loads")

	close(gate)
	p.Wait()
	assert.Equal(t, "Tokyo", p.View().Display.City)
}

func TestPipeline_LatestSelectionWins(t *testing.T) {
	for _, order := range [][]string{{"Tokyo", "Paris"}, {"Paris", "Tokyo"}} {
		t.Run(fmt.Sprintf("resolve %s then %s", order[0], order[1]), func(t *testing.T) {
			client := newFakeClient()
			client.current["Paris"] = okConditions("Paris", 18)
			client.current["Tokyo"] = okConditions("Tokyo", 9)
			gates := map[string]chan struct{}{
				"Paris": client.gate("Paris"),
				"Tokyo": client.gate("Tokyo"),
			}
			rec := &recorder{}

			p := weather.NewPipeline(client, rec)
			defer p.Close()

			p.OnCityChange("Paris")
			p.OnCityChange("Tokyo")

			close(gates[order[0]])
			close(gates[order[1]])
			p.Wait()

			v := p.View()
			require.Equal(t, weather.StateReady, v.State)
			assert.Equal(t, "Tokyo", v.City)
			assert.Equal(t, "Tokyo", v.Display.City)
			assert.Equal(t, "9°C", v.Display.Temperature)

			require.Len(t, rec.views, 1)
			assert.Equal(t, "Tokyo", rec.views[0].City)
		})
	}
}

func TestPipeline_SameCityTwiceRunsTwoCycles(t *testing.T) {
	client := newFakeClient()
	client.current["Lima"] = okConditions("Lima", 19)
	client.forecast["Lima"] = &weather.ForecastSample{Pop: 0.1}

	store := selection.New()
	p := weather.NewPipeline(client, nil)
	defer p.Close()
	detach := p.Attach(store)
	defer detach()

	require.NoError(t, store.SetCity("Lima"))
	p.Wait()
	first := p.View()

	require.NoError(t, store.SetCity("  Lima  "))
	p.Wait()
	second := p.View()

	assert.Equal(t, []string{
		"current:Lima", "forecast:Lima",
		"current:Lima", "forecast:Lima",
	}, client.callLog())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Display, second.Display)
	assert.Equal(t, first.State, second.State)
}

func TestPipeline_IgnoresBlankCity(t *testing.T) {
	client := newFakeClient()
	p := weather.NewPipeline(client, nil)
	defer p.Close()

	p.OnCityChange("   ")
	p.Wait()

	assert.Equal(t, weather.StateIdle, p.View().State)
	assert.Empty(t, client.callLog())
}

func TestPipeline_DisplaysCurrentSelectionUnderConcurrentWrites(t *testing.T) {
	client := newFakeClient()
	client.current["Paris"] = okConditions("Paris", 20)
	client.current["Tokyo"] = okConditions("Tokyo", 8)

	store := selection.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	store.Subscribe(func(city string) {
		if city == "Paris" {
			close(entered)
			<-release
		}
	})

	p := weather.NewPipeline(client, nil)
	defer p.Close()
	detach := p.Attach(store)
	defer detach()

	var writers sync.WaitGroup
	writers.Add(2)
	go func() {
		defer writers.Done()
		assert.NoError(t, store.SetCity("Paris"))
	}()
	<-entered
	go func() {
		defer writers.Done()
		assert.NoError(t, store.SetCity("Tokyo"))
	}()

	close(release)
	writers.Wait()
	p.Wait()

	v := p.View()
	require.Equal(t, weather.StateReady, v.State)
	assert.Equal(t, store.City(), v.City)
	assert.Equal(t, "Tokyo", v.Display.City)
}
