package weather

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultNotFoundMessage = "city not found"

// Pipeline reacts to city selections, fetches current conditions and forecast,
// and publishes the derived View. Only the most recent selection's result is
// ever published.
type Pipeline struct {
	client  Client
	history Recorder

	root context.Context
	stop context.CancelFunc

	mu     sync.RWMutex
	view   View
	gen    uint64
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewPipeline creates an idle Pipeline. history may be nil.
func NewPipeline(client Client, history Recorder) *Pipeline {
	root, stop := context.WithCancel(context.Background())
	return &Pipeline{
		client:  client,
		history: history,
		root:    root,
		stop:    stop,
		view:    IdleView(),
	}
}

// Attach subscribes the pipeline to src and returns the unsubscribe func.
func (p *Pipeline) Attach(src CitySource) (detach func()) {
	return src.Subscribe(p.OnCityChange)
}

// View returns the currently published view.
func (p *Pipeline) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

// OnCityChange starts a new fetch cycle for city and returns immediately.
// Any in-flight cycle is cancelled and its result will be discarded.
func (p *Pipeline) OnCityChange(city string) {
	city = strings.TrimSpace(city)
	if city == "" {
		return
	}

	ctx, cancel := context.WithCancel(p.root)
	id := uuid.NewString()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.view = View{
		ID:        id,
		City:      city,
		State:     StateLoading,
		Loading:   true,
		UpdatedAt: time.Now().UTC(),
	}
	p.wg.Add(1)
	p.mu.Unlock()

	log.Printf("DEBUG: fetch %s started for %q", id, city)

	go func() {
		defer p.wg.Done()
		defer cancel()

		view := p.fetch(ctx, id, city)
		p.apply(gen, view)
	}()
}

// Wait blocks until all in-flight fetch cycles have finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close cancels in-flight cycles and waits for them to return.
func (p *Pipeline) Close() {
	p.stop()
	p.wg.Wait()
}

func (p *Pipeline) fetch(ctx context.Context, id, city string) View {
	cur, err := p.client.Current(ctx, city)
	if err != nil {
		log.Printf("ERROR: fetch %s current conditions for %q: %v", id, city, err)
		return failedView(id, city, FailureTransport, "")
	}

	fc, fcErr := p.client.Forecast(ctx, city)

	// The current-conditions status decides not-found regardless of the forecast.
	if !cur.Found() {
		msg := cur.Message
		if msg == "" {
			msg = defaultNotFoundMessage
		}
		log.Printf("INFO: fetch %s: provider reported code %d for %q: %s", id, cur.Code, city, msg)
		return failedView(id, city, FailureNotFound, msg)
	}

	if fcErr != nil {
		log.Printf("ERROR: fetch %s forecast for %q: %v", id, city, fcErr)
		return failedView(id, city, FailureTransport, "")
	}

	d := Derive(cur, fc)
	return View{
		ID:        id,
		City:      city,
		State:     StateReady,
		Display:   &d,
		UpdatedAt: time.Now().UTC(),
	}
}

func (p *Pipeline) apply(gen uint64, view View) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		log.Printf("DEBUG: fetch %s for %q is stale; discarding result", view.ID, view.City)
		return
	}
	p.view = view
	p.cancel = nil
	p.mu.Unlock()

	if view.State == StateReady && p.history != nil {
		p.history.Record(view)
	}
}

func failedView(id, city string, kind FailureKind, msg string) View {
	return View{
		ID:        id,
		City:      city,
		State:     StateFailed,
		Failure:   kind,
		Message:   msg,
		UpdatedAt: time.Now().UTC(),
	}
}
