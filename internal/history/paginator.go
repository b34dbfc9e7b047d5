package history

import (
	"context"
	"sync"

	"github.com/yildizm/prhistory/internal/logger"
)

const (
	// WindowSize is the number of events rendered at once
	WindowSize = 5

	// PageSize is the number of events the server adds per reload index
	PageSize = 50
)

// Fetcher retrieves the accumulated history for pages 0..reloadIndex.
// Each call returns the full list seen so far, not just the new page.
type Fetcher interface {
	Fetch(ctx context.Context, reloadIndex int) ([]string, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, reloadIndex int) ([]string, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, reloadIndex int) ([]string, error) {
	return f(ctx, reloadIndex)
}

// Renderer is the render target of a Paginator. Methods are called with the
// paginator lock held and must not call back into the paginator.
type Renderer interface {
	Render(rows []string)
	SetLoadMoreVisible(visible bool)
}

// Snapshot is a copy of the paginator state at one point in time
type Snapshot struct {
	Rows            []string
	DisplayIndex    int
	ReloadIndex     int
	Total           int
	LoadMoreVisible bool
	Loading         int
	LastError       error
}

// Paginator owns a five-event window over the request history fetched from
// the server. The window only moves through Previous and Next; LoadMore and
// Refresh replace the event list but keep the window where it is.
type Paginator struct {
	mu       sync.Mutex
	fetcher  Fetcher
	renderer Renderer
	log      *logger.Logger

	events          []string
	displayIndex    int
	reloadIndex     int
	loadMoreVisible bool

	// results for pages older than appliedIndex, or from before the last
	// Initialize, are dropped
	appliedIndex int
	generation   int
	inFlight     int
	lastErr      error
}

// Option configures a Paginator
type Option func(*Paginator)

// WithRenderer sets the render target
func WithRenderer(r Renderer) Option {
	return func(p *Paginator) {
		p.renderer = r
	}
}

// WithLogger sets the diagnostic logger fetch failures are written to
func WithLogger(l *logger.Logger) Option {
	return func(p *Paginator) {
		p.log = l
	}
}

// New creates a paginator with an empty history
func New(fetcher Fetcher, opts ...Option) *Paginator {
	p := &Paginator{
		fetcher:      fetcher,
		appliedIndex: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.New("history", nil)
	}
	return p
}

// Initialize fetches page 0 and renders the first window
func (p *Paginator) Initialize(ctx context.Context) *Pending {
	p.mu.Lock()
	p.generation++
	p.reloadIndex = 0
	p.appliedIndex = -1
	gen := p.generation
	p.setLoadMore(false)
	p.mu.Unlock()

	return p.fetchAsync(ctx, gen, 0, func(events []string) {
		p.events = events
		p.displayIndex = 0
		p.render()
	})
}

// Previous moves the window back by one step unless it is at the head.
// The load-more affordance is recomputed either way.
func (p *Paginator) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.displayIndex != 0 {
		p.displayIndex -= WindowSize
		p.render()
	}
	p.updateLoadMore()
}

// Next moves the window forward by one step unless it is at the tail.
// The load-more affordance is recomputed either way.
func (p *Paginator) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.displayIndex+WindowSize <= len(p.events)-WindowSize {
		p.displayIndex += WindowSize
		p.render()
	}
	p.updateLoadMore()
}

// LoadMore requests the next page. The reload index is advanced and the
// affordance hidden before the fetch starts; neither is undone on failure.
// On success the event list is replaced and re-rendered at the current
// display index.
func (p *Paginator) LoadMore(ctx context.Context) *Pending {
	p.mu.Lock()
	p.reloadIndex++
	page := p.reloadIndex
	gen := p.generation
	p.setLoadMore(false)
	p.mu.Unlock()

	return p.fetchAsync(ctx, gen, page, func(events []string) {
		p.events = events
		p.render()
	})
}

// Refresh re-fetches every page loaded so far. The window stays put unless
// the new list is too short for it, in which case it moves to the last
// full window.
func (p *Paginator) Refresh(ctx context.Context) *Pending {
	p.mu.Lock()
	page := p.reloadIndex
	gen := p.generation
	p.mu.Unlock()

	return p.fetchAsync(ctx, gen, page, func(events []string) {
		p.events = events
		p.displayIndex = clampIndex(p.displayIndex, len(events))
		p.render()
		p.updateLoadMore()
	})
}

// Snapshot returns a copy of the current state
func (p *Paginator) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		Rows:            Window(p.events, p.displayIndex),
		DisplayIndex:    p.displayIndex,
		ReloadIndex:     p.reloadIndex,
		Total:           len(p.events),
		LoadMoreVisible: p.loadMoreVisible,
		Loading:         p.inFlight,
		LastError:       p.lastErr,
	}
}

// Events returns a copy of the full event list
func (p *Paginator) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *Paginator) fetchAsync(ctx context.Context, gen, page int, apply func(events []string)) *Pending {
	pending := newPending()

	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()

	p.log.DebugWithFields("fetching request history", []logger.Field{logger.Page(page)})

	go func() {
		events, err := p.fetcher.Fetch(ctx, page)
		pending.resolve(p.complete(gen, page, events, err, apply))
	}()

	return pending
}

func (p *Paginator) complete(gen, page int, events []string, err error, apply func(events []string)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--

	// a newer page (or a new session) already won; its outcome stands
	if gen != p.generation || page < p.appliedIndex {
		p.log.DebugWithFields("discarding stale request history", []logger.Field{
			logger.Page(page),
			logger.F("applied", p.appliedIndex),
			logger.F("failed", err != nil),
		})
		return ErrStale
	}

	if err != nil {
		if !IsFetchError(err) {
			err = NewFetchError(page, "request history fetch failed", err)
		}
		p.lastErr = err
		p.log.ErrorWithFields("failed to load request history", []logger.Field{logger.Page(page), logger.Error(err)})
		return err
	}

	p.appliedIndex = page
	p.lastErr = nil
	apply(append([]string(nil), events...))
	p.log.DebugWithFields("request history loaded", []logger.Field{logger.Page(page), logger.Count(len(events))})
	return nil
}

// render pushes the current window to the renderer. Caller holds p.mu.
func (p *Paginator) render() {
	if p.renderer != nil {
		p.renderer.Render(Window(p.events, p.displayIndex))
	}
}

// updateLoadMore recomputes the affordance. Caller holds p.mu.
func (p *Paginator) updateLoadMore() {
	p.setLoadMore(LoadMoreVisible(p.displayIndex, len(p.events)))
}

func (p *Paginator) setLoadMore(visible bool) {
	p.loadMoreVisible = visible
	if p.renderer != nil {
		p.renderer.SetLoadMoreVisible(visible)
	}
}

// Window returns the events in [displayIndex, displayIndex+WindowSize),
// clamped to the list. A window past the end is empty.
func Window(events []string, displayIndex int) []string {
	if displayIndex < 0 || displayIndex >= len(events) {
		return []string{}
	}
	end := displayIndex + WindowSize
	if end > len(events) {
		end = len(events)
	}
	return append([]string(nil), events[displayIndex:end]...)
}

// LoadMoreVisible reports whether the window sits at the tail of the list
func LoadMoreVisible(displayIndex, total int) bool {
	return displayIndex == total-WindowSize
}

// clampIndex keeps a display index on a window boundary inside the list
func clampIndex(displayIndex, total int) int {
	last := total - WindowSize
	if last < 0 {
		return 0
	}
	if displayIndex > last {
		return last - last%WindowSize
	}
	return displayIndex
}
