package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/yildizm/prhistory/internal/logger"
)

// stubFetcher serves cumulative pages of generated events. Pages listed in
// gates block until the gate channel is closed.
type stubFetcher struct {
	mu    sync.Mutex
	total int
	errs  map[int]error
	gates map[int]chan struct{}
	calls []int
}

func newStubFetcher(total int) *stubFetcher {
	return &stubFetcher{
		total: total,
		errs:  make(map[int]error),
		gates: make(map[int]chan struct{}),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, reloadIndex int) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reloadIndex)
	gate := f.gates[reloadIndex]
	err := f.errs[reloadIndex]
	total := f.total
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	n := (reloadIndex + 1) * PageSize
	if n > total {
		n = total
	}
	return makeEvents(n), nil
}

func (f *stubFetcher) setError(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[page] = err
}

func (f *stubFetcher) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[page] = ch
	return ch
}

func (f *stubFetcher) requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// recordingRenderer keeps the last rendered rows and affordance state
type recordingRenderer struct {
	rows     []string
	visible  bool
	renders  int
	toggles  int
	rendered bool
}

func (r *recordingRenderer) Render(rows []string) {
	r.rows = rows
	r.renders++
	r.rendered = true
}

func (r *recordingRenderer) SetLoadMoreVisible(visible bool) {
	r.visible = visible
	r.toggles++
}

func makeEvents(n int) []string {
	events := make([]string, n)
	for i := range events {
		events[i] = fmt.Sprintf("e%d", i)
	}
	return events
}

func waitOK(t *testing.T, p *Pending) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Unexpected fetch error: %v", err)
	}
}

func newTestPaginator(t *testing.T, total int) (*Paginator, *stubFetcher, *recordingRenderer) {
	t.Helper()
	fetcher := newStubFetcher(total)
	renderer := &recordingRenderer{}
	p := New(fetcher, WithRenderer(renderer), WithLogger(logger.Discard()))
	waitOK(t, p.Initialize(context.Background()))
	return p, fetcher, renderer
}

func TestInitialize(t *testing.T) {
	p, fetcher, renderer := newTestPaginator(t, 50)

	if got := fetcher.requested(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Expected a single fetch for page 0, got %v", got)
	}
	want := []string{"e0", "e1", "e2", "e3", "e4"}
	if !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected rows %v, got %v", want, renderer.rows)
	}

	snap := p.Snapshot()
	if snap.DisplayIndex != 0 || snap.Total != 50 || snap.ReloadIndex != 0 {
		t.Errorf("Unexpected snapshot after initialize: %+v", snap)
	}
	if snap.LoadMoreVisible || renderer.visible {
		t.Error("Expected load-more to be hidden after initialize")
	}
}

func TestInitializeFailureLeavesViewEmpty(t *testing.T) {
	fetcher := newStubFetcher(50)
	fetcher.setError(0, errors.New("connection refused"))
	renderer := &recordingRenderer{}

	var logBuf bytes.Buffer
	log := logger.New("history", nil)
	log.SetOutput(&logBuf)

	p := New(fetcher, WithRenderer(renderer), WithLogger(log))
	err := p.Initialize(context.Background()).Wait(context.Background())
	if err == nil {
		t.Fatal("Expected fetch error")
	}
	if !IsFetchError(err) {
		t.Errorf("Expected *FetchError, got %T", err)
	}
	if renderer.rendered {
		t.Error("Expected no render after failed initialize")
	}
	if !strings.Contains(logBuf.String(), "ERROR [history]") || !strings.Contains(logBuf.String(), "page=0") {
		t.Errorf("Expected failure to be logged, got %q", logBuf.String())
	}
	if snap := p.Snapshot(); snap.Total != 0 || snap.LastError == nil {
		t.Errorf("Unexpected snapshot after failure: %+v", snap)
	}
}

func TestNextPreviousRoundTrip(t *testing.T) {
	p, _, renderer := newTestPaginator(t, 50)

	p.Next()
	p.Next()
	before := p.Snapshot()
	rowsBefore := renderer.rows

	p.Next()
	p.Previous()

	after := p.Snapshot()
	if after.DisplayIndex != before.DisplayIndex {
		t.Errorf("Expected display index %d, got %d", before.DisplayIndex, after.DisplayIndex)
	}
	if !reflect.DeepEqual(renderer.rows, rowsBefore) {
		t.Errorf("Expected rows %v, got %v", rowsBefore, renderer.rows)
	}
}

func TestBoundaryAtTail(t *testing.T) {
	p, _, renderer := newTestPaginator(t, 50)

	for i := 0; i < 4; i++ {
		p.Next()
	}
	if snap := p.Snapshot(); snap.DisplayIndex != 20 || snap.LoadMoreVisible {
		t.Errorf("Expected index 20 with load-more hidden, got %+v", snap)
	}

	for i := 0; i < 5; i++ {
		p.Next()
	}
	snap := p.Snapshot()
	if snap.DisplayIndex != 45 || !snap.LoadMoreVisible || !renderer.visible {
		t.Errorf("Expected index 45 with load-more shown, got %+v", snap)
	}

	renders := renderer.renders
	p.Next()
	snap = p.Snapshot()
	if snap.DisplayIndex != 45 {
		t.Errorf("Expected next at tail to keep index 45, got %d", snap.DisplayIndex)
	}
	if !snap.LoadMoreVisible || !renderer.visible {
		t.Error("Expected load-more to stay shown at tail")
	}
	if renderer.renders != renders {
		t.Error("Expected no re-render when next is a no-op")
	}
	want := []string{"e45", "e46", "e47", "e48", "e49"}
	if !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected rows %v, got %v", want, renderer.rows)
	}
}

func TestBoundaryAtHead(t *testing.T) {
	p, _, renderer := newTestPaginator(t, 50)
	renderer.visible = true
	toggles := renderer.toggles

	p.Previous()

	if snap := p.Snapshot(); snap.DisplayIndex != 0 {
		t.Errorf("Expected index 0, got %d", snap.DisplayIndex)
	}
	if renderer.toggles != toggles+1 {
		t.Error("Expected previous at head to recompute the affordance")
	}
	if renderer.visible {
		t.Error("Expected load-more hidden at head of a 50-event list")
	}
}

func TestLoadMoreAccumulates(t *testing.T) {
	p, fetcher, renderer := newTestPaginator(t, 100)
	for i := 0; i < 9; i++ {
		p.Next()
	}
	if !p.Snapshot().LoadMoreVisible {
		t.Fatal("Expected load-more shown at index 45")
	}

	pending := p.LoadMore(context.Background())
	if renderer.visible {
		t.Error("Expected load-more hidden as soon as load-more is issued")
	}
	waitOK(t, pending)

	if got := fetcher.requested(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("Expected fetches [0 1], got %v", got)
	}
	snap := p.Snapshot()
	if snap.Total != 100 || snap.ReloadIndex != 1 || snap.DisplayIndex != 45 {
		t.Errorf("Unexpected snapshot after load-more: %+v", snap)
	}
	want := []string{"e45", "e46", "e47", "e48", "e49"}
	if !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected rows to stay at %v, got %v", want, renderer.rows)
	}
	if snap.LoadMoreVisible {
		t.Error("Expected load-more to stay hidden until the window moves")
	}

	p.Next()
	want = []string{"e50", "e51", "e52", "e53", "e54"}
	if !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected rows %v after next, got %v", want, renderer.rows)
	}
}

func TestLoadMoreFailure(t *testing.T) {
	p, fetcher, renderer := newTestPaginator(t, 100)
	for i := 0; i < 9; i++ {
		p.Next()
	}
	rowsBefore := renderer.rows
	fetcher.setError(1, NewStatusError(1, 500, ""))

	err := p.LoadMore(context.Background()).Wait(context.Background())
	if err == nil {
		t.Fatal("Expected load-more to fail")
	}

	snap := p.Snapshot()
	if snap.Total != 50 {
		t.Errorf("Expected events to stay at 50, got %d", snap.Total)
	}
	if snap.ReloadIndex != 1 {
		t.Errorf("Expected reload index to stay advanced at 1, got %d", snap.ReloadIndex)
	}
	if !reflect.DeepEqual(renderer.rows, rowsBefore) {
		t.Errorf("Expected rows %v, got %v", rowsBefore, renderer.rows)
	}
	if snap.LastError == nil {
		t.Error("Expected last error to be recorded")
	}

	// a retry asks for the following page
	fetcher.setError(1, nil)
	waitOK(t, p.LoadMore(context.Background()))
	if got := fetcher.requested(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("Expected fetches [0 1 2], got %v", got)
	}
	if p.Snapshot().LastError != nil {
		t.Error("Expected last error cleared after a successful fetch")
	}
}

func TestConcurrentLoadMoreKeepsNewestPage(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	p, fetcher, _ := newTestPaginator(t, 200)

	gate1 := fetcher.gate(1)
	gate2 := fetcher.gate(2)

	first := p.LoadMore(context.Background())
	second := p.LoadMore(context.Background())

	close(gate2)
	waitOK(t, second)
	if got := p.Snapshot().Total; got != 150 {
		t.Fatalf("Expected 150 events after page 2, got %d", got)
	}

	close(gate1)
	err := first.Wait(context.Background())
	if !errors.Is(err, ErrStale) {
		t.Errorf("Expected ErrStale for the late page 1, got %v", err)
	}
	if got := p.Snapshot().Total; got != 150 {
		t.Errorf("Expected late page 1 to be discarded, got %d events", got)
	}
}

func TestLateFailureForOlderPageIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	p, fetcher, renderer := newTestPaginator(t, 200)

	var logBuf bytes.Buffer
	p.log.SetOutput(&logBuf)

	gate1 := fetcher.gate(1)
	fetcher.setError(1, errors.New("boom"))

	first := p.LoadMore(context.Background())
	second := p.LoadMore(context.Background())
	waitOK(t, second)

	close(gate1)
	if err := first.Wait(context.Background()); !errors.Is(err, ErrStale) {
		t.Errorf("Expected ErrStale for the late page 1 failure, got %v", err)
	}

	snap := p.Snapshot()
	if snap.Total != 150 || snap.ReloadIndex != 2 {
		t.Errorf("Expected page 2 to stand, got total=%d reload=%d", snap.Total, snap.ReloadIndex)
	}
	if snap.LastError != nil {
		t.Errorf("Expected no error recorded for a superseded page, got %v", snap.LastError)
	}
	if strings.Contains(logBuf.String(), "ERROR") {
		t.Errorf("Expected no error logged for a superseded page, got %q", logBuf.String())
	}
	if len(renderer.rows) != WindowSize {
		t.Errorf("Expected the window to stay rendered, got %v", renderer.rows)
	}
}

func TestReinitializeHidesLoadMore(t *testing.T) {
	p, _, renderer := newTestPaginator(t, 50)
	for i := 0; i < 9; i++ {
		p.Next()
	}
	if !p.Snapshot().LoadMoreVisible {
		t.Fatal("Expected load-more at the tail before re-initializing")
	}

	pending := p.Initialize(context.Background())
	if p.Snapshot().LoadMoreVisible || renderer.visible {
		t.Error("Expected load-more hidden as soon as initialize starts")
	}
	waitOK(t, pending)

	snap := p.Snapshot()
	if snap.DisplayIndex != 0 {
		t.Errorf("Expected display index 0, got %d", snap.DisplayIndex)
	}
	if snap.LoadMoreVisible || renderer.visible {
		t.Error("Expected load-more hidden after re-initialize")
	}
	if want := []string{"e0", "e1", "e2", "e3", "e4"}; !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected rows %v, got %v", want, renderer.rows)
	}
}

func TestPartialFinalPage(t *testing.T) {
	p, _, renderer := newTestPaginator(t, 52)
	for i := 0; i < 9; i++ {
		p.Next()
	}
	waitOK(t, p.LoadMore(context.Background()))

	// the trailing partial window is not reachable
	p.Next()

	snap := p.Snapshot()
	if snap.Total != 52 {
		t.Fatalf("Expected 52 events, got %d", snap.Total)
	}
	if snap.DisplayIndex != 45 {
		t.Errorf("Expected display index to stay at 45, got %d", snap.DisplayIndex)
	}
	if want := []string{"e45", "e46", "e47", "e48", "e49"}; !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected rows %v, got %v", want, renderer.rows)
	}
	if snap.LoadMoreVisible {
		t.Error("Expected load-more hidden when display index is not len-5")
	}
}

func TestCancelledLoadMore(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	p, fetcher, _ := newTestPaginator(t, 200)

	fetcher.gate(1)
	ctx, cancel := context.WithCancel(context.Background())
	pending := p.LoadMore(ctx)
	cancel()

	<-pending.Done()
	err := pending.Err()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation to surface, got %v", err)
	}
	if !IsFetchError(err) {
		t.Errorf("Expected cancellation wrapped as a fetch error, got %T", err)
	}

	snap := p.Snapshot()
	if snap.Total != 50 {
		t.Errorf("Expected events untouched, got %d", snap.Total)
	}
	if snap.ReloadIndex != 1 {
		t.Errorf("Expected reload index to stay advanced, got %d", snap.ReloadIndex)
	}
	if snap.Loading != 0 {
		t.Errorf("Expected no fetch in flight, got %d", snap.Loading)
	}
}

func TestRefreshClampsWindow(t *testing.T) {
	fetcher := newStubFetcher(50)
	p := New(fetcher, WithLogger(logger.Discard()))
	waitOK(t, p.Initialize(context.Background()))
	for i := 0; i < 9; i++ {
		p.Next()
	}

	fetcher.mu.Lock()
	fetcher.total = 23
	fetcher.mu.Unlock()

	waitOK(t, p.Refresh(context.Background()))
	snap := p.Snapshot()
	if snap.DisplayIndex != 15 {
		t.Errorf("Expected window clamped to 15, got %d", snap.DisplayIndex)
	}
	if len(snap.Rows) != WindowSize {
		t.Errorf("Expected a full window, got %v", snap.Rows)
	}
}

func TestShortList(t *testing.T) {
	p, _, renderer := newTestPaginator(t, 3)

	if want := []string{"e0", "e1", "e2"}; !reflect.DeepEqual(renderer.rows, want) {
		t.Errorf("Expected clamped rows %v, got %v", want, renderer.rows)
	}

	p.Next()
	snap := p.Snapshot()
	if snap.DisplayIndex != 0 {
		t.Errorf("Expected next on a short list to stay at 0, got %d", snap.DisplayIndex)
	}
	if snap.LoadMoreVisible {
		t.Error("Expected load-more hidden on a short list")
	}
}

func TestWindow(t *testing.T) {
	events := makeEvents(12)
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"head", 0, []string{"e0", "e1", "e2", "e3", "e4"}},
		{"middle", 5, []string{"e5", "e6", "e7", "e8", "e9"}},
		{"partial tail", 10, []string{"e10", "e11"}},
		{"past end", 15, []string{}},
		{"negative", -5, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Window(events, tt.index); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Window(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}
}

func TestLoadMoreVisible(t *testing.T) {
	tests := []struct {
		index, total int
		want         bool
	}{
		{0, 50, false},
		{20, 50, false},
		{45, 50, true},
		{45, 100, false},
		{95, 100, true},
		{0, 5, true},
		{0, 3, false},
		{0, 0, false},
	}

	for _, tt := range tests {
		if got := LoadMoreVisible(tt.index, tt.total); got != tt.want {
			t.Errorf("LoadMoreVisible(%d, %d) = %v, want %v", tt.index, tt.total, got, tt.want)
		}
	}
}
