package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fleveque/company-icons/internal/cache"
	"github.com/fleveque/company-icons/internal/model"
	"github.com/fleveque/company-icons/internal/provider"
)

// fakeResolver answers from a map keyed by normalized URL. Keys in errs fail
// with that error; keys in panics panic.
type fakeResolver struct {
	mu     sync.Mutex
	icons  map[string]string
	errs   map[string]error
	panics map[string]bool
	delay  time.Duration
	calls  map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		icons:  map[string]string{},
		errs:   map[string]error{},
		panics: map[string]bool{},
		calls:  map[string]int{},
	}
}

func (f *fakeResolver) Resolve(_ context.Context, site provider.Site) (Resolution, error) {
	key := site.String()

	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics[key] {
		panic("resolver exploded")
	}
	if err := f.errs[key]; err != nil {
		return Resolution{}, err
	}
	if icon := f.icons[key]; icon != "" {
		return Resolution{IconURL: icon, Source: "path"}, nil
	}
	return Resolution{}, nil
}

func (f *fakeResolver) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func TestIconService_CacheHitSkipsResolver(t *testing.T) {
	resolver := newFakeResolver()
	resolver.icons["https://www.apple.com/"] = "https://www.apple.com/favicon.ico"
	store := cache.NewMemoryStore()
	svc := NewIconService(resolver, store, 1, nil, zap.NewNop())
	ctx := context.Background()

	apple := model.Company{Name: "Apple", URL: "https://www.apple.com"}

	first := svc.Resolve(ctx, apple)
	if first.IconURL != "https://www.apple.com/favicon.ico" || first.Source != "path" {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.URL != "https://www.apple.com/" {
		t.Errorf("expected normalized url, got %s", first.URL)
	}
	if _, ok := store.Get("https://www.apple.com/"); !ok {
		t.Error("expected the normalized url to be cached")
	}

	// Trailing slash variant hits the same cache entry.
	second := svc.Resolve(ctx, model.Company{Name: "Apple", URL: "https://www.apple.com/"})
	if second.IconURL != first.IconURL || second.Source != SourceCache {
		t.Errorf("expected cached result, got %+v", second)
	}
	if n := resolver.callsFor("https://www.apple.com/"); n != 1 {
		t.Errorf("expected 1 resolver call, got %d", n)
	}
}

func TestIconService_MissIsNotCached(t *testing.T) {
	resolver := newFakeResolver()
	store := cache.NewMemoryStore()
	svc := NewIconService(resolver, store, 1, nil, zap.NewNop())
	ctx := context.Background()

	nowhere := model.Company{Name: "Nowhere", URL: "https://nowhere.example"}
	for i := 0; i < 3; i++ {
		res := svc.Resolve(ctx, nowhere)
		if res.IconURL != "" || res.Err != nil {
			t.Fatalf("expected a plain miss, got %+v", res)
		}
	}

	if store.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", store.Len())
	}
	if n := resolver.callsFor("https://nowhere.example/"); n != 3 {
		t.Errorf("expected a resolver call per request, got %d", n)
	}
}

func TestIconService_FailureIsolation(t *testing.T) {
	resolver := newFakeResolver()
	resolver.icons["https://a.example/"] = "https://a.example/favicon.ico"
	resolver.errs["https://b.example/"] = errors.New("connection reset")
	resolver.panics["https://c.example/"] = true
	resolver.icons["https://d.example/"] = "https://d.example/favicon.png"

	core, logs := observer.New(zap.WarnLevel)
	svc := NewIconService(resolver, cache.NewMemoryStore(), 1, nil, zap.New(core))

	companies := []model.Company{
		{Name: "A", URL: "https://a.example"},
		{Name: "B", URL: "https://b.example"},
		{Name: "C", URL: "https://c.example"},
		{Name: "D", URL: "https://d.example"},
	}
	results := svc.ResolveBatch(context.Background(), companies)

	if len(results) != len(companies) {
		t.Fatalf("expected %d results, got %d", len(companies), len(results))
	}
	if results[0].IconURL == "" || results[3].IconURL == "" {
		t.Errorf("expected healthy items to resolve, got %+v and %+v", results[0], results[3])
	}
	for _, i := range []int{1, 2} {
		if results[i].IconURL != "" {
			t.Errorf("item %d: expected empty icon url, got %s", i, results[i].IconURL)
		}
		if results[i].Err == nil {
			t.Errorf("item %d: expected an error", i)
		}
	}

	if n := logs.FilterMessage("unexpected error resolving icon").Len(); n != 2 {
		t.Errorf("expected 2 warnings, got %d", n)
	}
}

func TestIconService_OrderPreservedWithConcurrency(t *testing.T) {
	resolver := newFakeResolver()
	resolver.delay = 5 * time.Millisecond

	var companies []model.Company
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://site%02d.example/", i)
		resolver.icons[u] = u + "favicon.ico"
		companies = append(companies, model.Company{Name: fmt.Sprintf("Site %d", i), URL: u})
	}

	svc := NewIconService(resolver, cache.NewMemoryStore(), 8, nil, zap.NewNop())
	results := svc.ResolveBatch(context.Background(), companies)

	for i, res := range results {
		if res.Company.Name != companies[i].Name {
			t.Errorf("position %d: expected %s, got %s", i, companies[i].Name, res.Company.Name)
		}
		if res.IconURL != companies[i].URL+"favicon.ico" {
			t.Errorf("position %d: unexpected icon %s", i, res.IconURL)
		}
	}
}

// countingResolver tracks the highest number of concurrent Resolve calls.
type countingResolver struct {
	active, peak int32
}

func (c *countingResolver) Resolve(_ context.Context, _ provider.Site) (Resolution, error) {
	n := atomic.AddInt32(&c.active, 1)
	for {
		p := atomic.LoadInt32(&c.peak)
		if n <= p || atomic.CompareAndSwapInt32(&c.peak, p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	atomic.AddInt32(&c.active, -1)
	return Resolution{}, nil
}

func TestIconService_ConcurrencyOneIsSequential(t *testing.T) {
	resolver := &countingResolver{}
	svc := NewIconService(resolver, cache.NewMemoryStore(), 1, nil, zap.NewNop())

	var companies []model.Company
	for i := 0; i < 6; i++ {
		companies = append(companies, model.Company{Name: "x", URL: fmt.Sprintf("https://s%d.example", i)})
	}
	svc.ResolveBatch(context.Background(), companies)

	if peak := atomic.LoadInt32(&resolver.peak); peak != 1 {
		t.Errorf("expected sequential resolution, peak concurrency was %d", peak)
	}
}

func TestIconService_EmptyBatch(t *testing.T) {
	svc := NewIconService(newFakeResolver(), cache.NewMemoryStore(), 4, nil, zap.NewNop())
	results := svc.ResolveBatch(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestIconService_InvalidURLIsItemError(t *testing.T) {
	svc := NewIconService(newFakeResolver(), cache.NewMemoryStore(), 1, nil, zap.NewNop())

	res := svc.Resolve(context.Background(), model.Company{Name: "Bad", URL: "not-a-url"})
	if !errors.Is(res.Err, model.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", res.Err)
	}
}

// End to end through the real provider chain: the second request for the
// same site must not reach the network.
func TestIconService_CachedSiteIsNotProbedAgain(t *testing.T) {
	var probes int32
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&probes, 1)
		if r.URL.Path != "/favicon.ico" {
			http.NotFound(w, r)
		}
	}))
	defer site.Close()

	svc := NewIconService(newDefaultResolver("http://127.0.0.1:1/unused"), cache.NewMemoryStore(), 1, nil, zap.NewNop())
	company := model.Company{Name: "Apple", URL: site.URL}

	first := svc.Resolve(context.Background(), company)
	if first.IconURL != site.URL+"/favicon.ico" {
		t.Fatalf("expected favicon.ico, got %+v", first)
	}
	before := atomic.LoadInt32(&probes)

	second := svc.Resolve(context.Background(), company)
	if second.IconURL != first.IconURL {
		t.Errorf("expected %s, got %s", first.IconURL, second.IconURL)
	}
	if after := atomic.LoadInt32(&probes); after != before {
		t.Errorf("expected no new probes, got %d", after-before)
	}
}

func TestItemResult_Response(t *testing.T) {
	r := ItemResult{
		Company: model.Company{Name: "Apple", URL: "https://www.apple.com"},
		URL:     "https://www.apple.com/",
		IconURL: "https://www.apple.com/favicon.ico",
	}
	got := r.Response()
	want := model.CompanyWithIcon{Name: "Apple", URL: "https://www.apple.com/", IconURL: "https://www.apple.com/favicon.ico"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

// gatedResolver blocks every call until gate is closed, then reports whether
// the ctx it was given had been cancelled in the meantime.
type gatedResolver struct {
	gate    chan struct{}
	started chan struct{}
	icon    string
	calls   atomic.Int32
}

func newGatedResolver(icon string) *gatedResolver {
	return &gatedResolver{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 16),
		icon:    icon,
	}
}

func (g *gatedResolver) Resolve(ctx context.Context, _ provider.Site) (Resolution, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-g.gate
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	return Resolution{IconURL: g.icon, Source: "path"}, nil
}

func waitResult(t *testing.T, ch <-chan ItemResult) ItemResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Resolve")
		return ItemResult{}
	}
}

func TestIconService_ConcurrentLookupsShareResolution(t *testing.T) {
	resolver := newGatedResolver("https://a.example/favicon.ico")
	svc := NewIconService(resolver, cache.NewMemoryStore(), 4, nil, zap.NewNop())
	company := model.Company{Name: "A", URL: "https://a.example"}

	const callers = 8
	results := make(chan ItemResult, callers)
	for i := 0; i < callers; i++ {
		go func() { results <- svc.Resolve(context.Background(), company) }()
	}

	<-resolver.started
	// Let the remaining callers reach the in-flight call before it finishes.
	time.Sleep(50 * time.Millisecond)
	close(resolver.gate)

	for i := 0; i < callers; i++ {
		res := waitResult(t, results)
		if res.Err != nil || res.IconURL != "https://a.example/favicon.ico" {
			t.Errorf("caller %d: unexpected result %+v", i, res)
		}
	}
	if n := resolver.calls.Load(); n != 1 {
		t.Errorf("expected 1 resolver call, got %d", n)
	}
}

func TestIconService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	resolver := newGatedResolver("https://a.example/favicon.ico")
	store := cache.NewMemoryStore()
	svc := NewIconService(resolver, store, 4, nil, zap.NewNop())
	company := model.Company{Name: "A", URL: "https://a.example"}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	resultA := make(chan ItemResult, 1)
	go func() { resultA <- svc.Resolve(ctxA, company) }()
	<-resolver.started

	resultB := make(chan ItemResult, 1)
	go func() { resultB <- svc.Resolve(context.Background(), company) }()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	a := waitResult(t, resultA)
	if !errors.Is(a.Err, context.Canceled) {
		t.Errorf("expected the cancelled caller to see context.Canceled, got %v", a.Err)
	}

	close(resolver.gate)
	b := waitResult(t, resultB)
	if b.Err != nil || b.IconURL != "https://a.example/favicon.ico" {
		t.Errorf("expected the other caller to get the icon, got %+v", b)
	}
	if _, ok := store.Get("https://a.example/"); !ok {
		t.Error("expected the shared resolution to be cached")
	}
}

func TestIconService_ResultCachedAfterCallerLeaves(t *testing.T) {
	resolver := newGatedResolver("https://a.example/favicon.ico")
	store := cache.NewMemoryStore()
	svc := NewIconService(resolver, store, 1, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan ItemResult, 1)
	go func() { done <- svc.Resolve(ctx, model.Company{Name: "A", URL: "https://a.example"}) }()
	<-resolver.started

	cancel()
	waitResult(t, done)
	close(resolver.gate)

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if icon, ok := store.Get("https://a.example/"); !ok || icon != "https://a.example/favicon.ico" {
		t.Errorf("expected icon cached after the caller left, got %q (%v)", icon, ok)
	}
}
