package daily

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/songle/storage"
)

const (
	jan1 = int64(1704067200000)
	jan2 = int64(1704153600000)
)

type pick struct {
	id     string
	c1, c2 float64
}

func flatten(a *models.DailyAssignment) []pick {
	out := make([]pick, len(a.Songs))
	for i, p := range a.Songs {
		out[i] = pick{p.SongID, p.Clue1Start, p.Clue2Start}
	}
	return out
}

func songs(pairs ...any) []models.Song {
	var out []models.Song
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.Song{ID: pairs[i].(string), Duration: float64(pairs[i+1].(int))})
	}
	return out
}

func sixSongs() []models.Song {
	return songs("s30", 30, "s45", 45, "s60", 60, "s75", 75, "s90", 90, "s120", 120)
}

func openStore(t *testing.T, path string) *storage.DBClient {
	t.Helper()
	db, err := storage.NewDBClientWithPath(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newEngine(t *testing.T, store Store, cat *catalog.Catalog) *Engine {
	t.Helper()
	return NewEngine(Config{Store: store, Catalog: catalog.NewHolder(nil, cat)})
}

// TestGenerateKnownValues pins the draw against hand-computed values
func TestGenerateKnownValues(t *testing.T) {
	abc := songs("A", 100, "B", 50, "C", 75)
	scrambled := songs("C", 75, "A", 100, "B", 50)

	cases := []struct {
		key  int64
		want []pick
	}{
		{jan1, []pick{{"A", 63, 42}, {"B", 42, 45}, {"C", 44, 3}}},
		{jan2, []pick{{"B", 45, 28}, {"C", 53, 26}, {"A", 60, 86}}},
	}
	for _, tc := range cases {
		for _, in := range [][]models.Song{abc, scrambled} {
			a, err := Generate(tc.key, in, 3)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if got := flatten(a); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Generate(%d) = %v, want %v", tc.key, got, tc.want)
			}
		}
	}
}

func TestGenerateFiveOfSix(t *testing.T) {
	a, err := Generate(jan1, sixSongs(), PicksPerDay)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := []pick{{"s90", 16, 1}, {"s30", 17, 13}, {"s75", 28, 59}, {"s60", 31, 36}, {"s45", 44, 1}}
	if got := flatten(a); !reflect.DeepEqual(got, want) {
		t.Errorf("Generate = %v, want %v", got, want)
	}
}

// TestGenerateInvariants checks uniqueness and offset bounds over many days
func TestGenerateInvariants(t *testing.T) {
	cat := sixSongs()
	cat = append(cat, models.Song{ID: "tiny", Duration: 0.3}, models.Song{ID: "short", Duration: 0.8})
	durations := map[string]float64{}
	for _, s := range cat {
		durations[s.ID] = s.Duration
	}

	for day := int64(0); day < 365; day++ {
		key := jan1 + day*86400000
		a, err := Generate(key, cat, PicksPerDay)
		if err != nil {
			t.Fatalf("Generate(%d) failed: %v", key, err)
		}
		if len(a.Songs) != PicksPerDay {
			t.Fatalf("Expected %d picks, got %d", PicksPerDay, len(a.Songs))
		}
		seen := map[string]bool{}
		for _, p := range a.Songs {
			if seen[p.SongID] {
				t.Fatalf("Day %d repeats %s", key, p.SongID)
			}
			seen[p.SongID] = true

			d := durations[p.SongID]
			if p.Clue1Start < 0 || (d >= 0.5 && p.Clue1Start > d-0.5) {
				t.Errorf("Day %d: clue 1 start %f out of range for %s (%f)", key, p.Clue1Start, p.SongID, d)
			}
			if p.Clue2Start < 0 || (d >= 1 && p.Clue2Start > d-1) {
				t.Errorf("Day %d: clue 2 start %f out of range for %s (%f)", key, p.Clue2Start, p.SongID, d)
			}
			if d < 1 && p.Clue2Start != 0 {
				t.Errorf("Sub-second song %s got clue 2 start %f", p.SongID, p.Clue2Start)
			}
		}
	}
}

func TestGenerateNotEnoughSongs(t *testing.T) {
	if _, err := Generate(jan1, songs("A", 10, "B", 20), PicksPerDay); !errors.Is(err, catalog.ErrNotEnoughSongs) {
		t.Errorf("Expected ErrNotEnoughSongs, got %v", err)
	}
}

// TestResolveDeterministicAcrossReopen checks that a restart serves the stored day
func TestResolveDeterministicAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite3")
	ctx := context.Background()

	first, err := storage.NewDBClientWithPath(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a1, err := newEngine(t, first, catalog.New(sixSongs(), nil)).Resolve(ctx, jan1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	first.Close()

	second := openStore(t, path)
	// A different catalog must not change an already persisted day.
	other := catalog.New(songs("x1", 10, "x2", 20, "x3", 30, "x4", 40, "x5", 50), nil)
	a2, err := newEngine(t, second, other).Resolve(ctx, jan1)
	if err != nil {
		t.Fatalf("Resolve after reopen failed: %v", err)
	}
	if !reflect.DeepEqual(a1, a2) {
		t.Errorf("Assignment changed after reopen: %+v vs %+v", a1, a2)
	}
	if a2.DateKey != jan1 {
		t.Errorf("Expected DateKey %d, got %d", jan1, a2.DateKey)
	}
}

// TestResolveConcurrent checks that racing resolutions persist one row
func TestResolveConcurrent(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "race.sqlite3"))
	engine := newEngine(t, store, catalog.New(sixSongs(), nil))

	const callers = 100
	results := make([]*models.DailyAssignment, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Resolve(context.Background(), jan2)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("Resolve %d failed: %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[i], results[0]) {
			t.Fatalf("Resolve %d returned a different assignment", i)
		}
	}
	count, err := store.CountHistory()
	if err != nil {
		t.Fatalf("CountHistory: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 history row, got %d", count)
	}
}

// TestResolveTwoProcesses checks that separate engines on one database agree
func TestResolveTwoProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.sqlite3")
	engines := []*Engine{
		newEngine(t, openStore(t, path), catalog.New(sixSongs(), nil)),
		newEngine(t, openStore(t, path), catalog.New(sixSongs(), nil)),
	}

	results := make([]*models.DailyAssignment, 20)
	errs := make([]error, 20)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engines[i%2].Resolve(context.Background(), jan1)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("Resolve %d failed: %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[i], results[0]) {
			t.Fatalf("Engines disagree on the assignment")
		}
	}
}

// TestResolveCatalogReloadMidDay checks that a reload only affects new days
func TestResolveCatalogReloadMidDay(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "reload.sqlite3"))
	holder := catalog.NewHolder(nil, catalog.New(sixSongs(), nil))
	engine := NewEngine(Config{Store: store, Catalog: holder})
	ctx := context.Background()

	before, err := engine.Resolve(ctx, jan1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	replacement := songs("n1", 31, "n2", 41, "n3", 51, "n4", 61, "n5", 71)
	holder.Swap(catalog.New(replacement, nil))

	after, err := engine.Resolve(ctx, jan1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("Stored day changed after reload")
	}

	next, err := engine.Resolve(ctx, jan2)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for _, p := range next.Songs {
		if _, err := holder.Current().Get(p.SongID); err != nil {
			t.Errorf("New day picked %s from the old catalog", p.SongID)
		}
	}
}

// TestResolveStoredBlobVerbatim checks that a pre-existing row is returned as stored
func TestResolveStoredBlobVerbatim(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "legacy.sqlite3"))
	blob := `{"songs":[{"name":"a","clue_1_start":1,"clue_2_start":2},{"name":"b","clue_1_start":3,"clue_2_start":4}]}`
	if _, err := store.InsertHistory(jan1, []byte(blob)); err != nil {
		t.Fatalf("InsertHistory: %v", err)
	}

	a, err := newEngine(t, store, nil).Resolve(context.Background(), jan1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []pick{{"a", 1, 2}, {"b", 3, 4}}
	if got := flatten(a); !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveWithoutCatalog(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "empty.sqlite3"))
	if _, err := newEngine(t, store, nil).Resolve(context.Background(), jan1); !errors.Is(err, ErrNoCatalog) {
		t.Errorf("Expected ErrNoCatalog, got %v", err)
	}
}

type blockingGate struct {
	release chan struct{}
	waits   int
	mu      sync.Mutex
}

func (g *blockingGate) Await(ctx context.Context) error {
	g.mu.Lock()
	g.waits++
	g.mu.Unlock()
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TestResolveGate checks that only generation waits on the gate
func TestResolveGate(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "gate.sqlite3"))
	if _, err := store.InsertHistory(jan1, []byte(`{"songs":[{"name":"a","clue_1_start":0,"clue_2_start":0}]}`)); err != nil {
		t.Fatalf("InsertHistory: %v", err)
	}
	gate := &blockingGate{release: make(chan struct{})}
	engine := NewEngine(Config{Store: store, Catalog: catalog.NewHolder(nil, catalog.New(sixSongs(), nil)), Gate: gate})

	if _, err := engine.Resolve(context.Background(), jan1); err != nil {
		t.Fatalf("Reading a stored day failed: %v", err)
	}
	if gate.waits != 0 {
		t.Errorf("Stored day waited on the gate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := engine.Resolve(ctx, jan2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected generation to block on the gate, got %v", err)
	}

	close(gate.release)
	if _, err := engine.Resolve(context.Background(), jan2); err != nil {
		t.Errorf("Resolve after release failed: %v", err)
	}
}

func BenchmarkGenerate(b *testing.B) {
	var cat []models.Song
	for i := 0; i < 500; i++ {
		cat = append(cat, models.Song{ID: fmt.Sprintf("song%03d", i), Duration: float64(60 + i)})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Generate(jan1+int64(i)*86400000, cat, PicksPerDay); err != nil {
			b.Fatal(err)
		}
	}
}

func (g *blockingGate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waits
}

// TestResolveLeaderCancelKeepsFollowers checks that a caller giving up does
// not fail the others waiting on the same generation
func TestResolveLeaderCancelKeepsFollowers(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "cancel.sqlite3"))
	gate := &blockingGate{release: make(chan struct{})}
	engine := NewEngine(Config{Store: store, Catalog: catalog.NewHolder(nil, catalog.New(sixSongs(), nil)), Gate: gate})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := engine.Resolve(leaderCtx, jan2)
		leaderErr <- err
	}()
	for deadline := time.Now().Add(2 * time.Second); gate.count() == 0 && time.Now().Before(deadline); {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		a   *models.DailyAssignment
		err error
	}
	follower := make(chan result, 1)
	go func() {
		a, err := engine.Resolve(context.Background(), jan2)
		follower <- result{a, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected the leader to see its own cancellation, got %v", err)
	}
	close(gate.release)

	res := <-follower
	if res.err != nil {
		t.Fatalf("Follower failed after the leader cancelled: %v", res.err)
	}
	want, _ := Generate(jan2, sixSongs(), PicksPerDay)
	if !reflect.DeepEqual(res.a.Songs, want.Songs) {
		t.Errorf("Follower got %+v, want %+v", res.a.Songs, want.Songs)
	}
	if n := gate.count(); n != 1 {
		t.Errorf("Expected a single generation, gate awaited %d times", n)
	}
}
