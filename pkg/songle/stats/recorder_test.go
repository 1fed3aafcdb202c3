package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/storage"
	"github.com/himanishpuri/Songle/pkg/utils"
)

func setupRecorder(t *testing.T) (*Recorder, *utils.MockClock) {
	t.Helper()
	db, err := storage.NewDBClientWithPath(filepath.Join(t.TempDir(), "stats.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	clock := utils.NewMockClock(time.UnixMilli(1000))
	return NewRecorder(db, clock), clock
}

func TestRecorderCounts(t *testing.T) {
	r, clock := setupRecorder(t)

	for i := 0; i < 3; i++ {
		if err := r.HomeView(); err != nil {
			t.Fatalf("HomeView failed: %v", err)
		}
		clock.Advance(time.Second)
	}
	if err := r.DayFinished(); err != nil {
		t.Fatalf("DayFinished failed: %v", err)
	}

	totals, err := r.Totals()
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	if totals.HomepageViews != 3 || totals.DaysFinished != 1 {
		t.Errorf("Unexpected totals %+v", totals)
	}

	// Views were recorded at 1000, 2000 and 3000 ms.
	within, err := r.Within(models.StatHomepageView, 2000, 3000)
	if err != nil {
		t.Fatalf("Within failed: %v", err)
	}
	if within != 2 {
		t.Errorf("Expected 2 views in [2000,3000], got %d", within)
	}

	if _, err := r.Within(models.StatHomepageView, 10, 5); err == nil {
		t.Error("Expected error for inverted range")
	}
}

func TestRecorderClues(t *testing.T) {
	r, clock := setupRecorder(t)

	r.ClueUsed("song-a", "1")
	r.ClueUsed("song-a", "1")
	clock.Advance(time.Hour)
	r.ClueUsed("song-a", "2")

	n, err := r.ClueCount("song-a", "1", 0, clock.Now().UnixMilli())
	if err != nil {
		t.Fatalf("ClueCount failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 uses of clue 1, got %d", n)
	}

	total, err := r.Total(models.ClueStatKey("song-a", "2"))
	if err != nil || total != 1 {
		t.Errorf("Total(clue 2) = %d, %v", total, err)
	}

	if err := r.ClueUsed("", "1"); err == nil {
		t.Error("Expected error for empty song")
	}
}
