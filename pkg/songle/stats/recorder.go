// Package stats records usage counters as append-only events.
package stats

import (
	"fmt"

	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/utils"
)

type Store interface {
	IncrementStat(key string, unixMs int64) error
	SumStat(key string, start, end int64) (int64, error)
	TotalStat(key string) (int64, error)
}

type Recorder struct {
	store Store
	clock utils.Clock
}

func NewRecorder(store Store, clock utils.Clock) *Recorder {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Recorder{store: store, clock: clock}
}

func (r *Recorder) record(key models.StatKey) error {
	return r.store.IncrementStat(string(key), r.clock.Now().UnixMilli())
}

func (r *Recorder) HomeView() error {
	return r.record(models.StatHomepageView)
}

func (r *Recorder) DayFinished() error {
	return r.record(models.StatDayFinished)
}

// ClueUsed counts one listen of a clue. The clue is taken as given so the
// key matches what the frontend sends.
func (r *Recorder) ClueUsed(song, clue string) error {
	if song == "" || clue == "" {
		return fmt.Errorf("clue stat needs a song and a clue")
	}
	return r.record(models.ClueStatKey(song, clue))
}

func (r *Recorder) Total(key models.StatKey) (int64, error) {
	return r.store.TotalStat(string(key))
}

// Within sums key over start <= t <= end, both epoch milliseconds.
func (r *Recorder) Within(key models.StatKey, start, end int64) (int64, error) {
	if end < start {
		return 0, fmt.Errorf("invalid range: end %d before start %d", end, start)
	}
	return r.store.SumStat(string(key), start, end)
}

func (r *Recorder) ClueCount(song, clue string, start, end int64) (int64, error) {
	return r.Within(models.ClueStatKey(song, clue), start, end)
}

// Summary is the dashboard view of the fixed counters.
type Summary struct {
	HomepageViews int64 `json:"homepage_view"`
	DaysFinished  int64 `json:"day_finished"`
}

func (r *Recorder) Totals() (Summary, error) {
	views, err := r.Total(models.StatHomepageView)
	if err != nil {
		return Summary{}, err
	}
	finished, err := r.Total(models.StatDayFinished)
	if err != nil {
		return Summary{}, err
	}
	return Summary{HomepageViews: views, DaysFinished: finished}, nil
}

func (r *Recorder) TotalsWithin(start, end int64) (Summary, error) {
	views, err := r.Within(models.StatHomepageView, start, end)
	if err != nil {
		return Summary{}, err
	}
	finished, err := r.Within(models.StatDayFinished, start, end)
	if err != nil {
		return Summary{}, err
	}
	return Summary{HomepageViews: views, DaysFinished: finished}, nil
}
