package songle

import (
	"context"

	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/songle/stats"
)

type Service interface {
	// ResolveDaily returns the assignment of a normalized date key.
	ResolveDaily(ctx context.Context, dateKey int64) (*models.DailyAssignment, error)
	GetClip(ctx context.Context, songID string, clue models.ClueIndex, dateKey int64) ([]byte, error)
	ClipContentType() string
	Catalog() *catalog.Catalog
	CurrentDate() int64
	// NormalizeDate truncates an epoch-millisecond timestamp to its day and
	// checks that the day is playable.
	NormalizeDate(unixMs int64) (int64, error)
	StartInfo() StartInfo
	Stats() *stats.Recorder
	Reload(ctx context.Context) error
	// Run drives day rollover until ctx is done.
	Run(ctx context.Context) error
	Close() error
}

type Storage interface {
	InsertHistory(dateKey int64, data []byte) (bool, error)
	GetHistory(dateKey int64) ([]byte, bool, error)
	ListHistoryKeys() ([]int64, error)
	IncrementStat(key string, unixMs int64) error
	SumStat(key string, start, end int64) (int64, error)
	TotalStat(key string) (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
