package songle

import (
	"github.com/himanishpuri/Songle/pkg/songle/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) InsertHistory(dateKey int64, data []byte) (bool, error) {
	return s.db.InsertHistory(dateKey, data)
}

func (s *storageAdapter) GetHistory(dateKey int64) ([]byte, bool, error) {
	return s.db.GetHistory(dateKey)
}

func (s *storageAdapter) ListHistoryKeys() ([]int64, error) {
	return s.db.ListHistoryKeys()
}

func (s *storageAdapter) IncrementStat(key string, unixMs int64) error {
	return s.db.IncrementStat(key, unixMs)
}

func (s *storageAdapter) SumStat(key string, start, end int64) (int64, error) {
	return s.db.SumStat(key, start, end)
}

func (s *storageAdapter) TotalStat(key string) (int64, error) {
	return s.db.TotalStat(key)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
