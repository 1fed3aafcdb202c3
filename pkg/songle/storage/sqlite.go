package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	customlogger "github.com/himanishpuri/Songle/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "songle.sqlite3"
const errDBClientNil = "db client is nil"

// busy_timeout lets concurrent writers wait for the lock instead of failing
// with SQLITE_BUSY.
const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// History holds one persisted daily assignment. Unix is the date key and
// Data the JSON blob, so the table stays readable by older deployments.
type History struct {
	Unix int64  `gorm:"column:unix;primaryKey;autoIncrement:false"`
	Data string `gorm:"column:data;type:text;not null"`
}

func (History) TableName() string { return "history" }

// Statistic is one append-only counter event.
type Statistic struct {
	ID    uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Unix  int64  `gorm:"column:unix;not null;index:idx_stat_key_unix,priority:2"`
	Key   string `gorm:"column:key;type:text;not null;index:idx_stat_key_unix,priority:1"`
	Value string `gorm:"column:value;type:text;not null;default:'1'"`
}

func (Statistic) TableName() string { return "statistics" }

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SONGLE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(customlogger.GetLogger().With("gorm"), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+dsnPragmas), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&History{}, &Statistic{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InsertHistory stores data under dateKey unless a row already exists.
// inserted is false when another writer got there first; the existing row
// is left untouched.
func (c *DBClient) InsertHistory(dateKey int64, data []byte) (bool, error) {
	if c == nil || c.DB == nil {
		return false, errors.New(errDBClientNil)
	}

	res := c.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&History{Unix: dateKey, Data: string(data)})
	if res.Error != nil {
		return false, fmt.Errorf("inserting history %d: %w", dateKey, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GetHistory returns the blob stored for dateKey. found is false when no
// assignment exists for that day.
func (c *DBClient) GetHistory(dateKey int64) ([]byte, bool, error) {
	if c == nil || c.DB == nil {
		return nil, false, errors.New(errDBClientNil)
	}

	var row History
	err := c.DB.Where("unix = ?", dateKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying history %d: %w", dateKey, err)
	}
	return []byte(row.Data), true, nil
}

// ListHistoryKeys returns every stored date key, oldest first.
func (c *DBClient) ListHistoryKeys() ([]int64, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var keys []int64
	if err := c.DB.Model(&History{}).Order("unix ASC").Pluck("unix", &keys).Error; err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return keys, nil
}

func (c *DBClient) CountHistory() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&History{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return count, nil
}

// IncrementStat appends one event for key at unixMs.
func (c *DBClient) IncrementStat(key string, unixMs int64) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if err := c.DB.Create(&Statistic{Unix: unixMs, Key: key, Value: "1"}).Error; err != nil {
		return fmt.Errorf("recording stat %s: %w", key, err)
	}
	return nil
}

// SumStat sums the events of key with start <= unix <= end.
func (c *DBClient) SumStat(key string, start, end int64) (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var total int64
	err := c.DB.Model(&Statistic{}).
		Select("COALESCE(SUM(CAST(value AS INTEGER)), 0)").
		Where("`key` = ? AND unix >= ? AND unix <= ?", key, start, end).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("summing stat %s: %w", key, err)
	}
	return total, nil
}

// TotalStat sums every event of key.
func (c *DBClient) TotalStat(key string) (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var total int64
	err := c.DB.Model(&Statistic{}).
		Select("COALESCE(SUM(CAST(value AS INTEGER)), 0)").
		Where("`key` = ?", key).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("summing stat %s: %w", key, err)
	}
	return total, nil
}
