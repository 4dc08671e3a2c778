package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/twinvector/internal/harness"
)

const DefaultBatchSize = 50

// TickRecord is one harness tick as stored in SQLite.
type TickRecord struct {
	ID       uint    `gorm:"primaryKey"`
	RunID    string  `gorm:"index;not null"`
	Seq      uint64  `gorm:"not null"`
	HostTime float64 `gorm:"not null"`

	Pitch    float64
	Yaw      float64
	Roll     float64
	Throttle float64

	Clamped    bool
	Degenerate bool

	HingeLeft  float64
	ServoLeft  float64
	HingeRight float64
	ServoRight float64
}

func recordOf(runID string, t harness.Tick) TickRecord {
	in := t.Solution.Input
	a := t.Solution.Angles
	return TickRecord{
		RunID:      runID,
		Seq:        t.Seq,
		HostTime:   t.HostTime,
		Pitch:      in.Pitch,
		Yaw:        in.Yaw,
		Roll:       in.Roll,
		Throttle:   in.Throttle,
		Clamped:    t.Solution.Clamped,
		Degenerate: t.Solution.Degenerate,
		HingeLeft:  a.HingeLeft,
		ServoLeft:  a.ServoLeft,
		HingeRight: a.HingeRight,
		ServoRight: a.ServoRight,
	}
}

// OpenSQLite opens (and migrates) a tick database. An empty path opens a
// shared in-memory database.
func OpenSQLite(path string, log zerolog.Logger) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        DefaultBatchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %q: %w", path, err)
	}
	if err := db.AutoMigrate(&TickRecord{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	if path == "" {
		log.Info().Msg("recording ticks to in-memory sqlite")
	} else {
		log.Info().Str("path", path).Msg("recording ticks to sqlite")
	}
	return db, nil
}

// SQLRecorder is a harness tick observer that buffers ticks and writes
// them in batches. Write errors are kept and reported by Flush and Close,
// the harness loop is never blocked on them.
type SQLRecorder struct {
	db    *gorm.DB
	runID string
	batch int
	log   zerolog.Logger

	mu      sync.Mutex
	pending []TickRecord
	written int
	err     error
}

func NewSQLRecorder(db *gorm.DB, runID string, batch int, log zerolog.Logger) *SQLRecorder {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &SQLRecorder{
		db:      db,
		runID:   runID,
		batch:   batch,
		log:     log,
		pending: make([]TickRecord, 0, batch),
	}
}

func (r *SQLRecorder) OnTick(t harness.Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, recordOf(r.runID, t))
	if len(r.pending) >= r.batch {
		r.flushLocked()
	}
}

func (r *SQLRecorder) flushLocked() {
	if len(r.pending) == 0 {
		return
	}
	if err := r.db.CreateInBatches(r.pending, r.batch).Error; err != nil {
		r.log.Error().Err(err).Int("records", len(r.pending)).Msg("tick batch write failed")
		r.err = errors.Join(r.err, err)
	} else {
		r.written += len(r.pending)
	}
	r.pending = r.pending[:0]
}

func (r *SQLRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	return r.err
}

// Written reports how many ticks reached the database.
func (r *SQLRecorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Close flushes pending ticks and closes the database.
func (r *SQLRecorder) Close() error {
	err := r.Flush()
	sqlDB, dbErr := r.db.DB()
	if dbErr != nil {
		return errors.Join(err, dbErr)
	}
	return errors.Join(err, sqlDB.Close())
}

// LoadTickRecords returns the stored ticks of a run in sequence order.
func LoadTickRecords(db *gorm.DB, runID string) ([]TickRecord, error) {
	var records []TickRecord
	err := db.Where("run_id = ?", runID).Order("seq").Find(&records).Error
	return records, err
}

// RecordedRuns lists the distinct run ids in a tick database.
func RecordedRuns(db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.Model(&TickRecord{}).Distinct("run_id").Order("run_id").Pluck("run_id", &ids).Error
	return ids, err
}
