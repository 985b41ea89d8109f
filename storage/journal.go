package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TRADE JOURNAL - Durable record of every order event
// ═══════════════════════════════════════════════════════════════════════════════
//
// The journal is an audit trail, not engine state: the engine never reads
// it back, and a write failure is logged and swallowed. SQLite under the
// data directory by default, Postgres when the DSN says so.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Receipt is one journaled order event.
type Receipt struct {
	ID         uint      `gorm:"primaryKey"`
	StrategyID string    `gorm:"index"`
	Code       string    `gorm:"index"`
	Type       string
	Role       string
	Status     string
	Quantity   int
	Price      float64
	AvgPrice   float64
	Commission float64
	CreatedAt  time.Time
}

// Journal writes trade receipts to a relational store and mirrors each one
// as a line in the append-only execution.log.
type Journal struct {
	db *gorm.DB

	mu      sync.Mutex
	execLog *os.File
}

// Open connects the journal. An empty DSN selects a SQLite file under the
// data directory; a postgres:// DSN selects Postgres. The execution.log
// file lives directly under the data directory.
func Open(dsn, dataDir string) (*Journal, error) {
	if dsn == "" {
		dsn = filepath.Join(dataDir, "journal.db")
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Receipt{}); err != nil {
		return nil, err
	}

	execLog, err := os.OpenFile(filepath.Join(dataDir, "execution.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	log.Info().Str("dsn", dsn).Msg("💾 Trade journal connected")
	return &Journal{db: db, execLog: execLog}, nil
}

// Record appends one receipt. Errors are logged, never propagated.
func (j *Journal) Record(s *types.Strategy, role types.OrderRole, status types.OrderStatus,
	price, avgPrice, commission float64) {
	if j == nil {
		return
	}
	r := Receipt{
		StrategyID: s.ID(),
		Code:       s.Code,
		Type:       string(s.Type),
		Role:       string(role),
		Status:     string(status),
		Quantity:   s.Quantity,
		Price:      price,
		AvgPrice:   avgPrice,
		Commission: commission,
	}
	if err := j.db.Create(&r).Error; err != nil {
		log.Error().Err(err).Str("strategy", r.StrategyID).Msg("❌ Journal write failed")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	line := fmt.Sprintf("%s %s %s %s qty=%d price=%.2f avg=%.2f comm=%.2f\n",
		time.Now().UTC().Format(time.RFC3339), r.StrategyID, r.Role, r.Status,
		r.Quantity, r.Price, r.AvgPrice, r.Commission)
	if _, err := j.execLog.WriteString(line); err != nil {
		log.Error().Err(err).Msg("❌ Execution log append failed")
	}
}

// Receipts returns the most recent receipts, newest first.
func (j *Journal) Receipts(limit int) ([]Receipt, error) {
	if j == nil {
		return nil, nil
	}
	var out []Receipt
	err := j.db.Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// Close releases the connection and the log file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	if j.execLog != nil {
		j.execLog.Close()
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
