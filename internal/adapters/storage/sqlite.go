package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
	"github.com/lcalzada-xor/blemap/internal/core/ports"
)

// ErrNoSession is returned when a transaction or report write arrives
// outside a session bracket. This is a lifecycle bug in the host harness,
// never a retry case.
var ErrNoSession = errors.New("storage: no active session")

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB

	mu      sync.Mutex
	session *SessionModel
}

// SessionModel is the GORM model for one tracker run.
type SessionModel struct {
	ID        string `gorm:"primaryKey"`
	StartedAt time.Time
	EndedAt   *time.Time
}

// TransactionModel stores one accepted raw sighting. Attributes holds the
// DeviceAttributes snapshot serialized exactly once, by this adapter.
type TransactionModel struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index"`
	Timestamp  time.Time
	RawID      string `gorm:"index"`
	Attributes string
}

// ReportModel stores one tick snapshot.
type ReportModel struct {
	ID                 uint   `gorm:"primaryKey"`
	SessionID          string `gorm:"index"`
	Timestamp          time.Time
	RawActiveCount     int
	LogicalDeviceCount int
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("storage: install tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(&SessionModel{}, &TransactionModel{}, &ReportModel{}); err != nil {
		return nil, err
	}

	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transaction_models(timestamp)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON report_models(timestamp)")

	return &SQLiteAdapter{db: db}, nil
}

// BeginSession opens a new session row and makes it current.
func (a *SQLiteAdapter) BeginSession(start time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return "", fmt.Errorf("storage: session %s already open", a.session.ID)
	}

	session := &SessionModel{
		ID:        uuid.NewString(),
		StartedAt: start,
	}
	if err := a.db.Create(session).Error; err != nil {
		return "", fmt.Errorf("storage: create session: %w", err)
	}
	a.session = session
	return session.ID, nil
}

// RecordTransaction writes one sighting against the live session.
func (a *SQLiteAdapter) RecordTransaction(ts time.Time, rawID string, attrs domain.DeviceAttributes) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return ErrNoSession
	}

	payload, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("storage: encode attributes: %w", err)
	}

	model := TransactionModel{
		SessionID:  session.ID,
		Timestamp:  ts,
		RawID:      rawID,
		Attributes: string(payload),
	}
	if err := a.db.Create(&model).Error; err != nil {
		return fmt.Errorf("storage: record transaction: %w", err)
	}
	return nil
}

// RecordReport writes one tick snapshot against the live session.
func (a *SQLiteAdapter) RecordReport(ts time.Time, rawActiveCount, logicalDeviceCount int) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return ErrNoSession
	}

	model := ReportModel{
		SessionID:          session.ID,
		Timestamp:          ts,
		RawActiveCount:     rawActiveCount,
		LogicalDeviceCount: logicalDeviceCount,
	}
	if err := a.db.Create(&model).Error; err != nil {
		return fmt.Errorf("storage: record report: %w", err)
	}
	return nil
}

// EndSession stamps the end timestamp and clears the current session.
// Calling it again without a live session is a no-op.
func (a *SQLiteAdapter) EndSession(end time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return nil
	}
	if err := a.db.Model(a.session).Update("ended_at", end).Error; err != nil {
		return fmt.Errorf("storage: end session: %w", err)
	}
	a.session = nil
	return nil
}

// CurrentSession returns the live session, if any.
func (a *SQLiteAdapter) CurrentSession() (domain.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return domain.Session{}, false
	}
	return domain.Session{
		ID:        a.session.ID,
		StartedAt: a.session.StartedAt,
		EndedAt:   a.session.EndedAt,
	}, true
}

// GetSession retrieves a session row by id.
func (a *SQLiteAdapter) GetSession(id string) (domain.Session, error) {
	var model SessionModel
	if err := a.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: model.ID, StartedAt: model.StartedAt, EndedAt: model.EndedAt}, nil
}

// CountTransactions returns how many sightings a session recorded.
func (a *SQLiteAdapter) CountTransactions(sessionID string) (int64, error) {
	var count int64
	err := a.db.Model(&TransactionModel{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// ListReports returns a session's tick reports in chronological order.
func (a *SQLiteAdapter) ListReports(sessionID string) ([]domain.Report, error) {
	var models []ReportModel
	if err := a.db.Where("session_id = ?", sessionID).Order("timestamp asc").Find(&models).Error; err != nil {
		return nil, err
	}
	reports := make([]domain.Report, len(models))
	for i, m := range models {
		reports[i] = domain.Report{
			SessionID:          m.SessionID,
			Timestamp:          m.Timestamp,
			RawActiveCount:     m.RawActiveCount,
			LogicalDeviceCount: m.LogicalDeviceCount,
		}
	}
	return reports, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteAdapter)(nil)
