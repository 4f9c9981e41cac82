package ports

import (
	"time"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

// Storage defines the durable sink for sessions, transactions and reports.
// RecordTransaction and RecordReport fail with the adapter's no-session
// error when called outside a BeginSession/EndSession bracket; that is a
// lifecycle bug in the caller, not a retry case.
type Storage interface {
	// BeginSession opens a new session and returns its id.
	BeginSession(start time.Time) (string, error)

	// RecordTransaction durably records one accepted raw sighting.
	RecordTransaction(ts time.Time, rawID string, attrs domain.DeviceAttributes) error

	// RecordReport durably records one tick snapshot. Both counts are
	// always supplied.
	RecordReport(ts time.Time, rawActiveCount, logicalDeviceCount int) error

	// EndSession closes the current session. Idempotent.
	EndSession(end time.Time) error

	// CurrentSession returns the live session, if any.
	CurrentSession() (domain.Session, bool)

	// Close closes the storage connection.
	Close() error
}
