package domain

import "time"

// Session brackets one run of the tracker. EndedAt stays nil while the
// session is live.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Transaction records one accepted raw sighting against a session.
type Transaction struct {
	SessionID  string           `json:"session_id"`
	Timestamp  time.Time        `json:"timestamp"`
	RawID      string           `json:"raw_id"`
	Attributes DeviceAttributes `json:"attributes"`
}

// Report records the two headline counts produced by one reporting tick.
type Report struct {
	SessionID          string    `json:"session_id"`
	Timestamp          time.Time `json:"timestamp"`
	RawActiveCount     int       `json:"raw_active_count"`
	LogicalDeviceCount int       `json:"logical_device_count"`
}
