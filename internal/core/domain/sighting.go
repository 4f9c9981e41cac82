package domain

import "time"

// UnknownDeviceName is the sentinel the advertisement source reports when a
// device advertises without a local name. The resolver keys its anonymous
// bucket on this exact string.
const UnknownDeviceName = "Unknown Device"

// RawSighting is one advertisement event as delivered by the scanner.
// It is consumed immediately into the presence store and never persisted
// as its own entity.
type RawSighting struct {
	RawID          string    `json:"raw_id"`
	Timestamp      time.Time `json:"timestamp"`
	RSSI           *int      `json:"rssi"` // nil when the radio reported no reading
	Name           string    `json:"name"`
	ManufacturerID *uint16   `json:"manufacturer_id,omitempty"`
	ServiceUUIDs   []string  `json:"service_uuids,omitempty"`
	TXPower        *int      `json:"tx_power,omitempty"`
	Connectable    *bool     `json:"connectable,omitempty"`
}

// DeviceAttributes is the last-write-wins snapshot kept per raw identity.
// Manufacturer and Services are already resolved against the lookup tables.
type DeviceAttributes struct {
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
	RSSI         int       `json:"rssi"`
	Services     string    `json:"services"`
	TXPower      *int      `json:"tx_power,omitempty"`
	Connectable  *bool     `json:"connectable,omitempty"`
	LastSeen     time.Time `json:"last_seen"`
}
