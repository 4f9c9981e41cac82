package domain

// LogicalDevice is one resolved device: a group of raw identities collapsed
// by the merge heuristics, represented by its first-inserted member.
type LogicalDevice struct {
	RepresentativeID string `json:"representative_id"`
	// Attributes are the representative's, except RSSI which carries the
	// best reading across the group.
	Attributes  DeviceAttributes `json:"attributes"`
	MemberCount int              `json:"member_count"`
	// Components labels accessory groups (earbud case and buds). Nil for
	// everything else.
	Components []string `json:"components,omitempty"`
}

// Snapshot is the output of one reporting tick.
type Snapshot struct {
	Devices            []LogicalDevice `json:"devices"`
	RawActiveCount     int             `json:"raw_active_count"`
	LogicalDeviceCount int             `json:"logical_device_count"`
	Debug              bool            `json:"debug"`
}
