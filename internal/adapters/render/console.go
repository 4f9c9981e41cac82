package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
	"github.com/lcalzada-xor/blemap/internal/core/ports"
)

// Console renders tick snapshots as indented terminal output.
type Console struct {
	out    io.Writer
	window time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewConsole creates a renderer writing to out. The window is only used for
// the header line.
func NewConsole(out io.Writer, window time.Duration) *Console {
	return &Console{out: out, window: window, now: time.Now}
}

// Render prints the snapshot. Merged mode shows aggregate lines (member
// count, components); debug mode shows the full per-identity detail.
func (c *Console) Render(snap domain.Snapshot) {
	mode := " [MERGED MODE]"
	if snap.Debug {
		mode = " [DEBUG MODE]"
	}
	fmt.Fprintf(c.out, "\n[%s] Count (window %ds) = %d  | total tracked ids = %d%s\n",
		c.now().Format("15:04:05"), int(c.window.Seconds()), snap.LogicalDeviceCount, snap.RawActiveCount, mode)

	if len(snap.Devices) == 0 {
		fmt.Fprintln(c.out, "No devices detected in range")
		return
	}

	fmt.Fprintln(c.out, "Devices detected:")
	for _, dev := range snap.Devices {
		fmt.Fprintf(c.out, "  * %s (RSSI: %d dBm) %s\n", dev.Attributes.Name, dev.Attributes.RSSI, SignalQuality(dev.Attributes.RSSI))
		fmt.Fprintf(c.out, "    - Manufacturer: %s\n", dev.Attributes.Manufacturer)

		if snap.Debug {
			c.renderDebug(dev)
		} else {
			c.renderMerged(dev)
		}
		fmt.Fprintln(c.out)
	}
}

func (c *Console) renderDebug(dev domain.LogicalDevice) {
	fmt.Fprintf(c.out, "    - Services: %s\n", dev.Attributes.Services)
	if dev.Attributes.TXPower != nil {
		fmt.Fprintf(c.out, "    - TX Power: %d dBm\n", *dev.Attributes.TXPower)
	}
	fmt.Fprintf(c.out, "    - ID: %s...\n", truncateID(dev.RepresentativeID))

	if dev.Attributes.Name == domain.UnknownDeviceName {
		switch {
		case dev.Attributes.Manufacturer == "Apple":
			fmt.Fprintln(c.out, "    - Likely: iPhone/iPad background service or secondary identity")
		case strings.Contains(dev.Attributes.Services, "Apple"):
			fmt.Fprintln(c.out, "    - Likely: Apple ecosystem feature (Handoff, AirDrop, etc.)")
		default:
			fmt.Fprintln(c.out, "    - Likely: nearby smart device or wearable")
		}
	}
}

func (c *Console) renderMerged(dev domain.LogicalDevice) {
	if dev.MemberCount > 1 && dev.Components == nil {
		fmt.Fprintf(c.out, "    - Merged identities: %d active\n", dev.MemberCount)
	}
	if dev.Components != nil {
		fmt.Fprintf(c.out, "    - Components: %s\n", strings.Join(dev.Components, " + "))
	}
	fmt.Fprintf(c.out, "    - ID: %s...\n", truncateID(dev.RepresentativeID))
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SignalQuality describes an RSSI reading in coarse human terms.
func SignalQuality(rssi int) string {
	switch {
	case rssi >= -30:
		return "Excellent"
	case rssi >= -50:
		return "Very Good"
	case rssi >= -60:
		return "Good"
	case rssi >= -70:
		return "Fair"
	case rssi >= -80:
		return "Weak"
	default:
		return "Very Weak"
	}
}

// Ensure interface compliance
var _ ports.Renderer = (*Console)(nil)
