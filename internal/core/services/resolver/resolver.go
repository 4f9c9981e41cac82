package resolver

import (
	"fmt"
	"strings"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
	"github.com/lcalzada-xor/blemap/internal/core/services/presence"
)

// accessoryKeywords mark a named bucket as an earbud-style accessory group.
// Matched case-insensitively as substrings of the advertised name.
var accessoryKeywords = []string{"airpod", "beats"}

// Config controls the merge heuristics. The heuristic set is fixed by
// design; only its inputs are configurable.
type Config struct {
	// Vendor is the manufacturer whose multi-identity advertising behavior
	// the heuristics target. Entries from other vendors pass through as
	// singletons.
	Vendor string
	// Debug disables merging entirely: every active identity becomes its
	// own logical device.
	Debug bool
}

// Resolver collapses active raw identities into logical devices. Resolve is
// a pure function of its input: identical active sets produce identical
// output on every invocation.
type Resolver struct {
	cfg Config
}

// New creates a resolver. An empty vendor defaults to Apple, the ecosystem
// the heuristics were written against.
func New(cfg Config) *Resolver {
	if cfg.Vendor == "" {
		cfg.Vendor = "Apple"
	}
	return &Resolver{cfg: cfg}
}

// bucket collects the vendor entries sharing one advertised name. The
// anonymous bucket (sentinel name) is kept separately.
type bucket struct {
	entries   []presence.Entry
	accessory bool
}

// Resolve groups the active set into logical devices. The input must be in
// first-insertion order (presence.Store.ActiveSet guarantees this); output
// order is the insertion order of each group's representative.
func (r *Resolver) Resolve(active []presence.Entry) []domain.LogicalDevice {
	if r.cfg.Debug {
		out := make([]domain.LogicalDevice, 0, len(active))
		for _, e := range active {
			out = append(out, domain.LogicalDevice{
				RepresentativeID: e.RawID,
				Attributes:       e.Attrs,
				MemberCount:      1,
			})
		}
		return out
	}

	type placed struct {
		seq    uint64
		device domain.LogicalDevice
	}
	var out []placed

	var anonymous []presence.Entry
	named := make(map[string]*bucket)
	var namedOrder []string

	for _, e := range active {
		if e.Attrs.Manufacturer != r.cfg.Vendor {
			// No merging across vendors; pass through untouched.
			out = append(out, placed{seq: e.Seq, device: domain.LogicalDevice{
				RepresentativeID: e.RawID,
				Attributes:       e.Attrs,
				MemberCount:      1,
			}})
			continue
		}
		if e.Attrs.Name == domain.UnknownDeviceName {
			anonymous = append(anonymous, e)
			continue
		}
		b, ok := named[e.Attrs.Name]
		if !ok {
			b = &bucket{accessory: isAccessoryName(e.Attrs.Name)}
			named[e.Attrs.Name] = b
			namedOrder = append(namedOrder, e.Attrs.Name)
		}
		b.entries = append(b.entries, e)
	}

	if len(anonymous) > 0 {
		rep := anonymous[0]
		dev := domain.LogicalDevice{
			RepresentativeID: rep.RawID,
			Attributes:       rep.Attrs,
			MemberCount:      len(anonymous),
		}
		dev.Attributes.RSSI = bestRSSI(anonymous)
		out = append(out, placed{seq: rep.Seq, device: dev})
	}

	for _, name := range namedOrder {
		b := named[name]
		rep := b.entries[0]
		dev := domain.LogicalDevice{
			RepresentativeID: rep.RawID,
			Attributes:       rep.Attrs,
			MemberCount:      len(b.entries),
		}
		dev.Attributes.RSSI = bestRSSI(b.entries)
		if b.accessory {
			dev.Components = componentLabels(len(b.entries))
		}
		out = append(out, placed{seq: rep.Seq, device: dev})
	}

	// Restore insertion order of representatives. Buckets were collected
	// out of line, so a stable ordering pass keeps the result deterministic.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].seq < out[j-1].seq; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	devices := make([]domain.LogicalDevice, 0, len(out))
	for _, p := range out {
		devices = append(devices, p.device)
	}
	return devices
}

func isAccessoryName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range accessoryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func bestRSSI(entries []presence.Entry) int {
	best := entries[0].Attrs.RSSI
	for _, e := range entries[1:] {
		if e.Attrs.RSSI > best {
			best = e.Attrs.RSSI
		}
	}
	return best
}

// componentLabels maps an accessory bucket size to its fixed label set.
func componentLabels(n int) []string {
	switch n {
	case 1:
		return []string{"Case"}
	case 2:
		return []string{"Case", "1 earbud"}
	case 3:
		return []string{"Case", "Left earbud", "Right earbud"}
	default:
		return []string{fmt.Sprintf("%d components", n)}
	}
}
