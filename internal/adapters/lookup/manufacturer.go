package lookup

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// companyIDs holds the Bluetooth SIG company identifiers we care about.
// Sparse on purpose: anything else renders as an "Unknown (ID: n)" label.
var companyIDs = map[uint16]string{
	76:  "Apple",                // 0x004C
	6:   "Microsoft",            // 0x0006
	117: "Samsung",              // 0x0075
	224: "Google",               // 0x00E0
	89:  "Qualcomm",             // 0x0059
	15:  "Broadcom",             // 0x000F
	13:  "Texas Instruments",    // 0x000D
	25:  "Nordic Semiconductor", // 0x0019
}

// ManufacturerTable resolves advertisement company identifiers to vendor
// names. Safe for concurrent lookups; overlay loading happens at startup.
type ManufacturerTable struct {
	mu      sync.RWMutex
	entries map[uint16]string
}

// NewManufacturerTable returns a table seeded with the built-in IDs.
func NewManufacturerTable() *ManufacturerTable {
	entries := make(map[uint16]string, len(companyIDs))
	for id, name := range companyIDs {
		entries[id] = name
	}
	return &ManufacturerTable{entries: entries}
}

// LoadFile overlays entries from a text file, one "id<TAB>name" per line.
// Lines starting with '#' are skipped. File entries win over built-ins.
func (t *ManufacturerTable) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manufacturer table: %w", err)
	}
	defer f.Close()

	t.mu.Lock()
	defer t.mu.Unlock()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		idStr, name, ok := strings.Cut(text, "\t")
		if !ok {
			return fmt.Errorf("manufacturer table %s:%d: expected id<TAB>name", path, line)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 16)
		if err != nil {
			return fmt.Errorf("manufacturer table %s:%d: bad id %q: %w", path, line, idStr, err)
		}
		t.entries[uint16(id)] = strings.TrimSpace(name)
	}
	return scanner.Err()
}

// Name resolves a company identifier. A nil id means the advertisement
// carried no manufacturer payload at all.
func (t *ManufacturerTable) Name(id *uint16) string {
	if id == nil {
		return "Unknown"
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if name, ok := t.entries[*id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (ID: %d)", *id)
}
