package scanner

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
	"github.com/lcalzada-xor/blemap/internal/core/ports"
)

const appleCompanyID = uint16(76)

var companyByVendor = map[string]uint16{
	"Apple":   76,
	"Samsung": 117,
	"Google":  224,
	"Nordic":  25,
}

// Device names for advertisers with a public name
var namedDevices = []string{
	"iPhone 14 Pro", "iPhone 13", "MacBook Air", "iPad Pro",
	"Samsung Galaxy S22", "Google Pixel 7", "Pixel Buds",
}

var appleServiceUUIDs = []string{
	"74EC2172-0BAD-4D01-8F77-997B2BE0722A", // Continuity
	"D0611E78-BBB4-4591-A5F8-487910AE4366", // Nearby
	"89D3502B-0F36-433A-8EF4-C502AD55F8DC", // Nearby Action
}

var genericServiceUUIDs = []string{
	"0000180F-0000-1000-8000-00805F9B34FB", // Battery
	"0000180A-0000-1000-8000-00805F9B34FB", // Device Information
	"0000110B-0000-1000-8000-00805F9B34FB", // Audio Sink
}

// mockIdentity is one transient advertising identity in the simulated room.
type mockIdentity struct {
	rawID     string
	name      string
	company   *uint16
	services  []string
	baseRSSI  int
	txPower   *int
	noReading bool // radio occasionally reports no RSSI for this one
}

// Mock synthesizes the advertisement traffic of a small room: named phones,
// their anonymous background identities, earbud component groups, a couple
// of non-Apple devices and out-of-range noise. It implements ports.Scanner.
type Mock struct {
	interval   time.Duration
	rand       *rand.Rand
	identities []mockIdentity

	out      chan domain.RawSighting
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMock creates a mock source emitting one sighting per interval. A zero
// seed derives one from the clock.
func NewMock(interval time.Duration, seed int64) *Mock {
	if interval <= 0 {
		interval = 150 * time.Millisecond
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := &Mock{
		interval: interval,
		rand:     rand.New(rand.NewSource(seed)),
		out:      make(chan domain.RawSighting, 64),
		stop:     make(chan struct{}),
	}
	m.populate()
	return m
}

// populate builds the simulated fleet once; identities stay stable for the
// life of the scanner so the presence window behaves realistically.
func (m *Mock) populate() {
	apple := appleCompanyID
	samsung := companyByVendor["Samsung"]
	google := companyByVendor["Google"]
	tx := 4

	// A named phone and its anonymous background identities.
	m.add(mockIdentity{rawID: m.randomID(), name: "iPhone 14 Pro", company: &apple, services: appleServiceUUIDs[:1], baseRSSI: -45, txPower: &tx})
	for i := 0; i < 3; i++ {
		m.add(mockIdentity{
			rawID:    m.randomID(),
			company:  &apple,
			services: []string{appleServiceUUIDs[m.rand.Intn(len(appleServiceUUIDs))]},
			baseRSSI: -50 - m.rand.Intn(15),
		})
	}

	// Earbud groups: case plus both buds advertise under the same name.
	for i := 0; i < 3; i++ {
		m.add(mockIdentity{rawID: m.randomID(), name: "AirPods Pro", company: &apple, services: genericServiceUUIDs[2:], baseRSSI: -55 - i*3})
	}
	for i := 0; i < 2; i++ {
		m.add(mockIdentity{rawID: m.randomID(), name: "Beats Studio Buds", company: &apple, services: genericServiceUUIDs[2:], baseRSSI: -60 - i*2})
	}

	// Non-Apple singletons pass through the resolver unmerged.
	m.add(mockIdentity{rawID: m.randomID(), name: "Samsung Galaxy S22", company: &samsung, services: genericServiceUUIDs[:2], baseRSSI: -52})
	m.add(mockIdentity{rawID: m.randomID(), name: "Google Pixel 7", company: &google, services: genericServiceUUIDs[:1], baseRSSI: -58})

	// Unidentifiable wearable: no name, no manufacturer payload.
	m.add(mockIdentity{rawID: m.randomID(), baseRSSI: -65})

	// Out-of-range noise and a flaky radio reading.
	m.add(mockIdentity{rawID: m.randomID(), company: &apple, baseRSSI: -95})
	m.add(mockIdentity{rawID: m.randomID(), name: "Nordic Thingy", baseRSSI: -62, noReading: true})
}

func (m *Mock) add(id mockIdentity) {
	if id.name == "" {
		id.name = domain.UnknownDeviceName
	}
	m.identities = append(m.identities, id)
}

func (m *Mock) randomID() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		m.rand.Intn(256), m.rand.Intn(256), m.rand.Intn(256),
		m.rand.Intn(256), m.rand.Intn(256), m.rand.Intn(256))
}

// Start launches the emit loop.
func (m *Mock) Start(ctx context.Context) error {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.emit()
			}
		}
	}()
	return nil
}

func (m *Mock) emit() {
	id := m.identities[m.rand.Intn(len(m.identities))]

	s := domain.RawSighting{
		RawID:        id.rawID,
		Timestamp:    time.Now(),
		Name:         id.name,
		ServiceUUIDs: id.services,
		TXPower:      id.txPower,
	}
	if id.company != nil {
		company := *id.company
		s.ManufacturerID = &company
	}
	if !id.noReading {
		rssi := id.baseRSSI + m.rand.Intn(7) - 3
		s.RSSI = &rssi
	}
	connectable := m.rand.Intn(2) == 0
	s.Connectable = &connectable

	select {
	case m.out <- s:
	default:
		// Consumer is behind; advertisement bursts are lossy anyway.
	}
}

// Stop halts the emit loop and closes the sightings channel.
func (m *Mock) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() {
		close(m.stop)
		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(m.out)
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
	})
	return ctx.Err()
}

// Sightings returns the event channel.
func (m *Mock) Sightings() <-chan domain.RawSighting {
	return m.out
}

// Ensure interface compliance
var _ ports.Scanner = (*Mock)(nil)
