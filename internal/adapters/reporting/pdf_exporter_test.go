package reporting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

func sampleSummary() SessionSummary {
	start := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	reports := make([]domain.Report, 0, 50)
	for i := 0; i < 50; i++ {
		reports = append(reports, domain.Report{
			SessionID:          "s1",
			Timestamp:          start.Add(time.Duration(i) * 2 * time.Second),
			RawActiveCount:     10 - i%5,
			LogicalDeviceCount: 4 - i%3,
		})
	}

	return SessionSummary{
		Session:          domain.Session{ID: "s1", StartedAt: start, EndedAt: &end},
		TransactionCount: 1234,
		Reports:          reports,
	}
}

func TestExport_ProducesPDF(t *testing.T) {
	data, err := NewPDFExporter().Export(sampleSummary())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExport_OpenSessionAndNoReports(t *testing.T) {
	summary := SessionSummary{
		Session: domain.Session{ID: "s2", StartedAt: time.Now()},
	}
	data, err := NewPDFExporter().Export(summary)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.pdf")
	require.NoError(t, NewPDFExporter().ExportToFile(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
