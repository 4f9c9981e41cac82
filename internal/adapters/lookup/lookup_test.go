package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v uint16) *uint16 { return &v }

func TestManufacturerTable_Name(t *testing.T) {
	table := NewManufacturerTable()

	assert.Equal(t, "Unknown", table.Name(nil), "no manufacturer payload at all")
	assert.Equal(t, "Apple", table.Name(id(76)))
	assert.Equal(t, "Nordic Semiconductor", table.Name(id(25)))
	assert.Equal(t, "Unknown (ID: 1234)", table.Name(id(1234)))
}

func TestManufacturerTable_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.tsv")
	content := "# Bluetooth SIG company identifiers\n" +
		"301\tSony\n" +
		"\n" +
		"76\tApple Inc.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table := NewManufacturerTable()
	require.NoError(t, table.LoadFile(path))

	assert.Equal(t, "Sony", table.Name(id(301)))
	assert.Equal(t, "Apple Inc.", table.Name(id(76)), "file entries win over built-ins")
	assert.Equal(t, "Samsung", table.Name(id(117)), "built-ins survive the overlay")
}

func TestManufacturerTable_LoadFileErrors(t *testing.T) {
	table := NewManufacturerTable()

	assert.Error(t, table.LoadFile(filepath.Join(t.TempDir(), "missing.tsv")))

	bad := filepath.Join(t.TempDir(), "bad.tsv")
	require.NoError(t, os.WriteFile(bad, []byte("no-tab-here\n"), 0o644))
	assert.Error(t, table.LoadFile(bad))

	badID := filepath.Join(t.TempDir(), "badid.tsv")
	require.NoError(t, os.WriteFile(badID, []byte("99999999\tTooBig\n"), 0o644))
	assert.Error(t, table.LoadFile(badID))
}

func TestServiceNames(t *testing.T) {
	assert.Equal(t, "No services", ServiceNames(nil))
	assert.Equal(t, "No services", ServiceNames([]string{}))

	assert.Equal(t, "Battery Service", ServiceNames([]string{"0000180f-0000-1000-8000-00805f9b34fb"}),
		"lookup is case-insensitive")

	assert.Equal(t, "Custom (DEADBEEF...)", ServiceNames([]string{"deadbeef-0000-1000-8000-00805f9b34fb"}))

	got := ServiceNames([]string{
		"74EC2172-0BAD-4D01-8F77-997B2BE0722A",
		"0000180A-0000-1000-8000-00805F9B34FB",
		"cafe",
	})
	assert.Equal(t, "Apple Continuity, Device Information, Custom (CAFE...)", got)
}
