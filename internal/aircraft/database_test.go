package aircraft

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeDatabase(t *testing.T, files map[string][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aircraft.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, lines := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(entry, strings.Join(lines, "\n")+"\n")
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDatabase_Lookup(t *testing.T) {
	path := writeDatabase(t, map[string][]string{
		"C6.csv": {
			"0086C6,ZS-SJC,B738,BOEING 737-800,L2J,M",
			"4B1AC6,HB-JCA,BCS3,AIRBUS A220-300,L2J,M",
			"4B1BC6,HB-ZZZ,,,,",
		},
		"2C.csv": {
			"4B1A2C,HB-JMG,A343,AIRBUS A340-300,L4J,H",
			"4B1B2C,hb-bad,A320,AIRBUS A320,L2J,M",
		},
	})

	db, err := OpenDatabase(path, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tests := []struct {
		name    string
		address string
		want    Data
		found   bool
	}{
		{
			name:    "first line",
			address: "0086C6",
			want:    Data{Registration: "ZS-SJC", TypeDesignator: "B738", Model: "BOEING 737-800", Description: "L2J", WakeCategory: WakeMedium},
			found:   true,
		},
		{
			name:    "middle line",
			address: "4B1AC6",
			want:    Data{Registration: "HB-JCA", TypeDesignator: "BCS3", Model: "AIRBUS A220-300", Description: "L2J", WakeCategory: WakeMedium},
			found:   true,
		},
		{
			name:    "empty optional fields",
			address: "4B1BC6",
			want:    Data{Registration: "HB-ZZZ", WakeCategory: WakeUnknown},
			found:   true,
		},
		{
			name:    "heavy",
			address: "4B1A2C",
			want:    Data{Registration: "HB-JMG", TypeDesignator: "A343", Model: "AIRBUS A340-300", Description: "L4J", WakeCategory: WakeHeavy},
			found:   true,
		},
		{name: "before the first line", address: "0000C6", found: false},
		{name: "between addresses", address: "1234C6", found: false},
		{name: "past the last line", address: "FFFFC6", found: false},
		{name: "missing file", address: "4B1A00", found: false},
		{name: "invalid entry", address: "4B1B2C", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, found, err := db.Lookup(MustParseICAOAddress(tt.address))
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, data)
		})
	}
}

func TestDatabase_LookupCachesResults(t *testing.T) {
	path := writeDatabase(t, map[string][]string{
		"C6.csv": {"4B1AC6,HB-JCA,BCS3,AIRBUS A220-300,L2J,M"},
	})
	db, err := OpenDatabase(path, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	address := MustParseICAOAddress("4B1AC6")
	first, found, err := db.Lookup(address)
	require.NoError(t, err)
	require.True(t, found)

	second, found, err := db.Lookup(address)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, second)
	assert.Len(t, db.cache, 1)
}

func TestDatabase_MalformedLine(t *testing.T) {
	path := writeDatabase(t, map[string][]string{
		"C6.csv": {"4B1AC6,HB-JCA,BCS3"},
	})
	db, err := OpenDatabase(path, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, found, err := db.Lookup(MustParseICAOAddress("4B1AC6"))
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.False(t, found)
}

func TestOpenDatabase_MissingFile(t *testing.T) {
	_, err := OpenDatabase(filepath.Join(t.TempDir(), "missing.zip"), quietLogger())
	assert.Error(t, err)
}
