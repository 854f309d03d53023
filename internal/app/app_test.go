package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"es1090/internal/adsb"
	"es1090/internal/aircraft"
	"es1090/internal/bits"
	"es1090/internal/config"
	"es1090/internal/source"
	"es1090/internal/tracker"
)

const (
	identificationHex = "8D4B18F4231445F2DB63A0DEEB82"
	lausanneEvenHex   = "8D4B1A2C58B503035982BDD8813F"
	lausanneOddHex    = "8D4B1A2C58B5067F07794ECE097E"
	velocityHex       = "8D392AE499107FB5C00439035DB8"
	unhandledHex      = "8D4D2286EA428867291C08EE2EC6"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type frame struct {
	timestampNs int64
	hex         string
}

// recording encodes frames in the recording format
func recording(t *testing.T, frames ...frame) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		raw, ok := adsb.NewRawMessage(f.timestampNs, bits.MustParseHex(f.hex).Bytes())
		require.True(t, ok, f.hex)
		require.NoError(t, source.WriteRecord(&buf, raw))
	}
	return &buf
}

func recordingConfig() *config.Config {
	cfg := config.Default()
	cfg.Input.Mode = config.InputRecording
	cfg.Input.Path = "test"
	cfg.Input.QueueSize = 2
	return cfg
}

type fakePublisher struct {
	messages []adsb.Message
	err      error
	closed   bool
}

func (p *fakePublisher) Publish(msg adsb.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) Close(context.Context) error {
	p.closed = true
	return nil
}

type fakeStore struct {
	stored  []tracker.Snapshot
	deleted []aircraft.ICAOAddress
	closed  bool
}

func (s *fakeStore) Store(_ context.Context, snap tracker.Snapshot) error {
	s.stored = append(s.stored, snap)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, icaos ...aircraft.ICAOAddress) error {
	s.deleted = append(s.deleted, icaos...)
	return nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type fakeDirectory map[aircraft.ICAOAddress]aircraft.Data

func (d fakeDirectory) Lookup(icao aircraft.ICAOAddress) (aircraft.Data, bool, error) {
	data, ok := d[icao]
	return data, ok, nil
}

func TestApplication_Run(t *testing.T) {
	input := recording(t,
		frame{500e6, identificationHex},
		frame{1e9, lausanneEvenHex},
		frame{2e9, lausanneOddHex},
		frame{3e9, velocityHex},
		frame{4e9, unhandledHex},
		frame{70e9, identificationHex},
	)

	var sbs bytes.Buffer
	pub := &fakePublisher{}
	store := &fakeStore{}
	dir := fakeDirectory{aircraft.MustParseICAOAddress("4B1A2C"): {Registration: "HB-JMG"}}

	cfg := recordingConfig()
	cfg.RecordPath = filepath.Join(t.TempDir(), "out.bin")

	app, err := New(context.Background(), cfg, quietLogger(),
		WithInput(input), WithSBSOutput(&sbs), WithPublisher(pub), WithSnapshotStore(store), WithDirectory(dir))
	require.NoError(t, err)
	require.NotEmpty(t, app.SessionID())

	require.NoError(t, app.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(sbs.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "MSG,1,1,1,4B18F4,1,"), lines[0])
	assert.Contains(t, lines[0], ",EDW266N,")
	assert.True(t, strings.HasPrefix(lines[1], "MSG,3,1,2,4B1A2C,2,"), lines[1])
	assert.Contains(t, lines[1], ",35000,,,46.51960,6.63231,")
	assert.True(t, strings.HasPrefix(lines[2], "MSG,4,1,3,392AE4,3,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "MSG,1,1,1,4B18F4,1,"), lines[3])

	assert.Len(t, pub.messages, 5)
	assert.True(t, pub.closed)

	require.Len(t, store.stored, 1)
	assert.Equal(t, "4B1A2C", store.stored[0].ICAO)
	require.NotNil(t, store.stored[0].Aircraft)
	assert.Equal(t, "HB-JMG", store.stored[0].Aircraft.Registration)
	assert.Equal(t, []aircraft.ICAOAddress{0x392AE4, 0x4B1A2C}, store.deleted)
	assert.True(t, store.closed)

	expected := `
# HELP es1090_raw_messages_total Frames with a valid CRC received from the input
# TYPE es1090_raw_messages_total counter
es1090_raw_messages_total 6
# HELP es1090_positions_resolved_total Aircraft positions resolved from an even/odd CPR pair
# TYPE es1090_positions_resolved_total counter
es1090_positions_resolved_total 1
# HELP es1090_aircraft_purged_total Aircraft dropped after staying silent
# TYPE es1090_aircraft_purged_total counter
es1090_aircraft_purged_total 2
# HELP es1090_aircraft_tracked Aircraft currently held in memory
# TYPE es1090_aircraft_tracked gauge
es1090_aircraft_tracked 1
`
	assert.NoError(t, testutil.GatherAndCompare(app.Metrics().Registry(), strings.NewReader(expected),
		"es1090_raw_messages_total", "es1090_positions_resolved_total", "es1090_aircraft_purged_total", "es1090_aircraft_tracked"))

	manager := app.Tracker()
	assert.Equal(t, 1, manager.Tracked())
	assert.Equal(t, uint64(5), manager.Messages())

	recorded, err := os.ReadFile(cfg.RecordPath)
	require.NoError(t, err)
	assert.Len(t, recorded, 6*source.RecordSize)
}

func TestApplication_SinkErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	app, err := New(context.Background(), recordingConfig(), quietLogger(),
		WithInput(recording(t, frame{1, identificationHex}, frame{2, velocityHex})), WithPublisher(pub))
	require.NoError(t, err)

	require.NoError(t, app.Run(context.Background()))
	assert.Empty(t, pub.messages)
	assert.Equal(t, uint64(2), app.sinkErrors.Load())
	assert.Equal(t, uint64(2), app.decoded.Load())
}

func TestApplication_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app, err := New(context.Background(), recordingConfig(), quietLogger(),
		WithInput(recording(t, frame{1, identificationHex})))
	require.NoError(t, err)

	assert.NoError(t, app.Run(ctx))
	assert.Zero(t, app.processed.Load())
}

func TestApplication_InputModes(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		input []byte
	}{
		{"empty samples", config.InputSamples, nil},
		{"empty recording", config.InputRecording, nil},
		{"beast frame", config.InputBeast, []byte{
			0x1A, 0x33, 0, 0, 0, 0, 0, 0x0C, 0x80,
			0x8D, 0x4B, 0x18, 0xF4, 0x23, 0x14, 0x45, 0xF2, 0xDB, 0x63, 0xA0, 0xDE, 0xEB, 0x82,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := recordingConfig()
			cfg.Input.Mode = tt.mode

			app, err := New(context.Background(), cfg, quietLogger(), WithInput(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			require.NoError(t, app.Run(context.Background()))

			if tt.mode == config.InputBeast {
				assert.Equal(t, uint64(1), app.processed.Load())
				_, ok := app.Tracker().State(aircraft.MustParseICAOAddress("4B18F4"))
				assert.True(t, ok)
			} else {
				assert.Zero(t, app.processed.Load())
			}
		})
	}
}

func TestApplication_SBSDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sbs")
	cfg := recordingConfig()
	cfg.SBS.Dir = dir

	app, err := New(context.Background(), cfg, quietLogger(), WithInput(recording(t, frame{1, identificationHex})))
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background()))

	files, err := filepath.Glob(filepath.Join(dir, "sbs_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "EDW266N")
}

func TestNew_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		cfg := recordingConfig()
		cfg.Input.Path = filepath.Join(t.TempDir(), "missing.bin")
		_, err := New(context.Background(), cfg, quietLogger())
		assert.ErrorContains(t, err, "failed to open input")
	})

	t.Run("missing aircraft database", func(t *testing.T) {
		cfg := recordingConfig()
		cfg.AircraftDB = filepath.Join(t.TempDir(), "missing.zip")
		_, err := New(context.Background(), cfg, quietLogger(), WithInput(bytes.NewReader(nil)))
		assert.ErrorContains(t, err, "aircraft database")
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := recordingConfig()
		cfg.Input.Mode = "rtlsdr"
		_, err := New(context.Background(), cfg, quietLogger(), WithInput(bytes.NewReader(nil)))
		assert.ErrorContains(t, err, "unknown input mode")
	})
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "Version: "+Version)
	assert.Contains(t, buf.String(), "Git Commit: "+GitCommit)
}
