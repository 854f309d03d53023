package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"es1090/internal/adsb"
	"es1090/internal/aircraft"
	"es1090/internal/demod"
)

func TestPipeline_Messages(t *testing.T) {
	p := NewPipeline()
	icao := aircraft.MustParseICAOAddress("4B1A2C")

	id, err := adsb.NewIdentification(1, icao, 0xA3, adsb.CallSign("SWR123"))
	require.NoError(t, err)
	vel, err := adsb.NewAirborneVelocity(2, icao, 200, 1)
	require.NoError(t, err)

	p.ObserveRaw()
	p.ObserveRaw()
	p.ObserveRaw()
	p.ObserveMessage(id)
	p.ObserveMessage(vel)
	p.ObserveMessage(vel)
	p.ObserveMessage(nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(p.rawMessages))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.messages.WithLabelValues(KindIdentification)))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.messages.WithLabelValues(KindVelocity)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.messages.WithLabelValues(KindUnhandled)))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.messages.WithLabelValues(KindPosition)))
}

func TestPipeline_Gauges(t *testing.T) {
	p := NewPipeline()
	p.SetAircraft(5, 3)
	p.SetQueueDepth(7)
	p.ObservePositionResolved()
	p.ObservePurged(2)
	p.ObserveSinkError("nats")

	assert.Equal(t, 5.0, testutil.ToFloat64(p.aircraftTracked))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.aircraftVisible))
	assert.Equal(t, 7.0, testutil.ToFloat64(p.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.positionsResolved))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.purged))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.sinkErrors.WithLabelValues("nats")))
}

func TestPipeline_Demodulator(t *testing.T) {
	p := NewPipeline()
	stats := demod.Stats{Candidates: 10, RejectedFormat: 4, RejectedCRC: 3, Accepted: 3}
	p.RegisterDemodulator(func() demod.Stats { return stats })

	expected := `
# HELP es1090_demod_accepted_total Frames accepted
# TYPE es1090_demod_accepted_total counter
es1090_demod_accepted_total 3
# HELP es1090_demod_candidates_total Windows passing the preamble test
# TYPE es1090_demod_candidates_total counter
es1090_demod_candidates_total 10
`
	require.NoError(t, testutil.GatherAndCompare(p.Registry(), strings.NewReader(expected),
		"es1090_demod_accepted_total", "es1090_demod_candidates_total"))

	stats.Accepted = 4
	count, err := testutil.GatherAndCount(p.Registry(), "es1090_demod_rejected_crc_total", "es1090_demod_rejected_format_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_Handler(t *testing.T) {
	p := NewPipeline()
	p.ObserveRaw()

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "es1090_raw_messages_total 1")
}

func TestKind(t *testing.T) {
	icao := aircraft.MustParseICAOAddress("4B1A2C")
	pos, err := adsb.NewAirbornePosition(0, icao, 1000, 0, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, KindPosition, Kind(pos))
	assert.Equal(t, KindUnhandled, Kind(nil))
}
