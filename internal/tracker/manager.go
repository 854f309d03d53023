package tracker

import (
	"sort"

	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
	"es1090/internal/aircraft"
)

// DefaultPurgeAfterNs is how long an aircraft is kept after its last message,
// measured against the most recent message of any aircraft.
const DefaultPurgeAfterNs = int64(60e9)

type entry struct {
	accumulator *adsb.Accumulator[*ObservableState]
	visible     bool
}

// Manager keeps one accumulator per aircraft. An aircraft becomes visible
// once its position is known. A Manager is not safe for concurrent use.
type Manager struct {
	directory    aircraft.Directory
	listener     Listener
	logger       *logrus.Logger
	purgeAfterNs int64

	aircraft     map[aircraft.ICAOAddress]*entry
	mostRecentNs int64
	messages     uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithDirectory sets the metadata lookup used for new aircraft.
func WithDirectory(directory aircraft.Directory) Option {
	return func(m *Manager) { m.directory = directory }
}

// WithListener sets the receiver of every state update.
func WithListener(listener Listener) Option {
	return func(m *Manager) { m.listener = listener }
}

// WithPurgeAfter overrides DefaultPurgeAfterNs.
func WithPurgeAfter(ns int64) Option {
	return func(m *Manager) { m.purgeAfterNs = ns }
}

// NewManager returns an empty manager.
func NewManager(logger *logrus.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger:       logger,
		purgeAfterNs: DefaultPurgeAfterNs,
		aircraft:     make(map[aircraft.ICAOAddress]*entry),
		mostRecentNs: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Update applies msg to the state of its aircraft, creating it if needed.
// It reports whether the aircraft became visible with this message.
func (m *Manager) Update(msg adsb.Message) bool {
	icao := msg.ICAO()
	e, ok := m.aircraft[icao]
	if !ok {
		e = &entry{accumulator: adsb.NewAccumulator(NewObservableState(icao, m.lookup(icao), m.listener))}
		m.aircraft[icao] = e
		m.logger.WithField("icao", icao.String()).Debug("New aircraft")
	}

	e.accumulator.Update(msg)
	m.mostRecentNs = msg.TimestampNs()
	m.messages++

	if _, known := e.accumulator.State().Position(); known && !e.visible {
		e.visible = true
		return true
	}
	return false
}

func (m *Manager) lookup(icao aircraft.ICAOAddress) *aircraft.Data {
	if m.directory == nil {
		return nil
	}
	data, found, err := m.directory.Lookup(icao)
	if err != nil {
		m.logger.WithError(err).WithField("icao", icao.String()).Warn("Aircraft lookup failed")
		return nil
	}
	if !found {
		return nil
	}
	return &data
}

// Purge removes the aircraft not heard from in more than the purge age
// before the most recent message and returns their addresses in ascending
// order.
func (m *Manager) Purge() []aircraft.ICAOAddress {
	var removed []aircraft.ICAOAddress
	for icao, e := range m.aircraft {
		if m.mostRecentNs-e.accumulator.State().LastMessageTimestampNs() > m.purgeAfterNs {
			delete(m.aircraft, icao)
			removed = append(removed, icao)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	if len(removed) > 0 {
		m.logger.WithFields(logrus.Fields{
			"purged":    len(removed),
			"remaining": len(m.aircraft),
		}).Debug("Purged stale aircraft")
	}
	return removed
}

// State returns the state of icao, visible or not.
func (m *Manager) State(icao aircraft.ICAOAddress) (*ObservableState, bool) {
	e, ok := m.aircraft[icao]
	if !ok {
		return nil, false
	}
	return e.accumulator.State(), true
}

// Visible returns the aircraft with a known position, ordered by address.
func (m *Manager) Visible() []*ObservableState {
	var out []*ObservableState
	for _, e := range m.aircraft {
		if e.visible {
			out = append(out, e.accumulator.State())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ICAO() < out[j].ICAO() })
	return out
}

// Tracked is the number of aircraft currently held, visible or not.
func (m *Manager) Tracked() int { return len(m.aircraft) }

// Messages is the number of messages applied since creation.
func (m *Manager) Messages() uint64 { return m.messages }

// MostRecentTimestampNs is the timestamp of the last message applied, or -1.
func (m *Manager) MostRecentTimestampNs() int64 { return m.mostRecentNs }
