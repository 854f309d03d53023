// Package app wires a message source to the decoder, the aircraft tracker
// and the configured output sinks.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"es1090/internal/adsb"
	"es1090/internal/aircraft"
	"es1090/internal/basestation"
	"es1090/internal/config"
	"es1090/internal/logging"
	"es1090/internal/metrics"
	"es1090/internal/publish"
	"es1090/internal/source"
	"es1090/internal/tracker"
)

const (
	// purgeIntervalNs is the message time between two purges of the tracker.
	purgeIntervalNs = int64(1e9)
	statsInterval   = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Publisher receives every decoded message.
type Publisher interface {
	Publish(msg adsb.Message) error
	Close(ctx context.Context) error
}

// SnapshotStore keeps the latest state of visible aircraft.
type SnapshotStore interface {
	Store(ctx context.Context, snap tracker.Snapshot) error
	Delete(ctx context.Context, icaos ...aircraft.ICAOAddress) error
	Close() error
}

// Option overrides a component built from the configuration.
type Option func(*Application)

// WithInput reads the input from r instead of the configured path.
func WithInput(r io.Reader) Option {
	return func(a *Application) { a.input = r }
}

// WithSBSOutput writes BaseStation lines to w instead of the configured
// directory.
func WithSBSOutput(w io.Writer) Option {
	return func(a *Application) { a.sbsOut = w }
}

// WithPublisher replaces the NATS publisher.
func WithPublisher(p Publisher) Option {
	return func(a *Application) { a.publisher = p }
}

// WithSnapshotStore replaces the Redis store.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(a *Application) { a.store = s }
}

// WithDirectory replaces the aircraft database.
func WithDirectory(d aircraft.Directory) Option {
	return func(a *Application) { a.directory = d }
}

// Application is one receiver run.
type Application struct {
	cfg       *config.Config
	logger    *logrus.Logger
	sessionID string

	input     io.Reader
	source    source.Source
	metrics   *metrics.Pipeline
	manager   *tracker.Manager
	directory aircraft.Directory
	sbsOut    io.Writer
	sbs       *basestation.Writer
	rotator   *logging.Rotator
	publisher Publisher
	store     SnapshotStore
	recorder  *bufio.Writer
	server    *http.Server

	closers []io.Closer
	wg      sync.WaitGroup

	lastPurgeNs int64
	processed   atomic.Uint64
	decoded     atomic.Uint64
	tracked     atomic.Int64
	visible     atomic.Int64
	sinkErrors  atomic.Uint64
}

// New builds the application described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Application, error) {
	app := &Application{
		cfg:         cfg,
		logger:      logger,
		sessionID:   uuid.NewString(),
		metrics:     metrics.NewPipeline(),
		lastPurgeNs: -1,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initializeComponents(ctx); err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return app, nil
}

// SessionID identifies this run in published messages.
func (app *Application) SessionID() string { return app.sessionID }

// Metrics returns the pipeline collectors.
func (app *Application) Metrics() *metrics.Pipeline { return app.metrics }

// Tracker returns the aircraft state manager. It must not be used while Run
// is in progress.
func (app *Application) Tracker() *tracker.Manager { return app.manager }

func (app *Application) initializeComponents(ctx context.Context) error {
	if err := app.openSource(); err != nil {
		return err
	}

	if app.directory == nil && app.cfg.AircraftDB != "" {
		db, err := aircraft.OpenDatabase(app.cfg.AircraftDB, app.logger)
		if err != nil {
			return err
		}
		app.directory = db
		app.closers = append(app.closers, db)
	}

	app.manager = tracker.NewManager(app.logger,
		tracker.WithDirectory(app.directory),
		tracker.WithListener(app.onUpdate),
		tracker.WithPurgeAfter(app.cfg.PurgeAfter.Nanoseconds()),
	)

	if err := app.openSBS(); err != nil {
		return err
	}

	if app.publisher == nil && app.cfg.NATS.URL != "" {
		p, err := publish.ConnectNATS(app.cfg.NATS.URL, app.cfg.NATS.Subject, app.sessionID, app.logger)
		if err != nil {
			return err
		}
		app.publisher = p
	}

	if app.store == nil && app.cfg.Redis.Addr != "" {
		s, err := publish.ConnectRedis(ctx, app.cfg.Redis.Addr, app.cfg.Redis.TTL, app.logger)
		if err != nil {
			return err
		}
		app.store = s
	}

	if app.cfg.RecordPath != "" {
		f, err := os.Create(app.cfg.RecordPath)
		if err != nil {
			return fmt.Errorf("failed to create recording: %w", err)
		}
		app.closers = append(app.closers, f)
		app.recorder = bufio.NewWriter(f)
	}

	if app.cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.metrics.Handler())
		app.server = &http.Server{
			Addr:              app.cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return nil
}

func (app *Application) openSource() error {
	if app.input == nil {
		if app.cfg.Input.Path == "-" {
			app.input = os.Stdin
		} else {
			f, err := os.Open(app.cfg.Input.Path)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			app.closers = append(app.closers, f)
			app.input = f
		}
	}
	r := bufio.NewReaderSize(app.input, 1<<16)

	switch app.cfg.Input.Mode {
	case config.InputSamples:
		s, err := source.NewSamples(r, app.logger)
		if err != nil {
			return err
		}
		app.metrics.RegisterDemodulator(s.Stats)
		app.source = s
	case config.InputRecording:
		app.source = source.NewRecording(r, app.cfg.Input.Realtime, app.logger)
	case config.InputBeast:
		app.source = source.NewBeast(r, app.logger)
	default:
		return fmt.Errorf("unknown input mode %q", app.cfg.Input.Mode)
	}

	app.logger.WithFields(logrus.Fields{
		"mode": app.cfg.Input.Mode,
		"path": app.cfg.Input.Path,
	}).Info("Input opened")
	return nil
}

func (app *Application) openSBS() error {
	var writers []io.Writer
	if app.sbsOut != nil {
		writers = append(writers, app.sbsOut)
	} else if app.cfg.SBS.Dir != "" {
		rotator, err := logging.NewRotator(app.cfg.SBS.Dir, "sbs", app.cfg.SBS.UTC, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize SBS output: %w", err)
		}
		app.rotator = rotator
		app.closers = append(app.closers, rotator)
		writers = append(writers, rotator)

		if app.cfg.SBS.RetentionDays > 0 {
			if _, err := rotator.CleanupOldFiles(app.cfg.SBS.RetentionDays); err != nil {
				app.logger.WithError(err).Warn("Failed to clean up old SBS files")
			}
		}
	}
	if app.cfg.SBS.Stdout {
		writers = append(writers, os.Stdout)
	}
	if len(writers) == 0 {
		return nil
	}

	out := writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}
	app.sbs = basestation.NewWriter(out, time.Now(), app.logger)
	return nil
}

// Run processes the input until it is exhausted or ctx is cancelled, then
// releases every resource. Cancellation is not an error.
func (app *Application) Run(ctx context.Context) error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"git_commit": GitCommit,
		"session":    app.sessionID,
	}).Info("Starting es1090")

	ctx, cancel := context.WithCancel(ctx)
	defer app.shutdown(cancel)

	app.startBackground(ctx)

	queue := make(chan *adsb.RawMessage, app.cfg.Input.QueueSize)
	producerErr := make(chan error, 1)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		producerErr <- app.produce(ctx, queue)
	}()

	for raw := range queue {
		app.metrics.SetQueueDepth(len(queue))
		app.handle(ctx, raw)
	}

	err := <-producerErr
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		app.logger.Info("Input processing interrupted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	app.logger.WithFields(app.statsFields()).Info("Input exhausted")
	return nil
}

// produce forwards raw messages from the source in order and closes queue
// when the source ends.
func (app *Application) produce(ctx context.Context, queue chan<- *adsb.RawMessage) error {
	defer close(queue)
	for {
		raw, err := app.source.Next(ctx)
		if err != nil {
			return err
		}
		if raw == nil {
			return nil
		}
		select {
		case queue <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (app *Application) startBackground(ctx context.Context) {
	if app.rotator != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.rotator.Start(ctx)
		}()
	}

	if app.server != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.logger.WithField("addr", app.server.Addr).Info("Serving metrics")
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics(ctx)
	}()
}

// handle runs one raw message through the decoder, the tracker and the
// sinks.
func (app *Application) handle(ctx context.Context, raw *adsb.RawMessage) {
	app.processed.Add(1)
	app.metrics.ObserveRaw()

	if app.recorder != nil {
		if err := source.WriteRecord(app.recorder, raw); err != nil {
			app.sinkError("recording", err)
		}
	}

	msg := adsb.Parse(raw)
	app.metrics.ObserveMessage(msg)
	if msg == nil {
		if app.logger.IsLevelEnabled(logrus.TraceLevel) {
			app.logger.WithFields(logrus.Fields{
				"icao":      raw.ICAO().String(),
				"type_code": raw.TypeCode(),
			}).Trace("Unhandled message")
		}
		return
	}
	app.decoded.Add(1)

	if app.publisher != nil {
		if err := app.publisher.Publish(msg); err != nil {
			app.sinkError("nats", err)
		}
	}

	if app.manager.Update(msg) {
		app.logger.WithField("icao", msg.ICAO().String()).Debug("Aircraft visible")
	}

	if app.store != nil {
		if state, ok := app.manager.State(msg.ICAO()); ok {
			if _, known := state.Position(); known {
				if err := app.store.Store(ctx, state.Snapshot()); err != nil {
					app.sinkError("redis", err)
				}
			}
		}
	}

	app.maybePurge(ctx, raw.TimestampNs())
}

// onUpdate receives every tracker update on the consumer goroutine.
func (app *Application) onUpdate(u tracker.Update) {
	if u.Field == tracker.FieldPosition {
		app.metrics.ObservePositionResolved()
	}
	if app.sbs != nil {
		if err := app.sbs.Handle(u); err != nil {
			app.sinkError("sbs", err)
		}
	}
}

func (app *Application) maybePurge(ctx context.Context, timestampNs int64) {
	if app.lastPurgeNs >= 0 && timestampNs-app.lastPurgeNs < purgeIntervalNs {
		return
	}
	app.lastPurgeNs = timestampNs

	removed := app.manager.Purge()
	if len(removed) > 0 {
		app.metrics.ObservePurged(len(removed))
		for _, icao := range removed {
			if app.sbs != nil {
				app.sbs.Forget(icao)
			}
		}
		if app.store != nil {
			if err := app.store.Delete(ctx, removed...); err != nil {
				app.sinkError("redis", err)
			}
		}
	}

	tracked, visible := app.manager.Tracked(), len(app.manager.Visible())
	app.tracked.Store(int64(tracked))
	app.visible.Store(int64(visible))
	app.metrics.SetAircraft(tracked, visible)
}

func (app *Application) sinkError(sink string, err error) {
	app.sinkErrors.Add(1)
	app.metrics.ObserveSinkError(sink)
	app.logger.WithError(err).WithField("sink", sink).Warn("Sink write failed")
}

func (app *Application) statsFields() logrus.Fields {
	return logrus.Fields{
		"raw_messages": app.processed.Load(),
		"decoded":      app.decoded.Load(),
		"tracked":      app.tracked.Load(),
		"visible":      app.visible.Load(),
		"sink_errors":  app.sinkErrors.Load(),
	}
}

// reportStatistics logs the pipeline counters periodically.
func (app *Application) reportStatistics(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fields := app.statsFields()
			if s, ok := app.source.(*source.Samples); ok {
				st := s.Stats()
				fields["candidates"] = st.Candidates
				fields["rejected_crc"] = st.RejectedCRC
				fields["accepted"] = st.Accepted
			}
			app.logger.WithFields(fields).Info("Pipeline statistics")
		}
	}
}

func (app *Application) shutdown(cancel context.CancelFunc) {
	app.logger.Info("Shutting down")
	cancel()

	ctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()

	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			app.logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	finished := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		app.logger.Warn("Shutdown timeout, some goroutines are still running")
	}

	if app.recorder != nil {
		if err := app.recorder.Flush(); err != nil {
			app.logger.WithError(err).Error("Failed to flush recording")
		}
	}
	if app.publisher != nil {
		if err := app.publisher.Close(ctx); err != nil {
			app.logger.WithError(err).Warn("Failed to close publisher")
		}
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close snapshot store")
		}
	}
	app.closeAll()
	app.logger.Info("Shutdown completed")
}

func (app *Application) closeAll() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close resource")
		}
	}
	app.closers = nil
}
