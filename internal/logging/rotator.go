package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// ErrClosed is returned when writing to a closed Rotator.
var ErrClosed = errors.New("logging: rotator closed")

// Rotator is an io.Writer appending to one file per day, named
// <prefix>_<date>.log. When the date changes the previous file is gzip
// compressed in the background.
type Rotator struct {
	dir    string
	prefix string
	useUTC bool
	logger *logrus.Logger
	now    func() time.Time

	mu          sync.Mutex
	currentFile *os.File
	currentDate string

	compressions sync.WaitGroup
}

// NewRotator creates dir if needed and opens the file of the current day.
func NewRotator(dir, prefix string, useUTC bool, logger *logrus.Logger) (*Rotator, error) {
	return newRotator(dir, prefix, useUTC, logger, time.Now)
}

func newRotator(dir, prefix string, useUTC bool, logger *logrus.Logger, now func() time.Time) (*Rotator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &Rotator{
		dir:    dir,
		prefix: prefix,
		useUTC: useUTC,
		logger: logger,
		now:    now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.rotate(r.date()); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}
	return r, nil
}

// Start checks for a date change every minute until ctx is done.
func (r *Rotator) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *Rotator) date() string {
	now := r.now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format(dateLayout)
}

func (r *Rotator) checkRotation() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return
	}
	date := r.date()
	if date == r.currentDate {
		return
	}
	r.logger.WithFields(logrus.Fields{
		"old_date": r.currentDate,
		"new_date": date,
	}).Info("Rotating output file")
	if err := r.rotate(date); err != nil {
		r.logger.WithError(err).Error("Failed to rotate output file")
	}
}

// rotate opens the file of date, then closes the current file and schedules
// its compression. The current file is kept when the new one cannot be
// opened. r.mu must be held.
func (r *Rotator) rotate(date string) error {
	name := r.path(date)
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", name, err)
	}

	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old output file")
		}

		old := r.path(r.currentDate)
		r.compressions.Add(1)
		go func() {
			defer r.compressions.Done()
			if err := compressFile(old); err != nil {
				r.logger.WithError(err).WithField("file", old).Error("Failed to compress output file")
				return
			}
			r.logger.WithField("file", old+".gz").Info("Output file compressed")
		}()
	}

	r.currentFile = file
	r.currentDate = date
	r.logger.WithField("file", name).Info("Opened output file")
	return nil
}

func (r *Rotator) path(date string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.log", r.prefix, date))
}

// Write appends p to the current file, rotating first if the date changed.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return 0, ErrClosed
	}
	if date := r.date(); date != r.currentDate {
		if err := r.rotate(date); err != nil {
			return 0, err
		}
	}
	return r.currentFile.Write(p)
}

// CurrentFile returns the path of the file being written, or "" once closed.
func (r *Rotator) CurrentFile() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return ""
	}
	return r.path(r.currentDate)
}

// Files lists the plain and compressed files of this rotator.
func (r *Rotator) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, r.prefix+"_*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list output files: %w", err)
	}
	return files, nil
}

// CleanupOldFiles removes files last modified more than maxDays ago, except
// the current one.
func (r *Rotator) CleanupOldFiles(maxDays int) (int, error) {
	if maxDays <= 0 {
		return 0, fmt.Errorf("maxDays must be positive, got %d", maxDays)
	}
	files, err := r.Files()
	if err != nil {
		return 0, err
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.CurrentFile()
	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat output file")
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(file); err != nil {
			r.logger.WithError(err).WithField("file", file).Error("Failed to remove old output file")
			continue
		}
		removed++
	}
	r.logger.WithField("count", removed).Info("Cleaned up old output files")
	return removed, nil
}

// Close closes the current file and waits for pending compressions.
func (r *Rotator) Close() error {
	r.mu.Lock()
	var err error
	if r.currentFile != nil {
		err = r.currentFile.Close()
		r.currentFile = nil
	}
	r.mu.Unlock()

	r.compressions.Wait()
	return err
}

// compressFile replaces name with name.gz.
func compressFile(name string) error {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(name + ".gz")
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	gz.Name = filepath.Base(name)
	gz.ModTime = time.Now()
	if _, err := io.Copy(gz, src); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
