package aircraft

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// csvFields is the number of fields of a database line: address,
// registration, type designator, model, description and wake category.
const csvFields = 6

// Database is a Directory backed by a zip archive holding one CSV file per
// value of the last two hex digits of the address (00.csv to FF.csv), each
// sorted by address.
type Database struct {
	archive *zip.ReadCloser
	files   map[string]*zip.File
	logger  *logrus.Logger

	mu    sync.Mutex
	cache map[ICAOAddress]lookupResult
}

type lookupResult struct {
	data  Data
	found bool
}

// OpenDatabase opens the archive at path.
func OpenDatabase(path string, logger *logrus.Logger) (*Database, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open aircraft database: %w", err)
	}
	files := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		files[f.Name] = f
	}
	logger.WithFields(logrus.Fields{
		"path":  path,
		"files": len(files),
	}).Info("Opened aircraft database")
	return &Database{
		archive: archive,
		files:   files,
		logger:  logger,
		cache:   make(map[ICAOAddress]lookupResult),
	}, nil
}

// Lookup returns the metadata of address. Results, including misses, are
// cached. It is safe for concurrent use.
func (db *Database) Lookup(address ICAOAddress) (Data, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if r, ok := db.cache[address]; ok {
		return r.data, r.found, nil
	}
	data, found, err := db.search(address)
	if err != nil {
		return Data{}, false, err
	}
	db.cache[address] = lookupResult{data: data, found: found}
	return data, found, nil
}

func (db *Database) search(address ICAOAddress) (Data, bool, error) {
	key := address.String()
	f, ok := db.files[key[4:]+".csv"]
	if !ok {
		return Data{}, false, nil
	}

	rc, err := f.Open()
	if err != nil {
		return Data{}, false, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < len(key) {
			continue
		}
		switch c := strings.Compare(line[:len(key)], key); {
		case c < 0:
			continue
		case c > 0:
			return Data{}, false, nil
		}

		fields := strings.Split(line, ",")
		if len(fields) != csvFields {
			return Data{}, false, fmt.Errorf("%w: %s has %d fields in %s", ErrInvalidData, key, len(fields), f.Name)
		}
		data := Data{
			Registration:   fields[1],
			TypeDesignator: fields[2],
			Model:          fields[3],
			Description:    fields[4],
			WakeCategory:   ParseWakeTurbulenceCategory(fields[5]),
		}
		if err := data.Validate(); err != nil {
			db.logger.WithError(err).WithField("icao", key).Warn("Ignoring invalid aircraft database entry")
			return Data{}, false, nil
		}
		return data, true, nil
	}
	if err := scanner.Err(); err != nil {
		return Data{}, false, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return Data{}, false, nil
}

// Close closes the archive.
func (db *Database) Close() error {
	return db.archive.Close()
}
