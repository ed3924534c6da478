// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// ErrNotFound indicates the journal has no record for a document.
var ErrNotFound = errors.New("journal record not found")

// Status is the recorded outcome of a document's ingestion.
type Status uint8

const (
	// StatusDone marks a document whose records were fully handed to the writer.
	StatusDone Status = iota + 1
	// StatusFailed marks a document whose ingestion aborted.
	StatusFailed
)

// Record is the journal entry for one document.
type Record struct {
	Status    Status
	UpdatedAt time.Time
	Error     string // Cause of the failure; empty for StatusDone
}

// Journal stores per-document ingestion outcomes in BadgerDB.
type Journal struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (or creates) a journal at the given directory path.
func Open(path string) (*Journal, error) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, err
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	opts := badger.DefaultOptions(path)
	return open(opts)
}

// OpenInMemory opens a journal backed by memory only, for tests.
func OpenInMemory() (*Journal, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Journal, error) {
	logger := slog.Default().With("component", "journal")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("progress: open journal: %w", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

// MarkDone records a successful ingestion of the document.
func (j *Journal) MarkDone(title string) error {
	return j.put(title, Record{Status: StatusDone, UpdatedAt: time.Now().UTC()})
}

// MarkFailed records a failed ingestion and its cause.
func (j *Journal) MarkFailed(title string, cause error) error {
	rec := Record{Status: StatusFailed, UpdatedAt: time.Now().UTC()}
	if cause != nil {
		rec.Error = cause.Error()
	}
	return j.put(title, rec)
}

// Done reports whether the document completed in an earlier run. Lookup
// failures are logged and reported as not done, so a damaged journal only
// costs re-processing.
func (j *Journal) Done(title string) bool {
	rec, err := j.Get(title)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			j.logger.Warn("journal lookup failed", "title", title, "err", err)
		}
		return false
	}
	return rec.Status == StatusDone
}

// Get retrieves the journal record for a document.
// Returns ErrNotFound if no record exists.
func (j *Journal) Get(title string) (*Record, error) {
	var rec *Record
	err := j.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocKey(title))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			rec, unmarshalErr = UnmarshalRecord(val)
			return unmarshalErr
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) put(title string, rec Record) error {
	return j.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeDocKey(title), MarshalRecord(&rec))
	})
}

// docKeyPrefix namespaces journal entries by record type.
const docKeyPrefix = "doc"

// makeDocKey generates the journal key for a document title.
func makeDocKey(title string) []byte {
	return []byte(docKeyPrefix + ":" + title)
}
