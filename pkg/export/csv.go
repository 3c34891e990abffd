package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"linkaudit/pkg/models"
)

// header is written once at the top of both the realtime and final exports
var header = []string{"Error", "URL", "Source"}

// RealtimeExporter streams each broken-link record to an append-only CSV
// file the moment it is found, independent of the end-of-run export
// Writers are serialized by a mutex and every record is flushed and synced
// to disk before Write returns, so a crash mid-crawl loses at most the
// in-flight record
type RealtimeExporter struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
	log  *logrus.Entry
	path string
}

// NewRealtimeExporter opens (truncating) the realtime export file and
// writes the header record. Failure to open the sink is fatal to the run,
// so the error propagates
func NewRealtimeExporter(path string, log *logrus.Entry) (*RealtimeExporter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open realtime export file '%s': %w", path, err)
	}

	e := &RealtimeExporter{
		file: file,
		w:    csv.NewWriter(file),
		log:  log,
		path: path,
	}
	if err := e.writeRecord(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("write realtime export header to '%s': %w", path, err)
	}
	log.Infof("Realtime broken-link export enabled: %s", path)
	return e, nil
}

// Write appends one broken-link record and returns once it is durable
func (e *RealtimeExporter) Write(rec models.BrokenLink) error {
	return e.writeRecord([]string{rec.Outcome.ErrorField(), rec.URL, rec.Source})
}

func (e *RealtimeExporter) writeRecord(record []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.w.Write(record); err != nil {
		return err
	}
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.file.Sync()
}

// Close flushes and closes the underlying file
func (e *RealtimeExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.w.Flush()
	flushErr := e.w.Error()
	closeErr := e.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// finalExportStatuses is the status filter for the end-of-run export:
// transport errors always pass, HTTP errors only for these codes.
// The realtime export and console summary carry every status >= 400
var finalExportStatuses = map[int]bool{
	400: true,
	404: true,
	500: true,
}

// exportable reports whether a record belongs in the final export
func exportable(rec models.BrokenLink) bool {
	switch rec.Outcome.Kind {
	case models.OutcomeTransportError:
		return true
	case models.OutcomeHTTPError:
		return finalExportStatuses[rec.Outcome.Status]
	}
	return false
}

// WriteFinal writes the filtered broken-link records to path in one shot,
// truncating any existing file of the same name. Returns the number of
// records written
func WriteFinal(path string, broken []models.BrokenLink) (int, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("open final export file '%s': %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return 0, err
	}

	written := 0
	for _, rec := range broken {
		if !exportable(rec) {
			continue
		}
		if err := w.Write([]string{rec.Outcome.ErrorField(), rec.URL, rec.Source}); err != nil {
			return written, err
		}
		written++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return written, err
	}
	return written, file.Sync()
}
