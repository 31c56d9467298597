// Package runlog persists one CSV audit row per search cycle. The file is
// created once per run and every row is flushed to disk immediately so a
// crash mid-run loses at most the cycle in flight.
package runlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var columns = []string{
	"timestamp",
	"generated_query",
	"search_url",
	"response_status",
	"execution_time",
	"category",
	"query_type",
}

// Row is one completed search cycle.
type Row struct {
	Timestamp     time.Time
	Query         string
	Locator       string
	Success       bool
	ExecutionTime float64
	Category      string
	QueryType     string
}

// Logger appends cycle rows to a timestamped CSV file.
type Logger struct {
	path string
}

// Create makes a new log file named after the run's start time and writes
// the header. It refuses to overwrite an existing file.
func Create(dir string, start time.Time) (*Logger, error) {
	name := fmt.Sprintf("search_log_%s.csv", start.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create run log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write run log header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush run log header: %w", err)
	}
	return &Logger{path: path}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string { return l.path }

// Append writes one cycle row. The file is opened per call so each row hits
// disk before the next cycle starts.
func (l *Logger) Append(row Row) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	status := "failed"
	if row.Success {
		status = "success"
	}
	record := []string{
		row.Timestamp.Format(time.RFC3339),
		row.Query,
		row.Locator,
		status,
		fmt.Sprintf("%.2f", row.ExecutionTime),
		row.Category,
		row.QueryType,
	}

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write run log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush run log row: %w", err)
	}
	return nil
}
