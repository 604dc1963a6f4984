// Package csvwriter exports tabular reports as CSV.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Writer writes CSV records to a file or any io.Writer. It is safe for concurrent use.
type Writer struct {
	closer  io.Closer
	writer  *csv.Writer
	logger  *zap.Logger
	mu      sync.Mutex
	records int
}

// NewWriter creates the file at filePath (and its directory) and writes CSV to it.
func NewWriter(filePath string, logger *zap.Logger) (*Writer, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create CSV directory: %w", err)
		}
	}
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	w := New(file, logger)
	w.closer = file
	return w, nil
}

// New writes CSV to out. Close does not close out.
func New(out io.Writer, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{writer: csv.NewWriter(out), logger: logger}
}

// Write writes a record.
func (w *Writer) Write(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	w.records++
	return nil
}

// WriteTable writes header followed by rows.
func (w *Writer) WriteTable(header []string, rows [][]string) error {
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Records returns how many records were written, header included.
func (w *Writer) Records() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Flush flushes any buffered data and reports a write error, if any occurred.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the underlying file, if the Writer opened one.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	w.logger.Debug("csv export finished", zap.Int("records", w.Records()))
	if w.closer == nil {
		return flushErr
	}
	if err := w.closer.Close(); err != nil {
		return err
	}
	return flushErr
}
