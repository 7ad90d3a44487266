package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
)

// Writer persists datasets as CSV with a fixed header order.
type Writer struct {
	schema string
}

var _ ports.DatasetWriter = (*Writer)(nil)

// NewWriter builds a writer for one of the schema names.
func NewWriter(schema string) *Writer {
	if schema == "" {
		schema = SchemaAuto
	}
	return &Writer{schema: schema}
}

// Write replaces path with the dataset. The file is written next to path and
// renamed into place so a failed run never leaves a truncated CSV behind.
func (w *Writer) Write(dataset domain.EnrichedDataset, path string) error {
	columns := ColumnsFor(w.schema, dataset)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, dataset, columns); err != nil {
		tmp.Close()
		return &domain.IOError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	return nil
}

// Encode writes the header and one row per alert, in dataset order.
func Encode(out io.Writer, dataset domain.EnrichedDataset, columns []Column) error {
	w := csv.NewWriter(out)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = string(c)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for n, alert := range dataset {
		for i, c := range columns {
			row[i] = cell(alert, c)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", n+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
