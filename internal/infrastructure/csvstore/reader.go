package csvstore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"AlertTrack/internal/domain"
)

// Read loads a dataset written by Writer. Unknown columns are ignored.
func Read(path string) (domain.EnrichedDataset, []Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &domain.IOError{Path: path, Err: err}
	}
	defer f.Close()

	dataset, columns, err := Decode(f)
	if err != nil {
		return nil, nil, &domain.IOError{Path: path, Err: err}
	}
	return dataset, columns, nil
}

// Decode parses CSV produced by Encode; a leading UTF-8 BOM is skipped.
func Decode(in io.Reader) (domain.EnrichedDataset, []Column, error) {
	br := bufio.NewReader(in)
	if bom, _ := br.Peek(3); len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	r := csv.NewReader(br)
	header, err := r.Read()
	if err != nil {
		return nil, nil, &domain.FormatError{What: "csv header", Err: err}
	}
	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column(strings.TrimSpace(h))
	}
	r.FieldsPerRecord = len(header)

	var dataset domain.EnrichedDataset
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &domain.FormatError{What: fmt.Sprintf("csv row %d", line), Err: err}
		}
		alert, err := decodeRow(columns, row)
		if err != nil {
			return nil, nil, &domain.FormatError{What: fmt.Sprintf("csv row %d", line), Err: err}
		}
		dataset = append(dataset, alert)
	}
	return dataset, columns, nil
}

func decodeRow(columns []Column, row []string) (domain.EnrichedAlert, error) {
	var a domain.EnrichedAlert
	for i, c := range columns {
		v := row[i]
		switch c {
		case ColumnPublishDate:
			if v == "" {
				continue
			}
			date, err := time.Parse(domain.DateLayout, v)
			if err != nil {
				return domain.EnrichedAlert{}, fmt.Errorf("publish_date %q: %w", v, err)
			}
			a.PublishDate = date
		case ColumnTitle:
			a.Title = v
		case ColumnURL:
			a.DetailURL = v
		case ColumnAlertPDF:
			a.DocumentURL = v
		case ColumnDetail:
			a.DetailedContent = v
		case ColumnPDFText:
			a.DocumentText = v
		case ColumnError:
			a.ExtractionError = v
		case ColumnPDFError:
			a.DocumentError = v
		}
	}
	return a, nil
}
