package csvstore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlertTrack/internal/domain"
)

func sampleDataset() domain.EnrichedDataset {
	return domain.EnrichedDataset{
		{
			AlertListingRecord: domain.AlertListingRecord{
				Title:       "Valproate, new measures",
				DetailURL:   "https://www.gov.uk/drug-safety-update/valproate",
				PublishDate: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			},
			AlertDetail: domain.AlertDetail{
				DetailedContent: "# Valproate\n\n\"quoted\" advice",
				DocumentURL:     "https://assets.publishing.service.gov.uk/media/x/DSU.pdf",
			},
			DocumentText: "page one\npage three",
		},
		{
			AlertListingRecord: domain.AlertListingRecord{
				Title:     "Undated alert",
				DetailURL: "https://www.gov.uk/drug-safety-update/undated",
			},
			AlertDetail: domain.AlertDetail{ExtractionError: "extraction via markdown failed: timeout"},
		},
	}
}

func TestWriteMinimalHeaderAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, NewWriter(SchemaMinimal).Write(sampleDataset(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "publish_date,title,url,alert_pdf", lines[0])
	assert.Equal(t, `2025-01-20,"Valproate, new measures",https://www.gov.uk/drug-safety-update/valproate,https://assets.publishing.service.gov.uk/media/x/DSU.pdf`, lines[1])
	assert.Equal(t, ",Undated alert,https://www.gov.uk/drug-safety-update/undated,", lines[2])
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("old,content\n1,2\n3,4\n5,6\n"), 0o644))
	require.NoError(t, NewWriter(SchemaMinimal).Write(sampleDataset()[:1], path))

	dataset, _, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, dataset, 1)
}

func TestRoundTripExtended(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "data.csv")
	want := sampleDataset()
	require.NoError(t, NewWriter(SchemaAuto).Write(want, path))

	got, columns, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ExtendedColumns, columns)
	assert.Equal(t, want, got)
}

func TestRoundTripKeepsErrorSources(t *testing.T) {
	t.Parallel()

	want := domain.EnrichedDataset{
		{
			AlertListingRecord: domain.AlertListingRecord{Title: "PDF broke", DetailURL: "https://www.gov.uk/a"},
			AlertDetail:        domain.AlertDetail{DetailedContent: "advice", DocumentURL: "https://assets/a.pdf"},
			DocumentError:      "format error: cannot parse pdf: corrupt",
		},
		{
			AlertListingRecord: domain.AlertListingRecord{Title: "Both broke", DetailURL: "https://www.gov.uk/b"},
			AlertDetail:        domain.AlertDetail{ExtractionError: "timeout"},
			DocumentError:      "not found",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want, ExtendedColumns))
	assert.True(t, strings.HasPrefix(buf.String(), "publish_date,title,url,alert_pdf,detail,pdf_text,error,pdf_error\n"))

	got, _, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].ExtractionError)
	assert.Equal(t, want[0].DocumentError, got[0].DocumentError)
	assert.Equal(t, want, got)
}

func TestRoundTripEmptyDataset(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil, MinimalColumns))
	assert.Equal(t, "publish_date,title,url,alert_pdf\n", buf.String())

	got, columns, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, MinimalColumns, columns)
}

func TestColumnsFor(t *testing.T) {
	t.Parallel()

	minimalOnly := domain.EnrichedDataset{{AlertListingRecord: domain.AlertListingRecord{Title: "a", DetailURL: "https://x"}}}
	assert.Equal(t, MinimalColumns, ColumnsFor(SchemaAuto, minimalOnly))
	assert.Equal(t, ExtendedColumns, ColumnsFor(SchemaAuto, sampleDataset()))
	assert.Equal(t, MinimalColumns, ColumnsFor(SchemaMinimal, sampleDataset()))
	assert.Equal(t, ExtendedColumns, ColumnsFor(SchemaExtended, minimalOnly))
}

func TestDecodeSkipsBOMAndUnknownColumns(t *testing.T) {
	t.Parallel()

	in := "\xEF\xBB\xBFtitle,comment,url\nA,ignored,https://x\n"
	got, _, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "https://x", got[0].DetailURL)
}

func TestDecodeRejectsBadDate(t *testing.T) {
	t.Parallel()

	_, _, err := Decode(strings.NewReader("publish_date,title\n20/01/2025,A\n"))
	var formatErr *domain.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Contains(t, err.Error(), "row 2")
}

func TestWriteFailureIsIOError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewWriter(SchemaMinimal).Write(sampleDataset(), filepath.Join(blocker, "data.csv"))
	var ioErr *domain.IOError
	require.True(t, errors.As(err, &ioErr))
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := Read(filepath.Join(t.TempDir(), "absent.csv"))
	var ioErr *domain.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
