package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/infrastructure/csvstore"
)

func TestListPrintsCSVDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	dataset := domain.EnrichedDataset{
		{
			AlertListingRecord: domain.AlertListingRecord{
				Title:       "Valproate: new safety measures",
				DetailURL:   "https://www.gov.uk/drug-safety-update/valproate",
				PublishDate: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			},
			AlertDetail: domain.AlertDetail{DocumentURL: "https://assets/valproate.pdf"},
		},
		{
			AlertListingRecord: domain.AlertListingRecord{Title: "Undated alert", DetailURL: "https://www.gov.uk/x"},
			AlertDetail:        domain.AlertDetail{ExtractionError: "timeout"},
		},
	}
	require.NoError(t, csvstore.NewWriter(csvstore.SchemaExtended).Write(dataset, path))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "--file", path})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "Valproate: new safety measures")
	assert.Contains(t, text, "2025-01-20")
	assert.Contains(t, text, "error")
}

func TestListMissingFile(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"list", "--file", filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, cmd.Execute())
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "alerttrack dev")
}

func TestSelectAlerts(t *testing.T) {
	dataset := domain.EnrichedDataset{
		{AlertListingRecord: domain.AlertListingRecord{Title: "a"}},
		{AlertListingRecord: domain.AlertListingRecord{Title: "b"}},
	}

	all, err := selectAlerts(dataset, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := selectAlerts(dataset, 2)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "b", one[0].Title)

	_, err = selectAlerts(dataset, 3)
	assert.Error(t, err)
	_, err = selectAlerts(dataset, -1)
	assert.Error(t, err)
}
