package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for persisted publish dates.
const DateLayout = "2006-01-02"

// AlertListingRecord is one entry from the alert index page.
type AlertListingRecord struct {
	Title       string
	DetailURL   string
	PublishDate time.Time
}

// HasPublishDate reports whether the listing carried a parseable date.
func (r AlertListingRecord) HasPublishDate() bool {
	return !r.PublishDate.IsZero()
}

// FormattedDate returns the ISO calendar date or an empty string.
func (r AlertListingRecord) FormattedDate() string {
	if !r.HasPublishDate() {
		return ""
	}
	return r.PublishDate.Format(DateLayout)
}

// AlertDetail is the enrichment result for one listing record.
// Empty strings mean the value is absent.
type AlertDetail struct {
	DetailedTitle   string
	DetailedContent string
	DocumentURL     string
	ExtractionError string
}

// Empty reports whether no content field is populated.
func (d AlertDetail) Empty() bool {
	return d.DetailedTitle == "" && d.DetailedContent == "" && d.DocumentURL == ""
}

// Failed reports whether the extraction ended with an annotated error.
func (d AlertDetail) Failed() bool {
	return d.ExtractionError != ""
}

// FailedDetail builds the soft-failure outcome of an extraction.
func FailedDetail(err error) AlertDetail {
	msg := "extraction failed"
	if err != nil {
		msg = err.Error()
	}
	return AlertDetail{ExtractionError: msg}
}

// EnrichedAlert joins a listing record with its detail and optional document text.
type EnrichedAlert struct {
	AlertListingRecord
	AlertDetail
	DocumentText  string
	DocumentError string
}

// Errors joins every error annotation carried by the row.
func (a EnrichedAlert) Errors() string {
	var parts []string
	if a.ExtractionError != "" {
		parts = append(parts, a.ExtractionError)
	}
	if a.DocumentError != "" {
		parts = append(parts, a.DocumentError)
	}
	return strings.Join(parts, "; ")
}

// SummaryText picks the richest text available for summarization.
func (a EnrichedAlert) SummaryText() string {
	if strings.TrimSpace(a.DocumentText) != "" {
		return a.DocumentText
	}
	return a.DetailedContent
}

// EnrichedDataset keeps alerts in listing order (top to bottom).
type EnrichedDataset []EnrichedAlert

// Failures counts rows carrying any error annotation.
func (d EnrichedDataset) Failures() int {
	var n int
	for _, a := range d {
		if a.Errors() != "" {
			n++
		}
	}
	return n
}

// RunInfo identifies one pipeline execution.
type RunInfo struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Failures   int
}
