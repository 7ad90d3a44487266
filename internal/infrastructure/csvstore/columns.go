package csvstore

import "AlertTrack/internal/domain"

// Column is a CSV header name.
type Column string

// Persisted columns.
const (
	ColumnPublishDate Column = "publish_date"
	ColumnTitle       Column = "title"
	ColumnURL         Column = "url"
	ColumnAlertPDF    Column = "alert_pdf"
	ColumnDetail      Column = "detail"
	ColumnPDFText     Column = "pdf_text"
	ColumnError       Column = "error"
	ColumnPDFError    Column = "pdf_error"
)

// MinimalColumns is the contract read by the dashboard.
var MinimalColumns = []Column{ColumnPublishDate, ColumnTitle, ColumnURL, ColumnAlertPDF}

// ExtendedColumns adds the enrichment payload and error annotations. Detail
// extraction and document errors keep separate columns so a round trip
// attributes each to its source.
var ExtendedColumns = []Column{ColumnPublishDate, ColumnTitle, ColumnURL, ColumnAlertPDF, ColumnDetail, ColumnPDFText, ColumnError, ColumnPDFError}

// Schema names accepted by ColumnsFor.
const (
	SchemaAuto     = "auto"
	SchemaMinimal  = "minimal"
	SchemaExtended = "extended"
)

// ColumnsFor picks the column set for a schema. Auto uses the extended set
// as soon as any row carries detail content, document text or an error.
func ColumnsFor(schema string, dataset domain.EnrichedDataset) []Column {
	switch schema {
	case SchemaMinimal:
		return MinimalColumns
	case SchemaExtended:
		return ExtendedColumns
	}
	for _, a := range dataset {
		if a.DetailedContent != "" || a.DocumentText != "" || a.Errors() != "" {
			return ExtendedColumns
		}
	}
	return MinimalColumns
}

func cell(a domain.EnrichedAlert, c Column) string {
	switch c {
	case ColumnPublishDate:
		return a.FormattedDate()
	case ColumnTitle:
		return a.Title
	case ColumnURL:
		return a.DetailURL
	case ColumnAlertPDF:
		return a.DocumentURL
	case ColumnDetail:
		return a.DetailedContent
	case ColumnPDFText:
		return a.DocumentText
	case ColumnError:
		return a.ExtractionError
	case ColumnPDFError:
		return a.DocumentError
	default:
		return ""
	}
}
