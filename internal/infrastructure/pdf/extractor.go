package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/ports"
)

// Downloader fetches a URL body; *httpfetch.Client satisfies it.
type Downloader interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Extractor downloads a PDF and extracts its text page by page.
type Extractor struct {
	downloader Downloader
	logger     *slog.Logger
}

var _ ports.DocumentExtractor = (*Extractor)(nil)

// NewExtractor wires a downloader.
func NewExtractor(downloader Downloader, logger *slog.Logger) *Extractor {
	return &Extractor{downloader: downloader, logger: logger}
}

// ExtractText concatenates the raw text of every page in order. A page that
// fails or has no text contributes an empty string.
func (e *Extractor) ExtractText(ctx context.Context, documentURL string) (string, error) {
	body, err := e.downloader.Get(ctx, documentURL)
	if err != nil {
		return "", fmt.Errorf("download document: %w", err)
	}

	pages, err := e.pageTexts(body)
	if err != nil {
		return "", &domain.FormatError{What: "pdf " + documentURL, Err: err}
	}

	e.debug("document extracted", "url", documentURL, "pages", len(pages), "bytes", len(body))
	return strings.Join(pages, ""), nil
}

// pageTexts opens the document and reads each page. Only failing to open the
// document at all is an error.
func (e *Extractor) pageTexts(data []byte) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("corrupt document: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, e.pageText(reader, i))
	}
	return pages, nil
}

func (e *Extractor) pageText(reader *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			e.debug("page extraction panicked", "page", num, "panic", rec)
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.debug("page extraction failed", "page", num, "error", err)
		return ""
	}
	return text
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
