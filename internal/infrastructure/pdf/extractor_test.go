package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlertTrack/internal/domain"
	"AlertTrack/internal/infrastructure/httpfetch"
)

// buildPDF writes a minimal PDF whose pages carry the given content streams.
func buildPDF(streams []string) []byte {
	n := len(streams)
	fontObj := 3 + 2*n

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := make([]string, n)
	for i := range streams {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, content := range streams {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func textStream(s string) string {
	return fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", s)
}

func serve(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractTextThreePagesWithEmptyMiddle(t *testing.T) {
	t.Parallel()

	doc := buildPDF([]string{textStream("First page advice"), "q Q", textStream("Third page summary")})
	srv := serve(t, doc)

	text, err := NewExtractor(httpfetch.New(time.Second, "", 0), nil).ExtractText(context.Background(), srv.URL+"/dsu.pdf")
	require.NoError(t, err)

	assert.Equal(t, "First page adviceThird page summary", text)
}

func TestExtractTextCorruptDocument(t *testing.T) {
	t.Parallel()

	srv := serve(t, []byte("this is not a pdf at all"))

	_, err := NewExtractor(httpfetch.New(time.Second, "", 0), nil).ExtractText(context.Background(), srv.URL)
	require.Error(t, err)

	var formatErr *domain.FormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestExtractTextDownloadFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewExtractor(httpfetch.New(time.Second, "", 0), nil).ExtractText(context.Background(), srv.URL)
	require.Error(t, err)

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
}
