package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlertTrack/internal/domain"
)

type namedStrategy string

func (n namedStrategy) Name() string { return string(n) }

func (n namedStrategy) Extract(context.Context, string) (domain.AlertDetail, error) {
	return domain.AlertDetail{DetailedTitle: string(n)}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedStrategy("markdown"), nil, namedStrategy("document"))

	s, err := reg.Resolve("document")
	require.NoError(t, err)
	assert.Equal(t, "document", s.Name())

	_, err = reg.Resolve("pdfplumber")
	assert.ErrorContains(t, err, `"pdfplumber" is not registered`)

	assert.Equal(t, []string{"document", "markdown"}, reg.Names())
}

func TestRegisterReplaces(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(namedStrategy("html"))
	reg.Register(namedStrategy("html"))
	assert.Equal(t, []string{"html"}, reg.Names())
}
