package imageio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

// TestLoader_PDF runs against a real document named by SCANTAILOR_TEST_PDF.
func TestLoader_PDF(t *testing.T) {
	path := os.Getenv("SCANTAILOR_TEST_PDF")
	if path == "" {
		t.Skip("SCANTAILOR_TEST_PDF not set")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("Sample PDF not found at %s", path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	loader := NewLoader(150)
	metas, err := loader.Metadata(ctx, path)
	require.NoError(t, err)
	require.NotEmpty(t, metas)

	last := len(metas) - 1
	img, meta, err := loader.Load(ctx, domain.NewImageID(path, last))
	require.NoError(t, err)

	assert.Equal(t, domain.NewDpi(150), meta.Dpi)
	assert.InDelta(t, metas[last].Width, img.Bounds().Dx(), 1)
	assert.InDelta(t, metas[last].Height, img.Bounds().Dy(), 1)

	_, _, err = loader.Load(ctx, domain.NewImageID(path, len(metas)))
	assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
}
