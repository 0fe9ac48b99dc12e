package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

type staticMetadata map[string][]domain.ImageMetadata

func (m staticMetadata) Metadata(_ context.Context, path string) ([]domain.ImageMetadata, error) {
	return m[filepath.Base(path)], nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestCollectImages_OrderAndPages(t *testing.T) {
	dir := t.TempDir()
	paths := []string{touch(t, dir, "scan10.png"), touch(t, dir, "scan2.png"), touch(t, dir, "book.pdf")}
	meta := domain.ImageMetadata{Width: 10, Height: 10, Dpi: domain.NewDpi(300)}
	loader := staticMetadata{
		"scan10.png": {meta},
		"scan2.png":  {meta},
		"book.pdf":   {meta, meta},
	}

	images, err := CollectImages(context.Background(), loader, paths, InputOptions{}, observability.Nop())
	require.NoError(t, err)

	var ids []string
	for _, img := range images {
		ids = append(ids, img.ID.String())
	}
	assert.Equal(t, []string{"book.pdf#0", "book.pdf#1", "scan2.png#0", "scan10.png#0"}, ids)
}

func TestCollectImages_Dpi(t *testing.T) {
	low := domain.ImageMetadata{Width: 10, Height: 10, Dpi: domain.NewDpi(72)}
	good := domain.ImageMetadata{Width: 10, Height: 10, Dpi: domain.NewDpi(400)}
	custom := domain.NewDpi(300)

	tests := []struct {
		name string
		meta domain.ImageMetadata
		opts InputOptions
		want domain.Dpi
	}{
		{"out of range kept without custom dpi", low, InputOptions{}, domain.NewDpi(72)},
		{"out of range replaced by custom dpi", low, InputOptions{CustomDpi: custom}, custom},
		{"valid dpi kept", good, InputOptions{CustomDpi: custom}, domain.NewDpi(400)},
		{"forced dpi", good, InputOptions{CustomDpi: custom, ForceDpi: true}, custom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := touch(t, t.TempDir(), "a.png")
			images, err := CollectImages(context.Background(), staticMetadata{"a.png": {tt.meta}}, []string{path}, tt.opts, observability.Nop())
			require.NoError(t, err)
			require.Len(t, images, 1)
			assert.Equal(t, tt.want, images[0].Metadata.Dpi)
		})
	}
}

func TestCollectImages_Failures(t *testing.T) {
	dir := t.TempDir()
	_, err := CollectImages(context.Background(), staticMetadata{}, nil, InputOptions{}, observability.Nop())
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = CollectImages(context.Background(), staticMetadata{}, []string{filepath.Join(dir, "missing.png")}, InputOptions{}, observability.Nop())
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	unreadable := touch(t, dir, "unreadable.png")
	_, err = CollectImages(context.Background(), staticMetadata{}, []string{unreadable}, InputOptions{}, observability.Nop())
	assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
}
