package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/deskew"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/filters/pagesplit"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/project"
)

var (
	imageA = domain.NewImageID("/scans/a.png", 0)
	imageB = domain.NewImageID("/scans/b.pdf", 3)
)

func newProject() (*project.Pages, *project.Stores) {
	pages := project.NewPages([]project.ImageInfo{
		{ID: imageA, Metadata: domain.ImageMetadata{Width: 100, Height: 200, Dpi: domain.NewDpi(300)}},
		{ID: imageB, Metadata: domain.ImageMetadata{Width: 200, Height: 100, Dpi: domain.NewDpi(300)}},
	})
	return pages, project.NewStores(project.DefaultStoreOptions())
}

func populate(pages *project.Pages, stores *project.Stores) {
	left := domain.NewPageID(imageB, domain.LeftPage)
	single := domain.NewPageID(imageA, domain.SinglePage)

	pages.SetLayoutTypeFor(imageB, domain.TwoPageLayout)
	stores.Images.Set(single, imageproc.BinarizationParams{Threshold: 120, BlackOnWhite: true})
	stores.Images.SetForImage(imageB, imageproc.BinarizationParams{Threshold: 90, BlackOnWhite: true})
	stores.FixOrientation.ApplyRotation(imageA, geom.OrthogonalRotation(90))
	stores.PageSplit.UpdatePage(imageB, pagesplit.UpdateAction{}.SetLayoutType(pagesplit.TwoPages))
	stores.Deskew.Set(single, deskew.Params{Angle: 1.25, Mode: domain.ModeManual})
	stores.Deskew.Set(single, deskew.Params{Angle: 1.5, Mode: domain.ModeManual})
	stores.Output.SetResult(left, output.Result{
		Image: output.ImageParams{Dpi: domain.NewDpi(600), Despeckle: output.DespeckleNormal},
		Files: map[output.FileKind]output.FileParams{output.MainFile: {Size: 42, ModTime: 7}},
	})
}

func assertRestored(t *testing.T, pages *project.Pages, stores *project.Stores) {
	t.Helper()
	single := domain.NewPageID(imageA, domain.SinglePage)
	left := domain.NewPageID(imageB, domain.LeftPage)

	assert.Equal(t, domain.TwoPageLayout, pages.LayoutOf(imageB))
	assert.Equal(t, domain.OnePageLayout, pages.LayoutOf(imageA))

	bin, ok := stores.Images.Get(single)
	require.True(t, ok)
	assert.Equal(t, uint8(120), bin.Threshold)
	whole, ok := stores.Images.ForImage(imageB)
	require.True(t, ok)
	assert.Equal(t, uint8(90), whole.Threshold)

	assert.Equal(t, geom.OrthogonalRotation(90), stores.FixOrientation.RotationFor(imageA))

	rec, _ := stores.PageSplit.PageRecord(imageB)
	assert.Equal(t, pagesplit.TwoPages, rec.CombinedLayoutType())

	p, ok := stores.Deskew.Get(single)
	require.True(t, ok)
	assert.Equal(t, 1.5, p.Angle)
	assert.Equal(t, domain.ModeManual, p.Mode)

	res, ok := stores.Output.Result(left)
	require.True(t, ok)
	assert.Equal(t, output.DespeckleNormal, res.Image.Despeckle)
	assert.Equal(t, int64(42), res.Files[output.MainFile].Size)
}

func testBackendRoundTrip(t *testing.T, backend Backend, outDir string) {
	t.Helper()
	ctx := context.Background()

	pages, stores := newProject()
	populate(pages, stores)
	require.NoError(t, NewManager(backend, outDir, observability.Nop()).Save(ctx, "run-1", pages, stores))

	restoredPages, restoredStores := newProject()
	found, err := NewManager(backend, outDir, observability.Nop()).Load(ctx, restoredPages, restoredStores)
	require.NoError(t, err)
	require.True(t, found)
	assertRestored(t, restoredPages, restoredStores)
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	outDir := t.TempDir()
	backend, err := Open(context.Background(), Config{Driver: DriverSQLite}, outDir, observability.Nop())
	require.NoError(t, err)
	defer backend.Close()

	testBackendRoundTrip(t, backend, outDir)
	assert.FileExists(t, filepath.Join(outDir, "cache", "state.db"))
}

func TestSQLiteBackend_OverwritesProject(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Save(ctx, "p", []byte("one")))
	require.NoError(t, backend.Save(ctx, "p", []byte("two")))
	data, err := backend.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	_, err = backend.Load(ctx, "other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileBackend_RoundTrip(t *testing.T) {
	outDir := t.TempDir()
	backend, err := Open(context.Background(), Config{Driver: DriverFile}, outDir, observability.Nop())
	require.NoError(t, err)

	testBackendRoundTrip(t, backend, outDir)
	assert.FileExists(t, filepath.Join(outDir, "cache", "state.json"))
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	addr := os.Getenv("SCANTAILOR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCANTAILOR_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	backend, err := NewRedisBackend(ctx, RedisConfig{Addr: addr, Prefix: "scantailor:test:"})
	require.NoError(t, err)
	defer backend.Close()

	outDir := t.TempDir()
	testBackendRoundTrip(t, backend, outDir)

	abs, err := filepath.Abs(outDir)
	require.NoError(t, err)
	require.NoError(t, backend.Delete(ctx, abs))
}

func TestManager_Load(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		data  string
		found bool
	}{
		{"missing", "", false},
		{"unreadable", "{not json", false},
		{"other version", `{"version": 99}`, false},
		{"empty snapshot", `{"version": 1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if tt.data != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
			}
			pages, stores := newProject()
			found, err := NewManager(NewFileBackend(path), "out", observability.Nop()).Load(ctx, pages, stores)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
		})
	}
}

func TestOpen(t *testing.T) {
	backend, err := Open(context.Background(), Config{Driver: DriverNone}, t.TempDir(), observability.Nop())
	require.NoError(t, err)
	assert.Nil(t, backend)

	_, err = Open(context.Background(), Config{Driver: "etcd"}, t.TempDir(), observability.Nop())
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))

	assert.True(t, ValidDriver(DriverRedis))
	assert.False(t, ValidDriver("etcd"))
}

func TestCapture_SkipsSinglePageLayouts(t *testing.T) {
	pages, stores := newProject()
	populate(pages, stores)

	snap := Capture("run", "out", pages, stores)

	assert.Equal(t, []LayoutRecord{{Image: imageB, Layout: domain.TwoPageLayout}}, snap.Layouts)
	assert.Equal(t, snapshotVersion, snap.Version)
	assert.Len(t, snap.Deskew, 1)
}
