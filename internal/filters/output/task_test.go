package output

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/filters/filterstest"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

type countingGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req Request) (*Rendition, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return DefaultGenerator{}.Generate(ctx, req)
}

type failingWriter struct{}

func (failingWriter) WriteImage(string, image.Image) (FileParams, error) {
	return FileParams{}, errors.New("disk full")
}

type observerRecorder struct {
	paths  []string
	reused []bool
}

func (o *observerRecorder) OutputWritten(_ domain.PageID, path string, reused bool) {
	o.paths = append(o.paths, path)
	o.reused = append(o.reused, reused)
}

func testParams() Params {
	p := DefaultParams()
	p.OutputDpi = domain.NewDpi(300)
	return p
}

type fixture struct {
	pageID  domain.PageID
	ids     filterstest.IDs
	dir     string
	names   FileNameGenerator
	store   *Settings
	gen     *countingGenerator
	obs     *observerRecorder
	data    filters.FilterData
	content geom.Polygon
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pageID, ids := filterstest.SinglePage("/scans/page.png")
	dir := t.TempDir()
	return &fixture{
		pageID:  pageID,
		ids:     ids,
		dir:     dir,
		names:   NewFileNameGenerator(dir),
		store:   NewSettings(testParams()),
		gen:     &countingGenerator{},
		obs:     &observerRecorder{},
		data:    filterstest.Data(200, 300, 20),
		content: geom.R(20, 20, 160, 260).ToPolygon(),
	}
}

func (f *fixture) run(t *testing.T, writer ImageWriter) error {
	t.Helper()
	task := NewTask(f.pageID, f.store, f.names, f.gen, writer, f.obs, observability.Nop())
	return task.Process(context.Background(), f.data, f.content)
}

func TestTask_WritesThenReuses(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, nil))
	out := filepath.Join(f.dir, "page.tif")
	assert.FileExists(t, out)
	assert.True(t, readableTIFF(out, image.Pt(200, 300)))

	require.NoError(t, f.run(t, nil))
	assert.Equal(t, 1, f.gen.calls)
	assert.Equal(t, []bool{false, true}, f.obs.reused)
	assert.Equal(t, []string{out, out}, f.obs.paths)
}

func TestTask_DespeckleChangeForcesRerender(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, nil))

	p := testParams()
	p.Despeckle = DespeckleNormal
	f.store.SetDefaults(p)
	require.NoError(t, f.run(t, nil))

	assert.Equal(t, 2, f.gen.calls)
	assert.FileExists(t, f.names.PathFor(SpecklesFile, f.pageID))

	f.store.SetDefaults(testParams())
	require.NoError(t, f.run(t, nil))
	assert.Equal(t, 3, f.gen.calls)
	assert.NoFileExists(t, f.names.PathFor(SpecklesFile, f.pageID))
}

func TestTask_ModifiedFileForcesRerender(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, nil))

	require.NoError(t, os.WriteFile(f.names.FilePathFor(f.pageID), []byte("not a tiff"), 0o644))
	require.NoError(t, f.run(t, nil))

	assert.Equal(t, 2, f.gen.calls)
	assert.True(t, readableTIFF(f.names.FilePathFor(f.pageID), image.Pt(200, 300)))
}

func TestTask_SinglePageRemovesSplitPageFiles(t *testing.T) {
	f := newFixture(t)
	left := domain.NewPageID(f.pageID.Image, domain.LeftPage)
	right := domain.NewPageID(f.pageID.Image, domain.RightPage)
	for _, id := range []domain.PageID{left, right} {
		require.NoError(t, os.WriteFile(f.names.FilePathFor(id), []byte("stale"), 0o644))
	}
	f.store.SetResult(left, Result{})

	require.NoError(t, f.run(t, nil))

	assert.NoFileExists(t, f.names.FilePathFor(left))
	assert.NoFileExists(t, f.names.FilePathFor(right))
	assert.FileExists(t, f.names.FilePathFor(f.pageID))
	_, ok := f.store.Result(left)
	assert.False(t, ok)
}

func TestTask_SplitPageRemovesSinglePageFile(t *testing.T) {
	f := newFixture(t)
	single := f.pageID
	require.NoError(t, os.WriteFile(f.names.FilePathFor(single), []byte("stale"), 0o644))

	f.pageID = domain.NewPageID(single.Image, domain.RightPage)
	require.NoError(t, f.run(t, nil))

	assert.NoFileExists(t, f.names.FilePathFor(single))
	assert.FileExists(t, filepath.Join(f.dir, "page_2R.tif"))
}

func TestTask_WriteFailureInvalidatesResult(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, nil))
	_, ok := f.store.Result(f.pageID)
	require.True(t, ok)

	p := testParams()
	p.ColorParams.BlackWhite.ThresholdAdjustment = 10
	f.store.SetDefaults(p)
	err := f.run(t, failingWriter{})

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
	_, ok = f.store.Result(f.pageID)
	assert.False(t, ok)
}

func TestTask_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTask(f.pageID, f.store, f.names, f.gen, nil, nil, observability.Nop()).Process(ctx, f.data, f.content)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 0, f.gen.calls)
	assert.NoFileExists(t, f.names.FilePathFor(f.pageID))
}

func TestTask_MixedModeWritesLayers(t *testing.T) {
	f := newFixture(t)
	p := testParams()
	p.ColorParams.ColorMode = Mixed
	f.store.SetDefaults(p)

	require.NoError(t, f.run(t, nil))

	for _, kind := range []FileKind{MainFile, ForegroundFile, BackgroundFile, OriginalBackgroundFile, AutomaskFile} {
		assert.FileExists(t, f.names.PathFor(kind, f.pageID), kind)
	}
	result, ok := f.store.Result(f.pageID)
	require.True(t, ok)
	assert.Len(t, result.Files, 5)

	require.NoError(t, f.run(t, nil))
	assert.Equal(t, 1, f.gen.calls)
}

func TestTask_PictureZoneChangeForcesRerender(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, nil))

	f.store.SetPictureZones(f.pageID, PictureZones{{Area: geom.R(0, 0, 50, 50).ToPolygon(), Layer: ZoneBackground}})
	require.NoError(t, f.run(t, nil))

	assert.Equal(t, 2, f.gen.calls)
}

func TestFileNameGenerator(t *testing.T) {
	names := NewFileNameGenerator("/out")
	single := domain.NewPageID(domain.NewImageID("/in/scan.png", 0), domain.SinglePage)
	left := domain.NewPageID(domain.NewImageID("/in/scan.png", 0), domain.LeftPage)
	pdfRight := domain.NewPageID(domain.NewImageID("/in/book.pdf", 2), domain.RightPage)

	assert.Equal(t, "scan.tif", names.FileNameFor(single))
	assert.Equal(t, "scan_1L.tif", names.FileNameFor(left))
	assert.Equal(t, "book_0003_2R.tif", names.FileNameFor(pdfRight))
	assert.Equal(t, filepath.Join("/out", "cache", "speckles", "scan.tif"), names.PathFor(SpecklesFile, single))
}

func TestImageParams_Matches(t *testing.T) {
	f := newFixture(t)
	xf := f.data.Xform()
	base := NewImageParams(testParams(), xf, image.Rect(0, 0, 10, 10), true)

	assert.True(t, base.Matches(base))

	other := base
	other.Despeckle = DespeckleCautious
	assert.False(t, base.Matches(other))

	other = base
	other.BlackOnWhite = false
	assert.False(t, base.Matches(other))

	xf.SetPostRotation(0.5)
	assert.False(t, base.Matches(NewImageParams(testParams(), xf, image.Rect(0, 0, 10, 10), true)))
}

func TestExpectedFiles(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, []FileKind{MainFile}, expectedFiles(p))

	p.ColorParams.ColorMode = Mixed
	p.Despeckle = DespeckleCautious
	assert.Equal(t, []FileKind{MainFile, ForegroundFile, BackgroundFile, OriginalBackgroundFile, AutomaskFile, SpecklesFile}, expectedFiles(p))

	p.ColorParams.ColorMode = ColorGrayscale
	assert.Equal(t, []FileKind{MainFile}, expectedFiles(p))
}

func TestProjectXML(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, nil))

	el := f.store.ProjectXML(f.ids)
	require.Len(t, el.Pages, 1)
	page := el.Pages[0]
	assert.Equal(t, 2, page.ID)
	assert.Equal(t, "black_and_white", page.Params.ColorParams.ColorMode)
	assert.Equal(t, "otsu", page.Params.ColorParams.BlackWhite.Method)
	require.NotNil(t, page.OutputParams)
	assert.Equal(t, 200, page.OutputParams.Image.Width)
	require.Len(t, page.OutputParams.Files, 1)
	assert.Equal(t, "output", page.OutputParams.Files[0].Kind)
}
