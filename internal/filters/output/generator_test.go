package output

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/filters/filterstest"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

func TestDefaultGenerator_BlackAndWhite(t *testing.T) {
	data := filterstest.Data(100, 120, 20)
	r, err := DefaultGenerator{}.Generate(context.Background(), Request{
		Data:        data,
		ContentRect: image.Rect(20, 20, 80, 100),
		Params:      testParams(),
	})
	require.NoError(t, err)

	g, ok := r.Image.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 100, 120), g.Rect)
	assert.Equal(t, uint8(0), g.GrayAt(50, 20).Y)
	assert.Equal(t, uint8(0xFF), g.GrayAt(50, 23).Y)
	assert.Equal(t, uint8(0xFF), g.GrayAt(5, 5).Y)
	assert.Nil(t, r.Foreground)
	assert.Nil(t, r.Automask)
}

func TestDefaultGenerator_FillZonePaintsArea(t *testing.T) {
	p := testParams()
	p.ColorParams.ColorMode = ColorGrayscale
	r, err := DefaultGenerator{}.Generate(context.Background(), Request{
		Data:        filterstest.Data(100, 120, 20),
		ContentRect: image.Rect(0, 0, 100, 120),
		Params:      p,
		FillZones:   FillZones{{Area: geom.R(30, 30, 20, 20).ToPolygon(), Color: whiteRGBA}},
	})
	require.NoError(t, err)

	g := r.Image.(*image.Gray)
	assert.Equal(t, uint8(0xFF), g.GrayAt(40, 38).Y)
	assert.Equal(t, uint8(0x20), g.GrayAt(60, 38).Y)
}

func TestDefaultGenerator_FillsMarginsWithBackground(t *testing.T) {
	p := testParams()
	p.ColorParams.ColorMode = ColorGrayscale
	r, err := DefaultGenerator{}.Generate(context.Background(), Request{
		Data:        filterstest.Data(100, 120, 0),
		ContentRect: image.Rect(20, 20, 80, 100),
		Params:      p,
	})
	require.NoError(t, err)

	g := r.Image.(*image.Gray)
	assert.Equal(t, uint8(0xF0), g.GrayAt(5, 0).Y)
	assert.Equal(t, uint8(0x20), g.GrayAt(30, 24).Y)
}

var whiteRGBA = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

func TestPosterize(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 1))
	g.Pix = []uint8{10, 120, 250}
	out := posterize(g, PosterizationOptions{Enabled: true, Level: 2}).(*image.Gray)
	assert.Equal(t, []uint8{0, 0, 255}, out.Pix)
}

func TestDewarp_FlatModelIsIdentity(t *testing.T) {
	g := filterstest.Page(80, 60, 10)
	model := DistortionModel{
		Top:    geom.Polygon{geom.Pt(10, 10), geom.Pt(40, 10), geom.Pt(70, 10)},
		Bottom: geom.Polygon{geom.Pt(10, 50), geom.Pt(40, 50), geom.Pt(70, 50)},
	}
	require.True(t, model.IsValid())
	out := dewarpGray(g, model, DefaultDepthPerception)
	assert.Equal(t, g.Pix, out.Pix)
}

func TestDewarp_StraightensCurvedTop(t *testing.T) {
	// The top line sags by 4 pixels in the middle.
	model := DistortionModel{
		Top:    geom.Polygon{geom.Pt(0, 10), geom.Pt(50, 14), geom.Pt(100, 10)},
		Bottom: geom.Polygon{geom.Pt(0, 90), geom.Pt(100, 90)},
	}
	d := newDewarper(model, MinDepthPerception)
	x, y := d.source(50, 10)
	assert.InDelta(t, 50, x, 1e-9)
	assert.InDelta(t, 14, y, 1e-9)
	_, y = d.source(50, 90)
	assert.InDelta(t, 90, y, 1e-9)
}

func TestEstimateDistortionModel_FlatText(t *testing.T) {
	g := filterstest.Page(240, 200, 20)
	m := EstimateDistortionModel(g, image.Rect(20, 20, 220, 180))
	require.True(t, m.IsValid())
	for _, p := range m.Top {
		assert.InDelta(t, 20, p.Y, 1e-9)
	}
}

func TestDetectPictures(t *testing.T) {
	opts := PictureShapeOptions{Shape: PictureShapeFree, Sensitivity: 100}

	t.Run("blank page", func(t *testing.T) {
		g := image.NewGray(image.Rect(0, 0, 600, 800))
		imageproc.FillGray(g, g.Rect, 0xFF)

		mask := detectPictures(g, opts, 300)

		assert.Equal(t, 0, mask.CountBlack())
	})

	t.Run("halftone block", func(t *testing.T) {
		g := image.NewGray(image.Rect(0, 0, 600, 800))
		imageproc.FillGray(g, g.Rect, 0xFF)
		imageproc.FillGray(g, image.Rect(200, 300, 400, 500), 128)

		mask := detectPictures(g, opts, 300)

		assert.True(t, mask.Black(300, 400))
		assert.False(t, mask.Black(0, 0))
		assert.False(t, mask.Black(599, 799))
	})
}
