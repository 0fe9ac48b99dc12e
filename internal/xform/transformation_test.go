package xform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
)

func buildTransformations(t *testing.T) map[string]ImageTransformation {
	t.Helper()
	rect := geom.R(0, 0, 1200, 1800)

	plain := New(rect, domain.NewDpi(300))

	rotated := New(rect, domain.NewDpi(300))
	r90, err := geom.NewOrthogonalRotation(90)
	require.NoError(t, err)
	rotated.SetPreRotation(r90)

	anisotropic := New(rect, domain.Dpi{Horizontal: 200, Vertical: 400})

	skewed := New(rect, domain.NewDpi(300))
	skewed.SetPreCropArea(geom.R(0, 0, 600, 1800).ToPolygon())
	skewed.SetPostRotation(-3.7)

	full := New(rect, domain.Dpi{Horizontal: 300, Vertical: 600})
	r270, err := geom.NewOrthogonalRotation(270)
	require.NoError(t, err)
	full.SetPreRotation(r270)
	full.SetPreCropArea(geom.R(100, 50, 1500, 2000).ToPolygon())
	full.SetPostRotation(1.25)
	full.SetPostCropArea(geom.R(20, 30, 1400, 1900).ToPolygon().ShiftToRoundedOrigin())
	full.PostScaleToDpi(domain.NewDpi(600))

	return map[string]ImageTransformation{
		"plain":       plain,
		"rotated":     rotated,
		"anisotropic": anisotropic,
		"skewed":      skewed,
		"full":        full,
	}
}

func TestImageTransformation_Invertible(t *testing.T) {
	points := []geom.Point{{X: 0, Y: 0}, {X: 1199, Y: 0}, {X: 600, Y: 900}, {X: 13.25, Y: 1777.5}, {X: 1199, Y: 1799}}
	for name, xf := range buildTransformations(t) {
		t.Run(name, func(t *testing.T) {
			for _, p := range points {
				back := xf.TransformBack().Map(xf.Transform().Map(p))
				assert.InDelta(t, p.X, back.X, 1e-6)
				assert.InDelta(t, p.Y, back.Y, 1e-6)
			}
		})
	}
}

func TestImageTransformation_PreRotationSwapsResultingRect(t *testing.T) {
	xf := New(geom.R(0, 0, 100, 200), domain.NewDpi(300))
	r, err := geom.NewOrthogonalRotation(90)
	require.NoError(t, err)

	xf.SetPreRotation(r)

	assert.True(t, xf.ResultingRect().ApproxEqual(geom.R(0, 0, 200, 100), 1e-9))
}

func TestImageTransformation_UpstreamSetterResetsDownstream(t *testing.T) {
	xf := New(geom.R(0, 0, 100, 200), domain.NewDpi(300))
	xf.SetPostRotation(2)
	xf.SetPostCropArea(geom.R(10, 10, 50, 50).ToPolygon())
	xf.PostScaleToDpi(domain.NewDpi(600))

	xf.SetPreRotation(0)

	assert.Zero(t, xf.PostRotation())
	assert.False(t, xf.HasPostCropArea())
	assert.True(t, xf.PostScaledDpi().IsNull())
	assert.True(t, xf.ResultingRect().ApproxEqual(geom.R(0, 0, 100, 200), 1e-9))
}

func TestImageTransformation_PostRotationKeepsAreaAtOrigin(t *testing.T) {
	xf := New(geom.R(0, 0, 1000, 1000), domain.NewDpi(300))
	xf.SetPostRotation(10)

	rr := xf.ResultingRect()
	assert.InDelta(t, 0, rr.X, 1e-9)
	assert.InDelta(t, 0, rr.Y, 1e-9)
	assert.Greater(t, rr.W, 1000.0)
}

func TestImageTransformation_PostScaleDoublesSize(t *testing.T) {
	xf := New(geom.R(0, 0, 300, 600), domain.NewDpi(300))
	xf.PostScaleToDpi(domain.NewDpi(600))

	assert.True(t, xf.ResultingRect().ApproxEqual(geom.R(0, 0, 600, 1200), 1e-9))
}

func TestImageTransformation_AnisotropicDpiIsNormalized(t *testing.T) {
	xf := New(geom.R(0, 0, 100, 100), domain.Dpi{Horizontal: 200, Vertical: 400})

	assert.Equal(t, domain.NewDpi(400), xf.PreScaledDpi())
	assert.True(t, xf.ResultingRect().ApproxEqual(geom.R(0, 0, 200, 100), 1e-9))
}

func TestPhysSizeCalc_SizeMM(t *testing.T) {
	xf := New(geom.R(0, 0, 3000, 3000), domain.NewDpi(300))
	calc := NewPhysSizeCalc(xf)

	size := calc.SizeMM(geom.R(0, 0, 300, 600))

	assert.InDelta(t, 25.4, size.W, 1e-9)
	assert.InDelta(t, 50.8, size.H, 1e-9)
}
