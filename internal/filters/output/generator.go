package output

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

// Request is the input of one output generation. The transformation of Data
// must already be scaled to the output resolution.
type Request struct {
	Data         filters.FilterData
	ContentRect  image.Rectangle
	Params       Params
	PictureZones PictureZones
	FillZones    FillZones
}

// Rendition holds every image produced for a page. Layers that do not apply
// to the requested mode are nil.
type Rendition struct {
	Image              image.Image
	Foreground         image.Image
	Background         image.Image
	OriginalBackground image.Image
	Automask           *imageproc.BinaryImage
	Speckles           *imageproc.BinaryImage
	DistortionModel    DistortionModel
}

// Generator renders output images.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Rendition, error)
}

// DefaultGenerator renders the page through its transformation and applies
// the color mode of the params.
type DefaultGenerator struct{}

func (DefaultGenerator) Generate(ctx context.Context, req Request) (*Rendition, error) {
	data := req.Data
	p := req.Params
	xf := data.Xform()
	rr := xf.ResultingRect()
	w, h := int(math.Ceil(rr.W)), int(math.Ceil(rr.H))
	toOut := xf.Transform().Then(geom.Translation(-rr.X, -rr.Y))
	dpi := xf.PostScaledDpi()
	if dpi.IsNull() {
		dpi = domain.NewDpi(DefaultOutputDpi)
	}

	gray := imageproc.RenderGray(data.GrayImageBlackOnWhite(), toOut, w, h, 0xFF)
	var rgba *image.RGBA
	if p.ColorParams.ColorMode != BlackAndWhite && !isGrayscale(data.OrigImage()) {
		rgba = imageproc.RenderRGBA(data.OrigImage(), toOut, w, h, color.White)
	}

	crop := imageproc.PolygonMask(w, h, xf.ResultingPostCropArea().Translated(-rr.X, -rr.Y))
	content := req.ContentRect.Intersect(gray.Rect)
	bg := uint8(0xFF)
	if p.ColorParams.ColorCommon.FillingColor == FillBackground {
		bg = backgroundLevel(gray, content)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			outside := !crop.Black(x, y)
			margin := p.ColorParams.ColorCommon.FillMargins && !image.Pt(x, y).In(content)
			if outside || margin {
				v := bg
				if outside {
					v = 0xFF
				}
				gray.Pix[y*gray.Stride+x] = v
				if rgba != nil {
					rgba.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xFF})
				}
			}
		}
	}
	if err := domain.CheckCancelled(ctx); err != nil {
		return nil, err
	}

	out := &Rendition{}
	if p.Dewarping.Mode != DewarpingOff {
		model := p.DistortionModel
		if !model.IsValid() && p.Dewarping.Mode != DewarpingManual {
			model = EstimateDistortionModel(gray, content)
		}
		if model.IsValid() {
			gray = dewarpGray(gray, model, p.DepthPerception)
			if rgba != nil {
				rgba = dewarpRGBA(rgba, model, p.DepthPerception)
			}
			out.DistortionModel = model
		}
	}

	for _, z := range req.FillZones {
		mask := imageproc.PolygonMask(w, h, z.Area)
		y := color.GrayModel.Convert(z.Color).(color.Gray).Y
		for py := 0; py < h; py++ {
			for px := 0; px < w; px++ {
				if !mask.Black(px, py) {
					continue
				}
				gray.Pix[py*gray.Stride+px] = y
				if rgba != nil {
					rgba.SetRGBA(px, py, z.Color)
				}
			}
		}
	}
	if err := domain.CheckCancelled(ctx); err != nil {
		return nil, err
	}

	var colorLayer image.Image = gray
	if rgba != nil {
		colorLayer = rgba
	}

	switch {
	case p.ColorParams.ColorMode == BlackAndWhite ||
		(p.ColorParams.ColorMode == ColorGrayscale && p.ColorParams.ColorCommon.Posterization.ForceBlackAndWhite):
		bw := binarize(gray, p.ColorParams.BlackWhite)
		out.Speckles = imageproc.Despeckle(bw, float64(p.Despeckle), dpi.Horizontal)
		out.Image = bw.ToGray()

	case p.ColorParams.ColorMode == ColorGrayscale:
		if p.ColorParams.ColorCommon.Posterization.Enabled {
			colorLayer = posterize(colorLayer, p.ColorParams.ColorCommon.Posterization)
		}
		out.Image = colorLayer

	default:
		mask := imageproc.NewBinaryImage(w, h)
		if p.PictureShape.Shape != PictureShapeOff {
			mask = detectPictures(gray, p.PictureShape, dpi.Horizontal)
		}
		applyPictureZones(mask, req.PictureZones)
		out.Automask = mask

		bw := binarize(gray, p.ColorParams.BlackWhite)
		bw.Subtract(mask)
		out.Speckles = imageproc.Despeckle(bw, float64(p.Despeckle), dpi.Horizontal)

		out.Image = composite(bw, colorLayer, mask)
		if p.SplitsOutput() {
			if p.Splitting.Mode == ColorForeground {
				out.Foreground = composite(imageproc.NewBinaryImage(w, h), colorLayer, bw)
			} else {
				out.Foreground = bw.ToGray()
			}
			out.Background = composite(imageproc.NewBinaryImage(w, h), colorLayer, mask)
			if p.WritesOriginalBackground() {
				out.OriginalBackground = colorLayer
			}
		}
	}
	return out, domain.CheckCancelled(ctx)
}

func isGrayscale(img image.Image) bool {
	switch t := img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	case *image.Paletted:
		return imageproc.IsGrayPalette(t.Palette)
	}
	return false
}

func binarize(g *image.Gray, o BlackWhiteOptions) *imageproc.BinaryImage {
	switch o.Method {
	case Sauvola:
		return imageproc.BinarizeSauvola(g, o.WindowSize, o.SauvolaK, o.ThresholdAdjustment)
	case Wolf:
		return imageproc.BinarizeWolf(g, o.WindowSize, o.WolfLowerBound, o.WolfUpperBound, o.WolfK, o.ThresholdAdjustment)
	default:
		return imageproc.BinarizeOtsu(g, o.ThresholdAdjustment)
	}
}

// backgroundLevel is the most frequent gray level on the light side of the
// Otsu threshold inside r.
func backgroundLevel(g *image.Gray, r image.Rectangle) uint8 {
	if r.Empty() {
		return 0xFF
	}
	hist := imageproc.Histogram(g.SubImage(r).(*image.Gray), nil)
	t := imageproc.OtsuThreshold(hist)
	best := 0xFF
	for v := int(t); v < 256; v++ {
		if hist[v] > hist[best] {
			best = v
		}
	}
	return uint8(best)
}

// composite returns bw rendered as black and white with the pixels selected
// by mask taken from src.
func composite(bw *imageproc.BinaryImage, src image.Image, mask *imageproc.BinaryImage) image.Image {
	b := bw.Bounds()
	if g, ok := src.(*image.Gray); ok {
		out := bw.ToGray()
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				if mask.Black(x, y) {
					out.Pix[y*out.Stride+x] = g.Pix[y*g.Stride+x]
				}
			}
		}
		return out
	}
	out := image.NewRGBA(b)
	draw.Draw(out, b, bw.ToGray(), image.Point{}, draw.Src)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.Black(x, y) {
				out.Set(x, y, src.At(x, y))
			}
		}
	}
	return out
}

// posterize reduces every channel to o.Level evenly spaced values.
func posterize(img image.Image, o PosterizationOptions) image.Image {
	levels := max(2, o.Level)
	step := 255.0 / float64(levels-1)
	q := func(v uint8) uint8 {
		return uint8(math.Round(math.Round(float64(v)/step) * step))
	}
	switch t := img.(type) {
	case *image.Gray:
		out := image.NewGray(t.Rect)
		for i, v := range t.Pix {
			out.Pix[i] = q(v)
		}
		return out
	case *image.RGBA:
		out := image.NewRGBA(t.Rect)
		for i, v := range t.Pix {
			if i%4 == 3 {
				out.Pix[i] = v
				continue
			}
			out.Pix[i] = q(v)
		}
		return out
	}
	return img
}

func applyPictureZones(mask *imageproc.BinaryImage, zones PictureZones) {
	for _, z := range zones {
		area := imageproc.PolygonMask(mask.Width(), mask.Height(), z.Area)
		if z.Layer == ZoneBackground {
			mask.Or(area)
		} else {
			mask.Subtract(area)
		}
	}
}
