package output

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"slices"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/xform"
)

const (
	DefaultOutputDpi       = 600
	DefaultDepthPerception = 2.0
	MinDepthPerception     = 1.0
	MaxDepthPerception     = 3.0
)

// Params are the output settings of one page.
type Params struct {
	OutputDpi       domain.Dpi          `json:"output_dpi"`
	ColorParams     ColorParams         `json:"color_params"`
	Splitting       SplittingOptions    `json:"splitting"`
	PictureShape    PictureShapeOptions `json:"picture_shape"`
	Dewarping       DewarpingOptions    `json:"dewarping"`
	DistortionModel DistortionModel     `json:"distortion_model"`
	DepthPerception float64             `json:"depth_perception"`
	Despeckle       DespeckleLevel      `json:"despeckle"`
}

// DefaultParams matches the defaults of the interactive application.
func DefaultParams() Params {
	return Params{
		OutputDpi: domain.NewDpi(DefaultOutputDpi),
		ColorParams: ColorParams{
			ColorMode: BlackAndWhite,
			ColorCommon: ColorCommonOptions{
				FillMargins:  true,
				FillingColor: FillBackground,
				Posterization: PosterizationOptions{
					Level:     4,
					Normalize: false,
				},
			},
			BlackWhite: BlackWhiteOptions{
				Method:         Otsu,
				WindowSize:     200,
				SauvolaK:       0.34,
				WolfLowerBound: 1,
				WolfUpperBound: 254,
				WolfK:          0.3,
			},
		},
		Splitting: SplittingOptions{
			SplitOutput:        true,
			Mode:               BlackAndWhiteForeground,
			OriginalBackground: true,
		},
		PictureShape:    PictureShapeOptions{Shape: PictureShapeOff, Sensitivity: 100},
		DepthPerception: DefaultDepthPerception,
		Despeckle:       DespeckleOff,
	}
}

// NeedsBinarization reports whether any part of the output is bitonal.
func (p Params) NeedsBinarization() bool {
	switch p.ColorParams.ColorMode {
	case BlackAndWhite, Mixed:
		return true
	}
	return p.ColorParams.ColorCommon.Posterization.ForceBlackAndWhite
}

// SplitsOutput reports whether foreground and background layers are written.
// Splitting only applies to mixed output.
func (p Params) SplitsOutput() bool {
	return p.ColorParams.ColorMode == Mixed && p.Splitting.SplitOutput
}

// WritesOriginalBackground reports whether the unbinarized background layer
// is written alongside the split layers.
func (p Params) WritesOriginalBackground() bool {
	return p.SplitsOutput() && p.Splitting.OriginalBackground
}

// DistortionModel describes a curved page by its top and bottom text
// baselines in output image coordinates.
type DistortionModel struct {
	Top    geom.Polygon `json:"top,omitempty"`
	Bottom geom.Polygon `json:"bottom,omitempty"`
}

func (m DistortionModel) IsValid() bool {
	if len(m.Top) < 2 || len(m.Bottom) < 2 {
		return false
	}
	t, b := m.Top.BoundingRect(), m.Bottom.BoundingRect()
	return t.W > 0 && b.W > 0 && t.Center().Y < b.Center().Y
}

func (m DistortionModel) Equal(o DistortionModel) bool {
	return m.Top.ApproxEqual(o.Top, 1e-6) && m.Bottom.ApproxEqual(o.Bottom, 1e-6)
}

// ZoneLayer says what a picture zone does to the mixed mode mask.
type ZoneLayer int

const (
	// ZoneForeground forces the area to be binarized.
	ZoneForeground ZoneLayer = iota
	// ZoneBackground keeps the area as a picture.
	ZoneBackground
	// ZoneEraser removes the area from auto detected pictures.
	ZoneEraser
)

func (l ZoneLayer) String() string {
	switch l {
	case ZoneBackground:
		return "background"
	case ZoneEraser:
		return "eraser"
	default:
		return "foreground"
	}
}

type PictureZone struct {
	Area  geom.Polygon `json:"area"`
	Layer ZoneLayer    `json:"layer"`
}

type FillZone struct {
	Area  geom.Polygon `json:"area"`
	Color color.RGBA   `json:"color"`
}

type PictureZones []PictureZone

func (z PictureZones) Equal(o PictureZones) bool {
	return slices.EqualFunc(z, o, func(a, b PictureZone) bool {
		return a.Layer == b.Layer && a.Area.ApproxEqual(b.Area, 1e-6)
	})
}

type FillZones []FillZone

func (z FillZones) Equal(o FillZones) bool {
	return slices.EqualFunc(z, o, func(a, b FillZone) bool {
		return a.Color == b.Color && a.Area.ApproxEqual(b.Area, 1e-6)
	})
}

// ProcessingParams carry per-page state discovered while generating output.
type ProcessingParams struct {
	AutoZonesFound bool `json:"auto_zones_found"`
}

// ImageParams is the fingerprint of a generated output image. Two equal
// fingerprints render the same pixels.
type ImageParams struct {
	Size            image.Point         `json:"size"`
	ContentRect     image.Rectangle     `json:"content_rect"`
	Transform       geom.Affine         `json:"transform"`
	CropArea        geom.Polygon        `json:"crop_area"`
	Dpi             domain.Dpi          `json:"dpi"`
	ColorParams     ColorParams         `json:"color_params"`
	Splitting       SplittingOptions    `json:"splitting"`
	PictureShape    PictureShapeOptions `json:"picture_shape"`
	Dewarping       DewarpingOptions    `json:"dewarping"`
	DistortionModel DistortionModel     `json:"distortion_model"`
	DepthPerception float64             `json:"depth_perception"`
	Despeckle       DespeckleLevel      `json:"despeckle"`
	BlackOnWhite    bool                `json:"black_on_white"`
}

// NewImageParams fingerprints rendering params through xf, which must already
// be scaled to the output resolution.
func NewImageParams(p Params, xf xform.ImageTransformation, contentRect image.Rectangle, blackOnWhite bool) ImageParams {
	rr := xf.ResultingRect()
	return ImageParams{
		Size:            image.Pt(int(math.Ceil(rr.W)), int(math.Ceil(rr.H))),
		ContentRect:     contentRect,
		Transform:       xf.Transform(),
		CropArea:        xf.ResultingPostCropArea(),
		Dpi:             xf.PostScaledDpi(),
		ColorParams:     p.ColorParams,
		Splitting:       p.Splitting,
		PictureShape:    p.PictureShape,
		Dewarping:       p.Dewarping,
		DistortionModel: p.DistortionModel,
		DepthPerception: p.DepthPerception,
		Despeckle:       p.Despeckle,
		BlackOnWhite:    blackOnWhite,
	}
}

func (p ImageParams) Matches(o ImageParams) bool {
	return p.Size == o.Size &&
		p.ContentRect == o.ContentRect &&
		p.Transform.ApproxEqual(o.Transform, 1e-6) &&
		p.CropArea.ApproxEqual(o.CropArea, 1e-6) &&
		p.Dpi == o.Dpi &&
		p.ColorParams == o.ColorParams &&
		p.Splitting == o.Splitting &&
		p.PictureShape == o.PictureShape &&
		p.Dewarping == o.Dewarping &&
		p.DistortionModel.Equal(o.DistortionModel) &&
		math.Abs(p.DepthPerception-o.DepthPerception) < 1e-6 &&
		p.Despeckle == o.Despeckle &&
		p.BlackOnWhite == o.BlackOnWhite
}

// FileParams identify the on-disk state of an output file.
type FileParams struct {
	Size    int64 `json:"size"`
	ModTime int64 `json:"mod_time"`
}

// StatFile returns the params of the file at path.
func StatFile(path string) (FileParams, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileParams{}, err
	}
	if !fi.Mode().IsRegular() {
		return FileParams{}, errors.New("not a regular file")
	}
	return FileParams{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}, nil
}

// FileKind names one of the files written for a page.
type FileKind string

const (
	MainFile               FileKind = "output"
	ForegroundFile         FileKind = "foreground"
	BackgroundFile         FileKind = "background"
	OriginalBackgroundFile FileKind = "original_background"
	AutomaskFile           FileKind = "automask"
	SpecklesFile           FileKind = "speckles"
)

// Result is what is remembered about the last successful output of a page.
type Result struct {
	Image        ImageParams             `json:"image"`
	Files        map[FileKind]FileParams `json:"files"`
	PictureZones PictureZones            `json:"picture_zones,omitempty"`
	FillZones    FillZones               `json:"fill_zones,omitempty"`
}

// FileMatches reports whether the file at path is still the one recorded
// under kind.
func (r Result) FileMatches(kind FileKind, path string) bool {
	want, ok := r.Files[kind]
	if !ok {
		return false
	}
	got, err := StatFile(path)
	return err == nil && got == want
}
