package output

import (
	"encoding/xml"
	"fmt"

	"github.com/scantailor/scantailor-cli/internal/filters"
)

type Element struct {
	XMLName xml.Name      `xml:"output"`
	Pages   []PageElement `xml:"page"`
}

type PageElement struct {
	ID           int               `xml:"id,attr"`
	Zones        []ZoneElement     `xml:"zones>zone"`
	FillZones    []FillZoneElement `xml:"fill-zones>zone"`
	Params       ParamsElement     `xml:"params"`
	Processing   ProcessingElement `xml:"processing-params"`
	OutputParams *OutputParamsElem `xml:"output-params,omitempty"`
}

type ZoneElement struct {
	Layer string                 `xml:"layer,attr"`
	Area  filters.PolygonElement `xml:"spline"`
}

type FillZoneElement struct {
	Color string                 `xml:"color,attr"`
	Area  filters.PolygonElement `xml:"spline"`
}

type ParamsElement struct {
	DespeckleLevel  string              `xml:"despeckleLevel,attr"`
	DepthPerception float64             `xml:"depthPerception,attr"`
	Dpi             DpiElement          `xml:"dpi"`
	ColorParams     ColorParamsElement  `xml:"color-params"`
	Splitting       SplittingElement    `xml:"splitting"`
	PictureShape    PictureShapeElement `xml:"picture-shape-options"`
	Dewarping       DewarpingElement    `xml:"dewarping-options"`
	DistortionModel *DistortionElement  `xml:"distortion-model,omitempty"`
}

type DpiElement struct {
	Horizontal int `xml:"horizontal,attr"`
	Vertical   int `xml:"vertical,attr"`
}

type ColorParamsElement struct {
	ColorMode  string             `xml:"colorMode,attr"`
	Common     ColorCommonElement `xml:"color-or-grayscale"`
	BlackWhite BlackWhiteElement  `xml:"bw"`
}

type ColorCommonElement struct {
	FillMargins           int                  `xml:"fillMargins,attr"`
	FillingColor          string               `xml:"fillingColor,attr"`
	NormalizeIllumination int                  `xml:"normalizeIllumination,attr"`
	Posterization         PosterizationElement `xml:"posterization-options"`
}

type PosterizationElement struct {
	Enabled            int `xml:"enabled,attr"`
	Level              int `xml:"level,attr"`
	Normalize          int `xml:"normalizationEnabled,attr"`
	ForceBlackAndWhite int `xml:"forceBlackAndWhite,attr"`
}

type BlackWhiteElement struct {
	ThresholdAdj          int     `xml:"thresholdAdj,attr"`
	Method                string  `xml:"binarizationMethod,attr"`
	WindowSize            int     `xml:"windowSize,attr"`
	SauvolaK              float64 `xml:"sauvolaCoef,attr"`
	WolfLowerBound        int     `xml:"wolfLowerBound,attr"`
	WolfUpperBound        int     `xml:"wolfUpperBound,attr"`
	WolfK                 float64 `xml:"wolfCoef,attr"`
	NormalizeIllumination int     `xml:"normalizeIlluminationBW,attr"`
}

type SplittingElement struct {
	SplitOutput        int    `xml:"splitOutput,attr"`
	Mode               string `xml:"splittingMode,attr"`
	OriginalBackground int    `xml:"originalBackground,attr"`
}

type PictureShapeElement struct {
	Shape       string `xml:"pictureShape,attr"`
	Sensitivity int    `xml:"sensitivity,attr"`
}

type DewarpingElement struct {
	Mode string `xml:"mode,attr"`
}

type DistortionElement struct {
	Top    filters.PolygonElement `xml:"top-curve"`
	Bottom filters.PolygonElement `xml:"bottom-curve"`
}

type ProcessingElement struct {
	AutoZonesFound int `xml:"autoZonesFound,attr"`
}

type OutputParamsElem struct {
	Image ImageParamsElement  `xml:"image"`
	Files []FileParamsElement `xml:"file"`
}

type ImageParamsElement struct {
	Width        int                 `xml:"width,attr"`
	Height       int                 `xml:"height,attr"`
	BlackOnWhite int                 `xml:"blackOnWhite,attr"`
	ContentRect  filters.RectElement `xml:"content-rect"`
	Dpi          DpiElement          `xml:"dpi"`
}

type FileParamsElement struct {
	Kind    string `xml:"kind,attr"`
	Size    int64  `xml:"size,attr"`
	ModTime int64  `xml:"mtime,attr"`
}

func boolAttr(b bool) int {
	if b {
		return 1
	}
	return 0
}

func splittingModeName(m SplittingMode) string {
	if m == ColorForeground {
		return "color"
	}
	return "bw"
}

func newParamsElement(p Params) ParamsElement {
	cp := p.ColorParams
	el := ParamsElement{
		DespeckleLevel:  p.Despeckle.String(),
		DepthPerception: p.DepthPerception,
		Dpi:             DpiElement{Horizontal: p.OutputDpi.Horizontal, Vertical: p.OutputDpi.Vertical},
		ColorParams: ColorParamsElement{
			ColorMode: cp.ColorMode.String(),
			Common: ColorCommonElement{
				FillMargins:           boolAttr(cp.ColorCommon.FillMargins),
				FillingColor:          cp.ColorCommon.FillingColor.String(),
				NormalizeIllumination: boolAttr(cp.ColorCommon.NormalizeIllumination),
				Posterization: PosterizationElement{
					Enabled:            boolAttr(cp.ColorCommon.Posterization.Enabled),
					Level:              cp.ColorCommon.Posterization.Level,
					Normalize:          boolAttr(cp.ColorCommon.Posterization.Normalize),
					ForceBlackAndWhite: boolAttr(cp.ColorCommon.Posterization.ForceBlackAndWhite),
				},
			},
			BlackWhite: BlackWhiteElement{
				ThresholdAdj:          cp.BlackWhite.ThresholdAdjustment,
				Method:                cp.BlackWhite.Method.String(),
				WindowSize:            cp.BlackWhite.WindowSize,
				SauvolaK:              cp.BlackWhite.SauvolaK,
				WolfLowerBound:        int(cp.BlackWhite.WolfLowerBound),
				WolfUpperBound:        int(cp.BlackWhite.WolfUpperBound),
				WolfK:                 cp.BlackWhite.WolfK,
				NormalizeIllumination: boolAttr(cp.BlackWhite.NormalizeIllumination),
			},
		},
		Splitting: SplittingElement{
			SplitOutput:        boolAttr(p.Splitting.SplitOutput),
			Mode:               splittingModeName(p.Splitting.Mode),
			OriginalBackground: boolAttr(p.Splitting.OriginalBackground),
		},
		PictureShape: PictureShapeElement{Shape: p.PictureShape.Shape.String(), Sensitivity: p.PictureShape.Sensitivity},
		Dewarping:    DewarpingElement{Mode: p.Dewarping.Mode.String()},
	}
	if p.DistortionModel.IsValid() {
		el.DistortionModel = &DistortionElement{
			Top:    filters.NewPolygonElement(p.DistortionModel.Top),
			Bottom: filters.NewPolygonElement(p.DistortionModel.Bottom),
		}
	}
	return el
}

func (s *Settings) ProjectXML(ids filters.ProjectIDs) Element {
	var el Element
	fileOrder := []FileKind{MainFile, ForegroundFile, BackgroundFile, OriginalBackgroundFile, AutomaskFile, SpecklesFile}
	for _, pageID := range ids.Pages() {
		num, ok := ids.PageNumericID(pageID)
		if !ok {
			continue
		}
		result, ok := s.Result(pageID)
		if !ok {
			continue
		}
		page := PageElement{
			ID:         num,
			Params:     newParamsElement(s.Params(pageID)),
			Processing: ProcessingElement{AutoZonesFound: boolAttr(s.ProcessingParams(pageID).AutoZonesFound)},
		}
		for _, z := range s.PictureZones(pageID) {
			page.Zones = append(page.Zones, ZoneElement{Layer: z.Layer.String(), Area: filters.NewPolygonElement(z.Area)})
		}
		for _, z := range s.FillZones(pageID) {
			page.FillZones = append(page.FillZones, FillZoneElement{
				Color: fmt.Sprintf("#%02x%02x%02x", z.Color.R, z.Color.G, z.Color.B),
				Area:  filters.NewPolygonElement(z.Area),
			})
		}
		img := result.Image
		op := &OutputParamsElem{
			Image: ImageParamsElement{
				Width:        img.Size.X,
				Height:       img.Size.Y,
				BlackOnWhite: boolAttr(img.BlackOnWhite),
				ContentRect: filters.RectElement{
					X: float64(img.ContentRect.Min.X),
					Y: float64(img.ContentRect.Min.Y),
					W: float64(img.ContentRect.Dx()),
					H: float64(img.ContentRect.Dy()),
				},
				Dpi: DpiElement{Horizontal: img.Dpi.Horizontal, Vertical: img.Dpi.Vertical},
			},
		}
		for _, kind := range fileOrder {
			if fp, ok := result.Files[kind]; ok {
				op.Files = append(op.Files, FileParamsElement{Kind: string(kind), Size: fp.Size, ModTime: fp.ModTime})
			}
		}
		page.OutputParams = op
		el.Pages = append(el.Pages, page)
	}
	return el
}
