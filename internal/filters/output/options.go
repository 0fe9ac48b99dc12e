// Package output implements the terminal stage: rendering the page through
// the accumulated transformation and writing the result files, reusing
// earlier results whenever their fingerprint still matches.
package output

import (
	"fmt"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/imageproc"
)

type ColorMode int

const (
	BlackAndWhite ColorMode = iota
	ColorGrayscale
	Mixed
)

func (m ColorMode) String() string {
	switch m {
	case ColorGrayscale:
		return "color_grayscale"
	case Mixed:
		return "mixed"
	default:
		return "black_and_white"
	}
}

func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "black_and_white", "bw", "":
		return BlackAndWhite, nil
	case "color_grayscale", "color", "grayscale":
		return ColorGrayscale, nil
	case "mixed":
		return Mixed, nil
	}
	return BlackAndWhite, fmt.Errorf("unknown color mode %q", s)
}

type BinarizationMethod int

const (
	Otsu BinarizationMethod = iota
	Sauvola
	Wolf
)

func (m BinarizationMethod) String() string {
	switch m {
	case Sauvola:
		return "sauvola"
	case Wolf:
		return "wolf"
	default:
		return "otsu"
	}
}

func ParseBinarizationMethod(s string) (BinarizationMethod, error) {
	switch strings.ToLower(s) {
	case "otsu", "":
		return Otsu, nil
	case "sauvola":
		return Sauvola, nil
	case "wolf":
		return Wolf, nil
	}
	return Otsu, fmt.Errorf("unknown binarization method %q", s)
}

// DespeckleLevel is how aggressively small specks are removed.
type DespeckleLevel float64

const (
	DespeckleOff        DespeckleLevel = imageproc.DespeckleOff
	DespeckleCautious   DespeckleLevel = imageproc.DespeckleCautious
	DespeckleNormal     DespeckleLevel = imageproc.DespeckleNormal
	DespeckleAggressive DespeckleLevel = imageproc.DespeckleAggressive
)

func (l DespeckleLevel) String() string {
	switch l {
	case DespeckleOff:
		return "off"
	case DespeckleCautious:
		return "cautious"
	case DespeckleNormal:
		return "normal"
	case DespeckleAggressive:
		return "aggressive"
	}
	return fmt.Sprintf("%g", float64(l))
}

func ParseDespeckleLevel(s string) (DespeckleLevel, error) {
	switch strings.ToLower(s) {
	case "off", "none", "":
		return DespeckleOff, nil
	case "cautious":
		return DespeckleCautious, nil
	case "normal":
		return DespeckleNormal, nil
	case "aggressive":
		return DespeckleAggressive, nil
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil || v < 0 || v > 3 {
		return DespeckleOff, fmt.Errorf("unknown despeckle level %q", s)
	}
	return DespeckleLevel(v), nil
}

type FillingColor int

const (
	FillBackground FillingColor = iota
	FillWhite
)

func (c FillingColor) String() string {
	if c == FillWhite {
		return "white"
	}
	return "background"
}

type PosterizationOptions struct {
	Enabled            bool `json:"enabled"`
	Level              int  `json:"level"`
	Normalize          bool `json:"normalize"`
	ForceBlackAndWhite bool `json:"force_black_and_white"`
}

type ColorCommonOptions struct {
	FillMargins           bool                 `json:"fill_margins"`
	FillingColor          FillingColor         `json:"filling_color"`
	NormalizeIllumination bool                 `json:"normalize_illumination"`
	Posterization         PosterizationOptions `json:"posterization"`
}

type BlackWhiteOptions struct {
	ThresholdAdjustment   int                `json:"threshold_adjustment"`
	Method                BinarizationMethod `json:"method"`
	WindowSize            int                `json:"window_size"`
	SauvolaK              float64            `json:"sauvola_k"`
	WolfLowerBound        uint8              `json:"wolf_lower_bound"`
	WolfUpperBound        uint8              `json:"wolf_upper_bound"`
	WolfK                 float64            `json:"wolf_k"`
	NormalizeIllumination bool               `json:"normalize_illumination"`
}

type ColorParams struct {
	ColorMode   ColorMode          `json:"color_mode"`
	ColorCommon ColorCommonOptions `json:"color_common"`
	BlackWhite  BlackWhiteOptions  `json:"black_white"`
}

type SplittingMode int

const (
	BlackAndWhiteForeground SplittingMode = iota
	ColorForeground
)

type SplittingOptions struct {
	SplitOutput        bool          `json:"split_output"`
	Mode               SplittingMode `json:"mode"`
	OriginalBackground bool          `json:"original_background"`
}

type PictureShape int

const (
	PictureShapeOff PictureShape = iota
	PictureShapeFree
	PictureShapeRectangular
)

func (s PictureShape) String() string {
	switch s {
	case PictureShapeFree:
		return "free"
	case PictureShapeRectangular:
		return "rectangular"
	default:
		return "off"
	}
}

func ParsePictureShape(s string) (PictureShape, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return PictureShapeOff, nil
	case "free":
		return PictureShapeFree, nil
	case "rectangular":
		return PictureShapeRectangular, nil
	}
	return PictureShapeOff, fmt.Errorf("unknown picture shape %q", s)
}

type PictureShapeOptions struct {
	Shape       PictureShape `json:"shape"`
	Sensitivity int          `json:"sensitivity"`
}

type DewarpingMode int

const (
	DewarpingOff DewarpingMode = iota
	DewarpingAuto
	DewarpingManual
	DewarpingMarginal
)

func (m DewarpingMode) String() string {
	switch m {
	case DewarpingAuto:
		return "auto"
	case DewarpingManual:
		return "manual"
	case DewarpingMarginal:
		return "marginal"
	default:
		return "off"
	}
}

func ParseDewarpingMode(s string) (DewarpingMode, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return DewarpingOff, nil
	case "auto":
		return DewarpingAuto, nil
	case "manual":
		return DewarpingManual, nil
	case "marginal":
		return DewarpingMarginal, nil
	}
	return DewarpingOff, fmt.Errorf("unknown dewarping mode %q", s)
}

type DewarpingOptions struct {
	Mode DewarpingMode `json:"mode"`
}
