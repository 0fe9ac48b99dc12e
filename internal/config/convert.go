package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/filters/pagelayout"
	"github.com/scantailor/scantailor-cli/internal/filters/pagesplit"
	"github.com/scantailor/scantailor-cli/internal/filters/selectcontent"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/imageproc"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/pipeline"
	"github.com/scantailor/scantailor-cli/internal/project"
	"github.com/scantailor/scantailor-cli/internal/state"
)

// StoreOptions converts the stage sections into the options the settings
// stores start from.
func (c *Config) StoreOptions() (project.StoreOptions, error) {
	layoutType, err := pagesplit.ParseLayoutType(c.PageSplit.LayoutType)
	if err != nil {
		return project.StoreOptions{}, domain.ConfigError("page_split.layout_type", err)
	}

	content, err := c.contentOptions()
	if err != nil {
		return project.StoreOptions{}, err
	}

	alignment, err := pagelayout.ParseAlignment(c.Layout.Alignment)
	if err != nil {
		return project.StoreOptions{}, domain.ConfigError("layout.alignment", err)
	}
	m := c.Layout.Margins
	if m.Left < 0 || m.Top < 0 || m.Right < 0 || m.Bottom < 0 {
		return project.StoreOptions{}, domain.ConfigError("layout.margins_mm must not be negative", nil)
	}

	out, err := c.outputParams()
	if err != nil {
		return project.StoreOptions{}, err
	}

	return project.StoreOptions{
		DefaultLayoutType: layoutType,
		Content:           content,
		Layout: pagelayout.Options{
			HardMarginsMM: pagelayout.Margins{Left: m.Left, Top: m.Top, Right: m.Right, Bottom: m.Bottom},
			AutoMargins:   c.Layout.AutoMargins,
			Alignment:     alignment,
		},
		Output: out,
	}, nil
}

func (c *Config) contentOptions() (selectcontent.Options, error) {
	contentMode, err := domain.ParseAutoManualMode(c.Content.ContentDetection)
	if err != nil {
		return selectcontent.Options{}, domain.ConfigError("content.content_detection", err)
	}
	pageMode, err := domain.ParseAutoManualMode(c.Content.PageDetection)
	if err != nil {
		return selectcontent.Options{}, domain.ConfigError("content.page_detection", err)
	}
	if c.Content.PageBoxWidthMM < 0 || c.Content.PageBoxHeightMM < 0 {
		return selectcontent.Options{}, domain.ConfigError("content page box must not be negative", nil)
	}
	return selectcontent.Options{
		ContentMode:            contentMode,
		PageMode:               pageMode,
		FineTuneCorners:        c.Content.FineTuneCorners,
		PageDetectionBox:       geom.Size{W: c.Content.PageBoxWidthMM, H: c.Content.PageBoxHeightMM},
		PageDetectionTolerance: c.Content.PageDetectionTolerance,
	}, nil
}

func (c *Config) outputParams() (output.Params, error) {
	o := c.Output
	p := output.DefaultParams()
	p.OutputDpi = domain.NewDpi(o.DPI)

	var err error
	if p.ColorParams.ColorMode, err = output.ParseColorMode(o.ColorMode); err != nil {
		return p, domain.ConfigError("output.color_mode", err)
	}
	if p.ColorParams.BlackWhite.Method, err = output.ParseBinarizationMethod(o.Binarization.Method); err != nil {
		return p, domain.ConfigError("output.binarization.method", err)
	}
	if p.Despeckle, err = output.ParseDespeckleLevel(o.Despeckle); err != nil {
		return p, domain.ConfigError("output.despeckle", err)
	}
	if p.PictureShape.Shape, err = output.ParsePictureShape(o.PictureShape); err != nil {
		return p, domain.ConfigError("output.picture_shape", err)
	}
	if p.Dewarping.Mode, err = output.ParseDewarpingMode(o.Dewarping); err != nil {
		return p, domain.ConfigError("output.dewarping", err)
	}
	if p.ColorParams.ColorCommon.FillingColor, err = parseFillingColor(o.FillingColor); err != nil {
		return p, err
	}
	if p.Splitting.Mode, err = parseSplittingMode(o.SplittingMode); err != nil {
		return p, err
	}
	if o.DepthPerception < output.MinDepthPerception || o.DepthPerception > output.MaxDepthPerception {
		return p, domain.ConfigError(fmt.Sprintf("output.depth_perception must be between %g and %g",
			output.MinDepthPerception, output.MaxDepthPerception), nil)
	}

	b := o.Binarization
	p.ColorParams.BlackWhite.ThresholdAdjustment = b.ThresholdAdjustment
	p.ColorParams.BlackWhite.WindowSize = b.WindowSize
	p.ColorParams.BlackWhite.SauvolaK = b.SauvolaK
	p.ColorParams.BlackWhite.WolfLowerBound = uint8(b.WolfLowerBound)
	p.ColorParams.BlackWhite.WolfUpperBound = uint8(b.WolfUpperBound)
	p.ColorParams.BlackWhite.WolfK = b.WolfK
	p.ColorParams.BlackWhite.NormalizeIllumination = o.NormalizeIllumination

	p.ColorParams.ColorCommon.FillMargins = o.FillMargins
	p.ColorParams.ColorCommon.NormalizeIllumination = o.NormalizeIllumination
	p.ColorParams.ColorCommon.Posterization = output.PosterizationOptions{
		Enabled:            o.Posterization.Enabled,
		Level:              o.Posterization.Level,
		Normalize:          o.Posterization.Normalize,
		ForceBlackAndWhite: o.Posterization.ForceBlackAndWhite,
	}

	p.Splitting.SplitOutput = o.SplitOutput
	p.Splitting.OriginalBackground = o.OriginalBackground
	p.PictureShape.Sensitivity = o.PictureSensitivity
	p.DepthPerception = o.DepthPerception
	return p, nil
}

func parseFillingColor(s string) (output.FillingColor, error) {
	switch strings.ToLower(s) {
	case "background", "":
		return output.FillBackground, nil
	case "white":
		return output.FillWhite, nil
	}
	return output.FillBackground, domain.ConfigError(fmt.Sprintf("unknown filling color %q", s), nil)
}

func parseSplittingMode(s string) (output.SplittingMode, error) {
	switch strings.ToLower(s) {
	case "bw", "black_and_white", "":
		return output.BlackAndWhiteForeground, nil
	case "color":
		return output.ColorForeground, nil
	}
	return output.BlackAndWhiteForeground, domain.ConfigError(fmt.Sprintf("unknown splitting mode %q", s), nil)
}

// InputOptions returns the resolution policy for input images.
func (c *Config) InputOptions() pipeline.InputOptions {
	opts := pipeline.InputOptions{ForceDpi: c.Input.ForceDPI}
	if c.Input.DPI != 0 {
		opts.CustomDpi = domain.NewDpi(c.Input.DPI)
	}
	return opts
}

// Collaborators returns the detection algorithms configured for the chain.
// Unset members fall back to the stage defaults.
func (c *Config) Collaborators() pipeline.Collaborators {
	finder := imageproc.NewProjectionSkewFinder()
	finder.MaxAngle = c.Deskew.MaxAngle
	return pipeline.Collaborators{SkewFinder: finder}
}

// StateConfig returns the backend selection for run-to-run state.
func (c *Config) StateConfig() state.Config {
	return state.Config{
		Driver:     strings.ToLower(c.State.Driver),
		SQLitePath: c.State.SQLitePath,
		FilePath:   c.State.FilePath,
		Redis: state.RedisConfig{
			Addr:     c.State.Redis.Addr,
			Password: c.State.Redis.Password,
			DB:       c.State.Redis.DB,
			PoolSize: c.State.Redis.PoolSize,
			Prefix:   c.State.Redis.Prefix,
			TTL:      c.State.Redis.TTL,
		},
	}
}

// LogConfig returns the logger settings writing to w.
func (c *Config) LogConfig(w io.Writer, runID string) observability.LogConfig {
	return observability.LogConfig{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: w,
		RunID:  runID,
	}
}
