// Package config provides configuration loading for scantailor-cli.
// Supports YAML files, environment variables, and command line overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/state"
)

// Config holds all configuration of a run.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Input     InputConfig     `yaml:"input"`
	PageSplit PageSplitConfig `yaml:"page_split"`
	Deskew    DeskewConfig    `yaml:"deskew"`
	Content   ContentConfig   `yaml:"content"`
	Layout    LayoutConfig    `yaml:"layout"`
	Output    OutputConfig    `yaml:"output"`
	State     StateConfig     `yaml:"state"`
	Project   ProjectConfig   `yaml:"project"`
	UI        UIConfig        `yaml:"ui"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// InputConfig holds input resolution settings.
type InputConfig struct {
	// DPI replaces out of range resolutions when non zero.
	DPI      int  `yaml:"dpi"`
	ForceDPI bool `yaml:"force_dpi"`
	// PDFDPI is the resolution PDF pages are rasterised at.
	PDFDPI int `yaml:"pdf_dpi"`
}

type PageSplitConfig struct {
	LayoutType string `yaml:"layout_type"` // auto, 1, 1.5, 2
}

type DeskewConfig struct {
	// MaxAngle bounds the skew search in degrees.
	MaxAngle float64 `yaml:"max_angle"`
}

// ContentConfig holds content and page detection settings.
type ContentConfig struct {
	ContentDetection       string  `yaml:"content_detection"` // auto, manual, disabled
	PageDetection          string  `yaml:"page_detection"`
	FineTuneCorners        bool    `yaml:"fine_tune_corners"`
	PageBoxWidthMM         float64 `yaml:"page_box_width_mm"`
	PageBoxHeightMM        float64 `yaml:"page_box_height_mm"`
	PageDetectionTolerance float64 `yaml:"page_detection_tolerance"`
}

// LayoutConfig holds margin and alignment settings.
type LayoutConfig struct {
	Margins     MarginsConfig `yaml:"margins_mm"`
	AutoMargins bool          `yaml:"auto_margins"`
	Alignment   string        `yaml:"alignment"` // auto, original or vertical-horizontal such as top-left
}

type MarginsConfig struct {
	Left   float64 `yaml:"left"`
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
}

// OutputConfig holds output rendering settings.
type OutputConfig struct {
	DPI                   int                 `yaml:"dpi"`
	ColorMode             string              `yaml:"color_mode"` // black_and_white, color_grayscale, mixed
	Binarization          BinarizationConfig  `yaml:"binarization"`
	Despeckle             string              `yaml:"despeckle"` // off, cautious, normal, aggressive
	FillMargins           bool                `yaml:"fill_margins"`
	FillingColor          string              `yaml:"filling_color"` // background or white
	NormalizeIllumination bool                `yaml:"normalize_illumination"`
	Posterization         PosterizationConfig `yaml:"posterization"`
	SplitOutput           bool                `yaml:"split_output"`
	SplittingMode         string              `yaml:"splitting_mode"` // bw or color
	OriginalBackground    bool                `yaml:"original_background"`
	PictureShape          string              `yaml:"picture_shape"` // off, free, rectangular
	PictureSensitivity    int                 `yaml:"picture_sensitivity"`
	Dewarping             string              `yaml:"dewarping"` // off, auto, manual, marginal
	DepthPerception       float64             `yaml:"depth_perception"`
}

// BinarizationConfig holds black and white thresholding settings.
type BinarizationConfig struct {
	Method              string  `yaml:"method"` // otsu, sauvola, wolf
	ThresholdAdjustment int     `yaml:"threshold_adjustment"`
	WindowSize          int     `yaml:"window_size"`
	SauvolaK            float64 `yaml:"sauvola_k"`
	WolfLowerBound      int     `yaml:"wolf_lower_bound"`
	WolfUpperBound      int     `yaml:"wolf_upper_bound"`
	WolfK               float64 `yaml:"wolf_k"`
}

type PosterizationConfig struct {
	Enabled            bool `yaml:"enabled"`
	Level              int  `yaml:"level"`
	Normalize          bool `yaml:"normalize"`
	ForceBlackAndWhite bool `yaml:"force_black_and_white"`
}

// StateConfig holds run-to-run persistence settings.
type StateConfig struct {
	Driver     string      `yaml:"driver"` // sqlite, file, redis or none
	SQLitePath string      `yaml:"sqlite_path"`
	FilePath   string      `yaml:"file_path"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type ProjectConfig struct {
	Generate bool   `yaml:"generate"`
	FileName string `yaml:"file_name"`
}

type UIConfig struct {
	Progress string `yaml:"progress"` // bar, stages, spinner or none
	NoColor  bool   `yaml:"no_color"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warning",
			Format: "console",
		},
		Input: InputConfig{
			PDFDPI: 300,
		},
		PageSplit: PageSplitConfig{
			LayoutType: "auto",
		},
		Deskew: DeskewConfig{
			MaxAngle: 7,
		},
		Content: ContentConfig{
			ContentDetection:       "auto",
			PageDetection:          "disabled",
			PageDetectionTolerance: 0.1,
		},
		Layout: LayoutConfig{
			Margins:     MarginsConfig{Left: 10, Top: 10, Right: 10, Bottom: 10},
			AutoMargins: true,
			Alignment:   "auto",
		},
		Output: OutputConfig{
			DPI:       600,
			ColorMode: "black_and_white",
			Binarization: BinarizationConfig{
				Method:         "otsu",
				WindowSize:     200,
				SauvolaK:       0.34,
				WolfLowerBound: 1,
				WolfUpperBound: 254,
				WolfK:          0.3,
			},
			Despeckle:    "off",
			FillMargins:  true,
			FillingColor: "background",
			Posterization: PosterizationConfig{
				Level: 4,
			},
			SplitOutput:        true,
			SplittingMode:      "bw",
			OriginalBackground: true,
			PictureShape:       "off",
			PictureSensitivity: 100,
			Dewarping:          "off",
			DepthPerception:    2.0,
		},
		State: StateConfig{
			Driver: state.DriverSQLite,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 4,
				Prefix:   "scantailor:state:",
			},
		},
		Project: ProjectConfig{
			FileName: "project.ScanTailor",
		},
		UI: UIConfig{
			Progress: "bar",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !observability.ValidLevel(c.Log.Level) {
		return domain.ConfigError(fmt.Sprintf("invalid log level: %s", c.Log.Level), nil)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return domain.ConfigError(fmt.Sprintf("invalid log format: %s", c.Log.Format), nil)
	}
	if c.Input.DPI != 0 && !dpiInRange(c.Input.DPI) {
		return domain.ConfigError(fmt.Sprintf("input dpi out of range: %d", c.Input.DPI), nil)
	}
	if c.Input.ForceDPI && c.Input.DPI == 0 {
		return domain.ConfigError("force_dpi requires dpi", nil)
	}
	if c.Input.PDFDPI < 72 || c.Input.PDFDPI > 1200 {
		return domain.ConfigError(fmt.Sprintf("pdf dpi must be between 72 and 1200: %d", c.Input.PDFDPI), nil)
	}
	if c.Deskew.MaxAngle <= 0 || c.Deskew.MaxAngle > 45 {
		return domain.ConfigError(fmt.Sprintf("deskew max_angle must be in (0, 45]: %g", c.Deskew.MaxAngle), nil)
	}
	if c.Content.PageDetectionTolerance < 0 || c.Content.PageDetectionTolerance > 1 {
		return domain.ConfigError("page_detection_tolerance must be between 0 and 1", nil)
	}
	if !dpiInRange(c.Output.DPI) {
		return domain.ConfigError(fmt.Sprintf("output dpi out of range: %d", c.Output.DPI), nil)
	}
	b := c.Output.Binarization
	if b.ThresholdAdjustment < -50 || b.ThresholdAdjustment > 50 {
		return domain.ConfigError("threshold_adjustment must be between -50 and 50", nil)
	}
	if b.WindowSize < 5 || b.WindowSize > 9999 {
		return domain.ConfigError(fmt.Sprintf("window_size out of range: %d", b.WindowSize), nil)
	}
	if b.WolfLowerBound < 0 || b.WolfUpperBound > 255 || b.WolfLowerBound >= b.WolfUpperBound {
		return domain.ConfigError("wolf bounds must satisfy 0 <= lower < upper <= 255", nil)
	}
	if p := c.Output.Posterization; p.Enabled && (p.Level < 2 || p.Level > 6) {
		return domain.ConfigError("posterization level must be between 2 and 6", nil)
	}
	if s := c.Output.PictureSensitivity; s < 0 || s > 100 {
		return domain.ConfigError("picture_sensitivity must be between 0 and 100", nil)
	}
	if !state.ValidDriver(strings.ToLower(c.State.Driver)) {
		return domain.ConfigError(fmt.Sprintf("invalid state driver: %s", c.State.Driver), nil)
	}
	switch c.UI.Progress {
	case "bar", "stages", "spinner", "none":
	default:
		return domain.ConfigError(fmt.Sprintf("invalid progress style: %s", c.UI.Progress), nil)
	}

	// Enumerations are checked by converting them.
	if _, err := c.StoreOptions(); err != nil {
		return err
	}
	return nil
}

func dpiInRange(v int) bool {
	return v >= domain.MinAcceptableDpi && v <= domain.MaxAcceptableDpi
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCANTAILOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("SCANTAILOR_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("SCANTAILOR_DPI"); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			cfg.Input.DPI = dpi
		}
	}

	if v := os.Getenv("SCANTAILOR_OUTPUT_DPI"); v != "" {
		if dpi, err := strconv.Atoi(v); err == nil {
			cfg.Output.DPI = dpi
		}
	}

	if v := os.Getenv("SCANTAILOR_COLOR_MODE"); v != "" {
		cfg.Output.ColorMode = v
	}

	if v := os.Getenv("SCANTAILOR_STATE_DRIVER"); v != "" {
		cfg.State.Driver = v
	}

	if v := os.Getenv("SCANTAILOR_REDIS_URL"); v != "" {
		cfg.State.Driver = state.DriverRedis
		// Parse redis://host:port format
		cfg.State.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("SCANTAILOR_REDIS_PASSWORD"); v != "" {
		cfg.State.Redis.Password = v
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.UI.NoColor = true
	}
}
