package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/filters/pagelayout"
	"github.com/scantailor/scantailor-cli/internal/filters/pagesplit"
	"github.com/scantailor/scantailor-cli/internal/project"
	"github.com/scantailor/scantailor-cli/internal/state"
)

func TestDefaultConfig_MatchesStoreDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.StoreOptions()
	require.NoError(t, err)

	defaults := project.DefaultStoreOptions()
	assert.Equal(t, defaults.DefaultLayoutType, opts.DefaultLayoutType)
	assert.Equal(t, defaults.Content, opts.Content)
	assert.Equal(t, defaults.Layout, opts.Layout)
	assert.Equal(t, defaults.Output, opts.Output)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scantailor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
input:
  dpi: 400
  force_dpi: true
page_split:
  layout_type: "2"
layout:
  alignment: top-left
  margins_mm: {left: 5, top: 6, right: 7, bottom: 8}
output:
  color_mode: mixed
  despeckle: normal
  binarization:
    method: sauvola
  picture_shape: rectangular
state:
  driver: file
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	in := cfg.InputOptions()
	assert.Equal(t, domain.NewDpi(400), in.CustomDpi)
	assert.True(t, in.ForceDpi)

	opts, err := cfg.StoreOptions()
	require.NoError(t, err)
	assert.Equal(t, pagesplit.TwoPages, opts.DefaultLayoutType)
	assert.Equal(t, pagelayout.Margins{Left: 5, Top: 6, Right: 7, Bottom: 8}, opts.Layout.HardMarginsMM)
	assert.Equal(t, pagelayout.Top, opts.Layout.Alignment.Vertical)
	assert.Equal(t, pagelayout.Left, opts.Layout.Alignment.Horizontal)
	assert.Equal(t, output.Mixed, opts.Output.ColorParams.ColorMode)
	assert.Equal(t, output.Sauvola, opts.Output.ColorParams.BlackWhite.Method)
	assert.Equal(t, output.DespeckleNormal, opts.Output.Despeckle)
	assert.Equal(t, output.PictureShapeRectangular, opts.Output.PictureShape.Shape)
	assert.Equal(t, state.DriverFile, cfg.StateConfig().Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCANTAILOR_LOG_LEVEL", "warn")
	t.Setenv("SCANTAILOR_OUTPUT_DPI", "300")
	t.Setenv("SCANTAILOR_REDIS_URL", "redis://cache:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 300, cfg.Output.DPI)
	assert.Equal(t, state.DriverRedis, cfg.State.Driver)
	assert.Equal(t, "cache:6379", cfg.StateConfig().Redis.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"input dpi", func(c *Config) { c.Input.DPI = 20 }},
		{"force without dpi", func(c *Config) { c.Input.ForceDPI = true }},
		{"output dpi", func(c *Config) { c.Output.DPI = 100000 }},
		{"color mode", func(c *Config) { c.Output.ColorMode = "sepia" }},
		{"binarization", func(c *Config) { c.Output.Binarization.Method = "niblack" }},
		{"window size", func(c *Config) { c.Output.Binarization.WindowSize = 1 }},
		{"wolf bounds", func(c *Config) { c.Output.Binarization.WolfLowerBound = 254 }},
		{"despeckle", func(c *Config) { c.Output.Despeckle = "extreme" }},
		{"layout type", func(c *Config) { c.PageSplit.LayoutType = "3" }},
		{"content mode", func(c *Config) { c.Content.ContentDetection = "maybe" }},
		{"alignment", func(c *Config) { c.Layout.Alignment = "middle-earth" }},
		{"negative margin", func(c *Config) { c.Layout.Margins.Left = -1 }},
		{"depth perception", func(c *Config) { c.Output.DepthPerception = 5 }},
		{"filling color", func(c *Config) { c.Output.FillingColor = "pink" }},
		{"state driver", func(c *Config) { c.State.Driver = "etcd" }},
		{"progress", func(c *Config) { c.UI.Progress = "fireworks" }},
		{"max angle", func(c *Config) { c.Deskew.MaxAngle = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
		})
	}
}

func TestCollaborators_SkewSearchRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deskew.MaxAngle = 3

	collab := cfg.Collaborators()
	require.NotNil(t, collab.SkewFinder)
	assert.Nil(t, collab.Binarizer)
}
