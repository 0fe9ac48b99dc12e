package commands

import (
	"github.com/spf13/cobra"
)

// flags holds the command line values. Only flags the user set override the
// configuration file and the environment.
type flags struct {
	cfgFile         string
	outputDir       string
	generateProject bool
	logLevel        string
	logFormat       string

	dpi       int
	forceDpi  bool
	outputDpi int
	layout    string

	colorMode           string
	binarization        string
	thresholdAdjustment int
	windowSize          int
	sauvolaK            float64
	wolfLowerBound      int
	wolfUpperBound      int
	wolfK               float64
	despeckle           string
	pictureShape        string
	dewarping           string

	stateDriver string
	noState     bool
	progress    string
	noColor     bool
}

func newRootCmd(version string) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "scantailor-cli [flags] -o OUTPUT_DIRECTORY INPUT_FILES...",
		Short: "Batch post-processing of scanned pages",
		Long: `scantailor-cli runs scanned page images through fix orientation, page split,
deskew, content selection, page layout and output, and writes one TIFF per page
into the output directory. Results of earlier runs are reused when their inputs
did not change.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}
	cmd.SetVersionTemplate("scantailor-cli - {{.Version}}\n")

	general := cmd.Flags()
	general.StringVarP(&f.outputDir, "output-directory", "o", "", "The required output directory (created if missing)")
	general.BoolVar(&f.generateProject, "generate-project", false, "Write a project.ScanTailor file into the output directory")
	general.BoolVar(&f.generateProject, "gp", false, "Shorthand for --generate-project")
	general.StringVarP(&f.logLevel, "log-level", "l", "", "Log level: error, warning, info or debug")
	general.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")
	general.StringVarP(&f.cfgFile, "config", "c", "", "Config file path")
	_ = cmd.MarkFlagRequired("output-directory")
	_ = general.MarkHidden("gp")

	general.IntVar(&f.dpi, "dpi", 0, "Resolution used for images whose own resolution is out of range")
	general.BoolVar(&f.forceDpi, "force-dpi", false, "Use --dpi for every image")
	general.IntVar(&f.outputDpi, "output-dpi", 0, "Output resolution")
	general.StringVar(&f.layout, "layout", "", "Page layout: auto, 1, 1.5 or 2")

	general.StringVar(&f.colorMode, "color-mode", "", "Output mode: black_and_white, color_grayscale or mixed")
	general.StringVar(&f.binarization, "binarization", "", "Binarization method: otsu, sauvola or wolf")
	general.IntVar(&f.thresholdAdjustment, "threshold", 0, "Threshold adjustment in [-50, 50]")
	general.IntVar(&f.windowSize, "window-size", 0, "Window size of local binarization")
	general.Float64Var(&f.sauvolaK, "sauvola-coef", 0, "Sauvola k coefficient")
	general.IntVar(&f.wolfLowerBound, "wolf-lower-bound", 0, "Wolf lower bound")
	general.IntVar(&f.wolfUpperBound, "wolf-upper-bound", 0, "Wolf upper bound")
	general.Float64Var(&f.wolfK, "wolf-coef", 0, "Wolf k coefficient")
	general.StringVar(&f.despeckle, "despeckle", "", "Despeckling: off, cautious, normal or aggressive")
	general.StringVar(&f.pictureShape, "picture-shape", "", "Picture detection in mixed mode: off, free or rectangular")
	general.StringVar(&f.dewarping, "dewarping", "", "Dewarping: off, auto, manual or marginal")

	general.StringVar(&f.stateDriver, "state-driver", "", "Run state backend: sqlite, file, redis or none")
	general.BoolVar(&f.noState, "no-state", false, "Neither load nor save run state")
	general.StringVar(&f.progress, "progress", "", "Progress display: bar, stages, spinner or none")
	general.BoolVar(&f.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}
