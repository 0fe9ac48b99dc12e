package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scantailor/scantailor-cli/internal/config"
	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/imageio"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/pipeline"
	"github.com/scantailor/scantailor-cli/internal/project"
	"github.com/scantailor/scantailor-cli/internal/project/writer"
	"github.com/scantailor/scantailor-cli/internal/state"
	"github.com/scantailor/scantailor-cli/internal/ui"
)

func run(cmd *cobra.Command, f *flags, inputs []string) error {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.UI.NoColor)
	runID := uuid.NewString()
	logger := observability.NewLogger(cfg.LogConfig(cmd.ErrOrStderr(), runID))

	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		return domain.IOError(fmt.Sprintf("cannot create output directory %s", f.outputDir), err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			out.Warning("Received interrupt signal, finishing the current page...")
			cancel()
		case <-ctx.Done():
		}
	}()

	storeOpts, err := cfg.StoreOptions()
	if err != nil {
		return err
	}
	loader := imageio.NewLoader(cfg.Input.PDFDPI)
	images, err := pipeline.CollectImages(ctx, loader, inputs, cfg.InputOptions(), logger)
	if err != nil {
		return err
	}
	pages := project.NewPages(images)
	stores := project.NewStores(storeOpts)

	manager := openState(ctx, cfg, f.outputDir, out, logger)
	if manager != nil {
		defer manager.Close()
		if _, err := manager.Load(ctx, pages, stores); err != nil {
			out.Warning("Previous state not loaded: %v", err)
		}
	}

	runner := pipeline.NewRunner(pages, stores, loader, output.NewFileNameGenerator(f.outputDir), cfg.Collaborators(), logger)
	runner.SetRunID(runID)

	out.Step("Processing %d images into %s", len(images), f.outputDir)
	eventCh := make(chan pipeline.Event, 256)
	done := make(chan struct{})
	go func() {
		ui.NewProgress(cfg.UI.Progress, cmd.ErrOrStderr()).Consume(eventCh)
		close(done)
	}()

	summary, runErr := runner.Run(ctx, eventCh)
	close(eventCh)
	<-done

	// Whatever was computed is kept, even for a cancelled run.
	if manager != nil {
		spin := ui.NewSpinner(cmd.ErrOrStderr(), "Saving state...")
		spin.Start()
		err := manager.Save(context.Background(), runID, pages, stores)
		spin.Stop()
		if err != nil {
			out.Warning("State not saved: %v", err)
		}
	}

	if cfg.Project.Generate && runErr == nil {
		path := filepath.Join(f.outputDir, cfg.Project.FileName)
		spin := ui.NewSpinner(cmd.ErrOrStderr(), "Writing project file...")
		spin.Start()
		err := writer.New(f.outputDir, pages, stores).WriteFile(path)
		spin.Stop()
		if err != nil {
			return err
		}
		out.Success("Project written to %s", path)
	}

	out.Summary(summary)
	return runErr
}

// openState returns the state manager selected by the configuration, or nil
// when state is disabled or the backend is unreachable.
func openState(ctx context.Context, cfg *config.Config, outDir string, out *ui.UI, logger *observability.Logger) *state.Manager {
	if cfg.StateConfig().Driver == state.DriverNone {
		return nil
	}
	backend, err := state.Open(ctx, cfg.StateConfig(), outDir, logger)
	if err != nil {
		out.Warning("Run state disabled: %v", err)
		return nil
	}
	if backend == nil {
		return nil
	}
	return state.NewManager(backend, outDir, logger)
}

// applyFlags copies the flags the user set onto cfg.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	set := cmd.Flags().Changed

	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if set("generate-project") || set("gp") {
		cfg.Project.Generate = f.generateProject
	}
	if set("dpi") {
		cfg.Input.DPI = f.dpi
	}
	if set("force-dpi") {
		cfg.Input.ForceDPI = f.forceDpi
	}
	if set("output-dpi") {
		cfg.Output.DPI = f.outputDpi
	}
	if set("layout") {
		cfg.PageSplit.LayoutType = f.layout
	}
	if set("color-mode") {
		cfg.Output.ColorMode = f.colorMode
	}
	if set("binarization") {
		cfg.Output.Binarization.Method = f.binarization
	}
	if set("threshold") {
		cfg.Output.Binarization.ThresholdAdjustment = f.thresholdAdjustment
	}
	if set("window-size") {
		cfg.Output.Binarization.WindowSize = f.windowSize
	}
	if set("sauvola-coef") {
		cfg.Output.Binarization.SauvolaK = f.sauvolaK
	}
	if set("wolf-lower-bound") {
		cfg.Output.Binarization.WolfLowerBound = f.wolfLowerBound
	}
	if set("wolf-upper-bound") {
		cfg.Output.Binarization.WolfUpperBound = f.wolfUpperBound
	}
	if set("wolf-coef") {
		cfg.Output.Binarization.WolfK = f.wolfK
	}
	if set("despeckle") {
		cfg.Output.Despeckle = f.despeckle
	}
	if set("picture-shape") {
		cfg.Output.PictureShape = f.pictureShape
	}
	if set("dewarping") {
		cfg.Output.Dewarping = f.dewarping
	}
	if set("state-driver") {
		cfg.State.Driver = f.stateDriver
	}
	if f.noState {
		cfg.State.Driver = state.DriverNone
	}
	if set("progress") {
		cfg.UI.Progress = f.progress
	}
	if f.noColor {
		cfg.UI.NoColor = true
	}
}
