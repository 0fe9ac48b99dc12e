package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/output"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/project"
)

// maxLayoutRebuilds bounds how often the pages of one image are rebuilt
// after its layout changed within a run.
const maxLayoutRebuilds = 2

type pageStatus int

const (
	statusPending pageStatus = iota
	statusProcessed
	statusReused
	statusFailed
	statusCancelled
)

// Summary describes the outcome of a run.
type Summary struct {
	RunID     string
	Pages     int
	Processed int
	Reused    int
	Failed    int
	Cancelled int
	Duration  time.Duration
}

// Runner processes every page of a project through its chain, one page at a
// time.
type Runner struct {
	runID   string
	pages   *project.Pages
	stores  *project.Stores
	builder *Builder
	load    *LoadStep
	logger  *observability.Logger

	eventCh chan<- Event
	index   int
	total   int
	status  map[domain.PageID]pageStatus
	order   []domain.PageID
	reused  bool
}

// NewRunner returns a runner over pages. The builder is created here so the
// runner can observe every chain it builds.
func NewRunner(
	pages *project.Pages,
	stores *project.Stores,
	loader ImageLoader,
	names output.FileNameGenerator,
	collab Collaborators,
	logger *observability.Logger,
) *Runner {
	r := &Runner{
		runID:  uuid.NewString(),
		pages:  pages,
		stores: stores,
		logger: logger.WithOperation("run"),
	}
	r.builder = NewBuilder(stores, pages, names, collab, r, logger)
	r.load = NewLoadStep(loader, pages, logger)
	return r
}

func (r *Runner) RunID() string { return r.runID }

// SetRunID replaces the generated run id, so callers can stamp their own
// logs before the runner exists.
func (r *Runner) SetRunID(id string) {
	if id != "" {
		r.runID = id
	}
}

// Run processes all pages. Events are sent to eventCh without blocking; a
// nil channel disables them. Pages whose layout changes are rebuilt and
// processed in place of the old ones, and pages laid out before the
// aggregate page size settled are processed again.
func (r *Runner) Run(ctx context.Context, eventCh chan<- Event) (Summary, error) {
	start := time.Now()
	r.eventCh = eventCh
	r.status = make(map[domain.PageID]pageStatus)
	r.order = nil
	queue := r.pages.Pages()
	r.total = len(queue)
	r.index = 0

	r.emit(Event{Type: EventStart, Total: r.total, Payload: fmt.Sprintf("Starting run %s over %d pages", r.runID, r.total)})
	r.logger.Info().Str("run_id", r.runID).Int("pages", r.total).Msg("run started")

	aggregateAt := make(map[domain.PageID]geom.Size)
	rebuilds := make(map[domain.ImageID]int)
	cancelled := false

	for len(queue) > 0 {
		pageID := queue[0]
		queue = queue[1:]
		if cancelled {
			r.setStatus(pageID, statusCancelled)
			continue
		}
		if !r.pages.LayoutOf(pageID.Image).Includes(pageID.SubPage) {
			continue
		}

		err := r.processPage(ctx, pageID)
		switch {
		case err == nil:
			aggregateAt[pageID] = r.stores.PageLayout.AggregateHardSizeMM()

		case errors.Is(err, domain.ErrLayoutChanged):
			rebuilds[pageID.Image]++
			if rebuilds[pageID.Image] > maxLayoutRebuilds {
				r.fail(pageID, domain.InternalError(fmt.Sprintf("layout of %s keeps changing", pageID.Image), err))
				continue
			}
			fresh := r.pages.PagesOf(pageID.Image)
			r.total += len(fresh) - 1
			r.index--
			r.logger.Info().
				Str("image", pageID.Image.String()).
				Int("pages", len(fresh)).
				Msg("rebuilding pages of image")
			queue = append(fresh, dropImage(queue, pageID.Image)...)

		case errors.Is(err, domain.ErrCancelled):
			r.setStatus(pageID, statusCancelled)
			cancelled = true

		default:
			r.fail(pageID, err)
		}
	}

	if !cancelled {
		cancelled = r.rerunStalePages(ctx, aggregateAt)
	}

	summary := r.summary(time.Since(start))
	r.emit(Event{
		Type: EventComplete,
		Payload: fmt.Sprintf("Run complete: %d processed, %d reused, %d failed, %d cancelled in %v",
			summary.Processed, summary.Reused, summary.Failed, summary.Cancelled, summary.Duration.Round(time.Millisecond)),
	})
	r.logger.Info().
		Int("processed", summary.Processed).
		Int("reused", summary.Reused).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Dur("duration", summary.Duration).
		Msg("run complete")

	if cancelled {
		return summary, domain.CheckCancelled(ctx)
	}
	if summary.Pages > 0 && summary.Failed == summary.Pages {
		return summary, domain.InternalError("all pages failed", nil)
	}
	return summary, nil
}

// rerunStalePages processes again the pages laid out against an aggregate
// page size that changed afterwards. Upstream stages reuse their results.
func (r *Runner) rerunStalePages(ctx context.Context, aggregateAt map[domain.PageID]geom.Size) bool {
	final := r.stores.PageLayout.AggregateHardSizeMM()
	var stale []domain.PageID
	for _, pageID := range r.order {
		if at, ok := aggregateAt[pageID]; ok && at != final {
			stale = append(stale, pageID)
		}
	}
	if len(stale) == 0 {
		return false
	}
	r.logger.Info().Int("pages", len(stale)).Msg("aggregate page size changed, processing pages again")
	r.index = 0
	r.total = len(stale)
	for _, pageID := range stale {
		err := r.processPage(ctx, pageID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrCancelled):
			r.setStatus(pageID, statusCancelled)
			return true
		default:
			r.fail(pageID, err)
		}
	}
	return false
}

func (r *Runner) processPage(ctx context.Context, pageID domain.PageID) error {
	if err := domain.CheckCancelled(ctx); err != nil {
		return err
	}
	r.index++
	r.reused = false
	r.emit(Event{
		Type:    EventPageProcessing,
		Page:    pageID,
		Payload: fmt.Sprintf("Processing page %s", pageID),
	})
	r.logger.Debug().Str("page", pageID.String()).Msg("processing page")

	if err := r.load.Process(ctx, pageID, r.builder.Build(pageID)); err != nil {
		return err
	}

	if r.reused {
		r.setStatus(pageID, statusReused)
	} else {
		r.setStatus(pageID, statusProcessed)
	}
	r.emit(Event{
		Type:    EventPageComplete,
		Page:    pageID,
		Payload: fmt.Sprintf("Completed page %s", pageID),
	})
	return nil
}

func (r *Runner) fail(pageID domain.PageID, err error) {
	r.setStatus(pageID, statusFailed)
	r.logger.Error().Err(err).Str("page", pageID.String()).Msg("page failed")
	r.emit(Event{
		Type:    EventError,
		Page:    pageID,
		Err:     err,
		Payload: fmt.Sprintf("page %s: %v", pageID, err),
	})
}

func (r *Runner) setStatus(pageID domain.PageID, s pageStatus) {
	if _, ok := r.status[pageID]; !ok {
		r.order = append(r.order, pageID)
	}
	r.status[pageID] = s
}

func (r *Runner) summary(d time.Duration) Summary {
	s := Summary{RunID: r.runID, Duration: d}
	for _, pageID := range r.order {
		if !r.pages.LayoutOf(pageID.Image).Includes(pageID.SubPage) {
			continue
		}
		s.Pages++
		switch r.status[pageID] {
		case statusProcessed:
			s.Processed++
		case statusReused:
			s.Reused++
		case statusFailed:
			s.Failed++
		case statusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// StageComplete implements ChainObserver.
func (r *Runner) StageComplete(id domain.PageID, stage string) {
	r.emit(Event{Type: EventStageComplete, Page: id, Stage: stage})
}

// OutputWritten implements ChainObserver.
func (r *Runner) OutputWritten(id domain.PageID, path string, reused bool) {
	r.reused = reused
	if reused {
		r.emit(Event{Type: EventOutputReused, Page: id, Stage: StageOutput, Payload: path})
	}
}

// emit sends an event without blocking the run.
func (r *Runner) emit(e Event) {
	if r.eventCh == nil {
		return
	}
	e.RunID = r.runID
	e.Index = r.index
	e.Total = r.total
	e.Timestamp = time.Now()
	select {
	case r.eventCh <- e:
	default:
		r.logger.Warn().Str("event", string(e.Type)).Msg("event channel full, dropping event")
	}
}

func dropImage(queue []domain.PageID, id domain.ImageID) []domain.PageID {
	out := queue[:0:0]
	for _, p := range queue {
		if p.Image != id {
			out = append(out, p)
		}
	}
	return out
}
