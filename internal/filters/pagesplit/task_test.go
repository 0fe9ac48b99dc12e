package pagesplit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters"
	"github.com/scantailor/scantailor-cli/internal/filters/filterstest"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// typedEstimator returns a layout of the requested type and counts calls.
type typedEstimator struct {
	mu     sync.Mutex
	calls  int
	before func(call int)
}

func (e *typedEstimator) EstimatePageLayout(_ context.Context, layoutType LayoutType, data filters.FilterData) (PageLayout, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()
	if e.before != nil {
		e.before(call)
	}
	outline := data.Xform().ResultingRect()
	switch layoutType {
	case TwoPages:
		return TwoPagesLayout(outline, geom.VerticalLine(outline.Center().X)), nil
	case PagePlusOffcut:
		return SingleCutLayout(outline, geom.VerticalLine(outline.X+10), geom.VerticalLine(outline.Right()-10)), nil
	}
	return UncutLayout(outline), nil
}

func (e *typedEstimator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type layoutMap struct {
	mu      sync.Mutex
	layouts map[domain.ImageID]domain.ImageLayout
}

func (m *layoutMap) SetLayoutTypeFor(id domain.ImageID, layout domain.ImageLayout) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.layouts == nil {
		m.layouts = map[domain.ImageID]domain.ImageLayout{}
	}
	old, ok := m.layouts[id]
	m.layouts[id] = layout
	return !ok || old != layout
}

func TestTask_ReusesCompatibleParams(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings(AutoLayoutType)
	est := &typedEstimator{}
	rec := &filterstest.Recorder{}
	task := NewTask(pageID, s, &layoutMap{}, est, rec, observability.Nop())
	data := filterstest.Data(200, 300, 20)

	require.NoError(t, task.Process(context.Background(), data))
	first, _ := s.PageRecord(pageID.Image)
	require.NoError(t, task.Process(context.Background(), data))
	second, _ := s.PageRecord(pageID.Image)

	assert.Equal(t, 1, est.Calls())
	assert.Equal(t, *first.Params, *second.Params)
	assert.Len(t, rec.Calls, 2)
}

func TestTask_DetectsSpreadAndReportsLayoutChange(t *testing.T) {
	imageID := domain.NewImageID("spread.png", 0)
	s := NewSettings(AutoLayoutType)
	pages := &layoutMap{}
	data := filters.NewFilterData(filterstest.Spread(600, 400), domain.NewDpi(300))

	single := NewTask(domain.NewPageID(imageID, domain.SinglePage), s, pages, nil, &filterstest.Recorder{}, observability.Nop())
	err := single.Process(context.Background(), data)
	require.ErrorIs(t, err, domain.ErrLayoutChanged)
	assert.Equal(t, domain.TwoPageLayout, pages.layouts[imageID])

	rec := &filterstest.Recorder{}
	left := NewTask(domain.NewPageID(imageID, domain.LeftPage), s, pages, nil, rec, observability.Nop())
	require.NoError(t, left.Process(context.Background(), data))

	area := rec.Last().Xform().ResultingRect()
	assert.InDelta(t, 0, area.X, 1e-6)
	assert.Greater(t, area.W, 250.0)
	assert.Less(t, area.W, 330.0)
}

func TestGutterEstimator_DownscaledSpreadKeepsItsInk(t *testing.T) {
	data := filters.NewFilterData(filterstest.Spread(1200, 800), domain.NewDpi(300))

	l, err := NewGutterEstimator().EstimatePageLayout(context.Background(), AutoLayoutType, data)

	require.NoError(t, err)
	assert.Equal(t, KindTwoPages, l.Kind)
}

func TestTask_PortraitStaysSinglePage(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings(AutoLayoutType)
	pages := &layoutMap{}
	task := NewTask(pageID, s, pages, nil, &filterstest.Recorder{}, observability.Nop())

	require.NoError(t, task.Process(context.Background(), filterstest.Data(200, 300, 20)))

	record, _ := s.PageRecord(pageID.Image)
	assert.Equal(t, KindUncut, record.Params.Layout.Kind)
	assert.Equal(t, domain.OnePageLayout, pages.layouts[pageID.Image])
}

func TestTask_ConcurrentUpdateIsRederived(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings(AutoLayoutType)
	est := &typedEstimator{}
	est.before = func(call int) {
		if call == 1 {
			s.UpdatePage(pageID.Image, UpdateAction{}.SetLayoutType(TwoPages).ClearParams())
		}
	}
	task := NewTask(pageID, s, &layoutMap{}, est, &filterstest.Recorder{}, observability.Nop())

	err := task.Process(context.Background(), filterstest.Data(300, 200, 10))

	require.ErrorIs(t, err, domain.ErrLayoutChanged)
	assert.Equal(t, 2, est.Calls())
	record, _ := s.PageRecord(pageID.Image)
	assert.False(t, record.HasLayoutTypeConflict())
	assert.Equal(t, TwoPages, record.CombinedLayoutType())
	assert.Equal(t, KindTwoPages, record.Params.Layout.Kind)
}

func TestTask_ConcurrentWritersNeverLeaveConflict(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings(AutoLayoutType)
	task := NewTask(pageID, s, &layoutMap{}, &typedEstimator{}, nil, observability.Nop())
	data := filterstest.Data(300, 200, 10)
	types := []LayoutType{TwoPages, SinglePageUncut, AutoLayoutType, PagePlusOffcut}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- task.Process(context.Background(), data)
		}()
		go func(i int) {
			defer wg.Done()
			rec := s.UpdatePage(pageID.Image, UpdateAction{}.SetLayoutType(types[i%len(types)]))
			assert.False(t, rec.HasLayoutTypeConflict())
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err == nil || errors.Is(err, domain.ErrLayoutChanged) {
			continue
		}
		assert.True(t, domain.IsType(err, domain.ErrorTypeInternal), "unexpected error %v", err)
	}
	record, _ := s.PageRecord(pageID.Image)
	assert.False(t, record.HasLayoutTypeConflict())
}

func TestTask_EstimateOfWrongTypeIsInternalError(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings(TwoPages)
	task := NewTask(pageID, s, &layoutMap{}, wrongEstimator{}, nil, observability.Nop())

	err := task.Process(context.Background(), filterstest.Data(300, 200, 10))

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeInternal))
	record, _ := s.PageRecord(pageID.Image)
	assert.Nil(t, record.Params)
}

type wrongEstimator struct{}

func (wrongEstimator) EstimatePageLayout(_ context.Context, _ LayoutType, data filters.FilterData) (PageLayout, error) {
	return UncutLayout(data.Xform().ResultingRect()), nil
}

func TestTask_ManualLayoutIsAdaptedToNewSize(t *testing.T) {
	pageID, _ := filterstest.SinglePage("a.png")
	s := NewSettings(AutoLayoutType)
	oldOutline := geom.R(0, 0, 100, 200)
	manual := Params{
		Layout:        SingleCutLayout(oldOutline, geom.VerticalLine(10), geom.VerticalLine(90)),
		Deps:          NewDependencies(geom.Size{W: 100, H: 200}, 0, PagePlusOffcut),
		SplitLineMode: domain.ModeManual,
	}
	s.UpdatePage(pageID.Image, UpdateAction{}.SetLayoutType(PagePlusOffcut).SetParams(manual))
	est := &typedEstimator{}
	task := NewTask(pageID, s, &layoutMap{}, est, nil, observability.Nop())

	require.NoError(t, task.Process(context.Background(), filterstest.Data(200, 400, 10)))

	record, _ := s.PageRecord(pageID.Image)
	assert.Equal(t, 0, est.Calls())
	assert.Equal(t, domain.ModeManual, record.Params.SplitLineMode)
	assert.InDelta(t, 20, record.Params.Layout.Cutter1.XAt(0), 1e-9)
	assert.InDelta(t, 180, record.Params.Layout.Cutter2.XAt(0), 1e-9)
}

func TestCorrectPageLayoutType(t *testing.T) {
	outline := geom.R(0, 0, 100, 100)
	tests := []struct {
		name   string
		layout PageLayout
		want   LayoutKind
	}{
		{"gutter inside", TwoPagesLayout(outline, geom.VerticalLine(50)), KindTwoPages},
		{"gutter outside", TwoPagesLayout(outline, geom.VerticalLine(150)), KindUncut},
		{"cut touching both edges", SingleCutLayout(outline, geom.VerticalLine(0), geom.VerticalLine(100)), KindUncut},
		{"real cut", SingleCutLayout(outline, geom.VerticalLine(5), geom.VerticalLine(100)), KindSingleCut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectPageLayoutType(tt.layout).Kind)
		})
	}
}

func TestSettings_SetLayoutTypeForAllDropsContradictions(t *testing.T) {
	id := domain.NewImageID("a.png", 0)
	s := NewSettings(AutoLayoutType)
	s.UpdatePage(id, UpdateAction{}.SetLayoutType(AutoLayoutType).SetParams(Params{Layout: UncutLayout(geom.R(0, 0, 1, 1))}))

	s.SetLayoutTypeForAll(TwoPages)

	record, _ := s.PageRecord(id)
	assert.Nil(t, record.LayoutType)
	assert.Nil(t, record.Params)
	assert.Equal(t, TwoPages, record.CombinedLayoutType())
}

func TestSettings_ProjectXML(t *testing.T) {
	pageID, ids := filterstest.SinglePage("a.png")
	s := NewSettings(AutoLayoutType)
	task := NewTask(pageID, s, &layoutMap{}, &typedEstimator{}, nil, observability.Nop())
	require.NoError(t, task.Process(context.Background(), filterstest.Data(200, 300, 20)))

	el := s.ProjectXML(ids)
	assert.Equal(t, "auto-detect", el.DefaultLayoutType)
	require.Len(t, el.Images, 1)
	assert.Equal(t, "single-uncut", el.Images[0].Params.Pages.Type)
	assert.Equal(t, 200.0, el.Images[0].Params.Dependencies.Size.Width)
}
