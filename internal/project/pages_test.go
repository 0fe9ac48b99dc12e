package project

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

func twoImages() (*Pages, domain.ImageID, domain.ImageID) {
	a := domain.NewImageID("/in/a.png", 0)
	b := domain.NewImageID("/in/b.png", 0)
	return NewPages([]ImageInfo{{ID: a}, {ID: b}}), a, b
}

func TestPages_StartAsSinglePages(t *testing.T) {
	p, a, b := twoImages()
	assert.Equal(t, []domain.PageID{
		domain.NewPageID(a, domain.SinglePage),
		domain.NewPageID(b, domain.SinglePage),
	}, p.Pages())
}

func TestPages_SetLayoutTypeFor(t *testing.T) {
	p, a, b := twoImages()

	assert.True(t, p.SetLayoutTypeFor(a, domain.TwoPageLayout))
	assert.False(t, p.SetLayoutTypeFor(a, domain.TwoPageLayout))
	assert.False(t, p.SetLayoutTypeFor(domain.NewImageID("/in/x.png", 0), domain.TwoPageLayout))

	assert.Equal(t, []domain.PageID{
		domain.NewPageID(a, domain.LeftPage),
		domain.NewPageID(a, domain.RightPage),
		domain.NewPageID(b, domain.SinglePage),
	}, p.Pages())
	assert.Equal(t, map[domain.ImageID]domain.ImageLayout{a: domain.TwoPageLayout}, p.Layouts())
}

func TestPages_RestoreLayouts(t *testing.T) {
	p, a, _ := twoImages()
	gone := domain.NewImageID("/in/gone.png", 0)
	p.RestoreLayouts(map[domain.ImageID]domain.ImageLayout{a: domain.TwoPageLayout, gone: domain.TwoPageLayout})

	assert.Equal(t, domain.TwoPageLayout, p.LayoutOf(a))
	assert.Len(t, p.Images(), 2)
}

func TestPages_UpdateMetadata(t *testing.T) {
	p, a, _ := twoImages()
	m := domain.ImageMetadata{Width: 10, Height: 20, Dpi: domain.NewDpi(300)}

	assert.True(t, p.UpdateMetadata(a, m))
	assert.False(t, p.UpdateMetadata(a, m))
	got, ok := p.Metadata(a)
	assert.True(t, ok)
	assert.Equal(t, m, got)
}

func TestSortNatural(t *testing.T) {
	paths := []string{"/s/page10.png", "/s/Page2.png", "/s/page1.png", "/a/z.png"}
	SortNatural(paths)
	assert.Equal(t, []string{"/a/z.png", "/s/page1.png", "/s/Page2.png", "/s/page10.png"}, paths)
}
