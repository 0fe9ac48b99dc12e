package writer

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/filters/deskew"
	"github.com/scantailor/scantailor-cli/internal/geom"
	"github.com/scantailor/scantailor-cli/internal/project"
)

func fixture() (*project.Pages, *project.Stores, domain.ImageID, domain.ImageID) {
	a := domain.NewImageID("/scans/a.png", 0)
	b := domain.NewImageID("/scans/b.png", 0)
	pages := project.NewPages([]project.ImageInfo{
		{ID: a, Metadata: domain.ImageMetadata{Width: 100, Height: 200, Dpi: domain.NewDpi(300)}},
		{ID: b, Metadata: domain.ImageMetadata{Width: 300, Height: 200, Dpi: domain.NewDpi(300)}},
	})
	pages.SetLayoutTypeFor(b, domain.TwoPageLayout)
	return pages, project.NewStores(project.DefaultStoreOptions()), a, b
}

func TestDocument_Numbering(t *testing.T) {
	pages, stores, _, _ := fixture()
	doc := New("/out", pages, stores).Document()

	require.Len(t, doc.Directories, 1)
	assert.Equal(t, DirectoryElement{ID: 1, Path: "/scans"}, doc.Directories[0])
	require.Len(t, doc.Files, 2)
	assert.Equal(t, FileElement{ID: 2, DirID: 1, Name: "a.png"}, doc.Files[0])
	require.Len(t, doc.Images, 2)
	assert.Equal(t, 4, doc.Images[0].ID)
	assert.Equal(t, 1, doc.Images[0].SubPages)
	assert.Equal(t, 2, doc.Images[1].SubPages)
	assert.Equal(t, SizeElement{Width: 300, Height: 200}, doc.Images[1].Size)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, PageElement{ID: 6, ImageID: 4, SubPage: domain.SinglePage.String()}, doc.Pages[0])
	assert.Equal(t, PageElement{ID: 8, ImageID: 5, SubPage: domain.RightPage.String()}, doc.Pages[2])
}

func TestEncode_StagesInPipelineOrder(t *testing.T) {
	pages, stores, a, _ := fixture()
	stores.Deskew.Set(domain.NewPageID(a, domain.SinglePage), deskewParams())

	var buf bytes.Buffer
	require.NoError(t, New("/out", pages, stores).Encode(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<project outputDirectory="/out" layoutDirection="LTR">`)
	last := -1
	for _, kind := range StageOrder {
		i := strings.Index(out, "<"+kind.String())
		require.GreaterOrEqual(t, i, 0, kind.String())
		assert.Greater(t, i, last, kind.String())
		last = i
	}
	assert.Contains(t, out, `<page id="6">`)
}

func TestWriter_IsNotAnIOWriterTo(t *testing.T) {
	pages, stores, _, _ := fixture()
	_, ok := any(New("/out", pages, stores)).(io.WriterTo)
	assert.False(t, ok)
}

func TestWriteFile(t *testing.T) {
	pages, stores, _, _ := fixture()
	path := filepath.Join(t.TempDir(), "nested", "project.ScanTailor")

	require.NoError(t, New("/out", pages, stores).WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		XMLName xml.Name `xml:"project"`
		Pages   []struct {
			ID int `xml:"id,attr"`
		} `xml:"pages>page"`
	}
	require.NoError(t, xml.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Pages, 3)
}

func TestStageKind_String(t *testing.T) {
	assert.Equal(t, "select-content", SelectContentStage.String())
	assert.Equal(t, "stage(42)", StageKind(42).String())
}

func deskewParams() deskew.Params {
	return deskew.Params{
		Angle: 0.75,
		Deps:  deskew.NewDependencies(geom.R(0, 0, 100, 200).ToPolygon(), 0),
		Mode:  domain.ModeAuto,
	}
}
