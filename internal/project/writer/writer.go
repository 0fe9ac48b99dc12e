// Package writer renders the project document: the input files, the page
// sequence and the settings of every stage.
package writer

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/project"
)

// StageKind tags the stage elements under <filters>.
type StageKind int

const (
	FixOrientationStage StageKind = iota
	PageSplitStage
	DeskewStage
	SelectContentStage
	PageLayoutStage
	OutputStage
)

// StageOrder is the pipeline order the stage elements are written in.
var StageOrder = []StageKind{
	FixOrientationStage,
	PageSplitStage,
	DeskewStage,
	SelectContentStage,
	PageLayoutStage,
	OutputStage,
}

func (k StageKind) String() string {
	switch k {
	case FixOrientationStage:
		return "fix-orientation"
	case PageSplitStage:
		return "page-split"
	case DeskewStage:
		return "deskew"
	case SelectContentStage:
		return "select-content"
	case PageLayoutStage:
		return "page-layout"
	case OutputStage:
		return "output"
	}
	return fmt.Sprintf("stage(%d)", int(k))
}

type Document struct {
	XMLName         xml.Name           `xml:"project"`
	OutputDirectory string             `xml:"outputDirectory,attr"`
	LayoutDirection string             `xml:"layoutDirection,attr"`
	Directories     []DirectoryElement `xml:"directories>directory"`
	Files           []FileElement      `xml:"files>file"`
	Images          []ImageElement     `xml:"images>image"`
	Pages           []PageElement      `xml:"pages>page"`
	Filters         FiltersElement     `xml:"filters"`
}

type DirectoryElement struct {
	ID   int    `xml:"id,attr"`
	Path string `xml:"path,attr"`
}

type FileElement struct {
	ID    int    `xml:"id,attr"`
	DirID int    `xml:"dirId,attr"`
	Name  string `xml:"name,attr"`
}

type ImageElement struct {
	ID        int         `xml:"id,attr"`
	SubPages  int         `xml:"subPages,attr"`
	FileID    int         `xml:"fileId,attr"`
	FileImage int         `xml:"fileImage,attr"`
	Size      SizeElement `xml:"size"`
	Dpi       DpiElement  `xml:"dpi"`
}

type SizeElement struct {
	Width  int `xml:"width,attr"`
	Height int `xml:"height,attr"`
}

type DpiElement struct {
	Horizontal int `xml:"horizontal,attr"`
	Vertical   int `xml:"vertical,attr"`
}

type PageElement struct {
	ID      int    `xml:"id,attr"`
	ImageID int    `xml:"imageId,attr"`
	SubPage string `xml:"subPage,attr"`
}

// FiltersElement holds one element per stage. Each element names itself.
type FiltersElement struct {
	Stages []any
}

// Writer builds the project document of a run.
type Writer struct {
	outDir string
	pages  *project.Pages
	stores *project.Stores
}

func New(outDir string, pages *project.Pages, stores *project.Stores) *Writer {
	return &Writer{outDir: outDir, pages: pages, stores: stores}
}

// numbering assigns the document ids: directories, files, images and pages
// share one sequence.
type numbering struct {
	images   []domain.ImageID
	pages    []domain.PageID
	imageIDs map[domain.ImageID]int
	pageIDs  map[domain.PageID]int
	dirs     []string
	dirIDs   map[string]int
	files    []string
	fileIDs  map[string]int
}

func newNumbering(pages *project.Pages) *numbering {
	n := &numbering{
		images:   pages.Images(),
		pages:    pages.Pages(),
		imageIDs: make(map[domain.ImageID]int),
		pageIDs:  make(map[domain.PageID]int),
		dirIDs:   make(map[string]int),
		fileIDs:  make(map[string]int),
	}
	next := 1
	for _, img := range n.images {
		dir := filepath.Dir(img.FilePath)
		if _, ok := n.dirIDs[dir]; !ok {
			n.dirIDs[dir] = next
			n.dirs = append(n.dirs, dir)
			next++
		}
	}
	for _, img := range n.images {
		if _, ok := n.fileIDs[img.FilePath]; !ok {
			n.fileIDs[img.FilePath] = next
			n.files = append(n.files, img.FilePath)
			next++
		}
	}
	for _, img := range n.images {
		n.imageIDs[img] = next
		next++
	}
	for _, page := range n.pages {
		n.pageIDs[page] = next
		next++
	}
	return n
}

func (n *numbering) Images() []domain.ImageID { return n.images }
func (n *numbering) Pages() []domain.PageID   { return n.pages }

func (n *numbering) ImageNumericID(id domain.ImageID) (int, bool) {
	v, ok := n.imageIDs[id]
	return v, ok
}

func (n *numbering) PageNumericID(id domain.PageID) (int, bool) {
	v, ok := n.pageIDs[id]
	return v, ok
}

// Document assembles the project document from the current state.
func (w *Writer) Document() Document {
	ids := newNumbering(w.pages)
	doc := Document{
		OutputDirectory: w.outDir,
		LayoutDirection: "LTR",
	}
	for _, dir := range ids.dirs {
		doc.Directories = append(doc.Directories, DirectoryElement{ID: ids.dirIDs[dir], Path: dir})
	}
	for _, file := range ids.files {
		doc.Files = append(doc.Files, FileElement{
			ID:    ids.fileIDs[file],
			DirID: ids.dirIDs[filepath.Dir(file)],
			Name:  filepath.Base(file),
		})
	}
	for _, info := range w.pages.ImageInfos() {
		doc.Images = append(doc.Images, ImageElement{
			ID:        ids.imageIDs[info.ID],
			SubPages:  len(info.Layout.SubPages()),
			FileID:    ids.fileIDs[info.ID.FilePath],
			FileImage: info.ID.Page,
			Size:      SizeElement{Width: info.Metadata.Width, Height: info.Metadata.Height},
			Dpi:       DpiElement{Horizontal: info.Metadata.Dpi.Horizontal, Vertical: info.Metadata.Dpi.Vertical},
		})
	}
	for _, page := range ids.pages {
		doc.Pages = append(doc.Pages, PageElement{
			ID:      ids.pageIDs[page],
			ImageID: ids.imageIDs[page.Image],
			SubPage: page.SubPage.String(),
		})
	}
	for _, kind := range StageOrder {
		doc.Filters.Stages = append(doc.Filters.Stages, w.stageElement(kind, ids))
	}
	return doc
}

func (w *Writer) stageElement(kind StageKind, ids *numbering) any {
	switch kind {
	case FixOrientationStage:
		return w.stores.FixOrientation.ProjectXML(ids)
	case PageSplitStage:
		return w.stores.PageSplit.ProjectXML(ids)
	case DeskewStage:
		return w.stores.Deskew.ProjectXML(ids)
	case SelectContentStage:
		return w.stores.SelectContent.ProjectXML(ids)
	case PageLayoutStage:
		return w.stores.PageLayout.ProjectXML(ids)
	case OutputStage:
		return w.stores.Output.ProjectXML(ids)
	}
	panic(fmt.Sprintf("unknown stage %s", kind))
}

// Encode writes the document with an XML header.
func (w *Writer) Encode(dst io.Writer) error {
	if _, err := io.WriteString(dst, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(dst)
	enc.Indent("", "  ")
	if err := enc.Encode(w.Document()); err != nil {
		return err
	}
	_, err := io.WriteString(dst, "\n")
	return err
}

// WriteFile writes the document to path, replacing any previous file.
func (w *Writer) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.IOError("failed to create project directory", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".project-*")
	if err != nil {
		return domain.IOError("failed to create project file", err)
	}
	defer os.Remove(tmp.Name())
	if err := w.Encode(tmp); err != nil {
		tmp.Close()
		return domain.IOError("failed to encode project", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.IOError("failed to write project file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.IOError("failed to move project file into place", err)
	}
	return nil
}
