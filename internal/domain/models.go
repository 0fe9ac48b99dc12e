package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SubPage selects a logical page within a source image.
type SubPage int

const (
	SinglePage SubPage = iota
	LeftPage
	RightPage
)

func (s SubPage) String() string {
	switch s {
	case LeftPage:
		return "left"
	case RightPage:
		return "right"
	default:
		return "single"
	}
}

// ParseSubPage converts the textual form produced by String.
func ParseSubPage(s string) (SubPage, error) {
	switch strings.ToLower(s) {
	case "single":
		return SinglePage, nil
	case "left":
		return LeftPage, nil
	case "right":
		return RightPage, nil
	}
	return SinglePage, fmt.Errorf("unknown sub page %q", s)
}

func (s SubPage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SubPage) UnmarshalText(text []byte) error {
	v, err := ParseSubPage(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ImageID identifies one image inside a (possibly multi-page) source file.
// Page is zero based.
type ImageID struct {
	FilePath string `json:"file"`
	Page     int    `json:"page"`
}

// NewImageID returns the id of page n of the file at path.
func NewImageID(path string, page int) ImageID {
	return ImageID{FilePath: path, Page: page}
}

func (id ImageID) String() string {
	return fmt.Sprintf("%s#%d", filepath.Base(id.FilePath), id.Page)
}

// PageID identifies a logical page. A page belongs to exactly one image.
type PageID struct {
	Image   ImageID `json:"image"`
	SubPage SubPage `json:"sub_page"`
}

// NewPageID returns the id of the given sub page of image.
func NewPageID(image ImageID, sub SubPage) PageID {
	return PageID{Image: image, SubPage: sub}
}

func (id PageID) String() string {
	return id.Image.String() + "/" + id.SubPage.String()
}

// AutoManualMode is the policy used by a stage for one of its results.
type AutoManualMode int

const (
	ModeAuto AutoManualMode = iota
	ModeManual
	ModeDisabled
)

func (m AutoManualMode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeDisabled:
		return "disabled"
	default:
		return "auto"
	}
}

// ParseAutoManualMode parses "auto", "manual" or "disabled".
func ParseAutoManualMode(s string) (AutoManualMode, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return ModeAuto, nil
	case "manual":
		return ModeManual, nil
	case "disabled":
		return ModeDisabled, nil
	}
	return ModeAuto, fmt.Errorf("unknown mode %q", s)
}

func (m AutoManualMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *AutoManualMode) UnmarshalText(text []byte) error {
	v, err := ParseAutoManualMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ImageLayout tells how many logical pages an image yields.
type ImageLayout int

const (
	OnePageLayout ImageLayout = iota
	TwoPageLayout
)

// SubPages lists the sub pages of an image with this layout.
func (l ImageLayout) SubPages() []SubPage {
	if l == TwoPageLayout {
		return []SubPage{LeftPage, RightPage}
	}
	return []SubPage{SinglePage}
}

// Includes reports whether sub is one of the sub pages of the layout.
func (l ImageLayout) Includes(sub SubPage) bool {
	for _, s := range l.SubPages() {
		if s == sub {
			return true
		}
	}
	return false
}
