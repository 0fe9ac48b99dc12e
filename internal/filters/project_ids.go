package filters

import "github.com/scantailor/scantailor-cli/internal/domain"

// ProjectIDs resolves the numeric ids used in the project document.
type ProjectIDs interface {
	ImageNumericID(id domain.ImageID) (int, bool)
	PageNumericID(id domain.PageID) (int, bool)
	Images() []domain.ImageID
	Pages() []domain.PageID
}
