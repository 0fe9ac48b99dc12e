package pipeline

import (
	"time"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

type EventType string

const (
	EventStart          EventType = "start"
	EventPageProcessing EventType = "page_processing"
	EventStageComplete  EventType = "stage_complete"
	EventPageComplete   EventType = "page_complete"
	EventOutputReused   EventType = "output_reused"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// Event reports progress of a run. Page and Stage are set for page level
// events; Index counts pages from one.
type Event struct {
	Type      EventType
	RunID     string
	Page      domain.PageID
	Stage     string
	Index     int
	Total     int
	Payload   string
	Err       error
	Timestamp time.Time
}
