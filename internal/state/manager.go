package state

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
	"github.com/scantailor/scantailor-cli/internal/project"
)

// Manager loads and saves the snapshot of the project writing to one output
// directory.
type Manager struct {
	backend Backend
	outDir  string
	key     string
	logger  *observability.Logger
}

// NewManager returns a manager over backend. The project key is the absolute
// output directory.
func NewManager(backend Backend, outDir string, logger *observability.Logger) *Manager {
	key := outDir
	if abs, err := filepath.Abs(outDir); err == nil {
		key = abs
	}
	return &Manager{backend: backend, outDir: outDir, key: key, logger: logger.WithOperation("state")}
}

// Load restores the previous snapshot into pages and stores. It reports
// whether a snapshot was found. Unreadable or outdated snapshots are logged
// and ignored.
func (m *Manager) Load(ctx context.Context, pages *project.Pages, stores *project.Stores) (bool, error) {
	data, err := m.backend.Load(ctx, m.key)
	if errors.Is(err, domain.ErrNotFound) {
		m.logger.Debug().Str("project", m.key).Msg("no saved state")
		return false, nil
	}
	if err != nil {
		return false, domain.StateError("failed to load state", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.logger.Warn().Err(err).Str("project", m.key).Msg("saved state is unreadable, starting fresh")
		return false, nil
	}
	if snap.Version != snapshotVersion {
		m.logger.Warn().
			Int("version", snap.Version).
			Int("expected", snapshotVersion).
			Msg("saved state has another version, starting fresh")
		return false, nil
	}

	snap.Restore(pages, stores)
	m.logger.Info().
		Str("project", m.key).
		Str("previous_run", snap.RunID).
		Int("pages", len(snap.Deskew)).
		Msg("state restored")
	return true, nil
}

// Save writes a snapshot of pages and stores stamped with runID.
func (m *Manager) Save(ctx context.Context, runID string, pages *project.Pages, stores *project.Stores) error {
	data, err := json.Marshal(Capture(runID, m.outDir, pages, stores))
	if err != nil {
		return domain.StateError("failed to encode state", err)
	}
	if err := m.backend.Save(ctx, m.key, data); err != nil {
		return domain.StateError("failed to save state", err)
	}
	m.logger.Debug().Str("project", m.key).Int("bytes", len(data)).Msg("state saved")
	return nil
}

func (m *Manager) Close() error {
	return m.backend.Close()
}
