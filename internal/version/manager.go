// Package version tracks the version lineage of solutions.
package version

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/pkg/models"
)

// Manager owns the ordered version history per solution lineage.
// History is append-only: it is never reordered or pruned here, and
// patch numbers within one lineage are monotonically non-decreasing.
type Manager struct {
	lineages map[string][]*models.Solution
	mu       sync.Mutex
}

// NewManager creates an empty version manager.
func NewManager() *Manager {
	return &Manager{
		lineages: make(map[string][]*models.Solution),
	}
}

// CreateVersion snapshots the solution into its lineage and returns the
// assigned version. The first snapshot of a lineage is "1.0.0"; each
// subsequent one increments the patch component. The stored entry is a
// clone with its own identity, linked to the live solution via parent
// and child ids.
func (m *Manager) CreateVersion(sol *models.Solution, changes string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.lineages[sol.ID]

	var next string
	if len(history) == 0 {
		next = "1.0.0"
	} else {
		next = incrementVersion(history[len(history)-1].Version)
	}

	snapshot := sol.Clone()
	snapshot.Version = next
	snapshot.ParentID = sol.ID
	snapshot.ChildIDs = nil
	sol.ChildIDs = append(sol.ChildIDs, snapshot.ID)

	m.lineages[sol.ID] = append(history, snapshot)

	log.Info().
		Str("solution", sol.ID).
		Str("version", next).
		Str("changes", changes).
		Msg("Created solution version")

	return next
}

// History returns a copy of the lineage's ordered history.
func (m *Manager) History(solutionID string) []*models.Solution {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.lineages[solutionID]
	out := make([]*models.Solution, len(history))
	copy(out, history)
	return out
}

// RollbackToVersion returns a fresh clone of the matching historical
// entry, never the live reference. Returns false when the lineage has
// no entry with that version: an expected condition, not an error.
func (m *Manager) RollbackToVersion(solutionID, version string) (*models.Solution, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.lineages[solutionID] {
		if entry.Version == version {
			return entry.Clone(), true
		}
	}
	return nil, false
}

// incrementVersion bumps the patch component of an "M.N.P" version.
// Malformed version strings fall back to "1.0.1".
func incrementVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "1.0.1"
	}

	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	patch, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "1.0.1"
	}

	return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
}
