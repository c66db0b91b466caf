// Package behavior records user interactions with solutions.
package behavior

import (
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/pkg/models"
)

// Tracker is an append-only log of behavior events plus weighted
// per-category and per-tech-stack counters. The counters are raw
// signal for preference derivation, not scores. Events are never
// mutated after being recorded.
type Tracker struct {
	events     []models.BehaviorEvent
	byCategory map[models.Category]int
	byTech     map[models.TechStack]int
	mu         sync.Mutex
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byCategory: make(map[models.Category]int),
		byTech:     make(map[models.TechStack]int),
	}
}

// TrackView records that the user viewed a solution.
func (t *Tracker) TrackView(sol *models.Solution) {
	t.record(models.NewBehaviorEvent(models.ActionView, sol, 0))
}

// TrackApply records that the user applied a solution to their project.
func (t *Tracker) TrackApply(sol *models.Solution) {
	t.record(models.NewBehaviorEvent(models.ActionApply, sol, 0))
}

// TrackFavorite records that the user favorited a solution.
func (t *Tracker) TrackFavorite(sol *models.Solution) {
	t.record(models.NewBehaviorEvent(models.ActionFavorite, sol, 0))
}

// TrackRating records a rating event. The rating itself is validated
// by the solution's rating aggregate; here it only shapes the counter
// weight.
func (t *Tracker) TrackRating(sol *models.Solution, rating float64) {
	t.record(models.NewBehaviorEvent(models.ActionRate, sol, rating))
}

func (t *Tracker) record(event models.BehaviorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, event)
	weight := event.Weight()
	t.byCategory[event.Category] += weight
	t.byTech[event.TechStack] += weight
}

// Events returns a copy of the event log in append order.
func (t *Tracker) Events() []models.BehaviorEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.BehaviorEvent, len(t.events))
	copy(out, t.events)
	return out
}

// CategoryCounters returns a copy of the weighted per-category counters.
func (t *Tracker) CategoryCounters() map[models.Category]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[models.Category]int, len(t.byCategory))
	for k, v := range t.byCategory {
		out[k] = v
	}
	return out
}

// TechStackCounters returns a copy of the weighted per-tech-stack counters.
func (t *Tracker) TechStackCounters() map[models.TechStack]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[models.TechStack]int, len(t.byTech))
	for k, v := range t.byTech {
		out[k] = v
	}
	return out
}

// EventCount returns the number of recorded events.
func (t *Tracker) EventCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// trackerState is the serialized form of the tracker.
type trackerState struct {
	Events []models.BehaviorEvent `json:"events"`
}

// ExportState writes the raw event log as JSON. Counters are not
// exported: they are re-derived on import.
func (t *Tracker) ExportState(w io.Writer) error {
	t.mu.Lock()
	state := trackerState{Events: append([]models.BehaviorEvent(nil), t.events...)}
	t.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("encode tracker state: %w", err)
	}
	return nil
}

// ImportState replaces the event log with a previously exported one and
// rebuilds the counters from it.
func (t *Tracker) ImportState(r io.Reader) error {
	var state trackerState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return fmt.Errorf("decode tracker state: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = state.Events
	t.byCategory = make(map[models.Category]int)
	t.byTech = make(map[models.TechStack]int)
	for _, event := range t.events {
		weight := event.Weight()
		t.byCategory[event.Category] += weight
		t.byTech[event.TechStack] += weight
	}

	log.Info().Int("events", len(t.events)).Msg("Imported behavior log")
	return nil
}
