// Package preference derives a user preference vector from behavior.
package preference

import (
	"time"

	"github.com/animstudio/solution-engine/internal/behavior"
	"github.com/animstudio/solution-engine/pkg/models"
)

// recentWindow is the lookback used for the novelty-appetite split.
const recentWindow = 7 * 24 * time.Hour

// Model derives preference vectors from a behavior tracker. Each call
// to Derive recomputes from scratch so there is no incremental drift.
type Model struct {
	tracker *behavior.Tracker
}

// NewModel creates a preference model over the given tracker.
func NewModel(tracker *behavior.Tracker) *Model {
	return &Model{tracker: tracker}
}

// Derive recomputes the preference vector from the current event log.
func (m *Model) Derive() models.PreferenceVector {
	return m.DeriveAt(time.Now())
}

// DeriveAt recomputes the preference vector as of a given time.
// Pinning the clock keeps the novelty derivation testable.
func (m *Model) DeriveAt(now time.Time) models.PreferenceVector {
	events := m.tracker.Events()
	byCategory := m.tracker.CategoryCounters()
	byTech := m.tracker.TechStackCounters()

	vector := models.PreferenceVector{
		Categories:         normalizeCategories(byCategory),
		TechStacks:         normalizeTechStacks(byTech),
		QualityThreshold:   qualityThreshold(events),
		ComplexityAppetite: complexityAppetite(byTech),
		NoveltyAppetite:    noveltyAppetite(events, now),
	}
	return vector
}

// normalizeCategories converts counters into weights that sum to at
// most 1. The denominator is floored at 1 so an empty log yields all
// zeros instead of dividing by zero.
func normalizeCategories(counters map[models.Category]int) map[models.Category]float64 {
	total := 0
	for _, v := range counters {
		total += v
	}
	if total < 1 {
		total = 1
	}

	weights := make(map[models.Category]float64, len(models.AllCategories))
	for _, category := range models.AllCategories {
		weights[category] = float64(counters[category]) / float64(total)
	}
	return weights
}

func normalizeTechStacks(counters map[models.TechStack]int) map[models.TechStack]float64 {
	total := 0
	for _, v := range counters {
		total += v
	}
	if total < 1 {
		total = 1
	}

	weights := make(map[models.TechStack]float64, len(models.AllTechStacks))
	for _, tech := range models.AllTechStacks {
		weights[tech] = float64(counters[tech]) / float64(total)
	}
	return weights
}

// qualityThreshold is a deliberately coarse heuristic: 0.6 absent any
// signal, 0.7 once the user has applied at least one solution.
func qualityThreshold(events []models.BehaviorEvent) float64 {
	for _, event := range events {
		if event.Action == models.ActionApply {
			return 0.7
		}
	}
	return 0.6
}

// complexityAppetite is the usage-weighted average of the fixed
// per-tech-stack complexity constants.
func complexityAppetite(counters map[models.TechStack]int) float64 {
	totalWeight := 0
	weighted := 0.0
	for tech, usage := range counters {
		if usage <= 0 {
			continue
		}
		totalWeight += usage
		weighted += models.TechComplexity(tech) * float64(usage)
	}
	if totalWeight < 1 {
		totalWeight = 1
	}
	return weighted / float64(totalWeight)
}

// noveltyAppetite splits on whether the bulk of activity is recent:
// 0.8 when more than 70% of events fall inside the last 7 days, else 0.4.
func noveltyAppetite(events []models.BehaviorEvent, now time.Time) float64 {
	if len(events) == 0 {
		return 0.4
	}

	cutoff := now.Add(-recentWindow).UnixMilli()
	recent := 0
	for _, event := range events {
		if event.CreatedAtEpoch >= cutoff {
			recent++
		}
	}

	if float64(recent) > float64(len(events))*0.7 {
		return 0.8
	}
	return 0.4
}
