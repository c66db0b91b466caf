package models

import (
	"math"
	"time"
)

// ActionKind is the kind of user interaction recorded against a solution.
type ActionKind string

const (
	ActionView     ActionKind = "view"
	ActionApply    ActionKind = "apply"
	ActionFavorite ActionKind = "favorite"
	ActionRate     ActionKind = "rate"
)

// ActionWeights are the counter increments per action kind. Applying a
// solution is a much stronger signal than merely viewing it. Rate events
// are weighted by the rating itself, see RateWeight.
var ActionWeights = map[ActionKind]int{
	ActionView:     1,
	ActionApply:    3,
	ActionFavorite: 2,
}

// RateWeight converts a [0,5] rating into a counter increment:
// round(rating/5 × 5), i.e. the rounded rating.
func RateWeight(rating float64) int {
	return int(math.Round(rating / 5.0 * 5.0))
}

// BehaviorEvent is one append-only record of a user interaction.
// Category and tech stack are snapshotted at event time so preference
// derivation does not depend on later solution edits. Never mutated
// after creation.
type BehaviorEvent struct {
	Action         ActionKind `json:"action"`
	SolutionID     string     `json:"solution_id"`
	Category       Category   `json:"category"`
	TechStack      TechStack  `json:"tech_stack"`
	Rating         float64    `json:"rating,omitempty"`
	CreatedAt      string     `json:"created_at"`
	CreatedAtEpoch int64      `json:"created_at_epoch"`
}

// NewBehaviorEvent snapshots an interaction with a solution.
func NewBehaviorEvent(action ActionKind, sol *Solution, rating float64) BehaviorEvent {
	now := time.Now()
	return BehaviorEvent{
		Action:         action,
		SolutionID:     sol.ID,
		Category:       sol.Category,
		TechStack:      sol.TechStack,
		Rating:         rating,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
	}
}

// Weight returns the counter increment this event contributes.
func (e BehaviorEvent) Weight() int {
	if e.Action == ActionRate {
		return RateWeight(e.Rating)
	}
	return ActionWeights[e.Action]
}
