// Package models contains domain models for the solution engine.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TechStack represents the declared implementation technology of a solution.
type TechStack string

const (
	TechCSSAnimation TechStack = "css_animation"
	TechJavaScript   TechStack = "javascript"
	TechGSAP         TechStack = "gsap"
	TechThreeJS      TechStack = "three_js"
	TechSVGAnimation TechStack = "svg_animation"
)

var AllTechStacks = []TechStack{
	TechCSSAnimation,
	TechJavaScript,
	TechGSAP,
	TechThreeJS,
	TechSVGAnimation,
}

// ParseTechStack validates a tech stack string.
func ParseTechStack(s string) (TechStack, error) {
	for _, t := range AllTechStacks {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tech stack %q", s)
}

// Category represents the animation category of a solution.
type Category string

const (
	CategoryEntrance    Category = "entrance"
	CategoryExit        Category = "exit"
	CategoryTransition  Category = "transition"
	CategoryInteraction Category = "interaction"
	CategoryEffect      Category = "effect"
	CategoryComposite   Category = "composite"
)

var AllCategories = []Category{
	CategoryEntrance,
	CategoryExit,
	CategoryTransition,
	CategoryInteraction,
	CategoryEffect,
	CategoryComposite,
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// QualityTier is the coarse quality bucket derived from the overall score.
type QualityTier string

const (
	TierExcellent QualityTier = "excellent"
	TierGood      QualityTier = "good"
	TierAverage   QualityTier = "average"
	TierPoor      QualityTier = "poor"
)

var AllQualityTiers = []QualityTier{
	TierExcellent,
	TierGood,
	TierAverage,
	TierPoor,
}

// ParseQualityTier validates a quality tier string.
func ParseQualityTier(s string) (QualityTier, error) {
	for _, t := range AllQualityTiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown quality tier %q", s)
}

// TierForScore maps an overall score to a quality tier.
func TierForScore(overall float64) QualityTier {
	switch {
	case overall >= 85:
		return TierExcellent
	case overall >= 70:
		return TierGood
	case overall >= 50:
		return TierAverage
	default:
		return TierPoor
	}
}

// Overall score weights for the five metric dimensions.
// The overall score is always this fixed linear combination; it is
// recomputed via CalculateOverallScore whenever a dimension changes.
const (
	WeightQuality       = 0.30
	WeightPerformance   = 0.25
	WeightCreativity    = 0.20
	WeightUsability     = 0.15
	WeightCompatibility = 0.10
)

// SolutionMetrics holds the five dimension scores plus the derived
// overall score. All scores are in [0,100].
type SolutionMetrics struct {
	QualityScore       float64 `json:"quality_score"`
	PerformanceScore   float64 `json:"performance_score"`
	CreativityScore    float64 `json:"creativity_score"`
	UsabilityScore     float64 `json:"usability_score"`
	CompatibilityScore float64 `json:"compatibility_score"`
	OverallScore       float64 `json:"overall_score"`
}

// CalculateOverallScore recomputes the overall score from the dimension
// scores. OverallScore must never be set independently of this.
func (m *SolutionMetrics) CalculateOverallScore() {
	m.OverallScore = m.QualityScore*WeightQuality +
		m.PerformanceScore*WeightPerformance +
		m.CreativityScore*WeightCreativity +
		m.UsabilityScore*WeightUsability +
		m.CompatibilityScore*WeightCompatibility
}

// JSONStringArray is a custom type for handling JSON string arrays in SQLite.
type JSONStringArray []string

// Scan implements sql.Scanner for JSONStringArray.
func (j *JSONStringArray) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("JSONStringArray: unsupported type %T", src)
	}

	if len(data) == 0 {
		*j = nil
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements driver.Valuer for JSONStringArray.
func (j JSONStringArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Solution is a generated animation artifact: three code blobs plus
// metadata, metrics and version lineage fields.
type Solution struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	TechStack   TechStack `json:"tech_stack"`

	HTMLCode string `json:"html_code"`
	CSSCode  string `json:"css_code"`
	JSCode   string `json:"js_code"`

	Metrics     SolutionMetrics `json:"metrics"`
	QualityTier QualityTier     `json:"quality_tier"`

	UserRating    float64 `json:"user_rating"`
	RatingCount   int     `json:"rating_count"`
	FavoriteCount int     `json:"favorite_count"`
	UsageCount    int     `json:"usage_count"`

	Author         string          `json:"author"`
	Tags           JSONStringArray `json:"tags,omitempty"`
	CreatedAt      string          `json:"created_at"`
	CreatedAtEpoch int64           `json:"created_at_epoch"`
	UpdatedAt      string          `json:"updated_at"`
	UpdatedAtEpoch int64           `json:"updated_at_epoch"`

	Version  string          `json:"version"`
	ParentID string          `json:"parent_id,omitempty"`
	ChildIDs JSONStringArray `json:"child_ids,omitempty"`
}

// NewSolution creates a solution with a fresh identity and timestamps.
func NewSolution(name string, category Category, tech TechStack) *Solution {
	now := time.Now()
	return &Solution{
		ID:             uuid.NewString(),
		Name:           name,
		Category:       category,
		TechStack:      tech,
		QualityTier:    TierAverage,
		Version:        "1.0.0",
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
		UpdatedAt:      now.Format(time.RFC3339),
		UpdatedAtEpoch: now.UnixMilli(),
	}
}

// AddUserRating folds a new rating into the running mean.
// Ratings outside [0,5] are rejected and leave the aggregate unchanged;
// clamping would silently corrupt the mean.
func (s *Solution) AddUserRating(rating float64) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating %.2f out of range [0,5]", rating)
	}

	total := s.UserRating * float64(s.RatingCount)
	s.RatingCount++
	s.UserRating = (total + rating) / float64(s.RatingCount)
	s.Touch()
	return nil
}

// IncrementUsage bumps the usage counter.
func (s *Solution) IncrementUsage() {
	s.UsageCount++
	s.Touch()
}

// IncrementFavorites bumps the favorite counter.
func (s *Solution) IncrementFavorites() {
	s.FavoriteCount++
	s.Touch()
}

// DecrementFavorites lowers the favorite counter with a floor of zero.
func (s *Solution) DecrementFavorites() {
	if s.FavoriteCount > 0 {
		s.FavoriteCount--
	}
	s.Touch()
}

// Touch updates the last-modified timestamps.
func (s *Solution) Touch() {
	now := time.Now()
	s.UpdatedAt = now.Format(time.RFC3339)
	s.UpdatedAtEpoch = now.UnixMilli()
}

// Clone returns a deep copy with a new identity and fresh timestamps.
// Content, metrics and counters are carried over unchanged.
func (s *Solution) Clone() *Solution {
	now := time.Now()

	dup := *s
	dup.ID = uuid.NewString()
	dup.Tags = append(JSONStringArray(nil), s.Tags...)
	dup.ChildIDs = append(JSONStringArray(nil), s.ChildIDs...)
	dup.CreatedAt = now.Format(time.RFC3339)
	dup.CreatedAtEpoch = now.UnixMilli()
	dup.UpdatedAt = now.Format(time.RFC3339)
	dup.UpdatedAtEpoch = now.UnixMilli()
	return &dup
}

// AgeDays returns the solution age in days at the given time.
// Future timestamps are treated as zero age.
func (s *Solution) AgeDays(now time.Time) float64 {
	age := now.Sub(time.UnixMilli(s.CreatedAtEpoch)).Hours() / 24.0
	if age < 0 {
		age = 0
	}
	return age
}
