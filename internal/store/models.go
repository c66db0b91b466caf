// Package store provides GORM-based persistence for the solution corpus.
package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/animstudio/solution-engine/pkg/models"
)

// SolutionRecord is the persisted form of a solution. Enumerations are
// stored as strings and timestamps as RFC3339 plus epoch millis, so
// records stay readable and sortable from plain SQL.
type SolutionRecord struct {
	ID          string `gorm:"primaryKey;type:text"`
	Name        string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"type:text;index:idx_solutions_category;not null"`
	TechStack   string `gorm:"type:text;index:idx_solutions_tech;not null"`

	HTMLCode string `gorm:"type:text"`
	CSSCode  string `gorm:"type:text"`
	JSCode   string `gorm:"type:text"`

	QualityScore       float64 `gorm:"type:real"`
	PerformanceScore   float64 `gorm:"type:real"`
	CreativityScore    float64 `gorm:"type:real"`
	UsabilityScore     float64 `gorm:"type:real"`
	CompatibilityScore float64 `gorm:"type:real"`
	OverallScore       float64 `gorm:"type:real;index:idx_solutions_overall,sort:desc"`
	QualityTier        string  `gorm:"type:text;index:idx_solutions_tier"`

	UserRating    float64 `gorm:"type:real"`
	RatingCount   int     `gorm:"default:0"`
	FavoriteCount int     `gorm:"default:0"`
	UsageCount    int     `gorm:"default:0;index:idx_solutions_usage,sort:desc"`

	Author         string                 `gorm:"type:text"`
	Tags           models.JSONStringArray `gorm:"type:text"`
	CreatedAt      string                 `gorm:"not null"`
	CreatedAtEpoch int64                  `gorm:"index:idx_solutions_created,sort:desc;not null"`
	UpdatedAt      string                 `gorm:"not null"`
	UpdatedAtEpoch int64                  `gorm:"not null"`

	Version  string                 `gorm:"type:text;not null"`
	ParentID string                 `gorm:"type:text;index:idx_solutions_parent"`
	ChildIDs models.JSONStringArray `gorm:"type:text"`
}

func (SolutionRecord) TableName() string { return "solutions" }

// BeforeCreate hook to ensure timestamps are set.
func (r *SolutionRecord) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = now.UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.Format(time.RFC3339)
	}
	if r.UpdatedAtEpoch == 0 {
		r.UpdatedAtEpoch = now.UnixMilli()
	}
	if r.UpdatedAt == "" {
		r.UpdatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// FavoriteRecord persists the ordered favorites list.
type FavoriteRecord struct {
	SolutionID string `gorm:"primaryKey;type:text"`
	Position   int    `gorm:"index:idx_favorites_position;not null"`
	CreatedAt  string `gorm:"not null"`
}

func (FavoriteRecord) TableName() string { return "favorites" }

// BeforeCreate hook to ensure the timestamp is set.
func (f *FavoriteRecord) BeforeCreate(tx *gorm.DB) error {
	if f.CreatedAt == "" {
		f.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

// recordFromSolution converts a domain solution into its persisted form.
func recordFromSolution(s *models.Solution) *SolutionRecord {
	return &SolutionRecord{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    string(s.Category),
		TechStack:   string(s.TechStack),

		HTMLCode: s.HTMLCode,
		CSSCode:  s.CSSCode,
		JSCode:   s.JSCode,

		QualityScore:       s.Metrics.QualityScore,
		PerformanceScore:   s.Metrics.PerformanceScore,
		CreativityScore:    s.Metrics.CreativityScore,
		UsabilityScore:     s.Metrics.UsabilityScore,
		CompatibilityScore: s.Metrics.CompatibilityScore,
		OverallScore:       s.Metrics.OverallScore,
		QualityTier:        string(s.QualityTier),

		UserRating:    s.UserRating,
		RatingCount:   s.RatingCount,
		FavoriteCount: s.FavoriteCount,
		UsageCount:    s.UsageCount,

		Author:         s.Author,
		Tags:           s.Tags,
		CreatedAt:      s.CreatedAt,
		CreatedAtEpoch: s.CreatedAtEpoch,
		UpdatedAt:      s.UpdatedAt,
		UpdatedAtEpoch: s.UpdatedAtEpoch,

		Version:  s.Version,
		ParentID: s.ParentID,
		ChildIDs: s.ChildIDs,
	}
}

// ToSolution converts a persisted record back into a domain solution,
// validating enumerations. A record that fails validation is malformed:
// the bulk loader skips it rather than aborting the load.
func (r *SolutionRecord) ToSolution() (*models.Solution, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("record has empty id")
	}

	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	tech, err := models.ParseTechStack(r.TechStack)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	tier, err := models.ParseQualityTier(r.QualityTier)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if _, err := time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("record %s: bad created_at: %w", r.ID, err)
	}

	return &models.Solution{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    category,
		TechStack:   tech,

		HTMLCode: r.HTMLCode,
		CSSCode:  r.CSSCode,
		JSCode:   r.JSCode,

		Metrics: models.SolutionMetrics{
			QualityScore:       r.QualityScore,
			PerformanceScore:   r.PerformanceScore,
			CreativityScore:    r.CreativityScore,
			UsabilityScore:     r.UsabilityScore,
			CompatibilityScore: r.CompatibilityScore,
			OverallScore:       r.OverallScore,
		},
		QualityTier: tier,

		UserRating:    r.UserRating,
		RatingCount:   r.RatingCount,
		FavoriteCount: r.FavoriteCount,
		UsageCount:    r.UsageCount,

		Author:         r.Author,
		Tags:           r.Tags,
		CreatedAt:      r.CreatedAt,
		CreatedAtEpoch: r.CreatedAtEpoch,
		UpdatedAt:      r.UpdatedAt,
		UpdatedAtEpoch: r.UpdatedAtEpoch,

		Version:  r.Version,
		ParentID: r.ParentID,
		ChildIDs: r.ChildIDs,
	}, nil
}
