package models

// RecommendContext carries optional hints about what the user is
// currently working on. All fields may be empty.
type RecommendContext struct {
	TargetCategory Category  `json:"target_category,omitempty"`
	PreferredTech  TechStack `json:"preferred_tech,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
}

// IsZero reports whether the context carries no hints at all.
func (c RecommendContext) IsZero() bool {
	return c.TargetCategory == "" && c.PreferredTech == "" && len(c.Keywords) == 0
}

// RecommendationResult is one ranked entry produced per recommendation
// request: the total score, its five contributing sub-scores, and an
// advisory explanation string (display only, never used in ranking).
type RecommendationResult struct {
	SolutionID      string  `json:"solution_id"`
	TotalScore      float64 `json:"total_score"`
	QualityScore    float64 `json:"quality_score"`
	PreferenceScore float64 `json:"preference_score"`
	PopularityScore float64 `json:"popularity_score"`
	NoveltyScore    float64 `json:"novelty_score"`
	SimilarityScore float64 `json:"similarity_score"`
	Explanation     string  `json:"explanation"`
}

// RecommendWeights contains the top-level blend weights for the
// recommendation score plus the inner preference-match blend.
type RecommendWeights struct {
	Quality    float64 `json:"quality"`
	Preference float64 `json:"preference"`
	Popularity float64 `json:"popularity"`
	Novelty    float64 `json:"novelty"`
	Similarity float64 `json:"similarity"`

	// Preference-match inner blend.
	PrefCategory   float64 `json:"pref_category"`
	PrefTechStack  float64 `json:"pref_tech_stack"`
	PrefQualityMet float64 `json:"pref_quality_met"`
	PrefComplexity float64 `json:"pref_complexity"`
}

// DefaultRecommendWeights returns the default recommendation blend.
func DefaultRecommendWeights() RecommendWeights {
	return RecommendWeights{
		Quality:    0.30,
		Preference: 0.25,
		Popularity: 0.20,
		Novelty:    0.15,
		Similarity: 0.10,

		PrefCategory:   0.4,
		PrefTechStack:  0.3,
		PrefQualityMet: 0.2,
		PrefComplexity: 0.1,
	}
}
