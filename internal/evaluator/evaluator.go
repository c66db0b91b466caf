// Package evaluator scores solutions along five quality dimensions.
package evaluator

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/pkg/models"
)

// Config holds the sub-heuristic weights per dimension.
type Config struct {
	// Quality dimension.
	CodeStructureWeight float64 `json:"code_structure_weight"`
	SmoothnessWeight    float64 `json:"smoothness_weight"`
	VisualAppealWeight  float64 `json:"visual_appeal_weight"`

	// Performance dimension.
	EfficiencyWeight    float64 `json:"efficiency_weight"`
	ResourceUsageWeight float64 `json:"resource_usage_weight"`
	BrowserCompatWeight float64 `json:"browser_compat_weight"`

	// Creativity dimension.
	UniquenessWeight float64 `json:"uniqueness_weight"`
	InnovationWeight float64 `json:"innovation_weight"`
	ArtisticWeight   float64 `json:"artistic_weight"`
}

// DefaultConfig returns the default heuristic weights.
func DefaultConfig() *Config {
	return &Config{
		CodeStructureWeight: 0.3,
		SmoothnessWeight:    0.3,
		VisualAppealWeight:  0.4,

		EfficiencyWeight:    0.4,
		ResourceUsageWeight: 0.3,
		BrowserCompatWeight: 0.3,

		UniquenessWeight: 0.5,
		InnovationWeight: 0.3,
		ArtisticWeight:   0.2,
	}
}

// Evaluator computes SolutionMetrics from a solution's code blobs.
// It is a pure function over the code and tech stack fields: evaluating
// the same solution twice yields identical scores.
type Evaluator struct {
	config *Config
}

// New creates an evaluator. A nil config uses the defaults.
func New(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// heuristicFn inspects a solution and returns a sub-score in [0,100].
// A failing heuristic reports an error; the caller substitutes the
// neutral default so a single failure never aborts overall evaluation.
type heuristicFn func(*models.Solution) (float64, error)

// run executes a heuristic, substituting 0 and logging on failure.
func run(sol *models.Solution, name string, fn heuristicFn) float64 {
	score, err := fn(sol)
	if err != nil {
		log.Warn().Err(err).Str("heuristic", name).Str("solution", sol.ID).
			Msg("Heuristic failed, using neutral score")
		return 0
	}
	return score
}

// Evaluate scores a solution on all five dimensions and recomputes the
// overall score. It never fails: dimensions degrade to neutral scores.
func (e *Evaluator) Evaluate(sol *models.Solution) models.SolutionMetrics {
	metrics := models.SolutionMetrics{
		QualityScore:       e.evaluateQuality(sol),
		PerformanceScore:   e.evaluatePerformance(sol),
		CreativityScore:    e.evaluateCreativity(sol),
		UsabilityScore:     e.evaluateUsability(sol),
		CompatibilityScore: e.evaluateCompatibility(sol),
	}
	metrics.CalculateOverallScore()
	return metrics
}

// evaluateQuality blends code structure, animation smoothness and
// visual appeal.
func (e *Evaluator) evaluateQuality(sol *models.Solution) float64 {
	score := run(sol, "code_structure", analyzeCodeStructure)*e.config.CodeStructureWeight +
		run(sol, "animation_smoothness", analyzeSmoothness)*e.config.SmoothnessWeight +
		run(sol, "visual_appeal", analyzeVisualAppeal)*e.config.VisualAppealWeight
	return clamp(score)
}

// evaluatePerformance blends code efficiency, resource usage and
// browser compatibility signals.
func (e *Evaluator) evaluatePerformance(sol *models.Solution) float64 {
	score := run(sol, "code_efficiency", analyzeEfficiency)*e.config.EfficiencyWeight +
		run(sol, "resource_usage", analyzeResourceUsage)*e.config.ResourceUsageWeight +
		run(sol, "browser_compatibility", analyzeBrowserCompat)*e.config.BrowserCompatWeight
	return clamp(score)
}

// evaluateCreativity starts from a neutral 50 and shifts it by how far
// each sub-heuristic deviates from neutral.
func (e *Evaluator) evaluateCreativity(sol *models.Solution) float64 {
	score := 50.0
	score += (run(sol, "uniqueness", analyzeUniqueness) - 50) * e.config.UniquenessWeight
	score += (run(sol, "innovation", analyzeInnovation) - 50) * e.config.InnovationWeight
	score += (run(sol, "artistic_value", analyzeArtisticValue) - 50) * e.config.ArtisticWeight
	return clamp(score)
}

// evaluateUsability rewards commented, moderately sized code on simple
// tech stacks.
func (e *Evaluator) evaluateUsability(sol *models.Solution) float64 {
	score := 70.0

	if sol.HTMLCode != "" && strings.Contains(sol.HTMLCode, "<!--") {
		score += 10
	}

	total := len(sol.HTMLCode) + len(sol.CSSCode) + len(sol.JSCode)
	switch {
	case total >= 500 && total <= 2000:
		score += 10
	case total > 3000:
		score -= 10
	}

	switch sol.TechStack {
	case models.TechCSSAnimation:
		score += 10
	case models.TechThreeJS:
		score -= 5
	}

	return clamp(score)
}

// evaluateCompatibility rewards modern CSS features, vendor prefixes
// and standard JS APIs.
func (e *Evaluator) evaluateCompatibility(sol *models.Solution) float64 {
	score := 80.0
	css := strings.ToLower(sol.CSSCode)

	for _, feature := range []string{"grid", "flexbox", "transform", "transition", "animation"} {
		if strings.Contains(css, feature) {
			score += 2
		}
	}

	for _, prefix := range []string{"-webkit-", "-moz-", "-ms-", "-o-"} {
		if strings.Contains(css, prefix) {
			score += 3
		}
	}

	if sol.JSCode != "" {
		if strings.Contains(sol.JSCode, "const ") || strings.Contains(sol.JSCode, "let ") {
			score += 5
		}
		if strings.Contains(sol.JSCode, "querySelector") {
			score += 3
		}
	}

	return clamp(score)
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
