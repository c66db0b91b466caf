// Package similarity computes bounded similarity between solutions.
package similarity

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/animstudio/solution-engine/pkg/models"
)

// Feature weights for the similarity blend. They sum to 1.0 so the
// result stays in [0,1].
const (
	weightCategory   = 0.30
	weightTechStack  = 0.25
	weightComplexity = 0.20
	weightStyle      = 0.15
	weightDuration   = 0.10
)

// partialTechCredit is the similarity granted to differing tech stacks:
// two animations are never entirely dissimilar on tech alone.
const partialTechCredit = 0.3

// neutralDuration is used when a duration cannot be extracted from
// either side.
const neutralDuration = 0.5

// styleVocabulary is the fixed set of structural CSS tokens used for
// style-feature extraction. Kept fixed so similarity is deterministic
// and symmetric across solutions.
var styleVocabulary = []struct {
	token   string
	feature string
}{
	{"transform", "uses_transform"},
	{"opacity", "uses_opacity"},
	{"scale", "uses_scale"},
	{"rotate", "uses_rotate"},
	{"translate", "uses_translate"},
	{"shadow", "has_shadow"},
	{"gradient", "has_gradient"},
	{"blur", "has_blur"},
	{"brightness", "has_brightness"},
}

var durationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`animation-duration\s*:\s*(\d+(?:\.\d+)?)(s|ms)`),
	regexp.MustCompile(`transition-duration\s*:\s*(\d+(?:\.\d+)?)(s|ms)`),
}

// Calculator computes a weighted feature-overlap similarity in [0,1].
type Calculator struct{}

// NewCalculator creates a similarity calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Similarity returns the weighted similarity between two solutions.
// It is symmetric: Similarity(a,b) == Similarity(b,a).
func (c *Calculator) Similarity(a, b *models.Solution) float64 {
	categoryScore := 0.0
	if a.Category == b.Category {
		categoryScore = 1.0
	}

	techScore := partialTechCredit
	if a.TechStack == b.TechStack {
		techScore = 1.0
	}

	complexityScore := 1.0 - math.Abs(a.Metrics.OverallScore-b.Metrics.OverallScore)/100.0

	styleScore := JaccardSimilarity(ExtractStyleFeatures(a.CSSCode), ExtractStyleFeatures(b.CSSCode))

	durationScore := durationSimilarity(a.CSSCode, b.CSSCode)

	return categoryScore*weightCategory +
		techScore*weightTechStack +
		complexityScore*weightComplexity +
		styleScore*weightStyle +
		durationScore*weightDuration
}

// ExtractStyleFeatures extracts the style-feature set of a CSS blob
// from the fixed vocabulary, plus the easing family when present.
func ExtractStyleFeatures(css string) map[string]bool {
	features := make(map[string]bool)
	if css == "" {
		return features
	}

	lower := strings.ToLower(css)
	for _, entry := range styleVocabulary {
		if strings.Contains(lower, entry.token) {
			features[entry.feature] = true
		}
	}

	// Easing family, most specific match first.
	switch {
	case strings.Contains(lower, "ease-in-out"):
		features["easing_ease_in_out"] = true
	case strings.Contains(lower, "ease-out"):
		features["easing_ease_out"] = true
	case strings.Contains(lower, "ease-in"):
		features["easing_ease_in"] = true
	}

	return features
}

// JaccardSimilarity calculates the Jaccard similarity between two
// feature sets. Returns a value between 0 (no overlap) and 1
// (identical). Two empty sets count as fully overlapping.
func JaccardSimilarity(set1, set2 map[string]bool) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 1.0
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for feature := range set1 {
		if set2[feature] {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// ExtractAnimationDuration pulls the first animation or transition
// duration from a CSS blob, in seconds. Returns false when no duration
// is declared.
func ExtractAnimationDuration(css string) (float64, bool) {
	if css == "" {
		return 0, false
	}

	for _, pattern := range durationPatterns {
		match := pattern.FindStringSubmatch(css)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		if match[2] == "ms" {
			value /= 1000
		}
		return value, true
	}

	return 0, false
}

// durationSimilarity compares declared animation durations, defaulting
// to a neutral value when a duration cannot be extracted from either
// side.
func durationSimilarity(cssA, cssB string) float64 {
	durA, okA := ExtractAnimationDuration(cssA)
	durB, okB := ExtractAnimationDuration(cssB)
	if !okA || !okB {
		return neutralDuration
	}

	maxDur := math.Max(durA, durB)
	if maxDur == 0 {
		return 1.0
	}

	sim := 1.0 - math.Abs(durA-durB)/maxDur
	if sim < 0 {
		return 0
	}
	return sim
}
