package evaluator

import (
	"strings"

	"github.com/animstudio/solution-engine/pkg/models"
)

// Sub-heuristics. Each returns a score in [0,100] built from structural
// signals in the code blobs. They take no state and no randomness so
// evaluation stays deterministic.

// analyzeCodeStructure rewards well-formed HTML and keyframe-based CSS.
func analyzeCodeStructure(sol *models.Solution) (float64, error) {
	score := 50.0

	if sol.HTMLCode != "" {
		if strings.Contains(sol.HTMLCode, "<div") && strings.Contains(sol.HTMLCode, "class=") {
			score += 10
		}
		if strings.Contains(sol.HTMLCode, "id=") {
			score += 5
		}
	}

	if sol.CSSCode != "" {
		if strings.Contains(sol.CSSCode, "@keyframes") {
			score += 15
		}
		if strings.Contains(sol.CSSCode, "transition") {
			score += 10
		}
		if strings.Contains(sol.CSSCode, "{") && strings.Contains(sol.CSSCode, "}") {
			score += 5
		}
	}

	return min100(score), nil
}

// analyzeSmoothness rewards easing functions and compositor-friendly
// properties.
func analyzeSmoothness(sol *models.Solution) (float64, error) {
	score := 60.0
	css := strings.ToLower(sol.CSSCode)

	for _, easing := range []string{"ease", "ease-in", "ease-out", "ease-in-out", "cubic-bezier"} {
		if strings.Contains(css, easing) {
			score += 8
			break
		}
	}

	if strings.Contains(css, "transform") {
		score += 15
	}
	if strings.Contains(css, "will-change") {
		score += 10
	}

	return min100(score), nil
}

// analyzeVisualAppeal counts color and effect vocabulary in the CSS.
func analyzeVisualAppeal(sol *models.Solution) (float64, error) {
	score := 50.0
	css := strings.ToLower(sol.CSSCode)

	for _, keyword := range []string{"color", "background", "gradient", "shadow"} {
		if strings.Contains(css, keyword) {
			score += 5
		}
	}

	for _, effect := range []string{"shadow", "gradient", "opacity", "blur", "scale"} {
		if strings.Contains(css, effect) {
			score += 6
		}
	}

	return min100(score), nil
}

// analyzeEfficiency rewards compositor-friendly properties and
// penalizes layout-thrashing ones.
func analyzeEfficiency(sol *models.Solution) (float64, error) {
	score := 70.0
	css := strings.ToLower(sol.CSSCode)
	if css == "" {
		return score, nil
	}

	for _, prop := range []string{"transform", "opacity", "filter"} {
		if strings.Contains(css, prop) {
			score += 5
		}
	}

	for _, prop := range []string{"left", "top", "width", "height"} {
		if strings.Contains(css, prop+":") {
			score -= 3
		}
	}

	return clamp(score), nil
}

// analyzeResourceUsage penalizes oversized code and external resources.
func analyzeResourceUsage(sol *models.Solution) (float64, error) {
	score := 80.0

	total := len(sol.HTMLCode) + len(sol.CSSCode)
	switch {
	case total < 1000:
		score += 10
	case total > 5000:
		score -= 10
	}

	if strings.Contains(sol.HTMLCode, "http://") || strings.Contains(sol.HTMLCode, "https://") {
		score -= 5
	}

	return clamp(score), nil
}

// analyzeBrowserCompat rewards modern CSS features and vendor prefixes.
func analyzeBrowserCompat(sol *models.Solution) (float64, error) {
	score := 75.0
	css := strings.ToLower(sol.CSSCode)
	if css == "" {
		return score, nil
	}

	for _, feature := range []string{"grid", "flexbox", "calc("} {
		if strings.Contains(css, feature) {
			score += 3
		}
	}

	if strings.Contains(sol.CSSCode, "-webkit-") || strings.Contains(sol.CSSCode, "-moz-") {
		score += 5
	}

	return min100(score), nil
}

// analyzeUniqueness rewards advanced CSS features rarely seen in
// generated animations.
func analyzeUniqueness(sol *models.Solution) (float64, error) {
	score := 50.0
	css := strings.ToLower(sol.CSSCode)

	for _, feature := range []string{"clip-path", "mask", "filter", "backdrop-filter"} {
		if strings.Contains(css, feature) {
			score += 10
		}
	}

	return min100(score), nil
}

// analyzeInnovation scores the tech stack itself: 3D and dedicated
// animation libraries read as more innovative than plain CSS.
func analyzeInnovation(sol *models.Solution) (float64, error) {
	score := 50.0

	switch sol.TechStack {
	case models.TechThreeJS:
		score += 20
	case models.TechGSAP:
		score += 15
	case models.TechCSSAnimation:
		score += 5
	}

	return min100(score), nil
}

// analyzeArtisticValue counts visual richness vocabulary.
func analyzeArtisticValue(sol *models.Solution) (float64, error) {
	score := 50.0
	css := strings.ToLower(sol.CSSCode)

	for _, element := range []string{"gradient", "shadow", "border-radius", "opacity"} {
		if strings.Contains(css, element) {
			score += 5
		}
	}

	return min100(score), nil
}

func min100(score float64) float64 {
	if score > 100 {
		return 100
	}
	return score
}
