package models

// PreferenceVector is the derived model of what kinds of solutions a
// user tends to favor. It is recomputed fresh from the behavior log on
// each request and never persisted as authoritative state.
type PreferenceVector struct {
	Categories map[Category]float64  `json:"categories"`
	TechStacks map[TechStack]float64 `json:"tech_stacks"`

	// QualityThreshold in [0,1]: minimum quality the user tends to accept.
	QualityThreshold float64 `json:"quality_threshold"`
	// ComplexityAppetite in [0,1]: appetite for complex tech stacks.
	ComplexityAppetite float64 `json:"complexity_appetite"`
	// NoveltyAppetite in [0,1]: appetite for recently created solutions.
	NoveltyAppetite float64 `json:"novelty_appetite"`
}

// TechStackComplexity maps each tech stack to a fixed complexity
// constant used for the complexity-appetite derivation.
var TechStackComplexity = map[TechStack]float64{
	TechCSSAnimation: 0.3,
	TechJavaScript:   0.5,
	TechGSAP:         0.7,
	TechThreeJS:      0.9,
	TechSVGAnimation: 0.6,
}

// TechComplexity returns the complexity constant for a tech stack,
// defaulting to 0.5 for unknown stacks.
func TechComplexity(t TechStack) float64 {
	if c, ok := TechStackComplexity[t]; ok {
		return c
	}
	return 0.5
}

// DefaultPreferenceVector returns the neutral preference used before
// any behavior signal exists.
func DefaultPreferenceVector() PreferenceVector {
	return PreferenceVector{
		Categories:         map[Category]float64{},
		TechStacks:         map[TechStack]float64{},
		QualityThreshold:   0.6,
		ComplexityAppetite: 0.5,
		NoveltyAppetite:    0.5,
	}
}

// CategoryWeight returns the learned weight for a category, 0 when absent.
func (p PreferenceVector) CategoryWeight(c Category) float64 {
	return p.Categories[c]
}

// TechStackWeight returns the learned weight for a tech stack, 0 when absent.
func (p PreferenceVector) TechStackWeight(t TechStack) float64 {
	return p.TechStacks[t]
}
