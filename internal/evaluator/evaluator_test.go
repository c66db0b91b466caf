package evaluator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/animstudio/solution-engine/pkg/models"
)

// EvaluatorSuite is a test suite for the quality evaluator.
type EvaluatorSuite struct {
	suite.Suite
	eval *Evaluator
}

func (s *EvaluatorSuite) SetupTest() {
	s.eval = New(nil)
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func richSolution() *models.Solution {
	sol := models.NewSolution("Glow Pulse", models.CategoryEffect, models.TechCSSAnimation)
	sol.HTMLCode = `<div class="glow" id="glow"><!-- pulsing glow --></div>`
	sol.CSSCode = `@keyframes pulse {
  from { transform: scale(1); opacity: 0.6; }
  to { transform: scale(1.2); opacity: 1; }
}
.glow {
  animation: pulse 1.5s ease-in-out infinite;
  transition: transform 0.3s;
  background: radial-gradient(circle, gold, transparent);
  box-shadow: 0 0 20px gold;
  will-change: transform;
}`
	sol.JSCode = `const glow = document.querySelector('.glow');`
	return sol
}

// =============================================================================
// GOOD SCENARIOS - Expected normal operations
// =============================================================================

func (s *EvaluatorSuite) TestEvaluate_GoodScenarios_Deterministic() {
	sol := richSolution()

	first := s.eval.Evaluate(sol)
	second := s.eval.Evaluate(sol)

	s.Equal(first, second, "same code must always yield identical scores")
}

func (s *EvaluatorSuite) TestEvaluate_GoodScenarios_OverallIsWeightedBlend() {
	m := s.eval.Evaluate(richSolution())

	expected := m.QualityScore*models.WeightQuality +
		m.PerformanceScore*models.WeightPerformance +
		m.CreativityScore*models.WeightCreativity +
		m.UsabilityScore*models.WeightUsability +
		m.CompatibilityScore*models.WeightCompatibility
	s.InDelta(expected, m.OverallScore, 0.0001)
}

func (s *EvaluatorSuite) TestEvaluate_GoodScenarios_RichCSSBeatsBare() {
	bare := models.NewSolution("Bare", models.CategoryEffect, models.TechCSSAnimation)
	rich := s.eval.Evaluate(richSolution())

	s.Greater(rich.OverallScore, s.eval.Evaluate(bare).OverallScore)
}

func (s *EvaluatorSuite) TestEvaluate_GoodScenarios_AllScoresBounded() {
	for _, sol := range []*models.Solution{
		richSolution(),
		models.NewSolution("Empty", models.CategoryExit, models.TechThreeJS),
	} {
		m := s.eval.Evaluate(sol)
		for name, score := range map[string]float64{
			"quality":       m.QualityScore,
			"performance":   m.PerformanceScore,
			"creativity":    m.CreativityScore,
			"usability":     m.UsabilityScore,
			"compatibility": m.CompatibilityScore,
			"overall":       m.OverallScore,
		} {
			s.GreaterOrEqual(score, 0.0, name)
			s.LessOrEqual(score, 100.0, name)
		}
	}
}

// =============================================================================
// WORSE SCENARIOS - Edge cases that should still work
// =============================================================================

func (s *EvaluatorSuite) TestEvaluate_WorseScenarios_MarkupOnly() {
	sol := models.NewSolution("Markup Only", models.CategoryEntrance, models.TechCSSAnimation)
	sol.HTMLCode = `<div class="box" id="box"><!-- fades in --></div>`

	m := s.eval.Evaluate(sol)

	// structure 65, smoothness 60, appeal 50 -> 57.5
	s.InDelta(57.5, m.QualityScore, 0.0001)
	// efficiency 70, resources 90 (small, no external), compat 75 -> 77.5
	s.InDelta(77.5, m.PerformanceScore, 0.0001)
	// only the css_animation innovation bonus moves the neutral 50
	s.InDelta(51.5, m.CreativityScore, 0.0001)
	// base 70, html comment +10, css stack +10
	s.InDelta(90.0, m.UsabilityScore, 0.0001)
	// base 80, no css features, no js
	s.InDelta(80.0, m.CompatibilityScore, 0.0001)

	s.InDelta(68.425, m.OverallScore, 0.0001)
}

func (s *EvaluatorSuite) TestEvaluate_WorseScenarios_EmptySolution() {
	sol := models.NewSolution("Empty", models.CategoryExit, models.TechJavaScript)

	m := s.eval.Evaluate(sol)

	s.Greater(m.OverallScore, 0.0, "empty code still gets neutral baselines, not a hard zero")
}

func (s *EvaluatorSuite) TestEvaluate_WorseScenarios_OversizedCodePenalized() {
	small := richSolution()
	big := richSolution()
	big.CSSCode += "\n/* " + string(make([]byte, 6000)) + " */"

	s.Less(s.eval.Evaluate(big).UsabilityScore, s.eval.Evaluate(small).UsabilityScore)
}
