package models

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// SolutionSuite is a test suite for the solution data model.
type SolutionSuite struct {
	suite.Suite
	sol *Solution
}

func (s *SolutionSuite) SetupTest() {
	s.sol = NewSolution("Fade In", CategoryEntrance, TechCSSAnimation)
}

func TestSolutionSuite(t *testing.T) {
	suite.Run(t, new(SolutionSuite))
}

// =============================================================================
// GOOD SCENARIOS - Expected normal operations
// =============================================================================

func (s *SolutionSuite) TestOverallScore_GoodScenarios_FixedWeights() {
	m := SolutionMetrics{
		QualityScore:       80,
		PerformanceScore:   60,
		CreativityScore:    40,
		UsabilityScore:     20,
		CompatibilityScore: 100,
	}
	m.CalculateOverallScore()

	// 80×0.30 + 60×0.25 + 40×0.20 + 20×0.15 + 100×0.10 = 60
	s.InDelta(60.0, m.OverallScore, 0.0001)
}

func (s *SolutionSuite) TestOverallScore_GoodScenarios_RecomputeAfterChange() {
	m := SolutionMetrics{QualityScore: 100}
	m.CalculateOverallScore()
	s.InDelta(30.0, m.OverallScore, 0.0001)

	m.CompatibilityScore = 100
	m.CalculateOverallScore()
	s.InDelta(40.0, m.OverallScore, 0.0001)
}

func (s *SolutionSuite) TestAddUserRating_GoodScenarios_RunningMean() {
	ratings := []float64{5, 3, 4}
	for _, r := range ratings {
		s.Require().NoError(s.sol.AddUserRating(r))
	}

	s.Equal(3, s.sol.RatingCount)
	s.InDelta(4.0, s.sol.UserRating, 0.0001, "mean of 5, 3, 4 is 4.0")
}

func (s *SolutionSuite) TestTierForScore_GoodScenarios_Boundaries() {
	s.Equal(TierExcellent, TierForScore(85))
	s.Equal(TierGood, TierForScore(70))
	s.Equal(TierAverage, TierForScore(50))
	s.Equal(TierPoor, TierForScore(49.9))
}

func (s *SolutionSuite) TestClone_GoodScenarios_NewIdentity() {
	s.sol.Tags = JSONStringArray{"fade", "subtle"}
	s.sol.UsageCount = 7

	dup := s.sol.Clone()

	s.NotEqual(s.sol.ID, dup.ID, "clone must get a fresh identity")
	s.Equal(s.sol.Name, dup.Name)
	s.Equal(s.sol.UsageCount, dup.UsageCount)
	s.Equal(s.sol.Version, dup.Version)

	dup.Tags[0] = "changed"
	s.Equal("fade", string(s.sol.Tags[0]), "clone tags must be independent")
}

// =============================================================================
// WORSE SCENARIOS - Edge cases that should still work
// =============================================================================

func (s *SolutionSuite) TestAddUserRating_WorseScenarios_BoundaryValues() {
	s.Require().NoError(s.sol.AddUserRating(0))
	s.Require().NoError(s.sol.AddUserRating(5))

	s.Equal(2, s.sol.RatingCount)
	s.InDelta(2.5, s.sol.UserRating, 0.0001)
}

func (s *SolutionSuite) TestDecrementFavorites_WorseScenarios_FloorAtZero() {
	s.sol.DecrementFavorites()
	s.Equal(0, s.sol.FavoriteCount)

	s.sol.IncrementFavorites()
	s.sol.DecrementFavorites()
	s.sol.DecrementFavorites()
	s.Equal(0, s.sol.FavoriteCount)
}

func (s *SolutionSuite) TestRateWeight_WorseScenarios_Rounding() {
	s.Equal(5, RateWeight(4.6))
	s.Equal(4, RateWeight(4.4))
	s.Equal(0, RateWeight(0))
}

// =============================================================================
// BAD SCENARIOS - Invalid inputs that must be rejected
// =============================================================================

func (s *SolutionSuite) TestAddUserRating_BadScenarios_OutOfRange() {
	s.Require().NoError(s.sol.AddUserRating(4))

	s.Error(s.sol.AddUserRating(-0.1))
	s.Error(s.sol.AddUserRating(5.1))

	s.Equal(1, s.sol.RatingCount, "rejected ratings must not touch the count")
	s.InDelta(4.0, s.sol.UserRating, 0.0001, "rejected ratings must not touch the mean")
}

func (s *SolutionSuite) TestParse_BadScenarios_UnknownEnums() {
	_, err := ParseCategory("sideways")
	s.Error(err)

	_, err = ParseTechStack("flash")
	s.Error(err)

	_, err = ParseQualityTier("legendary")
	s.Error(err)
}
