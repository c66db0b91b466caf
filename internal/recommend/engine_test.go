package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/animstudio/solution-engine/internal/behavior"
	"github.com/animstudio/solution-engine/pkg/models"
)

// EngineSuite is a test suite for the recommendation engine.
type EngineSuite struct {
	suite.Suite
	tracker *behavior.Tracker
	engine  *Engine
}

func (s *EngineSuite) SetupTest() {
	s.tracker = behavior.NewTracker()
	s.engine = NewEngine(s.tracker, time.Hour)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func makeCandidate(name string, overall float64) *models.Solution {
	sol := models.NewSolution(name, models.CategoryEntrance, models.TechCSSAnimation)
	sol.Metrics.OverallScore = overall
	return sol
}

// =============================================================================
// GOOD SCENARIOS - Expected normal operations
// =============================================================================

func (s *EngineSuite) TestRecommend_GoodScenarios_OrderedByScore() {
	candidates := []*models.Solution{
		makeCandidate("low", 20),
		makeCandidate("high", 95),
		makeCandidate("mid", 60),
	}

	results := s.engine.Recommend(candidates, models.RecommendContext{}, 0)

	s.Require().Len(results, 3)
	s.Equal(candidates[1].ID, results[0].SolutionID)
	s.Equal(candidates[2].ID, results[1].SolutionID)
	s.Equal(candidates[0].ID, results[2].SolutionID)
	s.GreaterOrEqual(results[0].TotalScore, results[1].TotalScore)
	s.GreaterOrEqual(results[1].TotalScore, results[2].TotalScore)
}

func (s *EngineSuite) TestRecommend_GoodScenarios_LimitApplied() {
	candidates := []*models.Solution{
		makeCandidate("a", 50), makeCandidate("b", 60), makeCandidate("c", 70),
	}

	results := s.engine.Recommend(candidates, models.RecommendContext{}, 2)
	s.Len(results, 2)
}

func (s *EngineSuite) TestRecommend_GoodScenarios_ContextBonus() {
	match := makeCandidate("match", 50)
	other := makeCandidate("other", 50)
	other.Category = models.CategoryExit

	ctx := models.RecommendContext{TargetCategory: models.CategoryEntrance}
	results := s.engine.Recommend([]*models.Solution{other, match}, ctx, 0)

	s.Require().Len(results, 2)
	s.Equal(match.ID, results[0].SolutionID, "category match must rank first")
	s.Greater(results[0].SimilarityScore, results[1].SimilarityScore)
}

func (s *EngineSuite) TestRecommend_GoodScenarios_CacheReturnsStaleResults() {
	candidates := []*models.Solution{
		makeCandidate("a", 50),
		makeCandidate("b", 60),
	}
	ctx := models.RecommendContext{}

	first := s.engine.Recommend(candidates, ctx, 0)

	// Mutate a candidate between the calls. Within the TTL the cached
	// ordering and scores must come back unchanged.
	candidates[0].UsageCount = 1000
	second := s.engine.Recommend(candidates, ctx, 0)

	s.Equal(first, second)
}

func (s *EngineSuite) TestRecommend_GoodScenarios_ExpiredCacheRecomputes() {
	candidates := []*models.Solution{makeCandidate("a", 50), makeCandidate("b", 60)}
	ctx := models.RecommendContext{}

	first := s.engine.Recommend(candidates, ctx, 0)

	candidates[0].UsageCount = 1000
	s.engine.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	second := s.engine.Recommend(candidates, ctx, 0)

	s.NotEqual(first, second, "expiry must force recomputation over the mutated candidates")
}

func (s *EngineSuite) TestRecordApply_GoodScenarios_InvalidatesCache() {
	sol := makeCandidate("a", 50)
	candidates := []*models.Solution{sol, makeCandidate("b", 60)}
	ctx := models.RecommendContext{}

	s.engine.Recommend(candidates, ctx, 0)
	s.Equal(1, s.engine.Statistics().CachedEntries)

	s.engine.RecordApply(sol)
	s.Equal(0, s.engine.Statistics().CachedEntries)
}

func (s *EngineSuite) TestGetSimilar_GoodScenarios_ExcludesTarget() {
	target := makeCandidate("target", 70)
	twin := makeCandidate("twin", 72)
	stranger := makeCandidate("stranger", 10)
	stranger.Category = models.CategoryComposite
	stranger.TechStack = models.TechThreeJS

	results := s.engine.GetSimilarSolutions(target, []*models.Solution{target, stranger, twin}, 0)

	s.Require().Len(results, 2)
	s.Equal(twin.ID, results[0].Solution.ID)
	s.Equal(stranger.ID, results[1].Solution.ID)
}

func (s *EngineSuite) TestGetTrending_GoodScenarios_RecentUsageWins() {
	hot := makeCandidate("hot", 50)
	hot.UsageCount = 5
	cold := makeCandidate("cold", 50)
	cold.UsageCount = 5
	cold.UpdatedAtEpoch = time.Now().Add(-30 * 24 * time.Hour).UnixMilli()

	results := s.engine.GetTrendingSolutions([]*models.Solution{cold, hot}, 0)

	s.Require().Len(results, 2)
	s.Equal(hot.ID, results[0].Solution.ID)
	s.InDelta(2.5, results[0].TrendScore, 1e-9)
	s.Zero(results[1].TrendScore)
}

func (s *EngineSuite) TestGetTrending_GoodScenarios_StaleUsageYieldsToRatings() {
	stale := makeCandidate("stale", 50)
	stale.UsageCount = 1000
	stale.UpdatedAtEpoch = time.Now().Add(-90 * 24 * time.Hour).UnixMilli()
	rated := makeCandidate("rated", 50)
	s.Require().NoError(rated.AddUserRating(4))

	results := s.engine.GetTrendingSolutions([]*models.Solution{stale, rated}, 0)

	s.Require().Len(results, 2)
	s.Equal(rated.ID, results[0].Solution.ID)
	s.Zero(results[1].TrendScore)
}

// =============================================================================
// WORSE SCENARIOS - Edge cases that should still work
// =============================================================================

func (s *EngineSuite) TestRecommend_WorseScenarios_EmptyCandidates() {
	s.Empty(s.engine.Recommend(nil, models.RecommendContext{}, 10))
}

func (s *EngineSuite) TestRecommend_WorseScenarios_SubScoresBounded() {
	sol := makeCandidate("a", 100)
	sol.UsageCount = 50
	sol.UserRating = 5
	sol.FavoriteCount = 10

	results := s.engine.Recommend([]*models.Solution{sol}, models.RecommendContext{
		TargetCategory: models.CategoryEntrance,
		PreferredTech:  models.TechCSSAnimation,
		Keywords:       []string{"a"},
	}, 0)

	s.Require().Len(results, 1)
	r := results[0]
	for name, score := range map[string]float64{
		"total":      r.TotalScore,
		"quality":    r.QualityScore,
		"preference": r.PreferenceScore,
		"popularity": r.PopularityScore,
		"novelty":    r.NoveltyScore,
		"similarity": r.SimilarityScore,
	} {
		s.GreaterOrEqual(score, 0.0, name)
		s.LessOrEqual(score, 1.0, name)
	}
}

func (s *EngineSuite) TestPersonalized_WorseScenarios_FallsBackToAllCandidates() {
	// No behavior yet: every category weight is 0, so the filter would
	// reject everything and must fall back to the full candidate set.
	candidates := []*models.Solution{makeCandidate("a", 90), makeCandidate("b", 30)}

	results := s.engine.GetPersonalizedRecommendations(candidates, 0)
	s.Len(results, 2)
}

func (s *EngineSuite) TestExplanation_WorseScenarios_AlwaysPresent() {
	results := s.engine.Recommend([]*models.Solution{makeCandidate("a", 10)}, models.RecommendContext{}, 0)

	s.Require().Len(results, 1)
	s.NotEmpty(results[0].Explanation)
}
