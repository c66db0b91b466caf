package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/animstudio/solution-engine/internal/behavior"
	"github.com/animstudio/solution-engine/pkg/models"
)

// ModelSuite is a test suite for preference derivation.
type ModelSuite struct {
	suite.Suite
	tracker *behavior.Tracker
	model   *Model
	now     time.Time
}

func (s *ModelSuite) SetupTest() {
	s.tracker = behavior.NewTracker()
	s.model = NewModel(s.tracker)
	s.now = time.Now()
}

func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelSuite))
}

func (s *ModelSuite) track(category models.Category, tech models.TechStack, action models.ActionKind) {
	sol := models.NewSolution("test", category, tech)
	switch action {
	case models.ActionView:
		s.tracker.TrackView(sol)
	case models.ActionApply:
		s.tracker.TrackApply(sol)
	case models.ActionFavorite:
		s.tracker.TrackFavorite(sol)
	}
}

// =============================================================================
// GOOD SCENARIOS - Expected normal operations
// =============================================================================

func (s *ModelSuite) TestDerive_GoodScenarios_NormalizedCategoryWeights() {
	s.track(models.CategoryEntrance, models.TechCSSAnimation, models.ActionApply) // weight 3
	s.track(models.CategoryExit, models.TechCSSAnimation, models.ActionView)      // weight 1

	vector := s.model.DeriveAt(s.now)

	s.InDelta(0.75, vector.Categories[models.CategoryEntrance], 0.0001)
	s.InDelta(0.25, vector.Categories[models.CategoryExit], 0.0001)
	s.InDelta(0.0, vector.Categories[models.CategoryComposite], 0.0001, "absent keys default to 0")
}

func (s *ModelSuite) TestDerive_GoodScenarios_ApplyRaisesQualityThreshold() {
	s.track(models.CategoryEntrance, models.TechCSSAnimation, models.ActionView)
	s.InDelta(0.6, s.model.DeriveAt(s.now).QualityThreshold, 0.0001)

	s.track(models.CategoryEntrance, models.TechCSSAnimation, models.ActionApply)
	s.InDelta(0.7, s.model.DeriveAt(s.now).QualityThreshold, 0.0001)
}

func (s *ModelSuite) TestDerive_GoodScenarios_ComplexityTracksTechUsage() {
	s.track(models.CategoryEffect, models.TechThreeJS, models.ActionApply)

	vector := s.model.DeriveAt(s.now)
	s.InDelta(0.9, vector.ComplexityAppetite, 0.0001, "pure three.js usage means 0.9 appetite")
}

func (s *ModelSuite) TestDerive_GoodScenarios_RecentActivityRaisesNovelty() {
	for i := 0; i < 5; i++ {
		s.track(models.CategoryEffect, models.TechGSAP, models.ActionView)
	}

	vector := s.model.DeriveAt(s.now)
	s.InDelta(0.8, vector.NoveltyAppetite, 0.0001, "all events are fresh")
}

// =============================================================================
// WORSE SCENARIOS - Edge cases that should still work
// =============================================================================

func (s *ModelSuite) TestDerive_WorseScenarios_EmptyLogYieldsDefaults() {
	vector := s.model.DeriveAt(s.now)

	for _, category := range models.AllCategories {
		s.InDelta(0.0, vector.Categories[category], 0.0001)
	}
	s.InDelta(0.6, vector.QualityThreshold, 0.0001)
	s.InDelta(0.0, vector.ComplexityAppetite, 0.0001)
	s.InDelta(0.4, vector.NoveltyAppetite, 0.0001)
}

func (s *ModelSuite) TestDerive_WorseScenarios_StaleActivityLowersNovelty() {
	s.track(models.CategoryEffect, models.TechGSAP, models.ActionView)

	// Evaluate from far in the future: every event is now stale.
	vector := s.model.DeriveAt(s.now.Add(60 * 24 * time.Hour))
	s.InDelta(0.4, vector.NoveltyAppetite, 0.0001)
}

func (s *ModelSuite) TestDerive_WorseScenarios_FreshEachCall() {
	s.track(models.CategoryEntrance, models.TechCSSAnimation, models.ActionView)
	first := s.model.DeriveAt(s.now)

	s.track(models.CategoryExit, models.TechJavaScript, models.ActionView)
	second := s.model.DeriveAt(s.now)

	s.InDelta(1.0, first.Categories[models.CategoryEntrance], 0.0001)
	s.InDelta(0.5, second.Categories[models.CategoryEntrance], 0.0001, "derivation recomputes from scratch")
}
