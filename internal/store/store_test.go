package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"

	"github.com/animstudio/solution-engine/pkg/models"
)

// StoreSuite is a test suite for SQLite persistence.
type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	st, err := NewStore(Config{
		Path:     filepath.Join(s.T().TempDir(), "solutions.db"),
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)
	s.store = st
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func sampleSolution(name string) *models.Solution {
	sol := models.NewSolution(name, models.CategoryEntrance, models.TechCSSAnimation)
	sol.Description = "a " + name + " animation"
	sol.CSSCode = ".x { opacity: 0; }"
	sol.Tags = models.JSONStringArray{"smooth", "subtle"}
	sol.Metrics.QualityScore = 80
	sol.Metrics.CalculateOverallScore()
	return sol
}

// =============================================================================
// GOOD SCENARIOS - Expected normal operations
// =============================================================================

func (s *StoreSuite) TestSaveLoad_GoodScenarios_RoundTrip() {
	sol := sampleSolution("fade")
	s.Require().NoError(s.store.SaveSolution(s.ctx, sol))

	loaded, skipped, err := s.store.LoadSolutions(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, skipped)
	s.Require().Len(loaded, 1)

	got := loaded[0]
	s.Equal(sol.ID, got.ID)
	s.Equal(sol.Category, got.Category)
	s.Equal(sol.TechStack, got.TechStack)
	s.Equal(sol.CSSCode, got.CSSCode)
	s.Equal([]string(sol.Tags), []string(got.Tags))
	s.InDelta(sol.Metrics.OverallScore, got.Metrics.OverallScore, 0.0001)
	s.Equal(sol.CreatedAt, got.CreatedAt)
}

func (s *StoreSuite) TestSave_GoodScenarios_UpsertByID() {
	sol := sampleSolution("fade")
	s.Require().NoError(s.store.SaveSolution(s.ctx, sol))

	sol.Name = "fade v2"
	sol.UsageCount = 3
	s.Require().NoError(s.store.SaveSolution(s.ctx, sol))

	loaded, _, err := s.store.LoadSolutions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.Equal("fade v2", loaded[0].Name)
	s.Equal(3, loaded[0].UsageCount)
}

func (s *StoreSuite) TestFavorites_GoodScenarios_OrderPreserved() {
	ids := []string{"id-c", "id-a", "id-b"}
	s.Require().NoError(s.store.SaveFavorites(s.ctx, ids))

	loaded, err := s.store.LoadFavorites(s.ctx)
	s.Require().NoError(err)
	s.Equal(ids, loaded)

	// Replacing the list drops the old entries entirely.
	s.Require().NoError(s.store.SaveFavorites(s.ctx, []string{"id-b"}))
	loaded, err = s.store.LoadFavorites(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"id-b"}, loaded)
}

func (s *StoreSuite) TestDelete_GoodScenarios_RemovesRecord() {
	sol := sampleSolution("fade")
	s.Require().NoError(s.store.SaveSolution(s.ctx, sol))
	s.Require().NoError(s.store.DeleteSolution(s.ctx, sol.ID))

	count, err := s.store.CountSolutions(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), count)
}

// =============================================================================
// WORSE SCENARIOS - Corrupt data that must not break the load
// =============================================================================

func (s *StoreSuite) TestLoad_WorseScenarios_SkipsMalformedRecords() {
	good := sampleSolution("good")
	s.Require().NoError(s.store.SaveSolution(s.ctx, good))

	// Corrupt a record directly: an enum value the domain does not know.
	bad := recordFromSolution(sampleSolution("bad"))
	bad.Category = "sideways"
	s.Require().NoError(s.store.DB.Create(bad).Error)

	loaded, skipped, err := s.store.LoadSolutions(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, skipped)
	s.Require().Len(loaded, 1)
	s.Equal(good.ID, loaded[0].ID)
}

func (s *StoreSuite) TestFavorites_WorseScenarios_EmptyList() {
	s.Require().NoError(s.store.SaveFavorites(s.ctx, []string{"id-a"}))
	s.Require().NoError(s.store.SaveFavorites(s.ctx, nil))

	loaded, err := s.store.LoadFavorites(s.ctx)
	s.Require().NoError(err)
	s.Empty(loaded)
}

func (s *StoreSuite) TestDelete_WorseScenarios_UnknownIDIsNoop() {
	s.Require().NoError(s.store.DeleteSolution(s.ctx, "nope"))
}
