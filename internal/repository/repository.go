// Package repository manages the in-memory solution corpus with optional
// SQLite persistence behind it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/internal/evaluator"
	"github.com/animstudio/solution-engine/internal/store"
	"github.com/animstudio/solution-engine/pkg/models"
)

// ErrInvalidRating marks a rating the solution refused to fold in.
var ErrInvalidRating = errors.New("invalid rating")

// SearchFilters narrows a search before relevance ranking. Zero values
// mean "no constraint".
type SearchFilters struct {
	Category   models.Category  `json:"category,omitempty"`
	TechStack  models.TechStack `json:"tech_stack,omitempty"`
	MinQuality float64          `json:"min_quality,omitempty"`
	MinRating  float64          `json:"min_rating,omitempty"`
}

// SearchResult pairs a solution with its relevance score.
type SearchResult struct {
	Solution  *models.Solution `json:"solution"`
	Relevance float64          `json:"relevance"`
}

// TopSolution identifies the best-scoring solution in the corpus.
type TopSolution struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	OverallScore float64 `json:"overall_score"`
}

// Statistics summarizes the corpus.
type Statistics struct {
	TotalSolutions  int                        `json:"total_solutions"`
	ByCategory      map[models.Category]int    `json:"by_category"`
	ByTechStack     map[models.TechStack]int   `json:"by_tech_stack"`
	ByQualityTier   map[models.QualityTier]int `json:"by_quality_tier"`
	AverageOverall  float64                    `json:"average_overall"`
	AverageRating   float64                    `json:"average_rating"`
	RatedSolutions  int                        `json:"rated_solutions"`
	TotalUsage      int                        `json:"total_usage"`
	TotalFavorites  int                        `json:"total_favorites"`
	FavoriteEntries int                        `json:"favorite_entries"`
	TopSolution     *TopSolution               `json:"top_solution,omitempty"`
}

// Repository is the canonical solution registry. All reads and writes go
// through it; the store, when present, mirrors its state on disk.
type Repository struct {
	solutions map[string]*models.Solution
	order     []string // insertion order, used for stable tie-breaking
	favorites []string // ordered favorite solution IDs
	evaluator *evaluator.Evaluator
	store     *store.Store
	mu        sync.RWMutex
}

// New creates a repository. The store is optional; pass nil for a purely
// in-memory corpus. When a store is given, existing solutions and
// favorites are loaded immediately.
func New(eval *evaluator.Evaluator, st *store.Store) (*Repository, error) {
	if eval == nil {
		eval = evaluator.New(nil)
	}
	r := &Repository{
		solutions: make(map[string]*models.Solution),
		evaluator: eval,
		store:     st,
	}
	if st != nil {
		if err := r.loadFromStore(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Repository) loadFromStore() error {
	ctx := context.Background()

	solutions, skipped, err := r.store.LoadSolutions(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	for _, sol := range solutions {
		r.solutions[sol.ID] = sol
		r.order = append(r.order, sol.ID)
	}

	favorites, err := r.store.LoadFavorites(ctx)
	if err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}
	for _, id := range favorites {
		if _, ok := r.solutions[id]; ok {
			r.favorites = append(r.favorites, id)
		}
	}

	log.Info().
		Int("solutions", len(r.order)).
		Int("skipped", skipped).
		Int("favorites", len(r.favorites)).
		Msg("Loaded solution corpus")
	return nil
}

// Add registers a solution. With autoEvaluate set, the evaluator scores
// it first and the quality tier is derived from the overall score.
// Adding an ID that already exists replaces the previous entry in place.
func (r *Repository) Add(ctx context.Context, sol *models.Solution, autoEvaluate bool) error {
	if sol == nil {
		return fmt.Errorf("add: nil solution")
	}
	if sol.ID == "" {
		return fmt.Errorf("add: solution has empty id")
	}

	if autoEvaluate {
		sol.Metrics = r.evaluator.Evaluate(sol)
	}
	sol.QualityTier = models.TierForScore(sol.Metrics.OverallScore)

	r.mu.Lock()
	if _, exists := r.solutions[sol.ID]; !exists {
		r.order = append(r.order, sol.ID)
	}
	r.solutions[sol.ID] = sol
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveSolution(ctx, sol); err != nil {
			return fmt.Errorf("persist solution: %w", err)
		}
	}

	log.Info().
		Str("solution_id", sol.ID).
		Str("category", string(sol.Category)).
		Str("tier", string(sol.QualityTier)).
		Float64("overall", sol.Metrics.OverallScore).
		Msg("Added solution")
	return nil
}

// Get returns a solution by ID.
func (r *Repository) Get(id string) (*models.Solution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sol, ok := r.solutions[id]
	return sol, ok
}

// Save persists a solution already held by the repository, after in-place
// mutation (rating, usage, favorites).
func (r *Repository) Save(ctx context.Context, sol *models.Solution) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveSolution(ctx, sol); err != nil {
		return fmt.Errorf("persist solution: %w", err)
	}
	return nil
}

// Rate folds a user rating into a solution under the repository lock and
// persists the result. The boolean reports whether the ID was found;
// rejected ratings wrap ErrInvalidRating.
func (r *Repository) Rate(ctx context.Context, id string, rating float64) (*models.Solution, bool, error) {
	r.mu.Lock()
	sol, ok := r.solutions[id]
	if !ok {
		r.mu.Unlock()
		return nil, false, nil
	}
	if err := sol.AddUserRating(rating); err != nil {
		r.mu.Unlock()
		return sol, true, fmt.Errorf("%w: %s", ErrInvalidRating, err)
	}
	r.mu.Unlock()
	return sol, true, r.Save(ctx, sol)
}

// RecordUsage bumps a solution's usage counter under the repository lock
// and persists the result.
func (r *Repository) RecordUsage(ctx context.Context, id string) (*models.Solution, bool, error) {
	r.mu.Lock()
	sol, ok := r.solutions[id]
	if !ok {
		r.mu.Unlock()
		return nil, false, nil
	}
	sol.IncrementUsage()
	r.mu.Unlock()
	return sol, true, r.Save(ctx, sol)
}

// Reevaluate rescores a solution in place under the repository lock,
// refreshes its quality tier and persists the result.
func (r *Repository) Reevaluate(ctx context.Context, id string) (*models.Solution, bool, error) {
	r.mu.Lock()
	sol, ok := r.solutions[id]
	if !ok {
		r.mu.Unlock()
		return nil, false, nil
	}
	sol.Metrics = r.evaluator.Evaluate(sol)
	sol.QualityTier = models.TierForScore(sol.Metrics.OverallScore)
	sol.Touch()
	r.mu.Unlock()
	return sol, true, r.Save(ctx, sol)
}

// Remove deletes a solution, drops it from the favorites list and removes
// its persisted record. Removing an unknown ID reports false.
func (r *Repository) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	_, ok := r.solutions[id]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	delete(r.solutions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	removedFavorite := r.dropFavoriteLocked(id)
	favorites := append([]string(nil), r.favorites...)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.DeleteSolution(ctx, id); err != nil {
			return true, err
		}
		if removedFavorite {
			if err := r.store.SaveFavorites(ctx, favorites); err != nil {
				return true, err
			}
		}
	}

	log.Info().Str("solution_id", id).Msg("Removed solution")
	return true, nil
}

func (r *Repository) dropFavoriteLocked(id string) bool {
	for i, fid := range r.favorites {
		if fid == id {
			r.favorites = append(r.favorites[:i], r.favorites[i+1:]...)
			return true
		}
	}
	return false
}

// All returns every solution in insertion order.
func (r *Repository) All() []*models.Solution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Solution, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.solutions[id])
	}
	return out
}

// Count returns the number of solutions held.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.solutions)
}

// Search ranks solutions against a free-text query. Filters are applied
// first; relevance is a field-weighted match score (name 10, description
// 5, each matching tag 3) boosted by overall quality. An empty query matches everything
// at a uniform base relevance, so filters alone can drive a search.
func (r *Repository) Search(query string, filters SearchFilters) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []SearchResult
	for _, id := range r.order {
		sol := r.solutions[id]
		if !matchesFilters(sol, filters) {
			continue
		}
		score := relevance(sol, q)
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{Solution: sol, Relevance: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results
}

func matchesFilters(sol *models.Solution, f SearchFilters) bool {
	if f.Category != "" && sol.Category != f.Category {
		return false
	}
	if f.TechStack != "" && sol.TechStack != f.TechStack {
		return false
	}
	if f.MinQuality > 0 && sol.Metrics.OverallScore < f.MinQuality {
		return false
	}
	if f.MinRating > 0 && sol.UserRating < f.MinRating {
		return false
	}
	return true
}

func relevance(sol *models.Solution, query string) float64 {
	boost := 1.0 + sol.Metrics.OverallScore/100.0
	if query == "" {
		return boost
	}

	var score float64
	if strings.Contains(strings.ToLower(sol.Name), query) {
		score += 10
	}
	if strings.Contains(strings.ToLower(sol.Description), query) {
		score += 5
	}
	for _, tag := range sol.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			score += 3
		}
	}
	if score == 0 {
		return 0
	}
	return score * boost
}

// GetByCategory returns solutions in the given category, insertion order.
func (r *Repository) GetByCategory(category models.Category) []*models.Solution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Solution
	for _, id := range r.order {
		if sol := r.solutions[id]; sol.Category == category {
			out = append(out, sol)
		}
	}
	return out
}

// GetByQualityTier returns solutions in the given tier, insertion order.
func (r *Repository) GetByQualityTier(tier models.QualityTier) []*models.Solution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Solution
	for _, id := range r.order {
		if sol := r.solutions[id]; sol.QualityTier == tier {
			out = append(out, sol)
		}
	}
	return out
}

// TopRated returns up to limit solutions ordered by user rating, then by
// rating count. Unrated solutions rank last.
func (r *Repository) TopRated(limit int) []*models.Solution {
	sols := r.All()
	sort.SliceStable(sols, func(i, j int) bool {
		if sols[i].UserRating != sols[j].UserRating {
			return sols[i].UserRating > sols[j].UserRating
		}
		return sols[i].RatingCount > sols[j].RatingCount
	})
	return truncate(sols, limit)
}

// MostUsed returns up to limit solutions ordered by usage count.
func (r *Repository) MostUsed(limit int) []*models.Solution {
	sols := r.All()
	sort.SliceStable(sols, func(i, j int) bool {
		return sols[i].UsageCount > sols[j].UsageCount
	})
	return truncate(sols, limit)
}

func truncate(sols []*models.Solution, limit int) []*models.Solution {
	if limit > 0 && len(sols) > limit {
		return sols[:limit]
	}
	return sols
}

// AddFavorite marks a solution as a favorite. Adding an existing favorite
// is a no-op and does not bump the counter, so the list holds no
// duplicates. Reports whether the solution exists.
func (r *Repository) AddFavorite(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	sol, ok := r.solutions[id]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	for _, fid := range r.favorites {
		if fid == id {
			r.mu.Unlock()
			return true, nil
		}
	}
	r.favorites = append(r.favorites, id)
	sol.IncrementFavorites()
	favorites := append([]string(nil), r.favorites...)
	r.mu.Unlock()

	if err := r.persistFavorites(ctx, favorites, sol); err != nil {
		return true, err
	}
	return true, nil
}

// RemoveFavorite unmarks a favorite. The favorite counter never goes
// below zero. Reports whether the solution was a favorite.
func (r *Repository) RemoveFavorite(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	sol, ok := r.solutions[id]
	if !ok || !r.dropFavoriteLocked(id) {
		r.mu.Unlock()
		return false, nil
	}
	sol.DecrementFavorites()
	favorites := append([]string(nil), r.favorites...)
	r.mu.Unlock()

	if err := r.persistFavorites(ctx, favorites, sol); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Repository) persistFavorites(ctx context.Context, favorites []string, sol *models.Solution) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveFavorites(ctx, favorites); err != nil {
		return fmt.Errorf("persist favorites: %w", err)
	}
	if err := r.store.SaveSolution(ctx, sol); err != nil {
		return fmt.Errorf("persist solution: %w", err)
	}
	return nil
}

// FavoriteSolutions returns favorites in the order they were added.
func (r *Repository) FavoriteSolutions() []*models.Solution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Solution, 0, len(r.favorites))
	for _, id := range r.favorites {
		if sol, ok := r.solutions[id]; ok {
			out = append(out, sol)
		}
	}
	return out
}

// IsFavorite reports whether the solution is currently a favorite.
func (r *Repository) IsFavorite(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fid := range r.favorites {
		if fid == id {
			return true
		}
	}
	return false
}

// Statistics computes corpus-wide aggregates. The average rating only
// covers solutions that have at least one rating.
func (r *Repository) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		TotalSolutions:  len(r.order),
		ByCategory:      make(map[models.Category]int),
		ByTechStack:     make(map[models.TechStack]int),
		ByQualityTier:   make(map[models.QualityTier]int),
		FavoriteEntries: len(r.favorites),
	}

	var overallSum, ratingSum float64
	var top *models.Solution
	for _, id := range r.order {
		sol := r.solutions[id]
		stats.ByCategory[sol.Category]++
		stats.ByTechStack[sol.TechStack]++
		stats.ByQualityTier[sol.QualityTier]++
		stats.TotalUsage += sol.UsageCount
		stats.TotalFavorites += sol.FavoriteCount
		overallSum += sol.Metrics.OverallScore
		if sol.RatingCount > 0 {
			stats.RatedSolutions++
			ratingSum += sol.UserRating
		}
		if top == nil || sol.Metrics.OverallScore > top.Metrics.OverallScore {
			top = sol
		}
	}

	if stats.TotalSolutions > 0 {
		stats.AverageOverall = overallSum / float64(stats.TotalSolutions)
	}
	if stats.RatedSolutions > 0 {
		stats.AverageRating = ratingSum / float64(stats.RatedSolutions)
	}
	if top != nil {
		stats.TopSolution = &TopSolution{
			ID:           top.ID,
			Name:         top.Name,
			OverallScore: top.Metrics.OverallScore,
		}
	}
	return stats
}
