// Package recommend ranks solutions for a user by blending quality,
// learned preference, popularity, novelty and context similarity.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/internal/behavior"
	"github.com/animstudio/solution-engine/internal/preference"
	"github.com/animstudio/solution-engine/pkg/models"
	"github.com/animstudio/solution-engine/pkg/similarity"
)

// DefaultCacheTTL is how long a computed recommendation list stays valid.
// Within the window, repeat requests return the cached ordering unchanged
// even if the underlying solutions mutated. Staleness is accepted here.
const DefaultCacheTTL = time.Hour

// Novelty decay steps by solution age.
const (
	noveltyFreshDays  = 7
	noveltyRecentDays = 30
	noveltyAgingDays  = 90
)

// trendWindow bounds what counts as recent interaction for trending.
const trendWindow = 7 * 24 * time.Hour

type cacheEntry struct {
	results   []models.RecommendationResult
	expiresAt time.Time
}

// SimilarResult pairs a solution with its similarity to a target.
type SimilarResult struct {
	Solution   *models.Solution `json:"solution"`
	Similarity float64          `json:"similarity"`
}

// TrendingResult pairs a solution with its trend score.
type TrendingResult struct {
	Solution   *models.Solution `json:"solution"`
	TrendScore float64          `json:"trend_score"`
}

// Statistics reports the engine's runtime state.
type Statistics struct {
	CachedEntries int                     `json:"cached_entries"`
	CacheTTL      string                  `json:"cache_ttl"`
	TrackedEvents int                     `json:"tracked_events"`
	Weights       models.RecommendWeights `json:"weights"`
}

// Engine produces ranked recommendation lists. It owns the result cache
// and observes user behavior through the tracker so that preference
// changes invalidate cached rankings.
type Engine struct {
	tracker *behavior.Tracker
	prefs   *preference.Model
	calc    *similarity.Calculator
	weights models.RecommendWeights
	ttl     time.Duration
	cache   map[string]cacheEntry
	now     func() time.Time
	mu      sync.Mutex
}

// NewEngine creates an engine over the given behavior tracker.
func NewEngine(tracker *behavior.Tracker, ttl time.Duration) *Engine {
	if tracker == nil {
		tracker = behavior.NewTracker()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{
		tracker: tracker,
		prefs:   preference.NewModel(tracker),
		calc:    similarity.NewCalculator(),
		weights: models.DefaultRecommendWeights(),
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Recommend ranks the candidate solutions for the given context and
// returns up to limit results in descending score order, ties broken by
// candidate order. An empty candidate set yields an empty list. Results
// are cached by (sorted candidate ids, context, limit) for the TTL.
func (e *Engine) Recommend(candidates []*models.Solution, ctx models.RecommendContext, limit int) []models.RecommendationResult {
	if len(candidates) == 0 {
		return nil
	}

	key := cacheKey(candidates, ctx, limit)

	e.mu.Lock()
	if entry, ok := e.cache[key]; ok && e.now().Before(entry.expiresAt) {
		results := append([]models.RecommendationResult(nil), entry.results...)
		e.mu.Unlock()
		return results
	}
	e.mu.Unlock()

	prefs := e.prefs.Derive()
	pop := popularityBounds(candidates)
	now := e.now()

	results := make([]models.RecommendationResult, 0, len(candidates))
	for _, sol := range candidates {
		results = append(results, e.score(sol, prefs, pop, ctx, now))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalScore > results[j].TotalScore
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	e.mu.Lock()
	e.cache[key] = cacheEntry{
		results:   append([]models.RecommendationResult(nil), results...),
		expiresAt: now.Add(e.ttl),
	}
	e.mu.Unlock()

	log.Info().
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Msg("Computed recommendations")
	return results
}

func (e *Engine) score(sol *models.Solution, prefs models.PreferenceVector, pop popularity, ctx models.RecommendContext, now time.Time) models.RecommendationResult {
	w := e.weights

	quality := sol.Metrics.OverallScore / 100.0
	pref := e.preferenceMatch(sol, prefs)
	popular := pop.score(sol)
	novelty := noveltyScore(sol, now)
	contextSim := contextSimilarity(sol, ctx)

	total := quality*w.Quality +
		pref*w.Preference +
		popular*w.Popularity +
		novelty*w.Novelty +
		contextSim*w.Similarity

	return models.RecommendationResult{
		SolutionID:      sol.ID,
		TotalScore:      total,
		QualityScore:    quality,
		PreferenceScore: pref,
		PopularityScore: popular,
		NoveltyScore:    novelty,
		SimilarityScore: contextSim,
		Explanation:     explain(sol, quality, pref, popular, novelty),
	}
}

// preferenceMatch blends the learned preference vector against one
// candidate: category weight, tech-stack weight, whether the solution
// clears the user's quality threshold, and how close its tech complexity
// sits to the user's appetite.
func (e *Engine) preferenceMatch(sol *models.Solution, prefs models.PreferenceVector) float64 {
	w := e.weights

	thresholdMet := 0.0
	if sol.Metrics.OverallScore/100.0 >= prefs.QualityThreshold {
		thresholdMet = 1.0
	}
	complexityFit := 1.0 - math.Abs(prefs.ComplexityAppetite-models.TechComplexity(sol.TechStack))

	return prefs.CategoryWeight(sol.Category)*w.PrefCategory +
		prefs.TechStackWeight(sol.TechStack)*w.PrefTechStack +
		thresholdMet*w.PrefQualityMet +
		complexityFit*w.PrefComplexity
}

type popularity struct {
	maxUsage     int
	maxRating    float64
	maxFavorites int
}

func popularityBounds(candidates []*models.Solution) popularity {
	var p popularity
	for _, sol := range candidates {
		if sol.UsageCount > p.maxUsage {
			p.maxUsage = sol.UsageCount
		}
		if sol.UserRating > p.maxRating {
			p.maxRating = sol.UserRating
		}
		if sol.FavoriteCount > p.maxFavorites {
			p.maxFavorites = sol.FavoriteCount
		}
	}
	return p
}

// score normalizes each popularity signal against the candidate set's
// maximum, so popularity is relative to the request, not the corpus.
func (p popularity) score(sol *models.Solution) float64 {
	var usage, rating, favorites float64
	if p.maxUsage > 0 {
		usage = float64(sol.UsageCount) / float64(p.maxUsage)
	}
	if p.maxRating > 0 {
		rating = sol.UserRating / p.maxRating
	}
	if p.maxFavorites > 0 {
		favorites = float64(sol.FavoriteCount) / float64(p.maxFavorites)
	}
	return usage*0.5 + rating*0.3 + favorites*0.2
}

// noveltyScore decays with solution age in steps and blends 70/30 with
// an inverse-log usage term, so rarely used solutions keep some novelty
// even when old.
func noveltyScore(sol *models.Solution, now time.Time) float64 {
	age := sol.AgeDays(now)

	var decay float64
	switch {
	case age <= noveltyFreshDays:
		decay = 1.0
	case age <= noveltyRecentDays:
		decay = 0.8
	case age <= noveltyAgingDays:
		decay = 0.5
	default:
		decay = 0.2
	}

	usageNovelty := 1.0 / (1.0 + math.Log(1.0+float64(sol.UsageCount)))
	return decay*0.7 + usageNovelty*0.3
}

// contextSimilarity starts from a neutral 0.5 baseline and adds bonuses
// for explicit matches against the request context, capped at 1.0.
func contextSimilarity(sol *models.Solution, ctx models.RecommendContext) float64 {
	score := 0.5
	if ctx.IsZero() {
		return score
	}

	if ctx.TargetCategory != "" && sol.Category == ctx.TargetCategory {
		score += 0.3
	}
	if ctx.PreferredTech != "" && sol.TechStack == ctx.PreferredTech {
		score += 0.2
	}
	if len(ctx.Keywords) > 0 {
		score += 0.3 * keywordFraction(sol, ctx.Keywords)
	}

	return math.Min(score, 1.0)
}

func keywordFraction(sol *models.Solution, keywords []string) float64 {
	haystack := strings.ToLower(sol.Name + " " + sol.Description + " " + strings.Join(sol.Tags, " "))
	matched := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

var techDescriptions = map[models.TechStack]string{
	models.TechCSSAnimation: "lightweight CSS animation",
	models.TechJavaScript:   "scripted animation",
	models.TechGSAP:         "GSAP-powered animation",
	models.TechThreeJS:      "3D animation",
	models.TechSVGAnimation: "vector animation",
}

// explain assembles advisory display text from threshold crossings. It
// never feeds back into ranking.
func explain(sol *models.Solution, quality, pref, popular, novelty float64) string {
	var reasons []string
	if quality > 0.8 {
		reasons = append(reasons, "high-quality solution")
	}
	if pref > 0.7 {
		reasons = append(reasons, "matches your preferences")
	}
	if popular > 0.7 {
		reasons = append(reasons, "popular with other users")
	}
	if novelty > 0.7 {
		reasons = append(reasons, "fresh addition")
	}
	if desc, ok := techDescriptions[sol.TechStack]; ok {
		reasons = append(reasons, desc)
	}
	if len(reasons) == 0 {
		return "balanced across all criteria"
	}
	return strings.Join(reasons, ", ")
}

// GetSimilarSolutions ranks candidates by similarity to the target,
// excluding the target itself. It never consults the recommendation
// cache.
func (e *Engine) GetSimilarSolutions(target *models.Solution, candidates []*models.Solution, limit int) []SimilarResult {
	if target == nil {
		return nil
	}

	results := make([]SimilarResult, 0, len(candidates))
	for _, sol := range candidates {
		if sol.ID == target.ID {
			continue
		}
		results = append(results, SimilarResult{
			Solution:   sol,
			Similarity: e.calc.Similarity(target, sol),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// GetTrendingSolutions ranks candidates by recent traction: the usage
// count of solutions touched inside the trend window weighs 0.5, the
// rating volume 0.3 and favorites 0.2. Solutions untouched for longer
// than the window contribute no usage term. It never consults the
// recommendation cache.
func (e *Engine) GetTrendingSolutions(candidates []*models.Solution, limit int) []TrendingResult {
	cutoff := e.now().Add(-trendWindow).UnixMilli()

	results := make([]TrendingResult, 0, len(candidates))
	for _, sol := range candidates {
		recentUsage := 0
		if sol.UpdatedAtEpoch >= cutoff {
			recentUsage = sol.UsageCount
		}
		score := float64(recentUsage)*0.5 +
			sol.UserRating*float64(sol.RatingCount)*0.3 +
			float64(sol.FavoriteCount)*0.2
		results = append(results, TrendingResult{Solution: sol, TrendScore: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TrendScore > results[j].TrendScore
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// GetPersonalizedRecommendations narrows candidates to those meeting the
// user's derived quality threshold and favored categories, then ranks
// the remainder. When the filter leaves nothing, it falls back to the
// full candidate set so the user always sees a list.
func (e *Engine) GetPersonalizedRecommendations(candidates []*models.Solution, limit int) []models.RecommendationResult {
	prefs := e.prefs.Derive()

	var filtered []*models.Solution
	for _, sol := range candidates {
		if sol.Metrics.OverallScore/100.0 < prefs.QualityThreshold {
			continue
		}
		if prefs.CategoryWeight(sol.Category) <= 0.3 {
			continue
		}
		filtered = append(filtered, sol)
	}
	if len(filtered) == 0 {
		filtered = candidates
	}

	return e.Recommend(filtered, models.RecommendContext{}, limit)
}

// RecordView tracks a view event and invalidates cached rankings.
func (e *Engine) RecordView(sol *models.Solution) {
	e.tracker.TrackView(sol)
	e.ClearCache()
}

// RecordApply tracks an apply event and invalidates cached rankings.
func (e *Engine) RecordApply(sol *models.Solution) {
	e.tracker.TrackApply(sol)
	e.ClearCache()
}

// RecordFavorite tracks a favorite event and invalidates cached rankings.
func (e *Engine) RecordFavorite(sol *models.Solution) {
	e.tracker.TrackFavorite(sol)
	e.ClearCache()
}

// RecordRating tracks a rate event and invalidates cached rankings.
func (e *Engine) RecordRating(sol *models.Solution, rating float64) {
	e.tracker.TrackRating(sol, rating)
	e.ClearCache()
}

// SetCacheTTL changes the cache validity window and drops existing
// entries so nothing outlives the new TTL.
func (e *Engine) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	e.mu.Lock()
	e.ttl = ttl
	e.cache = make(map[string]cacheEntry)
	e.mu.Unlock()
}

// ClearCache drops every cached recommendation list.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]cacheEntry)
	e.mu.Unlock()
}

// Statistics reports cache and tracker state.
func (e *Engine) Statistics() Statistics {
	e.mu.Lock()
	cached := len(e.cache)
	ttl := e.ttl
	e.mu.Unlock()

	return Statistics{
		CachedEntries: cached,
		CacheTTL:      ttl.String(),
		TrackedEvents: e.tracker.EventCount(),
		Weights:       e.weights,
	}
}

// cacheKey builds a deterministic key from the sorted candidate IDs, the
// canonical JSON form of the context and the limit.
func cacheKey(candidates []*models.Solution, ctx models.RecommendContext, limit int) string {
	ids := make([]string, len(candidates))
	for i, sol := range candidates {
		ids[i] = sol.ID
	}
	sort.Strings(ids)

	ctxJSON, err := json.Marshal(ctx)
	if err != nil {
		ctxJSON = []byte("{}")
	}
	return fmt.Sprintf("%s|%s|%d", strings.Join(ids, ","), ctxJSON, limit)
}
