package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/animstudio/solution-engine/internal/repository"
	"github.com/animstudio/solution-engine/pkg/models"
)

// writeJSON writes a JSON response with proper error handling.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error payload.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   s.version,
		"solutions": s.repo.Count(),
	})
}

// AddSolutionRequest is the payload for registering a solution.
type AddSolutionRequest struct {
	Solution     *models.Solution `json:"solution"`
	AutoEvaluate bool             `json:"auto_evaluate"`
}

func (s *Service) handleAddSolution(w http.ResponseWriter, r *http.Request) {
	var req AddSolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Solution == nil {
		writeError(w, http.StatusBadRequest, "missing solution")
		return
	}
	sol := req.Solution
	if sol.ID == "" {
		fresh := models.NewSolution(sol.Name, sol.Category, sol.TechStack)
		fresh.Description = sol.Description
		fresh.HTMLCode = sol.HTMLCode
		fresh.CSSCode = sol.CSSCode
		fresh.JSCode = sol.JSCode
		fresh.Tags = sol.Tags
		fresh.Author = sol.Author
		sol = fresh
	}
	if _, err := models.ParseCategory(string(sol.Category)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := models.ParseTechStack(string(sol.TechStack)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.Add(r.Context(), sol, req.AutoEvaluate); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sol)
}

func (s *Service) handleListSolutions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.All())
}

func (s *Service) handleGetSolution(w http.ResponseWriter, r *http.Request) {
	sol, ok := s.repo.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

func (s *Service) handleRemoveSolution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.repo.Remove(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := repository.SearchFilters{
		Category:   models.Category(q.Get("category")),
		TechStack:  models.TechStack(q.Get("tech_stack")),
		MinQuality: queryFloat(q.Get("min_quality")),
		MinRating:  queryFloat(q.Get("min_rating")),
	}
	results := s.repo.Search(q.Get("q"), filters)
	writeJSON(w, http.StatusOK, results)
}

func (s *Service) handleByCategory(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.repo.GetByCategory(category))
}

func (s *Service) handleByTier(w http.ResponseWriter, r *http.Request) {
	tier, err := models.ParseQualityTier(chi.URLParam(r, "tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.repo.GetByQualityTier(tier))
}

func (s *Service) handleTopRated(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.TopRated(s.limit(r)))
}

func (s *Service) handleMostUsed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.MostUsed(s.limit(r)))
}

func (s *Service) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sol, found, err := s.repo.Reevaluate(r.Context(), chi.URLParam(r, "id"))
	if !found {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sol.Metrics)
}

// RateRequest carries a user rating in [0, 5].
type RateRequest struct {
	Rating float64 `json:"rating"`
}

func (s *Service) handleRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sol, found, err := s.repo.Rate(r.Context(), chi.URLParam(r, "id"), req.Rating)
	if !found {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRating) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.engine.RecordRating(sol, req.Rating)
	writeJSON(w, http.StatusOK, sol)
}

func (s *Service) handleUsage(w http.ResponseWriter, r *http.Request) {
	sol, found, err := s.repo.RecordUsage(r.Context(), chi.URLParam(r, "id"))
	if !found {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.engine.RecordApply(sol)
	writeJSON(w, http.StatusOK, map[string]int{"usage_count": sol.UsageCount})
}

func (s *Service) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.repo.AddFavorite(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	if sol, found := s.repo.Get(id); found {
		s.engine.RecordFavorite(sol)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": true})
}

func (s *Service) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ok, err := s.repo.RemoveFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not a favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": false})
}

func (s *Service) handleFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.FavoriteSolutions())
}

func (s *Service) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.Statistics())
}

func (s *Service) handleEngineStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Statistics())
}

// RecommendRequest selects candidates and context for a recommendation
// run. Empty candidate IDs means the whole corpus.
type RecommendRequest struct {
	CandidateIDs []string                `json:"candidate_ids,omitempty"`
	Context      models.RecommendContext `json:"context"`
	Limit        int                     `json:"limit"`
}

func (s *Service) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidates := s.candidates(req.CandidateIDs)
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit()
	}
	writeJSON(w, http.StatusOK, s.engine.Recommend(candidates, req.Context, limit))
}

func (s *Service) handlePersonalized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.GetPersonalizedRecommendations(s.repo.All(), s.limit(r)))
}

func (s *Service) handleSimilar(w http.ResponseWriter, r *http.Request) {
	target, ok := s.repo.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.GetSimilarSolutions(target, s.repo.All(), s.limit(r)))
}

func (s *Service) handleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.GetTrendingSolutions(s.repo.All(), s.limit(r)))
}

// TrackEventRequest reports a user interaction with a solution.
type TrackEventRequest struct {
	Action     models.ActionKind `json:"action"`
	SolutionID string            `json:"solution_id"`
	Rating     float64           `json:"rating,omitempty"`
}

func (s *Service) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var req TrackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sol, ok := s.repo.Get(req.SolutionID)
	if !ok {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}

	switch req.Action {
	case models.ActionView:
		s.engine.RecordView(sol)
	case models.ActionApply:
		if _, _, err := s.repo.RecordUsage(r.Context(), sol.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.engine.RecordApply(sol)
	case models.ActionFavorite:
		if _, err := s.repo.AddFavorite(r.Context(), sol.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.engine.RecordFavorite(sol)
	case models.ActionRate:
		if _, _, err := s.repo.Rate(r.Context(), sol.ID, req.Rating); err != nil {
			if errors.Is(err, repository.ErrInvalidRating) {
				writeError(w, http.StatusBadRequest, err.Error())
			} else {
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		s.engine.RecordRating(sol, req.Rating)
	default:
		writeError(w, http.StatusBadRequest, "unknown action kind")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"tracked": string(req.Action)})
}

// CreateVersionRequest describes an edit being versioned.
type CreateVersionRequest struct {
	Changes string `json:"changes"`
}

func (s *Service) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	sol, ok := s.repo.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "solution not found")
		return
	}
	var req CreateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	assigned := s.versions.CreateVersion(sol, req.Changes)
	if err := s.repo.Save(r.Context(), sol); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"solution_id": sol.ID,
		"version":     assigned,
	})
}

func (s *Service) handleVersionHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.versions.History(chi.URLParam(r, "id")))
}

// RollbackRequest targets a historical version.
type RollbackRequest struct {
	Version string `json:"version"`
}

func (s *Service) handleRollback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	restored, ok := s.versions.RollbackToVersion(id, req.Version)
	if !ok {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

// candidates resolves candidate IDs against the corpus, falling back to
// every solution when none are given. Unknown IDs are skipped.
func (s *Service) candidates(ids []string) []*models.Solution {
	if len(ids) == 0 {
		return s.repo.All()
	}
	out := make([]*models.Solution, 0, len(ids))
	for _, id := range ids {
		if sol, ok := s.repo.Get(id); ok {
			out = append(out, sol)
		}
	}
	return out
}

func (s *Service) limit(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return s.defaultLimit()
}

func queryFloat(raw string) float64 {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
