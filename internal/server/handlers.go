package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mealbrawl/mealbrawl/internal/game/battle"
	"github.com/mealbrawl/mealbrawl/internal/game/random"
	"github.com/mealbrawl/mealbrawl/internal/storage/postgres"
)

// healthTimeout bounds the database ping behind /healthz.
const healthTimeout = 2 * time.Second

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

// statusForError maps domain sentinel errors onto HTTP status codes.
// Partial stat-update failures fall through to 500; the response body
// carries which update was applied.
func statusForError(err error) int {
	switch {
	case errors.Is(err, postgres.ErrMealNotFound),
		errors.Is(err, postgres.ErrIngredientNotFound),
		errors.Is(err, postgres.ErrNoIngredients):
		return http.StatusNotFound
	case errors.Is(err, postgres.ErrMealExists),
		errors.Is(err, postgres.ErrIngredientExists),
		errors.Is(err, postgres.ErrMealDeleted),
		errors.Is(err, postgres.ErrIngredientDeleted),
		errors.Is(err, battle.ErrRosterFull):
		return http.StatusConflict
	case errors.Is(err, postgres.ErrInvalidPrice),
		errors.Is(err, postgres.ErrInvalidDifficulty),
		errors.Is(err, postgres.ErrInvalidQuantity),
		errors.Is(err, postgres.ErrInvalidResult),
		errors.Is(err, postgres.ErrInvalidSort),
		errors.Is(err, battle.ErrTwoCombatantsRequired):
		return http.StatusBadRequest
	case errors.Is(err, random.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// mealPayload mirrors the wire shape of a meal; the display name travels
// under the "meal" key.
type mealPayload struct {
	ID         int64   `json:"id,omitempty"`
	Name       string  `json:"meal"`
	Cuisine    string  `json:"cuisine"`
	Price      float64 `json:"price"`
	Difficulty string  `json:"difficulty"`
}

func toMealPayload(m battle.Meal) mealPayload {
	return mealPayload{
		ID:         m.ID,
		Name:       m.Name,
		Cuisine:    m.Cuisine,
		Price:      m.Price,
		Difficulty: string(m.Difficulty),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Health(r.Context(), healthTimeout); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database unreachable"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	var req mealPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "meal name must not be empty"})
		return
	}

	created, err := s.meals.Create(r.Context(), req.Name, req.Cuisine, req.Price, battle.Difficulty(req.Difficulty))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toMealPayload(created))
}

func (s *Server) handleGetMeal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid meal id"})
		return
	}
	m, err := s.meals.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMealPayload(m))
}

func (s *Server) handleGetMealByName(w http.ResponseWriter, r *http.Request) {
	m, err := s.meals.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMealPayload(m))
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid meal id"})
		return
	}
	if err := s.meals.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = postgres.SortByWins
	}
	entries, err := s.meals.Leaderboard(r.Context(), sortBy)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if entries == nil {
		entries = []postgres.LeaderboardEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

type stageRequest struct {
	ID int64 `json:"id"`
}

func (s *Server) handleStageCombatant(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	m, err := s.meals.GetByID(r.Context(), req.ID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.arenaMu.Lock()
	err = s.arena.Stage(m)
	combatants := s.arena.Combatants()
	s.arenaMu.Unlock()
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"combatants": toMealPayloads(combatants)})
}

func (s *Server) handleListCombatants(w http.ResponseWriter, r *http.Request) {
	s.arenaMu.Lock()
	combatants := s.arena.Combatants()
	s.arenaMu.Unlock()
	s.respondJSON(w, http.StatusOK, map[string]any{"combatants": toMealPayloads(combatants)})
}

func (s *Server) handleClearCombatants(w http.ResponseWriter, r *http.Request) {
	s.arenaMu.Lock()
	s.arena.Clear()
	s.arenaMu.Unlock()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleBattle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	s.arenaMu.Lock()
	winner, err := s.arena.Resolve(r.Context())
	s.arenaMu.Unlock()

	s.metrics.BattleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.BattlesTotal.WithLabelValues("error").Inc()
		s.respondError(w, err)
		return
	}
	s.metrics.BattlesTotal.WithLabelValues("resolved").Inc()

	s.logger.Info("battle resolved", zap.String("winner", winner))
	s.respondJSON(w, http.StatusOK, map[string]string{"winner": winner})
}

func toMealPayloads(meals []battle.Meal) []mealPayload {
	out := make([]mealPayload, len(meals))
	for i, m := range meals {
		out[i] = toMealPayload(m)
	}
	return out
}

type ingredientPayload struct {
	ID       int64  `json:"id,omitempty"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Expires  string `json:"expires,omitempty"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

func toIngredientPayload(ing postgres.Ingredient) ingredientPayload {
	p := ingredientPayload{
		ID:       ing.ID,
		Type:     ing.Type,
		Name:     ing.Name,
		Quantity: ing.Quantity,
		Unit:     ing.Unit,
	}
	if ing.Expires != nil {
		p.Expires = ing.Expires.Format("2006-01-02")
	}
	return p
}

func (s *Server) handleAddIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "ingredient name must not be empty"})
		return
	}

	ing := postgres.Ingredient{
		Type:     req.Type,
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
	}
	if req.Expires != "" {
		expires, err := time.Parse("2006-01-02", req.Expires)
		if err != nil {
			s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expires date, want YYYY-MM-DD"})
			return
		}
		ing.Expires = &expires
	}

	created, err := s.ingredients.Add(r.Context(), ing)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toIngredientPayload(created))
}

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := s.ingredients.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	out := make([]ingredientPayload, len(items))
	for i, ing := range items {
		out[i] = toIngredientPayload(ing)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"ingredients": out})
}

func (s *Server) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ingredient id"})
		return
	}
	ing, err := s.ingredients.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toIngredientPayload(ing))
}

func (s *Server) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ingredient id"})
		return
	}
	if err := s.ingredients.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ingredient id"})
		return
	}
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.ingredients.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleRandomIngredient(w http.ResponseWriter, r *http.Request) {
	ing, err := s.ingredients.RandomItem(r.Context(), s.rng)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toIngredientPayload(ing))
}
