package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mealbrawl/mealbrawl/internal/config"
	"github.com/mealbrawl/mealbrawl/internal/game/battle"
	"github.com/mealbrawl/mealbrawl/internal/game/random"
	"github.com/mealbrawl/mealbrawl/internal/storage/postgres"
)

// MealStore is the meal persistence surface consumed by the HTTP handlers.
// Satisfied by *postgres.MealRepository.
type MealStore interface {
	Create(ctx context.Context, name, cuisine string, price float64, difficulty battle.Difficulty) (battle.Meal, error)
	GetByID(ctx context.Context, id int64) (battle.Meal, error)
	GetByName(ctx context.Context, name string) (battle.Meal, error)
	Delete(ctx context.Context, id int64) error
	Leaderboard(ctx context.Context, sortBy string) ([]postgres.LeaderboardEntry, error)
}

// IngredientStore is the pantry persistence surface consumed by the HTTP
// handlers. Satisfied by *postgres.IngredientRepository.
type IngredientStore interface {
	Add(ctx context.Context, ing postgres.Ingredient) (postgres.Ingredient, error)
	GetByID(ctx context.Context, id int64) (postgres.Ingredient, error)
	List(ctx context.Context) ([]postgres.Ingredient, error)
	Delete(ctx context.Context, id int64) error
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	RandomItem(ctx context.Context, rng random.Provider) (postgres.Ingredient, error)
}

// HealthChecker reports database reachability. Satisfied by *postgres.Pool.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// Server is the HTTP API for meal management, pantry management, and battle
// resolution. It implements Service for lifecycle management.
//
// The arena is a single shared battle session; arenaMu serializes all
// stage/clear/resolve access because the arena itself is not safe for
// concurrent use.
type Server struct {
	cfg         config.HTTPConfig
	logger      *zap.Logger
	meals       MealStore
	ingredients IngredientStore
	health      HealthChecker
	rng         random.Provider
	metrics     *Metrics

	arenaMu sync.Mutex
	arena   *battle.Arena

	httpSrv *http.Server
}

// New creates a Server wired to the given collaborators.
//
// Precondition: all arguments must be non-nil.
// Postcondition: Returns a Server ready for Start.
func New(
	cfg config.HTTPConfig,
	logger *zap.Logger,
	arena *battle.Arena,
	meals MealStore,
	ingredients IngredientStore,
	health HealthChecker,
	rng random.Provider,
	metrics *Metrics,
) *Server {
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		meals:       meals,
		ingredients: ingredients,
		health:      health,
		rng:         rng,
		metrics:     metrics,
		arena:       arena,
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/meals", func(r chi.Router) {
			r.Post("/", s.handleCreateMeal)
			r.Get("/{id}", s.handleGetMeal)
			r.Delete("/{id}", s.handleDeleteMeal)
			r.Get("/by-name/{name}", s.handleGetMealByName)
		})

		r.Get("/leaderboard", s.handleLeaderboard)

		r.Route("/battle", func(r chi.Router) {
			r.Post("/", s.handleBattle)
			r.Route("/combatants", func(r chi.Router) {
				r.Post("/", s.handleStageCombatant)
				r.Get("/", s.handleListCombatants)
				r.Delete("/", s.handleClearCombatants)
			})
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Post("/", s.handleAddIngredient)
			r.Get("/", s.handleListIngredients)
			r.Get("/random", s.handleRandomIngredient)
			r.Get("/{id}", s.handleGetIngredient)
			r.Delete("/{id}", s.handleDeleteIngredient)
			r.Put("/{id}/quantity", s.handleUpdateQuantity)
		})
	})

	return r
}

// Start begins serving HTTP requests. Blocks until Stop is called or the
// listener fails.
//
// Postcondition: Returns nil after a graceful Stop, or the listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr()))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, bounded by the configured
// shutdown timeout.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}
