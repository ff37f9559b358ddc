package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mealbrawl/mealbrawl/internal/game/battle"
)

// Leaderboard sort modes.
const (
	SortByWins   = "wins"
	SortByWinPct = "win_pct"
)

// ErrMealNotFound is returned when a meal lookup yields no live row.
var ErrMealNotFound = errors.New("meal not found")

// ErrMealExists is returned when creating a meal whose name is taken.
var ErrMealExists = errors.New("meal already exists")

// ErrMealDeleted is returned when operating on a soft-deleted meal.
var ErrMealDeleted = errors.New("meal has been deleted")

// ErrInvalidPrice is returned when creating a meal with a non-positive price.
var ErrInvalidPrice = errors.New("meal price must be positive")

// ErrInvalidDifficulty is returned when creating a meal with an
// unrecognised difficulty tier.
var ErrInvalidDifficulty = errors.New("invalid meal difficulty")

// ErrInvalidResult is returned when UpdateStats is called with a result
// other than "win" or "loss".
var ErrInvalidResult = errors.New("invalid battle result")

// ErrInvalidSort is returned when Leaderboard is called with an unknown
// sort mode.
var ErrInvalidSort = errors.New("invalid leaderboard sort")

// LeaderboardEntry is one ranked row of battle statistics.
type LeaderboardEntry struct {
	ID         int64             `json:"id"`
	Name       string            `json:"meal"`
	Cuisine    string            `json:"cuisine"`
	Price      float64           `json:"price"`
	Difficulty battle.Difficulty `json:"difficulty"`
	Battles    int               `json:"battles"`
	Wins       int               `json:"wins"`
	WinPct     float64           `json:"win_pct"`
}

// MealRepository provides meal persistence operations. It satisfies the
// battle engine's StatRecorder contract.
type MealRepository struct {
	db *pgxpool.Pool
}

// NewMealRepository creates a MealRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMealRepository(db *pgxpool.Pool) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a new meal with zeroed battle statistics.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created meal with ID set, ErrInvalidPrice or
// ErrInvalidDifficulty on bad attributes, or ErrMealExists if the name is
// taken.
func (r *MealRepository) Create(ctx context.Context, name, cuisine string, price float64, difficulty battle.Difficulty) (battle.Meal, error) {
	if price <= 0 {
		return battle.Meal{}, fmt.Errorf("%w: got %v", ErrInvalidPrice, price)
	}
	if !battle.ValidDifficulty(difficulty) {
		return battle.Meal{}, fmt.Errorf("%w: got %q", ErrInvalidDifficulty, difficulty)
	}

	var m battle.Meal
	err := r.db.QueryRow(ctx,
		`INSERT INTO meals (name, cuisine, price, difficulty)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, cuisine, price, difficulty`,
		name, cuisine, price, string(difficulty),
	).Scan(&m.ID, &m.Name, &m.Cuisine, &m.Price, &m.Difficulty)
	if err != nil {
		if isDuplicateKeyError(err) {
			return battle.Meal{}, fmt.Errorf("%w: %q", ErrMealExists, name)
		}
		return battle.Meal{}, fmt.Errorf("inserting meal: %w", err)
	}

	return m, nil
}

// GetByID retrieves a meal by ID, excluding soft-deleted rows.
//
// Postcondition: Returns the meal or ErrMealNotFound.
func (r *MealRepository) GetByID(ctx context.Context, id int64) (battle.Meal, error) {
	var m battle.Meal
	err := r.db.QueryRow(ctx,
		`SELECT id, name, cuisine, price, difficulty
		 FROM meals WHERE id = $1 AND deleted = FALSE`,
		id,
	).Scan(&m.ID, &m.Name, &m.Cuisine, &m.Price, &m.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return battle.Meal{}, fmt.Errorf("%w: id %d", ErrMealNotFound, id)
		}
		return battle.Meal{}, fmt.Errorf("querying meal: %w", err)
	}
	return m, nil
}

// GetByName retrieves a meal by its unique name, excluding soft-deleted rows.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the meal or ErrMealNotFound.
func (r *MealRepository) GetByName(ctx context.Context, name string) (battle.Meal, error) {
	var m battle.Meal
	err := r.db.QueryRow(ctx,
		`SELECT id, name, cuisine, price, difficulty
		 FROM meals WHERE name = $1 AND deleted = FALSE`,
		name,
	).Scan(&m.ID, &m.Name, &m.Cuisine, &m.Price, &m.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return battle.Meal{}, fmt.Errorf("%w: name %q", ErrMealNotFound, name)
		}
		return battle.Meal{}, fmt.Errorf("querying meal: %w", err)
	}
	return m, nil
}

// Delete soft-deletes a meal. The row is kept; every other operation treats
// it as gone.
//
// Postcondition: Returns nil on success, ErrMealNotFound for missing rows,
// or ErrMealDeleted when already soft-deleted.
func (r *MealRepository) Delete(ctx context.Context, id int64) error {
	var deleted bool
	err := r.db.QueryRow(ctx,
		`SELECT deleted FROM meals WHERE id = $1`, id,
	).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrMealNotFound, id)
		}
		return fmt.Errorf("querying meal: %w", err)
	}
	if deleted {
		return fmt.Errorf("%w: id %d", ErrMealDeleted, id)
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE meals SET deleted = TRUE WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("deleting meal: %w", err)
	}
	return nil
}

// UpdateStats applies one battle outcome to a meal's statistics. A "win"
// increments both the battle count and the win count; a "loss" increments
// the battle count only.
//
// Precondition: result must be battle.ResultWin or battle.ResultLoss.
// Postcondition: Returns ErrInvalidResult for unknown results,
// ErrMealNotFound for missing rows, ErrMealDeleted for soft-deleted rows.
// Never swallows a failure.
func (r *MealRepository) UpdateStats(ctx context.Context, id int64, result string) error {
	var query string
	switch result {
	case battle.ResultWin:
		query = `UPDATE meals SET battles = battles + 1, wins = wins + 1 WHERE id = $1 AND deleted = FALSE`
	case battle.ResultLoss:
		query = `UPDATE meals SET battles = battles + 1 WHERE id = $1 AND deleted = FALSE`
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating meal stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a soft-deleted one.
		var deleted bool
		err := r.db.QueryRow(ctx,
			`SELECT deleted FROM meals WHERE id = $1`, id,
		).Scan(&deleted)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrMealNotFound, id)
			}
			return fmt.Errorf("querying meal: %w", err)
		}
		return fmt.Errorf("%w: id %d", ErrMealDeleted, id)
	}
	return nil
}

// Leaderboard returns all live meals with at least one battle, ranked by
// the given sort mode.
//
// Precondition: sortBy must be SortByWins or SortByWinPct.
// Postcondition: Entries are ordered descending; WinPct is wins/battles.
func (r *MealRepository) Leaderboard(ctx context.Context, sortBy string) ([]LeaderboardEntry, error) {
	var order string
	switch sortBy {
	case SortByWins:
		order = "wins DESC"
	case SortByWinPct:
		order = "win_pct DESC"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, sortBy)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, cuisine, price, difficulty, battles, wins,
		        (wins::DOUBLE PRECISION / battles) AS win_pct
		 FROM meals
		 WHERE deleted = FALSE AND battles > 0
		 ORDER BY `+order,
	)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Cuisine, &e.Price, &e.Difficulty, &e.Battles, &e.Wins, &e.WinPct); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leaderboard rows: %w", err)
	}
	return entries, nil
}
