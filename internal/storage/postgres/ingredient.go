package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mealbrawl/mealbrawl/internal/game/random"
)

// ErrIngredientNotFound is returned when an ingredient lookup yields no live row.
var ErrIngredientNotFound = errors.New("ingredient not found")

// ErrIngredientExists is returned when adding a duplicate ingredient name.
var ErrIngredientExists = errors.New("ingredient already exists")

// ErrIngredientDeleted is returned when operating on a soft-deleted ingredient.
var ErrIngredientDeleted = errors.New("ingredient has been deleted")

// ErrInvalidQuantity is returned for a non-positive ingredient quantity.
var ErrInvalidQuantity = errors.New("ingredient quantity must be positive")

// ErrNoIngredients is returned when a random pick finds the pantry empty.
var ErrNoIngredients = errors.New("no ingredients available")

// Ingredient is one pantry item.
type Ingredient struct {
	ID       int64      `json:"id"`
	Type     string     `json:"type"`
	Name     string     `json:"name"`
	Expires  *time.Time `json:"expires,omitempty"`
	Quantity int        `json:"quantity"`
	Unit     string     `json:"unit"`
}

// IngredientRepository provides pantry persistence operations.
type IngredientRepository struct {
	db *pgxpool.Pool
}

// NewIngredientRepository creates an IngredientRepository backed by the
// given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewIngredientRepository(db *pgxpool.Pool) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// Add inserts a new ingredient.
//
// Precondition: ing.Name must be non-empty.
// Postcondition: Returns the created ingredient with ID set,
// ErrInvalidQuantity for non-positive quantities, or ErrIngredientExists
// for duplicate names.
func (r *IngredientRepository) Add(ctx context.Context, ing Ingredient) (Ingredient, error) {
	if ing.Quantity <= 0 {
		return Ingredient{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, ing.Quantity)
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO ingredients (type, name, expires, quantity, unit)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		ing.Type, ing.Name, ing.Expires, ing.Quantity, ing.Unit,
	).Scan(&ing.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Ingredient{}, fmt.Errorf("%w: %q", ErrIngredientExists, ing.Name)
		}
		return Ingredient{}, fmt.Errorf("inserting ingredient: %w", err)
	}
	return ing, nil
}

// GetByID retrieves an ingredient by ID, excluding soft-deleted rows.
//
// Postcondition: Returns the ingredient or ErrIngredientNotFound.
func (r *IngredientRepository) GetByID(ctx context.Context, id int64) (Ingredient, error) {
	var ing Ingredient
	err := r.db.QueryRow(ctx,
		`SELECT id, type, name, expires, quantity, unit
		 FROM ingredients WHERE id = $1 AND deleted = FALSE`,
		id,
	).Scan(&ing.ID, &ing.Type, &ing.Name, &ing.Expires, &ing.Quantity, &ing.Unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ingredient{}, fmt.Errorf("%w: id %d", ErrIngredientNotFound, id)
		}
		return Ingredient{}, fmt.Errorf("querying ingredient: %w", err)
	}
	return ing, nil
}

// List returns all live ingredients ordered by name.
func (r *IngredientRepository) List(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, type, name, expires, quantity, unit
		 FROM ingredients WHERE deleted = FALSE
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients: %w", err)
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Type, &ing.Name, &ing.Expires, &ing.Quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("scanning ingredient row: %w", err)
		}
		out = append(out, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingredient rows: %w", err)
	}
	return out, nil
}

// Delete soft-deletes an ingredient.
//
// Postcondition: Returns nil on success, ErrIngredientNotFound for missing
// rows, or ErrIngredientDeleted when already soft-deleted.
func (r *IngredientRepository) Delete(ctx context.Context, id int64) error {
	var deleted bool
	err := r.db.QueryRow(ctx,
		`SELECT deleted FROM ingredients WHERE id = $1`, id,
	).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrIngredientNotFound, id)
		}
		return fmt.Errorf("querying ingredient: %w", err)
	}
	if deleted {
		return fmt.Errorf("%w: id %d", ErrIngredientDeleted, id)
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE ingredients SET deleted = TRUE WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("deleting ingredient: %w", err)
	}
	return nil
}

// UpdateQuantity replaces the stored quantity for an ingredient.
//
// Precondition: quantity must be positive.
// Postcondition: Returns ErrInvalidQuantity, ErrIngredientNotFound, or nil.
func (r *IngredientRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE ingredients SET quantity = $1 WHERE id = $2 AND deleted = FALSE`,
		quantity, id,
	)
	if err != nil {
		return fmt.Errorf("updating ingredient quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrIngredientNotFound, id)
	}
	return nil
}

// RandomItem picks one live ingredient uniformly using the given random
// provider.
//
// Precondition: rng must be non-nil.
// Postcondition: Returns a live ingredient, ErrNoIngredients when the
// pantry is empty, or the provider's error unchanged.
func (r *IngredientRepository) RandomItem(ctx context.Context, rng random.Provider) (Ingredient, error) {
	items, err := r.List(ctx)
	if err != nil {
		return Ingredient{}, err
	}
	if len(items) == 0 {
		return Ingredient{}, ErrNoIngredients
	}

	draw, err := rng.Float(ctx)
	if err != nil {
		return Ingredient{}, fmt.Errorf("drawing random ingredient: %w", err)
	}
	return items[int(draw*float64(len(items)))], nil
}
