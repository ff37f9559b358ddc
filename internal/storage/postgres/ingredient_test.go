package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealbrawl/mealbrawl/internal/storage/postgres"
	"github.com/mealbrawl/mealbrawl/internal/testutil"
)

func TestIngredientRepository_AddAndLookup(t *testing.T) {
	repo := postgres.NewIngredientRepository(testutil.NewPool(t))
	ctx := context.Background()

	expires := time.Date(2026, 11, 11, 0, 0, 0, 0, time.UTC)
	name := uniqueName("cabbage")
	created, err := repo.Add(ctx, postgres.Ingredient{
		Type:     "Vegetable",
		Name:     name,
		Expires:  &expires,
		Quantity: 800,
		Unit:     "grams",
	})
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, "Vegetable", got.Type)
	assert.Equal(t, 800, got.Quantity)
	assert.Equal(t, "grams", got.Unit)
	require.NotNil(t, got.Expires)
	assert.Equal(t, expires.Year(), got.Expires.Year())

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.Add(ctx, postgres.Ingredient{Type: "Vegetable", Name: name, Quantity: 1, Unit: "grams"})
		assert.ErrorIs(t, err, postgres.ErrIngredientExists)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := repo.Add(ctx, postgres.Ingredient{Type: "Vegetable", Name: uniqueName("air"), Quantity: -800, Unit: "grams"})
		assert.ErrorIs(t, err, postgres.ErrInvalidQuantity)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, postgres.ErrIngredientNotFound)
	})
}

func TestIngredientRepository_ListAndQuantity(t *testing.T) {
	repo := postgres.NewIngredientRepository(testutil.NewPool(t))
	ctx := context.Background()

	a, err := repo.Add(ctx, postgres.Ingredient{Type: "Spice", Name: uniqueName("cumin"), Quantity: 50, Unit: "grams"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, postgres.Ingredient{Type: "Dairy", Name: uniqueName("butter"), Quantity: 250, Unit: "grams"})
	require.NoError(t, err)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, repo.UpdateQuantity(ctx, a.ID, 25))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Quantity)

	assert.ErrorIs(t, repo.UpdateQuantity(ctx, a.ID, 0), postgres.ErrInvalidQuantity)
	assert.ErrorIs(t, repo.UpdateQuantity(ctx, 999999, 10), postgres.ErrIngredientNotFound)
}

func TestIngredientRepository_SoftDelete(t *testing.T) {
	repo := postgres.NewIngredientRepository(testutil.NewPool(t))
	ctx := context.Background()

	created, err := repo.Add(ctx, postgres.Ingredient{Type: "Vegetable", Name: uniqueName("leek"), Quantity: 3, Unit: "pieces"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, postgres.ErrIngredientNotFound)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "deleted ingredients must not be listed")

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), postgres.ErrIngredientDeleted)
	assert.ErrorIs(t, repo.Delete(ctx, 999999), postgres.ErrIngredientNotFound)
}

func TestIngredientRepository_RandomItem(t *testing.T) {
	repo := postgres.NewIngredientRepository(testutil.NewPool(t))
	ctx := context.Background()

	_, err := repo.RandomItem(ctx, fixedDraw(0.5))
	assert.ErrorIs(t, err, postgres.ErrNoIngredients)

	first, err := repo.Add(ctx, postgres.Ingredient{Type: "Spice", Name: "aniseed", Quantity: 10, Unit: "grams"})
	require.NoError(t, err)
	second, err := repo.Add(ctx, postgres.Ingredient{Type: "Spice", Name: "basil", Quantity: 10, Unit: "grams"})
	require.NoError(t, err)

	// List orders by name, so a low draw picks the first and a high draw
	// the second.
	got, err := repo.RandomItem(ctx, fixedDraw(0.0))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = repo.RandomItem(ctx, fixedDraw(0.9))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}
