package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealbrawl/mealbrawl/internal/game/battle"
	"github.com/mealbrawl/mealbrawl/internal/game/random"
	"github.com/mealbrawl/mealbrawl/internal/storage/postgres"
	"github.com/mealbrawl/mealbrawl/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func fixedDraw(v float64) random.Provider {
	return random.ProviderFunc(func(context.Context) (float64, error) {
		return v, nil
	})
}

func zapNop() *zap.Logger { return zap.NewNop() }

func TestMealRepository_CreateAndLookup(t *testing.T) {
	repo := postgres.NewMealRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("spaghetti")
	created, err := repo.Create(ctx, name, "Italian", 15.00, battle.DifficultyMed)
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.Equal(t, name, created.Name)
	assert.Equal(t, "Italian", created.Cuisine)
	assert.Equal(t, 15.00, created.Price)
	assert.Equal(t, battle.DifficultyMed, created.Difficulty)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byName, err := repo.GetByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, created, byName)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.Create(ctx, name, "Italian", 12.00, battle.DifficultyLow)
		assert.ErrorIs(t, err, postgres.ErrMealExists)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, postgres.ErrMealNotFound)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := repo.GetByName(ctx, "no such meal")
		assert.ErrorIs(t, err, postgres.ErrMealNotFound)
	})
}

func TestMealRepository_CreateValidation(t *testing.T) {
	repo := postgres.NewMealRepository(testutil.NewPool(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, uniqueName("free"), "Italian", 0, battle.DifficultyMed)
	assert.ErrorIs(t, err, postgres.ErrInvalidPrice)

	_, err = repo.Create(ctx, uniqueName("negative"), "Italian", -4.50, battle.DifficultyMed)
	assert.ErrorIs(t, err, postgres.ErrInvalidPrice)

	_, err = repo.Create(ctx, uniqueName("impossible"), "Italian", 9.99, "EXTREME")
	assert.ErrorIs(t, err, postgres.ErrInvalidDifficulty)
}

func TestMealRepository_SoftDelete(t *testing.T) {
	repo := postgres.NewMealRepository(testutil.NewPool(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, uniqueName("sushi"), "Japanese", 20.00, battle.DifficultyHigh)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	// Deleted rows are invisible to lookups but still present.
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, postgres.ErrMealNotFound)

	// Double delete is detected, not silently repeated.
	err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, postgres.ErrMealDeleted)

	err = repo.Delete(ctx, 999999)
	assert.ErrorIs(t, err, postgres.ErrMealNotFound)
}

func TestMealRepository_UpdateStats(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewMealRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, uniqueName("tacos"), "Mexican", 8.00, battle.DifficultyLow)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStats(ctx, created.ID, battle.ResultWin))
	require.NoError(t, repo.UpdateStats(ctx, created.ID, battle.ResultLoss))
	require.NoError(t, repo.UpdateStats(ctx, created.ID, battle.ResultWin))

	var battles, wins int
	err = pool.QueryRow(ctx,
		`SELECT battles, wins FROM meals WHERE id = $1`, created.ID,
	).Scan(&battles, &wins)
	require.NoError(t, err)
	assert.Equal(t, 3, battles, "every result increments the battle count")
	assert.Equal(t, 2, wins, "only wins increment the win count")

	t.Run("invalid result", func(t *testing.T) {
		err := repo.UpdateStats(ctx, created.ID, "draw")
		assert.ErrorIs(t, err, postgres.ErrInvalidResult)
	})

	t.Run("missing meal", func(t *testing.T) {
		err := repo.UpdateStats(ctx, 999999, battle.ResultWin)
		assert.ErrorIs(t, err, postgres.ErrMealNotFound)
	})

	t.Run("deleted meal", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created.ID))
		err := repo.UpdateStats(ctx, created.ID, battle.ResultLoss)
		assert.ErrorIs(t, err, postgres.ErrMealDeleted)
	})
}

func TestMealRepository_Leaderboard(t *testing.T) {
	repo := postgres.NewMealRepository(testutil.NewPool(t))
	ctx := context.Background()

	// steady: 4 battles, 2 wins (50%). ace: 2 battles, 2 wins (100%).
	// idle: never fought, so it must not appear at all.
	steady, err := repo.Create(ctx, uniqueName("steady"), "Italian", 15.00, battle.DifficultyMed)
	require.NoError(t, err)
	ace, err := repo.Create(ctx, uniqueName("ace"), "Japanese", 20.00, battle.DifficultyHigh)
	require.NoError(t, err)
	_, err = repo.Create(ctx, uniqueName("idle"), "French", 30.00, battle.DifficultyHigh)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.UpdateStats(ctx, steady.ID, battle.ResultWin))
		require.NoError(t, repo.UpdateStats(ctx, steady.ID, battle.ResultLoss))
		require.NoError(t, repo.UpdateStats(ctx, ace.ID, battle.ResultWin))
	}

	byWins, err := repo.Leaderboard(ctx, postgres.SortByWins)
	require.NoError(t, err)
	require.Len(t, byWins, 2)
	assert.Equal(t, 2, byWins[0].Wins)
	assert.Equal(t, 2, byWins[1].Wins)

	byPct, err := repo.Leaderboard(ctx, postgres.SortByWinPct)
	require.NoError(t, err)
	require.Len(t, byPct, 2)
	assert.Equal(t, ace.ID, byPct[0].ID)
	assert.Equal(t, 1.0, byPct[0].WinPct)
	assert.Equal(t, steady.ID, byPct[1].ID)
	assert.Equal(t, 0.5, byPct[1].WinPct)

	_, err = repo.Leaderboard(ctx, "losses")
	assert.ErrorIs(t, err, postgres.ErrInvalidSort)
}

func TestMealRepository_ResolvesBattleEndToEnd(t *testing.T) {
	// The repository is the engine's StatRecorder; drive a full battle
	// through it.
	pool := testutil.NewPool(t)
	repo := postgres.NewMealRepository(pool)
	ctx := context.Background()

	spaghetti, err := repo.Create(ctx, uniqueName("spaghetti"), "Italian", 15.00, battle.DifficultyMed)
	require.NoError(t, err)
	sushi, err := repo.Create(ctx, uniqueName("sushi"), "Japanese", 20.00, battle.DifficultyHigh)
	require.NoError(t, err)

	arena := battle.NewArena(fixedDraw(0.6), repo, zapNop())
	require.NoError(t, arena.Stage(spaghetti))
	require.NoError(t, arena.Stage(sushi))

	winner, err := arena.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, sushi.Name, winner)

	var battles, wins int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT battles, wins FROM meals WHERE id = $1`, sushi.ID,
	).Scan(&battles, &wins))
	assert.Equal(t, 1, battles)
	assert.Equal(t, 1, wins)

	require.NoError(t, pool.QueryRow(ctx,
		`SELECT battles, wins FROM meals WHERE id = $1`, spaghetti.ID,
	).Scan(&battles, &wins))
	assert.Equal(t, 1, battles)
	assert.Equal(t, 0, wins)
}
