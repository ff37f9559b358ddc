// Package battle implements the meal battle resolution engine: a two-slot
// combatant roster, deterministic scoring, and probability-weighted winner
// selection against an injected random source.
package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mealbrawl/mealbrawl/internal/game/random"
)

// Difficulty is a meal preparation difficulty tier.
type Difficulty string

// Difficulty tiers recognised by the scoring table.
const (
	DifficultyLow  Difficulty = "LOW"
	DifficultyMed  Difficulty = "MED"
	DifficultyHigh Difficulty = "HIGH"
)

// ValidDifficulty reports whether d is a recognised difficulty tier.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyLow, DifficultyMed, DifficultyHigh:
		return true
	}
	return false
}

// difficultyPenalty is the fixed subtractive scoring constant per tier.
// Easier meals pay a larger penalty.
var difficultyPenalty = map[Difficulty]float64{
	DifficultyLow:  3,
	DifficultyMed:  2,
	DifficultyHigh: 1,
}

// Meal is a combatant staged into the arena. The engine treats it as an
// immutable value for the duration of a battle; persistence of these fields
// belongs to the storage layer.
type Meal struct {
	ID         int64
	Name       string
	Cuisine    string
	Price      float64
	Difficulty Difficulty
}

// Result values accepted by a StatRecorder.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// StatRecorder persists battle statistics for a meal. A "win" increments
// both battle and win counts; a "loss" increments the battle count only.
// Satisfied by the postgres MealRepository.
type StatRecorder interface {
	UpdateStats(ctx context.Context, mealID int64, result string) error
}

// ErrRosterFull is returned when staging a third combatant.
var ErrRosterFull = errors.New("roster full")

// ErrTwoCombatantsRequired is returned when resolving with fewer than two
// staged combatants.
var ErrTwoCombatantsRequired = errors.New("two combatants required")

// PartialUpdateError reports a battle whose stat updates were only partly
// applied: the winner's "win" was recorded but the loser's "loss" failed.
// The roster keeps both combatants; the battle is not finalized.
type PartialUpdateError struct {
	// WinnerID is the meal whose win was already recorded.
	WinnerID int64
	// LoserID is the meal whose loss could not be recorded.
	LoserID int64
	// Err is the underlying store error.
	Err error
}

// Error describes which side effect completed.
func (e *PartialUpdateError) Error() string {
	return fmt.Sprintf("recording loss for meal %d after win recorded for meal %d: %v", e.LoserID, e.WinnerID, e.Err)
}

// Unwrap returns the underlying store error.
func (e *PartialUpdateError) Unwrap() error { return e.Err }

// deltaScale normalizes raw score differences (typically tens to low
// hundreds) into a quasi-probability. Deltas above 1 mean the first-staged
// combatant always wins.
const deltaScale = 100

// Score computes the battle score for a meal:
//
//	price × character-length(cuisine) − difficulty penalty
//
// where the penalty table is {LOW: 3, MED: 2, HIGH: 1}. Cuisine length is
// counted in characters, not bytes. The result may be negative.
//
// Postcondition: Deterministic; the same meal always yields the same score.
func Score(m Meal) float64 {
	return m.Price*float64(utf8.RuneCountInString(m.Cuisine)) - difficultyPenalty[m.Difficulty]
}

// Arena holds a single in-flight contest: an ordered roster of at most two
// staged meals. Staging order is semantically significant; it determines
// which combatant the delta threshold favors. Not safe for concurrent use;
// callers embedding an Arena in a server must serialize access.
type Arena struct {
	roster []Meal
	rng    random.Provider
	stats  StatRecorder
	logger *zap.Logger
}

// NewArena creates an empty Arena drawing randomness from rng and recording
// outcomes through stats.
//
// Precondition: rng, stats, and logger must be non-nil.
// Postcondition: Returns an Arena with an empty roster.
func NewArena(rng random.Provider, stats StatRecorder, logger *zap.Logger) *Arena {
	return &Arena{
		roster: make([]Meal, 0, 2),
		rng:    rng,
		stats:  stats,
		logger: logger,
	}
}

// Stage appends a meal to the roster in staging order.
//
// Precondition: The roster holds fewer than two combatants.
// Postcondition: Returns ErrRosterFull and leaves the roster unchanged when
// two combatants are already staged.
func (a *Arena) Stage(m Meal) error {
	if len(a.roster) >= 2 {
		return ErrRosterFull
	}
	a.roster = append(a.roster, m)
	a.logger.Debug("combatant staged",
		zap.Int64("meal_id", m.ID),
		zap.String("meal", m.Name),
		zap.Int("roster_size", len(a.roster)),
	)
	return nil
}

// Clear empties the roster unconditionally. Idempotent.
func (a *Arena) Clear() {
	a.roster = a.roster[:0]
}

// Combatants returns a snapshot of the roster in staging order.
//
// Postcondition: The returned slice is a copy; mutating it does not affect
// the arena.
func (a *Arena) Combatants() []Meal {
	out := make([]Meal, len(a.roster))
	copy(out, a.roster)
	return out
}

// Resolve runs one battle between the two staged combatants and returns the
// winner's name.
//
// The normalized score gap |s1−s2|/100 is the probability that the
// first-staged combatant wins: a draw below the gap selects roster[0],
// anything else selects roster[1]. The winner's "win" is recorded before the
// loser's "loss"; only after both succeed is the loser removed from the
// roster.
//
// Precondition: Exactly two combatants are staged; otherwise
// ErrTwoCombatantsRequired is returned with no side effects.
// Postcondition: On success the roster holds only the winner. On a random
// provider error nothing was recorded and the roster is unchanged. On a
// stat failure the roster keeps both combatants; if the winner's update had
// already been applied the error is a *PartialUpdateError.
func (a *Arena) Resolve(ctx context.Context) (string, error) {
	if len(a.roster) != 2 {
		return "", ErrTwoCombatantsRequired
	}

	first, second := a.roster[0], a.roster[1]
	s1 := Score(first)
	s2 := Score(second)
	delta := math.Abs(s1-s2) / deltaScale

	draw, err := a.rng.Float(ctx)
	if err != nil {
		return "", fmt.Errorf("drawing battle random value: %w", err)
	}

	winner, loser := second, first
	if draw < delta {
		winner, loser = first, second
	}

	if err := a.stats.UpdateStats(ctx, winner.ID, ResultWin); err != nil {
		return "", fmt.Errorf("recording win for meal %d: %w", winner.ID, err)
	}
	if err := a.stats.UpdateStats(ctx, loser.ID, ResultLoss); err != nil {
		return "", &PartialUpdateError{WinnerID: winner.ID, LoserID: loser.ID, Err: err}
	}

	a.roster = a.roster[:0]
	a.roster = append(a.roster, winner)

	a.logger.Debug("battle resolved",
		zap.String("winner", winner.Name),
		zap.String("loser", loser.Name),
		zap.Float64("score_first", s1),
		zap.Float64("score_second", s2),
		zap.Float64("delta", delta),
		zap.Float64("draw", draw),
	)

	return winner.Name, nil
}
