// Package rating provides Elo rating calculations for interactive name
// tournaments. It implements the standard Chess Elo update rule with an
// adaptive K-factor, a discrete outcome set that includes ties and skips,
// and win/loss bookkeeping per name.
package rating

import (
	"errors"
	"math"
)

// Error types for validation
var (
	ErrInvalidRating  = errors.New("rating value is invalid")
	ErrInvalidKFactor = errors.New("k-factor must be positive")
	ErrInvalidBounds  = errors.New("min rating must be less than max rating")
	ErrInvalidBand    = errors.New("normal band must lie within rating bounds")
	ErrUnknownOutcome = errors.New("unknown match outcome")
)

// Outcome represents the judge's verdict on a single match
type Outcome string

// Supported match outcomes
const (
	OutcomeWinFirst     Outcome = "win-a" // First name preferred
	OutcomeWinSecond    Outcome = "win-b" // Second name preferred
	OutcomeBothLiked    Outcome = "both"  // Both names liked
	OutcomeNoPreference Outcome = "none"  // Neither name liked
	OutcomeSkip         Outcome = "skip"  // Judgment deferred
)

// Stats holds a single name's rating record
type Stats struct {
	Rating float64 `json:"rating"` // Current Elo rating
	Wins   int     `json:"wins"`   // Decisive wins plus both-liked matches
	Losses int     `json:"losses"` // Decisive losses
	Games  int     `json:"games"`  // Matches participated in, ties included
}

// Config holds configuration parameters for the rating engine
type Config struct {
	InitialRating  float64 `yaml:"initial_rating" json:"initial_rating"`     // Default rating for new names
	KFactor        float64 `yaml:"k_factor" json:"k_factor"`                 // Base K-factor for rating sensitivity
	MinRating      float64 `yaml:"min_rating" json:"min_rating"`             // Minimum allowed rating
	MaxRating      float64 `yaml:"max_rating" json:"max_rating"`             // Maximum allowed rating
	NewPlayerGames int     `yaml:"new_player_games" json:"new_player_games"` // Games below which the new-player boost applies
	NewPlayerBoost float64 `yaml:"new_player_boost" json:"new_player_boost"` // K multiplier for new names
	ExtremeBoost   float64 `yaml:"extreme_boost" json:"extreme_boost"`       // K multiplier outside the normal band
	NormalBandMin  float64 `yaml:"normal_band_min" json:"normal_band_min"`   // Lower edge of the normal rating band
	NormalBandMax  float64 `yaml:"normal_band_max" json:"normal_band_max"`   // Upper edge of the normal rating band
}

// DefaultConfig returns the standard tournament rating configuration
func DefaultConfig() Config {
	return Config{
		InitialRating:  1500,
		KFactor:        40,
		MinRating:      800,
		MaxRating:      2400,
		NewPlayerGames: 15,
		NewPlayerBoost: 2.0,
		ExtremeBoost:   1.5,
		NormalBandMin:  1400,
		NormalBandMax:  2000,
	}
}

// Validate checks the configuration for internal consistency
func (c Config) Validate() error {
	if c.KFactor <= 0 {
		return ErrInvalidKFactor
	}
	if c.MinRating >= c.MaxRating {
		return ErrInvalidBounds
	}
	if math.IsNaN(c.InitialRating) || math.IsInf(c.InitialRating, 0) {
		return ErrInvalidRating
	}
	if c.NormalBandMin >= c.NormalBandMax {
		return ErrInvalidBand
	}
	return nil
}

// MatchResult holds the full outcome of applying one match to both sides
type MatchResult struct {
	First          Stats   // Updated record for the first name
	Second         Stats   // Updated record for the second name
	DeltaFirst     float64 // Rating change for the first name
	DeltaSecond    float64 // Rating change for the second name
	ExpectedFirst  float64 // Expected score of the first name
	ExpectedSecond float64 // Expected score of the second name
	KFirst         float64 // Effective K-factor applied to the first name
	KSecond        float64 // Effective K-factor applied to the second name
	Outcome        Outcome // Outcome that produced this result
}

// Engine is the core rating engine with configurable parameters
type Engine struct {
	config Config
}

// NewEngine creates a rating engine with the specified configuration
func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: config}, nil
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.config
}

// NewStats returns a fresh record at the configured initial rating
func (e *Engine) NewStats() Stats {
	return Stats{Rating: e.config.InitialRating}
}

// validateRating checks if a rating value is usable
func (e *Engine) validateRating(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return ErrInvalidRating
	}
	return nil
}

// clampRating ensures a rating stays within configured bounds.
// Out-of-range results are clamped silently rather than rejected.
func (e *Engine) clampRating(rating float64) float64 {
	if rating < e.config.MinRating {
		return e.config.MinRating
	}
	if rating > e.config.MaxRating {
		return e.config.MaxRating
	}
	return rating
}

// ExpectedScore computes the expected score for a name rated ratingA
// against a name rated ratingB
func (e *Engine) ExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (ratingB-ratingA)/400.0))
}

// EffectiveKFactor returns the K-factor applicable to one side of a match.
// New names move fast; established names outside the normal band move
// moderately faster than the base rate. The boosts do not stack.
func (e *Engine) EffectiveKFactor(rating float64, games int) float64 {
	if games < e.config.NewPlayerGames {
		return e.config.KFactor * e.config.NewPlayerBoost
	}
	if rating < e.config.NormalBandMin || rating > e.config.NormalBandMax {
		return e.config.KFactor * e.config.ExtremeBoost
	}
	return e.config.KFactor
}

// UpdateRating computes the post-match rating for one side. The result is
// rounded to the nearest whole point and clamped to the configured bounds.
func (e *Engine) UpdateRating(rating, expected, actual float64, games int) float64 {
	k := e.EffectiveKFactor(rating, games)
	return e.clampRating(math.Round(rating + k*(actual-expected)))
}

// actualScores maps an outcome to the pair of actual scores fed into the
// update rule. Ties carry partial credit rather than a flat half point so
// that mutual approval and mutual rejection pull ratings apart over time.
func actualScores(outcome Outcome) (first, second float64, err error) {
	switch outcome {
	case OutcomeWinFirst:
		return 1.0, 0.0, nil
	case OutcomeWinSecond:
		return 0.0, 1.0, nil
	case OutcomeBothLiked:
		return 0.7, 0.7, nil
	case OutcomeNoPreference:
		return 0.3, 0.3, nil
	case OutcomeSkip:
		return 0.5, 0.5, nil
	default:
		return 0, 0, ErrUnknownOutcome
	}
}

// ApplyOutcome applies one judged match to both sides' records.
// Counters are incremented first; each side's effective K-factor then uses
// that side's own post-increment game count, while expected scores and the
// extreme-band check use the pre-match ratings.
func (e *Engine) ApplyOutcome(first, second Stats, outcome Outcome) (MatchResult, error) {
	if err := e.validateRating(first.Rating); err != nil {
		return MatchResult{}, err
	}
	if err := e.validateRating(second.Rating); err != nil {
		return MatchResult{}, err
	}

	actualFirst, actualSecond, err := actualScores(outcome)
	if err != nil {
		return MatchResult{}, err
	}

	newFirst, newSecond := first, second
	newFirst.Games++
	newSecond.Games++

	switch outcome {
	case OutcomeWinFirst:
		newFirst.Wins++
		newSecond.Losses++
	case OutcomeWinSecond:
		newSecond.Wins++
		newFirst.Losses++
	case OutcomeBothLiked:
		// Mild joint winners: both sides record a win
		newFirst.Wins++
		newSecond.Wins++
	}

	expectedFirst := e.ExpectedScore(first.Rating, second.Rating)
	expectedSecond := e.ExpectedScore(second.Rating, first.Rating)

	kFirst := e.EffectiveKFactor(first.Rating, newFirst.Games)
	kSecond := e.EffectiveKFactor(second.Rating, newSecond.Games)

	newFirst.Rating = e.clampRating(math.Round(first.Rating + kFirst*(actualFirst-expectedFirst)))
	newSecond.Rating = e.clampRating(math.Round(second.Rating + kSecond*(actualSecond-expectedSecond)))

	return MatchResult{
		First:          newFirst,
		Second:         newSecond,
		DeltaFirst:     newFirst.Rating - first.Rating,
		DeltaSecond:    newSecond.Rating - second.Rating,
		ExpectedFirst:  expectedFirst,
		ExpectedSecond: expectedSecond,
		KFirst:         kFirst,
		KSecond:        kSecond,
		Outcome:        outcome,
	}, nil
}
