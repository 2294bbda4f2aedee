package tournament

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guitarbeat/namerank/pkg/rating"
	"github.com/guitarbeat/namerank/pkg/sorter"
)

// ErrUnknownChoice is returned when a voter produces a choice the session
// cannot map to an outcome
var ErrUnknownChoice = errors.New("unknown voter choice")

// Entry is one name's record in a tournament
type Entry struct {
	Name      string       `json:"name"`
	Stats     rating.Stats `json:"stats"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Standing is one row of a ranking
type Standing struct {
	Rank   int     `json:"rank"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Games  int     `json:"games"`
}

// Match is one judged comparison, recorded append-only. Ratings are the
// post-match values so the history doubles as an audit trail.
type Match struct {
	Index        int            `json:"index"`
	First        string         `json:"first"`
	Second       string         `json:"second"`
	Outcome      rating.Outcome `json:"outcome"`
	Verdict      sorter.Verdict `json:"verdict"`
	RatingFirst  float64        `json:"rating_first"`
	RatingSecond float64        `json:"rating_second"`
	JudgedAt     time.Time      `json:"judged_at"`
	Elapsed      time.Duration  `json:"elapsed"`
}

// Pairing is the comparison presented to a voter
type Pairing struct {
	First     string // First name of the pair
	Second    string // Second name of the pair
	Completed int    // Matches recorded so far
	Estimated int    // Worst-case total comparisons for this tournament
}

// Choice is a voter's response to a pairing
type Choice int

// Supported voter choices
const (
	ChoiceFirst  Choice = iota // Prefer the first name
	ChoiceSecond               // Prefer the second name
	ChoiceBoth                 // Like both names
	ChoiceNone                 // Like neither name
	ChoiceSkip                 // Defer judgment on this pair
	ChoiceUndo                 // Take back the previous judgment
	ChoiceQuit                 // Abort the tournament
)

// String returns the string representation of a Choice
func (c Choice) String() string {
	switch c {
	case ChoiceFirst:
		return "first"
	case ChoiceSecond:
		return "second"
	case ChoiceBoth:
		return "both"
	case ChoiceNone:
		return "none"
	case ChoiceSkip:
		return "skip"
	case ChoiceUndo:
		return "undo"
	case ChoiceQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Voter supplies the human judgment for one pairing. Pick may block for as
// long as the voter needs; the context carries the tournament deadline.
type Voter interface {
	Pick(ctx context.Context, pairing Pairing) (Choice, error)
}

// VoterFunc adapts a function to the Voter interface
type VoterFunc func(ctx context.Context, pairing Pairing) (Choice, error)

// Pick implements Voter
func (f VoterFunc) Pick(ctx context.Context, pairing Pairing) (Choice, error) {
	return f(ctx, pairing)
}

// choiceOutcome maps a judging choice to the rating outcome and sort verdict
// it implies. Control choices (undo, quit) have no mapping.
func choiceOutcome(choice Choice) (rating.Outcome, sorter.Verdict, error) {
	switch choice {
	case ChoiceFirst:
		return rating.OutcomeWinFirst, sorter.VerdictFirst, nil
	case ChoiceSecond:
		return rating.OutcomeWinSecond, sorter.VerdictSecond, nil
	case ChoiceBoth:
		return rating.OutcomeBothLiked, sorter.VerdictTie, nil
	case ChoiceNone:
		return rating.OutcomeNoPreference, sorter.VerdictTie, nil
	case ChoiceSkip:
		return rating.OutcomeSkip, sorter.VerdictTie, nil
	default:
		return "", sorter.VerdictTie, fmt.Errorf("%w: %s", ErrUnknownChoice, choice)
	}
}
