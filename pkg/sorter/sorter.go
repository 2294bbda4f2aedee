// Package sorter implements an interactive, stable merge sort driven by an
// injected comparator. The comparator is the suspend point: it may block on
// human input for as long as it likes, and the sorter guarantees that at most
// one comparison is outstanding at any time. While a sort is running, the
// current partial ranking can be read concurrently; the final ranking is
// published when the root merge completes.
package sorter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

// Error types for validation and sort failures
var (
	ErrTooFewItems    = errors.New("at least two items are required")
	ErrDuplicateItem  = errors.New("duplicate item")
	ErrBlankItem      = errors.New("blank item")
	ErrNilComparator  = errors.New("comparator must not be nil")
	ErrInvalidVerdict = errors.New("verdict must be -1, 0, or 1")
)

// Verdict is the discrete result of comparing two items
type Verdict int

// Supported verdicts. The sign is relative to argument order: a reversed
// lookup of the same pair flips it.
const (
	VerdictFirst  Verdict = -1 // First item ranks above the second
	VerdictTie    Verdict = 0  // No preference between the two
	VerdictSecond Verdict = 1  // Second item ranks above the first
)

// Comparator supplies the judgment for one pair of items. It is invoked
// sequentially and may block until the caller resolves the comparison.
// Returning an error aborts the sort immediately.
type Comparator func(ctx context.Context, first, second string) (Verdict, error)

// pairKey identifies an unordered pair of items
type pairKey struct {
	low  string
	high string
}

// orderPair returns the canonical key for a pair and whether the arguments
// were given in reversed order
func orderPair(first, second string) (pairKey, bool) {
	if first <= second {
		return pairKey{low: first, high: second}, false
	}
	return pairKey{low: second, high: first}, true
}

// Sorter ranks a fixed list of items by repeated pairwise judgment.
// All state is instance-local; the preference cache lives for the current
// run only and is never shared across item sets.
type Sorter struct {
	mu    sync.RWMutex
	items []string
	work  []string
	cache map[pairKey]Verdict
	count int
	final []string
	done  bool
}

// New creates a sorter over the given items. Names are trimmed; blank or
// duplicate names and lists shorter than two items are rejected.
func New(items []string) (*Sorter, error) {
	if len(items) < 2 {
		return nil, ErrTooFewItems
	}

	seen := make(map[string]struct{}, len(items))
	cleaned := make([]string, 0, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item)
		if name == "" {
			return nil, fmt.Errorf("%w at position %d", ErrBlankItem, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, name)
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}

	work := make([]string, len(cleaned))
	copy(work, cleaned)

	return &Sorter{
		items: cleaned,
		work:  work,
		cache: make(map[pairKey]Verdict),
	}, nil
}

// Items returns the original item list
func (s *Sorter) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]string, len(s.items))
	copy(items, s.items)
	return items
}

// Sort runs the merge sort to completion, invoking the comparator for every
// pair not already in the preference cache. The context is checked before
// each comparison; cancellation or deadline aborts the run with the context
// error wrapped. A comparator error aborts the run with no final ranking.
func (s *Sorter) Sort(ctx context.Context, compare Comparator) ([]string, error) {
	if compare == nil {
		return nil, ErrNilComparator
	}

	s.mu.Lock()
	copy(s.work, s.items)
	s.final = nil
	s.done = false
	n := len(s.items)
	s.mu.Unlock()

	buf := make([]string, n)
	if err := s.mergeSort(ctx, 0, n, buf, compare); err != nil {
		return nil, err
	}

	s.mu.Lock()
	final := make([]string, n)
	copy(final, s.work)
	s.final = final
	s.done = true
	s.mu.Unlock()

	result := make([]string, n)
	copy(result, final)
	return result, nil
}

// mergeSort sorts the working array over [lo, hi)
func (s *Sorter) mergeSort(ctx context.Context, lo, hi int, buf []string, compare Comparator) error {
	if hi-lo <= 1 {
		return nil
	}

	mid := (lo + hi) / 2
	if err := s.mergeSort(ctx, lo, mid, buf, compare); err != nil {
		return err
	}
	if err := s.mergeSort(ctx, mid, hi, buf, compare); err != nil {
		return err
	}
	return s.merge(ctx, lo, mid, hi, buf, compare)
}

// merge combines two sorted runs of the working array. Ties take the left
// head only, which keeps tied items in their original input order across
// every merge level. The merged run is written back in place so that
// CurrentRanking always reflects completed merges.
func (s *Sorter) merge(ctx context.Context, lo, mid, hi int, buf []string, compare Comparator) error {
	i, j, k := lo, mid, lo

	for i < mid && j < hi {
		s.mu.RLock()
		first, second := s.work[i], s.work[j]
		s.mu.RUnlock()

		verdict, err := s.judge(ctx, first, second, compare)
		if err != nil {
			return err
		}

		if verdict > 0 {
			buf[k] = second
			j++
		} else {
			buf[k] = first
			i++
		}
		k++
	}

	s.mu.Lock()
	for i < mid {
		buf[k] = s.work[i]
		i++
		k++
	}
	for j < hi {
		buf[k] = s.work[j]
		j++
		k++
	}
	copy(s.work[lo:hi], buf[lo:hi])
	s.mu.Unlock()

	return nil
}

// judge resolves one pair, consulting the preference cache first. Cache hits
// do not invoke the comparator and do not count as comparisons.
func (s *Sorter) judge(ctx context.Context, first, second string, compare Comparator) (Verdict, error) {
	if verdict, ok := s.Preference(first, second); ok {
		return verdict, nil
	}

	if err := ctx.Err(); err != nil {
		return VerdictTie, fmt.Errorf("sort aborted: %w", err)
	}

	verdict, err := compare(ctx, first, second)
	if err != nil {
		return VerdictTie, fmt.Errorf("comparing %q and %q: %w", first, second, err)
	}
	if verdict < VerdictFirst || verdict > VerdictSecond {
		return VerdictTie, fmt.Errorf("%w: got %d", ErrInvalidVerdict, verdict)
	}

	s.mu.Lock()
	s.store(first, second, verdict)
	s.count++
	s.mu.Unlock()

	return verdict, nil
}

// store records a verdict in the cache under the canonical pair orientation.
// Caller must hold the write lock.
func (s *Sorter) store(first, second string, verdict Verdict) {
	key, reversed := orderPair(first, second)
	if reversed {
		verdict = -verdict
	}
	s.cache[key] = verdict
}

// Preference reports the cached verdict for a pair, flipping the sign when
// the arguments are given in the reversed orientation
func (s *Sorter) Preference(first, second string) (Verdict, bool) {
	key, reversed := orderPair(first, second)

	s.mu.RLock()
	verdict, ok := s.cache[key]
	s.mu.RUnlock()

	if !ok {
		return VerdictTie, false
	}
	if reversed {
		verdict = -verdict
	}
	return verdict, true
}

// Seed pre-loads a verdict into the preference cache. Seeding recorded
// verdicts before Sort fast-forwards the run deterministically to the first
// unjudged pair, which is how resume and undo re-enter a tournament.
func (s *Sorter) Seed(first, second string, verdict Verdict) error {
	if verdict < VerdictFirst || verdict > VerdictSecond {
		return fmt.Errorf("%w: got %d", ErrInvalidVerdict, verdict)
	}

	s.mu.Lock()
	s.store(first, second, verdict)
	s.mu.Unlock()
	return nil
}

// CurrentRanking returns a position-based snapshot of the working array.
// Completed merges appear in ranked order; items not yet merged remain in
// their current positions. Safe to call while Sort is running.
func (s *Sorter) CurrentRanking() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranking := make([]string, len(s.work))
	copy(ranking, s.work)
	return ranking
}

// FinalRanking returns the completed ranking and whether the root merge has
// finished
func (s *Sorter) FinalRanking() ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.done {
		return nil, false
	}
	final := make([]string, len(s.final))
	copy(final, s.final)
	return final, true
}

// Comparisons returns the number of comparator invocations so far
func (s *Sorter) Comparisons() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Reset clears the preference cache, counters, and rankings for a fresh run
// over the same items
func (s *Sorter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.work, s.items)
	s.cache = make(map[pairKey]Verdict)
	s.count = 0
	s.final = nil
	s.done = false
}

// EstimateComparisons returns the worst-case number of comparisons a merge
// sort over n items can require: n * ceil(log2 n)
func EstimateComparisons(n int) int {
	if n < 2 {
		return 0
	}
	return n * int(math.Ceil(math.Log2(float64(n))))
}
