package sorter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alphabetical prefers the alphabetically earlier name
func alphabetical(_ context.Context, first, second string) (Verdict, error) {
	switch {
	case first < second:
		return VerdictFirst, nil
	case second < first:
		return VerdictSecond, nil
	default:
		return VerdictTie, nil
	}
}

// shorterWins prefers the shorter name and ties on equal length
func shorterWins(_ context.Context, first, second string) (Verdict, error) {
	switch {
	case len(first) < len(second):
		return VerdictFirst, nil
	case len(second) < len(first):
		return VerdictSecond, nil
	default:
		return VerdictTie, nil
	}
}

func TestNew(t *testing.T) {
	t.Run("valid items create sorter", func(t *testing.T) {
		s, err := New([]string{"Luna", "Bella"})
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, []string{"Luna", "Bella"}, s.Items())
	})

	t.Run("names are trimmed", func(t *testing.T) {
		s, err := New([]string{"  Luna ", "Bella"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Luna", "Bella"}, s.Items())
	})

	t.Run("fewer than two items is rejected", func(t *testing.T) {
		s, err := New([]string{"Luna"})
		assert.ErrorIs(t, err, ErrTooFewItems)
		assert.Nil(t, s)
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		s, err := New([]string{"Luna", "Bella", "Luna"})
		assert.ErrorIs(t, err, ErrDuplicateItem)
		assert.Nil(t, s)
	})

	t.Run("duplicates after trimming are rejected", func(t *testing.T) {
		s, err := New([]string{"Luna", " Luna "})
		assert.ErrorIs(t, err, ErrDuplicateItem)
		assert.Nil(t, s)
	})

	t.Run("blank names are rejected", func(t *testing.T) {
		s, err := New([]string{"Luna", "   "})
		assert.ErrorIs(t, err, ErrBlankItem)
		assert.Nil(t, s)
	})
}

func TestSortAlphabetical(t *testing.T) {
	s, err := New([]string{"Luna", "Bella", "Milo", "Nova"})
	require.NoError(t, err)

	type pair struct{ first, second string }
	var asked []pair
	recording := func(ctx context.Context, first, second string) (Verdict, error) {
		asked = append(asked, pair{first, second})
		return alphabetical(ctx, first, second)
	}

	result, err := s.Sort(context.Background(), recording)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bella", "Luna", "Milo", "Nova"}, result)
	assert.Equal(t, 4, s.Comparisons())
	assert.LessOrEqual(t, s.Comparisons(), EstimateComparisons(4))

	// The merge schedule is deterministic: both leaf merges, then the root
	assert.Equal(t, []pair{
		{"Luna", "Bella"},
		{"Milo", "Nova"},
		{"Bella", "Milo"},
		{"Luna", "Milo"},
	}, asked)

	final, done := s.FinalRanking()
	assert.True(t, done)
	assert.Equal(t, []string{"Bella", "Luna", "Milo", "Nova"}, final)
}

func TestSortStrictOrderBound(t *testing.T) {
	sizes := []int{2, 3, 5, 8, 16, 32}

	for _, n := range sizes {
		t.Run(fmt.Sprintf("%d items reversed", n), func(t *testing.T) {
			items := make([]string, n)
			want := make([]string, n)
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("name-%02d", i)
				items[n-1-i] = name
				want[i] = name
			}

			s, err := New(items)
			require.NoError(t, err)

			result, err := s.Sort(context.Background(), alphabetical)
			require.NoError(t, err)

			assert.Equal(t, want, result)
			assert.LessOrEqual(t, s.Comparisons(), EstimateComparisons(n))
		})
	}
}

func TestSortTies(t *testing.T) {
	t.Run("all ties preserve input order", func(t *testing.T) {
		items := []string{"Luna", "Bella", "Milo", "Nova", "Oreo"}
		s, err := New(items)
		require.NoError(t, err)

		tie := func(context.Context, string, string) (Verdict, error) {
			return VerdictTie, nil
		}

		result, err := s.Sort(context.Background(), tie)
		require.NoError(t, err)
		assert.Equal(t, items, result)
	})

	t.Run("tied items stay adjacent in input order", func(t *testing.T) {
		s, err := New([]string{"Bb", "Aa", "C", "D"})
		require.NoError(t, err)

		result, err := s.Sort(context.Background(), shorterWins)
		require.NoError(t, err)

		// Length groups sort; within a group the input order survives
		assert.Equal(t, []string{"C", "D", "Bb", "Aa"}, result)
	})

	t.Run("ties across runs of unequal depth", func(t *testing.T) {
		// The root merge compares the left run's Bb and Aa against Cc,
		// which arrives via a deeper merge on the right side. Both ties
		// must take the left item so the length-2 group keeps its input
		// order Bb, Aa, Cc.
		s, err := New([]string{"Bb", "Aa", "Cc", "D", "E"})
		require.NoError(t, err)

		result, err := s.Sort(context.Background(), shorterWins)
		require.NoError(t, err)

		assert.Equal(t, []string{"D", "E", "Bb", "Aa", "Cc"}, result)
		assert.LessOrEqual(t, s.Comparisons(), EstimateComparisons(5))
	})
}

func TestSortSequential(t *testing.T) {
	s, err := New([]string{"Luna", "Bella", "Milo", "Nova", "Oreo", "Pip"})
	require.NoError(t, err)

	outstanding := 0
	guarded := func(ctx context.Context, first, second string) (Verdict, error) {
		outstanding++
		defer func() { outstanding-- }()
		require.Equal(t, 1, outstanding, "only one comparison may be outstanding")
		return alphabetical(ctx, first, second)
	}

	_, err = s.Sort(context.Background(), guarded)
	require.NoError(t, err)
}

func TestCurrentRankingDuringSort(t *testing.T) {
	s, err := New([]string{"Luna", "Bella", "Milo", "Nova"})
	require.NoError(t, err)

	calls := 0
	var midSnapshot []string
	observing := func(ctx context.Context, first, second string) (Verdict, error) {
		calls++
		if calls == 3 {
			// Both leaf merges have completed by the first root comparison
			midSnapshot = s.CurrentRanking()
		}
		return alphabetical(ctx, first, second)
	}

	_, err = s.Sort(context.Background(), observing)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bella", "Luna", "Milo", "Nova"}, midSnapshot)
}

func TestComparatorError(t *testing.T) {
	s, err := New([]string{"Luna", "Bella", "Milo", "Nova"})
	require.NoError(t, err)

	judgeFailed := errors.New("judge unavailable")
	failing := func(ctx context.Context, first, second string) (Verdict, error) {
		if first == "Bella" && second == "Milo" {
			return VerdictTie, judgeFailed
		}
		return alphabetical(ctx, first, second)
	}

	result, err := s.Sort(context.Background(), failing)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, judgeFailed)

	// No partial final result after a comparator failure
	_, done := s.FinalRanking()
	assert.False(t, done)
}

func TestContextCancellation(t *testing.T) {
	s, err := New([]string{"Luna", "Bella", "Milo", "Nova"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cancelling := func(innerCtx context.Context, first, second string) (Verdict, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return alphabetical(innerCtx, first, second)
	}

	result, err := s.Sort(ctx, cancelling)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)

	// Snapshot stays available after an aborted run
	snapshot := s.CurrentRanking()
	assert.Len(t, snapshot, 4)
	assert.ElementsMatch(t, []string{"Luna", "Bella", "Milo", "Nova"}, snapshot)
}

func TestInvalidVerdict(t *testing.T) {
	s, err := New([]string{"Luna", "Bella"})
	require.NoError(t, err)

	bad := func(context.Context, string, string) (Verdict, error) {
		return Verdict(5), nil
	}

	_, err = s.Sort(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidVerdict)
}

func TestNilComparator(t *testing.T) {
	s, err := New([]string{"Luna", "Bella"})
	require.NoError(t, err)

	_, err = s.Sort(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilComparator)
}

func TestPreferenceCache(t *testing.T) {
	t.Run("reversed lookup flips the sign", func(t *testing.T) {
		s, err := New([]string{"Luna", "Bella"})
		require.NoError(t, err)

		require.NoError(t, s.Seed("Luna", "Bella", VerdictFirst))

		verdict, ok := s.Preference("Luna", "Bella")
		assert.True(t, ok)
		assert.Equal(t, VerdictFirst, verdict)

		verdict, ok = s.Preference("Bella", "Luna")
		assert.True(t, ok)
		assert.Equal(t, VerdictSecond, verdict)
	})

	t.Run("tie survives reversal", func(t *testing.T) {
		s, err := New([]string{"Luna", "Bella"})
		require.NoError(t, err)

		require.NoError(t, s.Seed("Luna", "Bella", VerdictTie))

		verdict, ok := s.Preference("Bella", "Luna")
		assert.True(t, ok)
		assert.Equal(t, VerdictTie, verdict)
	})

	t.Run("unknown pair reports no verdict", func(t *testing.T) {
		s, err := New([]string{"Luna", "Bella"})
		require.NoError(t, err)

		_, ok := s.Preference("Luna", "Bella")
		assert.False(t, ok)
	})

	t.Run("invalid seeded verdict is rejected", func(t *testing.T) {
		s, err := New([]string{"Luna", "Bella"})
		require.NoError(t, err)

		assert.ErrorIs(t, s.Seed("Luna", "Bella", Verdict(-3)), ErrInvalidVerdict)
	})
}

func TestSeededSortSkipsComparator(t *testing.T) {
	items := []string{"Luna", "Bella", "Milo", "Nova", "Oreo"}

	// First run records every verdict
	first, err := New(items)
	require.NoError(t, err)

	type judged struct {
		first, second string
		verdict       Verdict
	}
	var history []judged
	recording := func(ctx context.Context, a, b string) (Verdict, error) {
		v, err := alphabetical(ctx, a, b)
		history = append(history, judged{a, b, v})
		return v, err
	}

	want, err := first.Sort(context.Background(), recording)
	require.NoError(t, err)

	// Second run replays the recorded verdicts and must never prompt
	second, err := New(items)
	require.NoError(t, err)
	for _, h := range history {
		require.NoError(t, second.Seed(h.first, h.second, h.verdict))
	}

	neverCalled := func(context.Context, string, string) (Verdict, error) {
		return VerdictTie, errors.New("comparator should not run")
	}

	got, err := second.Sort(context.Background(), neverCalled)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, 0, second.Comparisons())
}

func TestReset(t *testing.T) {
	s, err := New([]string{"Luna", "Bella", "Milo"})
	require.NoError(t, err)

	_, err = s.Sort(context.Background(), alphabetical)
	require.NoError(t, err)
	require.Greater(t, s.Comparisons(), 0)

	s.Reset()

	assert.Equal(t, 0, s.Comparisons())
	_, done := s.FinalRanking()
	assert.False(t, done)
	_, ok := s.Preference("Luna", "Bella")
	assert.False(t, ok)
	assert.Equal(t, []string{"Luna", "Bella", "Milo"}, s.CurrentRanking())
}

func TestEstimateComparisons(t *testing.T) {
	testCases := []struct {
		n        int
		expected int
	}{
		{0, 0},
		{1, 0},
		{2, 2},
		{4, 8},
		{5, 15},
		{8, 24},
		{16, 64},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("n=%d", tc.n), func(t *testing.T) {
			assert.Equal(t, tc.expected, EstimateComparisons(tc.n))
		})
	}
}

func BenchmarkSortSeeded(b *testing.B) {
	const n = 64
	items := make([]string, n)
	for i := range items {
		items[n-1-i] = fmt.Sprintf("name-%03d", i)
	}

	for i := 0; i < b.N; i++ {
		s, _ := New(items)
		_, _ = s.Sort(context.Background(), alphabetical)
	}
}
