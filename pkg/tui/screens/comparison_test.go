package screens

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guitarbeat/namerank/pkg/tournament"
)

func newTestComparisonScreen() *ComparisonScreen {
	return NewComparisonScreen(tview.NewApplication())
}

func TestKeyToChoice(t *testing.T) {
	testCases := []struct {
		name     string
		event    *tcell.EventKey
		expected tournament.Choice
		handled  bool
	}{
		{"one picks first", tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone), tournament.ChoiceFirst, true},
		{"two picks second", tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone), tournament.ChoiceSecond, true},
		{"left arrow picks first", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), tournament.ChoiceFirst, true},
		{"right arrow picks second", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), tournament.ChoiceSecond, true},
		{"b likes both", tcell.NewEventKey(tcell.KeyRune, 'b', tcell.ModNone), tournament.ChoiceBoth, true},
		{"n likes neither", tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone), tournament.ChoiceNone, true},
		{"s skips", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), tournament.ChoiceSkip, true},
		{"u undoes", tcell.NewEventKey(tcell.KeyRune, 'u', tcell.ModNone), tournament.ChoiceUndo, true},
		{"q quits", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), tournament.ChoiceQuit, true},
		{"unrelated key passes through", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			choice, handled := keyToChoice(tc.event)
			assert.Equal(t, tc.handled, handled)
			if tc.handled {
				assert.Equal(t, tc.expected, choice)
			}
		})
	}
}

func TestPickResolvesOnKeyPress(t *testing.T) {
	screen := newTestComparisonScreen()
	pairing := tournament.Pairing{First: "Luna", Second: "Bella", Completed: 0, Estimated: 8}

	type result struct {
		choice tournament.Choice
		err    error
	}
	done := make(chan result, 1)
	go func() {
		choice, err := screen.Pick(context.Background(), pairing)
		done <- result{choice, err}
	}()

	require.Eventually(t, func() bool {
		screen.mu.Lock()
		defer screen.mu.Unlock()
		return screen.reply != nil
	}, time.Second, time.Millisecond)

	event := screen.handleInput(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone))
	assert.Nil(t, event)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, tournament.ChoiceFirst, res.choice)
	case <-time.After(time.Second):
		t.Fatal("Pick did not return after key press")
	}
}

func TestPickSequenceWithoutEventLoop(t *testing.T) {
	// The event loop never runs here; every Pick must still resolve from
	// key input alone, and none may block on the draw dispatch.
	screen := newTestComparisonScreen()

	script := []struct {
		key      rune
		expected tournament.Choice
	}{
		{'1', tournament.ChoiceFirst},
		{'2', tournament.ChoiceSecond},
		{'s', tournament.ChoiceSkip},
	}

	type result struct {
		choice tournament.Choice
		err    error
	}

	for i, step := range script {
		done := make(chan result, 1)
		go func() {
			choice, err := screen.Pick(context.Background(), tournament.Pairing{
				First: "Luna", Second: "Bella", Completed: i, Estimated: 8,
			})
			done <- result{choice, err}
		}()

		require.Eventually(t, func() bool {
			screen.mu.Lock()
			defer screen.mu.Unlock()
			return screen.reply != nil
		}, time.Second, time.Millisecond)

		screen.handleInput(tcell.NewEventKey(tcell.KeyRune, step.key, tcell.ModNone))

		select {
		case res := <-done:
			require.NoError(t, res.err)
			assert.Equal(t, step.expected, res.choice)
		case <-time.After(time.Second):
			t.Fatalf("Pick %d did not return after key press", i)
		}
	}
}

func TestPickCancelledContext(t *testing.T) {
	screen := newTestComparisonScreen()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := screen.Pick(ctx, tournament.Pairing{First: "Luna", Second: "Bella"})
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Pick did not return after cancellation")
	}
}

func TestKeyPressWithoutPendingPick(t *testing.T) {
	screen := newTestComparisonScreen()

	// Must not panic or block when nothing is waiting
	event := screen.handleInput(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone))
	assert.Nil(t, event)
}

func TestComparisonScreenLifecycle(t *testing.T) {
	screen := newTestComparisonScreen()

	require.NotNil(t, screen.GetPrimitive())
	assert.Equal(t, "Pick a Name", screen.GetTitle())
	assert.NoError(t, screen.OnEnter(nil))
	assert.NoError(t, screen.OnExit(nil))
}
