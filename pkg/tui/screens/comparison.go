// Package screens provides the individual screens of the tournament TUI:
// the pairing screen where names are judged and the ranking screen showing
// current standings.
package screens

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/guitarbeat/namerank/pkg/tournament"
	"github.com/guitarbeat/namerank/pkg/tui/components"
)

// ComparisonScreen presents one pairing at a time and implements
// tournament.Voter. Pick blocks the tournament goroutine on a reply channel
// until a key handler resolves the choice on the UI goroutine, so exactly
// one comparison is ever outstanding.
type ComparisonScreen struct {
	app *tview.Application

	container *tview.Flex
	firstBox  *tview.TextView
	secondBox *tview.TextView
	footer    *tview.TextView
	progress  *components.ProgressBar

	mu      sync.Mutex
	reply   chan tournament.Choice
	pairing tournament.Pairing
}

// NewComparisonScreen creates the pairing screen bound to the given
// application for draw scheduling
func NewComparisonScreen(app *tview.Application) *ComparisonScreen {
	s := &ComparisonScreen{
		app:       app,
		container: tview.NewFlex(),
		firstBox:  tview.NewTextView(),
		secondBox: tview.NewTextView(),
		footer:    tview.NewTextView(),
		progress:  components.NewProgressBar(),
	}

	s.firstBox.SetBorder(true).SetTitle("[1] First")
	s.firstBox.SetTextAlign(tview.AlignCenter)
	s.firstBox.SetDynamicColors(true)

	s.secondBox.SetBorder(true).SetTitle("[2] Second")
	s.secondBox.SetTextAlign(tview.AlignCenter)
	s.secondBox.SetDynamicColors(true)

	s.footer.SetTextAlign(tview.AlignCenter)
	s.footer.SetText("1/2: pick | b: both | n: neither | s: skip | u: undo | q: quit")

	names := tview.NewFlex().SetDirection(tview.FlexColumn)
	names.AddItem(s.firstBox, 0, 1, false)
	names.AddItem(s.secondBox, 0, 1, false)

	s.container.SetDirection(tview.FlexRow)
	s.container.AddItem(names, 0, 1, true)
	s.container.AddItem(s.progress.GetPrimitive(), 5, 0, false)
	s.container.AddItem(s.footer, 1, 0, false)

	s.container.SetInputCapture(s.handleInput)

	return s
}

// Pick implements tournament.Voter. QueueUpdateDraw does not return until
// the event loop executes the closure, so the draw is dispatched on its own
// goroutine; Pick itself blocks only on the reply channel and the context,
// which keeps cancellation effective even when the loop is not running.
func (s *ComparisonScreen) Pick(ctx context.Context, pairing tournament.Pairing) (tournament.Choice, error) {
	reply := make(chan tournament.Choice, 1)

	s.mu.Lock()
	s.reply = reply
	s.pairing = pairing
	s.mu.Unlock()

	go s.app.QueueUpdateDraw(s.showPending)

	select {
	case choice := <-reply:
		return choice, nil
	case <-ctx.Done():
		s.mu.Lock()
		s.reply = nil
		s.mu.Unlock()
		return tournament.ChoiceQuit, ctx.Err()
	}
}

// showPending renders the most recently requested pairing. Runs on the UI
// goroutine; reading the pairing at execution time keeps a late draw from
// showing a stale pair.
func (s *ComparisonScreen) showPending() {
	s.mu.Lock()
	pairing := s.pairing
	s.mu.Unlock()

	s.firstBox.SetText(fmt.Sprintf("\n\n[::b]%s", pairing.First))
	s.secondBox.SetText(fmt.Sprintf("\n\n[::b]%s", pairing.Second))
	s.progress.Update(pairing.Completed, pairing.Estimated)
}

// handleInput maps key presses to voter choices
func (s *ComparisonScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	choice, ok := keyToChoice(event)
	if !ok {
		return event
	}
	s.resolve(choice)
	return nil
}

// resolve delivers a choice to a waiting Pick. Key presses arriving between
// pairings are dropped.
func (s *ComparisonScreen) resolve(choice tournament.Choice) {
	s.mu.Lock()
	reply := s.reply
	s.reply = nil
	s.mu.Unlock()

	if reply != nil {
		reply <- choice
	}
}

// keyToChoice maps a key event to a judging choice
func keyToChoice(event *tcell.EventKey) (tournament.Choice, bool) {
	switch event.Key() {
	case tcell.KeyLeft:
		return tournament.ChoiceFirst, true
	case tcell.KeyRight:
		return tournament.ChoiceSecond, true
	}

	switch event.Rune() {
	case '1':
		return tournament.ChoiceFirst, true
	case '2':
		return tournament.ChoiceSecond, true
	case 'b':
		return tournament.ChoiceBoth, true
	case 'n':
		return tournament.ChoiceNone, true
	case 's':
		return tournament.ChoiceSkip, true
	case 'u':
		return tournament.ChoiceUndo, true
	case 'q':
		return tournament.ChoiceQuit, true
	}

	return 0, false
}

// GetPrimitive returns the screen's root primitive
func (s *ComparisonScreen) GetPrimitive() tview.Primitive {
	return s.container
}

// OnEnter is called when the screen becomes active
func (s *ComparisonScreen) OnEnter(app any) error {
	return nil
}

// OnExit is called when leaving the screen
func (s *ComparisonScreen) OnExit(app any) error {
	return nil
}

// GetTitle returns the screen title for display
func (s *ComparisonScreen) GetTitle() string {
	return "Pick a Name"
}
