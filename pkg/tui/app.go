// Package tui provides the terminal user interface for name tournaments.
// It implements the main application structure with screen management,
// keyboard shortcuts, and a voter bridge into the tournament engine.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/guitarbeat/namerank/pkg/tournament"
	"github.com/guitarbeat/namerank/pkg/tui/screens"
)

// ScreenType identifies a screen in the TUI application
type ScreenType int

const (
	ScreenComparison ScreenType = iota
	ScreenRanking
)

// String returns the page name for a screen type
func (s ScreenType) String() string {
	switch s {
	case ScreenComparison:
		return "comparison"
	case ScreenRanking:
		return "ranking"
	default:
		return "unknown"
	}
}

// Screen defines the contract for all TUI screens
type Screen interface {
	// GetPrimitive returns the tview.Primitive for this screen
	GetPrimitive() tview.Primitive

	// OnEnter is called when the screen becomes active
	OnEnter(app any) error

	// OnExit is called when leaving the screen
	OnExit(app any) error

	// GetTitle returns the screen title for display
	GetTitle() string
}

// App is the main TUI application. It owns the tview event loop and drives a
// tournament session on a background goroutine, with the comparison screen
// acting as the session's Voter.
type App struct {
	tviewApp *tview.Application
	pages    *tview.Pages
	header   *tview.TextView
	footer   *tview.TextView

	comparison *screens.ComparisonScreen
	ranking    *screens.RankingScreen
	screens    map[ScreenType]Screen

	session   *tournament.Session
	exportCfg tournament.ExportConfig
	exportDir string

	mu             sync.RWMutex
	currentScreen  ScreenType
	previousScreen ScreenType
	running        bool
	lastExport     *time.Time
	runErr         error
}

// NewApp creates the TUI application for the given session
func NewApp(session *tournament.Session, exportCfg tournament.ExportConfig, exportDir string) (*App, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	a := &App{
		tviewApp:      tview.NewApplication(),
		pages:         tview.NewPages(),
		header:        tview.NewTextView(),
		footer:        tview.NewTextView(),
		screens:       make(map[ScreenType]Screen),
		session:       session,
		exportCfg:     exportCfg,
		exportDir:     exportDir,
		currentScreen: ScreenComparison,
	}

	a.comparison = screens.NewComparisonScreen(a.tviewApp)
	a.ranking = screens.NewRankingScreen(session.Standings)
	a.ranking.SetBackHandler(func() {
		go a.ShowComparison()
	})

	a.registerScreen(ScreenComparison, a.comparison)
	a.registerScreen(ScreenRanking, a.ranking)
	a.setupUI()

	return a, nil
}

// setupUI builds the header/pages/footer layout
func (a *App) setupUI() {
	a.header.SetBorder(true).
		SetTitle("Name Tournament").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkBlue)
	a.header.SetTextColor(tcell.ColorWhite)

	a.footer.SetBorder(true).
		SetTitle("Keyboard Shortcuts").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkGreen)
	a.footer.SetTextColor(tcell.ColorWhite)
	a.footer.SetText(footerText())

	mainLayout := tview.NewFlex().SetDirection(tview.FlexRow)
	mainLayout.AddItem(a.header, 3, 0, false)
	mainLayout.AddItem(a.pages, 0, 1, true)
	mainLayout.AddItem(a.footer, 3, 0, false)

	mainLayout.SetInputCapture(a.handleGlobalInput)

	a.tviewApp.SetRoot(mainLayout, true)
	a.tviewApp.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		a.updateHeader()
		return false
	})
}

func (a *App) registerScreen(screenType ScreenType, screen Screen) {
	a.screens[screenType] = screen
	a.pages.AddPage(screenType.String(), screen.GetPrimitive(), true, false)
}

// NavigateTo switches to the specified screen
func (a *App) NavigateTo(screenType ScreenType) error {
	screen, exists := a.screens[screenType]
	if !exists {
		return fmt.Errorf("screen %s not registered", screenType.String())
	}

	a.mu.Lock()
	current, hasCurrent := a.screens[a.currentScreen]
	previous := a.currentScreen
	a.mu.Unlock()

	// Screen callbacks run without the app lock held
	if hasCurrent {
		if err := current.OnExit(a); err != nil {
			return fmt.Errorf("failed to exit screen %s: %w", previous.String(), err)
		}
	}

	a.mu.Lock()
	a.previousScreen = a.currentScreen
	a.currentScreen = screenType
	a.mu.Unlock()

	if err := screen.OnEnter(a); err != nil {
		a.mu.Lock()
		a.currentScreen = a.previousScreen
		a.mu.Unlock()
		return fmt.Errorf("failed to enter screen %s: %w", screenType.String(), err)
	}

	a.pages.SwitchToPage(screenType.String())

	return nil
}

// ShowRanking displays the standings screen
func (a *App) ShowRanking() error {
	return a.NavigateTo(ScreenRanking)
}

// ShowComparison displays the pairing screen
func (a *App) ShowComparison() error {
	return a.NavigateTo(ScreenComparison)
}

// Exit stops the application
func (a *App) Exit() error {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	a.tviewApp.Stop()
	return nil
}

// Export writes the current standings using the configured export format
func (a *App) Export() error {
	filename := fmt.Sprintf("standings_%s.%s",
		time.Now().Format("20060102_150405"), a.exportCfg.Format)
	path := filepath.Join(a.exportDir, filename)

	if err := tournament.ExportSession(a.session, path, a.exportCfg); err != nil {
		a.showErrorDialog("Export Failed", fmt.Sprintf("Failed to export standings:\n\n%v", err))
		return err
	}

	now := time.Now()
	a.mu.Lock()
	a.lastExport = &now
	a.mu.Unlock()

	return nil
}

// Run starts the event loop and drives the tournament to completion. It
// returns once the user quits or the tournament finishes and the application
// is closed.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	if err := a.NavigateTo(ScreenComparison); err != nil {
		return fmt.Errorf("failed to navigate to comparison screen: %w", err)
	}

	go a.runTournament(ctx)

	if err := a.tviewApp.Run(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.runErr
}

// runTournament blocks on the session while the event loop feeds it choices
func (a *App) runTournament(ctx context.Context) {
	_, err := a.session.Run(ctx, a.comparison)

	a.mu.Lock()
	if err != nil && !errors.Is(err, tournament.ErrAborted) {
		a.runErr = err
	}
	a.mu.Unlock()

	a.tviewApp.QueueUpdateDraw(func() {
		if navErr := a.ShowRanking(); navErr != nil {
			_ = navErr
		}
	})
}

// IsRunning reports whether the event loop is active
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// CurrentScreen returns the active screen type
func (a *App) CurrentScreen() ScreenType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentScreen
}

// Session returns the tournament session being driven
func (a *App) Session() *tournament.Session {
	return a.session
}

// handleGlobalInput dispatches global keyboard shortcuts
func (a *App) handleGlobalInput(event *tcell.EventKey) *tcell.EventKey {
	for _, binding := range globalKeyBindings {
		if (binding.Key != tcell.KeyRune && event.Key() == binding.Key) ||
			(binding.Key == tcell.KeyRune && event.Rune() == binding.Rune) {

			// Handlers may navigate or export, so run them off the event loop
			go func(handler func(*App) error) {
				if err := handler(a); err != nil {
					_ = err
				}
			}(binding.Handler)

			return nil
		}
	}

	return event
}

// updateHeader refreshes the header with screen and session information
func (a *App) updateHeader() {
	a.mu.RLock()
	currentScreen := a.currentScreen
	lastExport := a.lastExport
	a.mu.RUnlock()

	screen, exists := a.screens[currentScreen]
	if !exists {
		return
	}

	sessionInfo := fmt.Sprintf(" | %s (%s)", a.session.Name, a.session.CurrentStatus())

	exportStatus := " | Not exported yet"
	if lastExport != nil {
		elapsed := time.Since(*lastExport)
		switch {
		case elapsed < time.Minute:
			exportStatus = fmt.Sprintf(" | Last exported: %ds ago", int(elapsed.Seconds()))
		case elapsed < time.Hour:
			exportStatus = fmt.Sprintf(" | Last exported: %dm ago", int(elapsed.Minutes()))
		default:
			exportStatus = fmt.Sprintf(" | Last exported: %s", lastExport.Format("15:04"))
		}
	}

	a.header.SetText(fmt.Sprintf("Screen: %s%s%s", screen.GetTitle(), sessionInfo, exportStatus))
}

// showErrorDialog displays an error message in a modal dialog
func (a *App) showErrorDialog(title, message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("error-dialog")
		})

	modal.SetTitle(title).
		SetBorder(true).
		SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("error-dialog", modal, true, true)
}
