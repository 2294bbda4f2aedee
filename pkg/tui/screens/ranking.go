package screens

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/guitarbeat/namerank/pkg/tournament"
)

// StandingsProvider returns the current standings for display. The ranking
// screen polls it on every refresh so partial standings show up mid-run.
type StandingsProvider func() []tournament.Standing

// RankingScreen displays tournament standings in a table
type RankingScreen struct {
	container *tview.Flex
	table     *tview.Table
	statusBar *tview.TextView

	provider  StandingsProvider
	standings []tournament.Standing

	onBack func()
}

// NewRankingScreen creates a ranking screen fed by the given provider
func NewRankingScreen(provider StandingsProvider) *RankingScreen {
	rs := &RankingScreen{
		container: tview.NewFlex(),
		table:     tview.NewTable(),
		statusBar: tview.NewTextView(),
		provider:  provider,
	}

	rs.table.SetBorder(true).
		SetTitle(" Standings ").
		SetTitleAlign(tview.AlignLeft)
	rs.table.SetSelectable(true, false)
	rs.table.SetFixed(1, 0)

	rs.statusBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]Arrow keys: navigate  q/Esc: back[white]")

	rs.container.SetDirection(tview.FlexRow).
		AddItem(rs.table, 0, 1, true).
		AddItem(rs.statusBar, 1, 0, false)

	rs.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || event.Rune() == 'q' {
			if rs.onBack != nil {
				rs.onBack()
			}
			return nil
		}
		return event
	})

	return rs
}

// SetBackHandler registers the callback invoked when the user leaves the
// standings view
func (rs *RankingScreen) SetBackHandler(fn func()) {
	rs.onBack = fn
}

// Refresh pulls fresh standings from the provider and redraws the table.
// Runs on the UI goroutine.
func (rs *RankingScreen) Refresh() {
	if rs.provider != nil {
		rs.standings = rs.provider()
	}
	rs.redraw()
}

func (rs *RankingScreen) redraw() {
	rs.table.Clear()

	headers := []string{"Rank", "Name", "Rating", "Wins", "Losses", "Games"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(1)
		if col == 1 {
			cell.SetExpansion(3)
		}
		rs.table.SetCell(0, col, cell)
	}

	for i, standing := range rs.standings {
		row := i + 1
		rs.table.SetCell(row, 0, tview.NewTableCell(strconv.Itoa(standing.Rank)).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorWhite))
		rs.table.SetCell(row, 1, tview.NewTableCell(standing.Name).
			SetAlign(tview.AlignLeft).
			SetTextColor(tcell.ColorWhite).
			SetExpansion(3))
		rs.table.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%.0f", standing.Rating)).
			SetAlign(tview.AlignCenter).
			SetTextColor(ratingColor(standing.Rating)))
		rs.table.SetCell(row, 3, tview.NewTableCell(strconv.Itoa(standing.Wins)).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorGreen))
		rs.table.SetCell(row, 4, tview.NewTableCell(strconv.Itoa(standing.Losses)).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorRed))
		rs.table.SetCell(row, 5, tview.NewTableCell(strconv.Itoa(standing.Games)).
			SetAlign(tview.AlignCenter).
			SetTextColor(tcell.ColorWhite))
	}

	if len(rs.standings) > 0 {
		rs.table.Select(1, 0)
	}
}

// ratingColor picks a display color for a rating value
func ratingColor(rating float64) tcell.Color {
	switch {
	case rating >= 1600:
		return tcell.ColorGreen
	case rating >= 1400:
		return tcell.ColorYellow
	default:
		return tcell.ColorRed
	}
}

// Standings returns the rows currently displayed
func (rs *RankingScreen) Standings() []tournament.Standing {
	return rs.standings
}

// GetPrimitive returns the screen's root primitive
func (rs *RankingScreen) GetPrimitive() tview.Primitive {
	return rs.container
}

// OnEnter refreshes standings when the screen becomes active
func (rs *RankingScreen) OnEnter(app any) error {
	rs.Refresh()
	return nil
}

// OnExit is called when leaving the screen
func (rs *RankingScreen) OnExit(app any) error {
	return nil
}

// GetTitle returns the screen title for display
func (rs *RankingScreen) GetTitle() string {
	return fmt.Sprintf("Standings (%d names)", len(rs.standings))
}
