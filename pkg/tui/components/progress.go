// Package components provides reusable TUI components for name tournaments.
// This file implements a progress indicator showing how far a tournament has
// advanced against its worst-case comparison estimate.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ProgressBar displays tournament completion as a text bar with counts
type ProgressBar struct {
	view *tview.TextView

	barWidth      int
	progressColor string
	completeColor string

	startTime time.Time
}

// NewProgressBar creates a progress bar component
func NewProgressBar() *ProgressBar {
	p := &ProgressBar{
		view:          tview.NewTextView(),
		barWidth:      30,
		progressColor: "blue",
		completeColor: "green",
		startTime:     time.Now(),
	}

	p.view.SetBorder(true).SetTitle("Progress")
	p.view.SetDynamicColors(true)
	p.view.SetTextAlign(tview.AlignCenter)
	p.view.SetTextColor(tcell.ColorWhite)

	return p
}

// Update refreshes the bar for the given completion counts. The estimate is
// a worst case, so the bar can finish early but never overflows.
func (p *ProgressBar) Update(completed, estimated int) {
	fraction := 0.0
	if estimated > 0 {
		fraction = float64(completed) / float64(estimated)
	}
	if fraction > 1.0 {
		fraction = 1.0
	}

	text := p.renderBar(fraction)
	text += fmt.Sprintf("\n[white]%d of at most %d comparisons", completed, estimated)

	elapsed := time.Since(p.startTime)
	if completed > 0 && elapsed > time.Second {
		text += fmt.Sprintf(" | %s elapsed", FormatDuration(elapsed))
	}

	p.view.SetText(text)
}

// renderBar builds the colored bar string for a completion fraction
func (p *ProgressBar) renderBar(fraction float64) string {
	filled := int(fraction * float64(p.barWidth))
	if filled > p.barWidth {
		filled = p.barWidth
	}

	color := p.progressColor
	if fraction >= 1.0 {
		color = p.completeColor
	}

	return "[" + color + "]" + strings.Repeat("█", filled) +
		"[gray]" + strings.Repeat("░", p.barWidth-filled) + "[white]"
}

// GetPrimitive returns the underlying view for embedding
func (p *ProgressBar) GetPrimitive() tview.Primitive {
	return p.view
}

// Text returns the currently rendered text
func (p *ProgressBar) Text() string {
	return p.view.GetText(false)
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) - (minutes * 60)
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - (hours * 60)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
