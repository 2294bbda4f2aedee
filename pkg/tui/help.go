// This file defines the global keyboard shortcuts shared by all screens.
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// KeyBinding represents a global keyboard shortcut
type KeyBinding struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func(app *App) error
}

// Global key bindings available across all screens. Runes used here must not
// collide with the per-pairing judging keys on the comparison screen.
var globalKeyBindings = []KeyBinding{
	{Key: tcell.KeyCtrlC, Description: "Exit", Handler: (*App).Exit},
	{Key: tcell.KeyRune, Rune: 'r', Description: "Show standings", Handler: (*App).ShowRanking},
	{Key: tcell.KeyRune, Rune: 'c', Description: "Show pairings", Handler: (*App).ShowComparison},
	{Key: tcell.KeyRune, Rune: 'e', Description: "Export standings", Handler: (*App).Export},
}

// footerText renders the global bindings as a one-line help string
func footerText() string {
	text := ""
	for i, binding := range globalKeyBindings {
		if i > 0 {
			text += " | "
		}

		keyText := ""
		if binding.Key != tcell.KeyRune {
			keyText = tcell.KeyNames[binding.Key]
		} else {
			keyText = string(binding.Rune)
		}

		text += fmt.Sprintf("%s: %s", keyText, binding.Description)
	}
	return text
}
