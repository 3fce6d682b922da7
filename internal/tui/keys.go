package tui

import (
	"strings"

	"github.com/derailed/tcell/v2"

	"github.com/ajramos/maildraft/internal/compose"
)

// translateChord converts a tcell key event into the engine's chord type.
// The terminal's Ctrl modifier maps to the engine's primary modifier. The
// send chord is not translated here: terminals cannot transmit Ctrl+Enter
// as a distinct key, so the configured stand-in is remapped by the panel.
func translateChord(event *tcell.EventKey) compose.KeyChord {
	mod := event.Modifiers()&(tcell.ModCtrl|tcell.ModMeta) != 0
	shift := event.Modifiers()&tcell.ModShift != 0

	switch event.Key() {
	case tcell.KeyTab:
		return compose.KeyChord{Key: compose.KeyTab, Shift: shift}
	case tcell.KeyBacktab:
		return compose.KeyChord{Key: compose.KeyTab, Shift: true}
	case tcell.KeyEscape:
		return compose.KeyChord{Key: compose.KeyEscape}
	case tcell.KeyEnter:
		return compose.KeyChord{Key: compose.KeyEnter, Mod: mod, Shift: shift}
	case tcell.KeyCtrlZ:
		return compose.KeyChord{Key: compose.KeyRune, Rune: 'z', Mod: true, Shift: shift}
	case tcell.KeyCtrlY:
		return compose.KeyChord{Key: compose.KeyRune, Rune: 'y', Mod: true}
	case tcell.KeyRune:
		return compose.KeyChord{Key: compose.KeyRune, Rune: event.Rune(), Mod: mod, Shift: shift}
	}

	return compose.KeyChord{Key: compose.KeyOther}
}

// ctrlKeys are the shortcut names the config accepts for the remappable
// bindings. Ctrl+Z/Y/C/V and plain keys are off limits, they belong to
// editing and typing.
var ctrlKeys = map[string]tcell.Key{
	"ctrl+d": tcell.KeyCtrlD,
	"ctrl+g": tcell.KeyCtrlG,
	"ctrl+j": tcell.KeyCtrlJ,
	"ctrl+q": tcell.KeyCtrlQ,
	"ctrl+s": tcell.KeyCtrlS,
	"ctrl+x": tcell.KeyCtrlX,
}

// bindingKey resolves a configured shortcut name, falling back when the
// name is unknown or unset.
func bindingKey(name string, fallback tcell.Key) tcell.Key {
	if k, ok := ctrlKeys[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k
	}
	return fallback
}

// bindingLabel renders a shortcut for footer and status text.
func bindingLabel(key tcell.Key) string {
	for name, k := range ctrlKeys {
		if k == key {
			return "Ctrl+" + strings.ToUpper(strings.TrimPrefix(name, "ctrl+"))
		}
	}
	return "?"
}
