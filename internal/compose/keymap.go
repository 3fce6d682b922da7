package compose

import "unicode"

// Key identifies the non-rune component of a chord. Surfaces translate
// their native key events into these before dispatching.
type Key int

const (
	// KeyRune is a printable character key; Rune carries the character.
	KeyRune Key = iota
	KeyTab
	KeyEnter
	KeyEscape
	// KeyOther covers keys the router has no opinion about (arrows,
	// delete, paging); the surface applies its default behavior.
	KeyOther
)

// KeyChord is a surface-independent key event. Mod is the platform primary
// modifier, collapsed by the surface: Ctrl on terminals, Cmd on macOS
// frontends.
type KeyChord struct {
	Key   Key
	Rune  rune
	Mod   bool
	Shift bool
}

// Command is the router's classification of a chord.
type Command int

const (
	// CommandNone lets the chord fall through to the surface's container
	// behavior: focus traversal for Tab, closing the form for Escape.
	CommandNone Command = iota
	// CommandInsert is an ordinary edit; the surface applies it to its
	// widget and reports the resulting buffer via ApplyEdit.
	CommandInsert
	CommandAcceptSuggestion
	CommandDismissSuggestion
	CommandUndo
	CommandRedo
	CommandSend
)

// RouterState is the slice of session state that routing may observe.
type RouterState struct {
	SuggestionReady bool
	SuggestionShown bool
}

// Router maps key chords to editing commands. Dispatch is a pure function
// of the chord and the suggestion state; it never mutates anything, so the
// same inputs always produce the same command.
type Router struct{}

// Dispatch classifies a chord. Tab accepts only when ghost text is ready
// and otherwise falls through, so the chord keeps its usual meaning the
// rest of the time. Escape dismisses only while a suggestion is shown.
func (Router) Dispatch(chord KeyChord, state RouterState) Command {
	switch chord.Key {
	case KeyTab:
		if state.SuggestionReady {
			return CommandAcceptSuggestion
		}
		return CommandNone
	case KeyEscape:
		if state.SuggestionShown {
			return CommandDismissSuggestion
		}
		return CommandNone
	case KeyEnter:
		if chord.Mod {
			return CommandSend
		}
		return CommandInsert
	case KeyRune:
		if !chord.Mod {
			return CommandInsert
		}
		switch unicode.ToLower(chord.Rune) {
		case 'z':
			if chord.Shift {
				return CommandRedo
			}
			return CommandUndo
		case 'y':
			return CommandRedo
		}
		return CommandNone
	}
	return CommandInsert
}
