package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_Dispatch(t *testing.T) {
	none := RouterState{}
	pending := RouterState{SuggestionShown: true}
	ready := RouterState{SuggestionReady: true, SuggestionShown: true}

	tests := []struct {
		name  string
		chord KeyChord
		state RouterState
		want  Command
	}{
		{"tab_accepts_ready_suggestion", KeyChord{Key: KeyTab}, ready, CommandAcceptSuggestion},
		{"tab_falls_through_without_suggestion", KeyChord{Key: KeyTab}, none, CommandNone},
		{"tab_falls_through_while_pending", KeyChord{Key: KeyTab}, pending, CommandNone},
		{"escape_dismisses_ready", KeyChord{Key: KeyEscape}, ready, CommandDismissSuggestion},
		{"escape_dismisses_pending", KeyChord{Key: KeyEscape}, pending, CommandDismissSuggestion},
		{"escape_falls_through_without_suggestion", KeyChord{Key: KeyEscape}, none, CommandNone},
		{"mod_z_undoes", KeyChord{Key: KeyRune, Rune: 'z', Mod: true}, none, CommandUndo},
		{"mod_upper_z_undoes", KeyChord{Key: KeyRune, Rune: 'Z', Mod: true}, none, CommandUndo},
		{"mod_shift_z_redoes", KeyChord{Key: KeyRune, Rune: 'z', Mod: true, Shift: true}, none, CommandRedo},
		{"mod_y_redoes", KeyChord{Key: KeyRune, Rune: 'y', Mod: true}, none, CommandRedo},
		{"mod_enter_sends", KeyChord{Key: KeyEnter, Mod: true}, none, CommandSend},
		{"plain_enter_is_an_edit", KeyChord{Key: KeyEnter}, none, CommandInsert},
		{"plain_rune_is_an_edit", KeyChord{Key: KeyRune, Rune: 'a'}, none, CommandInsert},
		{"rune_edit_even_with_suggestion_ready", KeyChord{Key: KeyRune, Rune: 'a'}, ready, CommandInsert},
		{"unbound_mod_chord_falls_through", KeyChord{Key: KeyRune, Rune: 'x', Mod: true}, none, CommandNone},
		{"navigation_keys_use_surface_default", KeyChord{Key: KeyOther}, ready, CommandInsert},
	}

	var router Router
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, router.Dispatch(tt.chord, tt.state))
		})
	}
}

func TestRouter_DispatchIsPure(t *testing.T) {
	var router Router
	chord := KeyChord{Key: KeyTab}
	state := RouterState{SuggestionReady: true, SuggestionShown: true}

	first := router.Dispatch(chord, state)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, router.Dispatch(chord, state))
	}
}
