package tui

import (
	"strings"
	"testing"

	"github.com/derailed/tview"
	"github.com/stretchr/testify/assert"
)

func typeString(e *BodyEditor, s string) {
	for _, r := range s {
		if r == '\n' {
			e.HandleEnter()
			continue
		}
		e.HandleCharInput(r)
	}
}

func TestBodyEditor_TypingAndNewlines(t *testing.T) {
	e := NewBodyEditor(nil)

	typeString(e, "hello\nworld")

	assert.Equal(t, "hello\nworld", e.GetText())
	line, column := e.CursorPosition()
	assert.Equal(t, 1, line)
	assert.Equal(t, 5, column)
}

func TestBodyEditor_ChangeCallbackReportsFullText(t *testing.T) {
	e := NewBodyEditor(nil)

	var got []string
	e.SetChangedFunc(func(text string) { got = append(got, text) })

	typeString(e, "hi")

	assert.Equal(t, []string{"h", "hi"}, got)
}

func TestBodyEditor_BackspaceJoinsLines(t *testing.T) {
	e := NewBodyEditor(nil)
	typeString(e, "ab\ncd")

	e.HandleHome()
	e.HandleBackspace()

	assert.Equal(t, "abcd", e.GetText())
	line, column := e.CursorPosition()
	assert.Equal(t, 0, line)
	assert.Equal(t, 2, column)
}

func TestBodyEditor_DeleteJoinsLines(t *testing.T) {
	e := NewBodyEditor(nil)
	typeString(e, "ab\ncd")

	e.HandleArrowUp()
	e.HandleEnd()
	e.HandleDelete()

	assert.Equal(t, "abcd", e.GetText())
}

func TestBodyEditor_SetTextPlacesCaretAtEnd(t *testing.T) {
	e := NewBodyEditor(nil)

	e.SetText("first\nsecond")

	line, column := e.CursorPosition()
	assert.Equal(t, 1, line)
	assert.Equal(t, 6, column)
	assert.True(t, e.caretAtEnd())
}

func TestBodyEditor_GhostRendersOnlyAtEnd(t *testing.T) {
	e := NewBodyEditor(nil)
	e.SetText("Thanks for")

	e.SetGhost("the update.")
	display := e.textView.GetText(false)
	assert.Contains(t, display, "the update.")
	assert.NotContains(t, e.GetText(), "the update.", "ghost never enters the edited text")

	// Ghost disappears from the display when the caret leaves the end.
	e.HandleArrowLeft()
	e.SetGhost("the update.")
	display = e.textView.GetText(false)
	assert.False(t, strings.Contains(display, "the update."))
}

func TestBodyEditor_EditClearsGhost(t *testing.T) {
	e := NewBodyEditor(nil)
	e.SetText("Thanks for ")
	e.SetGhost("the update.")

	e.HandleCharInput('x')

	assert.Equal(t, "", e.Ghost())
}

func TestBodyEditor_MultibyteRunesStayIntact(t *testing.T) {
	e := NewBodyEditor(nil)
	typeString(e, "héllo")

	e.HandleBackspace()
	e.HandleBackspace()

	assert.Equal(t, "hél", e.GetText())
}

func TestBodyEditor_EscapesStyleTagsInText(t *testing.T) {
	e := NewBodyEditor(nil)
	e.SetText("prices [red]likely[/red]")

	// The display carries the escaped form so bracketed text is drawn
	// literally instead of being interpreted as a style tag; the edited
	// text keeps the raw form.
	display := e.textView.GetText(false)
	assert.Contains(t, display, tview.Escape("[red]likely[/red]"))
	assert.NotContains(t, display, "[red]")
	assert.Equal(t, "prices [red]likely[/red]", e.GetText())
}
