package tui

import (
	"strings"
	"unicode"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

// BodyEditor is the multiline body widget: a thin editing layer over a
// TextView (composition, not embedding, so no promoted methods leak
// through) that also renders the ghost suggestion after the caret. The
// ghost lives only in the display; the edited text never contains it.
type BodyEditor struct {
	textView *tview.TextView
	logger   logPrinter

	lines  [][]rune
	line   int
	column int

	ghost      string
	changeFunc func(string)
	updating   bool
}

// logPrinter is the slice of *log.Logger the editor needs; nil disables
// logging.
type logPrinter interface {
	Printf(format string, v ...interface{})
}

// NewBodyEditor creates an empty editor.
func NewBodyEditor(logger logPrinter) *BodyEditor {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetScrollable(true)

	e := &BodyEditor{
		textView: textView,
		logger:   logger,
		lines:    [][]rune{{}},
	}
	e.updateDisplay()
	return e
}

// Primitive plumbing, delegated to the underlying TextView.

func (e *BodyEditor) Draw(screen tcell.Screen)         { e.textView.Draw(screen) }
func (e *BodyEditor) GetRect() (int, int, int, int)    { return e.textView.GetRect() }
func (e *BodyEditor) SetRect(x, y, width, height int)  { e.textView.SetRect(x, y, width, height) }
func (e *BodyEditor) Blur()                            { e.textView.Blur() }
func (e *BodyEditor) HasFocus() bool                   { return e.textView.HasFocus() }
func (e *BodyEditor) GetFocusable() tview.Focusable    { return e.textView.GetFocusable() }
func (e *BodyEditor) Focus(delegate func(p tview.Primitive)) {
	delegate(e.textView)
}

func (e *BodyEditor) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return e.textView.InputHandler()
}

func (e *BodyEditor) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return e.textView.MouseHandler()
}

// SetBackgroundColor delegates to the TextView.
func (e *BodyEditor) SetBackgroundColor(color tcell.Color) *BodyEditor {
	e.textView.SetBackgroundColor(color)
	return e
}

// SetTextColor delegates to the TextView.
func (e *BodyEditor) SetTextColor(color tcell.Color) *BodyEditor {
	e.textView.SetTextColor(color)
	return e
}

// SetText replaces the edited text and moves the caret to the end, which
// is where a seeded reply leaves off and where ghost text attaches.
func (e *BodyEditor) SetText(text string) {
	e.lines = splitLines(text)
	e.line = len(e.lines) - 1
	e.column = len(e.lines[e.line])
	e.updateDisplay()
}

// GetText returns the edited text without the ghost overlay.
func (e *BodyEditor) GetText() string {
	parts := make([]string, len(e.lines))
	for i, l := range e.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// SetChangedFunc registers the callback invoked after every edit with the
// new text.
func (e *BodyEditor) SetChangedFunc(changed func(string)) {
	e.changeFunc = changed
}

// SetGhost replaces the ghost suggestion shown after the caret. An empty
// string clears it.
func (e *BodyEditor) SetGhost(text string) {
	if e.ghost == text {
		return
	}
	e.ghost = text
	e.updateDisplay()
}

// Ghost returns the ghost suggestion currently rendered.
func (e *BodyEditor) Ghost() string { return e.ghost }

// CursorPosition returns the caret's line and rune column.
func (e *BodyEditor) CursorPosition() (int, int) { return e.line, e.column }

// Editing entry points. The composition panel forwards key events here
// after the command router has classified them as ordinary edits.

// HandleCharInput inserts a printable character at the caret.
func (e *BodyEditor) HandleCharInput(ch rune) {
	if !unicode.IsPrint(ch) {
		return
	}
	line := e.lines[e.line]
	e.clampColumn()
	updated := make([]rune, 0, len(line)+1)
	updated = append(updated, line[:e.column]...)
	updated = append(updated, ch)
	updated = append(updated, line[e.column:]...)
	e.lines[e.line] = updated
	e.column++
	e.textChanged()
}

// HandleEnter splits the current line at the caret.
func (e *BodyEditor) HandleEnter() {
	e.clampColumn()
	line := e.lines[e.line]
	left := append([]rune(nil), line[:e.column]...)
	right := append([]rune(nil), line[e.column:]...)

	e.lines[e.line] = left
	e.lines = append(e.lines, nil)
	copy(e.lines[e.line+2:], e.lines[e.line+1:])
	e.lines[e.line+1] = right

	e.line++
	e.column = 0
	e.textChanged()
}

// HandleBackspace deletes the rune before the caret, joining lines at a
// line start.
func (e *BodyEditor) HandleBackspace() {
	e.clampColumn()
	if e.column > 0 {
		line := e.lines[e.line]
		e.lines[e.line] = append(line[:e.column-1], line[e.column:]...)
		e.column--
	} else if e.line > 0 {
		prev := e.lines[e.line-1]
		e.column = len(prev)
		e.lines[e.line-1] = append(prev, e.lines[e.line]...)
		e.lines = append(e.lines[:e.line], e.lines[e.line+1:]...)
		e.line--
	} else {
		return
	}
	e.textChanged()
}

// HandleDelete deletes the rune under the caret, joining lines at a line
// end.
func (e *BodyEditor) HandleDelete() {
	e.clampColumn()
	line := e.lines[e.line]
	if e.column < len(line) {
		e.lines[e.line] = append(line[:e.column], line[e.column+1:]...)
	} else if e.line < len(e.lines)-1 {
		e.lines[e.line] = append(line, e.lines[e.line+1]...)
		e.lines = append(e.lines[:e.line+1], e.lines[e.line+2:]...)
	} else {
		return
	}
	e.textChanged()
}

// Caret movement.

func (e *BodyEditor) HandleArrowUp() {
	if e.line > 0 {
		e.line--
		e.clampColumn()
		e.updateDisplay()
	}
}

func (e *BodyEditor) HandleArrowDown() {
	if e.line < len(e.lines)-1 {
		e.line++
		e.clampColumn()
		e.updateDisplay()
	}
}

func (e *BodyEditor) HandleArrowLeft() {
	if e.column > 0 {
		e.column--
	} else if e.line > 0 {
		e.line--
		e.column = len(e.lines[e.line])
	} else {
		return
	}
	e.updateDisplay()
}

func (e *BodyEditor) HandleArrowRight() {
	if e.column < len(e.lines[e.line]) {
		e.column++
	} else if e.line < len(e.lines)-1 {
		e.line++
		e.column = 0
	} else {
		return
	}
	e.updateDisplay()
}

// HandleHome moves the caret to the start of the line.
func (e *BodyEditor) HandleHome() {
	e.column = 0
	e.updateDisplay()
}

// HandleEnd moves the caret to the end of the line.
func (e *BodyEditor) HandleEnd() {
	e.column = len(e.lines[e.line])
	e.updateDisplay()
}

func (e *BodyEditor) clampColumn() {
	if e.column > len(e.lines[e.line]) {
		e.column = len(e.lines[e.line])
	}
}

// textChanged re-renders and reports the new text to the panel. The edit
// invalidates whatever ghost was shown; the session pushes a fresh one if
// the next fetch succeeds.
func (e *BodyEditor) textChanged() {
	e.ghost = ""
	e.updateDisplay()

	if e.changeFunc != nil && !e.updating {
		if e.logger != nil {
			e.logger.Printf("BodyEditor: text changed, line=%d column=%d", e.line, e.column)
		}
		e.changeFunc(e.GetText())
	}
}

// updateDisplay rebuilds the TextView content: edited text with a block
// caret, plus the ghost suggestion dimmed after the caret when the caret
// sits at the very end of the text.
func (e *BodyEditor) updateDisplay() {
	if e.updating {
		return
	}
	e.updating = true
	defer func() { e.updating = false }()

	var b strings.Builder
	for i, line := range e.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i != e.line {
			b.WriteString(tview.Escape(string(line)))
			continue
		}

		col := e.column
		if col > len(line) {
			col = len(line)
		}
		b.WriteString(tview.Escape(string(line[:col])))
		b.WriteString("█")
		b.WriteString(tview.Escape(string(line[col:])))

		if e.ghost != "" && e.caretAtEnd() {
			b.WriteString("[gray::d]")
			b.WriteString(tview.Escape(e.ghost))
			b.WriteString("[-::-]")
		}
	}

	e.textView.SetText(b.String())
}

// caretAtEnd reports whether the caret is on the last line, at its end.
func (e *BodyEditor) caretAtEnd() bool {
	return e.line == len(e.lines)-1 && e.column >= len(e.lines[e.line])
}

// splitLines turns text into rune-slice lines, always at least one.
func splitLines(text string) [][]rune {
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	if len(lines) == 0 {
		lines = [][]rune{{}}
	}
	return lines
}
