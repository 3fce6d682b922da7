package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/render"
	"github.com/ajramos/maildraft/internal/services"
)

// sendTimeout bounds one delivery attempt.
const sendTimeout = 30 * time.Second

// CompositionPanel is the compose surface: recipient and subject fields,
// the body editor with its ghost-suggestion overlay, and a hint footer.
// It owns exactly one EditSession at a time and translates raw key events
// into the engine's chords.
type CompositionPanel struct {
	*tview.Flex
	app *App

	headerSection *tview.Form
	toField       *tview.InputField
	ccField       *tview.InputField
	bccField      *tview.InputField
	subjectField  *tview.InputField
	body          *BodyEditor
	hintView      *tview.TextView

	session *compose.EditSession

	focusIndex int
	focusables []tview.Primitive

	// onUIThread is true while the panel itself is calling into the
	// session from the event loop. Snapshot callbacks arriving then are
	// applied directly; queueing them would deadlock the draw loop.
	onUIThread atomic.Bool
	sending    atomic.Bool
}

// NewCompositionPanel creates the compose surface.
func NewCompositionPanel(app *App) *CompositionPanel {
	panel := &CompositionPanel{
		Flex: tview.NewFlex(),
		app:  app,
	}

	panel.createComponents()
	panel.setupLayout()
	panel.setupInputHandling()

	return panel
}

// createComponents initializes the form fields and the body editor.
func (c *CompositionPanel) createComponents() {
	c.toField = tview.NewInputField()
	c.toField.SetLabel("To: ")
	c.toField.SetPlaceholder("recipient@example.com")

	c.ccField = tview.NewInputField()
	c.ccField.SetLabel("CC: ")

	c.bccField = tview.NewInputField()
	c.bccField.SetLabel("BCC: ")

	c.subjectField = tview.NewInputField()
	c.subjectField.SetLabel("Subject: ")

	c.headerSection = tview.NewForm()
	c.headerSection.AddFormItem(c.toField)
	c.headerSection.AddFormItem(c.ccField)
	c.headerSection.AddFormItem(c.bccField)
	c.headerSection.AddFormItem(c.subjectField)

	c.body = NewBodyEditor(c.app.logger)
	c.body.SetChangedFunc(c.onBodyChanged)

	c.hintView = tview.NewTextView()
	c.hintView.SetTextAlign(tview.AlignRight)
	c.hintView.SetText(fmt.Sprintf(
		"Tab accept suggestion | Esc dismiss/close | Ctrl+Z undo | Ctrl+Y redo | %s send",
		bindingLabel(c.app.sendKey)))

	c.focusables = []tview.Primitive{c.toField, c.ccField, c.bccField, c.subjectField, c.body}
}

// setupLayout stacks header, body and hint vertically.
func (c *CompositionPanel) setupLayout() {
	c.Flex.SetDirection(tview.FlexRow)
	c.Flex.SetBorder(true)
	c.Flex.SetTitle(" Compose ")

	c.Flex.AddItem(c.headerSection, 9, 0, false)
	c.Flex.AddItem(c.body, 0, 1, false)
	c.Flex.AddItem(c.hintView, 1, 0, false)
}

// setupInputHandling routes every key event through the engine's command
// router before any widget sees it, so accept/dismiss/undo/redo/send
// never leak into the widgets as ordinary input.
func (c *CompositionPanel) setupInputHandling() {
	c.Flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if c.session == nil {
			return event
		}

		if event.Key() == c.app.quitKey {
			c.closePanel()
			return nil
		}

		chord := translateChord(event)
		if event.Key() == c.app.sendKey {
			// The configured stand-in for Ctrl+Enter.
			chord = compose.KeyChord{Key: compose.KeyEnter, Mod: true}
		}
		bodyFocused := c.body.HasFocus()

		// Plain typing in a header field belongs to that field; only
		// chords with the primary modifier, Tab and Escape are global.
		if !bodyFocused && chord.Key == compose.KeyRune && !chord.Mod {
			return event
		}

		c.onUIThread.Store(true)
		cmd := c.session.HandleKey(chord)
		c.onUIThread.Store(false)

		switch cmd {
		case compose.CommandSend:
			c.startSend()
			return nil
		case compose.CommandAcceptSuggestion, compose.CommandDismissSuggestion,
			compose.CommandUndo, compose.CommandRedo:
			// Executed by the session; the snapshot callback already
			// refreshed the widgets.
			return nil
		case compose.CommandNone:
			switch event.Key() {
			case tcell.KeyEscape:
				c.closePanel()
			case tcell.KeyTab:
				c.focusNext()
			case tcell.KeyBacktab:
				c.focusPrevious()
			}
			return nil
		}

		// CommandInsert: an ordinary edit. The body editor applies it and
		// reports the new text through onBodyChanged; header fields apply
		// their own default behavior.
		if !bodyFocused {
			return event
		}
		switch event.Key() {
		case tcell.KeyRune:
			c.body.HandleCharInput(event.Rune())
		case tcell.KeyEnter:
			c.body.HandleEnter()
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			c.body.HandleBackspace()
		case tcell.KeyDelete:
			c.body.HandleDelete()
		case tcell.KeyUp:
			c.body.HandleArrowUp()
		case tcell.KeyDown:
			c.body.HandleArrowDown()
		case tcell.KeyLeft:
			c.body.HandleArrowLeft()
		case tcell.KeyRight:
			c.body.HandleArrowRight()
		case tcell.KeyHome:
			c.body.HandleHome()
		case tcell.KeyEnd:
			c.body.HandleEnd()
		default:
			return event
		}
		return nil
	})
}

// SessionOptions returns the options to create this panel's session with;
// the snapshot callback is how the engine drives the ghost overlay.
func (c *CompositionPanel) SessionOptions() services.SessionOptions {
	return services.SessionOptions{Notify: c.onSnapshot}
}

// Load attaches a session and seeds the widgets from it. Replies land
// with the body focused, ready to type above the quoted original; blank
// and forwarded messages start on the To field.
func (c *CompositionPanel) Load(session *compose.EditSession) {
	c.session = session

	c.Flex.SetTitle(panelTitle(session))
	c.toField.SetText(formatRecipients(session.To()))
	c.ccField.SetText(formatRecipients(session.Cc()))
	c.bccField.SetText(formatRecipients(session.Bcc()))
	c.subjectField.SetText(session.Subject())
	c.body.SetText(session.Buffer())

	if len(session.To()) > 0 {
		c.focusIndex = len(c.focusables) - 1
	} else {
		c.focusIndex = 0
	}
	c.focusCurrent()
}

// Session returns the attached session, or nil before Load.
func (c *CompositionPanel) Session() *compose.EditSession {
	return c.session
}

// onBodyChanged reports an ordinary edit to the session.
func (c *CompositionPanel) onBodyChanged(text string) {
	if c.session == nil {
		return
	}
	c.onUIThread.Store(true)
	c.session.ApplyEdit(text)
	c.onUIThread.Store(false)
}

// onSnapshot applies a state change to the widgets. Calls that originate
// from this panel's own event handling run on the UI goroutine already;
// ghost arrivals come from the fetch goroutine and are queued.
func (c *CompositionPanel) onSnapshot(snap compose.Snapshot) {
	if c.onUIThread.Load() {
		c.applySnapshot(snap)
		return
	}
	c.app.QueueUpdateDraw(func() {
		c.applySnapshot(snap)
	})
}

func (c *CompositionPanel) applySnapshot(snap compose.Snapshot) {
	if snap.Buffer != c.body.GetText() {
		c.body.SetText(snap.Buffer)
	}
	c.body.SetGhost(snap.GhostSuggestion)
}

// startSend syncs the header fields into the session and launches the
// delivery attempt off the event loop.
func (c *CompositionPanel) startSend() {
	if !c.sending.CompareAndSwap(false, true) {
		return
	}
	c.syncFields()
	go c.send()
}

// syncFields pushes the header field contents into the session. Runs on
// the UI goroutine.
func (c *CompositionPanel) syncFields() {
	if c.session == nil {
		return
	}
	c.session.SetTo(services.ParseRecipients(c.toField.GetText()))
	c.session.SetCc(services.ParseRecipients(c.ccField.GetText()))
	c.session.SetBcc(services.ParseRecipients(c.bccField.GetText()))
	c.session.SetSubject(c.subjectField.GetText())
}

// send performs one delivery attempt. Validation and transport failures
// leave the session open with the draft intact; only success closes the
// surface.
func (c *CompositionPanel) send() {
	defer c.sending.Store(false)

	if err := services.ValidateRecipients(c.session.To()); err != nil {
		c.showFieldError("to", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err := c.session.Send(ctx)
	if err == nil {
		c.app.markSent()
		c.app.Stop()
		return
	}

	var verrs compose.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		c.showFieldError(verrs[0].Field, verrs[0].Message)
		return
	}
	c.app.errorHandler.ShowSendError(context.Background(), err)
}

// showFieldError surfaces a validation failure and moves focus to the
// offending field.
func (c *CompositionPanel) showFieldError(field, message string) {
	c.app.errorHandler.ShowError(context.Background(), message)
	c.app.QueueUpdateDraw(func() {
		switch field {
		case "to":
			c.focusIndex = 0
		case "subject":
			c.focusIndex = 3
		case "body":
			c.focusIndex = len(c.focusables) - 1
		}
		c.focusCurrent()
	})
}

// closePanel tears the session down and stops the application. The
// session close makes any in-flight completion permanently stale.
func (c *CompositionPanel) closePanel() {
	if c.session != nil {
		c.session.Close()
	}
	c.app.Stop()
}

// Focus cycling.

func (c *CompositionPanel) focusNext() {
	c.focusIndex = (c.focusIndex + 1) % len(c.focusables)
	c.focusCurrent()
}

func (c *CompositionPanel) focusPrevious() {
	c.focusIndex = (c.focusIndex - 1 + len(c.focusables)) % len(c.focusables)
	c.focusCurrent()
}

func (c *CompositionPanel) focusCurrent() {
	c.app.SetFocus(c.focusables[c.focusIndex])
}

// panelTitle names the surface after what the session is doing, with the
// original sender and subject when there is an original message.
func panelTitle(session *compose.EditSession) string {
	verb := " Compose "
	switch session.Kind() {
	case compose.SessionReply, compose.SessionReplyAll:
		verb = " Reply "
	case compose.SessionForward:
		verb = " Forward "
	}

	msgCtx := session.Context()
	if msgCtx == nil {
		return verb
	}
	detail := render.SenderName(msgCtx.From)
	if subject := render.Excerpt(msgCtx.Subject, 40); subject != "" {
		detail += ": " + subject
	}
	if detail == "" {
		return verb
	}
	return verb + "- " + detail + " "
}

// formatRecipients renders recipients back into header-field text.
func formatRecipients(list []compose.Recipient) string {
	parts := make([]string, 0, len(list))
	for _, r := range list {
		if r.Name != "" {
			parts = append(parts, r.Name+" <"+r.Email+">")
			continue
		}
		parts = append(parts, r.Email)
	}
	return strings.Join(parts, ", ")
}
