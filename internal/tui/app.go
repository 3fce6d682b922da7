// Package tui renders the compose surface on a terminal. The widgets do
// no editing-state bookkeeping of their own: every key event is routed
// through the compose engine, and the widgets redraw from the snapshots
// it emits.
package tui

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/config"
	"github.com/ajramos/maildraft/internal/render"
	"github.com/ajramos/maildraft/internal/services"
	"github.com/ajramos/maildraft/internal/version"
)

// Mode selects what the application composes on startup.
type Mode int

const (
	ModeNew Mode = iota
	ModeReply
	ModeReplyAll
	ModeForward
)

// openTimeout bounds fetching the source message when seeding a reply or
// forward.
const openTimeout = 30 * time.Second

// App is the terminal application: one compose panel, a status bar, and
// the services the panel drives.
type App struct {
	*tview.Application

	cfg          *config.Config
	compositions services.CompositionService
	logger       *log.Logger

	panel        *CompositionPanel
	statusView   *tview.TextView
	errorHandler *ErrorHandler

	// Remappable shortcuts, resolved from config once at startup.
	sendKey tcell.Key
	quitKey tcell.Key

	sent atomic.Bool
}

// NewApp assembles the application around its services.
func NewApp(compositions services.CompositionService, cfg *config.Config, logger *log.Logger) *App {
	a := &App{
		Application:  tview.NewApplication(),
		cfg:          cfg,
		compositions: compositions,
		logger:       logger,
		sendKey:      tcell.KeyCtrlJ,
		quitKey:      tcell.KeyCtrlQ,
	}
	if cfg != nil {
		a.sendKey = bindingKey(cfg.Keys.Send, a.sendKey)
		a.quitKey = bindingKey(cfg.Keys.Quit, a.quitKey)
	}

	a.statusView = tview.NewTextView()
	a.statusView.SetText(a.statusBaseline())
	a.errorHandler = NewErrorHandler(a.Application, a.statusView, a.statusBaseline(), logger)
	a.panel = NewCompositionPanel(a)

	root := tview.NewFlex().SetDirection(tview.FlexRow)
	root.AddItem(a.panel, 0, 1, true)
	root.AddItem(a.statusView, 1, 0, false)
	a.SetRoot(root, true)

	return a
}

// Run opens a session for the requested mode and drives the event loop
// until the message is sent or the surface is closed.
func (a *App) Run(mode Mode, messageID string) error {
	session, err := a.openSession(mode, messageID)
	if err != nil {
		return fmt.Errorf("failed to open compose session: %w", err)
	}
	a.panel.Load(session)

	// The surface can exit through Stop paths that skip closePanel;
	// teardown must still stop the timers and stale the in-flight fetch.
	defer session.Close()
	defer a.errorHandler.Stop()

	if err := a.Application.Run(); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

func (a *App) openSession(mode Mode, messageID string) (*compose.EditSession, error) {
	opts := a.panel.SessionOptions()

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	switch mode {
	case ModeReply:
		return a.compositions.NewReplySession(ctx, messageID, false, opts)
	case ModeReplyAll:
		return a.compositions.NewReplySession(ctx, messageID, true, opts)
	case ModeForward:
		return a.compositions.NewForwardSession(ctx, messageID, opts)
	default:
		return a.compositions.NewBlankSession(opts)
	}
}

// Sent reports whether the composed message was delivered before exit.
func (a *App) Sent() bool { return a.sent.Load() }

func (a *App) markSent() { a.sent.Store(true) }

// GetErrorHandler returns the shared error handler.
func (a *App) GetErrorHandler() *ErrorHandler { return a.errorHandler }

// statusBaseline is the status bar's resting text. The version sits in a
// fixed column so transient messages replace it without the hints moving.
func (a *App) statusBaseline() string {
	return fmt.Sprintf("%s| %s to send | Esc to close",
		render.FitWidth(version.GetVersionString(), 24), bindingLabel(a.sendKey))
}
