package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/ajramos/maildraft/internal/render"
)

// LogLevel represents the severity of a message
type LogLevel int

const (
	LogLevelInfo LogLevel = iota
	LogLevelWarning
	LogLevelError
	LogLevelSuccess
)

// statusClearDelay is how long a transient status message stays visible.
const statusClearDelay = 5 * time.Second

// ErrorHandler provides consistent error handling and user feedback via
// the status bar
type ErrorHandler struct {
	mu         sync.Mutex
	app        *tview.Application
	statusView *tview.TextView
	baseline   string
	logger     *log.Logger

	currentStatus string
	statusTimer   *time.Timer
}

// NewErrorHandler creates a new error handler writing to the given status
// view. baseline is shown whenever no message is active.
func NewErrorHandler(app *tview.Application, statusView *tview.TextView, baseline string, logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{
		app:        app,
		statusView: statusView,
		baseline:   baseline,
		logger:     logger,
	}
}

// HandleError handles an error and shows appropriate user feedback
func (eh *ErrorHandler) HandleError(ctx context.Context, err error, userMsg string) {
	if err == nil {
		return
	}

	if eh.logger != nil {
		eh.logger.Printf("ERROR: %v", err)
	}

	if userMsg == "" {
		userMsg = "An error occurred"
	}

	eh.ShowMessage(ctx, userMsg, LogLevelError)
}

// statusMaxWidth keeps multi-line or very long errors from wrapping the
// one-line status bar.
const statusMaxWidth = 200

// ShowMessage displays a transient message to the user
func (eh *ErrorHandler) ShowMessage(ctx context.Context, msg string, level LogLevel) {
	if strings.TrimSpace(msg) == "" {
		return
	}

	formattedMsg := eh.formatMessage(render.Excerpt(msg, statusMaxWidth), level)

	if eh.logger != nil {
		eh.logger.Printf("%s: %s", eh.levelToString(level), msg)
	}

	if eh.app != nil {
		eh.app.QueueUpdateDraw(func() {
			eh.updateStatusMessage(formattedMsg, level)
		})
	}
}

// ShowInfo shows an info message
func (eh *ErrorHandler) ShowInfo(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelInfo)
}

// ShowWarning shows a warning message
func (eh *ErrorHandler) ShowWarning(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelWarning)
}

// ShowError shows an error message
func (eh *ErrorHandler) ShowError(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelError)
}

// ShowSuccess shows a success message
func (eh *ErrorHandler) ShowSuccess(ctx context.Context, msg string) {
	eh.ShowMessage(ctx, msg, LogLevelSuccess)
}

// ShowSendError shows a transport failure with retry guidance
func (eh *ErrorHandler) ShowSendError(ctx context.Context, err error) {
	eh.HandleError(ctx, err, "Send failed — message kept, press Ctrl+J to retry")
}

// Stop cancels any pending status-clear timer. Called on teardown so no
// timer goroutine outlives the application.
func (eh *ErrorHandler) Stop() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	if eh.statusTimer != nil {
		eh.statusTimer.Stop()
		eh.statusTimer = nil
	}
}

// formatMessage formats a message with appropriate icon and styling
func (eh *ErrorHandler) formatMessage(msg string, level LogLevel) string {
	var icon string

	switch level {
	case LogLevelInfo:
		icon = "ℹ️"
	case LogLevelWarning:
		icon = "⚠️"
	case LogLevelError:
		icon = "❌"
	case LogLevelSuccess:
		icon = "✅"
	default:
		icon = "•"
	}

	return fmt.Sprintf("%s %s", icon, msg)
}

// levelToString converts LogLevel to string
func (eh *ErrorHandler) levelToString(level LogLevel) string {
	switch level {
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelSuccess:
		return "SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// levelToColor converts LogLevel to a status color
func (eh *ErrorHandler) levelToColor(level LogLevel) tcell.Color {
	switch level {
	case LogLevelWarning:
		return tcell.ColorYellow
	case LogLevelError:
		return tcell.ColorRed
	case LogLevelSuccess:
		return tcell.ColorGreen
	default:
		return tcell.ColorDefault
	}
}

// updateStatusMessage updates the status view and arms the auto-clear
// timer. Must run on the UI goroutine.
func (eh *ErrorHandler) updateStatusMessage(msg string, level LogLevel) {
	if eh.statusView == nil {
		return
	}

	eh.mu.Lock()
	defer eh.mu.Unlock()

	if eh.statusTimer != nil {
		eh.statusTimer.Stop()
	}

	eh.currentStatus = msg
	eh.statusView.SetText(msg)
	eh.statusView.SetTextColor(eh.levelToColor(level))

	// Only clear the message the timer was armed for; a newer message
	// rearms its own timer
	expected := msg
	eh.statusTimer = time.AfterFunc(statusClearDelay, func() {
		eh.clearStatusIfCurrent(expected)
	})
}

// clearStatusIfCurrent restores the baseline unless a newer message has
// replaced the one the timer was armed for
func (eh *ErrorHandler) clearStatusIfCurrent(expectedMsg string) {
	if eh.app == nil {
		return
	}
	eh.app.QueueUpdateDraw(func() {
		eh.mu.Lock()
		defer eh.mu.Unlock()

		if eh.currentStatus != expectedMsg {
			return
		}
		eh.currentStatus = ""
		if eh.statusView != nil {
			eh.statusView.SetText(eh.baseline)
			eh.statusView.SetTextColor(tcell.ColorDefault)
		}
	})
}
