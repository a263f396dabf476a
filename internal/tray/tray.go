// Package tray provides a system tray view of a running benchmark batch.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gesturebench/internal/app"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// Tray represents the system tray application.
type Tray struct {
	onOpen func()
	onQuit func()
	mu     sync.RWMutex
	ready  bool
	closed bool
	last   app.Status

	// Menu items stored for later updates
	menuWorkflow *systray.MenuItem
	menuStep     *systray.MenuItem
	menuLast     *systray.MenuItem
	menuErrors   *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnOpen sets the callback for the "Open Status Page" menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Close is called or Quit is clicked, and must
// run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Close removes the tray icon and makes Run return. Closing before the
// tray is ready makes it quit as soon as it is.
func (t *Tray) Close() {
	t.mu.Lock()
	t.closed = true
	ready := t.ready
	t.mu.Unlock()

	if ready {
		systray.Quit()
	}
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("gesturebench")
	systray.SetTooltip("Gesture workflow benchmark")

	t.mu.Lock()
	t.menuWorkflow = systray.AddMenuItem("Workflow: none", "Current workflow")
	t.menuWorkflow.Disable()
	t.menuStep = systray.AddMenuItem("Waiting", "Progress through the workflow")
	t.menuStep.Disable()
	t.menuLast = systray.AddMenuItem("Last: none", "Last classified gesture")
	t.menuLast.Disable()
	t.menuErrors = systray.AddMenuItem("Errors: 0", "Misclassifications in this run")
	t.menuErrors.Disable()
	t.ready = true
	last := t.last
	closed := t.closed
	t.mu.Unlock()

	if closed {
		systray.Quit()
		return
	}

	if last.Workflow != "" {
		t.Update(last)
	}
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Status Page...", "Open the status page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Stop the benchmark")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	t.mu.Lock()
	t.ready = false
	t.mu.Unlock()
}

// handleOpen handles the status page menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update shows the status of the latest tick. It is safe to call before the
// tray is ready; the last status is shown once it is.
func (t *Tray) Update(st app.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = st
	if !t.ready {
		return
	}

	lines := Lines(st)
	t.menuWorkflow.SetTitle(lines.Workflow)
	t.menuStep.SetTitle(lines.Step)
	t.menuLast.SetTitle(lines.Last)
	t.menuErrors.SetTitle(lines.Errors)
	systray.SetTooltip(lines.Workflow + " - " + lines.Step)
}

// Last returns the most recent status passed to Update.
func (t *Tray) Last() app.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// MenuLines holds the menu titles for one status.
type MenuLines struct {
	Workflow string
	Step     string
	Last     string
	Errors   string
}

// Lines renders the menu titles for a status.
func Lines(st app.Status) MenuLines {
	l := MenuLines{
		Workflow: "Workflow: " + st.Workflow,
		Last:     "Last: " + st.Raw.String(),
		Errors:   fmt.Sprintf("Errors: %d", st.Errors),
	}

	switch st.State {
	case workflow.NotStarted:
		l.Step = fmt.Sprintf("Waiting for start (%d steps)", st.Total)
	case workflow.Complete:
		l.Step = fmt.Sprintf("Done: %d/%d", st.Step, st.Total)
	default:
		l.Step = fmt.Sprintf("Step %d/%d, expect %s", st.Step+1, st.Total, st.Expected)
	}
	return l
}
