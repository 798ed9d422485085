// Package tray shows the transformation state in the system tray and lets the
// user pause camera detection.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/kaishou/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	view     app.StateView
	mu       sync.RWMutex

	menuToggle  *systray.MenuItem
	menuState   *systray.MenuItem
	menuCaption *systray.MenuItem
}

// New creates a new Tray with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		view:    app.StateView{State: "DORMANT", Gesture: "FIST"},
	}
}

// OnToggle sets the callback run when detection is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run when the browser view is requested.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the main
// goroutine and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	t.mu.Lock()
	systray.SetTooltip("Kaishou")
	systray.SetTitle(stateTitle(t.view))

	t.menuState = systray.AddMenuItem(stateLabel(t.view), "Current state")
	t.menuState.Disable()
	t.menuCaption = systray.AddMenuItem(t.view.Caption, "Gesture hint")
	t.menuCaption.Disable()
	systray.AddSeparator()

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle camera detection")
	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the display in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Kaishou")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetState shows v. Safe to call before Run and from any goroutine.
func (t *Tray) SetState(v app.StateView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.view = v
	if t.menuState == nil {
		return
	}
	systray.SetTitle(stateTitle(v))
	t.menuState.SetTitle(stateLabel(v))
	t.menuCaption.SetTitle(v.Caption)
}

// State returns the last state shown.
func (t *Tray) State() app.StateView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func stateTitle(v app.StateView) string {
	if v.Transformed {
		return "✦ " + v.Banner
	}
	return "✧"
}

func stateLabel(v app.StateView) string {
	label := v.State
	if v.ActiveEpisodes > 0 {
		label += " · exploding"
	}
	return label
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Camera On"
	}
	return "○ Camera Off"
}
