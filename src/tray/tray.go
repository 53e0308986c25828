package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/getlantern/systray"
)

type Config struct {
	Title     string
	Tooltip   string
	Hotkey    string
	OnCapture func()
	OnShow    func()
	OnQuit    func()
}

var (
	mu      sync.Mutex
	ready   bool
	pending string
)

// UpdateTooltip sets the tray tooltip. Calls made before the tray is up
// are applied once it is.
func UpdateTooltip(text string) {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		pending = text
		return
	}
	systray.SetTooltip(text)
}

type Tray struct {
	cfg Config
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Screen Annotate"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	return &Tray{cfg: cfg}
}

// Run blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	if icon, err := Icon(); err != nil {
		log.Printf("tray: icon: %v", err)
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTitle(t.cfg.Title)

	mu.Lock()
	ready = true
	tooltip := t.cfg.Tooltip
	if pending != "" {
		tooltip = pending
	}
	systray.SetTooltip(tooltip)
	mu.Unlock()

	mCapture := systray.AddMenuItem(captureLabel(t.cfg.Hotkey), "Capture a screen region")
	mShow := systray.AddMenuItem("Open Editor", "Show the annotation editor")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				call(t.cfg.OnCapture)
			case <-mShow.ClickedCh:
				call(t.cfg.OnShow)
			case <-mQuit.ClickedCh:
				call(t.cfg.OnQuit)
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	mu.Lock()
	ready = false
	mu.Unlock()
	log.Printf("tray: exited")
}

func call(f func()) {
	if f != nil {
		f()
	}
}

func captureLabel(hotkey string) string {
	if hotkey == "" {
		return "Take Screenshot"
	}
	return fmt.Sprintf("Take Screenshot (%s)", hotkey)
}
