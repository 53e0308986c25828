package gui

import (
	"log"
	"sync"

	"fyne.io/fyne/v2"

	"screen-annotate/src/notification"
)

// desktopNotifier sends notices through the fyne app. Every notice is also logged.
type desktopNotifier struct {
	mu  sync.Mutex
	app fyne.App
}

func (d *desktopNotifier) Notify(title, message string) {
	message = notification.Truncate(message)
	log.Printf("%s: %s", title, message)

	d.mu.Lock()
	app := d.app
	d.mu.Unlock()
	if app == nil {
		return
	}
	fyne.Do(func() {
		app.SendNotification(fyne.NewNotification(title, message))
	})
}

// detach drops the app reference once it has quit.
func (d *desktopNotifier) detach() {
	d.mu.Lock()
	d.app = nil
	d.mu.Unlock()
}
