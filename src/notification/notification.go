package notification

import "log"

// MaxMessage bounds the body of a desktop notice.
const MaxMessage = 200

// Notifier shows short, non-blocking notices to the user.
type Notifier interface {
	Notify(title, message string)
}

// LogNotifier writes notices to the log. It is used before the GUI is up
// and by headless callers.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) {
	log.Printf("%s: %s", title, Truncate(message))
}

// Truncate shortens s to MaxMessage runes.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxMessage {
		return s
	}
	return string(r[:MaxMessage]) + "..."
}
