package overlay

import (
	"image"

	"screen-annotate/src/screenshot"
)

// Selector shows a full-screen region picker over a frozen capture.
// Begin returns immediately; done is called exactly once, from any
// goroutine, with the chosen region in virtual-screen coordinates or
// ok=false when the user cancels.
type Selector interface {
	Begin(full *image.RGBA, done func(region screenshot.Region, ok bool))
}

// Fixed always selects the same region. Used for scripted captures.
type Fixed screenshot.Region

func (f Fixed) Begin(_ *image.RGBA, done func(screenshot.Region, bool)) {
	done(screenshot.Region(f), true)
}
