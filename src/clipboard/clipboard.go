package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

var ErrEmptyImage = errors.New("refusing to copy an empty image")

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// WriteImage places PNG-encoded image data on the clipboard.
func WriteImage(png []byte) error {
	if len(png) == 0 {
		return ErrEmptyImage
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

// WriteText performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func WriteText(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
