// Package typeface holds the single font face used to draw and measure text
// annotations, so hit-testing and rendering agree on text bounds.
package typeface

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// Size is the text height in pixels at 72 DPI.
	Size = 16
	// Ascent is the height of the text box above the baseline.
	Ascent = 16
)

var (
	once    sync.Once
	face    font.Face
	initErr error
	// font.Face implementations are not safe for concurrent use.
	mu sync.Mutex
)

func load() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		initErr = err
		return
	}
	face, initErr = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Face returns the shared face, parsing the embedded font on first use.
func Face() (font.Face, error) {
	once.Do(load)
	return face, initErr
}

// Advance returns the horizontal advance of s in pixels.
func Advance(s string) float64 {
	fc, err := Face()
	if err != nil {
		// 8px per rune keeps text selectable without a face.
		return float64(8 * len([]rune(s)))
	}
	mu.Lock()
	defer mu.Unlock()
	return float64(font.MeasureString(fc, s)) / 64
}

// Draw paints s onto dst with its baseline starting at (x, y).
func Draw(dst *image.RGBA, s string, x, y float64, c color.Color) error {
	fc, err := Face()
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: fc,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(s)
	return nil
}
