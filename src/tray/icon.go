package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"runtime"

	"screen-annotate/src/render"
	"screen-annotate/src/scene"
	"screen-annotate/src/shape"
)

const iconSize = 32

var (
	iconFrame = color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF}
	iconArrow = color.NRGBA{R: 0xFF, A: 0xFF}
)

// Icon draws the tray icon with the annotation renderer: a capture frame
// with an arrow pointing into it. Windows gets an ICO wrapper.
func Icon() ([]byte, error) {
	sc := scene.New()
	sc.Append(shape.Rectangle{Origin: shape.Pt(4, 4), Width: 24, Height: 20, Color: iconFrame})
	sc.Append(shape.Arrow{Start: shape.Pt(28, 30), End: shape.Pt(14, 14), Color: iconArrow})

	img := render.Render(image.NewRGBA(image.Rect(0, 0, iconSize, iconSize)), sc)
	png, err := render.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		return icoFromPNG(png, iconSize), nil
	}
	return png, nil
}

// icoFromPNG wraps a square PNG in a single-image ICO container.
func icoFromPNG(png []byte, size int) []byte {
	var b bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image
	binary.Write(&b, binary.LittleEndian, [3]uint16{0, 1, 1})
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	b.Write([]byte{dim, dim, 0, 0})
	// planes, bits per pixel, data size, data offset
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(32))
	binary.Write(&b, binary.LittleEndian, uint32(len(png)))
	binary.Write(&b, binary.LittleEndian, uint32(6+16))
	b.Write(png)
	return b.Bytes()
}
