package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-annotate/src/messages"
	"screen-annotate/src/shape"
)

// Poster hands a message to the event loop.
type Poster func(messages.Message) bool

// EditorCanvas shows the composited capture and turns primary-button
// pointer activity into loop messages in image pixel coordinates.
type EditorCanvas struct {
	widget.BaseWidget
	post    Poster
	img     *canvas.Image
	frame   image.Image
	pressed bool
}

var _ fyne.Widget = (*EditorCanvas)(nil)
var _ fyne.Draggable = (*EditorCanvas)(nil)
var _ desktop.Mouseable = (*EditorCanvas)(nil)
var _ desktop.Hoverable = (*EditorCanvas)(nil)

func NewEditorCanvas(post Poster) *EditorCanvas {
	c := &EditorCanvas{post: post}
	c.img = &canvas.Image{FillMode: canvas.ImageFillStretch, ScaleMode: canvas.ImageScalePixels}
	c.ExtendBaseWidget(c)
	return c
}

// SetFrame replaces the displayed image. Must run on the fyne goroutine.
func (c *EditorCanvas) SetFrame(frame image.Image) {
	c.frame = frame
	c.img.Image = frame
	c.img.Refresh()
	c.Refresh()
}

func (c *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.img)
}

// MinSize is the frame's pixel size so the image is shown 1:1.
func (c *EditorCanvas) MinSize() fyne.Size {
	if c.frame == nil {
		return fyne.NewSize(320, 200)
	}
	b := c.frame.Bounds()
	return fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
}

func (c *EditorCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || c.frame == nil {
		return
	}
	c.pressed = true
	c.post(messages.PointerDown{Pos: c.toImage(e.Position)})
}

func (c *EditorCanvas) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !c.pressed {
		return
	}
	c.pressed = false
	c.post(messages.PointerUp{})
}

func (c *EditorCanvas) MouseMoved(e *desktop.MouseEvent) {
	if c.pressed {
		c.post(messages.PointerMove{Pos: c.toImage(e.Position)})
	}
}

func (c *EditorCanvas) Dragged(e *fyne.DragEvent) {
	if c.pressed {
		c.post(messages.PointerMove{Pos: c.toImage(e.Position)})
	}
}

func (c *EditorCanvas) DragEnd() {}

func (c *EditorCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseOut ends any gesture, the same as releasing the button.
func (c *EditorCanvas) MouseOut() {
	if c.pressed {
		c.pressed = false
		c.post(messages.PointerLeave{})
	}
}

func (c *EditorCanvas) toImage(pos fyne.Position) shape.Point {
	if c.frame == nil {
		return shape.Pt(float64(pos.X), float64(pos.Y))
	}
	return toPixels(pos, c.Size(), c.frame.Bounds().Size())
}

// toPixels maps a widget position to pixel coordinates of an image of
// size px stretched over a widget of size sz.
func toPixels(pos fyne.Position, sz fyne.Size, px image.Point) shape.Point {
	if sz.Width <= 0 || sz.Height <= 0 {
		return shape.Pt(float64(pos.X), float64(pos.Y))
	}
	return shape.Pt(
		float64(pos.X)*float64(px.X)/float64(sz.Width),
		float64(pos.Y)*float64(px.Y)/float64(sz.Height),
	)
}
