package gui

import (
	"image"
	"image/color"
	"log"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-annotate/src/screenshot"
)

var (
	bandStroke = color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF}
	bandFill   = color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0x30}
)

// selectionView shows the frozen screen and lets the user drag a rubber
// band over it. finish is called once with the region in virtual-screen
// coordinates.
type selectionView struct {
	widget.BaseWidget
	full   *image.RGBA
	img    *canvas.Image
	band   *canvas.Rectangle
	start  fyne.Position
	active bool
	done   bool
	finish func(screenshot.Region, bool)
}

var _ desktop.Mouseable = (*selectionView)(nil)
var _ fyne.Draggable = (*selectionView)(nil)

func newSelectionView(full *image.RGBA, finish func(screenshot.Region, bool)) *selectionView {
	v := &selectionView{full: full, finish: finish}
	v.img = canvas.NewImageFromImage(full)
	v.img.FillMode = canvas.ImageFillStretch
	v.band = canvas.NewRectangle(bandFill)
	v.band.StrokeColor = bandStroke
	v.band.StrokeWidth = 1
	v.band.Hide()
	v.ExtendBaseWidget(v)
	return v
}

func (v *selectionView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(v.img, container.NewWithoutLayout(v.band)))
}

func (v *selectionView) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	v.active = true
	v.start = e.Position
	v.stretch(e.Position)
	v.band.Show()
}

func (v *selectionView) Dragged(e *fyne.DragEvent) {
	if v.active {
		v.stretch(e.Position)
	}
}

func (v *selectionView) DragEnd() {}

func (v *selectionView) MouseUp(e *desktop.MouseEvent) {
	if !v.active || e.Button != desktop.MouseButtonPrimary {
		return
	}
	v.active = false
	a := v.screenPoint(v.start)
	b := v.screenPoint(e.Position)
	v.complete(screenshot.RegionFromPoints(a, b), true)
}

// Cancel dismisses the overlay without a selection.
func (v *selectionView) Cancel() {
	v.complete(screenshot.Region{}, false)
}

func (v *selectionView) complete(r screenshot.Region, ok bool) {
	if v.done {
		return
	}
	v.done = true
	v.finish(r, ok)
}

func (v *selectionView) stretch(p fyne.Position) {
	minX, maxX := math.Min(float64(v.start.X), float64(p.X)), math.Max(float64(v.start.X), float64(p.X))
	minY, maxY := math.Min(float64(v.start.Y), float64(p.Y)), math.Max(float64(v.start.Y), float64(p.Y))
	v.band.Move(fyne.NewPos(float32(minX), float32(minY)))
	v.band.Resize(fyne.NewSize(float32(maxX-minX), float32(maxY-minY)))
	v.band.Refresh()
}

func (v *selectionView) screenPoint(p fyne.Position) image.Point {
	px := toPixels(p, v.Size(), v.full.Bounds().Size())
	return image.Pt(int(math.Round(px.X)), int(math.Round(px.Y))).Add(v.full.Bounds().Min)
}

// showSelection opens a full-screen window over the frozen capture.
func (a *App) showSelection(full *image.RGBA, done func(screenshot.Region, bool)) {
	w := a.fyneApp.NewWindow("Select region")
	view := newSelectionView(full, func(r screenshot.Region, ok bool) {
		w.Close()
		log.Printf("Selection finished: %s ok=%v", r, ok)
		done(r, ok)
	})
	w.SetContent(view)
	w.SetPadded(false)
	w.SetFullScreen(true)
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			view.Cancel()
		}
	})
	w.SetCloseIntercept(view.Cancel)
	w.Show()
	w.RequestFocus()
}
