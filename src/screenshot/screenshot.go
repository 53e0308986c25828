package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/kbinani/screenshot"
)

// MinRegionSize is the largest width or height that still counts as a click
// rather than a selection.
const MinRegionSize = 5

var ErrNoDisplays = errors.New("no active displays found")

// Region is a rectangle in virtual-screen coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// RegionFromPoints spans the rectangle between two drag corners.
func RegionFromPoints(a, b image.Point) Region {
	rc := image.Rectangle{Min: a, Max: b}.Canon()
	return Region{X: rc.Min.X, Y: rc.Min.Y, Width: rc.Dx(), Height: rc.Dy()}
}

// Accept reports whether r is big enough to be a selection.
// Anything 5px or less on either side is treated as a cancelled selection.
func Accept(r Region) bool {
	return r.Width > MinRegionSize && r.Height > MinRegionSize
}

// VirtualScreenBounds is the union of all active display bounds.
func VirtualScreenBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, ErrNoDisplays
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// CaptureVirtualScreen grabs every display at once. The returned image's
// bounds are the virtual-screen rectangle, so Crop can take regions in
// screen coordinates.
func CaptureVirtualScreen() (*image.RGBA, error) {
	union, err := VirtualScreenBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(union)
	if err != nil {
		return nil, fmt.Errorf("capture virtual screen: %w", err)
	}
	// CaptureRect returns a zero-based image; rebase it onto the union.
	img.Rect = image.Rectangle{Min: union.Min, Max: union.Min.Add(img.Rect.Size())}
	return img, nil
}

// Crop copies region out of a full virtual-screen capture into a new
// zero-based image. The region is clipped to the capture.
func Crop(full *image.RGBA, region Region) (*image.RGBA, error) {
	src := region.Rect().Intersect(full.Bounds())
	if src.Empty() {
		return nil, fmt.Errorf("region %s is outside the captured screen", region)
	}
	out := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(out, out.Bounds(), full, src.Min, draw.Src)
	return out, nil
}

// CaptureRegion captures region directly from the screen.
func CaptureRegion(region Region) (*image.RGBA, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}
	img, err := screenshot.CaptureRect(region.Rect())
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	return img, nil
}
