package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"screen-annotate/src/hittest"
	"screen-annotate/src/scene"
	"screen-annotate/src/shape"
)

var red = color.NRGBA{R: 255, A: 255}

func gradientBase(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	return img
}

func sampleScene() *scene.Scene {
	sc := scene.New()
	sc.Append(shape.Text{Position: shape.Pt(10, 30), Content: "Hello", Color: red})
	sc.Append(shape.Arrow{Start: shape.Pt(20, 80), End: shape.Pt(120, 60), Color: red})
	sc.Append(shape.Rectangle{Origin: shape.Pt(140, 120), Width: -60, Height: -40, Color: red})
	return sc
}

func TestEmptySceneEqualsBase(t *testing.T) {
	base := gradientBase(64, 48)
	out := Render(base, scene.New())
	if out == base {
		t.Fatalf("render must return a new image")
	}
	if !bytes.Equal(out.Pix, base.Pix) || out.Bounds() != base.Bounds() {
		t.Fatalf("empty scene must render the base unchanged")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	base := gradientBase(200, 160)
	sc := sampleScene()
	_ = sc.Select(2)

	first := Render(base, sc)
	second := Render(base, sc)
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Fatalf("rendering the same scene twice must produce identical pixels")
	}
}

func TestRenderLeavesBaseUntouched(t *testing.T) {
	base := gradientBase(200, 160)
	orig := append([]uint8(nil), base.Pix...)
	_ = Render(base, sampleScene())
	if !bytes.Equal(orig, base.Pix) {
		t.Fatalf("base image was modified")
	}
}

func TestRectangleStrokePainted(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 100, 100))
	sc := scene.New()
	sc.Append(shape.Rectangle{Origin: shape.Pt(10, 10), Width: 50, Height: 30, Color: red})
	out := Render(base, sc)

	// top edge centre
	if c := out.RGBAAt(35, 10); c.R < 200 || c.A < 200 {
		t.Fatalf("expected red stroke on the top edge, got %+v", c)
	}
	// interior stays untouched
	if c := out.RGBAAt(35, 25); c.A != 0 {
		t.Fatalf("expected empty interior, got %+v", c)
	}
}

func TestSelectionHandles(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 100, 100))
	sc := scene.New()
	sc.Append(shape.Rectangle{Origin: shape.Pt(20, 20), Width: 40, Height: 40, Color: red})
	unselected := Render(base, sc)
	if c := unselected.RGBAAt(62, 62); c == selectionRGBA() {
		t.Fatalf("handle drawn without selection")
	}

	_ = sc.Select(0)
	out := Render(base, sc)
	for _, p := range []image.Point{{17, 17}, {62, 17}, {17, 62}, {62, 62}} {
		if c := out.RGBAAt(p.X, p.Y); c != selectionRGBA() {
			t.Fatalf("expected handle at %v, got %+v", p, c)
		}
	}
}

func TestArrowHeadSegments(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 200, 200))
	sc := scene.New()
	sc.Append(shape.Arrow{Start: shape.Pt(20, 100), End: shape.Pt(150, 100), Color: red})
	out := Render(base, sc)

	// midpoints of the two 15px head segments at +/-30 degrees
	for _, p := range []image.Point{{143, 96}, {143, 103}} {
		if c := out.RGBAAt(p.X, p.Y); c.R < 100 {
			t.Errorf("expected head stroke at %v, got %+v", p, c)
		}
	}
	// shaft
	if c := out.RGBAAt(80, 100); c.R < 200 {
		t.Errorf("expected shaft at (80,100), got %+v", c)
	}
	// beyond the head's reach
	for _, p := range []image.Point{{143, 88}, {143, 112}, {160, 100}} {
		if c := out.RGBAAt(p.X, p.Y); c.A != 0 {
			t.Errorf("unexpected paint at %v: %+v", p, c)
		}
	}
}

func TestTextDrawnAboveBaseline(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 120, 80))
	txt := shape.Text{Position: shape.Pt(10, 50), Content: "Hello", Color: red}
	sc := scene.New()
	sc.Append(txt)
	out := Render(base, sc)

	tb := hittest.TextBounds(txt)
	inside, outside := 0, 0
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			if out.RGBAAt(x, y).A == 0 {
				continue
			}
			if float64(x) >= tb.Min.X-1 && float64(x) <= tb.Max.X+1 && float64(y) >= tb.Min.Y && float64(y) <= tb.Max.Y {
				inside++
			} else {
				outside++
			}
		}
	}
	if inside == 0 {
		t.Fatalf("no text pixels inside %v", tb)
	}
	if outside != 0 {
		t.Fatalf("%d text pixels outside %v", outside, tb)
	}
}

func TestTextSelectionBox(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 120, 80))
	sc := scene.New()
	sc.Append(shape.Text{Position: shape.Pt(10, 50), Content: "Hello", Color: red})

	// top-left corner and top edge of the box at (x-2, y-18)
	points := []image.Point{{8, 32}, {20, 32}}
	plain := Render(base, sc)
	for _, p := range points {
		if c := plain.RGBAAt(p.X, p.Y); c.B != 0 {
			t.Fatalf("selection box drawn without selection at %v: %+v", p, c)
		}
	}

	_ = sc.Select(0)
	out := Render(base, sc)
	for _, p := range points {
		if c := out.RGBAAt(p.X, p.Y); c.B < 64 || c.R != 0 {
			t.Errorf("expected blue box at %v, got %+v", p, c)
		}
	}
	// left edge runs 20px down from the top
	if c := out.RGBAAt(8, 45); c.B < 64 {
		t.Errorf("expected blue left edge at (8,45), got %+v", c)
	}
}

func TestArrowSelectionIsDashed(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 120, 100))
	sc := scene.New()
	sc.Append(shape.Arrow{Start: shape.Pt(10, 50), End: shape.Pt(90, 50), Color: red})
	_ = sc.Select(0)
	out := Render(base, sc)

	// 5px on, 5px off starting at the arrow start
	for _, x := range []int{12, 22, 32} {
		if c := out.RGBAAt(x, 50); c.B < 200 || c.R > 50 {
			t.Errorf("expected dash at x=%d, got %+v", x, c)
		}
	}
	for _, x := range []int{17, 27, 37} {
		if c := out.RGBAAt(x, 50); c.R < 200 || c.B > 50 {
			t.Errorf("expected gap showing the arrow at x=%d, got %+v", x, c)
		}
	}
}

func TestUndrawableCoordinatesAreSkipped(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300, -1e300, 4e7, 1e8} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			base := image.NewRGBA(image.Rect(0, 0, 100, 100))
			sc := scene.New()
			sc.Append(shape.Rectangle{Origin: shape.Pt(0, 0), Width: v, Height: 10, Color: red})
			sc.Append(shape.Arrow{Start: shape.Pt(0, 0), End: shape.Pt(v, 20), Color: red})
			sc.Append(shape.Text{Position: shape.Pt(v, 40), Content: "x", Color: red})
			sc.Append(shape.Rectangle{Origin: shape.Pt(10, 60), Width: 50, Height: 30, Color: red})
			_ = sc.Select(1)

			out := Render(base, sc)
			if c := out.RGBAAt(35, 60); c.R < 200 {
				t.Fatalf("drawable rectangle missing, got %+v", c)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{0, true},
		{-1e6, true},
		{MaxCoord, true},
		{MaxCoord + 1, false},
		{math.NaN(), false},
		{math.Inf(-1), false},
	}
	for _, tt := range tests {
		if got := InRange(tt.v); got != tt.want {
			t.Errorf("InRange(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEncodePNG(t *testing.T) {
	out := Render(gradientBase(32, 32), sampleScene())
	data, err := EncodePNG(out)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != out.Bounds() {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func selectionRGBA() color.RGBA {
	r, g, b, a := SelectionColor.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
