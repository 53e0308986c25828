// Package render composites annotations over a captured image.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"screen-annotate/src/hittest"
	"screen-annotate/src/scene"
	"screen-annotate/src/shape"
	"screen-annotate/src/typeface"
)

const (
	ArrowWidth     = 2.0
	RectangleWidth = 3.0
	ArrowHeadLen   = 15.0
	HandleSize     = 6
	// MaxCoord bounds the absolute value of a drawable coordinate. Paths
	// reaching past it are skipped: rasterx works in 26.6 fixed point.
	MaxCoord = 1 << 20
	// text selection box padding around the measured text
	textPad = 2
)

// SelectionColor decorates the selected shape.
var SelectionColor = color.NRGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF}

// Render returns a new image: base with every shape of sc painted in order,
// then the selection decoration. Shape coordinates are relative to the
// top-left corner of base. base is never modified.
func Render(base image.Image, sc *scene.Scene) *image.RGBA {
	b := base.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, base, b.Min, draw.Src)
	if sc == nil || sc.Len() == 0 {
		return out
	}

	p := newPainter(out)
	for _, s := range sc.Shapes() {
		p.shape(s)
	}
	if idx, ok := sc.Selected(); ok {
		if s, err := sc.At(idx); err == nil {
			p.selection(s)
		}
	}
	return out
}

// EncodePNG serialises img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type painter struct {
	dst    *image.RGBA
	origin image.Point
	dasher *rasterx.Dasher
}

func newPainter(dst *image.RGBA) *painter {
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	return &painter{
		dst:    dst,
		origin: b.Min,
		dasher: rasterx.NewDasher(b.Dx(), b.Dy(), scanner),
	}
}

func (p *painter) shape(s shape.Shape) {
	switch s := s.(type) {
	case shape.Text:
		x := s.Position.X + float64(p.origin.X)
		y := s.Position.Y + float64(p.origin.Y)
		if !InRange(x) || !InRange(y) {
			return
		}
		if err := typeface.Draw(p.dst, s.Content, x, y, s.Color); err != nil {
			log.Printf("render: text skipped: %v", err)
		}
	case shape.Arrow:
		p.stroke(s.Color, ArrowWidth, nil, [][]shape.Point{
			{s.Start, s.End},
		})
		angle := math.Atan2(s.End.Y-s.Start.Y, s.End.X-s.Start.X)
		p.stroke(s.Color, ArrowWidth, nil, [][]shape.Point{
			{s.End, headPoint(s.End, angle-math.Pi/6)},
			{s.End, headPoint(s.End, angle+math.Pi/6)},
		})
	case shape.Rectangle:
		p.box(s.Normalized(), s.Color, RectangleWidth)
	default:
		panic(fmt.Sprintf("render: unknown shape %T", s))
	}
}

func (p *painter) selection(s shape.Shape) {
	switch s := s.(type) {
	case shape.Text:
		tb := hittest.TextBounds(s)
		p.box(shape.Box{
			Min: shape.Pt(tb.Min.X-textPad, tb.Min.Y-textPad),
			Max: shape.Pt(tb.Max.X+textPad, tb.Max.Y+textPad),
		}, SelectionColor, 1)
	case shape.Arrow:
		p.stroke(SelectionColor, ArrowWidth, []float64{5, 5}, [][]shape.Point{
			{s.Start, s.End},
		})
	case shape.Rectangle:
		b := s.Normalized()
		for _, c := range []shape.Point{b.Min, shape.Pt(b.Max.X, b.Min.Y), shape.Pt(b.Min.X, b.Max.Y), b.Max} {
			p.handle(c)
		}
	}
}

func headPoint(end shape.Point, angle float64) shape.Point {
	return shape.Pt(end.X-ArrowHeadLen*math.Cos(angle), end.Y-ArrowHeadLen*math.Sin(angle))
}

func (p *painter) box(b shape.Box, c color.Color, width float64) {
	p.stroke(c, width, nil, [][]shape.Point{{
		b.Min, shape.Pt(b.Max.X, b.Min.Y), b.Max, shape.Pt(b.Min.X, b.Max.Y), b.Min,
	}})
}

// stroke draws each polyline in paths as one open sub-path. A closing
// polyline (first == last) is stroked as a closed path.
func (p *painter) stroke(c color.Color, width float64, dashes []float64, paths [][]shape.Point) {
	d := p.dasher
	d.Clear()
	d.SetColor(c)
	d.SetStroke(fixed.Int26_6(width*64), 4*64, rasterx.ButtCap, nil, rasterx.FlatGap, rasterx.MiterClip, dashes, 0)
	for _, pts := range paths {
		if len(pts) < 2 || !drawable(pts) {
			continue
		}
		closed := len(pts) > 2 && pts[0] == pts[len(pts)-1]
		if closed {
			pts = pts[:len(pts)-1]
		}
		d.Start(rasterx.ToFixedP(pts[0].X, pts[0].Y))
		for _, pt := range pts[1:] {
			d.Line(rasterx.ToFixedP(pt.X, pt.Y))
		}
		d.Stop(closed)
	}
	d.Draw()
}

func drawable(pts []shape.Point) bool {
	for _, pt := range pts {
		if !InRange(pt.X) || !InRange(pt.Y) {
			return false
		}
	}
	return true
}

// InRange reports whether v is finite and within ±MaxCoord.
func InRange(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= MaxCoord
}

func (p *painter) handle(c shape.Point) {
	x := int(math.Round(c.X)) + p.origin.X - HandleSize/2
	y := int(math.Round(c.Y)) + p.origin.Y - HandleSize/2
	r := image.Rect(x, y, x+HandleSize, y+HandleSize).Intersect(p.dst.Bounds())
	draw.Draw(p.dst, r, image.NewUniform(SelectionColor), image.Point{}, draw.Src)
}
