// Package hittest finds the annotation under a pointer position.
package hittest

import (
	"fmt"
	"math"

	"screen-annotate/src/scene"
	"screen-annotate/src/shape"
	"screen-annotate/src/typeface"
)

// Tolerance is the pick distance in pixels for strokes.
const Tolerance = 5.0

// HitTest returns the index of the topmost shape under p.
func HitTest(sc *scene.Scene, p shape.Point) (int, bool) {
	shapes := sc.Shapes()
	for i := len(shapes) - 1; i >= 0; i-- {
		if Hit(shapes[i], p) {
			return i, true
		}
	}
	return scene.None, false
}

// Hit reports whether p picks s.
func Hit(s shape.Shape, p shape.Point) bool {
	switch s := s.(type) {
	case shape.Text:
		return TextBounds(s).Contains(p)
	case shape.Arrow:
		return nearSegment(p, s.Start, s.End)
	case shape.Rectangle:
		b := s.Normalized()
		if b.ContainsStrict(p) {
			return true
		}
		tl, br := b.Min, b.Max
		tr, bl := shape.Pt(br.X, tl.Y), shape.Pt(tl.X, br.Y)
		return distToSegment(p, tl, tr) < Tolerance ||
			distToSegment(p, tr, br) < Tolerance ||
			distToSegment(p, br, bl) < Tolerance ||
			distToSegment(p, bl, tl) < Tolerance
	default:
		panic(fmt.Sprintf("hittest: unknown shape %T", s))
	}
}

// TextBounds is the box a text annotation occupies: its baseline-left anchor
// is the bottom-left corner.
func TextBounds(t shape.Text) shape.Box {
	w := typeface.Advance(t.Content)
	return shape.Box{
		Min: shape.Pt(t.Position.X, t.Position.Y-typeface.Ascent),
		Max: shape.Pt(t.Position.X+w, t.Position.Y),
	}
}

// nearSegment is the arrow pick rule: perpendicular distance below
// Tolerance with the foot of the perpendicular on the segment.
func nearSegment(p, a, b shape.Point) bool {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y) < Tolerance
	}
	ap := p.Sub(a)
	t := (ap.X*d.X + ap.Y*d.Y) / l2
	if t < 0 || t > 1 {
		return false
	}
	perp := math.Abs(ap.X*d.Y-ap.Y*d.X) / math.Sqrt(l2)
	return perp < Tolerance
}

func distToSegment(p, a, b shape.Point) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	ap := p.Sub(a)
	t := math.Max(0, math.Min(1, (ap.X*d.X+ap.Y*d.Y)/l2))
	return math.Hypot(p.X-(a.X+t*d.X), p.Y-(a.Y+t*d.Y))
}
