package shape

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyTextContent is returned when a text annotation would carry no text.
var ErrEmptyTextContent = errors.New("text content is empty")

// Point is a position in image pixel coordinates.
type Point struct {
	X float64
	Y float64
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Box is an axis-aligned rectangle with Min <= Max on both axes.
type Box struct {
	Min Point
	Max Point
}

func (b Box) Width() float64  { return b.Max.X - b.Min.X }
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// ContainsStrict reports whether p lies strictly inside b.
func (b Box) ContainsStrict(p Point) bool {
	return p.X > b.Min.X && p.X < b.Max.X && p.Y > b.Min.Y && p.Y < b.Max.Y
}

// Contains reports whether p lies inside b or on its edge.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Shape is one annotation primitive: Text, Arrow or Rectangle.
// The set is closed; consumers switch over the concrete types.
type Shape interface {
	isShape()
}

// Text is a single-line label whose baseline starts at Position.
type Text struct {
	Position Point
	Content  string
	Color    color.NRGBA
}

// Arrow points from Start to End; the head is drawn at End.
type Arrow struct {
	Start Point
	End   Point
	Color color.NRGBA
}

// Rectangle is anchored at Origin. Width and Height keep the sign of the
// drag that produced them; use Normalized for geometry.
type Rectangle struct {
	Origin Point
	Width  float64
	Height float64
	Color  color.NRGBA
}

func (Text) isShape()      {}
func (Arrow) isShape()     {}
func (Rectangle) isShape() {}

// NewText builds a text annotation, rejecting empty content.
func NewText(pos Point, content string, c color.NRGBA) (Text, error) {
	if strings.TrimSpace(content) == "" {
		return Text{}, ErrEmptyTextContent
	}
	return Text{Position: pos, Content: content, Color: c}, nil
}

// Normalized returns the rectangle as a box with non-negative extent.
func (r Rectangle) Normalized() Box {
	x0, x1 := r.Origin.X, r.Origin.X+r.Width
	y0, y1 := r.Origin.Y, r.Origin.Y+r.Height
	return Box{
		Min: Point{X: math.Min(x0, x1), Y: math.Min(y0, y1)},
		Max: Point{X: math.Max(x0, x1), Y: math.Max(y0, y1)},
	}
}

// Anchor is the point a drag is measured against.
func Anchor(s Shape) Point {
	switch s := s.(type) {
	case Text:
		return s.Position
	case Arrow:
		return s.Start
	case Rectangle:
		return s.Origin
	default:
		panic(fmt.Sprintf("shape: unknown shape %T", s))
	}
}

// Translate moves every position of s by d, keeping its size.
func Translate(s Shape, d Point) Shape {
	switch s := s.(type) {
	case Text:
		s.Position = s.Position.Add(d)
		return s
	case Arrow:
		s.Start = s.Start.Add(d)
		s.End = s.End.Add(d)
		return s
	case Rectangle:
		s.Origin = s.Origin.Add(d)
		return s
	default:
		panic(fmt.Sprintf("shape: unknown shape %T", s))
	}
}

// WithColor returns s painted with c.
func WithColor(s Shape, c color.NRGBA) Shape {
	switch s := s.(type) {
	case Text:
		s.Color = c
		return s
	case Arrow:
		s.Color = c
		return s
	case Rectangle:
		s.Color = c
		return s
	default:
		panic(fmt.Sprintf("shape: unknown shape %T", s))
	}
}

// ColorOf returns the paint colour of s.
func ColorOf(s Shape) color.NRGBA {
	switch s := s.(type) {
	case Text:
		return s.Color
	case Arrow:
		return s.Color
	case Rectangle:
		return s.Color
	default:
		panic(fmt.Sprintf("shape: unknown shape %T", s))
	}
}

// Kind names the shape variant for logs and the status bar.
func Kind(s Shape) string {
	switch s.(type) {
	case Text:
		return "text"
	case Arrow:
		return "arrow"
	case Rectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// ParseHexColor accepts #RRGGBB or #RGB (leading # optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// HexColor formats c as #RRGGBB, ignoring alpha.
func HexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
