package scene

import (
	"errors"
	"image/color"
	"testing"

	"screen-annotate/src/shape"
)

var red = color.NRGBA{R: 255, A: 255}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	sc := New()
	if _, ok := sc.Selected(); ok {
		t.Fatalf("new scene must have no selection")
	}
	first := sc.Append(shape.Text{Position: shape.Pt(10, 10), Content: "Hi", Color: red})
	second := sc.Append(shape.Rectangle{Origin: shape.Pt(0, 0), Width: 5, Height: 5, Color: red})
	if first != 0 || second != 1 || sc.Len() != 2 {
		t.Fatalf("unexpected indices %d %d len %d", first, second, sc.Len())
	}
	if _, ok := sc.Shapes()[0].(shape.Text); !ok {
		t.Fatalf("first shape should be text")
	}
}

func TestRemoveSelectedClearsSelection(t *testing.T) {
	sc := New()
	sc.Append(shape.Text{Position: shape.Pt(10, 10), Content: "Hi", Color: red})
	sc.Append(shape.Rectangle{Width: 5, Height: 5, Color: red})
	if err := sc.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := sc.RemoveAt(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := sc.Selected(); ok {
		t.Fatalf("selection should be cleared")
	}
	if sc.Len() != 1 {
		t.Fatalf("expected 1 shape, got %d", sc.Len())
	}
}

func TestRemoveBelowSelectionShiftsIt(t *testing.T) {
	sc := New()
	sc.Append(shape.Text{Position: shape.Pt(10, 10), Content: "Hi", Color: red})
	sc.Append(shape.Rectangle{Origin: shape.Pt(0, 0), Width: 50, Height: 50, Color: red})
	if err := sc.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := sc.RemoveAt(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	idx, ok := sc.Selected()
	if !ok || idx != 0 {
		t.Fatalf("expected selection 0, got %d %v", idx, ok)
	}
	s, err := sc.At(idx)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if _, ok := s.(shape.Rectangle); !ok {
		t.Fatalf("selection should still point at the rectangle, got %T", s)
	}
}

func TestIndexErrors(t *testing.T) {
	sc := New()
	sc.Append(shape.Arrow{Color: red})

	tests := []struct {
		name string
		fn   func() error
	}{
		{"remove negative", func() error { return sc.RemoveAt(-1) }},
		{"remove past end", func() error { return sc.RemoveAt(1) }},
		{"select past end", func() error { return sc.Select(3) }},
		{"select below none", func() error { return sc.Select(-2) }},
		{"mutate past end", func() error {
			return sc.Mutate(1, func(s shape.Shape) shape.Shape { return s })
		}},
		{"at past end", func() error { _, err := sc.At(5); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrIndexOutOfRange) {
				t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
			}
		})
	}
	if sc.Len() != 1 {
		t.Fatalf("failed operations must not change the scene")
	}
}

func TestSelectNoneClears(t *testing.T) {
	sc := New()
	sc.Append(shape.Arrow{Color: red})
	_ = sc.Select(0)
	if err := sc.Select(None); err != nil {
		t.Fatalf("select none: %v", err)
	}
	if _, ok := sc.Selected(); ok {
		t.Fatalf("selection should be cleared")
	}
}

func TestMutateAndVersion(t *testing.T) {
	sc := New()
	v0 := sc.Version()
	sc.Append(shape.Rectangle{Origin: shape.Pt(10, 10), Width: 50, Height: 30, Color: red})
	v1 := sc.Version()
	if v1 == v0 {
		t.Fatalf("append must bump version")
	}
	err := sc.Mutate(0, func(s shape.Shape) shape.Shape {
		return shape.Translate(s, shape.Pt(20, 25))
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if sc.Version() == v1 {
		t.Fatalf("mutate must bump version")
	}
	s, _ := sc.At(0)
	if r := s.(shape.Rectangle); r.Origin != shape.Pt(30, 35) {
		t.Fatalf("unexpected origin %+v", r.Origin)
	}

	v2 := sc.Version()
	_ = sc.Select(None)
	if sc.Version() != v2 {
		t.Fatalf("selecting the current selection must not bump version")
	}
}

func TestShapesReturnsCopy(t *testing.T) {
	sc := New()
	sc.Append(shape.Arrow{Color: red})
	out := sc.Shapes()
	out[0] = shape.Text{Content: "x"}
	if _, ok := sc.Shapes()[0].(shape.Arrow); !ok {
		t.Fatalf("scene must not be affected by changes to the returned slice")
	}
}
