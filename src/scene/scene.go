package scene

import (
	"errors"
	"fmt"

	"screen-annotate/src/shape"
)

// None is the selection index meaning "nothing selected".
const None = -1

var ErrIndexOutOfRange = errors.New("shape index out of range")

// Scene holds the annotations for one capture in paint order.
// It is owned by a single goroutine and does no locking.
type Scene struct {
	shapes   []shape.Shape
	selected int
	version  uint64
}

func New() *Scene {
	return &Scene{selected: None}
}

// Append adds s on top of the existing shapes and returns its index.
func (sc *Scene) Append(s shape.Shape) int {
	sc.shapes = append(sc.shapes, s)
	sc.version++
	return len(sc.shapes) - 1
}

// RemoveAt deletes the shape at i. Removing the selected shape clears the
// selection; a selection above i moves down with its shape.
func (sc *Scene) RemoveAt(i int) error {
	if err := sc.check(i); err != nil {
		return err
	}
	sc.shapes = append(sc.shapes[:i], sc.shapes[i+1:]...)
	switch {
	case sc.selected == i:
		sc.selected = None
	case sc.selected > i:
		sc.selected--
	}
	sc.version++
	return nil
}

// Select marks i as the selected shape. None clears the selection.
func (sc *Scene) Select(i int) error {
	if i != None {
		if err := sc.check(i); err != nil {
			return err
		}
	}
	if sc.selected != i {
		sc.selected = i
		sc.version++
	}
	return nil
}

// Mutate replaces the shape at i with fn applied to it.
func (sc *Scene) Mutate(i int, fn func(shape.Shape) shape.Shape) error {
	if err := sc.check(i); err != nil {
		return err
	}
	sc.shapes[i] = fn(sc.shapes[i])
	sc.version++
	return nil
}

func (sc *Scene) Len() int { return len(sc.shapes) }

func (sc *Scene) At(i int) (shape.Shape, error) {
	if err := sc.check(i); err != nil {
		return nil, err
	}
	return sc.shapes[i], nil
}

// Shapes returns a copy of the shapes in paint order.
func (sc *Scene) Shapes() []shape.Shape {
	out := make([]shape.Shape, len(sc.shapes))
	copy(out, sc.shapes)
	return out
}

// Selected returns the selected index, if any.
func (sc *Scene) Selected() (int, bool) {
	if sc.selected == None {
		return None, false
	}
	return sc.selected, true
}

// Version changes whenever the scene content or selection changes.
func (sc *Scene) Version() uint64 { return sc.version }

func (sc *Scene) check(i int) error {
	if i < 0 || i >= len(sc.shapes) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(sc.shapes))
	}
	return nil
}
