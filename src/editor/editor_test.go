package editor

import (
	"image/color"
	"testing"

	"screen-annotate/src/scene"
	"screen-annotate/src/shape"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// fakePrompt records requests and lets the test answer them later.
type fakePrompt struct {
	messages []string
	replies  []func(string, bool)
}

func (f *fakePrompt) RequestText(message string, reply func(string, bool)) {
	f.messages = append(f.messages, message)
	f.replies = append(f.replies, reply)
}

func TestDrawRectangle(t *testing.T) {
	c := New(scene.New(), nil, ToolRectangle, red)
	c.PointerDown(shape.Pt(10, 10))
	if c.State() != Drawing {
		t.Fatalf("expected Drawing, got %v", c.State())
	}
	c.PointerMove(shape.Pt(60, 40))
	c.PointerUp()
	if c.State() != Idle {
		t.Fatalf("expected Idle, got %v", c.State())
	}

	s, err := c.Scene().At(0)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	r := s.(shape.Rectangle)
	if r.Origin != shape.Pt(10, 10) || r.Width != 50 || r.Height != 30 || r.Color != red {
		t.Fatalf("unexpected rectangle %+v", r)
	}
}

func TestDrawRectangleBackwardsKeepsSign(t *testing.T) {
	c := New(scene.New(), nil, ToolRectangle, red)
	c.PointerDown(shape.Pt(50, 50))
	c.PointerMove(shape.Pt(20, 30))
	c.PointerUp()

	s, _ := c.Scene().At(0)
	r := s.(shape.Rectangle)
	if r.Width != -30 || r.Height != -20 {
		t.Fatalf("expected negative extent, got %+v", r)
	}
}

func TestDrawArrowAndZeroSizeKept(t *testing.T) {
	c := New(scene.New(), nil, ToolArrow, red)
	c.PointerDown(shape.Pt(5, 5))
	c.PointerMove(shape.Pt(50, 20))
	c.PointerUp()

	c.PointerDown(shape.Pt(70, 70))
	c.PointerUp()

	if c.Scene().Len() != 2 {
		t.Fatalf("expected 2 arrows, got %d", c.Scene().Len())
	}
	s, _ := c.Scene().At(0)
	if a := s.(shape.Arrow); a.Start != shape.Pt(5, 5) || a.End != shape.Pt(50, 20) {
		t.Fatalf("unexpected arrow %+v", a)
	}
	s, _ = c.Scene().At(1)
	if a := s.(shape.Arrow); a.Start != a.End {
		t.Fatalf("expected zero-length arrow, got %+v", a)
	}
}

func TestDragRectangle(t *testing.T) {
	sc := scene.New()
	sc.Append(shape.Rectangle{Origin: shape.Pt(10, 10), Width: 50, Height: 30, Color: red})
	c := New(sc, nil, ToolSelect, red)

	c.PointerDown(shape.Pt(20, 20))
	if c.State() != Dragging {
		t.Fatalf("expected Dragging, got %v", c.State())
	}
	if idx, ok := sc.Selected(); !ok || idx != 0 {
		t.Fatalf("expected selection 0, got %d %v", idx, ok)
	}
	c.PointerMove(shape.Pt(40, 45))
	c.PointerUp()

	s, _ := sc.At(0)
	r := s.(shape.Rectangle)
	if r.Origin != shape.Pt(30, 35) || r.Width != 50 || r.Height != 30 {
		t.Fatalf("unexpected rectangle after drag %+v", r)
	}
	if c.State() != Idle {
		t.Fatalf("expected Idle, got %v", c.State())
	}
}

func TestDragArrowMovesBothEnds(t *testing.T) {
	sc := scene.New()
	sc.Append(shape.Arrow{Start: shape.Pt(0, 0), End: shape.Pt(100, 0), Color: red})
	c := New(sc, nil, ToolSelect, red)

	c.PointerDown(shape.Pt(50, 0))
	c.PointerMove(shape.Pt(60, 10))
	c.PointerMove(shape.Pt(70, 20))
	c.PointerLeave()

	s, _ := sc.At(0)
	a := s.(shape.Arrow)
	if a.Start != shape.Pt(20, 20) || a.End != shape.Pt(120, 20) {
		t.Fatalf("unexpected arrow %+v", a)
	}
	if c.State() != Idle {
		t.Fatalf("pointer leave must end the drag")
	}
}

func TestSelectMissClearsSelection(t *testing.T) {
	sc := scene.New()
	sc.Append(shape.Rectangle{Origin: shape.Pt(10, 10), Width: 20, Height: 20, Color: red})
	_ = sc.Select(0)
	c := New(sc, nil, ToolSelect, red)

	c.PointerDown(shape.Pt(200, 200))
	if _, ok := sc.Selected(); ok {
		t.Fatalf("expected selection to be cleared")
	}
	if c.State() != Idle {
		t.Fatalf("expected Idle, got %v", c.State())
	}
}

func TestTextToolUsesPrompt(t *testing.T) {
	prompt := &fakePrompt{}
	c := New(scene.New(), prompt, ToolText, red)

	c.PointerDown(shape.Pt(10, 10))
	if len(prompt.replies) != 1 || prompt.messages[0] != TextPromptMessage {
		t.Fatalf("expected one prompt, got %v", prompt.messages)
	}
	if c.State() != Idle {
		t.Fatalf("text tool must stay Idle, got %v", c.State())
	}

	// colour changes while the prompt is open do not affect the pending text
	c.SetColor(blue)
	prompt.replies[0]("Hi", true)

	s, err := c.Scene().At(0)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	txt := s.(shape.Text)
	if txt.Content != "Hi" || txt.Position != shape.Pt(10, 10) || txt.Color != red {
		t.Fatalf("unexpected text %+v", txt)
	}
}

func TestTextPromptCancelledOrEmpty(t *testing.T) {
	prompt := &fakePrompt{}
	c := New(scene.New(), prompt, ToolText, red)

	c.PointerDown(shape.Pt(1, 1))
	c.PointerDown(shape.Pt(2, 2))
	prompt.replies[0]("", true)
	prompt.replies[1]("ignored", false)

	if c.Scene().Len() != 0 {
		t.Fatalf("expected no shapes, got %d", c.Scene().Len())
	}
}

func TestDeleteSelected(t *testing.T) {
	sc := scene.New()
	sc.Append(shape.Text{Position: shape.Pt(10, 10), Content: "Hi", Color: red})
	sc.Append(shape.Rectangle{Origin: shape.Pt(0, 0), Width: 50, Height: 50, Color: red})
	c := New(sc, nil, ToolSelect, red)

	c.DeleteSelected()
	if sc.Len() != 2 {
		t.Fatalf("delete without selection must be a no-op")
	}

	_ = sc.Select(1)
	c.DeleteSelected()
	if sc.Len() != 1 {
		t.Fatalf("expected 1 shape, got %d", sc.Len())
	}
	if _, ok := sc.Selected(); ok {
		t.Fatalf("selection must be cleared")
	}
}

func TestSetColor(t *testing.T) {
	sc := scene.New()
	sc.Append(shape.Arrow{Start: shape.Pt(0, 0), End: shape.Pt(10, 10), Color: red})
	c := New(sc, nil, ToolRectangle, red)

	c.SetColor(blue)
	s, _ := sc.At(0)
	if shape.ColorOf(s) != red {
		t.Fatalf("unselected shape must keep its colour")
	}

	_ = sc.Select(0)
	c.SetColor(blue)
	s, _ = sc.At(0)
	if shape.ColorOf(s) != blue {
		t.Fatalf("selected shape must be recoloured")
	}

	c.PointerDown(shape.Pt(20, 20))
	c.PointerUp()
	s, _ = sc.At(1)
	if shape.ColorOf(s) != blue {
		t.Fatalf("new shapes must use the current colour")
	}
}

func TestSetToolEndsGesture(t *testing.T) {
	c := New(scene.New(), nil, ToolRectangle, red)
	c.PointerDown(shape.Pt(0, 0))
	c.SetTool(ToolSelect)
	if c.State() != Idle || c.Tool() != ToolSelect {
		t.Fatalf("expected Idle select, got %v %v", c.State(), c.Tool())
	}
	c.PointerMove(shape.Pt(30, 30))
	s, _ := c.Scene().At(0)
	if r := s.(shape.Rectangle); r.Width != 0 || r.Height != 0 {
		t.Fatalf("moves after a tool switch must not resize, got %+v", r)
	}
}

func TestParseTool(t *testing.T) {
	tests := []struct {
		in      string
		want    Tool
		wantErr bool
	}{
		{"select", ToolSelect, false},
		{" Arrow ", ToolArrow, false},
		{"RECTANGLE", ToolRectangle, false},
		{"text", ToolText, false},
		{"lasso", ToolSelect, true},
	}
	for _, tt := range tests {
		got, err := ParseTool(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTool(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestStatus(t *testing.T) {
	sc := scene.New()
	sc.Append(shape.Arrow{Color: red})
	_ = sc.Select(0)
	c := New(sc, nil, ToolSelect, red)
	if got, want := c.Status(), "Tool: select | Shapes: 1 | Selected: arrow"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
