// Package editor turns pointer input into scene edits.
package editor

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"strings"

	"screen-annotate/src/hittest"
	"screen-annotate/src/scene"
	"screen-annotate/src/shape"
)

type Tool string

const (
	ToolSelect    Tool = "select"
	ToolText      Tool = "text"
	ToolArrow     Tool = "arrow"
	ToolRectangle Tool = "rectangle"
)

// Tools lists the tools in toolbar order.
var Tools = []Tool{ToolSelect, ToolText, ToolArrow, ToolRectangle}

// ParseTool resolves a tool name, case-insensitively.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(s))); t {
	case ToolSelect, ToolText, ToolArrow, ToolRectangle:
		return t, nil
	default:
		return ToolSelect, fmt.Errorf("unknown tool %q", s)
	}
}

type State int

const (
	Idle State = iota
	Drawing
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TextPromptMessage is shown when the text tool asks for content.
const TextPromptMessage = "Enter text:"

// TextPrompt asks the user for a line of text. reply may be called later;
// callers that own the scene on one goroutine must route reply back to it.
type TextPrompt interface {
	RequestText(message string, reply func(content string, ok bool))
}

// Controller is the editing state machine for one scene.
// It is not safe for concurrent use.
type Controller struct {
	sc     *scene.Scene
	prompt TextPrompt

	tool  Tool
	color color.NRGBA
	state State

	// index of the shape being drawn while Drawing
	drawing int
	// pointer minus anchor of the dragged shape while Dragging
	dragOffset shape.Point
}

func New(sc *scene.Scene, prompt TextPrompt, tool Tool, c color.NRGBA) *Controller {
	if sc == nil {
		sc = scene.New()
	}
	return &Controller{
		sc:      sc,
		prompt:  prompt,
		tool:    tool,
		color:   c,
		state:   Idle,
		drawing: scene.None,
	}
}

func (c *Controller) Scene() *scene.Scene { return c.sc }
func (c *Controller) Tool() Tool          { return c.tool }
func (c *Controller) Color() color.NRGBA  { return c.color }
func (c *Controller) State() State        { return c.state }

// SetTool switches the active tool and ends any gesture in progress.
func (c *Controller) SetTool(t Tool) {
	c.tool = t
	c.reset()
}

// SetColor recolours the selected shape, if any, and is used for new shapes.
func (c *Controller) SetColor(col color.NRGBA) {
	c.color = col
	idx, ok := c.sc.Selected()
	if !ok {
		return
	}
	err := c.sc.Mutate(idx, func(s shape.Shape) shape.Shape {
		return shape.WithColor(s, col)
	})
	c.check("set color", err)
}

// DeleteSelected removes the selected shape. Without a selection it does nothing.
func (c *Controller) DeleteSelected() {
	idx, ok := c.sc.Selected()
	if !ok {
		return
	}
	c.check("delete", c.sc.RemoveAt(idx))
	c.reset()
}

func (c *Controller) PointerDown(p shape.Point) {
	if c.state != Idle {
		// a lost pointer-up; finish the old gesture first
		c.reset()
	}
	switch c.tool {
	case ToolSelect:
		c.selectAt(p)
	case ToolText:
		c.requestText(p)
	case ToolArrow:
		c.begin(shape.Arrow{Start: p, End: p, Color: c.color})
	case ToolRectangle:
		c.begin(shape.Rectangle{Origin: p, Color: c.color})
	}
}

func (c *Controller) PointerMove(p shape.Point) {
	switch c.state {
	case Drawing:
		err := c.sc.Mutate(c.drawing, func(s shape.Shape) shape.Shape {
			switch s := s.(type) {
			case shape.Arrow:
				s.End = p
				return s
			case shape.Rectangle:
				s.Width = p.X - s.Origin.X
				s.Height = p.Y - s.Origin.Y
				return s
			default:
				return s
			}
		})
		c.check("draw", err)
	case Dragging:
		idx, ok := c.sc.Selected()
		if !ok {
			c.reset()
			return
		}
		target := p.Sub(c.dragOffset)
		err := c.sc.Mutate(idx, func(s shape.Shape) shape.Shape {
			return shape.Translate(s, target.Sub(shape.Anchor(s)))
		})
		c.check("drag", err)
	}
}

// PointerUp ends the current gesture. Shapes of any size are kept.
func (c *Controller) PointerUp() {
	c.reset()
}

// PointerLeave behaves like PointerUp.
func (c *Controller) PointerLeave() {
	c.PointerUp()
}

func (c *Controller) selectAt(p shape.Point) {
	idx, ok := hittest.HitTest(c.sc, p)
	if !ok {
		c.check("select", c.sc.Select(scene.None))
		return
	}
	if !c.check("select", c.sc.Select(idx)) {
		return
	}
	s, err := c.sc.At(idx)
	if !c.check("select", err) {
		return
	}
	c.dragOffset = p.Sub(shape.Anchor(s))
	c.state = Dragging
}

func (c *Controller) begin(s shape.Shape) {
	c.drawing = c.sc.Append(s)
	c.state = Drawing
}

func (c *Controller) requestText(p shape.Point) {
	if c.prompt == nil {
		log.Printf("editor: text tool used without a prompt")
		return
	}
	col := c.color
	c.prompt.RequestText(TextPromptMessage, func(content string, ok bool) {
		if !ok {
			return
		}
		c.AddText(p, content, col)
	})
}

// AddText appends a text annotation. Empty content is ignored.
func (c *Controller) AddText(p shape.Point, content string, col color.NRGBA) {
	t, err := shape.NewText(p, content, col)
	if errors.Is(err, shape.ErrEmptyTextContent) {
		return
	}
	if !c.check("text", err) {
		return
	}
	c.sc.Append(t)
}

// check logs err and returns the controller to Idle. It reports whether err was nil.
func (c *Controller) check(op string, err error) bool {
	if err == nil {
		return true
	}
	log.Printf("editor: %s failed: %v", op, err)
	c.reset()
	return false
}

func (c *Controller) reset() {
	c.state = Idle
	c.drawing = scene.None
	c.dragOffset = shape.Point{}
}

// Status is a one-line summary for the editor status bar.
func (c *Controller) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s | Shapes: %d", c.tool, c.sc.Len())
	if idx, ok := c.sc.Selected(); ok {
		if s, err := c.sc.At(idx); err == nil {
			fmt.Fprintf(&b, " | Selected: %s", shape.Kind(s))
		}
	}
	return b.String()
}
