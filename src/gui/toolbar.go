package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screen-annotate/src/editor"
	"screen-annotate/src/messages"
)

// Palette is the row of quick colours. Red comes first as the default.
var Palette = []color.NRGBA{
	{R: 0xFF, A: 0xFF},
	{R: 0xFF, G: 0xA5, A: 0xFF},
	{R: 0xFF, G: 0xFF, A: 0xFF},
	{G: 0xC0, A: 0xFF},
	{B: 0xFF, A: 0xFF},
	{A: 0xFF},
	{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
}

type colorSwatch struct {
	widget.BaseWidget
	Color    color.NRGBA
	OnTapped func(color.NRGBA)
}

func newColorSwatch(c color.NRGBA, tapped func(color.NRGBA)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

type toolbar struct {
	tools  *widget.RadioGroup
	status *widget.Label
	chosen *canvas.Rectangle
}

func newToolbar(post Poster, win fyne.Window, tool editor.Tool, current color.NRGBA) (*toolbar, fyne.CanvasObject) {
	tb := &toolbar{status: widget.NewLabel("No capture yet")}

	names := make([]string, len(editor.Tools))
	for i, t := range editor.Tools {
		names[i] = toolLabel(t)
	}
	tb.tools = widget.NewRadioGroup(names, func(label string) {
		if t, ok := toolFromLabel(label); ok {
			post(messages.SetTool{Tool: t})
		}
	})
	tb.tools.Horizontal = true
	tb.tools.Required = true
	tb.tools.Selected = toolLabel(tool)

	tb.chosen = canvas.NewRectangle(current)
	tb.chosen.SetMinSize(fyne.NewSize(24, 24))
	tb.chosen.StrokeColor = color.Black
	tb.chosen.StrokeWidth = 2

	pick := func(c color.NRGBA) {
		tb.chosen.FillColor = c
		tb.chosen.Refresh()
		post(messages.SetColor{Color: c})
	}
	swatches := container.NewHBox()
	for _, c := range Palette {
		swatches.Add(newColorSwatch(c, pick))
	}
	more := widget.NewButtonWithIcon("", theme.ColorPaletteIcon(), func() {
		picker := dialog.NewColorPicker("Colour", "Annotation colour", func(c color.Color) {
			pick(toNRGBA(c))
		}, win)
		picker.Advanced = true
		picker.Show()
	})

	buttons := container.NewHBox(
		widget.NewButtonWithIcon("Capture", theme.ContentAddIcon(), func() {
			post(messages.CaptureRequested{Source: messages.SourceEditor})
		}),
		widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
			post(messages.DeleteSelected{})
		}),
		widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), func() {
			post(messages.CopyRequested{})
		}),
		widget.NewButtonWithIcon("Upload", theme.UploadIcon(), func() {
			post(messages.UploadRequested{})
		}),
	)

	row := container.NewHBox(
		tb.tools,
		widget.NewSeparator(),
		tb.chosen,
		swatches,
		more,
		widget.NewSeparator(),
		buttons,
		layout.NewSpacer(),
	)
	return tb, row
}

func toolLabel(t editor.Tool) string {
	switch t {
	case editor.ToolSelect:
		return "Select"
	case editor.ToolText:
		return "Text"
	case editor.ToolArrow:
		return "Arrow"
	case editor.ToolRectangle:
		return "Rectangle"
	}
	return string(t)
}

func toolFromLabel(label string) (editor.Tool, bool) {
	t, err := editor.ParseTool(label)
	return t, err == nil
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
