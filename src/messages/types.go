package messages

import (
	"image/color"

	"screen-annotate/src/editor"
	"screen-annotate/src/screenshot"
	"screen-annotate/src/shape"
)

// Message is the base interface for everything posted to the event loop.
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeCaptureRequested  = "CaptureRequested"
	TypeRegionSelected    = "RegionSelected"
	TypeRegionCancelled   = "RegionCancelled"
	TypePointerDown       = "PointerDown"
	TypePointerMove       = "PointerMove"
	TypePointerUp         = "PointerUp"
	TypePointerLeave      = "PointerLeave"
	TypeSetTool           = "SetTool"
	TypeSetColor          = "SetColor"
	TypeDeleteSelected    = "DeleteSelected"
	TypeCopyRequested     = "CopyRequested"
	TypeUploadRequested   = "UploadRequested"
	TypeTextEntered       = "TextEntered"
	TypeClipboardComplete = "ClipboardComplete"
	TypeUploadComplete    = "UploadComplete"
	TypeShowEditor        = "ShowEditor"
	TypeQuit              = "Quit"
)

// Trigger sources for CaptureRequested.
const (
	SourceHotkey   = "hotkey"
	SourceTray     = "tray"
	SourceEditor   = "editor"
	SourceResident = "resident"
)

// CaptureRequested starts a new capture: full-screen grab, then region selection.
type CaptureRequested struct {
	Source string
}

func (m CaptureRequested) Type() string { return TypeCaptureRequested }

// RegionSelected is posted by the selection overlay.
type RegionSelected struct {
	Region screenshot.Region
}

func (m RegionSelected) Type() string { return TypeRegionSelected }

// RegionCancelled is posted when the user dismisses the overlay.
type RegionCancelled struct{}

func (m RegionCancelled) Type() string { return TypeRegionCancelled }

// PointerDown and the other pointer messages carry image pixel coordinates.
type PointerDown struct {
	Pos shape.Point
}

func (m PointerDown) Type() string { return TypePointerDown }

type PointerMove struct {
	Pos shape.Point
}

func (m PointerMove) Type() string { return TypePointerMove }

type PointerUp struct{}

func (m PointerUp) Type() string { return TypePointerUp }

type PointerLeave struct{}

func (m PointerLeave) Type() string { return TypePointerLeave }

type SetTool struct {
	Tool editor.Tool
}

func (m SetTool) Type() string { return TypeSetTool }

type SetColor struct {
	Color color.NRGBA
}

func (m SetColor) Type() string { return TypeSetColor }

type DeleteSelected struct{}

func (m DeleteSelected) Type() string { return TypeDeleteSelected }

// CopyRequested copies the annotated image to the clipboard.
type CopyRequested struct{}

func (m CopyRequested) Type() string { return TypeCopyRequested }

// UploadRequested sends the annotated image to the configured upload endpoint.
type UploadRequested struct{}

func (m UploadRequested) Type() string { return TypeUploadRequested }

// TextEntered carries a text prompt answer back to the loop. Apply is the
// reply the editor registered when it asked.
type TextEntered struct {
	Content string
	OK      bool
	Apply   func(content string, ok bool)
}

func (m TextEntered) Type() string { return TypeTextEntered }

// ClipboardComplete - sent by a worker when a clipboard write finished
type ClipboardComplete struct {
	// Raw is true for the automatic copy of an unannotated capture.
	Raw   bool
	Error error
}

func (m ClipboardComplete) Type() string { return TypeClipboardComplete }

// UploadComplete - sent by a worker when an upload finished
type UploadComplete struct {
	URL   string
	Error error
}

func (m UploadComplete) Type() string { return TypeUploadComplete }

// ShowEditor raises the editor window for the current capture.
type ShowEditor struct{}

func (m ShowEditor) Type() string { return TypeShowEditor }

// Quit stops the loop.
type Quit struct{}

func (m Quit) Type() string { return TypeQuit }
