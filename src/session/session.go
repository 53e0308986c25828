package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log"
	"sync"

	"github.com/google/uuid"

	"screen-annotate/src/editor"
	"screen-annotate/src/render"
	"screen-annotate/src/scene"
	"screen-annotate/src/screenshot"
)

var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNotStarted         = errors.New("session not started")
	ErrAlreadyStarted     = errors.New("session already started")
	ErrNoCapture          = errors.New("no capture to annotate")
)

type Options struct {
	DefaultTool  editor.Tool
	DefaultColor color.NRGBA
	// Prompt is handed to every controller the session creates.
	Prompt editor.TextPrompt
}

// AppSession owns the state of the current capture: the base image, its
// scene and the controller editing it. It replaces process-wide globals and
// is driven from a single goroutine.
type AppSession struct {
	opts Options

	mu      sync.Mutex // guards started/stopped only
	started bool
	stopped bool
	ctx     context.Context

	captureID string
	region    screenshot.Region
	base      *image.RGBA
	ctrl      *editor.Controller

	// last composite and the scene version it was rendered from
	frame        *image.RGBA
	frameVersion uint64
	frameCtrl    *editor.Controller

	tool  editor.Tool
	color color.NRGBA
}

func New(opts Options) *AppSession {
	if opts.DefaultTool == "" {
		opts.DefaultTool = editor.ToolSelect
	}
	if opts.DefaultColor == (color.NRGBA{}) {
		opts.DefaultColor = color.NRGBA{R: 0xFF, A: 0xFF}
	}
	return &AppSession{
		opts:  opts,
		tool:  opts.DefaultTool,
		color: opts.DefaultColor,
	}
}

// Start marks the session live. A session can be started once.
func (s *AppSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx = ctx
	log.Printf("session: started")
	return nil
}

// Shutdown discards the current capture. It is safe to call more than once.
func (s *AppSession) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.discard()
	log.Printf("session: shut down")
}

func (s *AppSession) live() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return ErrNotStarted
	}
	return nil
}

// Context is the context passed to Start, or Background before Start.
func (s *AppSession) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// SetPrompt replaces the text prompt used by controllers created from now on.
func (s *AppSession) SetPrompt(p editor.TextPrompt) {
	s.opts.Prompt = p
}

// Begin starts annotating base, dropping the previous capture and its scene.
// The active tool and colour carry over.
func (s *AppSession) Begin(base *image.RGBA, region screenshot.Region) error {
	if err := s.live(); err != nil {
		return err
	}
	if base == nil {
		return ErrNoCapture
	}
	s.remember()
	s.discard()
	s.captureID = uuid.NewString()
	s.region = region
	s.base = base
	s.ctrl = editor.New(scene.New(), s.opts.Prompt, s.tool, s.color)
	log.Printf("session: capture %s began (%s)", s.captureID, region)
	return nil
}

func (s *AppSession) remember() {
	if s.ctrl != nil {
		s.tool = s.ctrl.Tool()
		s.color = s.ctrl.Color()
	}
}

func (s *AppSession) discard() {
	s.captureID = ""
	s.region = screenshot.Region{}
	s.base = nil
	s.ctrl = nil
	s.frame = nil
	s.frameCtrl = nil
}

func (s *AppSession) HasCapture() bool { return s.ctrl != nil }

func (s *AppSession) CaptureID() string { return s.captureID }

func (s *AppSession) Region() screenshot.Region { return s.region }

// Base is the unannotated capture.
func (s *AppSession) Base() *image.RGBA { return s.base }

// Controller edits the current capture; nil before the first Begin.
func (s *AppSession) Controller() *editor.Controller { return s.ctrl }

// Tool and Color report what the next controller will start with.
func (s *AppSession) Tool() editor.Tool {
	if s.ctrl != nil {
		return s.ctrl.Tool()
	}
	return s.tool
}

func (s *AppSession) Color() color.NRGBA {
	if s.ctrl != nil {
		return s.ctrl.Color()
	}
	return s.color
}

// SetTool and SetColor change the toolbar state before any capture exists.
// With a live controller, use the controller instead.
func (s *AppSession) SetTool(t editor.Tool) { s.tool = t }

func (s *AppSession) SetColor(c color.NRGBA) { s.color = c }

// Composite renders the base with the current scene. The result is cached
// until the scene changes; callers must not modify it.
func (s *AppSession) Composite() (*image.RGBA, bool) {
	if s.ctrl == nil {
		return nil, false
	}
	sc := s.ctrl.Scene()
	if s.frame != nil && s.frameCtrl == s.ctrl && s.frameVersion == sc.Version() {
		return s.frame, true
	}
	s.frame = render.Render(s.base, sc)
	s.frameVersion = sc.Version()
	s.frameCtrl = s.ctrl
	return s.frame, true
}

// Export renders the current capture without the selection decoration.
func (s *AppSession) Export() (*image.RGBA, error) {
	if s.ctrl == nil {
		return nil, ErrNoCapture
	}
	sc := s.ctrl.Scene()
	if _, selected := sc.Selected(); !selected {
		frame, _ := s.Composite()
		return frame, nil
	}
	// render a copy so the live selection is untouched
	clean := scene.New()
	for _, sh := range sc.Shapes() {
		clean.Append(sh)
	}
	return render.Render(s.base, clean), nil
}
