package eventloop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"screen-annotate/src/editor"
	"screen-annotate/src/hotkey"
	"screen-annotate/src/messages"
	"screen-annotate/src/notification"
	"screen-annotate/src/overlay"
	"screen-annotate/src/render"
	"screen-annotate/src/screenshot"
	"screen-annotate/src/session"
	"screen-annotate/src/singleinstance"
	"screen-annotate/src/upload"
	"screen-annotate/src/worker"
)

// ErrBusy is reported when an upload is requested while another is running.
var ErrBusy = errors.New("an upload is already in progress")

const (
	defaultDeadline = 30 * time.Second
	defaultTooltip  = "Screen Annotate"
	queueSize       = 64
)

// UI is everything the loop drives on the windowing side. Implementations
// must return quickly and hand results back only through Post.
type UI interface {
	overlay.Selector
	editor.TextPrompt
	// ShowFrame replaces the editor image and status line.
	ShowFrame(frame image.Image, status string)
	// ShowEditor raises the editor window.
	ShowEditor()
	Quit()
}

type Options struct {
	Session *session.AppSession
	Pool    *worker.Pool
	// Capture grabs the whole virtual screen. Defaults to screenshot.CaptureVirtualScreen.
	Capture   func() (*image.RGBA, error)
	Clipboard session.ResultTarget
	// Upload is nil when no endpoint is configured.
	Upload   session.ResultTarget
	Notifier notification.Notifier
	// Server, when set, accepts commands from later invocations.
	Server         singleinstance.Server
	AutoCopy       bool
	UploadDeadline time.Duration
	// Status receives tray tooltip updates.
	Status func(string)
}

// Loop is the single goroutine that owns the session. Everything else,
// including worker completions and GUI callbacks, talks to it through Post.
type Loop struct {
	opts Options
	ui   UI

	msgs chan messages.Message
	done chan struct{}

	// full-screen grab waiting for the overlay to answer
	full      *image.RGBA
	selecting bool
	uploading bool

	lastFrame  image.Image
	lastStatus string
}

func New(opts Options) *Loop {
	if opts.Session == nil {
		opts.Session = session.New(session.Options{})
	}
	if opts.Pool == nil {
		opts.Pool = worker.New(2)
	}
	if opts.Capture == nil {
		opts.Capture = screenshot.CaptureVirtualScreen
	}
	if opts.Clipboard == nil {
		opts.Clipboard = session.ClipboardTarget{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.LogNotifier{}
	}
	if opts.UploadDeadline <= 0 {
		opts.UploadDeadline = defaultDeadline
	}
	return &Loop{
		opts: opts,
		msgs: make(chan messages.Message, queueSize),
		done: make(chan struct{}),
	}
}

// Attach connects the windowing side. It must be called before Run.
func (l *Loop) Attach(ui UI) {
	l.ui = ui
	l.opts.Session.SetPrompt(loopPrompt{l})
}

// Post queues msg for the loop. It never blocks once the loop has exited
// and reports whether the message was accepted.
func (l *Loop) Post(msg messages.Message) bool {
	select {
	case l.msgs <- msg:
		return true
	case <-l.done:
		return false
	}
}

// StartHotkey registers a global hotkey that requests a capture.
func (l *Loop) StartHotkey(combo string) {
	if combo == "" {
		return
	}
	hotkey.Listen(combo, func() {
		l.Post(messages.CaptureRequested{Source: messages.SourceHotkey})
	})
}

// Run processes messages until Quit is posted or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l.ui == nil {
		return errors.New("eventloop: no UI attached")
	}
	if err := l.opts.Session.Start(ctx); err != nil {
		return err
	}
	defer l.opts.Session.Shutdown()
	defer l.opts.Pool.Close()
	defer close(l.done)

	reqCh := l.serve(ctx)
	l.setStatus(defaultTooltip)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(ctx, conn)
		case msg := <-l.msgs:
			if l.handle(ctx, msg) {
				return nil
			}
		}
	}
}

// serve moves accepted connections onto a channel. Nil when there is no server.
func (l *Loop) serve(ctx context.Context) <-chan singleinstance.Conn {
	if l.opts.Server == nil {
		return nil
	}
	if p := l.opts.Server.Port(); p > 0 {
		log.Printf("Resident listening on 127.0.0.1:%d", p)
	}
	reqCh := make(chan singleinstance.Conn, 4)
	go func() {
		defer close(reqCh)
		for {
			conn, err := l.opts.Server.Next(ctx)
			if err != nil {
				return
			}
			select {
			case reqCh <- conn:
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()
	return reqCh
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	defer conn.Close()
	switch cmd := conn.Request().Command; cmd {
	case singleinstance.CommandCapture:
		if l.selecting {
			_ = conn.RespondError("selection already in progress")
			return
		}
		l.handle(ctx, messages.CaptureRequested{Source: messages.SourceResident})
		_ = conn.RespondSuccess("capture started")
	case singleinstance.CommandShow:
		l.handle(ctx, messages.ShowEditor{})
		_ = conn.RespondSuccess("editor shown")
	default:
		_ = conn.RespondError(fmt.Sprintf("unsupported command %q", cmd))
	}
}

// handle applies one message. It reports true when the loop should stop.
func (l *Loop) handle(ctx context.Context, msg messages.Message) bool {
	switch m := msg.(type) {
	case messages.Quit:
		log.Printf("Quit requested")
		l.ui.Quit()
		return true
	case messages.CaptureRequested:
		l.startCapture(m.Source)
	case messages.RegionSelected:
		l.regionSelected(m.Region)
	case messages.RegionCancelled:
		log.Printf("Region selection cancelled")
		l.selecting = false
		l.full = nil
	case messages.ShowEditor:
		l.present(true)
		l.ui.ShowEditor()
	case messages.CopyRequested:
		l.copyAnnotated(ctx)
	case messages.UploadRequested:
		l.uploadAnnotated(ctx)
	case messages.ClipboardComplete:
		l.clipboardComplete(m)
	case messages.UploadComplete:
		l.uploadComplete(m)
	case messages.TextEntered:
		if m.Apply != nil {
			m.Apply(m.Content, m.OK)
		}
		l.present(false)
	default:
		l.edit(msg)
	}
	return false
}

// edit forwards pointer and toolbar messages to the controller.
func (l *Loop) edit(msg messages.Message) {
	ctrl := l.opts.Session.Controller()
	if ctrl == nil {
		switch m := msg.(type) {
		case messages.SetTool:
			l.opts.Session.SetTool(m.Tool)
		case messages.SetColor:
			l.opts.Session.SetColor(m.Color)
		}
		return
	}
	switch m := msg.(type) {
	case messages.PointerDown:
		ctrl.PointerDown(m.Pos)
	case messages.PointerMove:
		ctrl.PointerMove(m.Pos)
	case messages.PointerUp:
		ctrl.PointerUp()
	case messages.PointerLeave:
		ctrl.PointerLeave()
	case messages.SetTool:
		ctrl.SetTool(m.Tool)
	case messages.SetColor:
		ctrl.SetColor(m.Color)
	case messages.DeleteSelected:
		ctrl.DeleteSelected()
	default:
		log.Printf("eventloop: unhandled message %s", msg.Type())
		return
	}
	l.present(false)
}

func (l *Loop) startCapture(source string) {
	if l.selecting {
		log.Printf("Capture (%s) ignored: selection already in progress", source)
		return
	}
	log.Printf("Capture requested from %s", source)
	full, err := l.opts.Capture()
	if err != nil {
		log.Printf("Capture failed: %v", err)
		l.opts.Notifier.Notify("Capture failed", err.Error())
		return
	}
	l.full = full
	l.selecting = true
	l.ui.Begin(full, func(r screenshot.Region, ok bool) {
		if ok {
			l.Post(messages.RegionSelected{Region: r})
		} else {
			l.Post(messages.RegionCancelled{})
		}
	})
}

func (l *Loop) regionSelected(r screenshot.Region) {
	if !l.selecting {
		log.Printf("Stale region %s ignored", r)
		return
	}
	full := l.full
	l.selecting = false
	l.full = nil

	if !screenshot.Accept(r) {
		log.Printf("Region %s too small, treating as cancel", r)
		return
	}
	img, err := screenshot.Crop(full, r)
	if err != nil {
		log.Printf("Crop failed: %v", err)
		l.opts.Notifier.Notify("Capture failed", err.Error())
		return
	}
	if err := l.opts.Session.Begin(img, r); err != nil {
		log.Printf("Begin capture failed: %v", err)
		l.opts.Notifier.Notify("Capture failed", err.Error())
		return
	}
	log.Printf("Captured %s (id=%s)", r, l.opts.Session.CaptureID())

	if l.opts.AutoCopy {
		l.deliver(context.Background(), "copy capture", img, l.opts.Clipboard, func(_ string, err error) {
			l.Post(messages.ClipboardComplete{Raw: true, Error: err})
		})
	}
	l.present(true)
	l.ui.ShowEditor()
}

func (l *Loop) copyAnnotated(ctx context.Context) {
	img, err := l.opts.Session.Export()
	if err != nil {
		l.opts.Notifier.Notify("Nothing to copy", err.Error())
		return
	}
	ok := l.deliver(ctx, "copy annotated", img, l.opts.Clipboard, func(_ string, err error) {
		l.Post(messages.ClipboardComplete{Error: err})
	})
	if !ok {
		l.opts.Notifier.Notify("Busy", "Please retry in a moment")
	}
}

func (l *Loop) uploadAnnotated(ctx context.Context) {
	if l.opts.Upload == nil {
		l.opts.Notifier.Notify("Upload failed", upload.ErrNotConfigured.Error())
		return
	}
	if l.uploading {
		l.opts.Notifier.Notify("Upload", ErrBusy.Error())
		return
	}
	img, err := l.opts.Session.Export()
	if err != nil {
		l.opts.Notifier.Notify("Nothing to upload", err.Error())
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.opts.UploadDeadline)
	l.setUploading(true)
	ok := l.deliver(jobCtx, "upload", img, l.opts.Upload, func(url string, err error) {
		cancel()
		l.Post(messages.UploadComplete{URL: url, Error: err})
	})
	if !ok {
		cancel()
		l.setUploading(false)
		l.opts.Notifier.Notify("Busy", "Please retry in a moment")
	}
}

// deliver encodes img and hands it to target on the worker pool. img must
// not be modified afterwards.
func (l *Loop) deliver(ctx context.Context, name string, img image.Image, target session.ResultTarget, cb worker.ResultCallback) bool {
	return l.opts.Pool.Submit(ctx, name, func(ctx context.Context) (string, error) {
		png, err := render.EncodePNG(img)
		if err != nil {
			return "", err
		}
		return target.Deliver(ctx, png)
	}, cb)
}

func (l *Loop) clipboardComplete(m messages.ClipboardComplete) {
	switch {
	case m.Error != nil:
		log.Printf("Clipboard write failed: %v", m.Error)
		l.opts.Notifier.Notify("Clipboard error", m.Error.Error())
	case m.Raw:
		log.Printf("Capture copied to clipboard")
	default:
		l.opts.Notifier.Notify("Copied", "Annotated image copied to clipboard")
	}
}

func (l *Loop) uploadComplete(m messages.UploadComplete) {
	l.setUploading(false)
	switch {
	case m.Error != nil && m.URL != "":
		// uploaded, but the link did not make it to the clipboard
		l.opts.Notifier.Notify("Uploaded", m.Error.Error())
	case m.Error != nil:
		log.Printf("Upload failed: %v", m.Error)
		l.opts.Notifier.Notify("Upload failed", m.Error.Error())
	default:
		log.Printf("Uploaded to %s", m.URL)
		l.opts.Notifier.Notify("Uploaded", m.URL)
	}
	l.present(false)
}

func (l *Loop) setUploading(b bool) {
	l.uploading = b
	if b {
		l.setStatus("Screen Annotate: uploading...")
	} else {
		l.setStatus(defaultTooltip)
	}
}

func (l *Loop) setStatus(s string) {
	if l.opts.Status != nil {
		l.opts.Status(s)
	}
}

// present pushes the current composite to the UI when it changed, or
// always when force is set.
func (l *Loop) present(force bool) {
	frame, ok := l.opts.Session.Composite()
	if !ok {
		return
	}
	status := l.opts.Session.Controller().Status()
	if l.uploading {
		status += " | Uploading..."
	}
	if !force && frame == l.lastFrame && status == l.lastStatus {
		return
	}
	l.lastFrame = frame
	l.lastStatus = status
	l.ui.ShowFrame(frame, status)
}

// loopPrompt routes text prompt answers back through the loop so the
// controller is only ever touched from the loop goroutine.
type loopPrompt struct{ l *Loop }

func (p loopPrompt) RequestText(message string, reply func(string, bool)) {
	p.l.ui.RequestText(message, func(content string, ok bool) {
		p.l.Post(messages.TextEntered{Content: content, OK: ok, Apply: reply})
	})
}
