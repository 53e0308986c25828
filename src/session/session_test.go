package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"screen-annotate/src/editor"
	"screen-annotate/src/screenshot"
	"screen-annotate/src/shape"
	"screen-annotate/src/upload"
)

var blue = color.NRGBA{B: 255, A: 255}

func started(t *testing.T, opts Options) *AppSession {
	t.Helper()
	s := New(opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func TestLifecycle(t *testing.T) {
	s := New(Options{})
	if err := s.Begin(image.NewRGBA(image.Rect(0, 0, 4, 4)), screenshot.Region{}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if err := s.Begin(image.NewRGBA(image.Rect(0, 0, 4, 4)), screenshot.Region{Width: 4, Height: 4}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Shutdown()
	s.Shutdown()
	if s.HasCapture() {
		t.Fatal("shutdown must drop the capture")
	}
	if err := s.Begin(image.NewRGBA(image.Rect(0, 0, 4, 4)), screenshot.Region{}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted after shutdown, got %v", err)
	}
}

func TestBeginReplacesSceneAndKeepsToolAndColor(t *testing.T) {
	s := started(t, Options{DefaultTool: editor.ToolRectangle})
	if err := s.Begin(image.NewRGBA(image.Rect(0, 0, 50, 50)), screenshot.Region{Width: 50, Height: 50}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	first := s.CaptureID()
	ctrl := s.Controller()
	ctrl.PointerDown(shape.Pt(1, 1))
	ctrl.PointerMove(shape.Pt(20, 20))
	ctrl.PointerUp()
	ctrl.SetTool(editor.ToolArrow)
	ctrl.SetColor(blue)

	if err := s.Begin(image.NewRGBA(image.Rect(0, 0, 30, 30)), screenshot.Region{Width: 30, Height: 30}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.CaptureID() == first || s.CaptureID() == "" {
		t.Fatalf("expected a fresh capture id")
	}
	if s.Controller().Scene().Len() != 0 {
		t.Fatal("new capture must start with an empty scene")
	}
	if s.Tool() != editor.ToolArrow || s.Color() != blue {
		t.Fatalf("tool and colour must carry over, got %s %+v", s.Tool(), s.Color())
	}
	if s.Base().Bounds().Dx() != 30 {
		t.Fatal("base must be replaced")
	}
}

func TestCompositeCachesByVersion(t *testing.T) {
	s := started(t, Options{})
	if _, ok := s.Composite(); ok {
		t.Fatal("no composite before a capture")
	}
	_ = s.Begin(image.NewRGBA(image.Rect(0, 0, 40, 40)), screenshot.Region{Width: 40, Height: 40})

	a, ok := s.Composite()
	if !ok {
		t.Fatal("expected a composite")
	}
	b, _ := s.Composite()
	if a != b {
		t.Fatal("unchanged scene must reuse the cached frame")
	}

	s.Controller().Scene().Append(shape.Rectangle{Origin: shape.Pt(5, 5), Width: 10, Height: 10, Color: blue})
	c, _ := s.Composite()
	if c == a {
		t.Fatal("changed scene must produce a new frame")
	}
}

func TestExportOmitsSelection(t *testing.T) {
	s := started(t, Options{})
	_ = s.Begin(image.NewRGBA(image.Rect(0, 0, 60, 60)), screenshot.Region{Width: 60, Height: 60})
	sc := s.Controller().Scene()
	sc.Append(shape.Rectangle{Origin: shape.Pt(20, 20), Width: 20, Height: 20, Color: blue})

	plain, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	_ = sc.Select(0)
	exported, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(plain.Pix, exported.Pix) {
		t.Fatal("export must not include the selection decoration")
	}
	if idx, ok := sc.Selected(); !ok || idx != 0 {
		t.Fatal("export must not change the live selection")
	}
}

type fakeUploader struct {
	url string
	err error
	got []byte
}

func (f *fakeUploader) Upload(_ context.Context, png []byte) (string, error) {
	f.got = png
	return f.url, f.err
}

func TestUploadTarget(t *testing.T) {
	up := &fakeUploader{url: "https://img.example/x.png"}
	var copied string
	target := UploadTarget{Client: up, CopyURL: true, WriteText: func(s string) error { copied = s; return nil }}

	url, err := target.Deliver(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if url != up.url || copied != up.url || string(up.got) != "png" {
		t.Fatalf("unexpected result url=%q copied=%q", url, copied)
	}

	if _, err := (UploadTarget{}).Deliver(context.Background(), []byte("png")); !errors.Is(err, upload.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	failing := &fakeUploader{err: errors.New("boom")}
	if _, err := (UploadTarget{Client: failing}).Deliver(context.Background(), []byte("png")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestStdoutAndFileTargets(t *testing.T) {
	var buf bytes.Buffer
	if _, err := (StdoutTarget{Writer: &buf}).Deliver(context.Background(), []byte("data")); err != nil {
		t.Fatalf("stdout: %v", err)
	}
	if buf.String() != "data" {
		t.Fatalf("unexpected stdout %q", buf.String())
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if _, err := (FileTarget{Path: path}).Deliver(context.Background(), []byte("data")); err != nil {
		t.Fatalf("file: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "data" {
		t.Fatalf("unexpected file contents %q", data)
	}
	if _, err := (FileTarget{}).Deliver(context.Background(), nil); err == nil {
		t.Fatal("expected error without a path")
	}
}
