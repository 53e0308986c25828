package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"screen-annotate/src/clipboard"
	"screen-annotate/src/upload"
)

// ResultTarget receives an encoded PNG. The returned string describes the
// outcome for the user (for uploads, the public URL).
type ResultTarget interface {
	Deliver(ctx context.Context, png []byte) (string, error)
}

type ClipboardTarget struct{}

func (ClipboardTarget) Deliver(_ context.Context, png []byte) (string, error) {
	if err := clipboard.WriteImage(png); err != nil {
		return "", fmt.Errorf("clipboard error: %w", err)
	}
	return "Image copied to clipboard", nil
}

// Uploader is satisfied by *upload.Client.
type Uploader interface {
	Upload(ctx context.Context, png []byte) (string, error)
}

type UploadTarget struct {
	Client Uploader
	// CopyURL puts the resulting link on the clipboard.
	CopyURL   bool
	WriteText func(string) error
}

func (t UploadTarget) Deliver(ctx context.Context, png []byte) (string, error) {
	if t.Client == nil {
		return "", upload.ErrNotConfigured
	}
	url, err := t.Client.Upload(ctx, png)
	if err != nil {
		return "", err
	}
	if t.CopyURL {
		write := t.WriteText
		if write == nil {
			write = clipboard.WriteText
		}
		// the upload succeeded; a clipboard failure only loses the convenience copy
		if err := write(url); err != nil {
			return url, fmt.Errorf("uploaded to %s but failed to copy the link: %w", url, err)
		}
	}
	return url, nil
}

type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) Deliver(_ context.Context, png []byte) (string, error) {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	if _, err := w.Write(png); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d bytes", len(png)), nil
}

type FileTarget struct {
	Path string
}

func (t FileTarget) Deliver(_ context.Context, png []byte) (string, error) {
	if t.Path == "" {
		return "", errors.New("file target missing path")
	}
	if err := os.WriteFile(t.Path, png, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", t.Path, err)
	}
	return t.Path, nil
}
