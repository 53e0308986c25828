package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var pngStub = []byte("\x89PNG\r\n\x1a\nstub")

func TestUploadSendsMultipartWithBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("unexpected Authorization %q", got)
		}
		file, hdr, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image field: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != string(pngStub) {
			t.Errorf("unexpected file body %q", data)
		}
		if !strings.HasPrefix(hdr.Filename, "screenshot-") || !strings.HasSuffix(hdr.Filename, ".png") {
			t.Errorf("unexpected filename %q", hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"url":"https://img.example/abc.png"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", "")
	url, err := c.Upload(context.Background(), pngStub)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://img.example/abc.png" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestUploadCustomField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"url":"u"}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "", "file").Upload(context.Background(), pngStub); err != nil {
		t.Fatalf("upload: %v", err)
	}
}

func TestUploadRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "try later", http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"url":"https://img.example/ok.png"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "")
	c.retryDelay = time.Millisecond
	url, err := c.Upload(context.Background(), pngStub)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://img.example/ok.png" || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("unexpected result %q after %d calls", url, calls)
	}
}

func TestUploadGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "")
	c.retryDelay = time.Millisecond
	_, err := c.Upload(context.Background(), pngStub)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if atomic.LoadInt32(&calls) != maxRetries {
		t.Fatalf("expected %d calls, got %d", maxRetries, calls)
	}
}

func TestUploadDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "wrong", "").Upload(context.Background(), pngStub)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized || !strings.Contains(se.Body, "bad key") {
		t.Fatalf("expected StatusError 401 with body, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestUploadMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"quota exceeded"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", "").Upload(context.Background(), pngStub)
	if !errors.Is(err, ErrNoURL) || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected ErrNoURL with reason, got %v", err)
	}
}

func TestUploadPreconditions(t *testing.T) {
	if _, err := New("", "", "").Upload(context.Background(), pngStub); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	var nilClient *Client
	if nilClient.Configured() {
		t.Fatal("nil client must not be configured")
	}
	if _, err := New("http://127.0.0.1:1", "", "").Upload(context.Background(), nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}
