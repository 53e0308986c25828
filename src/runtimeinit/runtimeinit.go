package runtimeinit

import (
	"fmt"
	"log"

	"screen-annotate/src/clipboard"
	"screen-annotate/src/config"
	"screen-annotate/src/logutil"
	"screen-annotate/src/session"
	"screen-annotate/src/upload"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// SkipClipboard is set by callers that never touch the clipboard.
	SkipClipboard bool
}

// Runtime is what every entry point needs after startup.
type Runtime struct {
	Config *config.Config
	// Uploader is nil when UPLOAD_URL is not set.
	Uploader *upload.Client
}

// UploadTarget returns the upload sink, or nil when uploads are not configured.
func (r *Runtime) UploadTarget() session.ResultTarget {
	if !r.Uploader.Configured() {
		return nil
	}
	return session.UploadTarget{Client: r.Uploader, CopyURL: r.Config.CopyURLAfterUpload}
}

// Bootstrap loads configuration, sets up logging, initialises the clipboard
// and builds the upload client, in that order.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	rt := &Runtime{Config: cfg}
	if cfg.UploadURL != "" {
		if cfg.UploadAPIKey == "" {
			log.Printf("Upload endpoint set but no API key (checked %s and %s)", cfg.UploadAPIKeyPath, config.APIKeyEnvVar)
		}
		rt.Uploader = upload.New(cfg.UploadURL, cfg.UploadAPIKey, cfg.UploadField)
		log.Printf("Upload endpoint: %s (key %s)", cfg.UploadURL, logutil.RedactKey(cfg.UploadAPIKey))
	} else {
		log.Printf("UPLOAD_URL not set, uploads disabled")
	}
	return rt, nil
}
