package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-annotate/src/config"
	"screen-annotate/src/eventloop"
	"screen-annotate/src/gui"
	"screen-annotate/src/logutil"
	"screen-annotate/src/messages"
	"screen-annotate/src/notification"
	"screen-annotate/src/runtimeinit"
	"screen-annotate/src/session"
	"screen-annotate/src/singleinstance"
	"screen-annotate/src/tray"
	"screen-annotate/src/worker"
)

const (
	appTitle        = "Screen Annotate"
	delegateTimeout = 5 * time.Second
)

type mainOptions struct {
	capture    bool
	show       bool
	apiKeyPath string
	tool       string
}

type delegationClient interface {
	Delegate(ctx context.Context, cmd singleinstance.Command) (bool, string, error)
}

func main() {
	enableDPIAwareness()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-annotate",
		Short:         "Capture a screen region, annotate it, copy or upload it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*opts)
		},
	}
	cmd.Flags().BoolVar(&opts.capture, "capture", false, "Start a capture (in the running instance if there is one)")
	cmd.Flags().BoolVar(&opts.show, "show", false, "Show the editor of the running instance")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to upload API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Initial tool: select, text, arrow or rectangle")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to the double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"capture", "show", "api-key-path", "tool"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

func run(opts mainOptions) error {
	// .env may set SINGLEINSTANCE_PORT_* which the delegation scan needs
	_, _ = config.Load()

	var initial messages.Message
	switch {
	case opts.capture:
		initial = messages.CaptureRequested{Source: messages.SourceResident}
		if handleWithDelegation(singleinstance.CommandCapture, singleinstance.NewClient()) {
			return nil
		}
	case opts.show:
		initial = messages.ShowEditor{}
		if handleWithDelegation(singleinstance.CommandShow, singleinstance.NewClient()) {
			return nil
		}
	}
	return runResident(opts, initial)
}

// handleWithDelegation asks a running instance to perform cmd. It reports
// whether the resident took it; otherwise the caller becomes the resident.
func handleWithDelegation(cmd singleinstance.Command, client delegationClient) bool {
	ctx, cancel := context.WithTimeout(context.Background(), delegateTimeout)
	defer cancel()
	delegated, reply, err := client.Delegate(ctx, cmd)
	if err != nil {
		log.Printf("Delegation error: %v; starting standalone", err)
		return false
	}
	if !delegated {
		log.Printf("No resident detected, starting standalone")
		return false
	}
	log.Printf("Delegated %s to resident: %s", cmd, reply)
	return true
}

func runResident(opts mainOptions, initial messages.Message) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		// someone else owns the port range; hand them the window instead
		if handleWithDelegation(singleinstance.CommandShow, singleinstance.NewClient()) {
			fmt.Println("Screen Annotate is already running")
			return nil
		}
		return fmt.Errorf("single instance: %w", err)
	}
	defer srv.Close()

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			APIKeyPathOverride:  opts.apiKeyPath,
			DefaultToolOverride: opts.tool,
		},
		SetupLogging: logutil.Setup,
	})
	if err != nil {
		notification.ShowBlockingError(appTitle, err.Error())
		return err
	}
	cfg := rt.Config
	logMonitorConfiguration()
	log.Printf("%s started, hotkey %s", appTitle, cfg.Hotkey)

	ui := gui.New(gui.Options{Title: appTitle, Tool: cfg.DefaultTool, Color: cfg.DefaultColor})
	loop := eventloop.New(eventloop.Options{
		Session: session.New(session.Options{
			DefaultTool:  cfg.DefaultTool,
			DefaultColor: cfg.DefaultColor,
		}),
		Pool:           worker.New(2),
		Clipboard:      session.ClipboardTarget{},
		Upload:         rt.UploadTarget(),
		Notifier:       ui.Notifier(),
		Server:         srv,
		AutoCopy:       cfg.AutoCopy,
		UploadDeadline: cfg.UploadDeadline(),
		Status:         tray.UpdateTooltip,
	})
	ui.Bind(loop.Post)
	loop.Attach(ui)

	quit := func() { loop.Post(messages.Quit{}) }
	trayIcon := tray.New(tray.Config{
		Title:     appTitle,
		Tooltip:   fmt.Sprintf("%s - Press %s to capture", appTitle, cfg.Hotkey),
		Hotkey:    cfg.Hotkey,
		OnCapture: func() { loop.Post(messages.CaptureRequested{Source: messages.SourceTray}) },
		OnShow:    func() { loop.Post(messages.ShowEditor{}) },
		OnQuit:    quit,
	})
	go trayIcon.Run()
	defer trayIcon.Quit()

	loop.StartHotkey(cfg.Hotkey)

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		quit()
	}()

	if initial != nil {
		loop.Post(initial)
	}

	loopErr := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		// make sure the GUI stops even when the loop ends on its own
		ui.Quit()
		loopErr <- err
	}()

	ui.Run()
	cancel()
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
