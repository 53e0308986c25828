package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"screen-annotate/src/clipboard"
	"screen-annotate/src/config"
	"screen-annotate/src/logutil"
	"screen-annotate/src/render"
	"screen-annotate/src/scene"
	"screen-annotate/src/screenshot"
	"screen-annotate/src/session"
	"screen-annotate/src/shape"
	"screen-annotate/src/upload"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	verbose    bool
	jsonOutput bool
	apiKeyPath string

	filePath string
	outPath  string
	region   string
	shapes   []string
	color    string
	copy     bool
	upload   bool
}

// Result is the --json output of every command.
type Result struct {
	Source    string   `json:"source"`
	Outputs   []string `json:"outputs"`
	Bytes     int      `json:"bytes"`
	Timestamp string   `json:"timestamp"`
	Duration  float64  `json:"duration_seconds"`
}

func main() {
	if err := execute(normalizeLegacyArgs(os.Args), os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		args = []string{"annotate-cli"}
	}
	cmd := newRootCmd(&cliOptions{})
	cmd.SetArgs(args[1:])
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "annotate-cli",
		Short:         "Capture, annotate and upload screenshots without the GUI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print a JSON summary instead of text")
	root.PersistentFlags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to upload API key file (highest precedence)")

	root.AddCommand(newUploadCmd(opts), newCaptureCmd(opts), newRenderCmd(opts))
	return root
}

func newUploadCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a PNG to the configured endpoint and print its URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			data, err := readPNG(cmd.InOrStdin(), opts.filePath)
			if err != nil {
				return err
			}
			target, err := uploadTarget(opts)
			if err != nil {
				return err
			}
			url, err := target.Deliver(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			return report(cmd.OutOrStdout(), opts, Result{Source: opts.filePath, Outputs: []string{url}, Bytes: len(data)}, start)
		},
	}
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCaptureCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a screen region and write, copy or upload it",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			region, err := parseRegion(opts.region)
			if err != nil {
				return err
			}
			img, err := screenshot.CaptureRegion(region)
			if err != nil {
				return fmt.Errorf("capture failed: %w", err)
			}
			data, err := render.EncodePNG(img)
			if err != nil {
				return err
			}
			outputs, err := deliverAll(cmd, opts, data)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), opts, Result{Source: region.String(), Outputs: outputs, Bytes: len(data)}, start)
		},
	}
	cmd.Flags().StringVar(&opts.region, "region", "", "Region as x,y,width,height in virtual-screen pixels")
	addOutputFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("region")
	return cmd
}

func newRenderCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw annotations onto a PNG",
		Long: `Draw annotations onto a PNG. Shapes are drawn in the order given:
  --shape rect:x,y,width,height
  --shape arrow:x1,y1,x2,y2
  --shape text:x,y,content`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			c, err := shape.ParseHexColor(opts.color)
			if err != nil {
				return err
			}
			sc := scene.New()
			for _, spec := range opts.shapes {
				s, err := parseShape(spec, c)
				if err != nil {
					return err
				}
				sc.Append(s)
			}
			data, err := readPNG(cmd.InOrStdin(), opts.filePath)
			if err != nil {
				return err
			}
			base, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("decode %s: %w", opts.filePath, err)
			}
			out, err := render.EncodePNG(render.Render(rebase(base), sc))
			if err != nil {
				return err
			}
			outputs, err := deliverAll(cmd, opts, out)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), opts, Result{Source: opts.filePath, Outputs: outputs, Bytes: len(out)}, start)
		},
	}
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().StringArrayVar(&opts.shapes, "shape", nil, "Shape to draw (repeatable)")
	cmd.Flags().StringVar(&opts.color, "color", config.DefaultColorHex, "Colour for all shapes")
	addOutputFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func addOutputFlags(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Write the PNG to this path ('-' for stdout)")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the PNG to the clipboard")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "Upload the PNG and print its URL")
}

// deliverAll sends data to every requested output, in the order out, copy, upload.
func deliverAll(cmd *cobra.Command, opts *cliOptions, data []byte) ([]string, error) {
	var targets []session.ResultTarget
	if opts.outPath == "-" {
		if opts.jsonOutput {
			return nil, errors.New("--out - cannot be combined with --json")
		}
		targets = append(targets, session.StdoutTarget{Writer: cmd.OutOrStdout()})
	} else if opts.outPath != "" {
		targets = append(targets, session.FileTarget{Path: opts.outPath})
	}
	if opts.copy {
		if err := clipboard.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		targets = append(targets, session.ClipboardTarget{})
	}
	if opts.upload {
		t, err := uploadTarget(opts)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, errors.New("nothing to do: pass --out, --copy or --upload")
	}

	var outputs []string
	for _, t := range targets {
		res, err := t.Deliver(cmd.Context(), data)
		if err != nil {
			return outputs, err
		}
		log.Printf("delivered: %s", res)
		if _, isStdout := t.(session.StdoutTarget); !isStdout {
			outputs = append(outputs, res)
		}
	}
	return outputs, nil
}

func uploadTarget(opts *cliOptions) (session.ResultTarget, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	client := upload.New(cfg.UploadURL, cfg.UploadAPIKey, cfg.UploadField)
	if !client.Configured() {
		return nil, upload.ErrNotConfigured
	}
	log.Printf("upload endpoint %s, key %s (from %s)", cfg.UploadURL, logutil.RedactKey(cfg.UploadAPIKey), cfg.UploadAPIKeyPath)
	return session.UploadTarget{Client: client}, nil
}

func report(w io.Writer, opts *cliOptions, res Result, start time.Time) error {
	if opts.jsonOutput {
		res.Timestamp = time.Now().UTC().Format(time.RFC3339)
		res.Duration = time.Since(start).Seconds()
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	for _, o := range res.Outputs {
		fmt.Fprintln(w, o)
	}
	return nil
}

func readPNG(stdin io.Reader, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if err := validatePNG(data); err != nil {
		return nil, err
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) == 0 {
		return errors.New("input file is empty")
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return errors.New("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

func parseRegion(s string) (screenshot.Region, error) {
	n, err := parseInts(s, 4)
	if err != nil {
		return screenshot.Region{}, fmt.Errorf("region %q: %w", s, err)
	}
	r := screenshot.Region{X: n[0], Y: n[1], Width: n[2], Height: n[3]}
	if !screenshot.Accept(r) {
		return screenshot.Region{}, fmt.Errorf("region %s is too small (minimum %dpx per side)", r, screenshot.MinRegionSize+1)
	}
	return r, nil
}

func parseShape(spec string, c color.NRGBA) (shape.Shape, error) {
	kind, args, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("shape %q: expected kind:args", spec)
	}
	switch strings.ToLower(kind) {
	case "rect", "rectangle":
		f, err := parseFloats(args, 4)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", spec, err)
		}
		return shape.Rectangle{Origin: shape.Pt(f[0], f[1]), Width: f[2], Height: f[3], Color: c}, nil
	case "arrow":
		f, err := parseFloats(args, 4)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", spec, err)
		}
		return shape.Arrow{Start: shape.Pt(f[0], f[1]), End: shape.Pt(f[2], f[3]), Color: c}, nil
	case "text":
		parts := strings.SplitN(args, ",", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("shape %q: expected text:x,y,content", spec)
		}
		f, err := parseFloats(parts[0]+","+parts[1], 2)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", spec, err)
		}
		t, err := shape.NewText(shape.Pt(f[0], f[1]), parts[2], c)
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", spec, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("shape %q: unknown kind %q", spec, kind)
	}
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers", n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		if !render.InRange(v) {
			return nil, fmt.Errorf("coordinate %q out of range", strings.TrimSpace(p))
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers", n)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// rebase returns img as an RGBA with its origin at 0,0.
func rebase(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "api-key-path", "region", "out", "copy", "upload", "shape", "color"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}
