package config

import (
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"screen-annotate/src/editor"
	"screen-annotate/src/shape"
)

const (
	DefaultAPIKeyPath    = "/run/secrets/api_keys/upload"
	APIKeyPathEnvVar     = "UPLOAD_API_KEY_FILE"
	APIKeyEnvVar         = "UPLOAD_API_KEY"
	AltEnvFileEnvVar     = "SCREEN_ANNOTATE"
	DefaultHotkey        = "Alt+Shift+3"
	DefaultColorHex      = "#FF0000"
	DefaultUploadField   = "image"
	DefaultUploadTimeout = 30
)

type LoadOptions struct {
	APIKeyPathOverride  string
	DefaultToolOverride string
}

type Config struct {
	Hotkey string

	UploadURL         string
	UploadAPIKey      string
	UploadAPIKeyPath  string
	UploadField       string
	UploadDeadlineSec int

	EnableFileLogging  bool
	DefaultColor       color.NRGBA
	DefaultTool        editor.Tool
	AutoCopy           bool
	CopyURLAfterUpload bool
}

// UploadDeadline is the time budget for one upload including retries.
func (c *Config) UploadDeadline() time.Duration {
	return time.Duration(c.UploadDeadlineSec) * time.Second
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_ANNOTATE env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	deadlineSec := DefaultUploadTimeout
	if v := os.Getenv("UPLOAD_DEADLINE_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			deadlineSec = n
		}
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		Hotkey:             getEnvWithDefault("HOTKEY", DefaultHotkey),
		UploadURL:          strings.TrimSpace(os.Getenv("UPLOAD_URL")),
		UploadAPIKey:       resolveAPIKey(apiKeyPath),
		UploadAPIKeyPath:   apiKeyPath,
		UploadField:        getEnvWithDefault("UPLOAD_FIELD", DefaultUploadField),
		UploadDeadlineSec:  deadlineSec,
		EnableFileLogging:  strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		DefaultColor:       resolveColor(os.Getenv("DEFAULT_COLOR")),
		DefaultTool:        resolveDefaultToolValue(opts),
		AutoCopy:           getBoolWithDefault("AUTO_COPY", true),
		CopyURLAfterUpload: getBoolWithDefault("COPY_URL_AFTER_UPLOAD", true),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltEnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

// resolveAPIKey prefers the key file over the environment.
func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return strings.TrimSpace(os.Getenv(APIKeyEnvVar))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: ignoring invalid %s=%q", key, v)
		return defaultValue
	}
	return b
}

func resolveColor(value string) color.NRGBA {
	def, _ := shape.ParseHexColor(DefaultColorHex)
	if strings.TrimSpace(value) == "" {
		return def
	}
	c, err := shape.ParseHexColor(value)
	if err != nil {
		log.Printf("config: %v, using %s", err, DefaultColorHex)
		return def
	}
	return c
}

func resolveDefaultTool(value string) editor.Tool {
	if strings.TrimSpace(value) == "" {
		return editor.ToolSelect
	}
	t, err := editor.ParseTool(value)
	if err != nil {
		log.Printf("config: %v, using %s", err, editor.ToolSelect)
	}
	return t
}

func resolveDefaultToolValue(opts LoadOptions) editor.Tool {
	if override := strings.TrimSpace(opts.DefaultToolOverride); override != "" {
		return resolveDefaultTool(override)
	}
	return resolveDefaultTool(os.Getenv("DEFAULT_TOOL"))
}
