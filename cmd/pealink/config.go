package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPAddr   string     // "127.0.0.1:8080"
	DBPath     string     // sqlite file path
	AgeKeyPath string     // path to age identity file; exports are sealed with it
	ConfigFile string     // path to pealink.yaml
	EditorURL  string     // websocket URL used by send
	LogLevel   slog.Level // slog level
}

// defaultDataPath returns ~/.pealink/<filename>, falling back to
// a CWD-relative path if the home directory can't be resolved.
func defaultDataPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filename
	}
	return filepath.Join(home, ".pealink", filename)
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:   envOr("PEALINK_HTTP_ADDR", "127.0.0.1:8080"),
		DBPath:     envOr("PEALINK_DB_PATH", defaultDataPath("pealink.db")),
		AgeKeyPath: envOr("PEALINK_AGE_KEY", ""),
		ConfigFile: envOr("PEALINK_CONFIG", defaultDataPath("pealink.yaml")),
		EditorURL:  envOr("PEALINK_EDITOR_URL", ""),
		LogLevel:   parseLogLevel(envOr("PEALINK_LOG_LEVEL", "info")),
	}
	if cfg.EditorURL == "" {
		cfg.EditorURL = editorURLFromAddr(cfg.HTTPAddr)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// flagValue returns the value of a --name=value argument.
func flagValue(args []string, name string) (string, bool) {
	prefix := "--" + name + "="
	for _, arg := range args {
		if v, ok := strings.CutPrefix(arg, prefix); ok {
			return v, true
		}
	}
	return "", false
}

// hasFlag reports whether --name is present.
func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == "--"+name {
			return true
		}
	}
	return false
}

// positional returns the arguments that are not flags.
func positional(args []string) []string {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			out = append(out, arg)
		}
	}
	return out
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
