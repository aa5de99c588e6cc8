package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/revittco/pealink/internal/channel"
)

// ValidationError holds all validation failures for a config file.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Errors, "; "))
}

// Limits enforced on the host page and editor.
const (
	maxDocumentSide = 30000
	maxControlNet   = 10
	minFrameHeight  = 512
	maxFrameHeight  = 2160
	minScriptBytes  = 1 << 10
)

// validate checks the parsed config for correctness.
func validate(cfg *FileConfig) error {
	var errs []string

	e := cfg.Editor
	if e.Width <= 0 || e.Width > maxDocumentSide {
		errs = append(errs, fmt.Sprintf("editor.width: %d out of range 1..%d", e.Width, maxDocumentSide))
	}
	if e.Height <= 0 || e.Height > maxDocumentSide {
		errs = append(errs, fmt.Sprintf("editor.height: %d out of range 1..%d", e.Height, maxDocumentSide))
	}
	if e.ScriptTimeout < 0 {
		errs = append(errs, "editor.script_timeout: must not be negative")
	}
	if err := validateOrigin(e.Origin); err != nil {
		errs = append(errs, fmt.Sprintf("editor.origin: %v", err))
	}
	if e.MaxScriptBytes < minScriptBytes {
		errs = append(errs, fmt.Sprintf("editor.max_script_bytes: %d below minimum %d", e.MaxScriptBytes, minScriptBytes))
	}
	for i, p := range e.AllowedOrigins {
		if err := validateGlob(p); err != nil {
			errs = append(errs, fmt.Sprintf("editor.allowed_origins[%d]: %v", i, err))
		}
	}

	if cfg.Channel.RequestTimeout < 0 {
		errs = append(errs, "channel.request_timeout: must not be negative")
	}
	if _, err := channel.ParseRecovery(cfg.Channel.Recovery); err != nil {
		errs = append(errs, fmt.Sprintf("channel.recovery: %v (must be drain, drop, or abort)", err))
	}
	if err := validateOrigin(cfg.Channel.TargetOrigin); err != nil || cfg.Channel.TargetOrigin == "" {
		errs = append(errs, fmt.Sprintf("channel.target_origin: %q must be \"*\" or scheme://host", cfg.Channel.TargetOrigin))
	}

	h := cfg.Host
	if h.ControlNetUnits < 1 || h.ControlNetUnits > maxControlNet {
		errs = append(errs, fmt.Sprintf("host.controlnet_units: %d out of range 1..%d", h.ControlNetUnits, maxControlNet))
	}
	if h.FrameHeight < minFrameHeight || h.FrameHeight > maxFrameHeight {
		errs = append(errs, fmt.Sprintf("host.frame_height: %d out of range %d..%d", h.FrameHeight, minFrameHeight, maxFrameHeight))
	}
	if h.UITimeout < 0 {
		errs = append(errs, "host.ui_timeout: must not be negative")
	}

	if cfg.Journal.Retention < 0 {
		errs = append(errs, "journal.retention: must not be negative")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateOrigin(origin string) error {
	if origin == "" || origin == "*" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return fmt.Errorf("invalid origin %q (want scheme://host)", origin)
	}
	return nil
}

// validateGlob checks a pattern the way websocket.AcceptOptions matches
// origin patterns.
func validateGlob(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty pattern")
	}
	if _, err := path.Match(pattern, "test"); err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return nil
}
