package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the top-level pealink.yaml structure.
type FileConfig struct {
	Editor  EditorConfig  `yaml:"editor"`
	Channel ChannelConfig `yaml:"channel"`
	Host    HostConfig    `yaml:"host"`
	Scripts ScriptsConfig `yaml:"scripts"`
	Journal JournalConfig `yaml:"journal"`
}

// EditorConfig configures the simulated editor served over websocket.
type EditorConfig struct {
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	ScriptTimeout  time.Duration `yaml:"script_timeout"`
	Origin         string        `yaml:"origin"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty"` // websocket origin patterns
	MaxScriptBytes int64         `yaml:"max_script_bytes"`          // largest script frame a websocket client may send
}

// ChannelConfig configures request timeouts and queue recovery.
type ChannelConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"` // 0 waits forever
	Recovery       string        `yaml:"recovery"`        // drain, drop or abort
	TargetOrigin   string        `yaml:"target_origin"`   // postMessage target origin; "*" for any
}

// HostConfig describes the host page.
type HostConfig struct {
	ControlNet      bool          `yaml:"controlnet"`
	ControlNetUnits int           `yaml:"controlnet_units"`
	ActiveLayerOnly bool          `yaml:"active_layer_only"`
	FrameHeight     int           `yaml:"frame_height"`
	UITimeout       time.Duration `yaml:"ui_timeout"`
}

// ScriptsConfig controls how command scripts are prepared.
type ScriptsConfig struct {
	Minify bool `yaml:"minify"`
}

// JournalConfig controls request journal retention.
type JournalConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 keeps everything
}

// Defaults returns the configuration used when no file is present.
func Defaults() *FileConfig {
	return &FileConfig{
		Editor: EditorConfig{
			Width:          1024,
			Height:         1024,
			ScriptTimeout:  10 * time.Second,
			Origin:         "https://www.photopea.com",
			MaxScriptBytes: 64 << 20,
		},
		Channel: ChannelConfig{
			RequestTimeout: 60 * time.Second,
			Recovery:       "drain",
			TargetOrigin:   "*",
		},
		Host: HostConfig{
			ControlNetUnits: 1,
			FrameHeight:     768,
			UITimeout:       2 * time.Second,
		},
		Journal: JournalConfig{
			Retention: 7 * 24 * time.Hour,
		},
	}
}

// LoadFile reads, parses, and validates a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads path, falling back to Defaults when the file does
// not exist. The bool reports whether the file was read.
func LoadOrDefault(path string) (*FileConfig, bool, error) {
	if path == "" {
		return Defaults(), false, nil
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Parse parses and validates YAML config data. Keys absent from data keep
// their default values.
func Parse(data []byte) (*FileConfig, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
