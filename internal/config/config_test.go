package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
editor:
  width: 640
channel:
  request_timeout: 5s
  recovery: abort
host:
  controlnet: true
  controlnet_units: 3
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Editor.Width != 640 || cfg.Editor.Height != 1024 {
		t.Fatalf("editor = %+v", cfg.Editor)
	}
	if cfg.Channel.RequestTimeout != 5*time.Second || cfg.Channel.Recovery != "abort" {
		t.Fatalf("channel = %+v", cfg.Channel)
	}
	if !cfg.Host.ControlNet || cfg.Host.ControlNetUnits != 3 || cfg.Host.FrameHeight != 768 {
		t.Fatalf("host = %+v", cfg.Host)
	}
	if cfg.Channel.TargetOrigin != "*" || cfg.Editor.MaxScriptBytes != 64<<20 {
		t.Fatalf("target origin %q, script limit %d", cfg.Channel.TargetOrigin, cfg.Editor.MaxScriptBytes)
	}
	if cfg.Journal.Retention != 7*24*time.Hour {
		t.Fatalf("retention = %v", cfg.Journal.Retention)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"width", "editor: {width: 0}", "editor.width"},
		{"origin", "editor: {origin: photopea}", "editor.origin"},
		{"glob", "editor: {allowed_origins: ['[']}", "editor.allowed_origins[0]"},
		{"recovery", "channel: {recovery: retry}", "channel.recovery"},
		{"timeout", "channel: {request_timeout: -1s}", "channel.request_timeout"},
		{"target origin", "channel: {target_origin: 'www.photopea.com'}", "channel.target_origin"},
		{"empty target origin", "channel: {target_origin: ''}", "channel.target_origin"},
		{"script limit", "editor: {max_script_bytes: 10}", "editor.max_script_bytes"},
		{"units", "host: {controlnet_units: 11}", "host.controlnet_units"},
		{"frame", "host: {frame_height: 100}", "host.frame_height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestParseCollectsAllErrors(t *testing.T) {
	_, err := Parse([]byte("editor: {width: -1, height: -1}\nhost: {frame_height: 9000}"))
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) != 3 {
		t.Fatalf("err = %v", err)
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	if _, err := Parse([]byte("editor: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, found, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	if err != nil || found {
		t.Fatalf("missing file: found=%v err=%v", found, err)
	}
	if cfg.Editor.Width != Defaults().Editor.Width {
		t.Fatal("missing file did not yield defaults")
	}

	path := filepath.Join(dir, "pealink.yaml")
	if err := os.WriteFile(path, []byte("scripts: {minify: true}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, found, err = LoadOrDefault(path)
	if err != nil || !found || !cfg.Scripts.Minify {
		t.Fatalf("cfg = %+v found=%v err=%v", cfg.Scripts, found, err)
	}

	if err := os.WriteFile(path, []byte("channel: {recovery: nope}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected validation error")
	}
}
