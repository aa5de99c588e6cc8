package main

import "testing"

func TestHTTPURLFromAddr(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "http://localhost"},
		{name: "port only", in: ":8080", want: "http://localhost:8080"},
		{name: "ipv4", in: "127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{name: "localhost", in: "localhost:3333", want: "http://localhost:3333"},
		{name: "ipv6", in: "[::1]:8080", want: "http://[::1]:8080"},
		{name: "already url", in: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := httpURLFromAddr(tt.in); got != tt.want {
				t.Fatalf("httpURLFromAddr(%q)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEditorURLFromAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: ":8080", want: "ws://localhost:8080/editor"},
		{in: "127.0.0.1:9000", want: "ws://127.0.0.1:9000/editor"},
		{in: "https://pealink.example", want: "wss://pealink.example/editor"},
	}
	for _, tt := range tests {
		if got := editorURLFromAddr(tt.in); got != tt.want {
			t.Errorf("editorURLFromAddr(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlags(t *testing.T) {
	args := []string{"save", "--out=img.png", "--minify", "extra"}
	if v, ok := flagValue(args, "out"); !ok || v != "img.png" {
		t.Fatalf("out = %q, %v", v, ok)
	}
	if _, ok := flagValue(args, "timeout"); ok {
		t.Fatal("unexpected timeout flag")
	}
	if !hasFlag(args, "minify") || hasFlag(args, "raw") {
		t.Fatal("hasFlag mismatch")
	}
	if pos := positional(args); len(pos) != 2 || pos[0] != "save" || pos[1] != "extra" {
		t.Fatalf("positional = %v", pos)
	}
}
