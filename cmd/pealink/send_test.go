package main

import (
	"context"
	"testing"

	"github.com/revittco/pealink/internal/script"
)

func TestBuildSendCommand(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		pos     []string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "named", pos: []string{"size"}, want: script.DocumentSize{}.Script()},
		{name: "alert", pos: []string{"alert", "hello", "there"}, want: `alert("hello there");`},
		{name: "echo", pos: []string{"echo", "hi"}, want: `app.echoToOE("hi");`},
		{name: "raw flag", pos: []string{"raw"}, args: []string{"--script=app.echoToOE(1);"}, want: "app.echoToOE(1);"},
		{name: "raw missing", pos: []string{"raw"}, wantErr: true},
		{name: "open missing", pos: []string{"open"}, wantErr: true},
		{name: "unknown", pos: []string{"explode"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := buildSendCommand(ctx, tt.pos, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", cmd.Script())
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := cmd.Script(); got != tt.want {
				t.Errorf("script = %q, want %q", got, tt.want)
			}
		})
	}
}
