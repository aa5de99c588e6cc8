package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
	"github.com/revittco/pealink/internal/wsbridge"
)

const sendUsage = `usage: pealink send <command> [message] [flags]

commands: %s, alert, echo, raw, open

flags:
  --url=URL        editor websocket (default $PEALINK_EDITOR_URL)
  --timeout=DUR    give up after DUR (default 60s)
  --script=SRC     script source for raw
  --file=PATH      image to open
  --smart          open as a smart object
  --minify         compile the script before sending
  --out=PATH       write binary replies to PATH`

// cmdSend runs one command against a served editor and prints the reply.
func cmdSend(args []string) error {
	pos := positional(args)
	if len(pos) == 0 {
		return fmt.Errorf(sendUsage, strings.Join(script.Names(), ", "))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, ok := flagValue(args, "url"); ok {
		cfg.EditorURL = v
	}
	timeout := 60 * time.Second
	if v, ok := flagValue(args, "timeout"); ok {
		timeout, err = time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
	}
	logger := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cmd, err := buildSendCommand(ctx, pos, args)
	if err != nil {
		return err
	}
	if hasFlag(args, "minify") {
		if cmd, err = script.Minify(cmd); err != nil {
			return err
		}
	}

	conn, err := wsbridge.Dial(ctx, cfg.EditorURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch := channel.New(conn, conn,
		channel.WithTimeout(timeout),
		channel.WithLogger(logger),
	)
	defer ch.Close()
	ch.Listen()

	resp, err := ch.SendCommand(ctx, cmd)
	if err != nil {
		return err
	}
	if err := script.RemoteError(resp); err != nil {
		return err
	}
	return printResponse(resp, args)
}

func buildSendCommand(ctx context.Context, pos, args []string) (script.Command, error) {
	message := strings.Join(pos[1:], " ")
	switch pos[0] {
	case "alert":
		return script.Alert{Message: message}, nil
	case "echo":
		return script.Echo{Message: message}, nil
	case "raw":
		src, ok := flagValue(args, "script")
		if !ok {
			src = message
		}
		if src == "" {
			return nil, errors.New("raw: --script is required")
		}
		return script.Raw{Source: src}, nil
	case "open":
		path, ok := flagValue(args, "file")
		if !ok {
			return nil, errors.New("open: --file is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		url, err := imageio.FileToDataURL(ctx, imageio.NewFile(path, data))
		if err != nil {
			return nil, err
		}
		return script.Open{DataURL: url, AsSmart: hasFlag(args, "smart")}, nil
	default:
		return script.Named(pos[0])
	}
}

func printResponse(resp channel.Response, args []string) error {
	out, hasOut := flagValue(args, "out")
	for _, p := range resp {
		if p.Kind == channel.KindText {
			fmt.Println(p.Text)
			continue
		}
		if !hasOut {
			fmt.Printf("<binary %d bytes, %s>\n", len(p.Data), imageio.Sniff(p.Data))
			continue
		}
		if err := os.WriteFile(out, p.Data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(p.Data), out)
		hasOut = false
	}
	return nil
}
