//go:build js && wasm

// Command pealink-wasm runs the request channel inside the host page. It
// exposes pealinkSend(script, callback) to page scripts.
package main

import (
	"context"
	"log/slog"
	"os"
	"syscall/js"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/window"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	win := window.NewBrowserWindow()
	defer win.Close()
	frame, err := win.Frame("#" + host.EditorFrameID)
	if err != nil {
		logger.Error("find editor frame", "error", err)
		return
	}

	ch := channel.New(frame, win,
		channel.WithTimeout(60*time.Second),
		channel.WithLogger(logger),
	)
	defer ch.Close()
	ch.Listen()

	send := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 2 {
			return nil
		}
		src, cb := args[0].String(), args[1]
		// Callbacks must not block the event loop the replies arrive on.
		go func() {
			resp, err := ch.Send(context.Background(), src)
			if err != nil {
				cb.Invoke(err.Error(), js.Null())
				return
			}
			out := make([]any, 0, len(resp))
			for _, p := range resp {
				if p.Kind == channel.KindBinary {
					buf := js.Global().Get("Uint8Array").New(len(p.Data))
					js.CopyBytesToJS(buf, p.Data)
					out = append(out, buf.Get("buffer"))
					continue
				}
				out = append(out, p.Text)
			}
			cb.Invoke(js.Null(), js.ValueOf(out))
		}()
		return nil
	})
	defer send.Release()
	js.Global().Set("pealinkSend", send)

	select {}
}
