package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/revittco/pealink/internal/channel"
)

// Compile syntax-checks src and strips insignificant whitespace.
func Compile(src string) (string, error) {
	res := api.Transform(src, api.TransformOptions{
		Loader:           api.LoaderJS,
		MinifyWhitespace: true,
		LogLevel:         api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, m := range res.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return "", fmt.Errorf("compile script: %s", strings.Join(msgs, "; "))
	}
	return strings.TrimSpace(string(res.Code)), nil
}

// compiled wraps a command whose script has already been compiled.
type compiled struct {
	kind string
	src  string
}

func (c compiled) Kind() string   { return c.kind }
func (c compiled) Script() string { return c.src }

// Minify returns cmd with its script compiled. Open commands are returned
// unchanged; their payload is dominated by the data URL.
func Minify(cmd Command) (Command, error) {
	if _, ok := cmd.(Open); ok {
		return cmd, nil
	}
	src, err := Compile(cmd.Script())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Kind(), err)
	}
	return compiled{kind: cmd.Kind(), src: src}, nil
}

// ErrRemote marks an error reported by the editor while running a script.
var ErrRemote = errors.New("remote script error")

const errorPrefix = "error: "

// RemoteError returns a wrapped ErrRemote if resp carries an editor error
// marker.
func RemoteError(resp channel.Response) error {
	for _, p := range resp {
		if p.Kind == channel.KindText && strings.HasPrefix(p.Text, errorPrefix) {
			return fmt.Errorf("%w: %s", ErrRemote, strings.TrimPrefix(p.Text, errorPrefix))
		}
	}
	return nil
}
