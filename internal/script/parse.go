package script

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/revittco/pealink/internal/channel"
)

// ParseSize reads the "width,height" reply of DocumentSize.
func ParseSize(resp channel.Response) (width, height int, err error) {
	if err := RemoteError(resp); err != nil {
		return 0, 0, err
	}
	text := resp.Text()
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("parse document size %q: want width,height", text)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse document width: %w", err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse document height: %w", err)
	}
	return int(math.Round(w)), int(math.Round(h)), nil
}

// ParseBool reads a boolean reply such as the one SelectionExists sends.
// Anything other than "true" is false.
func ParseBool(resp channel.Response) bool {
	return strings.EqualFold(resp.Text(), "true")
}

// ParseImage returns the encoded image of an export reply.
func ParseImage(resp channel.Response) ([]byte, error) {
	if err := RemoteError(resp); err != nil {
		return nil, err
	}
	data, ok := resp.Bytes()
	if !ok {
		return nil, fmt.Errorf("export reply carried no image data (%d payloads)", len(resp))
	}
	return data, nil
}
