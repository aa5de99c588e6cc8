package sqlite

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/revittco/pealink/internal/store"
)

// Sealer encrypts blobs at rest. *secrets.AgeEncryptor satisfies it.
type Sealer interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Blob encodings recorded alongside each export.
const (
	encodingBrotli       = "br"
	encodingBrotliSealed = "br+age"
)

type blobCodec struct {
	sealer Sealer
}

// encode compresses data, then seals it when a sealer is configured.
func (c *blobCodec) encode(data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		return nil, "", fmt.Errorf("compress blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("compress blob: %w", err)
	}
	if c.sealer == nil {
		return buf.Bytes(), encodingBrotli, nil
	}
	sealed, err := c.sealer.Encrypt(buf.Bytes())
	if err != nil {
		return nil, "", fmt.Errorf("seal blob: %w", err)
	}
	return sealed, encodingBrotliSealed, nil
}

func (c *blobCodec) decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case encodingBrotli:
	case encodingBrotliSealed:
		if c.sealer == nil {
			return nil, store.ErrSealed
		}
		opened, err := c.sealer.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("open blob: %w", err)
		}
		data = opened
	default:
		return nil, fmt.Errorf("unknown blob encoding %q", encoding)
	}
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decompress blob: %w", err)
	}
	return out, nil
}
