package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"BlogIngest/internal/domain"
	"BlogIngest/internal/ports"
)

// GzipJSON stores digests as gzip-compressed JSON.
type GzipJSON struct {
	level int
}

var _ ports.DigestCodec = (*GzipJSON)(nil)

// NewGzipJSON builds a codec with the default compression level.
func NewGzipJSON() *GzipJSON {
	return &GzipJSON{level: gzip.DefaultCompression}
}

// Encode marshals and compresses a digest.
func (c *GzipJSON) Encode(digest domain.Digest) ([]byte, error) {
	raw, err := json.Marshal(digest)
	if err != nil {
		return nil, fmt.Errorf("marshal digest: %w", err)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses and unmarshals a stored digest.
func (c *GzipJSON) Decode(payload []byte) (domain.Digest, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return domain.Digest{}, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("gzip read: %w", err)
	}

	var digest domain.Digest
	if err := json.Unmarshal(raw, &digest); err != nil {
		return domain.Digest{}, fmt.Errorf("unmarshal digest: %w", err)
	}
	return digest, nil
}
