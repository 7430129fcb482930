package codec

import (
	"bytes"
	stdgzip "compress/gzip"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"BlogIngest/internal/domain"
)

func TestEncodeProducesStandardGzipJSON(t *testing.T) {
	t.Parallel()

	digest := domain.Digest{
		Source:             domain.SourceVelog,
		BaseURL:            "https://velog.io/@dev",
		PostCount:          10,
		RecentCount:        2,
		RecentActivityText: "2024-03-09 | [제목]\n본문",
	}

	payload, err := NewGzipJSON().Encode(digest)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	// Downstream readers use a plain gzip reader.
	zr, err := stdgzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("stdlib gzip reader: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	for _, key := range []string{"source", "baseUrl", "postCount", "recentCount", "recentActivityText"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing key %s in %s", key, raw)
		}
	}

	decoded, err := NewGzipJSON().Decode(payload)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if decoded != digest {
		t.Fatalf("decoded digest differs: %+v", decoded)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := NewGzipJSON().Decode([]byte("not gzip")); err == nil {
		t.Fatalf("expected error for non-gzip payload")
	}

	var buf bytes.Buffer
	zw := stdgzip.NewWriter(&buf)
	_, _ = io.Copy(zw, strings.NewReader("{broken"))
	_ = zw.Close()
	if _, err := NewGzipJSON().Decode(buf.Bytes()); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
