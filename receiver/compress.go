package receiver

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// gunzip decodes a gzip-compressed MESSAGE body for a compressed
// subscription (§4.5.5).
func gunzip(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("receiver: gzip header: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("receiver: gzip decode: %w", err)
	}
	return out, nil
}
