package filecache

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression applied to a stored file.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
	CodecLZ4
)

// CompressedSuffixes are tried, in order, after the plain name when looking
// for a grid file.
var CompressedSuffixes = []string{".zst", ".gz", ".lz4"}

// CodecFor picks the codec from the path extension.
func CodecFor(path string) Codec {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CodecGzip
	case strings.HasSuffix(path, ".zst"):
		return CodecZstd
	case strings.HasSuffix(path, ".lz4"):
		return CodecLZ4
	default:
		return CodecNone
	}
}

func (c Codec) String() string {
	switch c {
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "none"
	}
}

var (
	zstdDecoderPool sync.Pool
	zstdEncoderPool sync.Pool
)

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

// Decode returns the plain content of raw bytes stored at path.
func Decode(path string, raw []byte) ([]byte, error) {
	switch CodecFor(path) {
	case CodecGzip:
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return out, nil
	case CodecZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		return out, nil
	case CodecLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("lz4 %s: %w", path, err)
		}
		return out, nil
	default:
		return raw, nil
	}
}

// Encode compresses plain content for storage at path.
func Encode(path string, plain []byte) ([]byte, error) {
	switch CodecFor(path) {
	case CodecGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(plain); err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return buf.Bytes(), nil
	case CodecZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(plain, nil), nil
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(plain); err != nil {
			return nil, fmt.Errorf("lz4 %s: %w", path, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 %s: %w", path, err)
		}
		return buf.Bytes(), nil
	default:
		return plain, nil
	}
}
