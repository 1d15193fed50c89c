package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compression libraries accepted by Options.CompLib.
const (
	CompNone = ""
	CompZlib = "zlib"
	CompGzip = "gzip"
	CompZstd = "zstd"
	CompS2   = "s2"
)

// compress encodes a raw buffer with the named library at the given level.
// An empty library name stores the buffer as-is.
func compress(complib string, level int, raw []byte) ([]byte, error) {
	switch complib {
	case CompNone:
		return raw, nil
	case CompZlib:
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, clampLevel(level, zlib.BestCompression))
		if err != nil {
			return nil, fmt.Errorf("zlib writer: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("zlib close: %w", err)
		}
		return buf.Bytes(), nil
	case CompGzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, clampLevel(level, gzip.BestCompression))
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case CompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	case CompS2:
		return s2.Encode(nil, raw), nil
	}
	return nil, fmt.Errorf("unknown compression library: %q", complib)
}

// decompress reverses compress for the named library.
func decompress(complib string, data []byte) ([]byte, error) {
	switch complib {
	case CompNone:
		return data, nil
	case CompZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib reader: %w", err)
		}
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		return raw, nil
	case CompGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		return raw, nil
	case CompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return raw, nil
	case CompS2:
		raw, err := s2.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("s2 decompress: %w", err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("unknown compression library: %q", complib)
}

func clampLevel(level, max int) int {
	if level <= 0 {
		return 1
	}
	if level > max {
		return max
	}
	return level
}

// checksum64 is the record checksum written when Options.Checksum is set.
// Stored as int64 because the store's integer columns are signed.
func checksum64(raw []byte) int64 {
	return int64(xxhash.Sum64(raw))
}
