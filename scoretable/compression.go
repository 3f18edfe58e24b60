package scoretable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/nblast/blobstore"
	"github.com/hupe1980/nblast/internal/errs"
)

// Compression selects the on-disk encoding of a table file.
type Compression uint8

const (
	// CompressionNone stores plain text.
	CompressionNone Compression = iota
	// CompressionLZ4 stores an lz4 frame.
	CompressionLZ4
	// CompressionZSTD stores a zstd frame.
	CompressionZSTD
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// CompressionFromName infers the compression from a file extension.
func CompressionFromName(name string) Compression {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zst"), strings.HasSuffix(lower, ".zstd"):
		return CompressionZSTD
	case strings.HasSuffix(lower, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Marshal encodes t and applies compression c.
func Marshal(t *Table, c Compression, optFns ...EncodeOption) ([]byte, error) {
	var text bytes.Buffer
	if err := Encode(&text, t, optFns...); err != nil {
		return nil, err
	}

	switch c {
	case CompressionNone:
		return text.Bytes(), nil
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(text.Bytes(), nil), nil
	case CompressionLZ4:
		var out bytes.Buffer
		zw := lz4.NewWriter(&out)
		if _, err := zw.Write(text.Bytes()); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", errs.ErrConfiguration, c)
	}
}

// Unmarshal decompresses data with c and decodes the table.
func Unmarshal(data []byte, c Compression) (*Table, error) {
	switch c {
	case CompressionNone:
		return Decode(bytes.NewReader(data))
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		text, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", errs.ErrInput, err)
		}
		return Decode(bytes.NewReader(text))
	case CompressionLZ4:
		text, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", errs.ErrInput, err)
		}
		return Decode(bytes.NewReader(text))
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", errs.ErrConfiguration, c)
	}
}

// ReadFile loads a table, inferring compression from the extension.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInput, err)
	}
	t, err := Unmarshal(data, CompressionFromName(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile stores a table, inferring compression from the extension.
func WriteFile(path string, t *Table, optFns ...EncodeOption) error {
	data, err := Marshal(t, CompressionFromName(path), optFns...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a table blob, inferring compression from its name.
func Load(ctx context.Context, store blobstore.Store, name string) (*Table, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInput, err)
	}
	t, err := Unmarshal(data, CompressionFromName(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Save writes a table blob, inferring compression from its name.
func Save(ctx context.Context, store blobstore.Store, name string, t *Table, optFns ...EncodeOption) error {
	data, err := Marshal(t, CompressionFromName(name), optFns...)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}
