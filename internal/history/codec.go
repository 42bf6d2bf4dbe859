package history

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type Codec string

const (
	CodecZstd Codec = "zstd"
	CodecXZ   Codec = "xz"
	CodecNone Codec = "none"
)

func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CodecZstd, nil
	case CodecZstd, CodecXZ, CodecNone:
		return c, nil
	default:
		return "", fmt.Errorf("unknown history codec %q (want zstd, xz or none)", s)
	}
}

// Compress encodes data with codec. Empty input stays empty.
func Compress(codec Codec, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch codec {
	case CodecZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil

	case CodecXZ:
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return buf.Bytes(), nil

	case CodecNone:
		return data, nil

	default:
		return nil, fmt.Errorf("unknown history codec %q", codec)
	}
}

// Decompress detects the codec from the magic bytes, so rows written with
// an earlier codec setting still decode. Anything unrecognised is returned
// as is.
func Decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd}):
		// zstd: 0x28B52FFD
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil

	case bytes.HasPrefix(data, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}):
		// xz: 0xFD377A585A00
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		out, err := io.ReadAll(xzr)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return out, nil

	default:
		return data, nil
	}
}
