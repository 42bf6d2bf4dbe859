package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTripDetectsCodec(t *testing.T) {
	data := []byte(strings.Repeat("==> Pouring wget--1.24.5.x86_64_linux.bottle.tar.gz\n", 50))

	for _, codec := range []Codec{CodecZstd, CodecXZ, CodecNone} {
		t.Run(string(codec), func(t *testing.T) {
			packed, err := Compress(codec, data)
			require.NoError(t, err)
			if codec != CodecNone {
				assert.Less(t, len(packed), len(data))
			}

			out, err := Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressEmpty(t *testing.T) {
	packed, err := Compress(CodecZstd, nil)
	require.NoError(t, err)
	assert.Empty(t, packed)

	out, err := Decompress(packed)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseCodec(t *testing.T) {
	c, err := ParseCodec("")
	require.NoError(t, err)
	assert.Equal(t, CodecZstd, c)

	c, err = ParseCodec(" XZ ")
	require.NoError(t, err)
	assert.Equal(t, CodecXZ, c)

	_, err = ParseCodec("gzip")
	assert.Error(t, err)
}
