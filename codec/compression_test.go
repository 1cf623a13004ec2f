package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressBlock(t *testing.T) {
	data := bytes.Repeat([]byte{0xAA, 0xAA, 0xCC, 0xCC, 0xF0, 0xF0, 0, 0}, 2000)

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			framed, err := compressBlock(nil, data, c)
			require.NoError(t, err)
			assert.Less(t, len(framed), len(data)/2, "truth-table patterns should compress well")

			got, n, err := decompressBlock(framed, c)
			require.NoError(t, err)
			assert.Equal(t, len(framed), n)
			assert.Equal(t, data, got)
		})
	}
}

func TestCompressBlock_NoCompression(t *testing.T) {
	data := []byte("raw block")

	framed, err := compressBlock(nil, data, CompressionNone)
	require.NoError(t, err)
	assert.Len(t, framed, blockHeaderSize+len(data))

	got, _, err := decompressBlock(framed, CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCompressBlock_IncompressibleData(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 17 % 256)
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		framed, err := compressBlock(nil, data, c)
		require.NoError(t, err)

		got, _, err := decompressBlock(framed, c)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestBlockWriter(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewBlockWriter(&buf, c, 1024)

			data := bytes.Repeat([]byte("0011001101010101"), 300)
			n, err := w.Write(data)
			require.NoError(t, err)
			assert.Equal(t, len(data), n)
			require.NoError(t, w.Flush())

			got, err := DecompressAll(buf.Bytes(), c)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestDecompressErrors(t *testing.T) {
	_, _, err := decompressBlock([]byte{1, 2, 3}, CompressionLZ4)
	require.ErrorIs(t, err, ErrInvalidFormat)

	// Header claims 100 raw bytes, only 2 follow.
	_, _, err = decompressBlock([]byte{100, 0, 0, 0, 0, 0, 0, 0, 1, 2}, CompressionNone)
	require.ErrorIs(t, err, ErrInvalidFormat)

	// Compressed frame inside an uncompressed stream.
	_, _, err = decompressBlock([]byte{4, 0, 0, 0, 1, 0, 0, 0, 9}, CompressionNone)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, got)

	_, err = ParseCompression("brotli")
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, "compression(9)", Compression(9).String())
}
