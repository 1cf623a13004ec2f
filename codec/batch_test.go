package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/truthbits/bitset"
)

func enumeratedBatch(t *testing.T) *Batch {
	t.Helper()
	keep := []bool{false, true, false, false, false, false, false, false, false, false}
	e, err := bitset.NewEnumerator(len(keep), 8, keep)
	require.NoError(t, err)

	status := e.StatusBytes()
	dst := make([]*bitset.Bitset, len(keep))
	require.True(t, e.Next(dst))

	b := &Batch{Inputs: len(keep), UseBits: 8, Status: status}
	for i, col := range dst {
		b.Columns = append(b.Columns, Column{Kept: keep[i], Bits: col})
	}
	return b
}

func TestBatchRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			want := enumeratedBatch(t)
			want.Status = []byte{0x01, 0x00}

			data, err := Marshal(want, c)
			require.NoError(t, err)
			assert.Equal(t, "TBB1", string(data[:4]))

			gotC, err := CompressionOf(data)
			require.NoError(t, err)
			assert.Equal(t, c, gotC)

			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, want.Inputs, got.Inputs)
			assert.Equal(t, want.UseBits, got.UseBits)
			assert.Equal(t, want.Status, got.Status)
			require.Len(t, got.Columns, len(want.Columns))

			for i := range want.Columns {
				assert.Equal(t, want.Columns[i].Kept, got.Columns[i].Kept, "column %d", i)
				if want.Columns[i].Kept {
					assert.Nil(t, got.Columns[i].Bits)
					continue
				}
				assert.True(t, want.Columns[i].Bits.Equal(got.Columns[i].Bits), "column %d", i)
			}

			got.Release()
			assert.Nil(t, got.Columns[0].Bits)
		})
	}
}

func TestBatchCompressesTruthTables(t *testing.T) {
	b := enumeratedBatch(t)

	raw, err := Marshal(b, CompressionNone)
	require.NoError(t, err)
	zst, err := Marshal(b, CompressionZstd)
	require.NoError(t, err)
	assert.Less(t, len(zst), len(raw))
}

func TestDecodeFromReader(t *testing.T) {
	b := enumeratedBatch(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b, CompressionLZ4))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, b.Inputs, got.Inputs)
}

func TestUnmarshalErrors(t *testing.T) {
	b := enumeratedBatch(t)
	data, err := Marshal(b, CompressionNone)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte("TB")},
		{"magic", append([]byte("XXXX"), data[4:]...)},
		{"version", append([]byte("TBB1\x09"), data[5:]...)},
		{"compression", append([]byte("TBB1\x01\x07"), data[6:]...)},
		{"truncated", data[:len(data)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestDecodeBody_ColumnCountBeyondData(t *testing.T) {
	body := binary.LittleEndian.AppendUint32(nil, 1<<30) // inputs
	body = append(body, 0)                               // use bits
	body = binary.LittleEndian.AppendUint32(body, 0)     // status length
	body = binary.LittleEndian.AppendUint32(body, 1<<30) // columns
	body = append(body, 1, 1, 1)

	_, err := decodeBody(body)
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "1073741824 columns in 3 bytes")

	// A column count that fits the data still decodes.
	body = binary.LittleEndian.AppendUint32(nil, 3)
	body = append(body, 0)
	body = binary.LittleEndian.AppendUint32(body, 0)
	body = binary.LittleEndian.AppendUint32(body, 3)
	body = append(body, 1, 1, 1)

	b, err := decodeBody(body)
	require.NoError(t, err)
	require.Len(t, b.Columns, 3)
	assert.True(t, b.Columns[2].Kept)
}

func TestCodecByName(t *testing.T) {
	type doc struct {
		Inputs int    `json:"inputs"`
		Status string `json:"status"`
	}

	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())

		data, err := c.Marshal(doc{Inputs: 3, Status: "ff"})
		require.NoError(t, err)

		var got doc
		require.NoError(t, c.Unmarshal(data, &got))
		assert.Equal(t, doc{Inputs: 3, Status: "ff"}, got)
	}

	_, ok := ByName("xml")
	assert.False(t, ok)
	assert.Panics(t, func() { MustByName("xml") })
}

func TestEncode_RejectsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name  string
		batch *Batch
	}{
		{"negative inputs", &Batch{Inputs: -1}},
		{"use bits past a byte", &Batch{Inputs: 1, UseBits: 300, Columns: []Column{{Kept: true}}}},
		{"column count", &Batch{Inputs: 2, UseBits: 1, Columns: []Column{{Kept: true}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.batch, CompressionNone)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}
