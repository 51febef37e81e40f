package dmc_test

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
)

func TestDecodeRawIndexByteOrder(t *testing.T) {
	// w0 = 0x000a, w1 = 0xd84a: the counter is w0 in the high half.
	footer := []byte{0x0a, 0x00, 0x4a, 0xd8}
	assert.Equal(t, uint32(0x000ad84a), dmc.DecodeRawIndex(footer))
	assert.Equal(t, uint32(710730), dmc.DecodeRawIndex(footer))
}

func TestEncodeRawIndexLayout(t *testing.T) {
	assert.Equal(t, []byte{0x0a, 0x00, 0x4a, 0xd8}, dmc.EncodeRawIndex(710730))
	assert.Equal(t, []byte{0, 0, 1, 0}, dmc.EncodeRawIndex(1))
	assert.Equal(t, []byte{1, 0, 0, 0}, dmc.EncodeRawIndex(1<<16))
}

func TestRawIndexRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0xffff, 0x10000, 710730, math.MaxUint32 - 1, math.MaxUint32}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		values = append(values, r.Uint32())
	}
	for _, v := range values {
		require.Equal(t, v, dmc.DecodeRawIndex(dmc.EncodeRawIndex(v)))
	}
}

func TestReadRawIndexNoFooter(t *testing.T) {
	r := bytes.NewReader([]byte{1, 2, 3, 4})
	ri, err := dmc.ReadRawIndex(r, 0)
	require.NoError(t, err)
	assert.False(t, ri.Valid)
	// Nothing consumed.
	assert.Equal(t, 4, r.Len())
}

func TestReadRawIndex(t *testing.T) {
	ri, err := dmc.ReadRawIndex(bytes.NewReader(dmc.EncodeRawIndex(42)), 2)
	require.NoError(t, err)
	assert.True(t, ri.Valid)
	assert.Equal(t, uint32(42), ri.Value)
}

func TestReadRawIndexShort(t *testing.T) {
	_, err := dmc.ReadRawIndex(bytes.NewReader([]byte{1, 2}), 2)
	assert.True(t, errors.Is(err, dmc.ErrReadPastEOF))
}

func TestReadRawIndexUnsupportedWords(t *testing.T) {
	_, err := dmc.ReadRawIndex(bytes.NewReader(make([]byte, 8)), 4)
	assert.Error(t, err)
}
