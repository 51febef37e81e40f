package output

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/dmc-converter/dmctest"
)

func TestFITSCube(t *testing.T) {
	l, shape := smallShape(2)
	path := filepath.Join(t.TempDir(), "out.fits")
	w, err := NewFITSWriter(path, shape)
	require.NoError(t, err)

	require.NoError(t, w.WriteParams(Params{KineticSec: 0.5}))
	require.NoError(t, w.WriteFrame(0, dmctest.Frame(l, 0)))
	require.NoError(t, w.WriteFrame(1, dmctest.Frame(l, 1)))
	require.NoError(t, w.WriteRawIndex(0, []int64{710730, 710731}))
	require.NoError(t, w.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()
	f, err := fitsio.Open(r)
	require.NoError(t, err)
	defer f.Close()

	hdu := f.HDU(0)
	assert.Equal(t, []int{16, 8, 2}, hdu.Header().Axes())
	assert.Equal(t, 0.5, hdu.Header().Get("KINETIC").Value)

	raw := hdu.(fitsio.Image).Raw()
	require.Len(t, raw, 2*8*16*2)
	pixel := func(i int) uint16 {
		return uint16(int16(binary.BigEndian.Uint16(raw[2*i:]))) + 32768
	}
	assert.Equal(t, dmctest.Pixel(0, 0, 0), pixel(0))
	assert.Equal(t, dmctest.Pixel(0, 3, 5), pixel(3*16+5))
	assert.Equal(t, dmctest.Pixel(1, 7, 15), pixel(128+7*16+15))
}

func TestFITSDirectory(t *testing.T) {
	_, shape := smallShape(1)
	_, err := NewFITSWriter(t.TempDir(), shape)
	assert.Error(t, err)
}

func TestFITSWriteErrorReported(t *testing.T) {
	l, shape := smallShape(1)
	path := filepath.Join(t.TempDir(), "out.fits")
	require.NoError(t, ioutil.WriteFile(path, nil, 0644))

	// Read only, so writing the cube fails.
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	stack := NewStack(shape)
	require.NoError(t, stack.WriteFrame(0, dmctest.Frame(l, 0)))
	assert.Error(t, writeFits(f, nil, stack.Pixels(), shape))
}
