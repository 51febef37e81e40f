package convert

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/dmc-converter/dmctest"
)

func writeBatchDir(t *testing.T) string {
	dir := t.TempDir()
	l := dmctest.MustLayout(dmctest.SmallGeometry())
	for _, name := range []string{"b.DMCdata", "a.DMCdata", "c.dat"} {
		require.NoError(t, dmctest.WriteSequential(filepath.Join(dir, name), l, 2, 1))
	}
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	return dir
}

func TestInputsOrder(t *testing.T) {
	dir := writeBatchDir(t)
	files, err := Inputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.DMCdata"),
		filepath.Join(dir, "b.DMCdata"),
		filepath.Join(dir, "c.dat"),
	}, files)
}

func TestInputsEmptyDir(t *testing.T) {
	_, err := Inputs(t.TempDir())
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	in := writeBatchDir(t)
	out := t.TempDir()

	var done []string
	opts := Options{Done: func(in string, res *Result, err error) {
		assert.NoError(t, err)
		done = append(done, filepath.Base(in))
	}}
	res, err := Batch(in, out, smallParams(), opts)
	require.NoError(t, err)
	assert.Len(t, res.Converted, 3)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []string{"a.DMCdata", "b.DMCdata", "c.dat"}, done)
	for _, name := range []string{"a.h5", "b.h5", "c.h5"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestBatchSkipsExisting(t *testing.T) {
	in := writeBatchDir(t)
	out := t.TempDir()
	existing := filepath.Join(out, "b.h5")
	require.NoError(t, ioutil.WriteFile(existing, []byte("keep me"), 0644))

	res, err := Batch(in, out, smallParams(), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Converted, 2)
	assert.Equal(t, []string{filepath.Join(in, "b.DMCdata")}, res.Skipped)

	b, err := ioutil.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(b))
}

func TestBatchContinuesPastFailure(t *testing.T) {
	in := writeBatchDir(t)
	// Too small to hold a frame.
	bad := filepath.Join(in, "0.DMCdata")
	require.NoError(t, ioutil.WriteFile(bad, []byte{1, 2, 3}, 0644))

	var failed int
	opts := Options{Done: func(in string, res *Result, err error) {
		if err != nil {
			failed++
		}
	}}
	res, err := Batch(in, t.TempDir(), smallParams(), opts)
	assert.EqualError(t, err, "1 of 4 files failed to convert")
	assert.Equal(t, []string{bad}, res.Failed)
	assert.Len(t, res.Converted, 3)
	assert.Equal(t, 1, failed)
}

func TestBatchSingleFile(t *testing.T) {
	in := writeSmall(t, "a.DMCdata", 2, 1)
	out := filepath.Join(t.TempDir(), "one.fits")

	res, err := Batch(in, out, smallParams(), Options{Format: FormatFITS})
	require.NoError(t, err)
	require.Len(t, res.Converted, 1)
	assert.Equal(t, out, res.Converted[0].Output)
}

func TestBatchSingleFileError(t *testing.T) {
	in := writeSmall(t, "a.DMCdata", 2, 1)
	p := smallParams()
	p.FrameRequest = []int64{0, 5}

	_, err := Batch(in, t.TempDir(), p, Options{})
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "files failed")
}

func TestBatchNeedsOutput(t *testing.T) {
	in := writeSmall(t, "a.DMCdata", 2, 1)
	_, err := Batch(in, "", smallParams(), Options{})
	assert.Error(t, err)
}
