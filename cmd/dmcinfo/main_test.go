package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/dmctest"
)

func TestPrintInfo(t *testing.T) {
	l := dmctest.MustLayout(dmctest.SmallGeometry())
	path := filepath.Join(t.TempDir(), "a.DMCdata")
	frames := []*dmc.Frame{dmctest.Frame(l, 0), dmctest.Frame(l, 1), dmctest.Frame(l, 2)}
	require.NoError(t, dmctest.WriteRecording(path, l, frames, []uint32{1, 2, 5}))

	var buf bytes.Buffer
	start := time.Date(2013, 4, 14, 7, 0, 0, 0, time.UTC)
	require.NoError(t, printInfo(&buf, path, l, start, 0.5))

	out := buf.String()
	assert.Contains(t, out, "frames:     3\n")
	assert.Contains(t, out, "raw index:  1 to 5\n")
	assert.Contains(t, out, "dropped:    2\n")
	assert.Contains(t, out, "time:       2013-04-14T07:00:00Z to 2013-04-14T07:00:02Z (2s)\n")
}

func TestPrintInfoWithoutTiming(t *testing.T) {
	l := dmctest.MustLayout(dmctest.SmallGeometry())
	path := filepath.Join(t.TempDir(), "a.DMCdata")
	require.NoError(t, dmctest.WriteSequential(path, l, 2, 10))

	var buf bytes.Buffer
	require.NoError(t, printInfo(&buf, path, l, time.Time{}, 0.5))
	assert.NotContains(t, buf.String(), "time:")
}

func TestPrintInfoMissingFile(t *testing.T) {
	l := dmctest.MustLayout(dmctest.SmallGeometry())
	var buf bytes.Buffer
	assert.Error(t, printInfo(&buf, filepath.Join(t.TempDir(), "nope.DMCdata"), l, time.Time{}, 0))
	assert.Empty(t, buf.String())
}

func TestParseArgs(t *testing.T) {
	l, start, err := parseArgs(Args{Pix: []int{512, 512}, Bin: []int{2, 2}, HeaderBytes: 4, Start: "2013-04-14T07:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 256, l.SuperX)
	assert.Equal(t, 2013, start.Year())

	_, _, err = parseArgs(Args{Pix: []int{512}, Bin: []int{1, 1}})
	assert.Error(t, err)
	_, _, err = parseArgs(Args{Pix: []int{512, 512}, Bin: []int{1, 1}, Start: "never"})
	assert.Error(t, err)
}
