package output

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/dmctest"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

func smallShape(frames int64) (dmc.Layout, StackShape) {
	l := dmctest.MustLayout(dmctest.SmallGeometry())
	return l, StackShape{Frames: frames, Rows: l.SuperY, Cols: l.SuperX}
}

func writeTestStack(t *testing.T, path string) {
	l, shape := smallShape(3)
	w, err := OpenHDF5(path, shape)
	require.NoError(t, err)

	require.NoError(t, w.WriteParams(Params{KineticSec: 0.0188, RotCCW: 1, FlipLR: true, QuestionableUT1: true}))
	require.NoError(t, w.WriteSensorLocation(location.SensorLocation{Latitude: 65.12, Longitude: -147.43, Altitude: 689}))
	require.NoError(t, w.WriteCmdLog("dmc2h5 -o out.h5 in.DMCdata"))
	require.NoError(t, w.WriteHeader("HiST DMC CamSer7196"))

	require.NoError(t, w.WriteFrame(0, dmctest.Frame(l, 0)))
	require.NoError(t, w.WriteFrames(1, []*dmc.Frame{dmctest.Frame(l, 1), dmctest.Frame(l, 2)}))
	require.NoError(t, w.WriteRawIndex(0, []int64{710729, 710730, 710732}))
	require.NoError(t, w.WriteTimes(0, []float64{1365922800, 1365922800.5, 1365922801.5}))
	require.NoError(t, w.Close())
}

func TestHDF5Stack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.h5")
	writeTestStack(t, path)

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()

	ds, err := f.OpenDataset(imagesName)
	require.NoError(t, err)
	defer ds.Close()
	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 8, 16}, dims)

	pix := make([]uint16, 3*8*16)
	require.NoError(t, ds.Read(&pix))
	for i := int64(0); i < 3; i++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 16; x++ {
				require.Equal(t, dmctest.Pixel(i, y, x), pix[int(i)*128+y*16+x])
			}
		}
	}

	assert.Equal(t, "IMAGE", readStringAttr(t, ds, "CLASS"))
	assert.Equal(t, "1.2", readStringAttr(t, ds, "IMAGE_VERSION"))
	assert.Equal(t, "IMAGE_GRAYSCALE", readStringAttr(t, ds, "IMAGE_SUBCLASS"))
	assert.Equal(t, "LL", readStringAttr(t, ds, "DISPLAY_ORIGIN"))

	attr, err := ds.OpenAttribute("IMAGE_WHITE_IS_ZERO")
	require.NoError(t, err)
	var whiteIsZero uint8 = 99
	require.NoError(t, attr.Read(&whiteIsZero, hdf5.T_NATIVE_UINT8))
	attr.Close()
	assert.Equal(t, uint8(0), whiteIsZero)

	raw := make([]int64, 3)
	readAll(t, f, rawIndexName, &raw)
	assert.Equal(t, []int64{710729, 710730, 710732}, raw)

	ut1 := make([]float64, 3)
	readAll(t, f, timesName, &ut1)
	assert.Equal(t, []float64{1365922800, 1365922800.5, 1365922801.5}, ut1)

	var params h5Params
	readAll(t, f, paramsName, &params)
	assert.Equal(t, h5Params{KineticSec: 0.0188, RotCCW: 1, FlipLR: 1, QuestionableUT1: 1}, params)

	var loc h5Location
	readAll(t, f, locationName, &loc)
	assert.Equal(t, h5Location{Lat: 65.12, Lon: -147.43, AltM: 689}, loc)

	assert.Equal(t, []string{"kineticsec", "rotccw", "transpose", "flipud", "fliplr", "questionable_ut1"},
		memberNames(t, f, paramsName))
	assert.Equal(t, []string{"lat", "lon", "alt_m"}, memberNames(t, f, locationName))

	rawDS, err := f.OpenDataset(rawIndexName)
	require.NoError(t, err)
	assert.Equal(t, "one-based frame counter from the camera", readStringAttr(t, rawDS, "units"))
	rawDS.Close()
	timesDS, err := f.OpenDataset(timesName)
	require.NoError(t, err)
	assert.Equal(t, "seconds since 1970-01-01T00:00:00Z", readStringAttr(t, timesDS, "units"))
	timesDS.Close()
	locDS, err := f.OpenDataset(locationName)
	require.NoError(t, err)
	assert.Equal(t, "WGS-84 lat, lon [degrees], altitude [meters]", readStringAttr(t, locDS, "units"))
	locDS.Close()

	cmd, err := readString(f, cmdLogName)
	require.NoError(t, err)
	assert.Equal(t, "dmc2h5 -o out.h5 in.DMCdata", cmd)
	header, err := readString(f, headerName)
	require.NoError(t, err)
	assert.Equal(t, "HiST DMC CamSer7196", header)
}

func TestHDF5ReopenKeepsFirstMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.h5")
	writeTestStack(t, path)

	_, shape := smallShape(3)
	w, err := OpenHDF5(path, shape)
	require.NoError(t, err)
	require.NoError(t, w.WriteParams(Params{KineticSec: 1}))
	require.NoError(t, w.WriteHeader("something else"))
	require.NoError(t, w.Close())

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()
	var params h5Params
	readAll(t, f, paramsName, &params)
	assert.Equal(t, 0.0188, params.KineticSec)
	header, err := readString(f, headerName)
	require.NoError(t, err)
	assert.Equal(t, "HiST DMC CamSer7196", header)
}

func TestHDF5ShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.h5")
	writeTestStack(t, path)

	_, shape := smallShape(4)
	_, err := OpenHDF5(path, shape)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestHDF5Directory(t *testing.T) {
	_, shape := smallShape(1)
	_, err := OpenHDF5(t.TempDir(), shape)
	assert.Error(t, err)
}

func TestHDF5FrameOutsideStack(t *testing.T) {
	l, shape := smallShape(2)
	w, err := OpenHDF5(filepath.Join(t.TempDir(), "out.h5"), shape)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.WriteFrame(2, dmctest.Frame(l, 0)))
	assert.Error(t, w.WriteRawIndex(1, []int64{1, 2}))

	other := dmctest.MustLayout(dmc.DefaultGeometry())
	assert.Error(t, w.WriteFrame(0, dmctest.Frame(other, 0)))
}

func readAll(t *testing.T, f *hdf5.File, name string, v interface{}) {
	ds, err := f.OpenDataset(name)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Read(v))
}

// readStringAttr reads a fixed length string attribute through a
// wider memory type, so the stored length needn't be known.
func readStringAttr(t *testing.T, ds *hdf5.Dataset, name string) string {
	attr, err := ds.OpenAttribute(name)
	require.NoError(t, err)
	defer attr.Close()
	dtype, err := fixedString(256)
	require.NoError(t, err)
	defer dtype.Close()
	b := make([]byte, 256)
	require.NoError(t, attr.Read(&b[0], dtype))
	return string(bytes.TrimRight(b, "\x00"))
}

// memberNames lists the member names of a compound dataset as stored
// in the file.
func memberNames(t *testing.T, f *hdf5.File, name string) []string {
	ds, err := f.OpenDataset(name)
	require.NoError(t, err)
	defer ds.Close()
	dtype, err := ds.Datatype()
	require.NoError(t, err)
	defer dtype.Close()
	require.Equal(t, hdf5.T_COMPOUND, dtype.Class())

	compound := hdf5.CompoundType{Datatype: *dtype}
	names := make([]string, compound.NMembers())
	for i := range names {
		names[i] = compound.MemberName(i)
	}
	return names
}
