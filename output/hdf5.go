// dmc-converter - convert raw DMC auroral camera video to image stacks
//  Copyright (C) 2020, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.


package output

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"

	"gonum.org/v1/hdf5"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

const (
	imagesName   = "/rawimg"
	timesName    = "/ut1_unix"
	rawIndexName = "/rawind"
	paramsName   = "/params"
	locationName = "/sensorloc"
	cmdLogName   = "/cmdlog"
	headerName   = "/header"

	deflateLevel = 1
)

// ErrShapeMismatch is returned when an existing file holds a stack of
// a different shape.
var ErrShapeMismatch = errors.New("existing image stack has a different shape")

// Attributes that let HDF5 viewers show /rawimg as an image.
var imageAttrs = []struct{ name, value string }{
	{"CLASS", "IMAGE"},
	{"IMAGE_VERSION", "1.2"},
	{"IMAGE_SUBCLASS", "IMAGE_GRAYSCALE"},
	{"DISPLAY_ORIGIN", "LL"},
}

// The hdf5 package names compound members with the whole field tag,
// so these tags are bare member names.
type h5Params struct {
	KineticSec      float64 `kineticsec`
	RotCCW          int8    `rotccw`
	Transpose       int8    `transpose`
	FlipUD          int8    `flipud`
	FlipLR          int8    `fliplr`
	QuestionableUT1 int8    `questionable_ut1`
}

type h5Location struct {
	Lat  float64 `lat`
	Lon  float64 `lon`
	AltM float64 `alt_m`
}

// HDF5 returns an Opener for an HDF5 file at path.
func HDF5(path string) Opener {
	return func(shape StackShape) (Sink, error) {
		return OpenHDF5(path, shape)
	}
}

// OpenHDF5 opens the HDF5 file at path for writing a stack of the
// given shape, creating it if needed. An existing /rawimg must have
// the same shape.
func OpenHDF5(path string, shape StackShape) (*HDF5Writer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	var f *hdf5.File
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("%s is a directory, not an HDF5 file", path)
	case err == nil:
		f, err = hdf5.OpenFile(path, hdf5.F_ACC_RDWR)
	case os.IsNotExist(err):
		f, err = hdf5.CreateFile(path, hdf5.F_ACC_EXCL)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v", path, err)
	}

	w := &HDF5Writer{
		path:  path,
		shape: shape,
		f:     f,
	}
	if err := w.openImages(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// HDF5Writer writes an image stack and its metadata to an HDF5 file.
// Images are stored one per chunk so frames can be written, and
// later read, one at a time.
type HDF5Writer struct {
	path   string
	shape  StackShape
	f      *hdf5.File
	images *hdf5.Dataset
}

func (w *HDF5Writer) Name() string {
	return w.path
}

func (w *HDF5Writer) dims() []uint {
	return []uint{uint(w.shape.Frames), uint(w.shape.Rows), uint(w.shape.Cols)}
}

func (w *HDF5Writer) openImages() error {
	if w.f.LinkExists(imagesName) {
		ds, err := w.openDataset(imagesName, w.dims())
		if err != nil {
			return err
		}
		w.images = ds
		return nil
	}

	space, err := hdf5.CreateSimpleDataspace(w.dims(), nil)
	if err != nil {
		return err
	}
	defer space.Close()
	dcpl, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return err
	}
	defer dcpl.Close()
	if err := dcpl.SetChunk([]uint{1, uint(w.shape.Rows), uint(w.shape.Cols)}); err != nil {
		return err
	}
	if err := dcpl.SetDeflate(deflateLevel); err != nil {
		return err
	}

	ds, err := w.f.CreateDatasetWith(imagesName, hdf5.T_NATIVE_UINT16, space, dcpl)
	if err != nil {
		return fmt.Errorf("creating %s in %s: %v", imagesName, w.path, err)
	}
	for _, a := range imageAttrs {
		if err := writeStringAttr(ds, a.name, a.value); err != nil {
			ds.Close()
			return err
		}
	}
	whiteIsZero := uint8(0)
	if err := writeAttr(ds, "IMAGE_WHITE_IS_ZERO", hdf5.T_NATIVE_UINT8, &whiteIsZero); err != nil {
		ds.Close()
		return err
	}
	w.images = ds
	return nil
}

// openDataset opens an existing dataset, checking its dimensions.
func (w *HDF5Writer) openDataset(name string, want []uint) (*hdf5.Dataset, error) {
	ds, err := w.f.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		ds.Close()
		return nil, err
	}
	if !reflect.DeepEqual(dims, want) {
		ds.Close()
		return nil, fmt.Errorf("%s in %s is %v, need %v: %w", name, w.path, dims, want, ErrShapeMismatch)
	}
	return ds, nil
}

func (w *HDF5Writer) WriteFrame(j int64, f *dmc.Frame) error {
	if err := w.shape.checkFrame(j, f); err != nil {
		return err
	}
	return writeSlab(w.images, &f.Pix,
		[]uint{uint(j), 0, 0},
		[]uint{1, uint(f.Rows), uint(f.Cols)})
}

func (w *HDF5Writer) WriteFrames(start int64, frames []*dmc.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	if err := w.shape.checkSpan(start, len(frames)); err != nil {
		return err
	}
	n := w.shape.Rows * w.shape.Cols
	pix := make([]uint16, 0, n*len(frames))
	for i, f := range frames {
		if err := w.shape.checkFrame(start+int64(i), f); err != nil {
			return err
		}
		pix = append(pix, f.Pix...)
	}
	return writeSlab(w.images, &pix,
		[]uint{uint(start), 0, 0},
		[]uint{uint(len(frames)), uint(w.shape.Rows), uint(w.shape.Cols)})
}

func (w *HDF5Writer) WriteRawIndex(start int64, raw []int64) error {
	if len(raw) == 0 {
		return nil
	}
	if err := w.shape.checkSpan(start, len(raw)); err != nil {
		return err
	}
	ds, err := w.vector(rawIndexName, hdf5.T_NATIVE_INT64, "one-based frame counter from the camera")
	if err != nil {
		return err
	}
	defer ds.Close()
	return writeSlab(ds, &raw, []uint{uint(start)}, []uint{uint(len(raw))})
}

func (w *HDF5Writer) WriteTimes(start int64, ut1 []float64) error {
	if len(ut1) == 0 {
		return nil
	}
	if err := w.shape.checkSpan(start, len(ut1)); err != nil {
		return err
	}
	ds, err := w.vector(timesName, hdf5.T_NATIVE_DOUBLE, "seconds since 1970-01-01T00:00:00Z")
	if err != nil {
		return err
	}
	defer ds.Close()
	return writeSlab(ds, &ut1, []uint{uint(start)}, []uint{uint(len(ut1))})
}

// vector opens or creates a one dimensional per-frame dataset.
func (w *HDF5Writer) vector(name string, dtype *hdf5.Datatype, units string) (*hdf5.Dataset, error) {
	dims := []uint{uint(w.shape.Frames)}
	if w.f.LinkExists(name) {
		return w.openDataset(name, dims)
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, err
	}
	defer space.Close()
	ds, err := w.f.CreateDataset(name, dtype, space)
	if err != nil {
		return nil, fmt.Errorf("creating %s in %s: %v", name, w.path, err)
	}
	if err := writeStringAttr(ds, "units", units); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

func (w *HDF5Writer) WriteParams(p Params) error {
	v := h5Params{
		KineticSec:      p.KineticSec,
		RotCCW:          int8(p.RotCCW),
		Transpose:       boolInt8(p.Transpose),
		FlipUD:          boolInt8(p.FlipUD),
		FlipLR:          boolInt8(p.FlipLR),
		QuestionableUT1: boolInt8(p.QuestionableUT1),
	}
	if w.f.LinkExists(paramsName) {
		var old h5Params
		if err := w.readCompound(paramsName, &old); err != nil {
			return err
		}
		if old != v {
			log.Printf("%s already has %s %+v, dropping %+v", w.path, paramsName, old, v)
		}
		return nil
	}
	_, err := w.writeCompound(paramsName, &v)
	return err
}

func (w *HDF5Writer) WriteSensorLocation(loc location.SensorLocation) error {
	v := h5Location{Lat: loc.Latitude, Lon: loc.Longitude, AltM: loc.Altitude}
	if w.f.LinkExists(locationName) {
		var old h5Location
		if err := w.readCompound(locationName, &old); err != nil {
			return err
		}
		if old != v {
			log.Printf("%s already has %s %+v, dropping %+v", w.path, locationName, old, v)
		}
		return nil
	}
	ds, err := w.writeCompound(locationName, &v)
	if err != nil {
		return err
	}
	defer ds.Close()
	return writeStringAttr(ds, "units", "WGS-84 lat, lon [degrees], altitude [meters]")
}

func (w *HDF5Writer) WriteCmdLog(s string) error {
	return w.writeStringOnce(cmdLogName, s)
}

func (w *HDF5Writer) WriteHeader(s string) error {
	return w.writeStringOnce(headerName, s)
}

func (w *HDF5Writer) writeStringOnce(name, s string) error {
	if s == "" {
		return nil
	}
	if w.f.LinkExists(name) {
		old, err := readString(w.f, name)
		if err != nil {
			return err
		}
		if old != s {
			log.Printf("%s already has %s, dropping %q", w.path, name, s)
		}
		return nil
	}

	dtype, err := fixedString(len(s))
	if err != nil {
		return err
	}
	defer dtype.Close()
	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer scalar.Close()
	ds, err := w.f.CreateDataset(name, dtype, scalar)
	if err != nil {
		return fmt.Errorf("creating %s in %s: %v", name, w.path, err)
	}
	defer ds.Close()
	b := []byte(s)
	return ds.Write(&b)
}

// writeCompound stores the struct pointed to by v as a scalar
// compound dataset. The caller must close the returned dataset.
func (w *HDF5Writer) writeCompound(name string, v interface{}) (*hdf5.Dataset, error) {
	dtype, err := hdf5.NewDatatypeFromValue(reflect.ValueOf(v).Elem().Interface())
	if err != nil {
		return nil, err
	}
	defer dtype.Close()
	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return nil, err
	}
	defer scalar.Close()
	ds, err := w.f.CreateDataset(name, dtype, scalar)
	if err != nil {
		return nil, fmt.Errorf("creating %s in %s: %v", name, w.path, err)
	}
	if err := ds.Write(v); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

func (w *HDF5Writer) readCompound(name string, v interface{}) error {
	ds, err := w.f.OpenDataset(name)
	if err != nil {
		return err
	}
	defer ds.Close()
	return ds.Read(v)
}

// Close releases the file. Data is flushed by the library.
func (w *HDF5Writer) Close() error {
	var firstErr error
	if w.images != nil {
		firstErr = w.images.Close()
		w.images = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		w.f = nil
	}
	return firstErr
}

// writeSlab writes data into the block of ds starting at offset.
func writeSlab(ds *hdf5.Dataset, data interface{}, offset, count []uint) error {
	filespace := ds.Space()
	defer filespace.Close()
	if err := filespace.SelectHyperslab(offset, nil, count, nil); err != nil {
		return err
	}
	memspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer memspace.Close()
	return ds.WriteSubset(data, memspace, filespace)
}

func writeAttr(ds *hdf5.Dataset, name string, dtype *hdf5.Datatype, v interface{}) error {
	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer scalar.Close()
	attr, err := ds.CreateAttribute(name, dtype, scalar)
	if err != nil {
		return fmt.Errorf("creating attribute %s: %v", name, err)
	}
	defer attr.Close()
	return attr.Write(v, dtype)
}

func writeStringAttr(ds *hdf5.Dataset, name, value string) error {
	dtype, err := fixedString(len(value) + 1)
	if err != nil {
		return err
	}
	defer dtype.Close()
	// Attribute writes take the address of the value, so pass the first
	// byte rather than the slice header.
	b := make([]byte, dtype.Size())
	copy(b, value)
	return writeAttr(ds, name, dtype, &b[0])
}

// fixedString returns a null padded string type n bytes long.
func fixedString(n int) (*hdf5.Datatype, error) {
	dtype, err := hdf5.T_C_S1.Copy()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	if err := dtype.SetSize(n); err != nil {
		dtype.Close()
		return nil, err
	}
	return dtype, nil
}

func readString(f *hdf5.File, name string) (string, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return "", err
	}
	defer ds.Close()
	dtype, err := ds.Datatype()
	if err != nil {
		return "", err
	}
	defer dtype.Close()
	b := make([]byte, dtype.Size())
	if err := ds.Read(&b); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

func boolInt8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
