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

// Package dmctest builds synthetic DMC recordings for tests.
package dmctest

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
)

// Reference pixel values from the project's committed test recording
// (frame 1 of testframes.DMCdata).
var (
	FirstRowHead = []uint16{956, 700, 1031, 730, 732}
	LastRowTail  = []uint16{1939, 1981, 1828, 1752, 1966}
)

// ReferenceRawIndex is the raw index of frame 1 in the reference
// recording.
const ReferenceRawIndex = 710730

// Pixel is the deterministic value used for pixel (y, x) of
// relative frame i by Frame.
func Pixel(i int64, y, x int) uint16 {
	return uint16((int64(y)*31 + int64(x)*7 + i*1000) % 4096)
}

// Frame returns relative frame i for l filled with Pixel values.
func Frame(l dmc.Layout, i int64) *dmc.Frame {
	f := dmc.NewFrame(l)
	for y := 0; y < f.Rows; y++ {
		row := f.Row(y)
		for x := range row {
			row[x] = Pixel(i, y, x)
		}
	}
	return f
}

// ReferenceFrame returns a frame whose first and last rows carry the
// reference pixel values. l must be at least 5 pixels wide.
func ReferenceFrame(l dmc.Layout) *dmc.Frame {
	f := Frame(l, 1)
	copy(f.Row(0), FirstRowHead)
	copy(f.Row(f.Rows - 1)[f.Cols-len(LastRowTail):], LastRowTail)
	return f
}

// WriteRecording writes frames to path as a DMC recording. raw
// supplies the footer value of each frame and is ignored for layouts
// without footers.
func WriteRecording(path string, l dmc.Layout, frames []*dmc.Frame, raw []uint32) error {
	if l.HasFooter() && len(raw) != len(frames) {
		return fmt.Errorf("%d frames but %d raw indices", len(frames), len(raw))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i, frame := range frames {
		if int64(len(frame.Pix)) != l.PixelsPerImage {
			f.Close()
			return fmt.Errorf("frame %d has %d pixels, layout wants %d", i, len(frame.Pix), l.PixelsPerImage)
		}
		if err := binary.Write(w, binary.LittleEndian, frame.Pix); err != nil {
			f.Close()
			return err
		}
		if l.HasFooter() {
			if _, err := w.Write(dmc.EncodeRawIndex(raw[i])); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSequential writes n Frame values with consecutive raw indices
// starting at firstRaw.
func WriteSequential(path string, l dmc.Layout, n int, firstRaw uint32) error {
	frames := make([]*dmc.Frame, n)
	raw := make([]uint32, n)
	for i := range frames {
		frames[i] = Frame(l, int64(i))
		raw[i] = firstRaw + uint32(i)
	}
	return WriteRecording(path, l, frames, raw)
}

// MustLayout is NewLayout for tests with known good geometry.
func MustLayout(g dmc.Geometry) dmc.Layout {
	l, err := dmc.NewLayout(g)
	if err != nil {
		panic(err)
	}
	return l
}

// SmallGeometry is a cheap geometry for tests that don't care about
// the real sensor size.
func SmallGeometry() dmc.Geometry {
	return dmc.Geometry{
		PixelsX:     16,
		PixelsY:     8,
		BinX:        1,
		BinY:        1,
		HeaderBytes: dmc.HeaderBytesV1,
	}
}
