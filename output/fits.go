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
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
)

// FITS returns an Opener for a FITS cube at path. The stack is held in
// memory and written when the sink is closed.
func FITS(path string) Opener {
	return func(shape StackShape) (Sink, error) {
		return NewFITSWriter(path, shape)
	}
}

func NewFITSWriter(path string, shape StackShape) (*FITSWriter, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a FITS file", path)
	}
	return &FITSWriter{
		Stack: NewStack(shape),
		path:  path,
	}, nil
}

// FITSWriter exports a stack as a single 16 bit FITS image cube.
type FITSWriter struct {
	*Stack
	path string
}

func (w *FITSWriter) Name() string {
	return w.path
}

// Close writes the FITS file.
func (w *FITSWriter) Close() error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	if err := writeFits(f, w.cards(), w.Pixels(), w.Shape); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *FITSWriter) cards() []fitsio.Card {
	var cards []fitsio.Card
	if p := w.Params; p != nil {
		cards = append(cards,
			fitsio.Card{Name: "KINETIC", Value: p.KineticSec, Comment: "frame period [s]"},
			fitsio.Card{Name: "ROTCCW", Value: p.RotCCW, Comment: "90 degree rotations to display"},
			fitsio.Card{Name: "TRANSPOS", Value: p.Transpose},
			fitsio.Card{Name: "FLIPUD", Value: p.FlipUD},
			fitsio.Card{Name: "FLIPLR", Value: p.FlipLR},
		)
	}
	if loc := w.Location; loc != nil {
		cards = append(cards,
			fitsio.Card{Name: "SITELAT", Value: loc.Latitude, Comment: "WGS-84 [deg]"},
			fitsio.Card{Name: "SITELONG", Value: loc.Longitude, Comment: "WGS-84 [deg]"},
			fitsio.Card{Name: "SITEELEV", Value: loc.Altitude, Comment: "[m]"},
		)
	}
	if len(w.RawIndex) > 0 && w.RawIndex[0] > 0 {
		cards = append(cards, fitsio.Card{Name: "RAWIND0", Value: int(w.RawIndex[0]), Comment: "raw index of first frame"})
	}
	if len(w.UT1) > 0 {
		cards = append(cards, fitsio.Card{Name: "UT1START", Value: w.UT1[0], Comment: "estimated UT1 of first frame [unix s]"})
	}
	return cards
}

// writeFits writes a stack of unsigned 16 bit images as a signed
// 16 bit cube offset by BZERO.
func writeFits(f *os.File, metadata []fitsio.Card, buffer []uint16, shape StackShape) error {
	metadata = append(metadata, fitsio.Card{Name: "BZERO", Value: 32768}, fitsio.Card{Name: "BSCALE", Value: 1.0})
	fits, err := fitsio.Create(f)
	if err != nil {
		return err
	}
	if err := writeCube(fits, metadata, buffer, shape); err != nil {
		fits.Close()
		return err
	}
	return fits.Close()
}

func writeCube(fits *fitsio.File, metadata []fitsio.Card, buffer []uint16, shape StackShape) error {
	dims := []int{shape.Cols, shape.Rows}
	if shape.Frames > 1 {
		dims = append(dims, int(shape.Frames))
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	if err := im.Header().Append(metadata...); err != nil {
		return err
	}

	bufOut := make([]int16, len(buffer))
	for idx := range buffer {
		bufOut[idx] = int16(buffer[idx] - 32768)
	}
	if err := im.Write(bufOut); err != nil {
		return err
	}
	return fits.Write(im)
}
