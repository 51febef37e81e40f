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

package dmc

import (
	"image"
)

// Frame is a single image, stored row-major.
type Frame struct {
	Rows int
	Cols int
	Pix  []uint16
}

// NewFrame returns a zeroed frame sized for l.
func NewFrame(l Layout) *Frame {
	return &Frame{
		Rows: l.SuperY,
		Cols: l.SuperX,
		Pix:  make([]uint16, l.PixelsPerImage),
	}
}

// At returns the pixel at row y, column x.
func (f *Frame) At(y, x int) uint16 {
	return f.Pix[y*f.Cols+x]
}

// Row returns row y without copying.
func (f *Frame) Row(y int) []uint16 {
	return f.Pix[y*f.Cols : (y+1)*f.Cols]
}

// Rows2D returns the frame as a slice of rows sharing the frame's
// backing array.
func (f *Frame) Rows2D() [][]uint16 {
	out := make([][]uint16, f.Rows)
	for y := range out {
		out[y] = f.Row(y)
	}
	return out
}

// Gray16 converts the frame to an image, top row first.
func (f *Frame) Gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Cols, f.Rows))
	for i, v := range f.Pix {
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	return img
}
