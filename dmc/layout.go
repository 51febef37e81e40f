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
	"errors"
	"fmt"
)

const (
	// BitsPerPixel is the sample depth of every DMC recording.
	BitsPerPixel = 16

	// HeaderBytesLegacy is the footer size of the 2011 recordings (none).
	HeaderBytesLegacy = 0
	// HeaderBytesV1 is the footer size of the 2013-2016 recordings.
	HeaderBytesV1 = 4
)

// Geometry describes the camera readout a recording was made with.
type Geometry struct {
	PixelsX     int `yaml:"pixels-x"`
	PixelsY     int `yaml:"pixels-y"`
	BinX        int `yaml:"bin-x"`
	BinY        int `yaml:"bin-y"`
	HeaderBytes int `yaml:"header-bytes"`
}

// DefaultGeometry is the usual HiST setup: 512x512, no binning,
// version 1 footer.
func DefaultGeometry() Geometry {
	return Geometry{
		PixelsX:     512,
		PixelsY:     512,
		BinX:        1,
		BinY:        1,
		HeaderBytes: HeaderBytesV1,
	}
}

// Validate checks that the geometry produces a whole number of
// pixels per image and a sensible footer.
func (g Geometry) Validate() error {
	if g.PixelsX < 1 || g.PixelsY < 1 {
		return fmt.Errorf("pixel dimensions must be positive, got %dx%d", g.PixelsX, g.PixelsY)
	}
	if g.BinX < 1 || g.BinY < 1 {
		return fmt.Errorf("binning must be positive, got %dx%d", g.BinX, g.BinY)
	}
	if g.PixelsX%g.BinX != 0 || g.PixelsY%g.BinY != 0 {
		return fmt.Errorf("binning %dx%d does not evenly divide %dx%d pixels", g.BinX, g.BinY, g.PixelsX, g.PixelsY)
	}
	if g.HeaderBytes < 0 {
		return errors.New("header bytes cannot be negative")
	}
	if g.HeaderBytes%2 != 0 {
		return fmt.Errorf("header bytes must be a whole number of 16 bit words, got %d", g.HeaderBytes)
	}
	return nil
}

// Layout holds the byte arithmetic for one recording. It is
// computed once and never changes.
type Layout struct {
	SuperX         int
	SuperY         int
	BitsPerPixel   int
	HeaderBytes    int
	MetadataWords  int
	PixelsPerImage int64
	BytesPerImage  int64
	BytesPerFrame  int64
}

// NewLayout derives the frame layout for g.
func NewLayout(g Geometry) (Layout, error) {
	if err := g.Validate(); err != nil {
		return Layout{}, err
	}
	l := Layout{
		SuperX:        g.PixelsX / g.BinX,
		SuperY:        g.PixelsY / g.BinY,
		BitsPerPixel:  BitsPerPixel,
		HeaderBytes:   g.HeaderBytes,
		MetadataWords: g.HeaderBytes / 2,
	}
	l.PixelsPerImage = int64(l.SuperX) * int64(l.SuperY)
	l.BytesPerImage = l.PixelsPerImage * int64(l.BitsPerPixel) / 8
	l.BytesPerFrame = l.BytesPerImage + int64(l.HeaderBytes)
	return l, nil
}

// HasFooter reports whether each frame carries a raw index footer.
func (l Layout) HasFooter() bool {
	return l.MetadataWords >= 1
}

// FrameOffset returns the byte offset of relative frame i.
func (l Layout) FrameOffset(i int64) int64 {
	return i * l.BytesPerFrame
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d, %d bytes/frame (%d header)", l.SuperX, l.SuperY, l.BytesPerFrame, l.HeaderBytes)
}
