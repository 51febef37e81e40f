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


// Package output writes converted image stacks.
package output

import (
	"fmt"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

// Sink receives the frames and metadata of one conversion. Frames are
// addressed by their position j in the output stack.
type Sink interface {
	WriteFrame(j int64, f *dmc.Frame) error
	WriteFrames(start int64, frames []*dmc.Frame) error
	WriteRawIndex(start int64, raw []int64) error
	WriteTimes(start int64, ut1 []float64) error

	// The metadata writers keep the first value written. A later,
	// different value is logged and dropped.
	WriteParams(p Params) error
	WriteSensorLocation(loc location.SensorLocation) error
	WriteCmdLog(s string) error
	WriteHeader(s string) error

	Name() string
	Close() error
}

// Opener creates a sink once the shape of the stack is known.
type Opener func(shape StackShape) (Sink, error)

// StackShape is the size of an image stack.
type StackShape struct {
	Frames int64
	Rows   int
	Cols   int
}

func (s StackShape) Validate() error {
	if s.Frames < 1 || s.Rows < 1 || s.Cols < 1 {
		return fmt.Errorf("invalid image stack shape %s", s)
	}
	return nil
}

func (s StackShape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Frames, s.Rows, s.Cols)
}

func (s StackShape) checkFrame(j int64, f *dmc.Frame) error {
	if j < 0 || j >= s.Frames {
		return fmt.Errorf("frame %d is outside the stack of %d frames", j, s.Frames)
	}
	if f.Rows != s.Rows || f.Cols != s.Cols {
		return fmt.Errorf("frame is %dx%d, stack is %dx%d", f.Rows, f.Cols, s.Rows, s.Cols)
	}
	return nil
}

func (s StackShape) checkSpan(start int64, n int) error {
	if start < 0 || start+int64(n) > s.Frames {
		return fmt.Errorf("values %d to %d are outside the stack of %d frames", start, start+int64(n), s.Frames)
	}
	return nil
}

// Params are the per-stack settings stored with the images.
// Orientation is recorded only, the pixels are never rotated.
type Params struct {
	KineticSec float64 `yaml:"kinetic-sec"`
	RotCCW     int     `yaml:"rot-ccw"`
	Transpose  bool    `yaml:"transpose"`
	FlipUD     bool    `yaml:"flip-ud"`
	FlipLR     bool    `yaml:"flip-lr"`

	// QuestionableUT1 marks times estimated in software from a start
	// time and frame period rather than measured. Conversions always
	// set it, including when no times were written.
	QuestionableUT1 bool `yaml:"-"`
}
