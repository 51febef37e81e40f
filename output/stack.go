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
	"log"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

// NewStack returns an empty in-memory stack.
func NewStack(shape StackShape) *Stack {
	return &Stack{
		Shape:    shape,
		Frames:   make([]*dmc.Frame, shape.Frames),
		RawIndex: make([]int64, shape.Frames),
	}
}

// MemoryOpener opens a Stack.
func MemoryOpener(shape StackShape) (Sink, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return NewStack(shape), nil
}

// Stack keeps a converted stack in memory.
type Stack struct {
	Shape    StackShape
	Frames   []*dmc.Frame
	RawIndex []int64
	UT1      []float64 // nil when no timing is available
	Params   *Params
	Location *location.SensorLocation
	CmdLog   string
	Header   string
}

func (s *Stack) WriteFrame(j int64, f *dmc.Frame) error {
	if err := s.Shape.checkFrame(j, f); err != nil {
		return err
	}
	s.Frames[j] = f
	return nil
}

func (s *Stack) WriteFrames(start int64, frames []*dmc.Frame) error {
	for i, f := range frames {
		if err := s.WriteFrame(start+int64(i), f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stack) WriteRawIndex(start int64, raw []int64) error {
	if err := s.Shape.checkSpan(start, len(raw)); err != nil {
		return err
	}
	copy(s.RawIndex[start:], raw)
	return nil
}

func (s *Stack) WriteTimes(start int64, ut1 []float64) error {
	if err := s.Shape.checkSpan(start, len(ut1)); err != nil {
		return err
	}
	if s.UT1 == nil {
		s.UT1 = make([]float64, s.Shape.Frames)
	}
	copy(s.UT1[start:], ut1)
	return nil
}

func (s *Stack) WriteParams(p Params) error {
	if s.Params != nil {
		if *s.Params != p {
			log.Printf("keeping parameters %+v, dropping %+v", *s.Params, p)
		}
		return nil
	}
	s.Params = &p
	return nil
}

func (s *Stack) WriteSensorLocation(loc location.SensorLocation) error {
	if s.Location != nil {
		if *s.Location != loc {
			log.Printf("keeping sensor location %s, dropping %s", s.Location, loc)
		}
		return nil
	}
	s.Location = &loc
	return nil
}

func (s *Stack) WriteCmdLog(cmd string) error {
	s.CmdLog = keepFirst("command log", s.CmdLog, cmd)
	return nil
}

func (s *Stack) WriteHeader(h string) error {
	s.Header = keepFirst("header", s.Header, h)
	return nil
}

func (s *Stack) Name() string {
	return "memory"
}

func (s *Stack) Close() error {
	return nil
}

// Pixels returns every frame's pixels in stack order. Frames never
// written are zero.
func (s *Stack) Pixels() []uint16 {
	n := s.Shape.Rows * s.Shape.Cols
	out := make([]uint16, int64(n)*s.Shape.Frames)
	for j, f := range s.Frames {
		if f != nil {
			copy(out[j*n:], f.Pix)
		}
	}
	return out
}

func keepFirst(what, old, s string) string {
	if old == "" {
		return s
	}
	if s != old {
		log.Printf("keeping existing %s, dropping %q", what, s)
	}
	return old
}
