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


package selection

import (
	"errors"
	"fmt"
)

// RangeError reports a selected frame outside the recording.
type RangeError struct {
	Index  int64
	Frames int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("frame %d is outside the recording of %d frames", e.Index, e.Frames)
}

// Resolve turns a frame request into ascending relative frame indices
// for a recording of n frames.
//
//   no elements     all frames
//   [step]          0, step, 2*step, ... below n
//   [start, stop]   start up to but not including stop
//   [a, b, step]    a, a+step, ... below b, minus one (one-based)
//   anything else   all frames
//
// The three element form counts frames from one while the two
// element form counts from zero. Every index must lie in [0, n) or a
// *RangeError is returned; indices are never clamped.
func Resolve(req []int64, n int64) ([]int64, error) {
	var frames []int64
	switch len(req) {
	case 1:
		if req[0] <= 0 {
			return nil, fmt.Errorf("frame step must be positive, got %d", req[0])
		}
		frames = arange(0, n, req[0])
	case 2:
		frames = arange(req[0], req[1], 1)
	case 3:
		if req[2] <= 0 {
			return nil, fmt.Errorf("frame step must be positive, got %d", req[2])
		}
		frames = arange(req[0], req[1], req[2])
		for i := range frames {
			frames[i]--
		}
	default:
		frames = arange(0, n, 1)
	}

	if len(frames) == 0 {
		return nil, errors.New("no frames selected")
	}
	for _, f := range frames {
		if f < 0 || f >= n {
			return nil, &RangeError{Index: f, Frames: n}
		}
	}
	return frames, nil
}

func arange(start, stop, step int64) []int64 {
	if stop <= start {
		return nil
	}
	frames := make([]int64, 0, (stop-start+step-1)/step)
	for i := start; i < stop; i += step {
		frames = append(frames, i)
	}
	return frames
}
