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


package convert

import (
	"errors"
	"fmt"
	"time"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/location"
	"github.com/TheCacophonyProject/dmc-converter/output"
)

// DefaultMinFreeBytes is the free space that must remain on the output
// drive after a conversion.
const DefaultMinFreeBytes = 10e9

// Params holds every setting of a conversion.
type Params struct {
	Geometry dmc.Geometry

	// KineticSec is the frame period. Zero means unknown, in which
	// case no times are estimated.
	KineticSec float64

	// Orientation needed to display the images. Recorded only.
	RotCCW    int
	Transpose bool
	FlipUD    bool
	FlipLR    bool

	SensorLocation *location.SensorLocation // nil if unknown
	Start          time.Time                // zero if unknown

	// FrameRequest selects frames, see selection.Resolve.
	FrameRequest []int64
	// TimeRequest selects frames by UT1 Unix time, see
	// timing.FramesForTimes. It takes priority over FrameRequest.
	TimeRequest []float64
	// Exploratory falls back to FrameRequest when TimeRequest misses
	// the recording, instead of failing.
	Exploratory bool

	CmdLog string
	Header string

	MinFreeBytes int64
	// MaxReadRate caps input bandwidth in bytes per second. Zero is
	// unlimited.
	MaxReadRate int64
}

// DefaultParams returns the settings for a 512x512 unbinned camera
// with frame footers.
func DefaultParams() Params {
	return Params{
		Geometry:     dmc.DefaultGeometry(),
		MinFreeBytes: DefaultMinFreeBytes,
	}
}

func (p *Params) Validate() error {
	if err := p.Geometry.Validate(); err != nil {
		return err
	}
	if p.KineticSec < 0 {
		return fmt.Errorf("kinetic period must not be negative, got %g", p.KineticSec)
	}
	if len(p.TimeRequest) > 0 && len(p.FrameRequest) > 0 && !p.Exploratory {
		return errors.New("frames and times can't both be requested")
	}
	if p.SensorLocation != nil {
		if err := p.SensorLocation.Validate(); err != nil {
			return err
		}
	}
	if p.MinFreeBytes < 0 {
		return errors.New("minimum free bytes must not be negative")
	}
	if p.MaxReadRate < 0 {
		return errors.New("maximum read rate must not be negative")
	}
	return nil
}

// HasTiming reports whether frame times can be estimated.
func (p *Params) HasTiming() bool {
	return !p.Start.IsZero() && p.KineticSec > 0
}

func (p *Params) outputParams() output.Params {
	return output.Params{
		KineticSec:      p.KineticSec,
		RotCCW:          p.RotCCW,
		Transpose:       p.Transpose,
		FlipUD:          p.FlipUD,
		FlipLR:          p.FlipLR,
		// Every time here is a software estimate, never a measurement.
		QuestionableUT1: true,
	}
}
