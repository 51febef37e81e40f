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
	"log"
	"path/filepath"
	"strings"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/selection"
	"github.com/TheCacophonyProject/dmc-converter/timing"
)

// ramWarnBytes is the extraction size above which keeping the stack
// in memory is flagged.
const ramWarnBytes = 4e9

// Plan describes what a conversion of one file will read.
type Plan struct {
	Path   string
	Layout dmc.Layout
	Span   dmc.FileSpan

	// Frames is how many frames the file holds.
	Frames int64

	// Times is the estimated UT1 Unix time of every frame, nil without
	// a start time and kinetic period.
	Times []float64

	// Selection lists the relative frames to read, ascending.
	Selection []int64
}

// ExtractBytes is how many bytes the selected frames take.
func (pl *Plan) ExtractBytes() int64 {
	return int64(len(pl.Selection)) * pl.Layout.BytesPerFrame
}

// PlanFile works out the layout, span and frame selection for
// converting path. Requested times are tried first, then the frame
// request.
func PlanFile(path string, p Params) (*Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	l, err := dmc.NewLayout(p.Geometry)
	if err != nil {
		return nil, err
	}
	span, err := dmc.ProbeSpan(path, l)
	if err != nil {
		return nil, err
	}

	pl := &Plan{
		Path:   path,
		Layout: l,
		Span:   span,
		Frames: span.Frames,
	}
	if !strings.EqualFold(filepath.Ext(path), ".DMCdata") {
		// CMOS recordings are counted by raw index.
		pl.Frames = span.RawFrames()
	}
	log.Printf("%d frames, %d bytes in file %s", pl.Frames, span.SizeBytes, path)
	log.Printf("first / last raw frame: %d / %d", span.FirstRawIndex, span.LastRawIndex)

	if !p.HasTiming() {
		log.Printf("no start time and kinetic period, frame times not estimated")
	}
	if times, ok := timing.FrameTimes(p.Start, p.KineticSec, span.RawIndices()); ok {
		if int64(len(times)) > pl.Frames {
			// Dropped frames: the table assumes none before the request.
			times = times[:pl.Frames]
		}
		pl.Times = times
	}

	if err := pl.selectFrames(p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	extract := pl.ExtractBytes()
	log.Printf("extracting %d frames from %s totaling %.2f GB", len(pl.Selection), path, float64(extract)/1e9)
	if extract > ramWarnBytes {
		log.Printf("warning: this needs %.2f GB of RAM if kept in memory", float64(extract)/1e9)
	}
	return pl, nil
}

func (pl *Plan) selectFrames(p Params) error {
	if len(p.TimeRequest) > 0 {
		frames, err := pl.framesForTimes(p.TimeRequest)
		switch {
		case err == nil:
			pl.Selection = frames
			return nil
		case p.Exploratory:
			log.Printf("%v, using the frame request", err)
		default:
			return err
		}
	}

	frames, err := selection.Resolve(p.FrameRequest, pl.Frames)
	if err != nil {
		return err
	}
	pl.Selection = frames
	return nil
}

func (pl *Plan) framesForTimes(req []float64) ([]int64, error) {
	if pl.Times == nil {
		return nil, errors.New("times were requested without a start time and kinetic period")
	}
	return timing.FramesForTimes(req, pl.Times)
}
