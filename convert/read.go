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
	"log"
	"path/filepath"
	"time"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/headers"
	"github.com/TheCacophonyProject/dmc-converter/output"
	"github.com/TheCacophonyProject/dmc-converter/progress"
	"github.com/TheCacophonyProject/dmc-converter/throttle"
	"github.com/TheCacophonyProject/dmc-converter/timing"
)

// Options controls how conversions are run and reported.
type Options struct {
	Format Format

	// Progress, if set, is called after every frame.
	Progress progress.Func

	// Done, if set, is called after each file of a batch, with the
	// error if the file failed.
	Done func(in string, res *Result, err error)
}

// Result describes a finished conversion.
type Result struct {
	Input    string
	Output   string // empty when kept in memory
	Frames   int64
	RawIndex []int64
	UT1      []float64 // nil without timing
	Elapsed  time.Duration

	// Stack holds the images when no output file was given.
	Stack *output.Stack
}

// Read converts the selected frames of in, writing them to out in the
// format from opts. With an empty out the frames are kept in memory
// and returned in the Result.
func Read(in, out string, p Params, opts Options) (*Result, error) {
	started := time.Now()
	pl, err := PlanFile(in, p)
	if err != nil {
		return nil, err
	}

	serial, _ := dmc.SerialNumber(in)
	camera := headers.NewHeaderInfo(pl.Layout, p.KineticSec, serial)
	if serial > 0 {
		log.Printf("camera serial number %d", serial)
	}

	open := output.Opener(output.MemoryOpener)
	if out != "" {
		if err := checkDiskSpace(filepath.Dir(out), pl.ExtractBytes(), p.MinFreeBytes); err != nil {
			return nil, err
		}
		open = opts.Format.opener(out, camera)
	}

	r, err := dmc.Open(in, pl.Layout)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var limiter *throttle.Limiter
	if p.MaxReadRate > 0 {
		limiter = throttle.NewLimiter(p.MaxReadRate)
		r.SetThrottle(limiter)
	}

	n := int64(len(pl.Selection))
	sink, err := open(output.StackShape{Frames: n, Rows: pl.Layout.SuperY, Cols: pl.Layout.SuperX})
	if err != nil {
		return nil, err
	}
	closed := false
	defer func() {
		if !closed {
			sink.Close()
		}
	}()

	if err := writeMetadata(sink, p, camera); err != nil {
		return nil, err
	}

	rep := progress.New(sink.Name(), n)
	rep.SetNotify(opts.Progress)
	raw := make([]int64, n)
	// j and i differ unless reading from the start of the file.
	for j, i := range pl.Selection {
		frame, rawIndex, err := r.ReadFrame(i)
		if err != nil {
			return nil, err
		}
		if err := sink.WriteFrame(int64(j), frame); err != nil {
			return nil, err
		}
		raw[j] = rawIndex
		rep.Frame(int64(j))
	}

	if err := sink.WriteRawIndex(0, raw); err != nil {
		return nil, err
	}
	// Times of the frames actually read, so dropped frames are accounted for.
	ut1, ok := timing.FrameTimes(p.Start, p.KineticSec, raw)
	if ok {
		if err := sink.WriteTimes(0, ut1); err != nil {
			return nil, err
		}
	}
	closed = true
	if err := sink.Close(); err != nil {
		return nil, err
	}

	res := &Result{
		Input:    in,
		Output:   out,
		Frames:   n,
		RawIndex: raw,
		UT1:      ut1,
		Elapsed:  time.Since(started),
	}
	if stack, ok := sink.(*output.Stack); ok {
		res.Stack = stack
	}
	rep.Done(n, res.Elapsed)
	if limiter != nil && limiter.Waited() > 0 {
		log.Printf("read throttled for %s", limiter.Waited().Round(time.Millisecond))
	}
	return res, nil
}

func writeMetadata(sink output.Sink, p Params, camera *headers.HeaderInfo) error {
	if err := sink.WriteParams(p.outputParams()); err != nil {
		return err
	}
	if p.SensorLocation != nil {
		if err := sink.WriteSensorLocation(*p.SensorLocation); err != nil {
			return err
		}
	}
	if err := sink.WriteCmdLog(p.CmdLog); err != nil {
		return err
	}
	header := p.Header
	if header == "" {
		header = camera.String()
	}
	return sink.WriteHeader(header)
}
