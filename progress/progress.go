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


// Package progress logs how far a conversion has got without flooding
// the log.
package progress

import (
	"log"
	"time"
)

const (
	// DefaultEvery is how many frames pass between progress lines.
	DefaultEvery = 2000

	// DefaultInterval is the longest a slow conversion goes without a
	// progress line.
	DefaultInterval = time.Minute
)

// Func is told about every frame written.
type Func func(name string, done, total int64)

// New returns a Reporter for writing total frames to the output name.
func New(name string, total int64) *Reporter {
	return &Reporter{
		name:     name,
		total:    total,
		every:    DefaultEvery,
		interval: DefaultInterval,
		nowFunc:  time.Now,
	}
}

// Reporter logs a progress line every so many frames, or when too
// long has passed since the last line.
type Reporter struct {
	name     string
	total    int64
	every    int64
	interval time.Duration
	nowFunc  func() time.Time
	previous time.Time
	notify   Func
}

// SetNotify registers f to be called for every frame.
func (r *Reporter) SetNotify(f Func) {
	r.notify = f
}

// Frame records that output frame j has been written.
func (r *Reporter) Frame(j int64) {
	if r.notify != nil {
		r.notify(r.name, j+1, r.total)
	}

	now := r.nowFunc()
	if j%r.every != 0 && now.Sub(r.previous) < r.interval {
		return
	}
	if j > 0 {
		log.Printf("appending images %d to %s (%d of %d)", j, r.name, j+1, r.total)
	}
	r.previous = now
}

// Done logs the end of the conversion.
func (r *Reporter) Done(written int64, elapsed time.Duration) {
	log.Printf("wrote %d frames to %s in %s", written, r.name, elapsed.Round(time.Millisecond))
}
