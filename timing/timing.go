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


// Package timing estimates frame times from a start time and frame
// period, and maps requested times back to frame indices.
package timing

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrOutsideSpan is returned when no frame of a recording falls in
// the requested times.
var ErrOutsideSpan = errors.New("requested time is outside the recording")

// Plausible bounds for a requested Unix time (2001 to 2065).
const (
	minPlausibleUnix = 1e9
	maxPlausibleUnix = 3e9
)

var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseStart parses a recording start time. Times without a zone
// are taken as UTC. A plain number is read as Unix seconds.
func ParseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty start time")
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return UnixTime(secs), nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse start time %q", s)
}

// UnixTime converts fractional Unix seconds to a time.
func UnixTime(secs float64) time.Time {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC()
}

// UnixSeconds converts t to fractional Unix seconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// FrameTimes returns the software estimated UT1 Unix time of each raw
// index. Raw indices are one-based. It returns false if start is
// unset or kinetic is not positive, meaning no timing is available.
func FrameTimes(start time.Time, kinetic float64, raw []int64) ([]float64, bool) {
	if start.IsZero() || !(kinetic > 0) {
		return nil, false
	}
	t0 := UnixSeconds(start)
	ut1 := make([]float64, len(raw))
	for i, r := range raw {
		ut1[i] = t0 + float64(r-1)*kinetic
	}
	return ut1, true
}

// FramesForTimes maps requested UT1 Unix times to relative frame
// indices. table holds the time of every frame in the file, in frame
// order.
//
// A request of exactly two times is a range: every frame strictly
// between them is returned. Any other request is a list of times, each
// mapped to the nearest frame, and times off either end of the file
// are dropped. ErrOutsideSpan is returned if nothing is selected.
func FramesForTimes(req []float64, table []float64) ([]int64, error) {
	if len(req) == 0 {
		return nil, errors.New("no times requested")
	}
	if !(minPlausibleUnix < req[0] && req[0] < maxPlausibleUnix) {
		log.Printf("warning: is the requested time %s valid?", UnixTime(req[0]).Format(time.RFC3339))
	}

	var frames []int64
	if len(req) == 2 {
		frames = framesBetween(req[0], req[1], table)
	} else {
		frames = nearestFrames(req, table)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%v: %w", req, ErrOutsideSpan)
	}
	return frames, nil
}

func framesBetween(start, stop float64, table []float64) []int64 {
	var frames []int64
	for i, t := range table {
		if start < t && t < stop {
			frames = append(frames, int64(i))
		}
	}
	return frames
}

func nearestFrames(req []float64, table []float64) []int64 {
	n := len(table)
	if n == 0 {
		return nil
	}
	var frames []int64
	for _, t := range req {
		i := math.Round(interpIndex(t, table))
		if math.IsNaN(i) || i < 0 || i >= float64(n) {
			continue
		}
		frames = append(frames, int64(i))
	}
	return frames
}

// interpIndex linearly interpolates the fractional frame index of t
// over the monotonic table, extrapolating past either end.
func interpIndex(t float64, table []float64) float64 {
	n := len(table)
	if n == 1 {
		if t == table[0] {
			return 0
		}
		return math.NaN()
	}
	k := sort.SearchFloat64s(table, t)
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}
	t0, t1 := table[k-1], table[k]
	if t1 == t0 {
		return float64(k - 1)
	}
	return float64(k-1) + (t-t0)/(t1-t0)
}
