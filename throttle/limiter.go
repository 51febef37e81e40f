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


package throttle

import (
	"time"

	"github.com/juju/ratelimit"
)

// NewLimiter returns a Limiter allowing bytesPerSec bytes to be read
// per second, with up to one second of burst.
func NewLimiter(bytesPerSec int64) *Limiter {
	return NewLimiterWithClock(bytesPerSec, new(realClock))
}

func NewLimiterWithClock(bytesPerSec int64, clock ratelimit.Clock) *Limiter {
	return &Limiter{
		bucket: ratelimit.NewBucketWithRateAndClock(float64(bytesPerSec), bytesPerSec, clock),
		clock:  clock,
	}
}

// Limiter caps the read bandwidth of a conversion so that archive
// drives shared with acquisition are not saturated. It implements
// dmc.Throttle.
type Limiter struct {
	bucket *ratelimit.Bucket
	clock  ratelimit.Clock
	waited time.Duration
}

// Wait blocks until n bytes may be read.
func (l *Limiter) Wait(n int64) {
	if d := l.bucket.Take(n); d > 0 {
		l.clock.Sleep(d)
		l.waited += d
	}
}

// Waited returns the total time spent blocked in Wait.
func (l *Limiter) Waited() time.Duration {
	return l.waited
}

// realClock implements ratelimit.Clock in terms of standard time functions.
type realClock struct{}

// Now implements Clock.Now by calling time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// Sleep implements Clock.Sleep by calling time.Sleep.
func (realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
