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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrReadPastEOF is returned when a frame extends beyond the end of
// the recording.
var ErrReadPastEOF = errors.New("read past end of file")

// Throttle blocks until n more bytes may be read.
type Throttle interface {
	Wait(n int64)
}

// Open opens a recording for random access frame reads.
func Open(path string, l Layout) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, l), nil
}

// NewReader reads frames laid out as l from rs. If rs is an
// io.Closer it is closed by Close.
func NewReader(rs io.ReadSeeker, l Layout) *Reader {
	return &Reader{
		rs:     rs,
		layout: l,
		buf:    make([]byte, l.BytesPerImage),
	}
}

// Reader extracts individual frames from a DMC recording.
type Reader struct {
	rs       io.ReadSeeker
	layout   Layout
	buf      []byte
	throttle Throttle
}

// SetThrottle limits the rate frames are read at. A nil throttle
// removes the limit.
func (r *Reader) SetThrottle(t Throttle) {
	r.throttle = t
}

// Layout returns the layout the reader was created with.
func (r *Reader) Layout() Layout {
	return r.layout
}

// Name returns the file name if the reader is backed by a file.
func (r *Reader) Name() string {
	if f, ok := r.rs.(*os.File); ok {
		return f.Name()
	}
	return "<stream>"
}

// ReadFrame reads relative frame i and its raw index. The index is
// an int64 so the offset arithmetic cannot wrap on files over 2 GiB.
func (r *Reader) ReadFrame(i int64) (*Frame, int64, error) {
	frame := NewFrame(r.layout)
	raw, err := r.ReadFrameInto(i, frame)
	if err != nil {
		return nil, 0, err
	}
	return frame, raw, nil
}

// ReadFrameInto is like ReadFrame but fills an existing frame.
func (r *Reader) ReadFrameInto(i int64, frame *Frame) (int64, error) {
	if i < 0 {
		return 0, fmt.Errorf("negative frame index %d", i)
	}
	if frame.Rows != r.layout.SuperY || frame.Cols != r.layout.SuperX {
		return 0, fmt.Errorf("frame is %dx%d, layout is %dx%d", frame.Cols, frame.Rows, r.layout.SuperX, r.layout.SuperY)
	}
	offset := r.layout.FrameOffset(i)
	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("could not seek to byte %d of %s, is it a DMC recording? %v", offset, r.Name(), err)
	}
	if r.throttle != nil {
		r.throttle.Wait(r.layout.BytesPerFrame)
	}

	if _, err := io.ReadFull(r.rs, r.buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("frame %d of %s: %w", i, r.Name(), ErrReadPastEOF)
		}
		return 0, err
	}
	// Row-major, as the acquisition software writes it.
	for p := range frame.Pix {
		frame.Pix[p] = binary.LittleEndian.Uint16(r.buf[2*p:])
	}

	ri, err := ReadRawIndex(r.rs, r.layout.MetadataWords)
	if err != nil {
		return 0, fmt.Errorf("frame %d of %s: %w", i, r.Name(), err)
	}
	if !ri.Valid {
		return i + 1, nil
	}
	return int64(ri.Value), nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if c, ok := r.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
