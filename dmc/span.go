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
	"fmt"
	"io"
	"log"
	"os"
)

// FileSpan bounds the raw indices covered by one recording.
type FileSpan struct {
	Path          string
	SizeBytes     int64
	Frames        int64
	FirstRawIndex int64
	LastRawIndex  int64
}

// RawFrames is the number of frames the camera counted between the
// first and last frame of the file.
func (s FileSpan) RawFrames() int64 {
	return s.LastRawIndex - s.FirstRawIndex + 1
}

// DroppedFrames returns how many frames the camera counted but the
// file does not hold. Zero means nothing was dropped.
func (s FileSpan) DroppedFrames() int64 {
	return s.RawFrames() - s.Frames
}

// RawIndices lists every raw index from first to last inclusive.
func (s FileSpan) RawIndices() []int64 {
	n := s.RawFrames()
	if n < 1 {
		return nil
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = s.FirstRawIndex + int64(i)
	}
	return out
}

// ProbeSpan reads the first and last frame footers of path without
// reading the rest of the file. Legacy recordings without footers get
// a synthetic one-based span derived from the file size.
func ProbeSpan(path string, l Layout) (FileSpan, error) {
	// Must happen before any size arithmetic.
	info, err := os.Stat(path)
	if err != nil {
		return FileSpan{}, err
	}
	if info.IsDir() {
		return FileSpan{}, fmt.Errorf("%s is a directory, not a recording", path)
	}

	span := FileSpan{
		Path:      path,
		SizeBytes: info.Size(),
	}
	if span.SizeBytes < l.BytesPerImage {
		return FileSpan{}, fmt.Errorf("file size %d of %s is smaller than a single image frame (%d bytes)",
			span.SizeBytes, path, l.BytesPerImage)
	}
	span.Frames = span.SizeBytes / l.BytesPerFrame
	if span.SizeBytes%l.BytesPerFrame != 0 {
		log.Printf("error: %s is truncated or the layout is wrong (%d bytes per frame)", path, l.BytesPerFrame)
	}

	if !l.HasFooter() {
		span.FirstRawIndex = 1
		span.LastRawIndex = span.SizeBytes / l.BytesPerImage
		return span, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FileSpan{}, err
	}
	defer f.Close()

	first, err := readFooterAt(f, l.BytesPerImage, l)
	if err != nil {
		return FileSpan{}, fmt.Errorf("reading first raw index of %s: %w", path, err)
	}
	last, err := readFooterAt(f, span.SizeBytes-int64(l.HeaderBytes), l)
	if err != nil {
		return FileSpan{}, fmt.Errorf("reading last raw index of %s: %w", path, err)
	}
	span.FirstRawIndex = first
	span.LastRawIndex = last

	if span.LastRawIndex < span.FirstRawIndex {
		return FileSpan{}, fmt.Errorf("last raw index %d of %s is before first raw index %d",
			span.LastRawIndex, path, span.FirstRawIndex)
	}
	if dropped := span.DroppedFrames(); dropped != 0 {
		log.Printf("warning: there may be missed frames in %s: %d raw frames, %d frames in file",
			path, span.RawFrames(), span.Frames)
	}
	return span, nil
}

func readFooterAt(f io.ReadSeeker, offset int64, l Layout) (int64, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	ri, err := ReadRawIndex(f, l.MetadataWords)
	if err != nil {
		return 0, err
	}
	return int64(ri.Value), nil
}
