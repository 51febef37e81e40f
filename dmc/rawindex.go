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
	"fmt"
	"io"
)

// footerWords is the only footer length the version 1 format defines.
const footerWords = 2

// RawIndex is the camera assigned, one-based frame counter stored in
// a frame footer. Valid is false for recordings without footers.
type RawIndex struct {
	Value uint32
	Valid bool
}

// DecodeRawIndex unpacks a version 1 footer.
//
// The footer holds two little-endian 16 bit words. The camera writes
// them in swapped order, so the counter is recovered by laying the
// bytes out as [w1 lo, w1 hi, w0 lo, w0 hi] and reading a single
// little-endian uint32.
func DecodeRawIndex(footer []byte) uint32 {
	w0 := binary.LittleEndian.Uint16(footer[0:2])
	w1 := binary.LittleEndian.Uint16(footer[2:4])

	var swapped [4]byte
	binary.LittleEndian.PutUint16(swapped[0:2], w1)
	binary.LittleEndian.PutUint16(swapped[2:4], w0)
	return binary.LittleEndian.Uint32(swapped[:])
}

// EncodeRawIndex is the inverse of DecodeRawIndex.
func EncodeRawIndex(v uint32) []byte {
	var packed [4]byte
	binary.LittleEndian.PutUint32(packed[:], v)

	footer := make([]byte, 4)
	copy(footer[0:2], packed[2:4])
	copy(footer[2:4], packed[0:2])
	return footer
}

// ReadRawIndex reads a footer of the given number of 16 bit words
// from r. A word count below one means the recording has no footer
// and an invalid RawIndex is returned without touching r.
func ReadRawIndex(r io.Reader, words int) (RawIndex, error) {
	if words < 1 {
		return RawIndex{}, nil
	}
	if words != footerWords {
		return RawIndex{}, fmt.Errorf("unsupported footer of %d words (only %d word footers are known)", words, footerWords)
	}
	footer := make([]byte, 2*words)
	if _, err := io.ReadFull(r, footer); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return RawIndex{}, fmt.Errorf("reading frame footer: %w", ErrReadPastEOF)
		}
		return RawIndex{}, err
	}
	return RawIndex{Value: DecodeRawIndex(footer), Valid: true}, nil
}
