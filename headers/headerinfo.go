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


package headers

import (
	"fmt"
	"math"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
)

const (
	brand = "HiST"
	model = "DMC"
)

// HeaderInfo describes the camera that made a recording.
type HeaderInfo struct {
	resX      int
	resY      int
	fps       int
	framesize int
	brand     string
	model     string
	serial    int
}

// NewHeaderInfo describes a recording laid out as l at the given
// frame period. serial is zero if unknown.
func NewHeaderInfo(l dmc.Layout, kinetic float64, serial int) *HeaderInfo {
	fps := 1
	if kinetic > 0 {
		if f := int(math.Round(1 / kinetic)); f > 1 {
			fps = f
		}
	}
	return &HeaderInfo{
		resX:      l.SuperX,
		resY:      l.SuperY,
		fps:       fps,
		framesize: int(l.BytesPerFrame),
		brand:     brand,
		model:     model,
		serial:    serial,
	}
}

// ResX implements cptvframe.CameraSpec.
func (h *HeaderInfo) ResX() int {
	return h.resX
}

// ResY implements cptvframe.CameraSpec.
func (h *HeaderInfo) ResY() int {
	return h.resY
}

// FPS implements cptvframe.CameraSpec. It is the frame rate rounded
// to a whole number, at least 1.
func (h *HeaderInfo) FPS() int {
	return h.fps
}

// FrameSize returns the number of bytes in each frame (include any
// footer bytes).
func (h *HeaderInfo) FrameSize() int {
	return h.framesize
}

// Model returns the camera model.
func (h *HeaderInfo) Model() string {
	return h.model
}

// Brand returns the camera brand.
func (h *HeaderInfo) Brand() string {
	return h.brand
}

// Serial returns the camera serial number, or zero.
func (h *HeaderInfo) Serial() int {
	return h.serial
}

// DeviceName names the camera, including its serial number when known.
func (h *HeaderInfo) DeviceName() string {
	if h.serial > 0 {
		return fmt.Sprintf("%s %s CamSer%d", h.brand, h.model, h.serial)
	}
	return h.brand + " " + h.model
}

// String is the header text stored alongside converted stacks.
func (h *HeaderInfo) String() string {
	return fmt.Sprintf("%s: %dx%d pixels, %d fps, %d bytes per frame",
		h.DeviceName(), h.resX, h.resY, h.fps, h.framesize)
}
