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


package output

import (
	"fmt"
	"log"
	"time"

	cptv "github.com/TheCacophonyProject/go-cptv"
	"github.com/TheCacophonyProject/go-cptv/cptvframe"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/headers"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

// CPTV returns an Opener for a CPTV recording at path.
func CPTV(path string, camera *headers.HeaderInfo) Opener {
	return func(shape StackShape) (Sink, error) {
		return NewCPTVWriter(path, camera, shape)
	}
}

func NewCPTVWriter(path string, camera *headers.HeaderInfo, shape StackShape) (*CPTVWriter, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if camera.ResX() != shape.Cols || camera.ResY() != shape.Rows {
		return nil, fmt.Errorf("camera is %dx%d, stack is %dx%d", camera.ResX(), camera.ResY(), shape.Cols, shape.Rows)
	}
	writer, err := cptv.NewFileWriter(path, camera)
	if err != nil {
		return nil, err
	}
	return &CPTVWriter{
		camera: camera,
		shape:  shape,
		writer: writer,
		header: cptv.Header{
			DeviceName: camera.DeviceName(),
			FPS:        camera.FPS(),
			Brand:      camera.Brand(),
			Model:      camera.Model(),
		},
	}, nil
}

// CPTVWriter streams a stack into a CPTV recording. Frames must be
// written in order. CPTV has nowhere to keep raw indices or times
// beyond the frame count and time since start.
type CPTVWriter struct {
	camera      *headers.HeaderInfo
	shape       StackShape
	writer      *cptv.FileWriter
	header      cptv.Header
	kinetic     float64
	wroteHeader bool
	next        int64
}

func (w *CPTVWriter) Name() string {
	return w.writer.Name()
}

func (w *CPTVWriter) WriteFrame(j int64, f *dmc.Frame) error {
	if err := w.shape.checkFrame(j, f); err != nil {
		return err
	}
	if j != w.next {
		return fmt.Errorf("CPTV frames must be written in order, got %d, want %d", j, w.next)
	}
	if !w.wroteHeader {
		if err := w.writer.WriteHeader(w.header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	frame := &cptvframe.Frame{
		Pix: f.Rows2D(),
		Status: cptvframe.Telemetry{
			FrameCount: int(j),
			TimeOn:     time.Duration(float64(j) * w.kinetic * float64(time.Second)),
		},
	}
	if err := w.writer.WriteFrame(frame); err != nil {
		return err
	}
	w.next++
	return nil
}

func (w *CPTVWriter) WriteFrames(start int64, frames []*dmc.Frame) error {
	for i, f := range frames {
		if err := w.WriteFrame(start+int64(i), f); err != nil {
			return err
		}
	}
	return nil
}

func (w *CPTVWriter) WriteRawIndex(start int64, raw []int64) error {
	return w.shape.checkSpan(start, len(raw))
}

func (w *CPTVWriter) WriteTimes(start int64, ut1 []float64) error {
	return w.shape.checkSpan(start, len(ut1))
}

func (w *CPTVWriter) WriteParams(p Params) error {
	if w.wroteHeader {
		log.Printf("%s: header already written, dropping parameters", w.Name())
		return nil
	}
	w.kinetic = p.KineticSec
	return nil
}

func (w *CPTVWriter) WriteSensorLocation(loc location.SensorLocation) error {
	if w.wroteHeader {
		log.Printf("%s: header already written, dropping sensor location", w.Name())
		return nil
	}
	w.header.Latitude = float32(loc.Latitude)
	w.header.Longitude = float32(loc.Longitude)
	w.header.Altitude = float32(loc.Altitude)
	return nil
}

func (w *CPTVWriter) WriteCmdLog(string) error {
	return nil
}

func (w *CPTVWriter) WriteHeader(string) error {
	return nil
}

func (w *CPTVWriter) Close() error {
	if !w.wroteHeader {
		if err := w.writer.WriteHeader(w.header); err != nil {
			w.writer.Close()
			return err
		}
	}
	w.writer.Close()
	return nil
}
