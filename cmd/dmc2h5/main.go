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


package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"

	"github.com/TheCacophonyProject/dmc-converter/convert"
	"github.com/TheCacophonyProject/dmc-converter/headers"
	"github.com/TheCacophonyProject/dmc-converter/location"
	"github.com/TheCacophonyProject/dmc-converter/timing"
)

var version = "<not set>"

type Args struct {
	Input        string    `arg:"positional,required" help:"DMCdata file, or directory of .DMCdata and .dat files"`
	Out          string    `arg:"-o,--out" help:"output file or directory, nothing is written if empty"`
	Pix          []int     `arg:"-p,--pix" help:"sensor pixels NX NY"`
	Bin          []int     `arg:"-b,--bin" help:"binning BX BY, or one value for both"`
	Frames       []int64   `arg:"-f,--frames" help:"STEP; START STOP counted from 0, STOP excluded; or START STOP STEP counted from 1"`
	UT1          []string  `arg:"-t,--ut1" help:"UT1 times to extract: START STOP for every frame between, or a list of times. Unix seconds or ISO 8601"`
	Start        string    `arg:"-s,--start" help:"time of the first frame, ISO 8601 or Unix seconds"`
	Kinetic      float64   `arg:"-k,--kinetic" help:"frame period in seconds"`
	RotCCW       int       `arg:"--rotccw" help:"quarter turns counterclockwise needed to display"`
	Transpose    bool      `arg:"--transpose" help:"images need transposing to display"`
	FlipUD       bool      `arg:"--flipud" help:"images need flipping up/down to display"`
	FlipLR       bool      `arg:"--fliplr" help:"images need flipping left/right to display"`
	Loc          []float64 `arg:"-l,--loc" help:"sensor location LAT LON ALT_M"`
	HeaderBytes  int       `arg:"--headerbytes" help:"bytes of metadata after each image, 4 for DMCdata, 0 for old files"`
	Format       string    `arg:"--format" help:"output format: h5, fits or cptv"`
	XML          string    `arg:"--xml" help:"experiment XML file to take geometry and kinetic from"`
	ConfigFile   string    `arg:"-c,--config" help:"path to configuration file"`
	DeviceConfig string    `arg:"--device-config" help:"device configuration directory to take the location from"`
	MaxReadRate  int64     `arg:"--max-read-rate" help:"maximum input read rate in bytes per second"`
	Exploratory  bool      `arg:"--exploratory" help:"use --frames when --ut1 misses the recording"`
	Events       bool      `arg:"--events" help:"queue an event for every converted file"`
	Spinner      bool      `arg:"--spinner" help:"show a progress spinner"`
	Timestamps   bool      `arg:"--timestamps" help:"include timestamps in log output"`
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "convert raw DMC camera recordings to HDF5, FITS or CPTV image stacks"
}

func procArgs() Args {
	var args Args
	args.HeaderBytes = -1
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	logConfig(conf)

	p, format, err := buildParams(args, conf)
	if err != nil {
		return err
	}
	p.CmdLog = strings.Join(os.Args, " ")

	if args.Out == "" {
		res, err := convert.Read(args.Input, "", p, convert.Options{Format: format})
		if err != nil {
			return err
		}
		logResult(res)
		return nil
	}

	files, err := convert.Inputs(args.Input)
	if err != nil {
		return err
	}

	opts := convert.Options{Format: format}
	var sp *spinner
	if args.Spinner {
		sp, err = newSpinner(len(files))
		if err != nil {
			return err
		}
		opts.Progress = sp.progress
	}
	var events eventRecorder
	if args.Events {
		events = newDBusEventRecorder()
	}
	opts.Done = func(in string, res *convert.Result, err error) {
		now := time.Now()
		if sp != nil {
			sp.fileDone()
		}
		if err != nil {
			if events != nil {
				events.Failed(in, err, now)
			}
			return
		}
		if events != nil {
			events.Converted(in, res.Output, res.Frames, now)
		}
		daemon.SdNotify(false, fmt.Sprintf("STATUS=converted %s", filepath.Base(in)))
	}

	daemon.SdNotify(false, "READY=1")
	res, err := convert.Batch(args.Input, args.Out, p, opts)
	if sp != nil {
		sp.stop(err)
	}
	if res != nil {
		log.Printf("%d converted, %d skipped, %d failed", len(res.Converted), len(res.Skipped), len(res.Failed))
	}
	return err
}

// buildParams works out the conversion settings, with flags taking
// priority over the experiment XML, which takes priority over the
// config file.
func buildParams(args Args, conf *Config) (convert.Params, convert.Format, error) {
	p := convert.DefaultParams()
	p.Geometry = conf.Geometry
	p.KineticSec = conf.KineticSec
	p.RotCCW = conf.Orientation.RotCCW
	p.Transpose = conf.Orientation.Transpose
	p.FlipUD = conf.Orientation.FlipUD
	p.FlipLR = conf.Orientation.FlipLR
	p.MinFreeBytes = conf.MinFreeBytes
	p.MaxReadRate = conf.MaxReadRate
	p.Exploratory = args.Exploratory

	if args.XML != "" {
		sc, err := headers.ReadSidecar(args.XML)
		if err != nil {
			return p, "", err
		}
		p.Geometry = sc.Geometry(p.Geometry)
		if sc.KineticSec > 0 {
			p.KineticSec = sc.KineticSec
		}
	}

	switch len(args.Pix) {
	case 0:
	case 2:
		p.Geometry.PixelsX, p.Geometry.PixelsY = args.Pix[0], args.Pix[1]
	default:
		return p, "", errors.New("--pix needs two values, NX NY")
	}
	switch len(args.Bin) {
	case 0:
	case 1:
		p.Geometry.BinX, p.Geometry.BinY = args.Bin[0], args.Bin[0]
	case 2:
		p.Geometry.BinX, p.Geometry.BinY = args.Bin[0], args.Bin[1]
	default:
		return p, "", errors.New("--bin needs one or two values")
	}
	if args.HeaderBytes >= 0 {
		p.Geometry.HeaderBytes = args.HeaderBytes
	}
	if args.Kinetic > 0 {
		p.KineticSec = args.Kinetic
	}
	if args.RotCCW != 0 {
		p.RotCCW = args.RotCCW
	}
	p.Transpose = p.Transpose || args.Transpose
	p.FlipUD = p.FlipUD || args.FlipUD
	p.FlipLR = p.FlipLR || args.FlipLR
	if args.MaxReadRate > 0 {
		p.MaxReadRate = args.MaxReadRate
	}

	loc, err := sensorLocation(args, conf)
	if err != nil {
		return p, "", err
	}
	p.SensorLocation = loc

	if args.Start != "" {
		start, err := timing.ParseStart(args.Start)
		if err != nil {
			return p, "", err
		}
		p.Start = start
	}
	if len(args.UT1) > 0 {
		times, err := parseTimes(args.UT1)
		if err != nil {
			return p, "", err
		}
		p.TimeRequest = times
	}
	p.FrameRequest = args.Frames

	format := conf.Format
	if args.Format != "" {
		format, err = convert.ParseFormat(args.Format)
		if err != nil {
			return p, "", err
		}
	}
	if err := p.Validate(); err != nil {
		return p, "", err
	}
	return p, format, nil
}

func sensorLocation(args Args, conf *Config) (*location.SensorLocation, error) {
	if len(args.Loc) > 0 {
		return location.FromSlice(args.Loc)
	}
	if conf.Location != nil {
		return conf.Location, nil
	}
	dir := args.DeviceConfig
	if dir == "" {
		dir = conf.DeviceConfig
	}
	if dir == "" {
		return nil, nil
	}
	return location.FromDeviceConfig(dir)
}

// parseTimes parses each time as Unix seconds, or failing that as an
// ISO 8601 time.
func parseTimes(ss []string) ([]float64, error) {
	times := make([]float64, len(ss))
	for i, s := range ss {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			times[i] = v
			continue
		}
		t, err := timing.ParseStart(s)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q", s)
		}
		times[i] = timing.UnixSeconds(t)
	}
	return times, nil
}

func logResult(res *convert.Result) {
	log.Printf("read %d frames from %s in %s", res.Frames, res.Input, res.Elapsed.Round(time.Millisecond))
	if n := len(res.RawIndex); n > 0 {
		log.Printf("raw index %d to %d", res.RawIndex[0], res.RawIndex[n-1])
	}
	if n := len(res.UT1); n > 0 {
		log.Printf("UT1 %s to %s",
			timing.UnixTime(res.UT1[0]).Format(time.RFC3339Nano),
			timing.UnixTime(res.UT1[n-1]).Format(time.RFC3339Nano))
	}
}
