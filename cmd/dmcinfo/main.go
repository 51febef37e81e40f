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
	"fmt"
	"io"
	"log"
	"os"
	"time"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/dmc-converter/convert"
	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/timing"
)

var version = "<not set>"

type Args struct {
	Inputs      []string `arg:"positional,required" help:"DMCdata files or directories of them"`
	Pix         []int    `arg:"-p,--pix" help:"sensor pixels NX NY"`
	Bin         []int    `arg:"-b,--bin" help:"binning BX BY"`
	HeaderBytes int      `arg:"--headerbytes" help:"bytes of metadata after each image"`
	Start       string   `arg:"-s,--start" help:"time of the first frame, ISO 8601 or Unix seconds"`
	Kinetic     float64  `arg:"-k,--kinetic" help:"frame period in seconds"`
	Timestamps  bool     `arg:"--timestamps" help:"include timestamps in log output"`
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "show the frame span of DMC camera recordings"
}

func procArgs() Args {
	args := Args{
		Pix:         []int{512, 512},
		Bin:         []int{1, 1},
		HeaderBytes: dmc.HeaderBytesV1,
	}
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
		log.SetFlags(0)
	}

	l, start, err := parseArgs(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, in := range args.Inputs {
		files, err := convert.Inputs(in)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := printInfo(os.Stdout, file, l, start, args.Kinetic); err != nil {
				log.Printf("%s: %v", file, err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d files could not be read", failed)
	}
	return nil
}

func parseArgs(args Args) (dmc.Layout, time.Time, error) {
	var start time.Time
	if len(args.Pix) != 2 || len(args.Bin) != 2 {
		return dmc.Layout{}, start, fmt.Errorf("--pix and --bin need two values each")
	}
	l, err := dmc.NewLayout(dmc.Geometry{
		PixelsX:     args.Pix[0],
		PixelsY:     args.Pix[1],
		BinX:        args.Bin[0],
		BinY:        args.Bin[1],
		HeaderBytes: args.HeaderBytes,
	})
	if err != nil {
		return l, start, err
	}
	if args.Start != "" {
		start, err = timing.ParseStart(args.Start)
	}
	return l, start, err
}

func printInfo(w io.Writer, path string, l dmc.Layout, start time.Time, kinetic float64) error {
	span, err := dmc.ProbeSpan(path, l)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  size:       %.3f GB\n", float64(span.SizeBytes)/1e9)
	fmt.Fprintf(w, "  frames:     %d\n", span.Frames)
	fmt.Fprintf(w, "  raw index:  %d to %d\n", span.FirstRawIndex, span.LastRawIndex)
	fmt.Fprintf(w, "  dropped:    %d\n", span.DroppedFrames())

	ut1, ok := timing.FrameTimes(start, kinetic, []int64{span.FirstRawIndex, span.LastRawIndex})
	if ok {
		first, last := timing.UnixTime(ut1[0]), timing.UnixTime(ut1[1])
		fmt.Fprintf(w, "  time:       %s to %s (%s)\n",
			first.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano), last.Sub(first))
	}
	return nil
}
