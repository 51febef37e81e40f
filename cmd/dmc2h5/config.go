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
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/dmc-converter/convert"
	"github.com/TheCacophonyProject/dmc-converter/dmc"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

// Config holds the conversion defaults for a site. Command line flags
// override it.
type Config struct {
	Geometry     dmc.Geometry
	KineticSec   float64
	Orientation  OrientationConfig
	Format       convert.Format
	MinFreeBytes int64
	MaxReadRate  int64
	Location     *location.SensorLocation
	DeviceConfig string
}

type OrientationConfig struct {
	RotCCW    int  `yaml:"rotccw"`
	Transpose bool `yaml:"transpose"`
	FlipUD    bool `yaml:"flipud"`
	FlipLR    bool `yaml:"fliplr"`
}

func (conf *Config) Validate() error {
	if err := conf.Geometry.Validate(); err != nil {
		return err
	}
	if conf.KineticSec < 0 {
		return errors.New("kinetic should not be negative")
	}
	if conf.MinFreeBytes < 0 {
		return errors.New("min-free-bytes should not be negative")
	}
	if conf.MaxReadRate < 0 {
		return errors.New("max-read-rate should not be negative")
	}
	if conf.Location != nil {
		if err := conf.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type rawConfig struct {
	Pixels       []int                    `yaml:"pixels"`
	Binning      []int                    `yaml:"binning"`
	HeaderBytes  int                      `yaml:"header-bytes"`
	Kinetic      float64                  `yaml:"kinetic"`
	Orientation  OrientationConfig        `yaml:"orientation"`
	Format       string                   `yaml:"format"`
	MinFreeBytes int64                    `yaml:"min-free-bytes"`
	MaxReadRate  int64                    `yaml:"max-read-rate"`
	Location     *location.SensorLocation `yaml:"location"`
	DeviceConfig string                   `yaml:"device-config"`
}

var defaultConfig = rawConfig{
	Pixels:       []int{512, 512},
	Binning:      []int{1, 1},
	HeaderBytes:  dmc.HeaderBytesV1,
	Format:       string(convert.FormatHDF5),
	MinFreeBytes: convert.DefaultMinFreeBytes,
}

// ParseConfigFile reads the config file at filename. An empty
// filename gives the defaults.
func ParseConfigFile(filename string) (*Config, error) {
	if filename == "" {
		return ParseConfig(nil)
	}
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	raw := defaultConfig
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, err
	}

	if len(raw.Pixels) != 2 {
		return nil, errors.New("pixels should be two values, x and y")
	}
	if len(raw.Binning) != 2 {
		return nil, errors.New("binning should be two values, x and y")
	}
	format, err := convert.ParseFormat(raw.Format)
	if err != nil {
		return nil, err
	}

	conf := &Config{
		Geometry: dmc.Geometry{
			PixelsX:     raw.Pixels[0],
			PixelsY:     raw.Pixels[1],
			BinX:        raw.Binning[0],
			BinY:        raw.Binning[1],
			HeaderBytes: raw.HeaderBytes,
		},
		KineticSec:   raw.Kinetic,
		Orientation:  raw.Orientation,
		Format:       format,
		MinFreeBytes: raw.MinFreeBytes,
		MaxReadRate:  raw.MaxReadRate,
		Location:     raw.Location,
		DeviceConfig: raw.DeviceConfig,
	}
	if conf.Location != nil && conf.Location.IsEmpty() {
		conf.Location = nil
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func logConfig(conf *Config) {
	log.Printf("geometry: %dx%d pixels, %dx%d binning, %d header bytes",
		conf.Geometry.PixelsX, conf.Geometry.PixelsY, conf.Geometry.BinX, conf.Geometry.BinY, conf.Geometry.HeaderBytes)
	if conf.KineticSec > 0 {
		log.Printf("kinetic: %gs", conf.KineticSec)
	}
	log.Printf("format: %s", conf.Format)
	log.Printf("min free space: %.1f GB", float64(conf.MinFreeBytes)/1e9)
	if conf.MaxReadRate > 0 {
		log.Printf("max read rate: %.1f MB/s", float64(conf.MaxReadRate)/1e6)
	}
	if conf.Location != nil {
		log.Printf("location: %s", conf.Location)
	}
}
