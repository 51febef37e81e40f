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


package location

import (
	"errors"
	"fmt"

	config "github.com/TheCacophonyProject/go-config"
)

const (
	maxLatitude  = 90
	maxLongitude = 180
)

// SensorLocation is the WGS-84 position of the camera.
type SensorLocation struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
}

// FromSlice builds a location from [lat, lon, alt] as given on the
// command line.
func FromSlice(v []float64) (*SensorLocation, error) {
	if len(v) != 3 {
		return nil, fmt.Errorf("location needs latitude, longitude and altitude, got %d values", len(v))
	}
	loc := &SensorLocation{
		Latitude:  v[0],
		Longitude: v[1],
		Altitude:  v[2],
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return loc, nil
}

// FromDeviceConfig reads the location stored in the device
// configuration directory. It returns nil if no location is set.
func FromDeviceConfig(dir string) (*SensorLocation, error) {
	conf, err := config.New(dir)
	if err != nil {
		return nil, err
	}
	var loc config.Location
	if err := conf.Unmarshal(config.LocationKey, &loc); err != nil {
		return nil, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil, nil
	}
	out := &SensorLocation{
		Latitude:  float64(loc.Latitude),
		Longitude: float64(loc.Longitude),
		Altitude:  float64(loc.Altitude),
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (loc *SensorLocation) IsEmpty() bool {
	return loc.Latitude == 0 && loc.Longitude == 0
}

func (loc *SensorLocation) Validate() error {
	if loc.Latitude < -maxLatitude || loc.Latitude > maxLatitude {
		return errors.New("latitude outside of normal range")
	}
	if loc.Longitude < -maxLongitude || loc.Longitude > maxLongitude {
		return errors.New("longitude outside of normal range")
	}
	// Altitude is metres above the ellipsoid and may be negative.
	return nil
}

func (loc SensorLocation) String() string {
	return fmt.Sprintf("%.5f, %.5f, %.0f m", loc.Latitude, loc.Longitude, loc.Altitude)
}
