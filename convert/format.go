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


package convert

import (
	"fmt"
	"strings"

	"github.com/TheCacophonyProject/dmc-converter/headers"
	"github.com/TheCacophonyProject/dmc-converter/output"
)

// Format is an output file format.
type Format string

const (
	FormatHDF5 Format = "h5"
	FormatFITS Format = "fits"
	FormatCPTV Format = "cptv"
)

// ParseFormat parses a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case "", "hdf5":
		return FormatHDF5, nil
	case FormatHDF5, FormatFITS, FormatCPTV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want h5, fits or cptv)", s)
}

// Suffix is the file name extension for the format.
func (f Format) Suffix() string {
	if f == "" {
		return "." + string(FormatHDF5)
	}
	return "." + string(f)
}

func (f Format) opener(path string, camera *headers.HeaderInfo) output.Opener {
	switch f {
	case FormatFITS:
		return output.FITS(path)
	case FormatCPTV:
		return output.CPTV(path, camera)
	default:
		return output.HDF5(path)
	}
}
