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
	"path/filepath"
	"regexp"
	"strconv"
)

var reSerial = regexp.MustCompile(`CamSer(\d{3,6})`)

// SerialNumber extracts the camera serial number that the
// acquisition software puts in each file name, e.g.
// 2013-04-14T07-00-CamSer7196.DMCdata.
func SerialNumber(path string) (int, bool) {
	m := reSerial.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	sn, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return sn, true
}
