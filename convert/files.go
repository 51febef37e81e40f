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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrInsufficientSpace is returned when a conversion would leave too
// little free space on the output drive.
var ErrInsufficientSpace = errors.New("not enough free disk space")

// checkDiskSpace fails if writing need bytes to dir would leave less
// than min bytes free.
func checkDiskSpace(dir string, need, min int64) error {
	// Resolve links so external drives mounted through them are checked.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	free, err := freeBytes(dir)
	if err != nil {
		return fmt.Errorf("problem with checking disk space: %v", err)
	}
	if free-need < min {
		return fmt.Errorf("low disk space on %s: %.1f GB free, wanting to write %.2f GB: %w",
			dir, float64(free)/1e9, float64(need)/1e9, ErrInsufficientSpace)
	}
	return nil
}

func freeBytes(dir string) (int64, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dir, &fs); err != nil {
		return 0, err
	}
	return int64(fs.Bavail) * int64(fs.Bsize), nil
}

// OutputName returns the file to write the conversion of in to. If
// out ends in suffix it is the file name, otherwise it is a directory,
// created if needed, and the file is named after in. The input file is
// never returned.
func OutputName(out, in, suffix string) (string, error) {
	inInfo, err := os.Stat(in)
	if err != nil {
		return "", err
	}
	if !inInfo.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", in)
	}

	name := out
	if filepath.Ext(out) != suffix {
		if err := os.MkdirAll(out, 0755); err != nil {
			return "", err
		}
		base := filepath.Base(in)
		name = filepath.Join(out, base[:len(base)-len(filepath.Ext(base))]+suffix)
	}

	if outInfo, err := os.Stat(name); err == nil && os.SameFile(inInfo, outInfo) {
		return "", fmt.Errorf("refusing to overwrite input file %s", in)
	}
	return name, nil
}
