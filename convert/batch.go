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
	"log"
	"os"
	"path/filepath"
	"sort"
)

// BatchResult counts what a batch did.
type BatchResult struct {
	Converted []*Result
	Skipped   []string
	Failed    []string
}

// Inputs lists the recordings to convert. A file is returned as is.
// For a directory, its .DMCdata files come first, then its .dat files,
// each sorted by name.
func Inputs(in string) ([]string, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{in}, nil
	}
	var files []string
	for _, pattern := range []string{"*.DMCdata", "*.dat"} {
		matches, err := filepath.Glob(filepath.Join(in, pattern))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .DMCdata or .dat files in %s", in)
	}
	return files, nil
}

// Batch converts in, a recording or a directory of them, into out.
// Files whose output already exists are skipped. A single file's
// error is returned directly. In a directory, failed files are logged
// and the rest still converted, and an error summarises the failures.
func Batch(in, out string, p Params, opts Options) (*BatchResult, error) {
	if out == "" {
		return nil, errors.New("no output file or directory given")
	}
	files, err := Inputs(in)
	if err != nil {
		return nil, err
	}
	single := len(files) == 1 && files[0] == in

	res := new(BatchResult)
	for i, file := range files {
		name, err := OutputName(out, file, opts.Format.Suffix())
		if err == nil {
			if _, statErr := os.Stat(name); statErr == nil {
				log.Printf("skipping %s, %s exists", file, name)
				res.Skipped = append(res.Skipped, file)
				continue
			}
			log.Printf("file %d / %d, %.1f%% done with %s", i+1, len(files), 100*float64(i)/float64(len(files)), in)
			var r *Result
			r, err = Read(file, name, p, opts)
			if err == nil {
				res.Converted = append(res.Converted, r)
			}
			if opts.Done != nil {
				opts.Done(file, r, err)
			}
		}
		if err != nil {
			if single {
				return res, err
			}
			log.Printf("error converting %s: %v", file, err)
			res.Failed = append(res.Failed, file)
		}
	}

	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d of %d files failed to convert", len(res.Failed), len(files))
	}
	return res, nil
}
