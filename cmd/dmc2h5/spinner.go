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
	"path/filepath"
	"time"

	"github.com/theckman/yacspin"
)

// spinner shows the progress of a batch on an interactive terminal.
type spinner struct {
	s        *yacspin.Spinner
	finished int
	files    int
}

func newSpinner(files int) (*spinner, error) {
	s, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		StopCharacter:     "done",
		StopFailCharacter: "failed",
	})
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return &spinner{s: s, files: files}, nil
}

// progress matches progress.Func.
func (sp *spinner) progress(name string, done, total int64) {
	sp.s.Message(fmt.Sprintf("file %d / %d: %s %d / %d frames", sp.finished+1, sp.files, filepath.Base(name), done, total))
}

func (sp *spinner) fileDone() {
	sp.finished++
}

func (sp *spinner) stop(err error) {
	if err != nil {
		sp.s.StopFailMessage(err.Error())
		sp.s.StopFail()
		return
	}
	sp.s.StopMessage(fmt.Sprintf("%d files", sp.files))
	sp.s.Stop()
}
