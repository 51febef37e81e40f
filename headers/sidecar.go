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


package headers

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TheCacophonyProject/dmc-converter/dmc"
)

// Labels in the experiment XML written next to each recording. The
// value of a label is the text of the element that follows it.
const (
	labelBinning = "Binning (H x V)"
	labelPixelsH = "ROI H Pixels"
	labelPixelsV = "ROI V Pixels"
	labelFreq    = "Freq"
)

// Sidecar holds the camera settings read from an experiment XML file.
// Zero fields were not present.
type Sidecar struct {
	Binning    int
	PixelsX    int
	PixelsY    int
	PulseFreq  float64
	KineticSec float64
}

// ReadSidecar parses the experiment XML file at path.
func ReadSidecar(path string) (*Sidecar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ParseSidecar(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	return s, nil
}

// ParseSidecar parses experiment XML from r.
func ParseSidecar(r io.Reader) (*Sidecar, error) {
	texts, err := elementTexts(r)
	if err != nil {
		return nil, err
	}

	s := new(Sidecar)
	for i := 0; i < len(texts)-1; i++ {
		value := texts[i+1]
		switch texts[i] {
		case labelBinning:
			s.Binning, err = strconv.Atoi(value)
		case labelPixelsH:
			s.PixelsX, err = strconv.Atoi(value)
		case labelPixelsV:
			s.PixelsY, err = strconv.Atoi(value)
		case labelFreq:
			s.PulseFreq, err = strconv.ParseFloat(value, 64)
			if err == nil && s.PulseFreq > 0 {
				s.KineticSec = 1 / s.PulseFreq
			}
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("bad value %q for %q: %v", value, texts[i], err)
		}
		i++
	}
	return s, nil
}

// Geometry returns g with the settings found in the sidecar applied.
// The binning applies to both axes.
func (s *Sidecar) Geometry(g dmc.Geometry) dmc.Geometry {
	if s.Binning > 0 {
		g.BinX = s.Binning
		g.BinY = s.Binning
	}
	if s.PixelsX > 0 {
		g.PixelsX = s.PixelsX
	}
	if s.PixelsY > 0 {
		g.PixelsY = s.PixelsY
	}
	return g
}

// elementTexts returns the trimmed text of every element in document
// order.
func elementTexts(r io.Reader) ([]string, error) {
	var (
		texts []string
		open  []int
	)
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			open = append(open, len(texts))
			texts = append(texts, "")
		case xml.EndElement:
			if n := len(open); n > 0 {
				idx := open[n-1]
				texts[idx] = strings.TrimSpace(texts[idx])
				open = open[:n-1]
			}
		case xml.CharData:
			if n := len(open); n > 0 {
				texts[open[n-1]] += string(t)
			}
		}
	}
	return texts, nil
}
