package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/dmc-converter/convert"
	"github.com/TheCacophonyProject/dmc-converter/location"
)

func defaultArgs() Args {
	return Args{HeaderBytes: -1}
}

func defaultConf(t *testing.T) *Config {
	conf, err := ParseConfig(nil)
	require.NoError(t, err)
	return conf
}

func TestBuildParamsDefaults(t *testing.T) {
	p, format, err := buildParams(defaultArgs(), defaultConf(t))
	require.NoError(t, err)
	assert.Equal(t, convert.FormatHDF5, format)
	assert.Equal(t, convert.DefaultParams(), p)
}

func TestBuildParamsFlags(t *testing.T) {
	args := defaultArgs()
	args.Pix = []int{2560, 2160}
	args.Bin = []int{4}
	args.HeaderBytes = 0
	args.Kinetic = 0.02
	args.RotCCW = 2
	args.FlipLR = true
	args.Loc = []float64{65.12, -147.43, 689}
	args.Start = "2013-04-14T07:00:00Z"
	args.Frames = []int64{1, 100, 2}
	args.Format = "cptv"
	args.MaxReadRate = 1000

	p, format, err := buildParams(args, defaultConf(t))
	require.NoError(t, err)
	assert.Equal(t, convert.FormatCPTV, format)
	assert.Equal(t, 2560, p.Geometry.PixelsX)
	assert.Equal(t, 2160, p.Geometry.PixelsY)
	assert.Equal(t, 4, p.Geometry.BinX)
	assert.Equal(t, 4, p.Geometry.BinY)
	assert.Equal(t, 0, p.Geometry.HeaderBytes)
	assert.Equal(t, 0.02, p.KineticSec)
	assert.Equal(t, 2, p.RotCCW)
	assert.True(t, p.FlipLR)
	assert.False(t, p.FlipUD)
	assert.Equal(t, &location.SensorLocation{Latitude: 65.12, Longitude: -147.43, Altitude: 689}, p.SensorLocation)
	assert.Equal(t, time.Date(2013, 4, 14, 7, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, []int64{1, 100, 2}, p.FrameRequest)
	assert.Equal(t, int64(1000), p.MaxReadRate)
}

func TestBuildParamsFlagsOverrideConfig(t *testing.T) {
	conf, err := ParseConfig([]byte("kinetic: 0.5\nformat: fits\norientation:\n    rotccw: 1\n"))
	require.NoError(t, err)

	p, format, err := buildParams(defaultArgs(), conf)
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.KineticSec)
	assert.Equal(t, 1, p.RotCCW)
	assert.Equal(t, convert.FormatFITS, format)

	args := defaultArgs()
	args.Kinetic = 0.25
	args.Format = "h5"
	p, format, err = buildParams(args, conf)
	require.NoError(t, err)
	assert.Equal(t, 0.25, p.KineticSec)
	assert.Equal(t, convert.FormatHDF5, format)
}

func TestBuildParamsXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.xml")
	xml := `<Cluster>
<String><Name>Binning (H x V)</Name><Val>2</Val></String>
<String><Name>ROI H Pixels</Name><Val>1024</Val></String>
<String><Name>ROI V Pixels</Name><Val>512</Val></String>
<String><Name>Freq</Name><Val>50</Val></String>
</Cluster>`
	require.NoError(t, ioutil.WriteFile(path, []byte(xml), 0644))

	args := defaultArgs()
	args.XML = path
	p, _, err := buildParams(args, defaultConf(t))
	require.NoError(t, err)
	assert.Equal(t, 1024, p.Geometry.PixelsX)
	assert.Equal(t, 512, p.Geometry.PixelsY)
	assert.Equal(t, 2, p.Geometry.BinX)
	assert.Equal(t, 2, p.Geometry.BinY)
	assert.InDelta(t, 0.02, p.KineticSec, 1e-12)

	// Flags still win.
	args.Kinetic = 0.1
	p, _, err = buildParams(args, defaultConf(t))
	require.NoError(t, err)
	assert.Equal(t, 0.1, p.KineticSec)
}

func TestBuildParamsBadValues(t *testing.T) {
	cases := map[string]func(*Args){
		"one pixel value":    func(a *Args) { a.Pix = []int{512} },
		"three bin values":   func(a *Args) { a.Bin = []int{1, 1, 1} },
		"bad start":          func(a *Args) { a.Start = "yesterday" },
		"bad time":           func(a *Args) { a.UT1 = []string{"soon"} },
		"bad format":         func(a *Args) { a.Format = "png" },
		"bad location":       func(a *Args) { a.Loc = []float64{1, 2} },
		"frames and times":   func(a *Args) { a.Frames, a.UT1 = []int64{1}, []string{"1", "2"} },
		"uneven binning":     func(a *Args) { a.Bin = []int{3} },
		"missing xml":        func(a *Args) { a.XML = "/nonexistent/experiment.xml" },
		"odd header bytes":   func(a *Args) { a.HeaderBytes = 3 },
		"latitude too large": func(a *Args) { a.Loc = []float64{91, 0, 0} },
	}
	for name, modify := range cases {
		args := defaultArgs()
		modify(&args)
		_, _, err := buildParams(args, defaultConf(t))
		assert.Error(t, err, name)
	}
}

func TestBuildParamsFramesAndTimesExploratory(t *testing.T) {
	args := defaultArgs()
	args.Frames = []int64{1}
	args.UT1 = []string{"1365922800", "1365922900"}
	args.Exploratory = true

	p, _, err := buildParams(args, defaultConf(t))
	require.NoError(t, err)
	assert.True(t, p.Exploratory)
	assert.Equal(t, []float64{1365922800, 1365922900}, p.TimeRequest)
}

func TestParseTimes(t *testing.T) {
	times, err := parseTimes([]string{"1365922800.5", "2013-04-14T07:00:01Z", "2013-04-14T07:00:02"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1365922800.5, 1365922801, 1365922802}, times)
}

func TestSensorLocationFromDeviceConfig(t *testing.T) {
	dir := t.TempDir()
	toml := "[location]\nlatitude = -43.5\nlongitude = 172.6\naltitude = 20.0\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644))

	args := defaultArgs()
	args.DeviceConfig = dir
	loc, err := sensorLocation(args, defaultConf(t))
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, -43.5, loc.Latitude, 1e-5)
	assert.InDelta(t, 172.6, loc.Longitude, 1e-5)

	// The command line wins.
	args.Loc = []float64{65, -147, 689}
	loc, err = sensorLocation(args, defaultConf(t))
	require.NoError(t, err)
	assert.Equal(t, 65.0, loc.Latitude)
}
