package mp4source

import (
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Info describes a probed media file without decoding any pixels.
type Info struct {
	Codec       Codec
	Width       int
	Height      int
	DurationSec float64
	Samples     int
	Keyframes   int
}

// Probe inspects an MP4 file and reports its video track properties.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}
	if !mp4File.IsFragmented() {
		return Info{}, ErrProgressiveNotSupported
	}

	trackID, timescale, codec, width, height, trex, err := videoTrackInfo(mp4File)
	if err != nil {
		return Info{}, err
	}

	samples, err := collectSamples(mp4File, trackID, timescale, trex)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Codec:   codec,
		Width:   width,
		Height:  height,
		Samples: len(samples),
	}
	for _, s := range samples {
		if s.keyframe {
			info.Keyframes++
		}
	}
	last := samples[len(samples)-1]
	info.DurationSec = float64(last.timestampMs+last.durationMs) / 1000
	return info, nil
}
