// Package mp4source provides a ports.MediaSource backed by an MP4
// container. It demuxes the video track into a sample index up front;
// the iterator then supports cheap sequential advance and
// keyframe-aware seeks. Pixel decoding is delegated to an injected
// ports.SampleDecoder.
package mp4source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/previewcache/pkg/ports"
)

var (
	// ErrUnsupportedCodec is returned when the video track's codec has
	// no decoder. The cursor manager records this as a permanent
	// per-media failure.
	ErrUnsupportedCodec = errors.New("mp4source: unsupported codec")
	// ErrNoVideoTrack is returned when the container has no video
	// track.
	ErrNoVideoTrack = errors.New("mp4source: no video track found")
	// ErrProgressiveNotSupported is returned for non-fragmented MP4
	// files.
	ErrProgressiveNotSupported = errors.New("mp4source: progressive MP4 not supported, use fragmented MP4")
)

// Codec identifies the video codec of the source track.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// DecoderFactory produces a fresh SampleDecoder per iterator for the
// detected codec.
type DecoderFactory func(codec Codec) (ports.SampleDecoder, error)

// sample is one encoded video sample with timing.
type sample struct {
	data        []byte
	timestampMs int
	durationMs  int
	keyframe    bool
}

// Source implements ports.MediaSource for a fragmented MP4 file.
type Source struct {
	path    string
	factory DecoderFactory

	mu       sync.Mutex
	samples  []sample
	codec    Codec
	width    int
	height   int
	duration float64
	indexed  bool
}

// New creates a Source for path. The factory is invoked on open with
// the detected codec.
func New(path string, factory DecoderFactory) *Source {
	return &Source{path: path, factory: factory}
}

// DurationSec returns the indexed duration, or zero before the first
// open.
func (s *Source) DurationSec() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Codec returns the detected codec, or CodecUnknown before the first
// open.
func (s *Source) Codec() Codec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec
}

// OpenIterator builds the sample index if needed, validates the codec
// and starts a decode pass at the beginning of the track.
func (s *Source) OpenIterator(ctx context.Context, pool ports.BufferPool) (ports.FrameIterator, error) {
	if err := s.index(); err != nil {
		return nil, err
	}

	dec, err := s.factory(s.codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, s.codec)
	}

	return &iterator{
		samples: s.samples,
		dec:     dec,
		pool:    pool,
		width:   s.width,
		height:  s.height,
	}, nil
}

// index parses the container once and caches the sample table.
func (s *Source) index() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed {
		return nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return fmt.Errorf("decode mp4: %w", err)
	}

	if !mp4File.IsFragmented() {
		return ErrProgressiveNotSupported
	}

	trackID, timescale, codec, width, height, trex, err := videoTrackInfo(mp4File)
	if err != nil {
		return err
	}
	if codec == CodecUnknown {
		return fmt.Errorf("%w: track %d", ErrUnsupportedCodec, trackID)
	}

	samples, err := collectSamples(mp4File, trackID, timescale, trex)
	if err != nil {
		return err
	}

	s.samples = samples
	s.codec = codec
	s.width = width
	s.height = height
	if n := len(samples); n > 0 {
		last := samples[n-1]
		s.duration = float64(last.timestampMs+last.durationMs) / 1000
	}
	s.indexed = true
	return nil
}

// videoTrackInfo locates the video track and its codec, dimensions,
// timescale and trex defaults.
func videoTrackInfo(mp4File *mp4.File) (trackID, timescale uint32, codec Codec, width, height int, trex *mp4.TrexBox, err error) {
	timescale = 1000
	codec = CodecUnknown

	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		err = ErrNoVideoTrack
		return
	}
	for _, trak := range mp4File.Init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		trackID = trak.Tkhd.TrackID
		width = int(trak.Tkhd.Width >> 16)
		height = int(trak.Tkhd.Height >> 16)
		if trak.Mdia.Mdhd != nil {
			timescale = trak.Mdia.Mdhd.Timescale
		}
		codec = trackCodec(trak)
		break
	}
	if trackID == 0 {
		err = ErrNoVideoTrack
		return
	}
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}
	return
}

// trackCodec reads the codec from the track's sample description.
func trackCodec(trak *mp4.TrakBox) Codec {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "av01":
			return CodecAV1
		}
	}
	return CodecUnknown
}

// collectSamples walks every fragment of the video track and flattens
// its samples into one time-ordered index.
func collectSamples(mp4File *mp4.File, trackID, timescale uint32, trex *mp4.TrexBox) ([]sample, error) {
	var samples []sample

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}

				var baseDecodeTime uint64
				if traf.Tfdt != nil {
					baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}

				full, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}

				currentTime := baseDecodeTime
				for _, fs := range full {
					samples = append(samples, sample{
						data:        fs.Data,
						timestampMs: int(currentTime * 1000 / uint64(timescale)),
						durationMs:  int(uint64(fs.Dur) * 1000 / uint64(timescale)),
						keyframe:    fs.Flags == mp4.SyncSampleFlags,
					})
					currentTime += uint64(fs.Dur)
				}
			}
		}
	}

	if len(samples) == 0 {
		return nil, ErrNoVideoTrack
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].timestampMs < samples[j].timestampMs
	})
	return samples, nil
}

// Ensure Source implements ports.MediaSource
var _ ports.MediaSource = (*Source)(nil)
