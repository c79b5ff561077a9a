// Package pcm reads decoded WAV audio and answers peak-amplitude queries for
// consecutive analysis windows.
package pcm

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"quietcut/internal/services"
)

const readFrames = 8192

// Sampler streams a WAV file forward and reports normalized window peaks.
// Requests for earlier positions reopen the file. A Sampler is not safe for
// concurrent use.
type Sampler struct {
	path     string
	file     *os.File
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	pending  []int
	pos      int64
	channels int
	rate     int
	full     float64
	eof      bool
}

// Open validates the WAV header at path and positions the reader at the
// first sample.
func Open(path string) (*Sampler, error) {
	s := &Sampler{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sampler) open() error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open wav: %w", err)
	}
	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		file.Close()
		return services.Wrap(services.ErrUndecodable, "pcm", "open", "not a valid wav file", nil)
	}
	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		file.Close()
		return services.Wrap(services.ErrUndecodable, "pcm", "open", fmt.Sprintf("unsupported bit depth %d", dec.BitDepth), nil)
	}
	if err := dec.FwdToPCM(); err != nil {
		file.Close()
		return services.Wrap(services.ErrUndecodable, "pcm", "open", "locate pcm data", err)
	}

	channels := max(int(dec.NumChans), 1)
	s.file = file
	s.dec = dec
	s.channels = channels
	s.rate = int(dec.SampleRate)
	s.full = math.Exp2(float64(dec.BitDepth) - 1)
	s.buf = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: s.rate},
		Data:   make([]int, readFrames*channels),
	}
	s.pending = nil
	s.pos = 0
	s.eof = false
	return nil
}

// SampleRate returns the frames per second of the decoded audio.
func (s *Sampler) SampleRate() int {
	return s.rate
}

// Duration returns the length of the PCM data in seconds.
func (s *Sampler) Duration() float64 {
	d, err := s.dec.Duration()
	if err != nil {
		return 0
	}
	return d.Seconds()
}

// Peak returns the largest absolute sample in [start, end) seconds, scaled to
// 0..1. Ranges past the end of the data contribute nothing.
func (s *Sampler) Peak(ctx context.Context, start, end float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	startFrame := s.frame(start)
	endFrame := s.frame(end)
	if endFrame <= startFrame {
		return 0, nil
	}
	if startFrame < s.pos {
		if err := s.reopen(); err != nil {
			return 0, err
		}
	}

	peak := 0
	for s.pos < endFrame {
		if len(s.pending) < s.channels {
			if s.eof {
				break
			}
			if err := s.fill(); err != nil {
				return 0, err
			}
			continue
		}
		frames := int64(len(s.pending) / s.channels)
		if s.pos < startFrame {
			s.consume(min(frames, startFrame-s.pos))
			continue
		}
		take := min(frames, endFrame-s.pos)
		for _, v := range s.pending[:take*int64(s.channels)] {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		s.consume(take)
	}
	return math.Min(float64(peak)/s.full, 1), nil
}

// Close releases the underlying file.
func (s *Sampler) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *Sampler) frame(seconds float64) int64 {
	return int64(math.Round(seconds * float64(s.rate)))
}

func (s *Sampler) fill() error {
	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil {
		return services.Wrap(services.ErrUndecodable, "pcm", "read", "decode samples", err)
	}
	if n == 0 {
		s.eof = true
		s.pending = nil
		return nil
	}
	s.pending = s.buf.Data[:n]
	return nil
}

func (s *Sampler) consume(frames int64) {
	s.pending = s.pending[frames*int64(s.channels):]
	s.pos += frames
}

func (s *Sampler) reopen() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return s.open()
}
