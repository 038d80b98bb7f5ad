// Package audio provides WAV file decoding for the analysis pipeline.
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
}

// DecodeError reports audio that could not be parsed: unsupported format,
// corrupt header, or a zero-length stream. Files failing with DecodeError
// are quarantined by the watcher, never silently deleted.
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeFile decodes a WAV file into mono float64 samples in [-1, 1].
// Multi-channel audio is down-mixed by averaging channels.
func DecodeFile(path string) ([]float64, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Reason: "open failed", Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, &DecodeError{Path: path, Reason: "not a valid WAV file"}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Reason: "PCM read failed", Err: err}
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, nil, &DecodeError{Path: path, Reason: "no audio channels"}
	}
	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, nil, &DecodeError{Path: path, Reason: "zero-length stream"}
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	// Full-scale value for signed PCM at this bit depth
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, frames)
	if channels == 1 {
		for i := 0; i < frames; i++ {
			samples[i] = float64(buf.Data[i]) / scale
		}
	} else {
		for i := 0; i < frames; i++ {
			sum := 0.0
			for c := 0; c < channels; c++ {
				sum += float64(buf.Data[i*channels+c])
			}
			samples[i] = sum / float64(channels) / scale
		}
	}

	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, nil, &DecodeError{Path: path, Reason: "invalid sample rate"}
	}

	metadata := &Metadata{
		Duration:   float64(frames) / float64(sampleRate),
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}

	return samples, metadata, nil
}
