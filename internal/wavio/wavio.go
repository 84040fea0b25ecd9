// Package wavio moves sample buffers between WAV files and the engine
// for the command-line tools.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/cwbudde/algo-restore/restore"
	"github.com/cwbudde/algo-restore/wave"
)

// ReadFile decodes a WAV file into a sample buffer.
func ReadFile(path string) (*restore.SampleBuffer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	buf, err := wave.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// WriteFile encodes buf as PCM16 WAV, creating parent directories as
// needed.
func WriteFile(path string, buf *restore.SampleBuffer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, wave.Encode(buf), 0o644)
}

// Resample converts buf to the target rate. The input is returned
// unchanged when the rates already match.
func Resample(buf *restore.SampleBuffer, toRate int) (*restore.SampleBuffer, error) {
	if buf.SampleRate() == toRate {
		return buf, nil
	}
	var out *restore.SampleBuffer
	for c := 0; c < buf.Channels(); c++ {
		r, err := dspresample.NewForRates(
			float64(buf.SampleRate()),
			float64(toRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, fmt.Errorf("resampling %d -> %d Hz: %w", buf.SampleRate(), toRate, err)
		}
		res := r.Process(buf.Channel(c))
		if out == nil {
			out = restore.NewSampleBuffer(buf.Channels(), len(res), toRate)
		}
		copy(out.Channel(c), res)
	}
	return out, nil
}
