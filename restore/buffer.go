package restore

import "math"

// SampleBuffer holds planar floating-point audio: one slice of samples per
// channel, all the same length, at a fixed sample rate. Decoded buffers are
// treated as immutable; processing stages write into buffers they own.
type SampleBuffer struct {
	data       [][]float64
	sampleRate int
}

// NewSampleBuffer allocates a zeroed buffer with the given geometry.
func NewSampleBuffer(channels, frames, sampleRate int) *SampleBuffer {
	if channels < 1 {
		channels = 1
	}
	if frames < 0 {
		frames = 0
	}
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	return &SampleBuffer{data: data, sampleRate: sampleRate}
}

// FromInterleaved builds a planar buffer from interleaved float32 samples,
// the layout used at the WAV and audio-driver boundaries.
func FromInterleaved(samples []float32, channels, sampleRate int) *SampleBuffer {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	b := NewSampleBuffer(channels, frames, sampleRate)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			b.data[c][i] = float64(samples[i*channels+c])
		}
	}
	return b
}

// Channels returns the channel count.
func (b *SampleBuffer) Channels() int { return len(b.data) }

// Frames returns the number of sample frames per channel.
func (b *SampleBuffer) Frames() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0])
}

// SampleRate returns the sample rate in Hz.
func (b *SampleBuffer) SampleRate() int { return b.sampleRate }

// Channel returns the sample slice for channel c. The slice is shared, not
// copied; callers that must not mutate the buffer should Clone first.
func (b *SampleBuffer) Channel(c int) []float64 { return b.data[c] }

// Clone returns a deep copy.
func (b *SampleBuffer) Clone() *SampleBuffer {
	out := &SampleBuffer{
		data:       make([][]float64, len(b.data)),
		sampleRate: b.sampleRate,
	}
	for c := range b.data {
		out.data[c] = append([]float64(nil), b.data[c]...)
	}
	return out
}

// Interleaved converts to interleaved float32 samples.
func (b *SampleBuffer) Interleaved() []float32 {
	channels := b.Channels()
	frames := b.Frames()
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = float32(b.data[c][i])
		}
	}
	return out
}

// Peak returns the maximum absolute sample value across all channels.
func (b *SampleBuffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.data {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}
