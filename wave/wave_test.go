package wave

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/cwbudde/algo-restore/restore"
)

func sineBuffer(t *testing.T, channels, frames, sampleRate int, freq, amp float64) *restore.SampleBuffer {
	t.Helper()
	g := signal.NewGenerator(core.WithSampleRate(float64(sampleRate)))
	tone, err := g.Sine(freq, amp, frames)
	if err != nil {
		t.Fatalf("sine: %v", err)
	}
	buf := restore.NewSampleBuffer(channels, frames, sampleRate)
	for c := 0; c < channels; c++ {
		copy(buf.Channel(c), tone)
	}
	return buf
}

func TestEncodeHeaderLayout(t *testing.T) {
	buf := sineBuffer(t, 2, 44100, 44100, 1000, 0.5)
	data := Encode(buf)

	if want := 44 + 44100*2*2; len(data) != want {
		t.Fatalf("encoded length %d, want %d", len(data), want)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		t.Fatal("missing fmt/data chunks")
	}
	le := binary.LittleEndian
	if got := le.Uint32(data[4:8]); got != uint32(len(data)-8) {
		t.Fatalf("RIFF size %d, want %d", got, len(data)-8)
	}
	if got := le.Uint16(data[20:22]); got != 1 {
		t.Fatalf("format tag %d, want 1 (PCM)", got)
	}
	if got := le.Uint16(data[22:24]); got != 2 {
		t.Fatalf("channel count %d", got)
	}
	if got := le.Uint32(data[24:28]); got != 44100 {
		t.Fatalf("sample rate %d", got)
	}
	if got := le.Uint32(data[28:32]); got != 44100*4 {
		t.Fatalf("byte rate %d", got)
	}
	if got := le.Uint16(data[32:34]); got != 4 {
		t.Fatalf("block align %d", got)
	}
	if got := le.Uint16(data[34:36]); got != 16 {
		t.Fatalf("bits per sample %d", got)
	}
	if got := le.Uint32(data[40:44]); got != uint32(len(data)-44) {
		t.Fatalf("data size %d, want %d", got, len(data)-44)
	}
}

func TestQuantizationScale(t *testing.T) {
	cases := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16384},
		{-0.5, -16384},
		{2, 32767},
		{-2, -32768},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := pcm16(tc.in); got != tc.want {
			t.Fatalf("pcm16(%g) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRoundTripWithinOneLSB(t *testing.T) {
	in := sineBuffer(t, 2, 4410, 44100, 1000, 0.8)
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Channels() != in.Channels() || out.Frames() != in.Frames() {
		t.Fatalf("geometry changed: %dx%d -> %dx%d",
			in.Channels(), in.Frames(), out.Channels(), out.Frames())
	}
	if out.SampleRate() != 44100 {
		t.Fatalf("sample rate %d", out.SampleRate())
	}
	const maxErr = 1.0 / 32768
	for c := 0; c < in.Channels(); c++ {
		want := in.Channel(c)
		got := out.Channel(c)
		for i := range want {
			if d := math.Abs(got[i] - want[i]); d > maxErr {
				t.Fatalf("ch %d sample %d error %g", c, i, d)
			}
		}
	}
}

func TestDecodeReadsExternalEncoderOutput(t *testing.T) {
	const (
		sampleRate = 44100
		frames     = 2048
	)
	src := sineBuffer(t, 2, frames, sampleRate, 440, 0.6)

	interleaved := make([]float32, frames*2)
	for c := 0; c < 2; c++ {
		ch := src.Channel(c)
		for i, v := range ch {
			interleaved[i*2+c] = float32(v)
		}
	}

	path := filepath.Join(t.TempDir(), "external.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	if err := enc.Write(&audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           interleaved,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Channels() != 2 || out.Frames() != frames || out.SampleRate() != sampleRate {
		t.Fatalf("geometry %dx%d@%d", out.Channels(), out.Frames(), out.SampleRate())
	}
	// The external quantizer may round differently than ours, so allow
	// two quantization steps of slack.
	const maxErr = 2.0 / 32768
	for c := 0; c < 2; c++ {
		want := src.Channel(c)
		got := out.Channel(c)
		for i := range want {
			if d := math.Abs(got[i] - want[i]); d > maxErr {
				t.Fatalf("ch %d sample %d error %g", c, i, d)
			}
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, blob := range [][]byte{
		nil,
		[]byte("not audio at all"),
		[]byte("RIFF....WAVEjunk"),
	} {
		if _, err := Decode(blob); !errors.Is(err, ErrDecode) {
			t.Fatalf("want ErrDecode for %q, got %v", blob, err)
		}
	}
}
