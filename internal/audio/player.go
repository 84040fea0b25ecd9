// Package audio hosts the speaker backend for live playback. It wraps
// oto's pull-model player around any source that fills interleaved
// float32 blocks.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ebitengine/oto/v3"
)

// SampleSource fills dst with the next interleaved float32 block. A
// source that has nothing to play fills silence.
type SampleSource interface {
	Process(dst []float32)
}

// Player pushes a SampleSource to the default audio device.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewPlayer opens the audio device and wires src to it. The player
// starts paused; call Start.
func NewPlayer(src SampleSource, sampleRate, channels int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio: opening device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(&sourceReader{src: src, channels: channels}),
	}, nil
}

// Start begins pulling audio from the source.
func (p *Player) Start() { p.player.Play() }

// Pause stops pulling without closing the device.
func (p *Player) Pause() { p.player.Pause() }

// Close releases the device player.
func (p *Player) Close() error { return p.player.Close() }

type sourceReader struct {
	src      SampleSource
	channels int
	buf      []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	bytesPerFrame := 4 * r.channels
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	need := frames * r.channels
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.src.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * bytesPerFrame, nil
}
