package restore

import (
	"fmt"
	"sync/atomic"
)

// EngineState is the playback state of an Engine.
type EngineState int32

const (
	Stopped EngineState = iota
	Playing
)

func (s EngineState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Engine drives live playback of one decoded track through a Graph.
// The audio callback pulls interleaved float32 blocks via Process; the
// control side starts, stops and retunes from any goroutine. Settings
// travel as full immutable snapshots through an atomic pointer, so the
// callback never observes a half-written update, and metering reads
// never block.
type Engine struct {
	src        *SampleBuffer
	graph      *Graph
	channels   int
	sampleRate float64

	settings   atomic.Pointer[Settings]
	monitorDry atomic.Bool
	state      atomic.Int32
	pos        atomic.Int64
	rewind     atomic.Bool

	// Callback-goroutine state, untouched by the control side.
	applied    *Settings
	monitorNow bool
	block      [][]float64
}

// NewEngine builds a stopped engine for the given track.
func NewEngine(src *SampleBuffer, s Settings) (*Engine, error) {
	if src == nil || src.Frames() == 0 {
		return nil, fmt.Errorf("restore: empty source buffer")
	}
	s = s.Clamp()
	g, err := NewGraph(src.Channels(), float64(src.SampleRate()), s)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		src:        src,
		graph:      g,
		channels:   src.Channels(),
		sampleRate: float64(src.SampleRate()),
		applied:    &s,
		block:      make([][]float64, src.Channels()),
	}
	e.settings.Store(&s)
	return e, nil
}

// Channels returns the stream channel count.
func (e *Engine) Channels() int { return e.channels }

// SampleRate returns the stream sample rate in Hz.
func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// State returns the current playback state.
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// Play starts playback at the given frame offset. The offset clamps to
// the track bounds; every Play is a seek, so filter state is cleared
// before the first block. Playing from the final frame ends after that
// frame is emitted.
func (e *Engine) Play(offsetFrames int) {
	if offsetFrames < 0 {
		offsetFrames = 0
	}
	if last := e.src.Frames() - 1; offsetFrames > last {
		offsetFrames = last
	}
	e.pos.Store(int64(offsetFrames))
	e.rewind.Store(true)
	e.state.Store(int32(Playing))
}

// Stop halts playback and rewinds to the start of the track.
func (e *Engine) Stop() {
	e.state.Store(int32(Stopped))
	e.pos.Store(0)
	e.rewind.Store(true)
}

// UpdateSettings publishes a new settings snapshot. The audio callback
// picks it up at its next block boundary; values ramp from there.
func (e *Engine) UpdateSettings(s Settings) {
	s = s.Clamp()
	e.settings.Store(&s)
}

// Settings returns the most recently published snapshot.
func (e *Engine) Settings() Settings {
	return *e.settings.Load()
}

// SetMonitor switches between processed and untouched playback.
func (e *Engine) SetMonitor(dry bool) {
	e.monitorDry.Store(dry)
}

// Position reports the playback position in seconds.
func (e *Engine) Position() float64 {
	return float64(e.pos.Load()) / e.sampleRate
}

// GainReductionDB reports the limiter meter. Non-blocking; the value
// may lag the audio by one block.
func (e *Engine) GainReductionDB() float64 {
	return e.graph.GainReductionDB()
}

// Process fills dst with the next interleaved block. It must be called
// from a single goroutine, normally the audio driver's pull callback.
// A stopped engine yields silence; reaching the end of the track stops
// the engine and pads the remainder with silence.
func (e *Engine) Process(dst []float32) {
	if e.State() != Playing {
		zero32(dst)
		return
	}
	if e.rewind.CompareAndSwap(true, false) {
		e.graph.Reset()
	}
	if snap := e.settings.Load(); snap != e.applied {
		// Update can only fail on an out-of-range filter frequency;
		// snapshots are clamped before publication, which keeps the hum
		// notch well below any Nyquist NewGraph accepts.
		_ = e.graph.Update(*snap)
		e.applied = snap
	}
	if dry := e.monitorDry.Load(); dry != e.monitorNow {
		e.graph.SetMonitor(dry)
		e.monitorNow = dry
	}

	frames := len(dst) / e.channels
	pos := int(e.pos.Load())
	n := e.src.Frames() - pos
	if n > frames {
		n = frames
	}
	if n <= 0 {
		e.state.Store(int32(Stopped))
		zero32(dst)
		return
	}

	for c := 0; c < e.channels; c++ {
		if cap(e.block[c]) < n {
			e.block[c] = make([]float64, n)
		}
		e.block[c] = e.block[c][:n]
		copy(e.block[c], e.src.Channel(c)[pos:pos+n])
	}
	e.graph.Process(e.block)

	for i := 0; i < n; i++ {
		for c := 0; c < e.channels; c++ {
			dst[i*e.channels+c] = float32(e.block[c][i])
		}
	}
	zero32(dst[n*e.channels:])

	e.pos.Store(int64(pos + n))
	if pos+n >= e.src.Frames() {
		e.state.Store(int32(Stopped))
	}
}

func zero32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
