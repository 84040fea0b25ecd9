package wave

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-restore/restore"
)

// 88200 frames of 44.1 kHz stereo at amplitude 0.5, rendered with
// default settings, must reproduce the documented artifact: a 44-byte
// header plus 88200 frames of 4 bytes, 352844 bytes total, decoding
// back to the input within one quantization step.
func TestRenderEncodeScenario(t *testing.T) {
	const frames = 88200
	in := sineBuffer(t, 2, frames, 44100, 1000, 0.5)
	out, err := restore.NewRenderer().Render(in, restore.Defaults())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data := Encode(out)
	if want := 44 + frames*2*2; len(data) != want {
		t.Fatalf("encoded %d bytes, want %d", len(data), want)
	}
	if len(data) != 352844 {
		t.Fatalf("encoded %d bytes, want 352844", len(data))
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	const lsb = 1.0 / 32768
	for c := 0; c < in.Channels(); c++ {
		want := in.Channel(c)
		got := back.Channel(c)
		for i := range want {
			if d := math.Abs(got[i] - want[i]); d > lsb {
				t.Fatalf("ch %d sample %d off by %g", c, i, d)
			}
		}
	}
}
