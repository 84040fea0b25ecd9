// Package wave serializes sample buffers as canonical 16-bit PCM RIFF
// streams and decodes PCM WAV input of any supported bit depth.
package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/wav"

	"github.com/cwbudde/algo-restore/restore"
)

// ErrDecode reports malformed or unsupported audio input. A track that
// fails to decode is reported to the caller and not retried.
var ErrDecode = errors.New("wave: decode error")

const headerSize = 44

// Encode serializes buf as a minimal PCM16 WAV stream: a 44-byte RIFF
// header followed by interleaved little-endian int16 samples. The
// output length is exactly 44 + frames*channels*2 bytes for any input,
// so the byte stream is reproducible bit for bit.
func Encode(buf *restore.SampleBuffer) []byte {
	channels := buf.Channels()
	frames := buf.Frames()
	blockAlign := channels * 2
	dataSize := frames * blockAlign

	out := make([]byte, headerSize+dataSize)
	le := binary.LittleEndian
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1) // PCM
	le.PutUint16(out[22:24], uint16(channels))
	le.PutUint32(out[24:28], uint32(buf.SampleRate()))
	le.PutUint32(out[28:32], uint32(buf.SampleRate()*blockAlign))
	le.PutUint16(out[32:34], uint16(blockAlign))
	le.PutUint16(out[34:36], 16)
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataSize))

	pos := headerSize
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			le.PutUint16(out[pos:], uint16(pcm16(buf.Channel(c)[i])))
			pos += 2
		}
	}
	return out
}

// pcm16 clamps to full scale and quantizes to the nearest representable
// int16 with the asymmetric scale that keeps -1.0 representable without
// overflowing +32767.
func pcm16(s float64) int16 {
	if s != s {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(math.Round(s * 32768))
	}
	return int16(math.Round(s * 32767))
}

// Decode parses a WAV byte blob into a planar sample buffer. The
// decoder library already normalizes PCM words symmetrically by full
// scale; positive samples get the matching asymmetric correction so
// decoding inverts the pcm16 quantizer exactly.
func Decode(data []byte) (*restore.SampleBuffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrDecode)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if pcm == nil || pcm.Format == nil || pcm.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing format information", ErrDecode)
	}

	bits := pcm.SourceBitDepth
	if bits <= 0 {
		bits = int(dec.BitDepth)
	}
	if bits <= 0 || bits > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bits)
	}
	negScale := float64(int64(1) << (bits - 1))
	posCorrect := negScale / (negScale - 1)

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels
	out := restore.NewSampleBuffer(channels, frames, pcm.Format.SampleRate)
	for c := 0; c < channels; c++ {
		dst := out.Channel(c)
		for i := 0; i < frames; i++ {
			v := float64(pcm.Data[i*channels+c])
			if v > 0 {
				v *= posCorrect
			}
			dst[i] = v
		}
	}
	return out, nil
}
