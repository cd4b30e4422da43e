package output

import (
	"encoding/binary"
	"math"
)

const bytesPerFrame = 8 // two float32 channels

// encodeFloat32LE writes samples to p as interleaved little-endian float32,
// clipping to [-1, 1]. p must hold len(samples)*bytesPerFrame bytes.
func encodeFloat32LE(p []byte, samples [][2]float64) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(clip(s[0])))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(clip(s[1])))
	}
}

func clip(v float64) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return float32(v)
	}
}

// scratch is a reusable sample block so the audio thread does not allocate
type scratch struct {
	buf [][2]float64
}

func (s *scratch) frames(n int) [][2]float64 {
	if cap(s.buf) < n {
		s.buf = make([][2]float64, n)
	}
	return s.buf[:n]
}
