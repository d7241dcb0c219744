package audio

import (
	"encoding/base64"
	"encoding/binary"
)

// EncodeLE serializes samples as little-endian 16-bit PCM.
func EncodeLE(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// DecodeLE parses little-endian 16-bit PCM. A trailing odd byte is ignored.
func DecodeLE(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

// EncodeBase64 is EncodeLE followed by standard base64.
func EncodeBase64(samples []int16) string {
	return base64.StdEncoding.EncodeToString(EncodeLE(samples))
}

// DecodeBase64 reverses EncodeBase64.
func DecodeBase64(data string) ([]int16, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return DecodeLE(b), nil
}

// stereoToMono averages interleaved L/R pairs.
func stereoToMono(in []int16) []int16 {
	out := make([]int16, len(in)/2)
	for i := range out {
		out[i] = int16((int32(in[i*2]) + int32(in[i*2+1])) / 2)
	}
	return out
}

// monoToStereo duplicates every sample into an interleaved pair.
func monoToStereo(in []int16) []int16 {
	out := make([]int16, len(in)*2)
	for i, s := range in {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

func clamp16(v float64) int16 {
	switch {
	case v >= 32767:
		return 32767
	case v <= -32768:
		return -32768
	case v < 0:
		return int16(v - 0.5)
	default:
		return int16(v + 0.5)
	}
}
