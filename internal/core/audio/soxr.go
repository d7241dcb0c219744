package audio

import (
	"fmt"
	"math"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// HighQuality resamples with a windowed-sinc filter. Each call runs the filter
// to completion, flush included, over input padded with silence on both sides,
// then cuts the result at the frame where input frame 0 lands. The output has
// the same frame count and alignment as Linear so both are interchangeable.
type HighQuality struct{}

// Convert implements Converter.
func (HighQuality) Convert(buf Buffer, to Format) (Buffer, error) {
	mono, err := prepare(buf, to)
	if err != nil {
		return Buffer{}, err
	}
	from := buf.Format.SampleRate
	want := OutputFrames(len(mono), from, to.SampleRate)
	if from == to.SampleRate || want == 0 {
		out := make([]int16, want)
		copy(out, mono)
		return finish(out, to), nil
	}

	start, err := filterOffset(from, to.SampleRate)
	if err != nil {
		return Buffer{}, err
	}
	pad := padFrames(from)
	input := make([]float64, pad+len(mono)+pad)
	for i, s := range mono {
		input[pad+i] = float64(s) / 32768.0
	}
	output, err := resampling.ResampleMono(input, float64(from), float64(to.SampleRate), resampling.QualityHigh)
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	out := make([]int16, want)
	for i := range out {
		switch j := start + i; {
		case j < len(output):
			out[i] = clamp16(output[j] * 32768.0)
		case i > 0:
			out[i] = out[i-1]
		}
	}
	return finish(out, to), nil
}

// padFrames is the silence placed around the input, 50ms at the source rate.
// It must exceed the filter's half length so no input frame is cut off.
func padFrames(rate int) int {
	return rate / 20
}

var offsets sync.Map // [2]int{from, to} -> int

// filterOffset returns the output index that input frame 0 maps to once the
// input is padded by padFrames. It is measured with an impulse the first time
// a rate pair is seen.
func filterOffset(from, to int) (int, error) {
	key := [2]int{from, to}
	if v, ok := offsets.Load(key); ok {
		return v.(int), nil
	}

	pad := padFrames(from)
	impulse := make([]float64, 2*pad+1)
	impulse[pad] = 1
	output, err := resampling.ResampleMono(impulse, float64(from), float64(to), resampling.QualityHigh)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	if len(output) == 0 {
		return 0, fmt.Errorf("%w: no filter output for %d->%d", ErrConversion, from, to)
	}
	peak := 0
	for i, v := range output {
		if math.Abs(v) > math.Abs(output[peak]) {
			peak = i
		}
	}
	offsets.Store(key, peak)
	return peak, nil
}
