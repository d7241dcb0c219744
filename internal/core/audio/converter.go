package audio

import "fmt"

// Converter resamples a Buffer into another Format. Implementations keep no
// state between calls, so one value can serve both pipeline directions.
type Converter interface {
	Convert(buf Buffer, to Format) (Buffer, error)
}

// NewConverter returns the strategy registered under name ("linear" or "high").
func NewConverter(name string) (Converter, error) {
	switch name {
	case "", "linear":
		return Linear{}, nil
	case "high":
		return HighQuality{}, nil
	}
	return nil, fmt.Errorf("audio: unknown converter %q", name)
}

// Linear resamples by linear interpolation between neighbouring frames.
type Linear struct{}

// Convert implements Converter.
func (Linear) Convert(buf Buffer, to Format) (Buffer, error) {
	mono, err := prepare(buf, to)
	if err != nil {
		return Buffer{}, err
	}
	from := buf.Format.SampleRate
	n := len(mono)
	out := make([]int16, OutputFrames(n, from, to.SampleRate))

	if from == to.SampleRate {
		copy(out, mono)
		return finish(out, to), nil
	}

	step := float64(from) / float64(to.SampleRate)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= n-1 {
			out[i] = mono[n-1]
			continue
		}
		a, b := float64(mono[idx]), float64(mono[idx+1])
		out[i] = clamp16(a + (pos-float64(idx))*(b-a))
	}
	return finish(out, to), nil
}

// prepare validates both formats and returns buf as mono samples.
func prepare(buf Buffer, to Format) ([]int16, error) {
	if err := buf.Format.Validate(); err != nil {
		return nil, fmt.Errorf("source format: %w", err)
	}
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("target format: %w", err)
	}
	samples := buf.Samples[:buf.Frames()*buf.Format.Channels]
	if buf.Format.Channels == 2 {
		return stereoToMono(samples), nil
	}
	return samples, nil
}

// finish lays mono samples out in the channel count of to.
func finish(mono []int16, to Format) Buffer {
	if to.Channels == 2 {
		return Buffer{Format: to, Samples: monoToStereo(mono)}
	}
	return Buffer{Format: to, Samples: mono}
}
