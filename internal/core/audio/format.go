package audio

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrConversion is wrapped by every error a Converter returns.
var ErrConversion = errors.New("audio: conversion failed")

// Format describes interleaved signed PCM audio.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

var (
	// CaptureFormat is what the remote service accepts for speech input.
	CaptureFormat = Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

	// SynthesisFormat is what the remote service returns for generated speech.
	SynthesisFormat = Format{SampleRate: 24000, Channels: 1, BitDepth: 16}
)

// CaptureMIME tags every outbound audio chunk.
var CaptureMIME = CaptureFormat.MIME()

// Mono returns 16-bit mono PCM at rate.
func Mono(rate int) Format {
	return Format{SampleRate: rate, Channels: 1, BitDepth: 16}
}

// Validate reports whether f can be converted.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrConversion, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrConversion, f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("%w: %d-bit samples", ErrConversion, f.BitDepth)
	}
	return nil
}

// MIME returns the descriptor the remote service uses for f, e.g. "audio/pcm;rate=16000".
func (f Format) MIME() string {
	return "audio/pcm;rate=" + strconv.Itoa(f.SampleRate)
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// Buffer is one block of audio handed between pipeline stages.
type Buffer struct {
	Format  Format
	Samples []int16
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if b.Format.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// OutputFrames returns round(frames * to / from), the frame count a conversion
// from rate from to rate to produces.
func OutputFrames(frames, from, to int) int {
	if frames <= 0 || from <= 0 || to <= 0 {
		return 0
	}
	return int((int64(frames)*int64(to)*2 + int64(from)) / (int64(from) * 2))
}
