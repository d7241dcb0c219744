package device

import (
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/core/audio"
)

// Info describes one enumerated device.
type Info struct {
	Name      string
	IsDefault bool
}

// Context wraps the native audio context used for capture and device queries.
type Context struct {
	ctx    *malgo.AllocatedContext
	logger *zap.Logger
}

func NewContext(logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := malgo.ContextConfig{ThreadPriority: malgo.ThreadPriorityRealtime}
	ctx, err := malgo.InitContext(nil, cfg, func(msg string) {
		logger.Debug("audio backend", zap.String("msg", msg))
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Context{ctx: ctx, logger: logger}, nil
}

func (c *Context) Close() {
	_ = c.ctx.Uninit()
	c.ctx.Free()
}

// CaptureDevices lists input devices.
func (c *Context) CaptureDevices() ([]Info, error) { return c.devices(malgo.Capture) }

// PlaybackDevices lists output devices.
func (c *Context) PlaybackDevices() ([]Info, error) { return c.devices(malgo.Playback) }

func (c *Context) devices(kind malgo.DeviceType) ([]Info, error) {
	infos, err := c.ctx.Devices(kind)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(infos))
	for i := range infos {
		out = append(out, Info{Name: infos[i].Name(), IsDefault: infos[i].IsDefault != 0})
	}
	return out, nil
}

// PlaybackRate reports the default output device's native sample rate.
func (c *Context) PlaybackRate() (int, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	dev, err := malgo.InitDevice(c.ctx.Context, cfg, malgo.DeviceCallbacks{})
	if err != nil {
		return 0, fmt.Errorf("query playback device: %w", err)
	}
	defer dev.Uninit()
	return int(dev.SampleRate()), nil
}

// Capture streams the default input device at its native format.
type Capture struct {
	ctx    *Context
	sink   func(audio.Buffer)
	dev    *malgo.Device
	format atomic.Pointer[audio.Format]
}

// NewCapture returns a stopped capture that hands every buffer to sink.
// sink runs on the audio thread.
func NewCapture(ctx *Context, sink func(audio.Buffer)) *Capture {
	return &Capture{ctx: ctx, sink: sink}
}

// Start opens the device and begins capture. The native format is queried on
// every Start.
func (c *Capture) Start() error {
	if c.dev != nil {
		return nil
	}
	dev, err := c.open(0)
	if err != nil {
		return err
	}
	// More than two native channels: ask the backend for mono instead.
	if dev.CaptureChannels() > 2 {
		dev.Uninit()
		if dev, err = c.open(1); err != nil {
			return err
		}
	}
	f := audio.Format{SampleRate: int(dev.SampleRate()), Channels: int(dev.CaptureChannels()), BitDepth: 16}
	if err := f.Validate(); err != nil {
		dev.Uninit()
		return fmt.Errorf("capture device: %w", err)
	}
	c.format.Store(&f)
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("start capture: %w", err)
	}
	c.dev = dev
	c.ctx.logger.Info("capture started", zap.Stringer("format", f))
	return nil
}

func (c *Capture) Stop() {
	if c.dev == nil {
		return
	}
	_ = c.dev.Stop()
	c.dev.Uninit()
	c.dev = nil
}

func (c *Capture) open(channels uint32) (*malgo.Device, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = channels
	cfg.PeriodSizeInMilliseconds = 20
	dev, err := malgo.InitDevice(c.ctx.ctx.Context, cfg, malgo.DeviceCallbacks{Data: c.onData})
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return dev, nil
}

func (c *Capture) onData(_, input []byte, _ uint32) {
	if f := c.format.Load(); f != nil {
		if buf, ok := captureBuffer(*f, input); ok {
			c.sink(buf)
		}
	}
}

// captureBuffer wraps raw little-endian input as a Buffer, dropping a
// trailing partial frame.
func captureBuffer(f audio.Format, input []byte) (audio.Buffer, bool) {
	samples := audio.DecodeLE(input)
	samples = samples[:len(samples)-len(samples)%f.Channels]
	if len(samples) == 0 {
		return audio.Buffer{}, false
	}
	return audio.Buffer{Format: f, Samples: samples}, true
}
