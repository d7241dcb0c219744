package commands

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/config"
	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/core/session"
	"github.com/steveyiyo/livebridge/internal/device"
	"github.com/steveyiyo/livebridge/internal/metrics"
	"github.com/steveyiyo/livebridge/internal/repo/memory"
)

const playbackBuffer = 100 * time.Millisecond

// engine is the device-backed session service shared by run and serve.
type engine struct {
	svc     *session.Service
	audio   *device.Context
	speaker *device.Speaker
	capture *device.Capture
	logger  *zap.Logger
}

func newEngine(cfg config.Config, logger *zap.Logger, reg prometheus.Registerer, events session.Broadcaster) (*engine, error) {
	conv, err := audio.NewConverter(cfg.Converter)
	if err != nil {
		return nil, err
	}
	url, err := gemini.LiveURL(cfg.LiveURL, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("live url: %w", err)
	}

	actx, err := device.NewContext(logger)
	if err != nil {
		return nil, err
	}
	rate, err := actx.PlaybackRate()
	if err != nil {
		actx.Close()
		return nil, err
	}
	speaker, err := device.NewSpeaker(rate, playbackBuffer, logger)
	if err != nil {
		actx.Close()
		return nil, err
	}

	svc := session.NewService(memory.NewSessionRepo(), session.Options{
		Session: gemini.Config{
			URL:         url,
			Model:       cfg.Model,
			Instruction: cfg.SystemInstruction,
		},
		Dialer: gemini.WebsocketDialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Subprotocol:      cfg.Subprotocol,
		},
		Player:    speaker,
		Converter: conv,
		Metrics:   metrics.New(reg),
		Events:    events,
		Logger:    logger,
	})
	return &engine{
		svc:     svc,
		audio:   actx,
		speaker: speaker,
		capture: device.NewCapture(actx, svc.SendAudio),
		logger:  logger,
	}, nil
}

func (e *engine) Close() {
	e.capture.Stop()
	e.svc.Close()
	if err := e.speaker.Close(); err != nil {
		e.logger.Debug("speaker close", zap.Error(err))
	}
	e.audio.Close()
}

// logEvents writes session events to the log.
type logEvents struct {
	logger *zap.Logger
}

func (l logEvents) Broadcast(v any) {
	l.logger.Info("session event", zap.Any("event", v))
}
