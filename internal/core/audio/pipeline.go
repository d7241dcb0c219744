package audio

import (
	"strings"

	"github.com/steveyiyo/livebridge/internal/core/wire"
)

// OutboundPipeline turns device capture buffers into AudioChunk frames.
type OutboundPipeline struct {
	conv Converter
}

// NewOutboundPipeline returns a pipeline converting with conv.
func NewOutboundPipeline(conv Converter) *OutboundPipeline {
	return &OutboundPipeline{conv: conv}
}

// Submit resamples buf to CaptureFormat and wraps it in a frame. It reports
// false when the buffer could not be converted; the caller drops it.
func (p *OutboundPipeline) Submit(buf Buffer) (wire.AudioChunk, bool) {
	out, err := p.conv.Convert(buf, CaptureFormat)
	if err != nil {
		return wire.AudioChunk{}, false
	}
	return wire.AudioChunk{
		Data:     EncodeBase64(out.Samples),
		MIMEType: CaptureMIME,
	}, true
}

// InboundPipeline turns synthesized payloads into playback buffers.
type InboundPipeline struct {
	conv   Converter
	output Format
}

// NewInboundPipeline returns a pipeline producing buffers in output.
func NewInboundPipeline(conv Converter, output Format) *InboundPipeline {
	return &InboundPipeline{conv: conv, output: output}
}

// Submit decodes one base64 payload in SynthesisFormat and resamples it to
// the playback format. It reports false for non-audio MIME types, bad base64
// and failed conversions.
func (p *InboundPipeline) Submit(data, mime string) (Buffer, bool) {
	if !strings.HasPrefix(mime, "audio/") {
		return Buffer{}, false
	}
	samples, err := DecodeBase64(data)
	if err != nil {
		return Buffer{}, false
	}
	out, err := p.conv.Convert(Buffer{Format: SynthesisFormat, Samples: samples}, p.output)
	if err != nil {
		return Buffer{}, false
	}
	return out, true
}
