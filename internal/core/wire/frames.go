// Package wire holds the JSON frames exchanged with the Gemini Live
// BidiGenerateContent socket.
package wire

import (
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// Kind names a frame variant.
type Kind string

const (
	KindSetupRequest     Kind = "setup_request"
	KindAudioChunk       Kind = "audio_chunk"
	KindSetupAck         Kind = "setup_ack"
	KindSynthesizedAudio Kind = "synthesized_audio"
	KindUnrecognized     Kind = "unrecognized"
)

// Frame is one of the variants below.
type Frame interface {
	Kind() Kind
}

// SetupRequest opens the conversation. Sent once, right after the socket opens.
type SetupRequest struct {
	Model       string
	Instruction string
}

// AudioChunk carries base64 little-endian PCM in the capture format.
type AudioChunk struct {
	Data     string
	MIMEType string
}

// SetupAck is the server's acknowledgement of SetupRequest.
type SetupAck struct{}

// SynthesizedAudio holds the inline payloads of one model turn fragment.
type SynthesizedAudio struct {
	Parts []InlineData
}

// InlineData is a single base64 payload with its MIME type.
type InlineData struct {
	MIMEType string
	Data     string
}

// IsAudio reports whether the payload is audio.
func (d InlineData) IsAudio() bool {
	return strings.HasPrefix(d.MIMEType, "audio/")
}

// Unrecognized is any inbound message this package does not model.
type Unrecognized struct {
	Raw []byte
}

func (SetupRequest) Kind() Kind     { return KindSetupRequest }
func (AudioChunk) Kind() Kind       { return KindAudioChunk }
func (SetupAck) Kind() Kind         { return KindSetupAck }
func (SynthesizedAudio) Kind() Kind { return KindSynthesizedAudio }
func (Unrecognized) Kind() Kind     { return KindUnrecognized }

// JSON Structures for API Communication

type sendTextPart struct {
	Text string `json:"text"`
}

type sendSystemInstruction struct {
	Parts []sendTextPart `json:"parts"`
}

type sendGenerationConfig struct {
	ResponseModalities []genai.Modality `json:"response_modalities"`
}

type sendSetup struct {
	Model             string                 `json:"model"`
	GenerationConfig  sendGenerationConfig   `json:"generation_config"`
	SystemInstruction *sendSystemInstruction `json:"system_instruction,omitempty"`
}

type sendSetupMessage struct {
	Setup sendSetup `json:"setup"`
}

type sendMediaChunk struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

type sendRealtimeInput struct {
	MediaChunks []sendMediaChunk `json:"media_chunks"`
}

type sendRealtimeInputMessage struct {
	RealtimeInput sendRealtimeInput `json:"realtime_input"`
}

type receivedInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type receivedPart struct {
	InlineData *receivedInlineData `json:"inlineData"`
}

type receivedModelTurn struct {
	Parts []receivedPart `json:"parts"`
}

type receivedServerContent struct {
	ModelTurn *receivedModelTurn `json:"modelTurn"`
}

// ErrNotOutbound is returned by Encode for inbound-only variants.
var ErrNotOutbound = errors.New("wire: frame is not sendable")

// Encode serializes an outbound frame.
func Encode(f Frame) ([]byte, error) {
	switch f := f.(type) {
	case SetupRequest:
		msg := sendSetupMessage{Setup: sendSetup{
			Model: f.Model,
			GenerationConfig: sendGenerationConfig{
				ResponseModalities: []genai.Modality{genai.ModalityAudio},
			},
		}}
		if f.Instruction != "" {
			msg.Setup.SystemInstruction = &sendSystemInstruction{
				Parts: []sendTextPart{{Text: f.Instruction}},
			}
		}
		return json.Marshal(msg)
	case AudioChunk:
		return json.Marshal(sendRealtimeInputMessage{RealtimeInput: sendRealtimeInput{
			MediaChunks: []sendMediaChunk{{Data: f.Data, MimeType: f.MIMEType}},
		}})
	}
	return nil, ErrNotOutbound
}

// Decode classifies an inbound message. It never fails: anything that is not
// a setup acknowledgement or inline model output comes back as Unrecognized.
func Decode(b []byte) Frame {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return Unrecognized{Raw: b}
	}
	if _, ok := top["setupComplete"]; ok {
		return SetupAck{}
	}
	raw, ok := top["serverContent"]
	if !ok {
		return Unrecognized{Raw: b}
	}
	var sc receivedServerContent
	if err := json.Unmarshal(raw, &sc); err != nil || sc.ModelTurn == nil {
		return Unrecognized{Raw: b}
	}
	var out SynthesizedAudio
	for _, p := range sc.ModelTurn.Parts {
		if p.InlineData == nil {
			continue
		}
		out.Parts = append(out.Parts, InlineData{
			MIMEType: p.InlineData.MimeType,
			Data:     p.InlineData.Data,
		})
	}
	if len(out.Parts) == 0 {
		return Unrecognized{Raw: b}
	}
	return out
}
