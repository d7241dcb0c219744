package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/device"
)

func TestPrintDevices(t *testing.T) {
	var b bytes.Buffer
	printDevices(&b, "Capture", []device.Info{{Name: "Built-in Mic", IsDefault: true}, {Name: "USB Headset"}})
	printDevices(&b, "Playback", nil)

	want := "Capture devices:\n  * Built-in Mic\n    USB Headset\nPlayback devices:\n  (none)\n"
	if b.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", b.String(), want)
	}
}

func TestPrintModel(t *testing.T) {
	var b bytes.Buffer
	printModel(&b, &gemini.ModelInfo{
		Name:             "models/gemini-2.0-flash-exp",
		InputTokenLimit:  1048576,
		SupportedActions: []string{"generateContent", "bidiGenerateContent"},
	})
	out := b.String()
	for _, want := range []string{"models/gemini-2.0-flash-exp", "1048576 tokens", "Live:         true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Display name") {
		t.Error("empty display name printed")
	}
}
