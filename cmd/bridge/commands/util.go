package commands

import (
	"fmt"
	"io"

	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/device"
)

func printDevices(w io.Writer, title string, infos []device.Info) {
	fmt.Fprintf(w, "%s devices:\n", title)
	if len(infos) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, d := range infos {
		mark := " "
		if d.IsDefault {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, d.Name)
	}
}

func printModel(w io.Writer, m *gemini.ModelInfo) {
	fmt.Fprintf(w, "Model:        %s\n", m.Name)
	if m.DisplayName != "" {
		fmt.Fprintf(w, "Display name: %s\n", m.DisplayName)
	}
	fmt.Fprintf(w, "Input limit:  %d tokens\n", m.InputTokenLimit)
	fmt.Fprintf(w, "Live:         %v\n", m.SupportsLive())
}
