// Command bridge connects the local microphone and speaker to a Gemini Live
// session.
//
// Usage:
//
//	bridge [--config file] <command>
//
// Commands:
//
//	run     - stream the microphone until interrupted
//	serve   - start the control API; sessions are opened over HTTP
//	devices - list audio devices
//	model   - check that the configured model supports live sessions
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/steveyiyo/livebridge/cmd/bridge/commands"
)

func main() {
	_ = godotenv.Load()
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
