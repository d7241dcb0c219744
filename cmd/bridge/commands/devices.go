package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyiyo/livebridge/internal/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture and playback devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := setup(false)
		if err != nil {
			return err
		}
		defer logger.Sync()

		actx, err := device.NewContext(logger)
		if err != nil {
			return err
		}
		defer actx.Close()

		capture, err := actx.CaptureDevices()
		if err != nil {
			return err
		}
		playback, err := actx.PlaybackDevices()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printDevices(out, "Capture", capture)
		printDevices(out, "Playback", playback)
		if rate, err := actx.PlaybackRate(); err == nil {
			fmt.Fprintf(out, "\nDefault playback rate: %d Hz\n", rate)
		}
		return nil
	},
}
