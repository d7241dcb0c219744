package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a session and stream the microphone until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		eng, err := newEngine(cfg, logger, prometheus.NewRegistry(), logEvents{logger: logger})
		if err != nil {
			return err
		}
		defer eng.Close()

		sess, err := eng.svc.Connect()
		if err != nil {
			return err
		}
		if err := eng.capture.Start(); err != nil {
			return err
		}
		logger.Info("bridge running, press Ctrl+C to stop", zap.String("session_id", sess.ID))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Info("shutting down")
		_ = eng.svc.Disconnect()
		if sum, ok := eng.svc.Summary(sess.ID); ok {
			logger.Info("session summary",
				zap.Int64("chunks_sent", sum.ChunksSent),
				zap.Int64("chunks_dropped", sum.ChunksDropped),
				zap.Int64("frames_received", sum.FramesReceived),
				zap.Int64("playback_buffers", sum.PlaybackBuffers),
			)
		}
		return nil
	},
}
