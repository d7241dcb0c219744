package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	h "github.com/steveyiyo/livebridge/internal/http"
	"github.com/steveyiyo/livebridge/pkg/ws"
)

var servePublicHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control API; sessions are opened and closed over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hub := ws.NewHub()

		eng, err := newEngine(cfg, logger, reg, hub)
		if err != nil {
			return err
		}
		defer eng.Close()
		if err := eng.capture.Start(); err != nil {
			return err
		}

		host := servePublicHost
		if host == "" {
			host = "localhost:" + cfg.Port
		}
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: h.NewRouter(eng.svc, hub, h.RouterConfig{Host: host, Gatherer: reg, Logger: logger}),
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		logger.Info("control API started", zap.String("port", cfg.Port))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		select {
		case <-ctx.Done():
		case err := <-errCh:
			return err
		}

		logger.Info("server is shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePublicHost, "public-host", os.Getenv("PUBLIC_HOST"), "host:port advertised in API responses")
}
