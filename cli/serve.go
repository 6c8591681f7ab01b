package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukemcguire/sitemapcheck/api"
	"github.com/lukemcguire/sitemapcheck/config"
	"github.com/lukemcguire/sitemapcheck/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sitemap validation over HTTP",
		Args:  cobra.NoArgs,
		RunE:  opts.runServe,
	}

	serveCmd.Flags().String("addr", config.Default().Server.Addr, "listen address")
	bindFlags(opts.v, serveCmd.Flags(), map[string]string{"server.addr": "addr"})

	return serveCmd
}

func (o *options) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(o.v, o.configFile)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	srv := api.NewServer(cfg, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.WithField("addr", srv.Addr()).Info("API server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
