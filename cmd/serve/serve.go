// Package serve runs the HTTP bridge and the background forwarder
package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"teketeke/mpesa-sms/cmd/root"
	"teketeke/mpesa-sms/internal/config"
	"teketeke/mpesa-sms/internal/container"
	"teketeke/mpesa-sms/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight requests may take after a stop signal.
const shutdownTimeout = 10 * time.Second

var (
	// Address overrides server.address when set
	Address string
	// RequestPermission runs the permission handshake before serving
	RequestPermission bool
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP bridge for the host messaging app",
	Long: `Run the HTTP bridge for the host messaging app.

The host posts incoming messages to /v1/messages and the consumer drains
buffered records from /v1/messages/pull. When forward.url is configured the
buffer is also pushed there every forward.interval_seconds, and whatever is
left is flushed once more on shutdown.

Example:
  mpesa-sms serve --address 0.0.0.0:8080 --request-permission`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Address, "address", "a", "", "Listen address (default from server.address)")
	Cmd.Flags().BoolVar(&RequestPermission, "request-permission", false, "Request message access before serving")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}
	if Address != "" {
		c.GetConfig().Server.Address = Address
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Run(ctx, c, RequestPermission)
}

// Run serves until ctx is cancelled, then shuts the server and the forwarder down.
func Run(ctx context.Context, c *container.Container, requestPermission bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.GetLogger()

	if requestPermission {
		granted, err := c.GetService().RequestPermission(ctx)
		if err != nil {
			return err
		}
		if !granted {
			logger.Warn("Message access not granted, incoming messages will be skipped")
		}
	}

	server := c.NewServer()
	if err := server.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Serve)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if fwd := c.GetForwarder(); fwd != nil {
		interval := config.Seconds(c.GetConfig().Forward.IntervalSeconds)
		g.Go(func() error {
			return fwd.Run(gctx, c.GetBuffer(), interval)
		})
	}

	err := g.Wait()
	logger.Info("Server stopped", logging.Field{Key: logging.FieldCount, Value: c.GetBuffer().Len()})
	return err
}
