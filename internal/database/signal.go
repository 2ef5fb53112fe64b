package database

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbsmedya/gofactory/internal/logger"
)

// ShutdownContext returns a context that is cancelled when the process
// receives SIGINT or SIGTERM. The inspection commands pass it down so an
// interrupted run abandons its queries and lets the connection retry loop
// bail out instead of finishing its backoff. The received signal is logged
// once; a nil logger disables that.
func ShutdownContext(log *logger.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			if log != nil {
				log.Infow("received shutdown signal", "signal", sig.String())
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}
