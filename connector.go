package mapsource

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/sources"
	_ "github.com/datazip-inc/mapsource/writers/parquet" // registering local parquet writer
)

// RegisterEngine runs the command line against engine and exits
func RegisterEngine(engine protocol.Engine) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := protocol.CreateRootCommand(func(concurrency int) protocol.Adapter {
		return sources.NewFactory(engine, sources.WithConcurrency(concurrency))
	})

	// Execute the root command
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
