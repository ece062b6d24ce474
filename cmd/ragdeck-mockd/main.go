// Command ragdeck-mockd serves an in-memory retrieval backend for trying
// the console without a real deployment. Embedding jobs advance on a
// timer and every change is announced on the owner's event stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deevus/ragdeck-tui/internal/logging"
	"github.com/deevus/ragdeck-tui/internal/mockserver"
	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8484", "listen address")
	apiKey := flag.String("api-key", "", "bearer token required on every request (empty disables auth)")
	owner := flag.String("owner", "demo", "owner id the demo data belongs to")
	heartbeat := flag.Duration("heartbeat", mockserver.DefaultHeartbeat, "interval between heartbeat frames")
	simulate := flag.Duration("simulate", 2*time.Second, "interval between simulated job steps (0 disables)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := run(*addr, *apiKey, *owner, *heartbeat, *simulate, *level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, apiKey, owner string, heartbeat, simulate time.Duration, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	logger := logging.New(os.Stderr, lvl)
	if lvl > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := mockserver.New(mockserver.Params{
		Addr:      addr,
		APIKey:    apiKey,
		Heartbeat: heartbeat,
		Data:      mockserver.DemoData(owner, time.Now()),
		Logger:    logger,
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	logger.Info("serving demo data", "owner", owner, "url", "http://"+srv.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if simulate > 0 {
		go srv.Simulate(ctx, simulate)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return srv.Stop()
}
