package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sanjana23-is/chess-multiplayer/internal/config"
	"github.com/Sanjana23-is/chess-multiplayer/internal/events"
	"github.com/Sanjana23-is/chess-multiplayer/internal/match"
	"github.com/Sanjana23-is/chess-multiplayer/internal/transport"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return exitConfig, err
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return exitConfig, err
	}
	defer func() { _ = logger.Sync() }()

	opts := []match.Option{}
	if cfg.NATSURL != "" {
		pub, err := events.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return exitRuntime, err
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, match.WithPublisher(pub))
		logger.Info("announcing sessions on nats", zap.String("subject", cfg.NATSSubject))
	}
	mm := match.New(logger, opts...)

	ws := transport.NewServer(mm, logger, transport.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
		ReadLimit:      cfg.ReadLimit,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/health", transport.Health(mm))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// hijacked websocket connections are not tracked by http.Server
		ws.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
