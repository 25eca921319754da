package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hilthontt/townhall/dependency"
	"github.com/hilthontt/townhall/infrastructure/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.GetConfig()

	container, err := dependency.NewContainer(cfg)
	if err != nil {
		log.Fatalf("error initializing dependencies: %v", err)
	}
	logger := container.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           container.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WSCore.Run(gctx)
		return nil
	})

	if container.EventConsumer != nil {
		g.Go(func() error {
			return container.EventConsumer.Start(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("Server starting",
			zap.String("address", srv.Addr),
			zap.String("mode", cfg.Server.RunMode),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}

	if err := container.Shutdown(); err != nil {
		logger.Error("failed to shut down dependencies", zap.Error(err))
	}

	log.Println("Server exited")
}
