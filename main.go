package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chemhits/internal"
	"chemhits/internal/api"
	"chemhits/internal/config"
	"chemhits/internal/container"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// requestTimeout bounds a single hit-calling request, ChEMBL paging included
const requestTimeout = 2 * time.Minute

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	logger := internal.NewDefaultLogger()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// The server answers over HTTP only; file outputs belong to the CLI
	service, err := appContainer.NewService("")
	if err != nil {
		log.Fatalf("Failed to create hit-calling service: %v", err)
	}

	handler := api.NewHitsHandler(service, logger)
	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(handler, appContainer.Metrics, requestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting chemhits server on port %s (source %s)", appConfig.Server.Port, appContainer.Supplier.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
