package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/ezz-ae/entrestate-inventory-backend/internal/adapter/grpc"
	httpadapter "github.com/ezz-ae/entrestate-inventory-backend/internal/adapter/http"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/truthcheck"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC API, the ops HTTP endpoints and the truth-check scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	// gRPC API
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log.With("component", "grpc")),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)
	grpcadapter.RegisterInventoryRoutingServer(grpcServer, grpcadapter.NewServer(a.routing, a.overrides, a.truthCheck, log))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	// Ops HTTP
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpadapter.NewRouter(a.truthCheck, a.metrics, a.ready, log.With("component", "http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Truth-check scheduler
	var scheduler *truthcheck.Scheduler
	if cfg.TruthCheckSchedule != "" {
		scheduler, err = truthcheck.NewScheduler(cfg.TruthCheckSchedule, a.truthCheck, log.With("component", "truthcheck"))
		if err != nil {
			return err
		}
		scheduler.Start()
	} else {
		log.Info("truth check schedule disabled")
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr, "store", cfg.Store)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		log.Info("ops HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	serveErr := waitForShutdown(errCh, log)

	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("ops HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	log.Info("servers stopped")

	return serveErr
}

// waitForShutdown waits for SIGTERM, SIGINT or a server failure
func waitForShutdown(errCh <-chan error, log *logger.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down gracefully", "signal", sig.String())
		return nil
	case err := <-errCh:
		log.Error("server failed, shutting down", "error", err)
		return err
	}
}
