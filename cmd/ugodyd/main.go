package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/BohdanGlowacki/UGODY/internal/bootstrap"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/ingest"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
	"github.com/BohdanGlowacki/UGODY/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $UGODY_CONFIG)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ugodyd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("ugodyd stopped")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := repository.HealthCheck(ctx, app.DB, 5*time.Second, logger); err != nil {
		return err
	}
	if _, err := app.Recover(ctx); err != nil {
		return fmt.Errorf("recover unfinished documents: %w", err)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	grpcServer, healthServer := server.New(app.Documents, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.Worker.Run(gctx) })

	g.Go(func() error {
		logger.Info("ugodyd listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()
		app.Queue.Close()
		grpcServer.GracefulStop()
		return nil
	})

	scan := func(trigger string) {
		summary, err := app.Documents.Scan(gctx, "")
		if err != nil {
			logger.Error("scan failed", "trigger", trigger, "error", err)
			return
		}
		logger.Info("scan finished",
			"trigger", trigger,
			"dir", summary.Directory,
			"scanned", summary.Scanned,
			"new", summary.New,
			"deduplicated", summary.Deduplicated,
			"failed", summary.Failed,
		)
	}

	if cfg.Scan.ScanOnStart {
		g.Go(func() error {
			scan("startup")
			return nil
		})
	}

	if cfg.Scan.Watch {
		g.Go(func() error {
			events, err := ingest.StartWatcher(gctx, ingest.WatchConfig{Dir: cfg.Scan.Directory, Debounce: cfg.Scan.Debounce}, logger)
			if err != nil {
				// the worker and gRPC keep running without the watcher
				logger.Warn("directory watcher disabled", "dir", cfg.Scan.Directory, "error", err)
				return nil
			}
			for range events {
				scan("watch")
			}
			return nil
		})
	}

	return g.Wait()
}
