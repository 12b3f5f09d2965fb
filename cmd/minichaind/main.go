// Command minichaind runs the minichain runtime and serves it over
// gRPC.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/blockberries/minichain/config"
	minichaingrpc "github.com/blockberries/minichain/grpc"
	"github.com/blockberries/minichain/logging"
	"github.com/blockberries/minichain/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("load config")
	}
	logger, err := logging.Init("minichaind", cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("init logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("minichaind exited")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []server.Option{
		server.WithDeliveryDelay(cfg.Router.DeliveryDelay),
		server.WithLogger(logger),
		server.WithMetricsRegisterer(reg),
		server.WithDefaultOwner(cfg.Runtime.DefaultOwner),
	}
	if cfg.Runtime.SeedDemoChain {
		opts = append(opts, server.WithDemoChain(server.DemoOwner))
	}
	rt := server.New(opts...)
	if err := rt.Start(ctx); err != nil {
		return err
	}
	defer rt.Stop()

	lis, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return err
	}
	limiter := minichaingrpc.NewPeerLimiter(minichaingrpc.RateLimitConfig{
		Enabled: cfg.RateLimit.Enabled,
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
	})
	gs := grpc.NewServer(grpc.UnaryInterceptor(limiter.UnaryInterceptor()))
	minichaingrpc.NewGRPCServer(rt, logger.With().Str("component", "grpc").Logger()).Register(gs)

	errc := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("grpc listening")
		errc <- gs.Serve(lis)
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info().Str("addr", cfg.Metrics.ListenAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-errc:
		logger.Error().Err(err).Msg("server failed")
	}

	gs.GracefulStop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return err
}
