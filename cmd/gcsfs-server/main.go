// Package main is the entry point for the gcsfs debug/admin server: a
// read-only HTTP surface (stat, list, cat, metrics) over a
// GCS-backed gcsfs.FileSystem.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spider8801/gcsfs"
	"github.com/Spider8801/gcsfs/internal/config"
	"github.com/Spider8801/gcsfs/internal/debugserver"
	"github.com/Spider8801/gcsfs/internal/gcsauth"
	"github.com/Spider8801/gcsfs/internal/gcsrequest"
	"github.com/Spider8801/gcsfs/internal/logging"
	"github.com/Spider8801/gcsfs/internal/metrics"
	"github.com/Spider8801/gcsfs/internal/statstap"
	"github.com/Spider8801/gcsfs/internal/ttlcache"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	configPath := flag.String("config", "gcsfs.yaml", "path to configuration file")
	addr := flag.String("addr", "", "override listening address (default: from -port/-host or :9090)")
	port := flag.Int("port", 9090, "listening port")
	host := flag.String("host", "", "listening host")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text, json")
	shutdownTimeout := flag.Int("shutdown-timeout", 30, "graceful shutdown timeout in seconds")
	grpcRangeTarget := flag.String("grpc-range-target", "", "optional gRPC target serving range fetches; when set, reads bypass the JSON API's ranged GET")
	grpcRangeInsecure := flag.Bool("grpc-range-insecure", false, "dial -grpc-range-target without TLS (for a sidecar on localhost)")
	flag.Parse()

	logging.Setup(*logLevel, *logFormat, os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	auth, err := gcsauth.NewADCAuthProvider(ctx, "https://www.googleapis.com/auth/devstorage.read_only")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize GCS credentials: %v\n", err)
		os.Exit(1)
	}

	opts := cfg.ToOptions()
	if cfg.Metrics.Enabled {
		opts.StatsTap = statstap.NewPrometheus(prometheus.DefaultRegisterer)
	}
	if *grpcRangeTarget != "" {
		fetcher, err := dialRangeFetcher(*grpcRangeTarget, *grpcRangeInsecure)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to dial grpc range target: %v\n", err)
			os.Exit(1)
		}
		opts.RangeFetcher = fetcher
	}

	metrics.Register()

	factory := gcsrequest.NewRealFactory(&http.Client{})
	fs := gcsfs.NewFileSystem(factory, auth, gcsauth.GCEZoneProvider{}, opts)

	var snapshot *ttlcache.Snapshot
	if cfg.Snapshot.Enabled {
		if err := fs.LoadLocationSnapshot(cfg.Snapshot.Path); err != nil {
			slog.Warn("failed to load bucket-location snapshot", "path", cfg.Snapshot.Path, "error", err)
		}
		snapshot = fs.StartLocationSnapshotting(cfg.Snapshot.Path, config.Seconds(cfg.Snapshot.Interval))
	}

	srv := debugserver.New(fs)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("%s:%d", *host, *port)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gcsfs debug server listening", "addr", listenAddr)
		if err := srv.ListenAndServe(listenAddr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*shutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if snapshot != nil {
			if err := snapshot.Stop(); err != nil {
				slog.Error("final snapshot write failed", "error", err)
			}
		}
		slog.Info("server stopped")

	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}
}

// dialRangeFetcher dials target and wraps the connection as a
// gcsrequest.RangeFetcher. Range-fetch gRPC services are typically
// co-located sidecars, so -grpc-range-insecure is available for
// plaintext dialing; production deployments should supply real
// transport credentials instead.
func dialRangeFetcher(target string, insecureDial bool) (*gcsrequest.GRPCBlockFetcher, error) {
	creds := credentials.NewTLS(nil)
	if insecureDial {
		creds = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", target, err)
	}
	return gcsrequest.NewGRPCBlockFetcher(conn), nil
}
