package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/md-rashed-zaman/meetmatch/libs/config"
	"github.com/md-rashed-zaman/meetmatch/libs/grpcx"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthServiceName = "meetmatch.MatchService"

type healthSetter interface {
	setServing(bool)
}

type grpcHealth struct {
	srv *health.Server
}

func (h grpcHealth) setServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(healthServiceName, status)
}

// startGrpcServer exposes the standard health service. It reports NOT_SERVING
// until the first participant snapshot has loaded.
func startGrpcServer(ctx context.Context, logger *slog.Logger, port string) (healthSetter, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, err
	}

	srv := grpcx.NewServer(logger)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	h := grpcHealth{srv: hs}
	h.setServing(false)

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		srv.GracefulStop()
	}()

	return h, nil
}

// healthcheck probes the local gRPC health service, for container health checks.
func healthcheck() int {
	port, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := grpcx.CheckHealth(ctx, "127.0.0.1:"+port, healthServiceName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
