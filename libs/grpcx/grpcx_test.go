package grpcx

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/md-rashed-zaman/meetmatch/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

func TestHealthRoundTripPropagatesRequestID(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hs := health.NewServer()
	hs.SetServingStatus("meetmatch", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()

	conn, err := Dial(lis.Addr().String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ctx = httpx.ContextWithRequestID(ctx, "req-42")

	var header metadata.MD
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: "meetmatch"}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
	if got := header.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != "req-42" {
		t.Fatalf("expected echoed request id, got %v", got)
	}
}

func TestCheckHealth(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hs := health.NewServer()
	hs.SetServingStatus("ready", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("warming", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := CheckHealth(ctx, lis.Addr().String(), "ready"); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
	if err := CheckHealth(ctx, lis.Addr().String(), "warming"); err == nil {
		t.Fatal("expected error for NOT_SERVING")
	}
}
