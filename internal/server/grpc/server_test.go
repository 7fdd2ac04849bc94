package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewServer("127.0.0.1:0", logging.Nop{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewServer("127.0.0.1:99999", logging.Nop{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// serveBuf starts srv on an in-memory listener and returns a health client.
func serveBuf(t *testing.T, srv *Server) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, lis)
		close(done)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return healthpb.NewHealthClient(conn)
}

func statusOf(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func waitFor(t *testing.T, c healthpb.HealthClient, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err == nil && resp.GetStatus() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("health status did not become %v", want)
}

func TestHealth_FollowsDependencyChecks(t *testing.T) {
	var down atomic.Bool
	db := Check{Name: "postgres", Ping: func(context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return nil
	}}

	c := serveBuf(t, NewServer("", logging.Nop{}, 10*time.Millisecond, db))

	waitFor(t, c, healthpb.HealthCheckResponse_SERVING)
	if got := statusOf(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("overall status = %v, want SERVING", got)
	}

	down.Store(true)
	waitFor(t, c, healthpb.HealthCheckResponse_NOT_SERVING)

	down.Store(false)
	waitFor(t, c, healthpb.HealthCheckResponse_SERVING)
}

func TestHealth_UnknownService(t *testing.T) {
	c := serveBuf(t, NewServer("", logging.Nop{}, time.Second))
	waitFor(t, c, healthpb.HealthCheckResponse_SERVING)

	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "gophers"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v, want NotFound", status.Code(err))
	}
}

func TestNewServer_DefaultInterval(t *testing.T) {
	if got := NewServer("", logging.Nop{}, 0).Interval(); got != defaultCheckInterval {
		t.Fatalf("interval = %v, want %v", got, defaultCheckInterval)
	}
	if got := NewServer("", logging.Nop{}, time.Second).Interval(); got != time.Second {
		t.Fatalf("interval = %v, want 1s", got)
	}
}

func TestRecoverInterceptor(t *testing.T) {
	s := NewServer("", logging.Nop{}, time.Second)
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Boom"}

	_, err := s.recoverInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want Internal", status.Code(err))
	}

	resp, err := s.recoverInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := NewServer("", logging.Nop{}, time.Second)
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Fail"}
	want := status.Error(codes.Unavailable, "down")

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
