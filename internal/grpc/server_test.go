package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func status(s *Server) healthpb.HealthCheckResponse_ServingStatus {
	resp, err := s.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.Status
}

func TestNewServerStartsNotServing(t *testing.T) {
	s := NewServer()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(s))
}

func TestMonitorFollowsChecks(t *testing.T) {
	s := NewServer()
	healthy := make(chan bool, 1)
	healthy <- true
	var last bool
	checks := map[string]Check{
		"db": func(context.Context) error {
			select {
			case last = <-healthy:
			default:
			}
			if !last {
				return errors.New("down")
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Monitor(ctx, 10*time.Millisecond, checks)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return status(s) == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	healthy <- false
	require.Eventually(t, func() bool {
		return status(s) == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
