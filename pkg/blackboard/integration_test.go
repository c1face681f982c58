//go:build integration

package blackboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container for testing.
func setupRedis(t *testing.T) string {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

func TestIntegration_SaveAndSubscribe(t *testing.T) {
	client, err := NewClientFromURL(setupRedis(t), "integration")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	bb := finishedBlackboard()
	if err := client.SaveBlackboard(ctx, bb); err != nil {
		t.Fatalf("Failed to save blackboard: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Subject != bb.ID {
			t.Errorf("expected event for %s, got %s", bb.ID, ev.Subject)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for decision event")
	}

	got, err := client.GetBlackboard(ctx, bb.ID)
	if err != nil {
		t.Fatalf("Failed to read blackboard: %v", err)
	}
	if got.LastResponse != bb.LastResponse {
		t.Errorf("expected last response %q, got %q", bb.LastResponse, got.LastResponse)
	}
}
