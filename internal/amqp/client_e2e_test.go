//go:build e2e

package amqp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPublishConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	}
	rmq, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start rabbitmq container")
	t.Cleanup(func() { _ = rmq.Terminate(context.Background()) })

	host, err := rmq.Host(ctx)
	require.NoError(t, err)
	port, err := rmq.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	url := fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())

	var c *Client
	require.Eventually(t, func() bool {
		c, err = NewClient(url, "tracker", "tracker_changes", nil)
		return err == nil
	}, 30*time.Second, time.Second)
	t.Cleanup(func() { _ = c.Close() })

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	got := make(chan *RecordChangedMessage, 2)
	attempts := 0
	go func() {
		_ = c.Consume(cctx, func(_ context.Context, m *RecordChangedMessage) error {
			attempts++
			if attempts == 1 {
				return fmt.Errorf("first delivery fails")
			}
			got <- m
			return nil
		})
	}()

	require.NoError(t, c.NotifyChange(ctx, "userTasks", 42, OpUpdate))

	select {
	case m := <-got:
		assert.Equal(t, "userTasks", m.Collection)
		assert.Equal(t, int64(42), m.RecordID)
		assert.Equal(t, OpUpdate, m.Operation)
		assert.NotEmpty(t, m.MessageID)
	case <-time.After(20 * time.Second):
		t.Fatal("message was not redelivered after a handler error")
	}
}
