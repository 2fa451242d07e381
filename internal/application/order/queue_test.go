package order

import (
	"context"
	"testing"
	"time"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	"github.com/damianpacheco/facturacion-arca/internal/testutil"
)

func TestQueueProcessesJobs(t *testing.T) {
	processed := make(chan string, 1)
	deps := &serviceDeps{
		platform: &testutil.MockPlatform{
			GetOrderFunc: func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
				processed <- orderID
				return paidOrder(), nil
			},
		},
	}
	svc := newTestService(deps)

	q := NewQueue(svc, testutil.NewNullLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	jobID, ok := q.Enqueue("987654", "100")
	if !ok || jobID == "" {
		t.Fatalf("Enqueue = %q/%v", jobID, ok)
	}

	select {
	case orderID := <-processed:
		if orderID != "100" {
			t.Errorf("processed order %q, want 100", orderID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRejectsAfterStop(t *testing.T) {
	q := NewQueue(newTestService(&serviceDeps{}), testutil.NewNullLogger())
	q.Stop()

	if _, ok := q.Enqueue("987654", "100"); ok {
		t.Error("stopped queue must reject jobs")
	}
}
