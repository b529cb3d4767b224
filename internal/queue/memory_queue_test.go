package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{EntityType: EntityReview, EntityID: "a"}))
	require.NoError(t, q.Enqueue(ctx, Job{EntityType: EntityOrder, EntityID: "b"}))
	require.NoError(t, q.Enqueue(ctx, Job{EntityType: EntityPerformer, EntityID: "c"}))
	assert.Equal(t, 3, q.Len())

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", first.EntityID)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", second.EntityID)

	third, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", third.EntityID)
	assert.Zero(t, q.Len())
}

func TestMemoryQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	q := NewMemoryQueue()

	type result struct {
		job *Job
		err error
	}
	done := make(chan result, 1)
	go func() {
		job, err := q.Dequeue(context.Background())
		done <- result{job, err}
	}()

	select {
	case <-done:
		t.Fatal("Dequeue вернулся на пустой очереди")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Enqueue(context.Background(), Job{EntityType: EntityReview, EntityID: "wake"}))

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "wake", res.job.EntityID)
	case <-time.After(time.Second):
		t.Fatal("Dequeue не проснулся после Enqueue")
	}
}

func TestMemoryQueue_DequeueRespectsContext(t *testing.T) {
	q := NewMemoryQueue()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Dequeue не вернулся после отмены контекста")
	}
}

func TestMemoryQueue_AttemptSurvivesRoundTrip(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{EntityType: EntityService, EntityID: "x", Attempt: 3}))

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, job.Attempt)
}
