// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package queue_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mattermost/webhookd/internal/queue"
	"github.com/mattermost/webhookd/model"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := queue.New(10)

	for i := 0; i < 5; i++ {
		err := q.Push(&model.DeliveryTask{SubscriptionID: fmt.Sprintf("sub-%d", i)})
		require.NoError(t, err)
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		task := q.Pop()
		require.NotNil(t, task)
		require.Equal(t, fmt.Sprintf("sub-%d", i), task.SubscriptionID)
	}
	require.Equal(t, 0, q.Len())
}

func TestQueueFull(t *testing.T) {
	q := queue.New(2)

	require.NoError(t, q.Push(&model.DeliveryTask{}))
	require.NoError(t, q.Push(&model.DeliveryTask{}))
	require.Equal(t, queue.ErrFull, q.Push(&model.DeliveryTask{}))

	// Draining one slot makes room again.
	require.NotNil(t, q.Pop())
	require.NoError(t, q.Push(&model.DeliveryTask{}))
}

func TestQueueEndMarkers(t *testing.T) {
	q := queue.New(10)
	require.NoError(t, q.Push(&model.DeliveryTask{SubscriptionID: "sub"}))

	const consumers = 3
	q.PushEndMarkers(consumers)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var popped int
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task := q.Pop()
				if task == nil {
					return
				}
				mu.Lock()
				popped++
				mu.Unlock()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumers did not terminate on end markers")
	}
	require.Equal(t, 1, popped)
}
