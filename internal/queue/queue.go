// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package queue

import (
	"github.com/pkg/errors"

	"github.com/mattermost/webhookd/model"
)

// ErrFull is returned by Push when the queue is at capacity. Producers map
// this to an overload rejection rather than blocking the request.
var ErrFull = errors.New("delivery queue is full")

// Queue is a fixed-capacity FIFO handoff of delivery tasks between the ingest
// endpoint and the worker pool. Pushes never block; pops block until a task
// or an end marker arrives.
type Queue struct {
	tasks chan *model.DeliveryTask
}

// New creates a queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{
		tasks: make(chan *model.DeliveryTask, capacity),
	}
}

// Push enqueues a task without blocking, returning ErrFull when the queue is
// at capacity.
func (q *Queue) Push(task *model.DeliveryTask) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrFull
	}
}

// Pop blocks until a task is available. A nil task is the end marker telling
// the consumer to exit.
func (q *Queue) Pop() *model.DeliveryTask {
	return <-q.tasks
}

// PushEndMarkers enqueues n end markers, blocking as needed; n consumers each
// popping one marker will terminate.
func (q *Queue) PushEndMarkers(n int) {
	for i := 0; i < n; i++ {
		q.tasks <- nil
	}
}

// Len returns the number of tasks currently queued.
func (q *Queue) Len() int {
	return len(q.tasks)
}
