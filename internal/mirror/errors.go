package mirror

import (
	"errors"
	"fmt"
)

// ErrQueueClosed is returned by Submit and Barrier after Stop.
var ErrQueueClosed = errors.New("mirror: queue closed")

// QueueFullError reports a shard that stayed full past EnqueueTimeout.
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("mirror: shard %d full (%d/%d)", e.Shard, e.Length, e.Capacity)
}
