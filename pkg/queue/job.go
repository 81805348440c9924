package queue

import "context"

// Job consumes one message type from the queue. Name identifies the worker
// in logs; Type is the message type it subscribes to.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}
