package transport

import (
	"context"
	"sync"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

// queue is an unbounded in-memory message queue.
type queue struct {
	mu     sync.Mutex
	items  []proto.Message
	wake   chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{wake: make(chan struct{}, 1)}
}

func (q *queue) push(msg proto.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.items = append(q.items, msg)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *queue) pop(ctx context.Context) (proto.Message, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				select {
				case q.wake <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return msg, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pipe is one side of an in-memory transport pair.
type pipe struct {
	in  *queue
	out *queue
}

// Pipe returns two connected in-memory transports. Messages sent on one side
// are received on the other. Queues are unbounded; Pipe is meant for tests
// and in-process buses.
func Pipe() (Transport, Transport) {
	a := newQueue()
	b := newQueue()
	return &pipe{in: a, out: b}, &pipe{in: b, out: a}
}

func (p *pipe) Recv(ctx context.Context) (proto.Message, error) {
	return p.in.pop(ctx)
}

func (p *pipe) Send(msg proto.Message) error {
	return p.out.push(msg)
}

func (p *pipe) Flush() error { return nil }

func (p *pipe) Close() error {
	p.in.close()
	p.out.close()
	return nil
}
