package transport

import (
	"context"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

// Buffered interposes an unbounded in-memory queue in front of a raw
// transport, decoupling the dispatcher from the underlying pipe's
// back-pressure. The pump goroutine runs until the raw transport fails or is
// closed; the terminating error is delivered after all buffered messages
// have been drained.
type Buffered struct {
	raw Transport
	in  *queue

	errCh chan error
	err   error
}

// NewBuffered wraps a raw transport and starts the inbound pump.
func NewBuffered(raw Transport) *Buffered {
	b := &Buffered{
		raw:   raw,
		in:    newQueue(),
		errCh: make(chan error, 1),
	}
	go b.pump()
	return b
}

func (b *Buffered) pump() {
	for {
		msg, err := b.raw.Recv(context.Background())
		if err != nil {
			b.errCh <- err
			b.in.close()
			return
		}
		if b.in.push(msg) != nil {
			return
		}
	}
}

// Recv returns the next buffered message.
func (b *Buffered) Recv(ctx context.Context) (proto.Message, error) {
	msg, err := b.in.pop(ctx)
	if err == ErrClosed {
		if b.err == nil {
			b.err = <-b.errCh
		}
		return nil, b.err
	}
	return msg, err
}

// Send passes through to the raw transport.
func (b *Buffered) Send(msg proto.Message) error { return b.raw.Send(msg) }

// Flush passes through to the raw transport.
func (b *Buffered) Flush() error { return b.raw.Flush() }

// Close closes the raw transport and stops the pump.
func (b *Buffered) Close() error {
	err := b.raw.Close()
	b.in.close()
	return err
}
