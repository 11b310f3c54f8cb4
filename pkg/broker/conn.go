package broker

import (
	"context"

	"github.com/aldrin-bus/aldrin/pkg/proto"
	"github.com/aldrin-bus/aldrin/pkg/transport"
)

// Connection pumps messages between one client transport and the broker
// loop. It is created by accepting a PendingConnection and must be driven
// with Run.
type Connection struct {
	t      transport.Transport
	id     connID
	events chan<- connEvent
	done   <-chan struct{}
	out    <-chan proto.Message
	handle *ConnectionHandle
}

// ConnectionHandle identifies a connection towards Handle.ShutdownConnection.
type ConnectionHandle struct {
	id connID
}

func newConnection(t transport.Transport, id connID, events chan<- connEvent, done <-chan struct{}, out <-chan proto.Message) *Connection {
	return &Connection{
		t:      t,
		id:     id,
		events: events,
		done:   done,
		out:    out,
		handle: &ConnectionHandle{id: id},
	}
}

// Handle returns the connection's handle.
func (c *Connection) Handle() *ConnectionHandle {
	return c.handle
}

// Run drives the connection until the client disconnects, the transport
// fails or the broker shuts the connection down.
func (c *Connection) Run(ctx context.Context) error {
	go c.writeLoop()

	for {
		msg, err := c.t.Recv(ctx)
		if err != nil {
			c.notifyShutdown()
			return err
		}

		select {
		case c.events <- evMessage{id: c.id, msg: msg}:
		case <-c.done:
			c.t.Close() //nolint:errcheck
			return ErrBrokerShutdown
		case <-ctx.Done():
			c.notifyShutdown()
			return ctx.Err()
		}
	}
}

// writeLoop drains the outbound queue into the transport. The broker closes
// the queue when the connection is removed; the loop then flushes and closes
// the transport, which in turn unblocks Run's reader.
func (c *Connection) writeLoop() {
	for msg := range c.out {
		if err := c.t.Send(msg); err != nil {
			break
		}
		if len(c.out) == 0 {
			if err := c.t.Flush(); err != nil {
				break
			}
		}
	}

	c.t.Flush() //nolint:errcheck
	c.t.Close() //nolint:errcheck
}

func (c *Connection) notifyShutdown() {
	select {
	case c.events <- evConnectionShutdown{id: c.id}:
	case <-c.done:
	}
}
