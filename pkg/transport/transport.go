// Package transport defines the message pipes connecting clients to the
// broker. A transport delivers already-framed protocol messages; the broker
// core never touches bytes.
package transport

import (
	"context"
	"errors"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

// ErrClosed is returned from operations on a closed transport.
var ErrClosed = errors.New("transport closed")

// Transport is a bidirectional pipe of protocol messages.
type Transport interface {

	// Recv awaits the next inbound message or a transport error.
	Recv(ctx context.Context) (proto.Message, error)

	// Send enqueues one outbound message.
	Send(msg proto.Message) error

	// Flush pushes out any buffered outbound messages.
	Flush() error

	// Close implements io.Closer. Closing unblocks pending Recv calls.
	Close() error
}
