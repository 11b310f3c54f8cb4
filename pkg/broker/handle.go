package broker

import (
	"context"
	"fmt"

	"github.com/aldrin-bus/aldrin/pkg/proto"
	"github.com/aldrin-bus/aldrin/pkg/transport"
)

// Handle interacts with a running Broker: it admits new connections and
// requests shutdown. Handles are safe for concurrent use.
type Handle struct {
	events    chan<- connEvent
	done      <-chan struct{}
	ids       *connIDAllocator
	queueSize int
}

// Connect performs the handshake on a transport, ignoring the client's
// opaque data and sending none back. Use BeginConnect to inspect the data or
// to reject clients. The returned Connection must be driven with Run.
func (h *Handle) Connect(ctx context.Context, t transport.Transport) (*Connection, error) {
	pending, err := h.BeginConnect(ctx, t)
	if err != nil {
		return nil, err
	}
	return pending.Accept(ctx, nil)
}

// BeginConnect receives and validates the client's handshake message. The
// returned PendingConnection exposes the client's opaque data and must be
// accepted or rejected.
func (h *Handle) BeginConnect(ctx context.Context, t transport.Transport) (*PendingConnection, error) {
	msg, err := t.Recv(ctx)
	if err != nil {
		t.Close() //nolint:errcheck
		return nil, fmt.Errorf("receive handshake: %w", err)
	}

	switch msg := msg.(type) {
	case proto.Connect:
		// Legacy handshake: a single version, treated as the window
		// [v, v].
		version, ok := proto.Negotiate(msg.Version, msg.Version)
		if !ok {
			t.Send(proto.ConnectReply{ //nolint:errcheck
				Result:  proto.ConnectIncompatibleVersion,
				Version: proto.MaxVersion.Minor(),
			})
			t.Flush() //nolint:errcheck
			t.Close() //nolint:errcheck
			return nil, fmt.Errorf("%w: client version 1.%d", ErrIncompatibleVersion, msg.Version)
		}

		return &PendingConnection{
			handle:     h,
			t:          t,
			version:    version,
			legacy:     true,
			clientData: msg.Value,
		}, nil

	case proto.Connect2:
		version, ok := proto.Negotiate(msg.MinMinor, msg.MaxMinor)
		if msg.MajorVersion != proto.Major || !ok {
			t.Send(proto.ConnectReply2{ //nolint:errcheck
				Result:   proto.ConnectIncompatibleVersion,
				MinMinor: proto.MinVersion.Minor(),
				MaxMinor: proto.MaxVersion.Minor(),
			})
			t.Flush() //nolint:errcheck
			t.Close() //nolint:errcheck
			return nil, fmt.Errorf("%w: client window %d.%d-%d.%d",
				ErrIncompatibleVersion, msg.MajorVersion, msg.MinMinor, msg.MajorVersion, msg.MaxMinor)
		}

		return &PendingConnection{
			handle:     h,
			t:          t,
			version:    version,
			clientData: msg.Value,
		}, nil

	default:
		t.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: got message type %d", ErrUnexpectedMessage, msg.MsgType())
	}
}

// Shutdown asks the broker to shut down. All connections are closed cleanly
// before Run returns.
func (h *Handle) Shutdown(ctx context.Context) error {
	return h.sendEvent(ctx, evShutdownBroker{})
}

// ShutdownIdle asks the broker to shut down as soon as no connections
// remain. It does not prevent new connections in the meantime.
func (h *Handle) ShutdownIdle(ctx context.Context) error {
	return h.sendEvent(ctx, evShutdownIdle{})
}

// ShutdownConnection initiates shutdown of one connection.
func (h *Handle) ShutdownConnection(ctx context.Context, conn *ConnectionHandle) error {
	return h.sendEvent(ctx, evShutdownConnection{id: conn.id})
}

// TakeStatistics samples the broker's statistics. Window counters reset on
// each call.
func (h *Handle) TakeStatistics(ctx context.Context) (Statistics, error) {
	reply := make(chan Statistics, 1)
	if err := h.sendEvent(ctx, evTakeStatistics{reply: reply}); err != nil {
		return Statistics{}, err
	}

	select {
	case stats := <-reply:
		return stats, nil
	case <-h.done:
		return Statistics{}, ErrBrokerShutdown
	case <-ctx.Done():
		return Statistics{}, ctx.Err()
	}
}

func (h *Handle) sendEvent(ctx context.Context, ev connEvent) error {
	select {
	case h.events <- ev:
		return nil
	case <-h.done:
		return ErrBrokerShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PendingConnection is a handshake that has not been accepted or rejected
// yet. Dropping it without either simply leaves the transport open; close
// the transport to abandon the client.
type PendingConnection struct {
	handle     *Handle
	t          transport.Transport
	version    proto.ProtocolVersion
	legacy     bool
	clientData proto.Value
}

// ClientData returns the client's opaque handshake data.
func (p *PendingConnection) ClientData() proto.Value {
	return p.clientData
}

// Version returns the negotiated protocol version.
func (p *PendingConnection) Version() proto.ProtocolVersion {
	return p.version
}

// Accept replies to the client with the broker's opaque data and registers
// the connection. The returned Connection must be driven with Run.
func (p *PendingConnection) Accept(ctx context.Context, brokerData proto.Value) (*Connection, error) {
	var reply proto.Message
	if p.legacy {
		reply = proto.ConnectReply{Result: proto.ConnectOk, Version: p.version.Minor(), Value: brokerData}
	} else {
		reply = proto.ConnectReply2{Result: proto.ConnectOk, Minor: p.version.Minor(), Value: brokerData}
	}

	if err := p.t.Send(reply); err != nil {
		p.t.Close() //nolint:errcheck
		return nil, fmt.Errorf("send handshake reply: %w", err)
	}
	if err := p.t.Flush(); err != nil {
		p.t.Close() //nolint:errcheck
		return nil, fmt.Errorf("flush handshake reply: %w", err)
	}

	id := p.handle.ids.acquire()
	out := make(chan proto.Message, p.handle.queueSize)

	ev := evNewConnection{id: id, version: p.version, out: out}
	if err := p.handle.sendEvent(ctx, ev); err != nil {
		p.t.Close() //nolint:errcheck
		return nil, ErrBrokerShutdown
	}

	return newConnection(p.t, id, p.handle.events, p.handle.done, out), nil
}

// Reject refuses the client, sending the broker's opaque data back.
func (p *PendingConnection) Reject(brokerData proto.Value) error {
	var reply proto.Message
	if p.legacy {
		reply = proto.ConnectReply{Result: proto.ConnectRejected, Value: brokerData}
	} else {
		reply = proto.ConnectReply2{Result: proto.ConnectRejected, Value: brokerData}
	}

	err := p.t.Send(reply)
	if ferr := p.t.Flush(); err == nil {
		err = ferr
	}
	if cerr := p.t.Close(); err == nil {
		err = cerr
	}
	return err
}
