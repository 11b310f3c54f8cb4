package broker

import "errors"

var (
	// ErrBrokerShutdown is returned when an operation races with broker
	// shutdown.
	ErrBrokerShutdown = errors.New("broker shut down")

	// ErrIncompatibleVersion is returned from the handshake when the
	// client's and broker's protocol version windows do not overlap.
	ErrIncompatibleVersion = errors.New("incompatible protocol version")

	// ErrUnexpectedMessage is returned from the handshake when the first
	// message is not Connect or Connect2.
	ErrUnexpectedMessage = errors.New("unexpected message during handshake")

	// errMissingSerial marks request messages that require a serial.
	errMissingSerial = errors.New("missing serial")

	// errDuplicateCallSerial marks a caller reusing a serial that still
	// has a call in flight.
	errDuplicateCallSerial = errors.New("duplicate call serial")

	// errUnknownIntrospectionReply marks an introspection reply that does
	// not match an in-flight query from its sender.
	errUnknownIntrospectionReply = errors.New("unknown introspection reply")

	// errQueueFull terminates slow consumers.
	errQueueFull = errors.New("connection send queue full")

	// errConnClosed marks sends to an already-terminated connection.
	errConnClosed = errors.New("connection closed")
)
