package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

// connEvent is the broker loop's input alphabet. All mutations of the
// registry happen in response to one of these.
type connEvent interface {
	isConnEvent()
}

type evNewConnection struct {
	id      connID
	version proto.ProtocolVersion
	out     chan proto.Message
}

type evMessage struct {
	id  connID
	msg proto.Message
}

// evConnectionShutdown reports that a connection's transport failed or the
// client went away.
type evConnectionShutdown struct {
	id connID
}

// evShutdownConnection requests a broker-initiated shutdown of one
// connection.
type evShutdownConnection struct {
	id connID
}

type evShutdownBroker struct{}

type evShutdownIdle struct{}

type evTakeStatistics struct {
	reply chan Statistics
}

func (evNewConnection) isConnEvent()      {}
func (evMessage) isConnEvent()            {}
func (evConnectionShutdown) isConnEvent() {}
func (evShutdownConnection) isConnEvent() {}
func (evShutdownBroker) isConnEvent()     {}
func (evShutdownIdle) isConnEvent()       {}
func (evTakeStatistics) isConnEvent()     {}
