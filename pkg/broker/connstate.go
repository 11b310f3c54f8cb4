package broker

import (
	"github.com/aldrin-bus/aldrin/pkg/proto"
)

// outgoingCall tracks a call made by this connection as caller, keyed by the
// caller-chosen serial.
type outgoingCall struct {
	calleeSerial uint32
	callee       connID
}

// connState is the broker-side bookkeeping of one established connection.
// Everything referenced here is released when the connection terminates.
type connState struct {
	out     chan proto.Message
	version proto.ProtocolVersion
	closed  bool

	objects       map[proto.ObjectCookie]struct{}
	subscriptions map[proto.ServiceCookie]map[uint32]struct{}
	allEvents     map[proto.ServiceCookie]struct{}
	svcWatches    map[proto.ServiceCookie]struct{}
	senders       map[proto.ChannelCookie]struct{}
	receivers     map[proto.ChannelCookie]struct{}
	busListeners  map[proto.BusListenerCookie]struct{}
	calls         map[uint32]outgoingCall
}

func newConnState(version proto.ProtocolVersion, out chan proto.Message) *connState {
	return &connState{
		out:           out,
		version:       version,
		objects:       make(map[proto.ObjectCookie]struct{}),
		subscriptions: make(map[proto.ServiceCookie]map[uint32]struct{}),
		allEvents:     make(map[proto.ServiceCookie]struct{}),
		svcWatches:    make(map[proto.ServiceCookie]struct{}),
		senders:       make(map[proto.ChannelCookie]struct{}),
		receivers:     make(map[proto.ChannelCookie]struct{}),
		busListeners:  make(map[proto.BusListenerCookie]struct{}),
		calls:         make(map[uint32]outgoingCall),
	}
}

// trySend enqueues a message on the connection's bounded send queue. A full
// queue is a slow consumer and terminates the connection at the caller.
func (c *connState) trySend(msg proto.Message) error {
	if c.closed {
		return errConnClosed
	}
	select {
	case c.out <- msg:
		return nil
	default:
		return errQueueFull
	}
}

// shut closes the send queue. The connection's writer drains it and then
// closes the transport.
func (c *connState) shut() {
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}

func (c *connState) addObject(cookie proto.ObjectCookie)    { c.objects[cookie] = struct{}{} }
func (c *connState) removeObject(cookie proto.ObjectCookie) { delete(c.objects, cookie) }

func (c *connState) subscribeEvent(svc proto.ServiceCookie, event uint32) {
	events, ok := c.subscriptions[svc]
	if !ok {
		events = make(map[uint32]struct{})
		c.subscriptions[svc] = events
	}
	events[event] = struct{}{}
}

func (c *connState) unsubscribeEvent(svc proto.ServiceCookie, event uint32) {
	if events, ok := c.subscriptions[svc]; ok {
		delete(events, event)
		if len(events) == 0 {
			delete(c.subscriptions, svc)
		}
	}
}

// unsubscribeService drops every subscription bound to one service. Called
// when the service is destroyed.
func (c *connState) unsubscribeService(svc proto.ServiceCookie) {
	delete(c.subscriptions, svc)
	delete(c.allEvents, svc)
	delete(c.svcWatches, svc)
}

func (c *connState) subscribeAllEvents(svc proto.ServiceCookie)   { c.allEvents[svc] = struct{}{} }
func (c *connState) unsubscribeAllEvents(svc proto.ServiceCookie) { delete(c.allEvents, svc) }

func (c *connState) watchService(svc proto.ServiceCookie)   { c.svcWatches[svc] = struct{}{} }
func (c *connState) unwatchService(svc proto.ServiceCookie) { delete(c.svcWatches, svc) }

func (c *connState) addSender(cookie proto.ChannelCookie)      { c.senders[cookie] = struct{}{} }
func (c *connState) removeSender(cookie proto.ChannelCookie)   { delete(c.senders, cookie) }
func (c *connState) addReceiver(cookie proto.ChannelCookie)    { c.receivers[cookie] = struct{}{} }
func (c *connState) removeReceiver(cookie proto.ChannelCookie) { delete(c.receivers, cookie) }

func (c *connState) addBusListener(cookie proto.BusListenerCookie) {
	c.busListeners[cookie] = struct{}{}
}

func (c *connState) removeBusListener(cookie proto.BusListenerCookie) {
	delete(c.busListeners, cookie)
}

// addCall records an outgoing call. A duplicate caller serial is a protocol
// violation.
func (c *connState) addCall(callerSerial, calleeSerial uint32, callee connID) bool {
	if _, dup := c.calls[callerSerial]; dup {
		return false
	}
	c.calls[callerSerial] = outgoingCall{calleeSerial: calleeSerial, callee: callee}
	return true
}

func (c *connState) removeCall(callerSerial uint32) {
	delete(c.calls, callerSerial)
}

func (c *connState) callData(callerSerial uint32) (outgoingCall, bool) {
	call, ok := c.calls[callerSerial]
	return call, ok
}
