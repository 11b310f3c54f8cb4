// Package broker implements the Aldrin message broker: the central hub
// mediating objects, services, function calls, events, channels and bus
// listeners between client connections.
package broker

import (
	"context"
	"time"

	"github.com/aldrin-bus/aldrin/internal/logging"
	"github.com/aldrin-bus/aldrin/pkg/proto"
)

const (
	// eventQueueSize bounds the broker's control channel.
	eventQueueSize = 32

	// DefaultQueueSize bounds each connection's outbound send queue. A
	// connection that lets its queue run full is terminated as a slow
	// consumer.
	DefaultQueueSize = 128
)

// Broker routes messages between client connections. Create one with New,
// acquire a Handle before calling Run, and drive Run to completion.
//
// All registry state lives on the Broker and is mutated exclusively by the
// Run loop, which serializes dispatch steps; connections communicate with
// the loop through an event channel.
type Broker struct {
	log *logging.Logger

	events    chan connEvent
	done      chan struct{}
	handle    *Handle
	queueSize int

	conns         map[connID]*connState
	objectCookies map[proto.ObjectCookie]proto.ObjectUUID
	objects       map[proto.ObjectUUID]*object
	svcCookies    map[proto.ServiceCookie]svcEntry
	services      map[svcKey]*service
	calls         *serialMap[*pendingCall]
	channels      map[proto.ChannelCookie]*channel
	busListeners  map[proto.BusListenerCookie]*busListener
	introspection *introspectionDB

	stats Statistics
}

// New creates a broker.
func New() *Broker {
	b := &Broker{
		log:           logging.MustGetLogger("broker"),
		events:        make(chan connEvent, eventQueueSize),
		done:          make(chan struct{}),
		queueSize:     DefaultQueueSize,
		conns:         make(map[connID]*connState),
		objectCookies: make(map[proto.ObjectCookie]proto.ObjectUUID),
		objects:       make(map[proto.ObjectUUID]*object),
		svcCookies:    make(map[proto.ServiceCookie]svcEntry),
		services:      make(map[svcKey]*service),
		calls:         newSerialMap[*pendingCall](),
		channels:      make(map[proto.ChannelCookie]*channel),
		busListeners:  make(map[proto.BusListenerCookie]*busListener),
		introspection: newIntrospectionDB(),
	}
	b.stats.Start = time.Now()
	b.handle = &Handle{events: b.events, done: b.done, ids: new(connIDAllocator), queueSize: b.queueSize}
	return b
}

// SetLogger replaces the broker's logger.
func (b *Broker) SetLogger(log *logging.Logger) {
	b.log = log
}

// SetQueueSize changes the per-connection outbound queue bound. It must be
// called before Run.
func (b *Broker) SetQueueSize(n int) {
	if n > 0 {
		b.queueSize = n
		b.handle.queueSize = n
	}
}

// Handle returns the broker's handle. Handles are the only way to add
// connections and to shut the broker down.
func (b *Broker) Handle() *Handle {
	return b.handle
}

// Run drives the broker until it is shut down via its Handle or the context
// is cancelled. Shutdown closes all connections and releases all state.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.done)

	var st work

	for {
		if st.shutdownNow || (st.shutdownIdle && len(b.conns) == 0) {
			return
		}

		var ev connEvent
		select {
		case ev = <-b.events:
		case <-ctx.Done():
			ev = evShutdownBroker{}
		}

		b.handleEvent(&st, ev)
		b.processWork(&st)
	}
}

func (b *Broker) handleEvent(st *work, ev connEvent) {
	switch ev := ev.(type) {
	case evNewConnection:
		b.conns[ev.id] = newConnState(ev.version, ev.out)
		b.stats.NumConnections++
		b.stats.ConnectionsAdded++
		b.log.WithField("conn", ev.id).WithField("version", ev.version).Info("connection added")

	case evConnectionShutdown:
		st.pushRemoveConn(ev.id, false)

	case evShutdownConnection:
		st.pushRemoveConn(ev.id, true)

	case evMessage:
		b.stats.MessagesReceived++
		if err := b.handleMessage(st, ev.id, ev.msg); err != nil {
			b.log.WithError(err).WithField("conn", ev.id).Warn("protocol violation")
			st.pushRemoveConn(ev.id, false)
		}

	case evShutdownBroker:
		for id := range b.conns {
			st.pushRemoveConn(id, true)
		}
		st.shutdownNow = true

	case evShutdownIdle:
		st.shutdownIdle = true

	case evTakeStatistics:
		ev.reply <- b.stats.take()
	}
}

// processWork drains the side effects of the last dispatcher step. See the
// comment on the work type for the ordering rationale.
func (b *Broker) processWork(st *work) {
	for {
		if rc, ok := pop(&st.removeConns); ok {
			b.shutdownConnection(st, rc.id, rc.sendShutdown)
			continue
		}

		if u, ok := pop(&st.unsubscribeEvents); ok {
			b.send(st, u.owner, proto.UnsubscribeEvent{ServiceCookie: u.svc, Event: u.event})
			continue
		}

		if u, ok := pop(&st.unsubscribeAllEvents); ok {
			b.send(st, u.owner, proto.UnsubscribeAllEvents{ServiceCookie: u.svc})
			continue
		}

		if n, ok := pop(&st.servicesDestroyed); ok {
			b.send(st, n.conn, proto.ServiceDestroyed{ServiceCookie: n.svc})
			continue
		}

		if rc, ok := pop(&st.removeCalls); ok {
			if conn, live := b.conns[rc.caller]; live {
				conn.removeCall(rc.serial)
				b.send(st, rc.caller, proto.CallFunctionReply{Serial: rc.serial, Result: rc.result})
			}
			continue
		}

		if id, ok := pop(&st.createObjects); ok {
			b.emitBusEvent(st, proto.ObjectCreatedEvent(id))
			continue
		}

		if id, ok := pop(&st.createServices); ok {
			b.emitBusEvent(st, proto.ServiceCreatedEvent(id))
			continue
		}

		if id, ok := pop(&st.destroyServices); ok {
			b.emitBusEvent(st, proto.ServiceDestroyedEvent(id))
			continue
		}

		if id, ok := pop(&st.destroyObjects); ok {
			b.emitBusEvent(st, proto.ObjectDestroyedEvent(id))
			continue
		}

		if a, ok := pop(&st.abortCalls); ok {
			b.abortCall(st, a.calleeSerial, a.callee)
			continue
		}

		return
	}
}

// send enqueues a message to one connection, terminating it on overflow.
// Missing connections are ignored; they are already being removed.
func (b *Broker) send(st *work, id connID, msg proto.Message) bool {
	conn, ok := b.conns[id]
	if !ok {
		return false
	}

	if err := conn.trySend(msg); err != nil {
		if err == errQueueFull {
			b.log.WithField("conn", id).Warn("send queue full, dropping slow consumer")
		}
		st.pushRemoveConn(id, false)
		return false
	}

	b.stats.MessagesSent++
	return true
}

// shutdownConnection removes a connection and releases everything it owns.
func (b *Broker) shutdownConnection(st *work, id connID, sendShutdown bool) {
	conn, ok := b.conns[id]
	if !ok {
		return
	}

	if sendShutdown {
		// Best effort; the queue may be full.
		conn.trySend(proto.Shutdown{}) //nolint:errcheck
	}
	conn.shut()
	delete(b.conns, id)

	for cookie := range conn.busListeners {
		b.removeBusListener(cookie)
	}

	for cookie := range conn.objects {
		b.removeObject(st, cookie)
	}

	for svc, events := range conn.subscriptions {
		for event := range events {
			b.removeEventSubscription(st, id, svc, event)
		}
	}

	for svc := range conn.allEvents {
		b.removeAllEventsSubscription(st, id, svc)
	}

	for svc := range conn.svcWatches {
		b.removeServiceWatch(id, svc)
	}

	for cookie := range conn.senders {
		b.removeChannelEnd(st, cookie, proto.Sender, &id)
	}

	for cookie := range conn.receivers {
		b.removeChannelEnd(st, cookie, proto.Receiver, &id)
	}

	for _, call := range conn.calls {
		st.pushAbortCall(call.calleeSerial, call.callee)
	}

	b.removeIntrospectionConn(st, id)

	b.stats.NumConnections--
	b.stats.ConnectionsShutDown++
	b.log.WithField("conn", id).Info("connection removed")
}
