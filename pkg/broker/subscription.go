package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

func (b *Broker) subscribeEvent(st *work, id connID, req proto.SubscribeEvent) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		if req.Serial != nil {
			b.send(st, id, proto.SubscribeEventReply{
				Serial: *req.Serial,
				Result: proto.SubscribeEventInvalidService,
			})
		}
		return nil
	}

	// A serial-less subscription is silent: no reply, and the service
	// owner is never told about this subscriber.
	notifyOwner := req.Serial != nil
	if notifyOwner {
		b.send(st, id, proto.SubscribeEventReply{
			Serial: *req.Serial,
			Result: proto.SubscribeEventOk,
		})
	}

	conn.subscribeEvent(req.ServiceCookie, req.Event)

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]
	if svc.subscribeEvent(req.Event, id, notifyOwner) {
		owner := b.objects[entry.id.Object.UUID].conn
		if _, ok := b.conns[owner]; ok {
			b.send(st, owner, proto.SubscribeEvent{
				ServiceCookie: req.ServiceCookie,
				Event:         req.Event,
			})
		}
	}

	return nil
}

func (b *Broker) unsubscribeEvent(st *work, id connID, req proto.UnsubscribeEvent) {
	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		return
	}

	conn, ok := b.conns[id]
	if !ok {
		return
	}

	conn.unsubscribeEvent(req.ServiceCookie, req.Event)

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]
	if svc.unsubscribeEvent(req.Event, id) {
		owner := b.objects[entry.id.Object.UUID].conn
		b.send(st, owner, req)
	}
}

func (b *Broker) subscribeAllEvents(st *work, id connID, req proto.SubscribeAllEvents) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	if req.Serial == nil {
		return errMissingSerial
	}
	serial := *req.Serial

	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		b.send(st, id, proto.SubscribeAllEventsReply{
			Serial: serial,
			Result: proto.SubscribeAllEventsInvalidService,
		})
		return nil
	}

	if !entry.info.SubscribeAll {
		b.send(st, id, proto.SubscribeAllEventsReply{
			Serial: serial,
			Result: proto.SubscribeAllEventsNotSupported,
		})
		return nil
	}

	owner := b.objects[entry.id.Object.UUID].conn
	ownerConn, ok := b.conns[owner]
	if !ok || ownerConn.version.Before(proto.V1_18) {
		b.send(st, id, proto.SubscribeAllEventsReply{
			Serial: serial,
			Result: proto.SubscribeAllEventsNotSupported,
		})
		return nil
	}

	b.send(st, id, proto.SubscribeAllEventsReply{
		Serial: serial,
		Result: proto.SubscribeAllEventsOk,
	})

	conn.subscribeAllEvents(req.ServiceCookie)

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]
	if svc.subscribeAllEvents(id) {
		b.send(st, owner, proto.SubscribeAllEvents{ServiceCookie: req.ServiceCookie})
	}

	return nil
}

func (b *Broker) unsubscribeAllEvents(st *work, id connID, req proto.UnsubscribeAllEvents) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	reply := func(result proto.UnsubscribeAllEventsResult) {
		if req.Serial != nil {
			b.send(st, id, proto.UnsubscribeAllEventsReply{
				Serial: *req.Serial,
				Result: result,
			})
		}
	}

	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		reply(proto.UnsubscribeAllEventsInvalidService)
		return nil
	}

	owner := b.objects[entry.id.Object.UUID].conn
	ownerConn, ok := b.conns[owner]
	if !ok || ownerConn.version.Before(proto.V1_18) {
		reply(proto.UnsubscribeAllEventsNotSupported)
		return nil
	}

	reply(proto.UnsubscribeAllEventsOk)

	conn.unsubscribeAllEvents(req.ServiceCookie)

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]
	if svc.unsubscribeAllEvents(id) {
		b.send(st, owner, proto.UnsubscribeAllEvents{ServiceCookie: req.ServiceCookie})
	}

	return nil
}

func (b *Broker) subscribeService(st *work, id connID, req proto.SubscribeService) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		b.send(st, id, proto.SubscribeServiceReply{
			Serial: req.Serial,
			Result: proto.SubscribeServiceInvalidService,
		})
		return nil
	}

	b.send(st, id, proto.SubscribeServiceReply{
		Serial: req.Serial,
		Result: proto.SubscribeServiceOk,
	})

	b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}].watch(id)
	conn.watchService(req.ServiceCookie)
	return nil
}

func (b *Broker) unsubscribeService(id connID, req proto.UnsubscribeService) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	if entry, ok := b.svcCookies[req.ServiceCookie]; ok {
		b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}].unwatch(id)
		conn.unwatchService(req.ServiceCookie)
	}
	return nil
}

// emitEvent multicasts an event to every subscriber of (service, event) and
// every subscribe-all subscriber, once per connection. Invalid or foreign
// emissions are silently ignored.
func (b *Broker) emitEvent(st *work, id connID, req proto.EmitEvent) {
	entry, ok := b.svcCookies[req.ServiceCookie]
	if !ok {
		return
	}

	if b.objects[entry.id.Object.UUID].conn != id {
		return
	}

	b.stats.EventsReceived++

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]

	targets := make(map[connID]struct{})
	for sub := range svc.events[req.Event] {
		targets[sub] = struct{}{}
	}
	for sub := range svc.allEvents {
		targets[sub] = struct{}{}
	}

	for sub := range targets {
		if b.send(st, sub, req) {
			b.stats.EventsSent++
		}
	}
}

// removeEventSubscription drops one (connection, service, event)
// subscription, telling the owner when its last notifying subscriber goes
// away. Safe to call with unknown ids.
func (b *Broker) removeEventSubscription(st *work, id connID, cookie proto.ServiceCookie, event uint32) {
	entry, ok := b.svcCookies[cookie]
	if !ok {
		return
	}

	// The connection may already be gone.
	if conn, ok := b.conns[id]; ok {
		conn.unsubscribeEvent(cookie, event)
	}

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]
	if svc.unsubscribeEvent(event, id) {
		owner := b.objects[entry.id.Object.UUID].conn
		st.pushUnsubscribeEvent(owner, cookie, event)
	}
}

func (b *Broker) removeAllEventsSubscription(st *work, id connID, cookie proto.ServiceCookie) {
	entry, ok := b.svcCookies[cookie]
	if !ok {
		return
	}

	if conn, ok := b.conns[id]; ok {
		conn.unsubscribeAllEvents(cookie)
	}

	svc := b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}]
	if svc.unsubscribeAllEvents(id) {
		owner := b.objects[entry.id.Object.UUID].conn
		st.pushUnsubscribeAllEvents(owner, cookie)
	}
}

func (b *Broker) removeServiceWatch(id connID, cookie proto.ServiceCookie) {
	if entry, ok := b.svcCookies[cookie]; ok {
		b.services[svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}].unwatch(id)
	}
}
