package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

func (b *Broker) createBusListener(st *work, id connID, req proto.CreateBusListener) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	cookie := b.newBusListenerCookie()

	b.send(st, id, proto.CreateBusListenerReply{Serial: req.Serial, Cookie: cookie})

	conn.addBusListener(cookie)
	b.busListeners[cookie] = newBusListener(id)

	b.stats.NumBusListeners++
	b.stats.BusListenersCreated++
	return nil
}

func (b *Broker) destroyBusListener(st *work, id connID, req proto.DestroyBusListener) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	listener, ok := b.busListeners[req.Cookie]
	if !ok || listener.conn != id {
		b.send(st, id, proto.DestroyBusListenerReply{
			Serial: req.Serial,
			Result: proto.DestroyBusListenerInvalidBusListener,
		})
		return nil
	}

	b.send(st, id, proto.DestroyBusListenerReply{
		Serial: req.Serial,
		Result: proto.DestroyBusListenerOk,
	})

	b.removeBusListener(req.Cookie)
	return nil
}

func (b *Broker) addBusListenerFilter(id connID, req proto.AddBusListenerFilter) {
	if listener, ok := b.busListeners[req.Cookie]; ok && listener.conn == id {
		listener.addFilter(req.Filter)
	}
}

func (b *Broker) removeBusListenerFilter(id connID, req proto.RemoveBusListenerFilter) {
	if listener, ok := b.busListeners[req.Cookie]; ok && listener.conn == id {
		listener.removeFilter(req.Filter)
	}
}

func (b *Broker) clearBusListenerFilters(id connID, req proto.ClearBusListenerFilters) {
	if listener, ok := b.busListeners[req.Cookie]; ok && listener.conn == id {
		listener.clearFilters()
	}
}

func (b *Broker) startBusListener(st *work, id connID, req proto.StartBusListener) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	listener, ok := b.busListeners[req.Cookie]
	if !ok || listener.conn != id {
		b.send(st, id, proto.StartBusListenerReply{
			Serial: req.Serial,
			Result: proto.StartBusListenerInvalidBusListener,
		})
		return nil
	}

	if !listener.start(req.Scope) {
		b.send(st, id, proto.StartBusListenerReply{
			Serial: req.Serial,
			Result: proto.StartBusListenerAlreadyStarted,
		})
		return nil
	}

	b.send(st, id, proto.StartBusListenerReply{
		Serial: req.Serial,
		Result: proto.StartBusListenerOk,
	})

	b.stats.BusListenersStarted++

	// Replaying current entities targets this listener alone, so these
	// events carry the listener cookie and bypass per-client dedup.
	if req.Scope.IncludesCurrent() {
		cookie := req.Cookie

		for objCookie, uuid := range b.objectCookies {
			objID := proto.ObjectID{UUID: uuid, Cookie: objCookie}
			if listener.matchesObject(objID) {
				b.send(st, id, proto.EmitBusEvent{
					Cookie: &cookie,
					Event:  proto.ObjectCreatedEvent(objID),
				})
				b.stats.BusEventsSent++
			}
		}

		for _, entry := range b.svcCookies {
			if listener.matchesService(entry.id) {
				b.send(st, id, proto.EmitBusEvent{
					Cookie: &cookie,
					Event:  proto.ServiceCreatedEvent(entry.id),
				})
				b.stats.BusEventsSent++
			}
		}

		b.send(st, id, proto.BusListenerCurrentFinished{Cookie: cookie})
	}

	return nil
}

func (b *Broker) stopBusListener(st *work, id connID, req proto.StopBusListener) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	listener, ok := b.busListeners[req.Cookie]
	if !ok || listener.conn != id {
		b.send(st, id, proto.StopBusListenerReply{
			Serial: req.Serial,
			Result: proto.StopBusListenerInvalidBusListener,
		})
		return nil
	}

	result := proto.StopBusListenerOk
	if listener.stop() {
		b.stats.BusListenersStopped++
	} else {
		result = proto.StopBusListenerNotStarted
	}

	b.send(st, id, proto.StopBusListenerReply{Serial: req.Serial, Result: result})
	return nil
}

// emitBusEvent fans a life-cycle event out to every client with a matching
// started listener, at most once per client no matter how many of its
// listeners match.
func (b *Broker) emitBusEvent(st *work, ev proto.BusEvent) {
	seen := make(map[connID]struct{})

	for _, listener := range b.busListeners {
		if !listener.matchesNewEvent(ev) {
			continue
		}
		if _, dup := seen[listener.conn]; dup {
			continue
		}
		seen[listener.conn] = struct{}{}

		if b.send(st, listener.conn, proto.EmitBusEvent{Event: ev}) {
			b.stats.BusEventsSent++
		}
	}
}

// removeBusListener drops a bus listener. Safe to call with an unknown
// cookie.
func (b *Broker) removeBusListener(cookie proto.BusListenerCookie) {
	listener, ok := b.busListeners[cookie]
	if !ok {
		return
	}
	delete(b.busListeners, cookie)

	if conn, ok := b.conns[listener.conn]; ok {
		conn.removeBusListener(cookie)
	}

	b.stats.NumBusListeners--
	b.stats.BusListenersDestroyed++
}

// newBusListenerCookie mints a cookie not yet used by any live listener.
func (b *Broker) newBusListenerCookie() proto.BusListenerCookie {
	for {
		cookie := proto.NewBusListenerCookie()
		if _, collision := b.busListeners[cookie]; !collision {
			return cookie
		}
	}
}
