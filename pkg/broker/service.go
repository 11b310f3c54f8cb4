package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

func (b *Broker) createService(st *work, id connID, req proto.CreateService) error {
	info := proto.ServiceInfo{Version: req.Version}
	return b.createServiceCommon(st, id, req.Serial, req.ObjectCookie, req.UUID, info)
}

func (b *Broker) createService2(st *work, id connID, req proto.CreateService2) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	info := req.Info
	if conn.version.Before(proto.V1_18) {
		info.SubscribeAll = false
	}

	return b.createServiceCommon(st, id, req.Serial, req.ObjectCookie, req.UUID, info)
}

func (b *Broker) createServiceCommon(st *work, id connID, serial uint32, objCookie proto.ObjectCookie, uuid proto.ServiceUUID, info proto.ServiceInfo) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	objUUID, ok := b.objectCookies[objCookie]
	if !ok {
		b.send(st, id, proto.CreateServiceReply{
			Serial: serial,
			Result: proto.CreateServiceInvalidObject,
		})
		return nil
	}

	key := svcKey{object: objUUID, service: uuid}
	if _, dup := b.services[key]; dup {
		b.send(st, id, proto.CreateServiceReply{
			Serial: serial,
			Result: proto.CreateServiceDuplicateService,
		})
		return nil
	}

	obj := b.objects[objUUID]
	if obj.conn != id {
		b.send(st, id, proto.CreateServiceReply{
			Serial: serial,
			Result: proto.CreateServiceForeignObject,
		})
		return nil
	}

	cookie := b.newServiceCookie()

	b.send(st, id, proto.CreateServiceReply{
		Serial: serial,
		Result: proto.CreateServiceOk,
		Cookie: cookie,
	})

	svcID := proto.ServiceID{
		Object: proto.ObjectID{UUID: objUUID, Cookie: objCookie},
		UUID:   uuid,
		Cookie: cookie,
	}
	b.svcCookies[cookie] = svcEntry{id: svcID, info: info}
	b.services[key] = newService()
	obj.addService(cookie)
	st.pushCreateService(svcID)

	b.stats.NumServices++
	b.stats.ServicesCreated++
	return nil
}

func (b *Broker) destroyService(st *work, id connID, req proto.DestroyService) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	entry, ok := b.svcCookies[req.Cookie]
	if !ok {
		b.send(st, id, proto.DestroyServiceReply{
			Serial: req.Serial,
			Result: proto.DestroyServiceInvalidService,
		})
		return nil
	}

	if b.objects[entry.id.Object.UUID].conn != id {
		b.send(st, id, proto.DestroyServiceReply{
			Serial: req.Serial,
			Result: proto.DestroyServiceForeignObject,
		})
		return nil
	}

	b.send(st, id, proto.DestroyServiceReply{
		Serial: req.Serial,
		Result: proto.DestroyServiceOk,
	})

	b.removeService(st, req.Cookie)
	return nil
}

// removeService destroys a service, aborting its pending calls and
// notifying every subscriber. Safe to call with an unknown cookie.
func (b *Broker) removeService(st *work, cookie proto.ServiceCookie) {
	entry, ok := b.svcCookies[cookie]
	if !ok {
		return
	}
	delete(b.svcCookies, cookie)

	key := svcKey{object: entry.id.Object.UUID, service: entry.id.UUID}
	svc := b.services[key]
	delete(b.services, key)

	// The object may already be gone mid-cascade.
	if obj, ok := b.objects[entry.id.Object.UUID]; ok {
		obj.removeService(cookie)
	}

	st.pushDestroyService(entry.id)

	for serial := range svc.calls {
		call, ok := b.calls.remove(serial)
		if !ok {
			continue
		}
		if !call.aborted {
			st.pushRemoveCall(call.callerSerial, call.caller, proto.CallFunctionInvalidService)
		}
		b.stats.NumFunctionCalls--
	}

	for id := range svc.subscribedConns() {
		if conn, ok := b.conns[id]; ok {
			conn.unsubscribeService(cookie)
			st.pushServiceDestroyed(id, cookie)
		}
	}

	b.stats.NumServices--
	b.stats.ServicesDestroyed++
}

func (b *Broker) queryServiceVersion(st *work, id connID, req proto.QueryServiceVersion) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	if entry, ok := b.svcCookies[req.Cookie]; ok {
		b.send(st, id, proto.QueryServiceVersionReply{
			Serial:  req.Serial,
			Result:  proto.QueryServiceVersionOk,
			Version: entry.info.Version,
		})
	} else {
		b.send(st, id, proto.QueryServiceVersionReply{
			Serial: req.Serial,
			Result: proto.QueryServiceVersionInvalidService,
		})
	}
	return nil
}

func (b *Broker) queryServiceInfo(st *work, id connID, req proto.QueryServiceInfo) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	if entry, ok := b.svcCookies[req.Cookie]; ok {
		info := entry.info
		b.send(st, id, proto.QueryServiceInfoReply{
			Serial: req.Serial,
			Result: proto.QueryServiceInfoOk,
			Info:   &info,
		})
	} else {
		b.send(st, id, proto.QueryServiceInfoReply{
			Serial: req.Serial,
			Result: proto.QueryServiceInfoInvalidService,
		})
	}
	return nil
}

// newServiceCookie mints a cookie not yet used by any live service.
func (b *Broker) newServiceCookie() proto.ServiceCookie {
	for {
		cookie := proto.NewServiceCookie()
		if _, collision := b.svcCookies[cookie]; !collision {
			return cookie
		}
	}
}
