package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

func (b *Broker) createObject(st *work, id connID, req proto.CreateObject) error {
	conn, ok := b.conns[id]
	if !ok {
		return nil
	}

	if _, dup := b.objects[req.UUID]; dup {
		b.send(st, id, proto.CreateObjectReply{
			Serial: req.Serial,
			Result: proto.CreateObjectDuplicateObject,
		})
		return nil
	}

	cookie := b.newObjectCookie()

	b.send(st, id, proto.CreateObjectReply{
		Serial: req.Serial,
		Result: proto.CreateObjectOk,
		Cookie: cookie,
	})

	b.objectCookies[cookie] = req.UUID
	b.objects[req.UUID] = newObject(id)
	conn.addObject(cookie)
	st.pushCreateObject(proto.ObjectID{UUID: req.UUID, Cookie: cookie})

	b.stats.NumObjects++
	b.stats.ObjectsCreated++
	return nil
}

func (b *Broker) destroyObject(st *work, id connID, req proto.DestroyObject) error {
	if _, ok := b.conns[id]; !ok {
		return nil
	}

	uuid, ok := b.objectCookies[req.Cookie]
	if !ok {
		b.send(st, id, proto.DestroyObjectReply{
			Serial: req.Serial,
			Result: proto.DestroyObjectInvalidObject,
		})
		return nil
	}

	if b.objects[uuid].conn != id {
		b.send(st, id, proto.DestroyObjectReply{
			Serial: req.Serial,
			Result: proto.DestroyObjectForeignObject,
		})
		return nil
	}

	b.send(st, id, proto.DestroyObjectReply{
		Serial: req.Serial,
		Result: proto.DestroyObjectOk,
	})

	b.removeObject(st, req.Cookie)
	return nil
}

// removeObject destroys an object and cascades into its services. Safe to
// call with an unknown cookie.
func (b *Broker) removeObject(st *work, cookie proto.ObjectCookie) {
	uuid, ok := b.objectCookies[cookie]
	if !ok {
		return
	}
	delete(b.objectCookies, cookie)

	obj := b.objects[uuid]
	delete(b.objects, uuid)

	// The owning connection may already be gone when this cascades from
	// shutdownConnection.
	if conn, ok := b.conns[obj.conn]; ok {
		conn.removeObject(cookie)
	}

	st.pushDestroyObject(proto.ObjectID{UUID: uuid, Cookie: cookie})

	for svc := range obj.services {
		b.removeService(st, svc)
	}

	b.stats.NumObjects--
	b.stats.ObjectsDestroyed++
}

// newObjectCookie mints a cookie not yet used by any live object.
func (b *Broker) newObjectCookie() proto.ObjectCookie {
	for {
		cookie := proto.NewObjectCookie()
		if _, collision := b.objectCookies[cookie]; !collision {
			return cookie
		}
	}
}
