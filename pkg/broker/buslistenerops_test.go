package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

func startListener(c *testClient, cookie proto.BusListenerCookie, scope proto.BusListenerScope) {
	c.t.Helper()
	c.send(proto.StartBusListener{Serial: 1, Cookie: cookie, Scope: scope})
	reply := expect[proto.StartBusListenerReply](c)
	require.Equal(c.t, proto.StartBusListenerOk, reply.Result)
}

func TestBusListenerNewScope(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)
	creator := env.connect(19)

	cookie := c.createBusListener()
	c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.AnyObjectFilter()})
	c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.AnyServiceFilter()})
	startListener(c, cookie, proto.ScopeNew)

	objUUID := newObjectUUID()
	obj := creator.createObject(objUUID)
	svcUUID := newServiceUUID()
	creator.createService(obj, svcUUID, 1)

	ev := expect[proto.EmitBusEvent](c)
	require.Equal(t, proto.BusEventObjectCreated, ev.Event.Kind)
	assert.Equal(t, objUUID, ev.Event.Object.UUID)
	assert.Nil(t, ev.Cookie)

	ev = expect[proto.EmitBusEvent](c)
	require.Equal(t, proto.BusEventServiceCreated, ev.Event.Kind)
	require.NotNil(t, ev.Event.Service)
	assert.Equal(t, svcUUID, ev.Event.Service.UUID)

	creator.send(proto.DestroyObject{Serial: 2, Cookie: obj})
	expect[proto.DestroyObjectReply](creator)

	ev = expect[proto.EmitBusEvent](c)
	assert.Equal(t, proto.BusEventServiceDestroyed, ev.Event.Kind)
	ev = expect[proto.EmitBusEvent](c)
	assert.Equal(t, proto.BusEventObjectDestroyed, ev.Event.Kind)
}

func TestOneBusEventPerClient(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	// Two listeners with overlapping filters on the same client.
	for i := 0; i < 2; i++ {
		cookie := c.createBusListener()
		c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.AnyObjectFilter()})
		c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.AnyServiceFilter()})
		startListener(c, cookie, proto.ScopeNew)
	}

	var kinds []proto.BusEventKind

	c.send(proto.CreateObject{Serial: 2, UUID: newObjectUUID()})
	objReply := expect[proto.CreateObjectReply](c)
	require.Equal(t, proto.CreateObjectOk, objReply.Result)
	kinds = append(kinds, expect[proto.EmitBusEvent](c).Event.Kind)

	c.send(proto.CreateService{Serial: 3, ObjectCookie: objReply.Cookie, UUID: newServiceUUID(), Version: 1})
	svcReply := expect[proto.CreateServiceReply](c)
	require.Equal(t, proto.CreateServiceOk, svcReply.Result)
	kinds = append(kinds, expect[proto.EmitBusEvent](c).Event.Kind)

	c.send(proto.DestroyObject{Serial: 4, Cookie: objReply.Cookie})
	expect[proto.DestroyObjectReply](c)
	kinds = append(kinds, expect[proto.EmitBusEvent](c).Event.Kind)
	kinds = append(kinds, expect[proto.EmitBusEvent](c).Event.Kind)
	c.sync(1)

	assert.Equal(t, []proto.BusEventKind{
		proto.BusEventObjectCreated,
		proto.BusEventServiceCreated,
		proto.BusEventServiceDestroyed,
		proto.BusEventObjectDestroyed,
	}, kinds)
}

func TestBusListenerCurrentScope(t *testing.T) {
	env := newTestEnv(t)
	creator := env.connect(19)

	objUUID := newObjectUUID()
	obj := creator.createObject(objUUID)
	creator.createService(obj, newServiceUUID(), 1)

	c := env.connect(19)
	cookie := c.createBusListener()
	c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.ObjectFilter(objUUID)})
	c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.ObjectServicesFilter(objUUID)})
	startListener(c, cookie, proto.ScopeCurrent)

	// The current replay carries the listener cookie.
	seen := map[proto.BusEventKind]int{}
	for i := 0; i < 2; i++ {
		ev := expect[proto.EmitBusEvent](c)
		require.NotNil(t, ev.Cookie)
		assert.Equal(t, cookie, *ev.Cookie)
		seen[ev.Event.Kind]++
	}
	assert.Equal(t, 1, seen[proto.BusEventObjectCreated])
	assert.Equal(t, 1, seen[proto.BusEventServiceCreated])

	finished := expect[proto.BusListenerCurrentFinished](c)
	assert.Equal(t, cookie, finished.Cookie)

	// Scope current does not observe new entities.
	creator.createObject(newObjectUUID())
	c.sync(1)
}

func TestBusListenerStartStop(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	cookie := c.createBusListener()
	c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.AnyObjectFilter()})
	startListener(c, cookie, proto.ScopeNew)

	t.Run("double start", func(t *testing.T) {
		c.send(proto.StartBusListener{Serial: 2, Cookie: cookie, Scope: proto.ScopeNew})
		reply := expect[proto.StartBusListenerReply](c)
		assert.Equal(t, proto.StartBusListenerAlreadyStarted, reply.Result)
	})

	t.Run("stop silences events", func(t *testing.T) {
		c.send(proto.StopBusListener{Serial: 3, Cookie: cookie})
		reply := expect[proto.StopBusListenerReply](c)
		require.Equal(t, proto.StopBusListenerOk, reply.Result)

		c.createObject(newObjectUUID())
		c.sync(1)
	})

	t.Run("double stop", func(t *testing.T) {
		c.send(proto.StopBusListener{Serial: 4, Cookie: cookie})
		reply := expect[proto.StopBusListenerReply](c)
		assert.Equal(t, proto.StopBusListenerNotStarted, reply.Result)
	})

	t.Run("destroy", func(t *testing.T) {
		c.send(proto.DestroyBusListener{Serial: 5, Cookie: cookie})
		reply := expect[proto.DestroyBusListenerReply](c)
		assert.Equal(t, proto.DestroyBusListenerOk, reply.Result)
	})

	t.Run("destroy unknown", func(t *testing.T) {
		c.send(proto.DestroyBusListener{Serial: 6, Cookie: cookie})
		reply := expect[proto.DestroyBusListenerReply](c)
		assert.Equal(t, proto.DestroyBusListenerInvalidBusListener, reply.Result)
	})
}

func TestBusListenerForeignCookie(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)
	other := env.connect(19)

	cookie := c.createBusListener()

	other.send(proto.StartBusListener{Serial: 1, Cookie: cookie, Scope: proto.ScopeNew})
	reply := expect[proto.StartBusListenerReply](other)
	assert.Equal(t, proto.StartBusListenerInvalidBusListener, reply.Result)

	other.send(proto.DestroyBusListener{Serial: 2, Cookie: cookie})
	destroyReply := expect[proto.DestroyBusListenerReply](other)
	assert.Equal(t, proto.DestroyBusListenerInvalidBusListener, destroyReply.Result)
}

func TestBusListenerFilterRemoval(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	cookie := c.createBusListener()
	c.send(proto.AddBusListenerFilter{Cookie: cookie, Filter: proto.AnyObjectFilter()})
	c.send(proto.RemoveBusListenerFilter{Cookie: cookie, Filter: proto.AnyObjectFilter()})
	startListener(c, cookie, proto.ScopeNew)

	// No filters left: nothing matches.
	c.createObject(newObjectUUID())
	c.sync(1)
}
