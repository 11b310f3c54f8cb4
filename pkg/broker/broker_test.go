package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldrin-bus/aldrin/pkg/proto"
	"github.com/aldrin-bus/aldrin/pkg/transport"
)

func TestHandshake(t *testing.T) {
	env := newTestEnv(t)

	t.Run("negotiates broker max", func(t *testing.T) {
		c := env.connect(25)
		assert.Equal(t, proto.MaxVersion, c.version)
	})

	t.Run("negotiates client max", func(t *testing.T) {
		c := env.connect(15)
		assert.Equal(t, proto.V1_15, c.version)
	})

	t.Run("incompatible window", func(t *testing.T) {
		cli, srv := transport.Pipe()
		require.NoError(t, cli.Send(proto.Connect2{MajorVersion: proto.Major, MinMinor: 20, MaxMinor: 25}))

		_, err := env.handle.BeginConnect(env.ctx, srv)
		require.ErrorIs(t, err, ErrIncompatibleVersion)

		reply, err := cli.Recv(env.ctx)
		require.NoError(t, err)
		reply2 := reply.(proto.ConnectReply2)
		assert.Equal(t, proto.ConnectIncompatibleVersion, reply2.Result)
		assert.Equal(t, proto.MinVersion.Minor(), reply2.MinMinor)
		assert.Equal(t, proto.MaxVersion.Minor(), reply2.MaxMinor)
	})

	t.Run("wrong major", func(t *testing.T) {
		cli, srv := transport.Pipe()
		require.NoError(t, cli.Send(proto.Connect2{MajorVersion: 2, MinMinor: 14, MaxMinor: 19}))

		_, err := env.handle.BeginConnect(env.ctx, srv)
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
	})

	t.Run("legacy connect", func(t *testing.T) {
		cli, srv := transport.Pipe()
		require.NoError(t, cli.Send(proto.Connect{Version: 14}))

		pending, err := env.handle.BeginConnect(env.ctx, srv)
		require.NoError(t, err)
		assert.Equal(t, proto.V1_14, pending.Version())

		conn, err := pending.Accept(env.ctx, nil)
		require.NoError(t, err)
		go conn.Run(env.ctx) //nolint:errcheck

		reply, err := cli.Recv(env.ctx)
		require.NoError(t, err)
		legacyReply := reply.(proto.ConnectReply)
		assert.Equal(t, proto.ConnectOk, legacyReply.Result)
		assert.Equal(t, uint32(14), legacyReply.Version)
	})

	t.Run("legacy connect version mismatch", func(t *testing.T) {
		cli, srv := transport.Pipe()
		require.NoError(t, cli.Send(proto.Connect{Version: 13}))

		_, err := env.handle.BeginConnect(env.ctx, srv)
		require.ErrorIs(t, err, ErrIncompatibleVersion)

		reply, err := cli.Recv(env.ctx)
		require.NoError(t, err)
		assert.Equal(t, proto.ConnectIncompatibleVersion, reply.(proto.ConnectReply).Result)
	})

	t.Run("not a connect message", func(t *testing.T) {
		cli, srv := transport.Pipe()
		require.NoError(t, cli.Send(proto.Sync{Serial: 0}))

		_, err := env.handle.BeginConnect(env.ctx, srv)
		assert.ErrorIs(t, err, ErrUnexpectedMessage)
	})
}

func TestHandshakeRejectAndClientData(t *testing.T) {
	env := newTestEnv(t)

	cli, srv := transport.Pipe()
	require.NoError(t, cli.Send(proto.Connect2{
		MajorVersion: proto.Major,
		MinMinor:     14,
		MaxMinor:     19,
		Value:        proto.Value(`"token"`),
	}))

	pending, err := env.handle.BeginConnect(env.ctx, srv)
	require.NoError(t, err)
	assert.Equal(t, proto.Value(`"token"`), pending.ClientData())

	require.NoError(t, pending.Reject(proto.Value(`"denied"`)))

	reply, err := cli.Recv(env.ctx)
	require.NoError(t, err)
	reply2 := reply.(proto.ConnectReply2)
	assert.Equal(t, proto.ConnectRejected, reply2.Result)
	assert.Equal(t, proto.Value(`"denied"`), reply2.Value)
}

func TestSyncEcho(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	c.send(proto.Sync{Serial: 42})
	reply := expect[proto.SyncReply](c)
	assert.Equal(t, uint32(42), reply.Serial)
}

func TestShutdownByClient(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	c.send(proto.Shutdown{})
	expect[proto.Shutdown](c)
}

func TestShutdownConnectionByBroker(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	require.NoError(t, env.handle.ShutdownConnection(env.ctx, c.handle))
	expect[proto.Shutdown](c)
}

func TestShutdownBroker(t *testing.T) {
	env := newTestEnv(t)
	c1 := env.connect(19)
	c2 := env.connect(19)

	require.NoError(t, env.handle.Shutdown(env.ctx))
	expect[proto.Shutdown](c1)
	expect[proto.Shutdown](c2)

	select {
	case <-env.done:
	case <-time.After(testTimeout):
		t.Fatal("broker did not stop")
	}
}

func TestShutdownIdle(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	require.NoError(t, env.handle.ShutdownIdle(env.ctx))

	// Still serving while the client is around.
	c.sync(1)

	c.send(proto.Shutdown{})

	select {
	case <-env.done:
	case <-time.After(testTimeout):
		t.Fatal("broker did not stop after last client left")
	}
}

func TestCreateDestroyObject(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	u := newObjectUUID()
	cookie := c.createObject(u)

	t.Run("duplicate uuid", func(t *testing.T) {
		c.send(proto.CreateObject{Serial: 2, UUID: u})
		reply := expect[proto.CreateObjectReply](c)
		assert.Equal(t, proto.CreateObjectDuplicateObject, reply.Result)
	})

	t.Run("foreign destroy", func(t *testing.T) {
		other := env.connect(19)
		other.send(proto.DestroyObject{Serial: 1, Cookie: cookie})
		reply := expect[proto.DestroyObjectReply](other)
		assert.Equal(t, proto.DestroyObjectForeignObject, reply.Result)
	})

	t.Run("destroy", func(t *testing.T) {
		c.send(proto.DestroyObject{Serial: 3, Cookie: cookie})
		reply := expect[proto.DestroyObjectReply](c)
		assert.Equal(t, proto.DestroyObjectOk, reply.Result)
	})

	t.Run("uuid reusable after destroy", func(t *testing.T) {
		again := c.createObject(u)
		assert.NotEqual(t, cookie, again)
	})

	t.Run("destroy unknown cookie", func(t *testing.T) {
		c.send(proto.DestroyObject{Serial: 4, Cookie: cookie})
		reply := expect[proto.DestroyObjectReply](c)
		assert.Equal(t, proto.DestroyObjectInvalidObject, reply.Result)
	})
}

func TestCreateDestroyService(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	obj := c.createObject(newObjectUUID())
	u := newServiceUUID()
	svc := c.createService(obj, u, 3)

	t.Run("duplicate uuid within object", func(t *testing.T) {
		c.send(proto.CreateService{Serial: 2, ObjectCookie: obj, UUID: u, Version: 3})
		reply := expect[proto.CreateServiceReply](c)
		assert.Equal(t, proto.CreateServiceDuplicateService, reply.Result)
	})

	t.Run("query version", func(t *testing.T) {
		c.send(proto.QueryServiceVersion{Serial: 3, Cookie: svc})
		reply := expect[proto.QueryServiceVersionReply](c)
		require.Equal(t, proto.QueryServiceVersionOk, reply.Result)
		assert.Equal(t, uint32(3), reply.Version)
	})

	t.Run("query info", func(t *testing.T) {
		c.send(proto.QueryServiceInfo{Serial: 4, Cookie: svc})
		reply := expect[proto.QueryServiceInfoReply](c)
		require.Equal(t, proto.QueryServiceInfoOk, reply.Result)
		require.NotNil(t, reply.Info)
		assert.Equal(t, uint32(3), reply.Info.Version)
	})

	t.Run("foreign destroy", func(t *testing.T) {
		other := env.connect(19)
		other.send(proto.DestroyService{Serial: 1, Cookie: svc})
		reply := expect[proto.DestroyServiceReply](other)
		assert.Equal(t, proto.DestroyServiceForeignObject, reply.Result)
	})

	t.Run("destroying the object destroys the service", func(t *testing.T) {
		c.send(proto.DestroyObject{Serial: 5, Cookie: obj})
		reply := expect[proto.DestroyObjectReply](c)
		require.Equal(t, proto.DestroyObjectOk, reply.Result)

		c.send(proto.DestroyService{Serial: 6, Cookie: svc})
		svcReply := expect[proto.DestroyServiceReply](c)
		assert.Equal(t, proto.DestroyServiceInvalidService, svcReply.Result)
	})
}

func TestDisconnectReleasesResources(t *testing.T) {
	env := newTestEnv(t)

	owner := env.connect(19)
	u := newObjectUUID()
	obj := owner.createObject(u)
	svc := owner.createService(obj, newServiceUUID(), 1)

	watcher := env.connect(19)
	watcher.send(proto.SubscribeEvent{Serial: serialPtr(1), ServiceCookie: svc, Event: 7})
	subReply := expect[proto.SubscribeEventReply](watcher)
	require.Equal(t, proto.SubscribeEventOk, subReply.Result)
	expect[proto.SubscribeEvent](owner)

	owner.close()

	// The subscriber learns that the service is gone.
	destroyed := expect[proto.ServiceDestroyed](watcher)
	assert.Equal(t, svc, destroyed.ServiceCookie)

	// The object uuid is free again.
	taker := env.connect(19)
	taker.createObject(u)
}

func TestProtocolViolationTerminates(t *testing.T) {
	env := newTestEnv(t)

	t.Run("reply message from client", func(t *testing.T) {
		c := env.connect(19)
		c.send(proto.CreateObjectReply{Serial: 1, Result: proto.CreateObjectOk})
		c.recvErr()
	})

	t.Run("version gated message", func(t *testing.T) {
		c := env.connect(15)
		c.send(proto.AbortFunctionCall{Serial: 1})
		c.recvErr()
	})

	t.Run("subscribe all events below 1.18", func(t *testing.T) {
		c := env.connect(17)
		c.send(proto.SubscribeAllEvents{Serial: serialPtr(1), ServiceCookie: proto.NewServiceCookie()})
		c.recvErr()
	})
}

// stuckTransport lets the handshake reply through and then blocks every
// send, simulating a consumer that stops draining.
type stuckTransport struct {
	transport.Transport
	sent  int
	block chan struct{}
}

func (s *stuckTransport) Send(msg proto.Message) error {
	s.sent++
	if s.sent > 1 {
		<-s.block
		return transport.ErrClosed
	}
	return s.Transport.Send(msg)
}

func TestSlowConsumerTerminated(t *testing.T) {
	b := New()
	b.SetQueueSize(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	cli, srv := transport.Pipe()
	require.NoError(t, cli.Send(proto.Connect2{MajorVersion: proto.Major, MinMinor: 14, MaxMinor: 19}))

	stuck := &stuckTransport{Transport: srv, block: make(chan struct{})}
	defer close(stuck.block)

	pending, err := b.Handle().BeginConnect(ctx, stuck)
	require.NoError(t, err)

	conn, err := pending.Accept(ctx, nil)
	require.NoError(t, err)
	go conn.Run(ctx) //nolint:errcheck

	// The writer is stuck on the first reply, so the queue fills up and
	// overflows, which terminates the connection. The broker then becomes
	// idle and stops.
	for i := uint32(0); i < 16; i++ {
		require.NoError(t, cli.Send(proto.Sync{Serial: i}))
	}

	require.NoError(t, b.Handle().ShutdownIdle(ctx))

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("slow consumer was not terminated")
	}
}

func TestTakeStatistics(t *testing.T) {
	env := newTestEnv(t)
	c := env.connect(19)

	obj := c.createObject(newObjectUUID())
	c.createService(obj, newServiceUUID(), 1)
	c.sync(1)

	stats, err := env.handle.TakeStatistics(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NumConnections)
	assert.Equal(t, 1, stats.NumObjects)
	assert.Equal(t, 1, stats.NumServices)
	assert.Equal(t, uint64(1), stats.ObjectsCreated)
	assert.Equal(t, uint64(1), stats.ServicesCreated)
	assert.NotZero(t, stats.MessagesReceived)
	assert.NotZero(t, stats.MessagesSent)

	// The window counters reset between takes.
	stats, err = env.handle.TakeStatistics(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.ObjectsCreated)
	assert.Equal(t, 1, stats.NumObjects)
}
