package broker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aldrin-bus/aldrin/pkg/proto"
	"github.com/aldrin-bus/aldrin/pkg/transport"
)

const testTimeout = 5 * time.Second

type testEnv struct {
	t      *testing.T
	broker *Broker
	handle *Handle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	b := New()
	ctx, cancel := context.WithCancel(context.Background())

	env := &testEnv{
		t:      t,
		broker: b,
		handle: b.Handle(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		b.Run(ctx)
		close(env.done)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-env.done:
		case <-time.After(testTimeout):
			t.Error("broker did not shut down")
		}
	})

	return env
}

type testClient struct {
	t       *testing.T
	tr      transport.Transport
	version proto.ProtocolVersion
	handle  *ConnectionHandle
}

// connect performs a Connect2 handshake with the client's window pinned at
// [14, maxMinor].
func (env *testEnv) connect(maxMinor uint32) *testClient {
	env.t.Helper()

	cli, srv := transport.Pipe()
	require.NoError(env.t, cli.Send(proto.Connect2{
		MajorVersion: proto.Major,
		MinMinor:     proto.MinVersion.Minor(),
		MaxMinor:     maxMinor,
	}))

	pending, err := env.handle.BeginConnect(env.ctx, srv)
	require.NoError(env.t, err)

	conn, err := pending.Accept(env.ctx, nil)
	require.NoError(env.t, err)
	go conn.Run(env.ctx) //nolint:errcheck

	c := &testClient{t: env.t, tr: cli, handle: conn.Handle()}

	reply := expect[proto.ConnectReply2](c)
	require.Equal(env.t, proto.ConnectOk, reply.Result)
	c.version, err = proto.NewProtocolVersion(proto.Major, reply.Minor)
	require.NoError(env.t, err)

	return c
}

func (c *testClient) send(msg proto.Message) {
	c.t.Helper()
	require.NoError(c.t, c.tr.Send(msg))
}

func (c *testClient) recv() proto.Message {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	msg, err := c.tr.Recv(ctx)
	require.NoError(c.t, err, "no message received")
	return msg
}

// tryRecv polls for a message without failing the test when none arrives.
func (c *testClient) tryRecv() (proto.Message, bool) {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	msg, err := c.tr.Recv(ctx)
	if err != nil {
		return nil, false
	}
	return msg, true
}

// recvErr waits for the transport to fail, i.e. for the broker to terminate
// the connection.
func (c *testClient) recvErr() {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	for {
		if _, err := c.tr.Recv(ctx); err != nil {
			require.NotErrorIs(c.t, err, context.DeadlineExceeded)
			return
		}
	}
}

func expect[T proto.Message](c *testClient) T {
	c.t.Helper()

	msg := c.recv()
	v, ok := msg.(T)
	if !ok {
		c.t.Fatalf("expected %T, got %#v", v, msg)
	}
	return v
}

// sync round-trips a Sync barrier and asserts that no other message is
// delivered in between. All earlier broker sends to this client are ordered
// before the reply.
func (c *testClient) sync(serial uint32) {
	c.t.Helper()
	c.send(proto.Sync{Serial: serial})
	reply := expect[proto.SyncReply](c)
	require.Equal(c.t, serial, reply.Serial)
}

func (c *testClient) createObject(u proto.ObjectUUID) proto.ObjectCookie {
	c.t.Helper()
	c.send(proto.CreateObject{Serial: 1, UUID: u})
	reply := expect[proto.CreateObjectReply](c)
	require.Equal(c.t, proto.CreateObjectOk, reply.Result)
	return reply.Cookie
}

func (c *testClient) createService(obj proto.ObjectCookie, u proto.ServiceUUID, version uint32) proto.ServiceCookie {
	c.t.Helper()
	c.send(proto.CreateService{Serial: 1, ObjectCookie: obj, UUID: u, Version: version})
	reply := expect[proto.CreateServiceReply](c)
	require.Equal(c.t, proto.CreateServiceOk, reply.Result)
	return reply.Cookie
}

func (c *testClient) createService2(obj proto.ObjectCookie, u proto.ServiceUUID, info proto.ServiceInfo) proto.ServiceCookie {
	c.t.Helper()
	c.send(proto.CreateService2{Serial: 1, ObjectCookie: obj, UUID: u, Info: info})
	reply := expect[proto.CreateServiceReply](c)
	require.Equal(c.t, proto.CreateServiceOk, reply.Result)
	return reply.Cookie
}

func (c *testClient) createChannel(end proto.ChannelEndWithCapacity) proto.ChannelCookie {
	c.t.Helper()
	c.send(proto.CreateChannel{Serial: 1, End: end})
	reply := expect[proto.CreateChannelReply](c)
	return reply.Cookie
}

func (c *testClient) createBusListener() proto.BusListenerCookie {
	c.t.Helper()
	c.send(proto.CreateBusListener{Serial: 1})
	reply := expect[proto.CreateBusListenerReply](c)
	return reply.Cookie
}

func (c *testClient) close() {
	c.tr.Close() //nolint:errcheck
}

func newObjectUUID() proto.ObjectUUID   { return proto.ObjectUUID{UUID: uuid.New()} }
func newServiceUUID() proto.ServiceUUID { return proto.ServiceUUID{UUID: uuid.New()} }

func serialPtr(s uint32) *uint32 { return &s }
