package broker

import (
	"fmt"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

// handleMessage interprets one inbound message in the context of its
// connection. A non-nil error is a protocol violation and terminates the
// connection without a reply.
func (b *Broker) handleMessage(st *work, id connID, msg proto.Message) error {
	conn, ok := b.conns[id]
	if ok && !proto.AllowedAt(msg.MsgType(), conn.version) {
		return fmt.Errorf("message type %d not allowed at protocol %s", msg.MsgType(), conn.version)
	}

	switch msg := msg.(type) {
	case proto.CreateObject:
		return b.createObject(st, id, msg)
	case proto.DestroyObject:
		return b.destroyObject(st, id, msg)
	case proto.CreateService:
		return b.createService(st, id, msg)
	case proto.CreateService2:
		return b.createService2(st, id, msg)
	case proto.DestroyService:
		return b.destroyService(st, id, msg)
	case proto.CallFunction:
		return b.callFunction(st, id, msg)
	case proto.CallFunctionReply:
		b.callFunctionReply(st, id, msg)
		return nil
	case proto.AbortFunctionCall:
		return b.abortFunctionCall(st, id, msg)
	case proto.SubscribeEvent:
		return b.subscribeEvent(st, id, msg)
	case proto.UnsubscribeEvent:
		b.unsubscribeEvent(st, id, msg)
		return nil
	case proto.SubscribeAllEvents:
		return b.subscribeAllEvents(st, id, msg)
	case proto.UnsubscribeAllEvents:
		return b.unsubscribeAllEvents(st, id, msg)
	case proto.SubscribeService:
		return b.subscribeService(st, id, msg)
	case proto.UnsubscribeService:
		return b.unsubscribeService(id, msg)
	case proto.EmitEvent:
		b.emitEvent(st, id, msg)
		return nil
	case proto.QueryServiceVersion:
		return b.queryServiceVersion(st, id, msg)
	case proto.QueryServiceInfo:
		return b.queryServiceInfo(st, id, msg)
	case proto.CreateChannel:
		return b.createChannel(st, id, msg)
	case proto.CloseChannelEnd:
		return b.closeChannelEnd(st, id, msg)
	case proto.ClaimChannelEnd:
		return b.claimChannelEnd(st, id, msg)
	case proto.AddChannelCapacity:
		b.addChannelCapacity(st, id, msg)
		return nil
	case proto.SendItem:
		b.sendItem(st, id, msg)
		return nil
	case proto.Sync:
		b.send(st, id, proto.SyncReply{Serial: msg.Serial})
		return nil
	case proto.Shutdown:
		st.pushRemoveConn(id, true)
		return nil
	case proto.CreateBusListener:
		return b.createBusListener(st, id, msg)
	case proto.DestroyBusListener:
		return b.destroyBusListener(st, id, msg)
	case proto.AddBusListenerFilter:
		b.addBusListenerFilter(id, msg)
		return nil
	case proto.RemoveBusListenerFilter:
		b.removeBusListenerFilter(id, msg)
		return nil
	case proto.ClearBusListenerFilters:
		b.clearBusListenerFilters(id, msg)
		return nil
	case proto.StartBusListener:
		return b.startBusListener(st, id, msg)
	case proto.StopBusListener:
		return b.stopBusListener(st, id, msg)
	case proto.RegisterIntrospection:
		return b.registerIntrospection(id, msg)
	case proto.QueryIntrospection:
		return b.queryIntrospection(st, id, msg)
	case proto.QueryIntrospectionReply:
		return b.queryIntrospectionReply(st, id, msg)
	default:
		// Replies and notifications the broker itself originates are
		// never valid from a client.
		return fmt.Errorf("unexpected message type %d", msg.MsgType())
	}
}
