package proto

import (
	"encoding/json"
	"fmt"
)

// envelope is the JSON wire form of a message: the type discriminant plus
// the message body.
type envelope struct {
	Type MessageType     `json:"type"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

// MarshalMessage encodes a message into its JSON envelope.
func MarshalMessage(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message body: %w", err)
	}
	return json.Marshal(envelope{Type: msg.MsgType(), Msg: body})
}

func decodeMsg[T Message](body json.RawMessage) (Message, error) {
	var msg T
	if len(body) != 0 {
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message body: %w", err)
		}
	}
	return msg, nil
}

// UnmarshalMessage decodes a JSON envelope into a concrete message.
func UnmarshalMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case TypeConnect:
		return decodeMsg[Connect](env.Msg)
	case TypeConnectReply:
		return decodeMsg[ConnectReply](env.Msg)
	case TypeConnect2:
		return decodeMsg[Connect2](env.Msg)
	case TypeConnectReply2:
		return decodeMsg[ConnectReply2](env.Msg)
	case TypeShutdown:
		return decodeMsg[Shutdown](env.Msg)
	case TypeSync:
		return decodeMsg[Sync](env.Msg)
	case TypeSyncReply:
		return decodeMsg[SyncReply](env.Msg)
	case TypeCreateObject:
		return decodeMsg[CreateObject](env.Msg)
	case TypeCreateObjectReply:
		return decodeMsg[CreateObjectReply](env.Msg)
	case TypeDestroyObject:
		return decodeMsg[DestroyObject](env.Msg)
	case TypeDestroyObjectReply:
		return decodeMsg[DestroyObjectReply](env.Msg)
	case TypeCreateService:
		return decodeMsg[CreateService](env.Msg)
	case TypeCreateService2:
		return decodeMsg[CreateService2](env.Msg)
	case TypeCreateServiceReply:
		return decodeMsg[CreateServiceReply](env.Msg)
	case TypeDestroyService:
		return decodeMsg[DestroyService](env.Msg)
	case TypeDestroyServiceReply:
		return decodeMsg[DestroyServiceReply](env.Msg)
	case TypeServiceDestroyed:
		return decodeMsg[ServiceDestroyed](env.Msg)
	case TypeQueryServiceVersion:
		return decodeMsg[QueryServiceVersion](env.Msg)
	case TypeQueryServiceVersionReply:
		return decodeMsg[QueryServiceVersionReply](env.Msg)
	case TypeQueryServiceInfo:
		return decodeMsg[QueryServiceInfo](env.Msg)
	case TypeQueryServiceInfoReply:
		return decodeMsg[QueryServiceInfoReply](env.Msg)
	case TypeCallFunction:
		return decodeMsg[CallFunction](env.Msg)
	case TypeCallFunctionReply:
		return decodeMsg[CallFunctionReply](env.Msg)
	case TypeAbortFunctionCall:
		return decodeMsg[AbortFunctionCall](env.Msg)
	case TypeSubscribeEvent:
		return decodeMsg[SubscribeEvent](env.Msg)
	case TypeSubscribeEventReply:
		return decodeMsg[SubscribeEventReply](env.Msg)
	case TypeUnsubscribeEvent:
		return decodeMsg[UnsubscribeEvent](env.Msg)
	case TypeEmitEvent:
		return decodeMsg[EmitEvent](env.Msg)
	case TypeSubscribeAllEvents:
		return decodeMsg[SubscribeAllEvents](env.Msg)
	case TypeSubscribeAllEventsReply:
		return decodeMsg[SubscribeAllEventsReply](env.Msg)
	case TypeUnsubscribeAllEvents:
		return decodeMsg[UnsubscribeAllEvents](env.Msg)
	case TypeUnsubscribeAllEventsReply:
		return decodeMsg[UnsubscribeAllEventsReply](env.Msg)
	case TypeSubscribeService:
		return decodeMsg[SubscribeService](env.Msg)
	case TypeSubscribeServiceReply:
		return decodeMsg[SubscribeServiceReply](env.Msg)
	case TypeUnsubscribeService:
		return decodeMsg[UnsubscribeService](env.Msg)
	case TypeCreateChannel:
		return decodeMsg[CreateChannel](env.Msg)
	case TypeCreateChannelReply:
		return decodeMsg[CreateChannelReply](env.Msg)
	case TypeClaimChannelEnd:
		return decodeMsg[ClaimChannelEnd](env.Msg)
	case TypeClaimChannelEndReply:
		return decodeMsg[ClaimChannelEndReply](env.Msg)
	case TypeChannelEndClaimed:
		return decodeMsg[ChannelEndClaimed](env.Msg)
	case TypeCloseChannelEnd:
		return decodeMsg[CloseChannelEnd](env.Msg)
	case TypeCloseChannelEndReply:
		return decodeMsg[CloseChannelEndReply](env.Msg)
	case TypeChannelEndClosed:
		return decodeMsg[ChannelEndClosed](env.Msg)
	case TypeSendItem:
		return decodeMsg[SendItem](env.Msg)
	case TypeItemReceived:
		return decodeMsg[ItemReceived](env.Msg)
	case TypeAddChannelCapacity:
		return decodeMsg[AddChannelCapacity](env.Msg)
	case TypeCreateBusListener:
		return decodeMsg[CreateBusListener](env.Msg)
	case TypeCreateBusListenerReply:
		return decodeMsg[CreateBusListenerReply](env.Msg)
	case TypeDestroyBusListener:
		return decodeMsg[DestroyBusListener](env.Msg)
	case TypeDestroyBusListenerReply:
		return decodeMsg[DestroyBusListenerReply](env.Msg)
	case TypeAddBusListenerFilter:
		return decodeMsg[AddBusListenerFilter](env.Msg)
	case TypeRemoveBusListenerFilter:
		return decodeMsg[RemoveBusListenerFilter](env.Msg)
	case TypeClearBusListenerFilters:
		return decodeMsg[ClearBusListenerFilters](env.Msg)
	case TypeStartBusListener:
		return decodeMsg[StartBusListener](env.Msg)
	case TypeStartBusListenerReply:
		return decodeMsg[StartBusListenerReply](env.Msg)
	case TypeStopBusListener:
		return decodeMsg[StopBusListener](env.Msg)
	case TypeStopBusListenerReply:
		return decodeMsg[StopBusListenerReply](env.Msg)
	case TypeEmitBusEvent:
		return decodeMsg[EmitBusEvent](env.Msg)
	case TypeBusListenerCurrentFinished:
		return decodeMsg[BusListenerCurrentFinished](env.Msg)
	case TypeRegisterIntrospection:
		return decodeMsg[RegisterIntrospection](env.Msg)
	case TypeQueryIntrospection:
		return decodeMsg[QueryIntrospection](env.Msg)
	case TypeQueryIntrospectionReply:
		return decodeMsg[QueryIntrospectionReply](env.Msg)
	default:
		return nil, fmt.Errorf("unknown message type %d", env.Type)
	}
}
