package proto

// minVersions records the minimum protocol version introducing each message
// type. Types absent from the table are part of the initial 1.14 protocol.
var minVersions = map[MessageType]ProtocolVersion{
	TypeAbortFunctionCall:         V1_16,
	TypeRegisterIntrospection:     V1_17,
	TypeQueryIntrospection:        V1_17,
	TypeQueryIntrospectionReply:   V1_17,
	TypeCreateService2:            V1_17,
	TypeQueryServiceInfo:          V1_17,
	TypeQueryServiceInfoReply:     V1_17,
	TypeSubscribeService:          V1_18,
	TypeSubscribeServiceReply:     V1_18,
	TypeUnsubscribeService:        V1_18,
	TypeSubscribeAllEvents:        V1_18,
	TypeSubscribeAllEventsReply:   V1_18,
	TypeUnsubscribeAllEvents:      V1_18,
	TypeUnsubscribeAllEventsReply: V1_18,
}

// RequiredVersion returns the minimum protocol version for a message type.
func RequiredVersion(t MessageType) ProtocolVersion {
	if v, ok := minVersions[t]; ok {
		return v
	}
	return V1_14
}

// AllowedAt reports whether a message type may be exchanged on a connection
// with the given negotiated version.
func AllowedAt(t MessageType, v ProtocolVersion) bool {
	return v.AtLeast(RequiredVersion(t))
}
