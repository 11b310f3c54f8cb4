package proto

// MessageType discriminates protocol messages.
type MessageType uint8

// Message type discriminants. The values are part of the wire format and
// must not be reordered.
const (
	TypeConnect MessageType = iota
	TypeConnectReply
	TypeShutdown
	TypeCreateObject
	TypeCreateObjectReply
	TypeDestroyObject
	TypeDestroyObjectReply
	TypeCreateService
	TypeCreateServiceReply
	TypeDestroyService
	TypeDestroyServiceReply
	TypeCallFunction
	TypeCallFunctionReply
	TypeSubscribeEvent
	TypeSubscribeEventReply
	TypeUnsubscribeEvent
	TypeEmitEvent
	TypeQueryServiceVersion
	TypeQueryServiceVersionReply
	TypeCreateChannel
	TypeCreateChannelReply
	TypeCloseChannelEnd
	TypeCloseChannelEndReply
	TypeChannelEndClosed
	TypeClaimChannelEnd
	TypeClaimChannelEndReply
	TypeChannelEndClaimed
	TypeSendItem
	TypeItemReceived
	TypeAddChannelCapacity
	TypeSync
	TypeSyncReply
	TypeServiceDestroyed
	TypeCreateBusListener
	TypeCreateBusListenerReply
	TypeDestroyBusListener
	TypeDestroyBusListenerReply
	TypeAddBusListenerFilter
	TypeRemoveBusListenerFilter
	TypeClearBusListenerFilters
	TypeStartBusListener
	TypeStartBusListenerReply
	TypeStopBusListener
	TypeStopBusListenerReply
	TypeEmitBusEvent
	TypeBusListenerCurrentFinished
	TypeConnect2
	TypeConnectReply2
	TypeAbortFunctionCall
	TypeRegisterIntrospection
	TypeQueryIntrospection
	TypeQueryIntrospectionReply
	TypeCreateService2
	TypeQueryServiceInfo
	TypeQueryServiceInfoReply
	TypeSubscribeService
	TypeSubscribeServiceReply
	TypeUnsubscribeService
	TypeSubscribeAllEvents
	TypeSubscribeAllEventsReply
	TypeUnsubscribeAllEvents
	TypeUnsubscribeAllEventsReply
)

// Message is one fully-deserialized protocol message.
type Message interface {
	MsgType() MessageType
}

// Connect is the legacy handshake request, carrying a single minor version.
// It is treated like a Connect2 with the window [Version, Version].
type Connect struct {
	Version uint32 `json:"version"`
	Value   Value  `json:"value,omitempty"`
}

// ConnectReply answers a legacy Connect.
type ConnectReply struct {
	Result ConnectResult `json:"result"`

	// Version is the broker's maximum supported minor version when Result
	// is ConnectIncompatibleVersion.
	Version uint32 `json:"version,omitempty"`
	Value   Value  `json:"value,omitempty"`
}

// Connect2 is the handshake request, carrying the client's supported minor
// version window and opaque user data.
type Connect2 struct {
	MajorVersion uint32 `json:"major_version"`
	MinMinor     uint32 `json:"min_minor_version"`
	MaxMinor     uint32 `json:"max_minor_version"`
	Value        Value  `json:"value,omitempty"`
}

// ConnectReply2 answers a Connect2.
type ConnectReply2 struct {
	Result ConnectResult `json:"result"`

	// Minor is the negotiated minor version when Result is ConnectOk.
	Minor uint32 `json:"minor_version,omitempty"`

	// MinMinor and MaxMinor carry the broker's supported window when
	// Result is ConnectIncompatibleVersion.
	MinMinor uint32 `json:"min_minor_version,omitempty"`
	MaxMinor uint32 `json:"max_minor_version,omitempty"`
	Value    Value  `json:"value,omitempty"`
}

// Shutdown initiates or acknowledges a graceful connection shutdown. It is
// idempotent in both directions.
type Shutdown struct{}

// Sync is echoed back verbatim as SyncReply, establishing a client-visible
// ordering barrier.
type Sync struct {
	Serial uint32 `json:"serial"`
}

// SyncReply answers a Sync.
type SyncReply struct {
	Serial uint32 `json:"serial"`
}

// CreateObject requests creation of an object with a client-chosen UUID.
type CreateObject struct {
	Serial uint32     `json:"serial"`
	UUID   ObjectUUID `json:"uuid"`
}

// CreateObjectReply answers a CreateObject.
type CreateObjectReply struct {
	Serial uint32             `json:"serial"`
	Result CreateObjectResult `json:"result"`
	Cookie ObjectCookie       `json:"cookie,omitempty"`
}

// DestroyObject requests destruction of an object by cookie.
type DestroyObject struct {
	Serial uint32       `json:"serial"`
	Cookie ObjectCookie `json:"cookie"`
}

// DestroyObjectReply answers a DestroyObject.
type DestroyObjectReply struct {
	Serial uint32              `json:"serial"`
	Result DestroyObjectResult `json:"result"`
}

// CreateService is the legacy service creation request, carrying only a
// version number.
type CreateService struct {
	Serial       uint32       `json:"serial"`
	ObjectCookie ObjectCookie `json:"object_cookie"`
	UUID         ServiceUUID  `json:"uuid"`
	Version      uint32       `json:"version"`
}

// CreateService2 creates a service with a full ServiceInfo (1.17+).
type CreateService2 struct {
	Serial       uint32       `json:"serial"`
	ObjectCookie ObjectCookie `json:"object_cookie"`
	UUID         ServiceUUID  `json:"uuid"`
	Info         ServiceInfo  `json:"info"`
}

// CreateServiceReply answers CreateService and CreateService2.
type CreateServiceReply struct {
	Serial uint32              `json:"serial"`
	Result CreateServiceResult `json:"result"`
	Cookie ServiceCookie       `json:"cookie,omitempty"`
}

// DestroyService requests destruction of a service by cookie.
type DestroyService struct {
	Serial uint32        `json:"serial"`
	Cookie ServiceCookie `json:"cookie"`
}

// DestroyServiceReply answers a DestroyService.
type DestroyServiceReply struct {
	Serial uint32               `json:"serial"`
	Result DestroyServiceResult `json:"result"`
}

// ServiceDestroyed notifies subscribers that a service is gone.
type ServiceDestroyed struct {
	ServiceCookie ServiceCookie `json:"service_cookie"`
}

// QueryServiceVersion is the legacy (pre-1.17) service version query.
type QueryServiceVersion struct {
	Serial uint32        `json:"serial"`
	Cookie ServiceCookie `json:"cookie"`
}

// QueryServiceVersionReply answers a QueryServiceVersion.
type QueryServiceVersionReply struct {
	Serial  uint32                    `json:"serial"`
	Result  QueryServiceVersionResult `json:"result"`
	Version uint32                    `json:"version,omitempty"`
}

// QueryServiceInfo queries a service's ServiceInfo (1.17+).
type QueryServiceInfo struct {
	Serial uint32        `json:"serial"`
	Cookie ServiceCookie `json:"cookie"`
}

// QueryServiceInfoReply answers a QueryServiceInfo.
type QueryServiceInfoReply struct {
	Serial uint32                 `json:"serial"`
	Result QueryServiceInfoResult `json:"result"`
	Info   *ServiceInfo           `json:"info,omitempty"`
}

// CallFunction invokes a function on a service. The serial is chosen by the
// caller; the broker rewrites it before forwarding to the service owner.
type CallFunction struct {
	Serial        uint32        `json:"serial"`
	ServiceCookie ServiceCookie `json:"service_cookie"`
	Function      uint32        `json:"function"`
	Value         Value         `json:"value,omitempty"`

	// Version optionally pins the called function's version (1.18+).
	Version *uint32 `json:"version,omitempty"`
}

// CallFunctionReply carries a call result. Sent by the callee with the
// broker-minted serial, forwarded to the caller with the caller's serial.
type CallFunctionReply struct {
	Serial uint32             `json:"serial"`
	Result CallFunctionResult `json:"result"`
	Value  Value              `json:"value,omitempty"`
}

// AbortFunctionCall aborts a pending call (1.16+). From a caller it carries
// the caller's serial; towards a callee the broker-minted serial.
type AbortFunctionCall struct {
	Serial uint32 `json:"serial"`
}

// SubscribeEvent subscribes the sender to an event. A nil serial subscribes
// silently: no reply is sent and the service owner is not notified.
type SubscribeEvent struct {
	Serial        *uint32       `json:"serial,omitempty"`
	ServiceCookie ServiceCookie `json:"service_cookie"`
	Event         uint32        `json:"event"`
}

// SubscribeEventReply answers a SubscribeEvent with a serial.
type SubscribeEventReply struct {
	Serial uint32               `json:"serial"`
	Result SubscribeEventResult `json:"result"`
}

// UnsubscribeEvent removes an event subscription. It has no reply.
type UnsubscribeEvent struct {
	ServiceCookie ServiceCookie `json:"service_cookie"`
	Event         uint32        `json:"event"`
}

// EmitEvent multicasts an event to all subscribers of (service, event).
type EmitEvent struct {
	ServiceCookie ServiceCookie `json:"service_cookie"`
	Event         uint32        `json:"event"`
	Value         Value         `json:"value,omitempty"`
}

// SubscribeAllEvents subscribes to every event of a service (1.18+). Only
// services created with ServiceInfo.SubscribeAll accept it.
type SubscribeAllEvents struct {
	Serial        *uint32       `json:"serial,omitempty"`
	ServiceCookie ServiceCookie `json:"service_cookie"`
}

// SubscribeAllEventsReply answers a SubscribeAllEvents with a serial.
type SubscribeAllEventsReply struct {
	Serial uint32                   `json:"serial"`
	Result SubscribeAllEventsResult `json:"result"`
}

// UnsubscribeAllEvents removes a subscribe-all subscription (1.18+).
type UnsubscribeAllEvents struct {
	Serial        *uint32       `json:"serial,omitempty"`
	ServiceCookie ServiceCookie `json:"service_cookie"`
}

// UnsubscribeAllEventsReply answers an UnsubscribeAllEvents with a serial.
type UnsubscribeAllEventsReply struct {
	Serial uint32                     `json:"serial"`
	Result UnsubscribeAllEventsResult `json:"result"`
}

// SubscribeService watches a service for destruction (1.18+).
type SubscribeService struct {
	Serial        uint32        `json:"serial"`
	ServiceCookie ServiceCookie `json:"service_cookie"`
}

// SubscribeServiceReply answers a SubscribeService.
type SubscribeServiceReply struct {
	Serial uint32                 `json:"serial"`
	Result SubscribeServiceResult `json:"result"`
}

// UnsubscribeService removes a service watch (1.18+). It has no reply.
type UnsubscribeService struct {
	ServiceCookie ServiceCookie `json:"service_cookie"`
}

// ChannelEnd designates one of a channel's two ends.
type ChannelEnd uint8

// Channel ends.
const (
	Sender ChannelEnd = iota
	Receiver
)

// Other returns the opposite end.
func (e ChannelEnd) Other() ChannelEnd {
	if e == Sender {
		return Receiver
	}
	return Sender
}

func (e ChannelEnd) String() string {
	if e == Sender {
		return "sender"
	}
	return "receiver"
}

// ChannelEndWithCapacity designates a channel end together with the initial
// receive capacity. Capacity is meaningful for the receiver end only.
type ChannelEndWithCapacity struct {
	End      ChannelEnd `json:"end"`
	Capacity uint32     `json:"capacity,omitempty"`
}

// CreateChannel creates a channel with the given end claimed by the sender
// of this message.
type CreateChannel struct {
	Serial uint32                 `json:"serial"`
	End    ChannelEndWithCapacity `json:"end"`
}

// CreateChannelReply answers a CreateChannel.
type CreateChannelReply struct {
	Serial uint32        `json:"serial"`
	Cookie ChannelCookie `json:"cookie"`
}

// ClaimChannelEnd claims the unclaimed end of a channel.
type ClaimChannelEnd struct {
	Serial uint32                 `json:"serial"`
	Cookie ChannelCookie          `json:"cookie"`
	End    ChannelEndWithCapacity `json:"end"`
}

// ClaimChannelEndReply answers a ClaimChannelEnd. Capacity carries the
// receiver's current credit when the sender end was claimed.
type ClaimChannelEndReply struct {
	Serial   uint32                `json:"serial"`
	Result   ClaimChannelEndResult `json:"result"`
	Capacity uint32                `json:"capacity,omitempty"`
}

// ChannelEndClaimed notifies the holder of one end that the other end has
// been claimed.
type ChannelEndClaimed struct {
	Cookie ChannelCookie          `json:"cookie"`
	End    ChannelEndWithCapacity `json:"end"`
}

// CloseChannelEnd closes one end of a channel.
type CloseChannelEnd struct {
	Serial uint32        `json:"serial"`
	Cookie ChannelCookie `json:"cookie"`
	End    ChannelEnd    `json:"end"`
}

// CloseChannelEndReply answers a CloseChannelEnd.
type CloseChannelEndReply struct {
	Serial uint32                `json:"serial"`
	Result CloseChannelEndResult `json:"result"`
}

// ChannelEndClosed notifies the holder of one end that the other end has
// been closed.
type ChannelEndClosed struct {
	Cookie ChannelCookie `json:"cookie"`
	End    ChannelEnd    `json:"end"`
}

// SendItem sends one item into a channel. It consumes one unit of the
// receiver's capacity.
type SendItem struct {
	Cookie ChannelCookie `json:"cookie"`
	Value  Value         `json:"value,omitempty"`
}

// ItemReceived delivers one channel item to the receiver.
type ItemReceived struct {
	Cookie ChannelCookie `json:"cookie"`
	Value  Value         `json:"value,omitempty"`
}

// AddChannelCapacity grants the sender more capacity. From the receiver it
// carries the delta; towards the sender the broker forwards the delta so the
// sender can release its local credit counter.
type AddChannelCapacity struct {
	Cookie   ChannelCookie `json:"cookie"`
	Capacity uint32        `json:"capacity"`
}

// CreateBusListener creates a bus listener owned by the sender.
type CreateBusListener struct {
	Serial uint32 `json:"serial"`
}

// CreateBusListenerReply answers a CreateBusListener.
type CreateBusListenerReply struct {
	Serial uint32            `json:"serial"`
	Cookie BusListenerCookie `json:"cookie"`
}

// DestroyBusListener destroys a bus listener.
type DestroyBusListener struct {
	Serial uint32            `json:"serial"`
	Cookie BusListenerCookie `json:"cookie"`
}

// DestroyBusListenerReply answers a DestroyBusListener.
type DestroyBusListenerReply struct {
	Serial uint32                   `json:"serial"`
	Result DestroyBusListenerResult `json:"result"`
}

// AddBusListenerFilter adds a filter to a bus listener. It has no reply.
type AddBusListenerFilter struct {
	Cookie BusListenerCookie `json:"cookie"`
	Filter BusListenerFilter `json:"filter"`
}

// RemoveBusListenerFilter removes a filter from a bus listener.
type RemoveBusListenerFilter struct {
	Cookie BusListenerCookie `json:"cookie"`
	Filter BusListenerFilter `json:"filter"`
}

// ClearBusListenerFilters removes all filters from a bus listener.
type ClearBusListenerFilters struct {
	Cookie BusListenerCookie `json:"cookie"`
}

// StartBusListener starts a bus listener with the given scope.
type StartBusListener struct {
	Serial uint32            `json:"serial"`
	Cookie BusListenerCookie `json:"cookie"`
	Scope  BusListenerScope  `json:"scope"`
}

// StartBusListenerReply answers a StartBusListener.
type StartBusListenerReply struct {
	Serial uint32                 `json:"serial"`
	Result StartBusListenerResult `json:"result"`
}

// StopBusListener stops a bus listener.
type StopBusListener struct {
	Serial uint32            `json:"serial"`
	Cookie BusListenerCookie `json:"cookie"`
}

// StopBusListenerReply answers a StopBusListener.
type StopBusListenerReply struct {
	Serial uint32                `json:"serial"`
	Result StopBusListenerResult `json:"result"`
}

// EmitBusEvent delivers an object or service life-cycle event. Cookie is set
// while replaying current entities to a specific listener and nil for new
// events, which are deduplicated per client.
type EmitBusEvent struct {
	Cookie *BusListenerCookie `json:"cookie,omitempty"`
	Event  BusEvent           `json:"event"`
}

// BusListenerCurrentFinished signals the end of the current-entity replay.
type BusListenerCurrentFinished struct {
	Cookie BusListenerCookie `json:"cookie"`
}

// RegisterIntrospection registers the sender as able to answer introspection
// queries for the given type ids (1.17+). It has no reply.
type RegisterIntrospection struct {
	TypeIDs []TypeID `json:"type_ids"`
}

// QueryIntrospection asks for the introspection of a type (1.17+).
type QueryIntrospection struct {
	Serial uint32 `json:"serial"`
	TypeID TypeID `json:"type_id"`
}

// QueryIntrospectionReply answers a QueryIntrospection.
type QueryIntrospectionReply struct {
	Serial uint32                   `json:"serial"`
	Result QueryIntrospectionResult `json:"result"`
	Value  Value                    `json:"value,omitempty"`
}

// MsgType implementations.

func (Connect) MsgType() MessageType                    { return TypeConnect }
func (ConnectReply) MsgType() MessageType               { return TypeConnectReply }
func (Connect2) MsgType() MessageType                   { return TypeConnect2 }
func (ConnectReply2) MsgType() MessageType              { return TypeConnectReply2 }
func (Shutdown) MsgType() MessageType                   { return TypeShutdown }
func (Sync) MsgType() MessageType                       { return TypeSync }
func (SyncReply) MsgType() MessageType                  { return TypeSyncReply }
func (CreateObject) MsgType() MessageType               { return TypeCreateObject }
func (CreateObjectReply) MsgType() MessageType          { return TypeCreateObjectReply }
func (DestroyObject) MsgType() MessageType              { return TypeDestroyObject }
func (DestroyObjectReply) MsgType() MessageType         { return TypeDestroyObjectReply }
func (CreateService) MsgType() MessageType              { return TypeCreateService }
func (CreateService2) MsgType() MessageType             { return TypeCreateService2 }
func (CreateServiceReply) MsgType() MessageType         { return TypeCreateServiceReply }
func (DestroyService) MsgType() MessageType             { return TypeDestroyService }
func (DestroyServiceReply) MsgType() MessageType        { return TypeDestroyServiceReply }
func (ServiceDestroyed) MsgType() MessageType           { return TypeServiceDestroyed }
func (QueryServiceVersion) MsgType() MessageType        { return TypeQueryServiceVersion }
func (QueryServiceVersionReply) MsgType() MessageType   { return TypeQueryServiceVersionReply }
func (QueryServiceInfo) MsgType() MessageType           { return TypeQueryServiceInfo }
func (QueryServiceInfoReply) MsgType() MessageType      { return TypeQueryServiceInfoReply }
func (CallFunction) MsgType() MessageType               { return TypeCallFunction }
func (CallFunctionReply) MsgType() MessageType          { return TypeCallFunctionReply }
func (AbortFunctionCall) MsgType() MessageType          { return TypeAbortFunctionCall }
func (SubscribeEvent) MsgType() MessageType             { return TypeSubscribeEvent }
func (SubscribeEventReply) MsgType() MessageType        { return TypeSubscribeEventReply }
func (UnsubscribeEvent) MsgType() MessageType           { return TypeUnsubscribeEvent }
func (EmitEvent) MsgType() MessageType                  { return TypeEmitEvent }
func (SubscribeAllEvents) MsgType() MessageType         { return TypeSubscribeAllEvents }
func (SubscribeAllEventsReply) MsgType() MessageType    { return TypeSubscribeAllEventsReply }
func (UnsubscribeAllEvents) MsgType() MessageType       { return TypeUnsubscribeAllEvents }
func (UnsubscribeAllEventsReply) MsgType() MessageType  { return TypeUnsubscribeAllEventsReply }
func (SubscribeService) MsgType() MessageType           { return TypeSubscribeService }
func (SubscribeServiceReply) MsgType() MessageType      { return TypeSubscribeServiceReply }
func (UnsubscribeService) MsgType() MessageType         { return TypeUnsubscribeService }
func (CreateChannel) MsgType() MessageType              { return TypeCreateChannel }
func (CreateChannelReply) MsgType() MessageType         { return TypeCreateChannelReply }
func (ClaimChannelEnd) MsgType() MessageType            { return TypeClaimChannelEnd }
func (ClaimChannelEndReply) MsgType() MessageType       { return TypeClaimChannelEndReply }
func (ChannelEndClaimed) MsgType() MessageType          { return TypeChannelEndClaimed }
func (CloseChannelEnd) MsgType() MessageType            { return TypeCloseChannelEnd }
func (CloseChannelEndReply) MsgType() MessageType       { return TypeCloseChannelEndReply }
func (ChannelEndClosed) MsgType() MessageType           { return TypeChannelEndClosed }
func (SendItem) MsgType() MessageType                   { return TypeSendItem }
func (ItemReceived) MsgType() MessageType               { return TypeItemReceived }
func (AddChannelCapacity) MsgType() MessageType         { return TypeAddChannelCapacity }
func (CreateBusListener) MsgType() MessageType          { return TypeCreateBusListener }
func (CreateBusListenerReply) MsgType() MessageType     { return TypeCreateBusListenerReply }
func (DestroyBusListener) MsgType() MessageType         { return TypeDestroyBusListener }
func (DestroyBusListenerReply) MsgType() MessageType    { return TypeDestroyBusListenerReply }
func (AddBusListenerFilter) MsgType() MessageType       { return TypeAddBusListenerFilter }
func (RemoveBusListenerFilter) MsgType() MessageType    { return TypeRemoveBusListenerFilter }
func (ClearBusListenerFilters) MsgType() MessageType    { return TypeClearBusListenerFilters }
func (StartBusListener) MsgType() MessageType           { return TypeStartBusListener }
func (StartBusListenerReply) MsgType() MessageType      { return TypeStartBusListenerReply }
func (StopBusListener) MsgType() MessageType            { return TypeStopBusListener }
func (StopBusListenerReply) MsgType() MessageType       { return TypeStopBusListenerReply }
func (EmitBusEvent) MsgType() MessageType               { return TypeEmitBusEvent }
func (BusListenerCurrentFinished) MsgType() MessageType { return TypeBusListenerCurrentFinished }
func (RegisterIntrospection) MsgType() MessageType      { return TypeRegisterIntrospection }
func (QueryIntrospection) MsgType() MessageType         { return TypeQueryIntrospection }
func (QueryIntrospectionReply) MsgType() MessageType    { return TypeQueryIntrospectionReply }
