package proto

// ConnectResult is the outcome of a handshake.
type ConnectResult uint8

// Connect results.
const (
	ConnectOk ConnectResult = iota
	ConnectIncompatibleVersion
	ConnectRejected
)

// CreateObjectResult is the outcome of a CreateObject.
type CreateObjectResult uint8

// CreateObject results.
const (
	CreateObjectOk CreateObjectResult = iota
	CreateObjectDuplicateObject
)

// DestroyObjectResult is the outcome of a DestroyObject.
type DestroyObjectResult uint8

// DestroyObject results.
const (
	DestroyObjectOk DestroyObjectResult = iota
	DestroyObjectInvalidObject
	DestroyObjectForeignObject
)

// CreateServiceResult is the outcome of a CreateService.
type CreateServiceResult uint8

// CreateService results.
const (
	CreateServiceOk CreateServiceResult = iota
	CreateServiceDuplicateService
	CreateServiceInvalidObject
	CreateServiceForeignObject
)

// DestroyServiceResult is the outcome of a DestroyService.
type DestroyServiceResult uint8

// DestroyService results.
const (
	DestroyServiceOk DestroyServiceResult = iota
	DestroyServiceInvalidService
	DestroyServiceForeignObject
)

// QueryServiceVersionResult is the outcome of a QueryServiceVersion.
type QueryServiceVersionResult uint8

// QueryServiceVersion results.
const (
	QueryServiceVersionOk QueryServiceVersionResult = iota
	QueryServiceVersionInvalidService
)

// QueryServiceInfoResult is the outcome of a QueryServiceInfo.
type QueryServiceInfoResult uint8

// QueryServiceInfo results.
const (
	QueryServiceInfoOk QueryServiceInfoResult = iota
	QueryServiceInfoInvalidService
)

// CallFunctionResult is the outcome of a function call.
type CallFunctionResult uint8

// CallFunction results.
const (
	CallFunctionOk CallFunctionResult = iota
	CallFunctionErr
	CallFunctionAborted
	CallFunctionInvalidService
	CallFunctionInvalidFunction
	CallFunctionInvalidArgs
)

// SubscribeEventResult is the outcome of a SubscribeEvent.
type SubscribeEventResult uint8

// SubscribeEvent results.
const (
	SubscribeEventOk SubscribeEventResult = iota
	SubscribeEventInvalidService
)

// SubscribeAllEventsResult is the outcome of a SubscribeAllEvents.
type SubscribeAllEventsResult uint8

// SubscribeAllEvents results.
const (
	SubscribeAllEventsOk SubscribeAllEventsResult = iota
	SubscribeAllEventsInvalidService
	SubscribeAllEventsNotSupported
)

// UnsubscribeAllEventsResult is the outcome of an UnsubscribeAllEvents.
type UnsubscribeAllEventsResult uint8

// UnsubscribeAllEvents results.
const (
	UnsubscribeAllEventsOk UnsubscribeAllEventsResult = iota
	UnsubscribeAllEventsInvalidService
	UnsubscribeAllEventsNotSupported
)

// SubscribeServiceResult is the outcome of a SubscribeService.
type SubscribeServiceResult uint8

// SubscribeService results.
const (
	SubscribeServiceOk SubscribeServiceResult = iota
	SubscribeServiceInvalidService
)

// ClaimChannelEndResult is the outcome of a ClaimChannelEnd.
type ClaimChannelEndResult uint8

// ClaimChannelEnd results.
const (
	ClaimChannelEndSenderClaimed ClaimChannelEndResult = iota
	ClaimChannelEndReceiverClaimed
	ClaimChannelEndInvalidChannel
	ClaimChannelEndAlreadyClaimed
)

// CloseChannelEndResult is the outcome of a CloseChannelEnd.
type CloseChannelEndResult uint8

// CloseChannelEnd results.
const (
	CloseChannelEndOk CloseChannelEndResult = iota
	CloseChannelEndInvalidChannel
	CloseChannelEndForeignChannel
)

// DestroyBusListenerResult is the outcome of a DestroyBusListener.
type DestroyBusListenerResult uint8

// DestroyBusListener results.
const (
	DestroyBusListenerOk DestroyBusListenerResult = iota
	DestroyBusListenerInvalidBusListener
)

// StartBusListenerResult is the outcome of a StartBusListener.
type StartBusListenerResult uint8

// StartBusListener results.
const (
	StartBusListenerOk StartBusListenerResult = iota
	StartBusListenerInvalidBusListener
	StartBusListenerAlreadyStarted
)

// StopBusListenerResult is the outcome of a StopBusListener.
type StopBusListenerResult uint8

// StopBusListener results.
const (
	StopBusListenerOk StopBusListenerResult = iota
	StopBusListenerInvalidBusListener
	StopBusListenerNotStarted
)

// QueryIntrospectionResult is the outcome of a QueryIntrospection.
type QueryIntrospectionResult uint8

// QueryIntrospection results.
const (
	QueryIntrospectionOk QueryIntrospectionResult = iota
	QueryIntrospectionUnavailable
)
