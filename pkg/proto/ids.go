// Package proto defines the Aldrin wire protocol: message types, ids and
// cookies, protocol versions and the per-message version gate.
package proto

import "github.com/google/uuid"

// ObjectUUID is the client-chosen identity of an object. It must be unique
// among currently-live objects.
type ObjectUUID struct {
	uuid.UUID
}

// ServiceUUID is the client-chosen identity of a service, unique within its
// parent object.
type ServiceUUID struct {
	uuid.UUID
}

// TypeID identifies an introspectable type.
type TypeID struct {
	uuid.UUID
}

// Cookies are broker-minted 128-bit values, unique across the broker's
// lifetime. Clients never choose them.
type (
	// ObjectCookie identifies one live object.
	ObjectCookie struct {
		uuid.UUID
	}

	// ServiceCookie identifies one live service.
	ServiceCookie struct {
		uuid.UUID
	}

	// ChannelCookie identifies one channel.
	ChannelCookie struct {
		uuid.UUID
	}

	// BusListenerCookie identifies one bus listener.
	BusListenerCookie struct {
		uuid.UUID
	}
)

// NewObjectCookie mints a fresh random object cookie.
func NewObjectCookie() ObjectCookie { return ObjectCookie{uuid.New()} }

// NewServiceCookie mints a fresh random service cookie.
func NewServiceCookie() ServiceCookie { return ServiceCookie{uuid.New()} }

// NewChannelCookie mints a fresh random channel cookie.
func NewChannelCookie() ChannelCookie { return ChannelCookie{uuid.New()} }

// NewBusListenerCookie mints a fresh random bus listener cookie.
func NewBusListenerCookie() BusListenerCookie { return BusListenerCookie{uuid.New()} }

// ObjectID fully identifies a live object.
type ObjectID struct {
	UUID   ObjectUUID   `json:"uuid"`
	Cookie ObjectCookie `json:"cookie"`
}

// ServiceID fully identifies a live service.
type ServiceID struct {
	Object ObjectID      `json:"object"`
	UUID   ServiceUUID   `json:"uuid"`
	Cookie ServiceCookie `json:"cookie"`
}

// ServiceInfo describes a service at creation time.
type ServiceInfo struct {
	Version uint32 `json:"version"`

	// SubscribeAll marks the service as accepting subscribe-all-events
	// subscriptions. Meaningful on protocol 1.18 and later only.
	SubscribeAll bool `json:"subscribe_all,omitempty"`
}
