package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

// object is the registry entry of one object.
type object struct {
	conn     connID
	services map[proto.ServiceCookie]struct{}
}

func newObject(conn connID) *object {
	return &object{conn: conn, services: make(map[proto.ServiceCookie]struct{})}
}

func (o *object) addService(cookie proto.ServiceCookie)    { o.services[cookie] = struct{}{} }
func (o *object) removeService(cookie proto.ServiceCookie) { delete(o.services, cookie) }

// svcKey addresses a service by its parent object UUID and its own UUID.
type svcKey struct {
	object  proto.ObjectUUID
	service proto.ServiceUUID
}

// svcEntry is the cookie-indexed view of a service.
type svcEntry struct {
	id   proto.ServiceID
	info proto.ServiceInfo
}

// service is the registry entry of one service: its event subscribers, its
// subscribe-all subscribers, its destruction watchers and its in-flight
// calls (by broker-minted serial).
type service struct {
	// events maps event id to subscribers. The bool marks a notifying
	// subscriber: one whose subscription was announced to the owner and
	// must be withdrawn when it goes away.
	events map[uint32]map[connID]bool

	allEvents map[connID]struct{}
	watchers  map[connID]struct{}
	calls     map[uint32]struct{}
}

func newService() *service {
	return &service{
		events:    make(map[uint32]map[connID]bool),
		allEvents: make(map[connID]struct{}),
		watchers:  make(map[connID]struct{}),
		calls:     make(map[uint32]struct{}),
	}
}

// subscribeEvent adds a subscriber. notifyOwner marks the subscription as
// owner-visible; the return value reports whether the owner must be told
// now, which is the case for the first notifying subscriber of an event
// while no subscribe-all subscription is in effect.
func (s *service) subscribeEvent(event uint32, id connID, notifyOwner bool) bool {
	subs, ok := s.events[event]
	if !ok {
		subs = make(map[connID]bool)
		s.events[event] = subs
	}

	first := notifyOwner && !s.hasNotifying(event)
	subs[id] = subs[id] || notifyOwner

	return first && len(s.allEvents) == 0
}

func (s *service) hasNotifying(event uint32) bool {
	for _, notifying := range s.events[event] {
		if notifying {
			return true
		}
	}
	return false
}

// unsubscribeEvent removes a subscriber. It reports whether the owner must
// be told that the last notifying subscriber of the event is gone.
func (s *service) unsubscribeEvent(event uint32, id connID) bool {
	subs, ok := s.events[event]
	if !ok {
		return false
	}

	notifying, present := subs[id]
	if !present {
		return false
	}

	delete(subs, id)
	if len(subs) == 0 {
		delete(s.events, event)
	}

	return notifying && !s.hasNotifying(event)
}

// subscribeAllEvents reports whether the owner must be told about the first
// subscribe-all subscriber.
func (s *service) subscribeAllEvents(id connID) bool {
	first := len(s.allEvents) == 0
	s.allEvents[id] = struct{}{}
	return first
}

// unsubscribeAllEvents reports whether the owner must be told that the last
// subscribe-all subscriber is gone.
func (s *service) unsubscribeAllEvents(id connID) bool {
	if _, ok := s.allEvents[id]; !ok {
		return false
	}
	delete(s.allEvents, id)
	return len(s.allEvents) == 0
}

func (s *service) watch(id connID)   { s.watchers[id] = struct{}{} }
func (s *service) unwatch(id connID) { delete(s.watchers, id) }

func (s *service) addCall(serial uint32)    { s.calls[serial] = struct{}{} }
func (s *service) removeCall(serial uint32) { delete(s.calls, serial) }

// subscribedConns returns every connection holding any kind of subscription
// on the service, deduplicated.
func (s *service) subscribedConns() map[connID]struct{} {
	conns := make(map[connID]struct{})
	for _, subs := range s.events {
		for id := range subs {
			conns[id] = struct{}{}
		}
	}
	for id := range s.allEvents {
		conns[id] = struct{}{}
	}
	for id := range s.watchers {
		conns[id] = struct{}{}
	}
	return conns
}

// pendingCall is one in-flight function call, keyed in the broker's serial
// map by the broker-minted (callee-side) serial.
type pendingCall struct {
	callerSerial uint32
	caller       connID
	calleeObj    proto.ObjectUUID
	calleeSvc    proto.ServiceUUID
	aborted      bool
}
