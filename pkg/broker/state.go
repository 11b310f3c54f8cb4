package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

// work queues the side effects of one dispatcher step. The broker drains it
// after every event, in a fixed priority order: connection removals first
// (so nothing is sent to connections known to be dead), then notifications,
// then bus events with "add" before "remove", then call aborts.
type work struct {
	shutdownNow  bool
	shutdownIdle bool

	removeConns          []removeConn
	unsubscribeEvents    []unsubscribeNotify
	unsubscribeAllEvents []unsubscribeAllNotify
	servicesDestroyed    []serviceDestroyedNotify
	removeCalls          []removeCall
	createObjects        []proto.ObjectID
	createServices       []proto.ServiceID
	destroyServices      []proto.ServiceID
	destroyObjects       []proto.ObjectID
	abortCalls           []abortCall
}

type removeConn struct {
	id           connID
	sendShutdown bool
}

type unsubscribeNotify struct {
	owner connID
	svc   proto.ServiceCookie
	event uint32
}

type unsubscribeAllNotify struct {
	owner connID
	svc   proto.ServiceCookie
}

type serviceDestroyedNotify struct {
	conn connID
	svc  proto.ServiceCookie
}

type removeCall struct {
	serial uint32
	caller connID
	result proto.CallFunctionResult
}

type abortCall struct {
	calleeSerial uint32
	callee       connID
}

func (w *work) pushRemoveConn(id connID, sendShutdown bool) {
	w.removeConns = append(w.removeConns, removeConn{id: id, sendShutdown: sendShutdown})
}

func (w *work) pushUnsubscribeEvent(owner connID, svc proto.ServiceCookie, event uint32) {
	w.unsubscribeEvents = append(w.unsubscribeEvents, unsubscribeNotify{owner, svc, event})
}

func (w *work) pushUnsubscribeAllEvents(owner connID, svc proto.ServiceCookie) {
	w.unsubscribeAllEvents = append(w.unsubscribeAllEvents, unsubscribeAllNotify{owner, svc})
}

func (w *work) pushServiceDestroyed(conn connID, svc proto.ServiceCookie) {
	w.servicesDestroyed = append(w.servicesDestroyed, serviceDestroyedNotify{conn, svc})
}

func (w *work) pushRemoveCall(serial uint32, caller connID, result proto.CallFunctionResult) {
	w.removeCalls = append(w.removeCalls, removeCall{serial, caller, result})
}

func (w *work) pushCreateObject(id proto.ObjectID)   { w.createObjects = append(w.createObjects, id) }
func (w *work) pushDestroyObject(id proto.ObjectID)  { w.destroyObjects = append(w.destroyObjects, id) }
func (w *work) pushCreateService(id proto.ServiceID) { w.createServices = append(w.createServices, id) }

func (w *work) pushDestroyService(id proto.ServiceID) {
	w.destroyServices = append(w.destroyServices, id)
}

func (w *work) pushAbortCall(calleeSerial uint32, callee connID) {
	w.abortCalls = append(w.abortCalls, abortCall{calleeSerial, callee})
}

func (w *work) empty() bool {
	return len(w.removeConns) == 0 &&
		len(w.unsubscribeEvents) == 0 &&
		len(w.unsubscribeAllEvents) == 0 &&
		len(w.servicesDestroyed) == 0 &&
		len(w.removeCalls) == 0 &&
		len(w.createObjects) == 0 &&
		len(w.createServices) == 0 &&
		len(w.destroyServices) == 0 &&
		len(w.destroyObjects) == 0 &&
		len(w.abortCalls) == 0
}

func pop[T any](s *[]T) (T, bool) {
	var zero T
	n := len(*s)
	if n == 0 {
		return zero, false
	}
	v := (*s)[n-1]
	*s = (*s)[:n-1]
	return v, true
}
