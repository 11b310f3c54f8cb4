package broker

import "github.com/aldrin-bus/aldrin/pkg/proto"

// busListener is the registry entry of one per-client life-cycle
// subscription.
type busListener struct {
	conn    connID
	filters map[proto.BusListenerFilter]struct{}
	scope   proto.BusListenerScope
	started bool
}

func newBusListener(conn connID) *busListener {
	return &busListener{
		conn:    conn,
		filters: make(map[proto.BusListenerFilter]struct{}),
	}
}

func (l *busListener) addFilter(f proto.BusListenerFilter)    { l.filters[f] = struct{}{} }
func (l *busListener) removeFilter(f proto.BusListenerFilter) { delete(l.filters, f) }

func (l *busListener) clearFilters() {
	l.filters = make(map[proto.BusListenerFilter]struct{})
}

// start arms the listener. It fails if the listener is already started.
func (l *busListener) start(scope proto.BusListenerScope) bool {
	if l.started {
		return false
	}
	l.started = true
	l.scope = scope
	return true
}

// stop disarms the listener. It fails if the listener is not started.
func (l *busListener) stop() bool {
	if !l.started {
		return false
	}
	l.started = false
	return true
}

func (l *busListener) matchesObject(id proto.ObjectID) bool {
	for f := range l.filters {
		if f.MatchesObject(id) {
			return true
		}
	}
	return false
}

func (l *busListener) matchesService(id proto.ServiceID) bool {
	for f := range l.filters {
		if f.MatchesService(id) {
			return true
		}
	}
	return false
}

// matchesNewEvent reports whether a started listener observes a new
// life-cycle event.
func (l *busListener) matchesNewEvent(ev proto.BusEvent) bool {
	if !l.started || !l.scope.IncludesNew() {
		return false
	}
	for f := range l.filters {
		if f.MatchesEvent(ev) {
			return true
		}
	}
	return false
}
