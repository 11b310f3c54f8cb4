package proto

// BusEventKind discriminates bus events.
type BusEventKind uint8

// Bus event kinds.
const (
	BusEventObjectCreated BusEventKind = iota
	BusEventObjectDestroyed
	BusEventServiceCreated
	BusEventServiceDestroyed
)

// BusEvent is an object or service life-cycle event. Service is meaningful
// for the service kinds only.
type BusEvent struct {
	Kind    BusEventKind `json:"kind"`
	Object  ObjectID     `json:"object"`
	Service *ServiceID   `json:"service,omitempty"`
}

// ObjectCreatedEvent builds an object-created bus event.
func ObjectCreatedEvent(id ObjectID) BusEvent {
	return BusEvent{Kind: BusEventObjectCreated, Object: id}
}

// ObjectDestroyedEvent builds an object-destroyed bus event.
func ObjectDestroyedEvent(id ObjectID) BusEvent {
	return BusEvent{Kind: BusEventObjectDestroyed, Object: id}
}

// ServiceCreatedEvent builds a service-created bus event.
func ServiceCreatedEvent(id ServiceID) BusEvent {
	svc := id
	return BusEvent{Kind: BusEventServiceCreated, Object: id.Object, Service: &svc}
}

// ServiceDestroyedEvent builds a service-destroyed bus event.
func ServiceDestroyedEvent(id ServiceID) BusEvent {
	svc := id
	return BusEvent{Kind: BusEventServiceDestroyed, Object: id.Object, Service: &svc}
}

// BusListenerScope selects which entities a started bus listener observes.
type BusListenerScope uint8

// Bus listener scopes.
const (
	ScopeCurrent BusListenerScope = iota
	ScopeNew
	ScopeAll
)

// IncludesCurrent reports whether the scope covers already-existing entities.
func (s BusListenerScope) IncludesCurrent() bool { return s == ScopeCurrent || s == ScopeAll }

// IncludesNew reports whether the scope covers future entities.
func (s BusListenerScope) IncludesNew() bool { return s == ScopeNew || s == ScopeAll }

// BusListenerFilterKind discriminates bus listener filters.
type BusListenerFilterKind uint8

// Bus listener filter kinds.
const (
	FilterAnyObject BusListenerFilterKind = iota
	FilterSpecificObject
	FilterAnyObjectAnyService
	FilterSpecificObjectAnyService
	FilterAnyObjectSpecificService
	FilterSpecificObjectSpecificService
)

// BusListenerFilter matches objects or services by UUID. The zero UUIDs are
// ignored for the "any" kinds, which makes the struct usable as a map key.
type BusListenerFilter struct {
	Kind    BusListenerFilterKind `json:"kind"`
	Object  ObjectUUID            `json:"object,omitempty"`
	Service ServiceUUID           `json:"service,omitempty"`
}

// AnyObjectFilter matches every object.
func AnyObjectFilter() BusListenerFilter {
	return BusListenerFilter{Kind: FilterAnyObject}
}

// ObjectFilter matches one object by UUID.
func ObjectFilter(object ObjectUUID) BusListenerFilter {
	return BusListenerFilter{Kind: FilterSpecificObject, Object: object}
}

// AnyServiceFilter matches every service of every object.
func AnyServiceFilter() BusListenerFilter {
	return BusListenerFilter{Kind: FilterAnyObjectAnyService}
}

// ObjectServicesFilter matches every service of one object.
func ObjectServicesFilter(object ObjectUUID) BusListenerFilter {
	return BusListenerFilter{Kind: FilterSpecificObjectAnyService, Object: object}
}

// ServiceFilter matches one service UUID on any object.
func ServiceFilter(service ServiceUUID) BusListenerFilter {
	return BusListenerFilter{Kind: FilterAnyObjectSpecificService, Service: service}
}

// ObjectServiceFilter matches one service UUID on one object.
func ObjectServiceFilter(object ObjectUUID, service ServiceUUID) BusListenerFilter {
	return BusListenerFilter{Kind: FilterSpecificObjectSpecificService, Object: object, Service: service}
}

// MatchesObject reports whether the filter matches an object.
func (f BusListenerFilter) MatchesObject(id ObjectID) bool {
	switch f.Kind {
	case FilterAnyObject:
		return true
	case FilterSpecificObject:
		return id.UUID == f.Object
	default:
		return false
	}
}

// MatchesService reports whether the filter matches a service.
func (f BusListenerFilter) MatchesService(id ServiceID) bool {
	switch f.Kind {
	case FilterAnyObjectAnyService:
		return true
	case FilterSpecificObjectAnyService:
		return id.Object.UUID == f.Object
	case FilterAnyObjectSpecificService:
		return id.UUID == f.Service
	case FilterSpecificObjectSpecificService:
		return id.Object.UUID == f.Object && id.UUID == f.Service
	default:
		return false
	}
}

// MatchesEvent reports whether the filter matches a bus event.
func (f BusListenerFilter) MatchesEvent(ev BusEvent) bool {
	switch ev.Kind {
	case BusEventObjectCreated, BusEventObjectDestroyed:
		return f.MatchesObject(ev.Object)
	default:
		return ev.Service != nil && f.MatchesService(*ev.Service)
	}
}
