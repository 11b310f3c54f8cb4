package broker

import "time"

// Statistics are runtime counters of a broker. The Num* fields are live
// gauges; the remaining counters accumulate between two calls to
// Handle.TakeStatistics and reset on each call.
type Statistics struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReceived uint64 `json:"messages_received"`

	NumConnections      int    `json:"num_connections"`
	ConnectionsAdded    uint64 `json:"connections_added"`
	ConnectionsShutDown uint64 `json:"connections_shut_down"`

	NumObjects       int    `json:"num_objects"`
	ObjectsCreated   uint64 `json:"objects_created"`
	ObjectsDestroyed uint64 `json:"objects_destroyed"`

	NumServices       int    `json:"num_services"`
	ServicesCreated   uint64 `json:"services_created"`
	ServicesDestroyed uint64 `json:"services_destroyed"`

	NumFunctionCalls int    `json:"num_function_calls"`
	FunctionsCalled  uint64 `json:"functions_called"`
	FunctionsReplied uint64 `json:"functions_replied"`

	EventsReceived uint64 `json:"events_received"`
	EventsSent     uint64 `json:"events_sent"`

	NumChannels     int    `json:"num_channels"`
	ChannelsCreated uint64 `json:"channels_created"`
	ChannelsClosed  uint64 `json:"channels_closed"`
	ItemsSent       uint64 `json:"items_sent"`
	ItemsDropped    uint64 `json:"items_dropped"`

	NumBusListeners       int    `json:"num_bus_listeners"`
	BusListenersCreated   uint64 `json:"bus_listeners_created"`
	BusListenersDestroyed uint64 `json:"bus_listeners_destroyed"`
	BusListenersStarted   uint64 `json:"bus_listeners_started"`
	BusListenersStopped   uint64 `json:"bus_listeners_stopped"`
	BusEventsSent         uint64 `json:"bus_events_sent"`
}

// take returns a snapshot with the sampling window closed at now, and resets
// the window counters. Gauges carry over.
func (s *Statistics) take() Statistics {
	now := time.Now()
	res := *s
	res.End = now

	*s = Statistics{
		Start:            now,
		End:              now,
		NumConnections:   s.NumConnections,
		NumObjects:       s.NumObjects,
		NumServices:      s.NumServices,
		NumFunctionCalls: s.NumFunctionCalls,
		NumChannels:      s.NumChannels,
		NumBusListeners:  s.NumBusListeners,
	}

	return res
}
