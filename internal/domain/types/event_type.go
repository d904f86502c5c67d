package types

type EventType string

func (e EventType) String() string {
	return string(e)
}

// Routing keys on the dispatch topic exchange.
const (
	EventTripAssigned        EventType = "trip.assigned"
	EventDriverStatusOffline EventType = "driver.status.offline"
)

const DispatchExchange = "dispatch_topic"
