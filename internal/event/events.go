package event

type Type string

const (
	ListingCreatedEvent   Type = "ListingCreatedEvent"
	ListingSoldEvent      Type = "ListingSoldEvent"
	ListingCancelledEvent Type = "ListingCancelledEvent"
	ItemMintedEvent       Type = "ItemMintedEvent"
)

// Publisher is satisfied by Manager; components take it so tests can record events.
type Publisher interface {
	EmitEvent(eventType Type, msg interface{})
}
