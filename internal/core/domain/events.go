package domain

import "context"

const BridgeTopic = "bridge_events"

type EventType string

const (
	EventAssetLocked    EventType = "asset_locked"
	EventAssetUnlocked  EventType = "asset_unlocked"
	EventWrappedMinted  EventType = "wrapped_minted"
	EventWrappedBurned  EventType = "wrapped_burned"
	EventFeesCollected  EventType = "fees_collected"
	EventFeesWithdrawn  EventType = "fees_withdrawn"
	EventBridgePaused   EventType = "bridge_paused"
	EventBridgeActive   EventType = "bridge_active"
	EventAssetRecovered EventType = "asset_recovered"
)

type Event interface {
	Type() EventType
}

type AssetLocked struct {
	AssetID     AssetID
	Holder      Address
	Destination ChainID
}

func (e AssetLocked) Type() EventType { return EventAssetLocked }

type AssetUnlocked struct {
	AssetID   AssetID
	Recipient Address
	Source    ChainID
}

func (e AssetUnlocked) Type() EventType { return EventAssetUnlocked }

type WrappedMinted struct {
	AssetID   AssetID
	Recipient Address
	Source    ChainID
}

func (e WrappedMinted) Type() EventType { return EventWrappedMinted }

type WrappedBurned struct {
	AssetID     AssetID
	Holder      Address
	Destination ChainID
}

func (e WrappedBurned) Type() EventType { return EventWrappedBurned }

type FeesCollected struct {
	Amount     uint64
	NewBalance uint64
}

func (e FeesCollected) Type() EventType { return EventFeesCollected }

type FeesWithdrawn struct {
	Recipient Address
	Amount    uint64
}

func (e FeesWithdrawn) Type() EventType { return EventFeesWithdrawn }

type BridgePaused struct{}

func (e BridgePaused) Type() EventType { return EventBridgePaused }

type BridgeActive struct{}

func (e BridgeActive) Type() EventType { return EventBridgeActive }

type AssetRecovered struct {
	AssetID   AssetID
	Recipient Address
}

func (e AssetRecovered) Type() EventType { return EventAssetRecovered }

type EventRepository interface {
	Save(ctx context.Context, topic string, id string, events []Event) error
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topics ...string)
	Close()
}
