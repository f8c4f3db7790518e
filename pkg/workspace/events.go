package workspace

// Event is the closed set of workspace change notifications. Consumers
// dispatch with a type switch over the variants below.
type Event interface {
	isEvent()
}

// BlockCreateEvent fires when a block is created, including via paste.
type BlockCreateEvent struct {
	BlockID   string
	BlockType string
}

// BlockChangeEvent fires when a block's fields or connections change.
type BlockChangeEvent struct {
	BlockID string
}

// FinishedLoadingEvent fires once after a bulk load or paste completes.
type FinishedLoadingEvent struct{}

func (BlockCreateEvent) isEvent()     {}
func (BlockChangeEvent) isEvent()     {}
func (FinishedLoadingEvent) isEvent() {}

// Listener receives workspace events while notifications are enabled.
type Listener func(event Event)
