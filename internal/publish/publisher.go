// Package publish fans committed auction events out to observers: connected
// WebSocket clients and, when configured, NATS subjects for external
// broadcast and archival consumers.
//
// The coordinator invokes a Publisher synchronously after each committed
// state change while still inside its round critical section; every sink is
// therefore handed events in commit order, and every sink must be
// non-blocking (queue and drop, never wait on client I/O).
package publish

import (
	"github.com/risesports/auction-engine/internal/model"
)

// Event type names on the wire.
const (
	TypeAuctionUpdate = "auction_update"
	TypeNewBid        = "new_bid"
)

// Event is the envelope sent to every observer.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher receives committed state changes from the coordinator.
type Publisher interface {
	// PublishAuctionUpdate broadcasts the round snapshot after any state
	// transition (start, accepted bid, tick, settlement).
	PublishAuctionUpdate(state model.AuctionState)

	// PublishNewBid broadcasts an accepted bid.
	PublishNewBid(bid model.Bid)
}

// Fanout forwards each event to every configured publisher, in order.
type Fanout []Publisher

func (f Fanout) PublishAuctionUpdate(state model.AuctionState) {
	for _, p := range f {
		p.PublishAuctionUpdate(state)
	}
}

func (f Fanout) PublishNewBid(bid model.Bid) {
	for _, p := range f {
		p.PublishNewBid(bid)
	}
}
