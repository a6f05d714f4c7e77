package publish

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/risesports/auction-engine/internal/model"
)

// NATS subjects for committed auction events. External consumers (a separate
// broadcast fleet, archival workers) subscribe to these.
const (
	SubjectAuctionUpdates = "auction.updates"
	SubjectAuctionBids    = "auction.bids"
)

// NATSPublisher mirrors committed events onto NATS subjects, best effort.
// Publishes are buffered client-side by the nats connection and ordered per
// connection, so subscribers see commit order.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher wraps an established NATS connection.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// PublishAuctionUpdate implements Publisher.
func (p *NATSPublisher) PublishAuctionUpdate(state model.AuctionState) {
	p.publish(SubjectAuctionUpdates, Event{Type: TypeAuctionUpdate, Data: state})
}

// PublishNewBid implements Publisher.
func (p *NATSPublisher) PublishNewBid(bid model.Bid) {
	p.publish(SubjectAuctionBids, Event{Type: TypeNewBid, Data: bid})
}

func (p *NATSPublisher) publish(subject string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		// Best effort: the in-process hub is the primary delivery path.
		slog.Warn("nats publish failed", "subject", subject, "err", err)
	}
}
