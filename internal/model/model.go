// Package model defines the core domain types shared across the auction engine.
// All monetary amounts are integer credits — the currency has no fractional unit.
package model

import (
	"time"
)

// Player is an auction lot. Catalog management creates players; only the
// auction coordinator mutates one, at settlement. Once Sold is true the
// record is immutable.
type Player struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Role       string    `json:"role" db:"role"` // e.g. Top, Jungle, Mid, ADC, Support
	BasePrice  int64     `json:"basePrice" db:"base_price"`
	Sold       bool      `json:"sold" db:"sold"`
	WinnerID   *string   `json:"winnerId,omitempty" db:"winner_id"`
	FinalPrice *int64    `json:"finalPrice,omitempty" db:"final_price"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Team is a bidding party with a credit balance. Credits are mutated only
// through ledger operations and never go below zero.
type Team struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Credits   int64     `json:"credits" db:"credits"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Bid is an immutable record of an accepted bid. Rejected bids are never
// persisted; the submitter alone sees the rejection reason.
type Bid struct {
	ID        string    `json:"id" db:"id"`
	PlayerID  string    `json:"playerId" db:"player_id"`
	TeamID    string    `json:"team" db:"team_id"`
	TeamName  string    `json:"teamName" db:"team_name"`
	Amount    int64     `json:"amount" db:"amount"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// HighestBid is the denormalized leader of the active round, shaped for the
// auction_update payload.
type HighestBid struct {
	TeamID   string `json:"team"`
	TeamName string `json:"teamName"`
	Amount   int64  `json:"amount"`
}

// AuctionState is the wire snapshot broadcast as auction_update and returned
// from GET /api/auction. When Active is false CurrentPlayer and HighestBid
// describe the just-settled round until the next one starts.
type AuctionState struct {
	Active        bool        `json:"active"`
	CurrentPlayer *Player     `json:"currentPlayer"`
	TimeRemaining int         `json:"timeRemaining"`
	HighestBid    *HighestBid `json:"highestBid"`
}

// Purchase is a team's view of one won player.
type Purchase struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Role       string `json:"role"`
	Price      int64  `json:"price"`
}
