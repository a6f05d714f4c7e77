// Package store defines the persistence interface for the auction engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/risesports/auction-engine/internal/model"
)

// ErrNotFound is returned when a player or team does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Player catalog ---

	// CreatePlayer persists a new player lot.
	CreatePlayer(ctx context.Context, p *model.Player) error

	// GetPlayer retrieves a player by ID.
	GetPlayer(ctx context.Context, id string) (*model.Player, error)

	// ListPlayers returns all players, newest first.
	ListPlayers(ctx context.Context) ([]model.Player, error)

	// MarkPlayerSold finalizes a sale: sets sold, winner, and final price.
	// Fails if the player is already sold (sell-once invariant).
	MarkPlayerSold(ctx context.Context, playerID, winnerID string, finalPrice int64) error

	// --- Teams ---

	// CreateTeam persists a new team.
	CreateTeam(ctx context.Context, t *model.Team) error

	// GetTeam retrieves a team by ID.
	GetTeam(ctx context.Context, id string) (*model.Team, error)

	// ListTeams returns all teams, newest first.
	ListTeams(ctx context.Context) ([]model.Team, error)

	// DebitTeamCredits atomically subtracts amount from a team's balance.
	// Returns false (without mutation) when the balance is smaller than
	// amount, so credits can never go negative.
	DebitTeamCredits(ctx context.Context, teamID string, amount int64) (bool, error)

	// CreditTeamCredits atomically adds amount to a team's balance.
	CreditTeamCredits(ctx context.Context, teamID string, amount int64) error

	// --- Immutable bid log ---

	// InsertBid appends an accepted bid. Bids are never updated or deleted.
	InsertBid(ctx context.Context, b *model.Bid) error

	// GetBidsByPlayer returns accepted bids for a player in reverse
	// acceptance order (newest first).
	GetBidsByPlayer(ctx context.Context, playerID string) ([]model.Bid, error)

	// --- Derived views ---

	// GetPurchasesByTeam returns the players a team has won with prices paid.
	GetPurchasesByTeam(ctx context.Context, teamID string) ([]model.Purchase, error)
}
