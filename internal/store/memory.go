package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/risesports/auction-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]*model.Player
	teams   map[string]*model.Team
	bids    []model.Bid
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players: make(map[string]*model.Player),
		teams:   make(map[string]*model.Team),
	}
}

func (s *MemoryStore) CreatePlayer(_ context.Context, p *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[p.ID]; exists {
		return fmt.Errorf("player %s already exists", p.ID)
	}

	// Store a copy to avoid external mutation.
	copy := *p
	s.players[p.ID] = &copy
	return nil
}

func (s *MemoryStore) GetPlayer(_ context.Context, id string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	copy := *p
	return &copy, nil
}

func (s *MemoryStore) ListPlayers(_ context.Context) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].CreatedAt.After(players[j].CreatedAt)
	})
	return players, nil
}

func (s *MemoryStore) MarkPlayerSold(_ context.Context, playerID, winnerID string, finalPrice int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	if p.Sold {
		return fmt.Errorf("player %s already sold", playerID)
	}
	p.Sold = true
	p.WinnerID = &winnerID
	p.FinalPrice = &finalPrice
	return nil
}

func (s *MemoryStore) CreateTeam(_ context.Context, t *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.teams[t.ID]; exists {
		return fmt.Errorf("team %s already exists", t.ID)
	}
	copy := *t
	s.teams[t.ID] = &copy
	return nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id string) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	copy := *t
	return &copy, nil
}

func (s *MemoryStore) ListTeams(_ context.Context) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, *t)
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].CreatedAt.After(teams[j].CreatedAt)
	})
	return teams, nil
}

func (s *MemoryStore) DebitTeamCredits(_ context.Context, teamID string, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[teamID]
	if !ok {
		return false, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	if t.Credits < amount {
		return false, nil
	}
	t.Credits -= amount
	return true, nil
}

func (s *MemoryStore) CreditTeamCredits(_ context.Context, teamID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	t.Credits += amount
	return nil
}

func (s *MemoryStore) InsertBid(_ context.Context, b *model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bids = append(s.bids, *b)
	return nil
}

func (s *MemoryStore) GetBidsByPlayer(_ context.Context, playerID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Bid
	// Append-only log is in acceptance order; walk backwards for
	// most-recent-first.
	for i := len(s.bids) - 1; i >= 0; i-- {
		if s.bids[i].PlayerID == playerID {
			result = append(result, s.bids[i])
		}
	}
	return result, nil
}

// GetPurchasesByTeam derives a team's won players from the sold flags on the
// player catalog — there is no separate purchases table to drift out of sync.
func (s *MemoryStore) GetPurchasesByTeam(_ context.Context, teamID string) ([]model.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var purchases []model.Purchase
	for _, p := range s.players {
		if p.Sold && p.WinnerID != nil && *p.WinnerID == teamID && p.FinalPrice != nil {
			purchases = append(purchases, model.Purchase{
				PlayerID:   p.ID,
				PlayerName: p.Name,
				Role:       p.Role,
				Price:      *p.FinalPrice,
			})
		}
	}
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].PlayerName < purchases[j].PlayerName
	})
	return purchases, nil
}
