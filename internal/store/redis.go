package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/risesports/auction-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the hot catalog reads (players and teams, polled by every
// connected client). Writes go to the primary store and invalidate the
// cache; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	if err := s.primary.CreatePlayer(ctx, p); err != nil {
		return err
	}
	s.cachePlayer(ctx, p)
	s.rdb.Del(ctx, playersListKey())
	return nil
}

func (s *CachedStore) MarkPlayerSold(ctx context.Context, playerID, winnerID string, finalPrice int64) error {
	if err := s.primary.MarkPlayerSold(ctx, playerID, winnerID, finalPrice); err != nil {
		return err
	}
	// Invalidate; next read re-populates with the sold record.
	s.rdb.Del(ctx, playerKey(playerID), playersListKey())
	return nil
}

func (s *CachedStore) CreateTeam(ctx context.Context, t *model.Team) error {
	if err := s.primary.CreateTeam(ctx, t); err != nil {
		return err
	}
	s.cacheTeam(ctx, t)
	return nil
}

func (s *CachedStore) DebitTeamCredits(ctx context.Context, teamID string, amount int64) (bool, error) {
	ok, err := s.primary.DebitTeamCredits(ctx, teamID, amount)
	if err != nil || !ok {
		return ok, err
	}
	s.rdb.Del(ctx, teamKey(teamID))
	return true, nil
}

func (s *CachedStore) CreditTeamCredits(ctx context.Context, teamID string, amount int64) error {
	if err := s.primary.CreditTeamCredits(ctx, teamID, amount); err != nil {
		return err
	}
	s.rdb.Del(ctx, teamKey(teamID))
	return nil
}

func (s *CachedStore) InsertBid(ctx context.Context, b *model.Bid) error {
	return s.primary.InsertBid(ctx, b)
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	data, err := s.rdb.Get(ctx, playerKey(id)).Bytes()
	if err == nil {
		var p model.Player
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	// Cache miss: read from primary.
	p, err := s.primary.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cachePlayer(ctx, p)
	return p, nil
}

func (s *CachedStore) ListPlayers(ctx context.Context) ([]model.Player, error) {
	data, err := s.rdb.Get(ctx, playersListKey()).Bytes()
	if err == nil {
		var players []model.Player
		if json.Unmarshal(data, &players) == nil {
			return players, nil
		}
	}

	players, err := s.primary.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(players); err == nil {
		s.rdb.Set(ctx, playersListKey(), data, s.ttl)
	}
	return players, nil
}

func (s *CachedStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	data, err := s.rdb.Get(ctx, teamKey(id)).Bytes()
	if err == nil {
		var t model.Team
		if json.Unmarshal(data, &t) == nil {
			return &t, nil
		}
	}

	t, err := s.primary.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheTeam(ctx, t)
	return t, nil
}

// --- Passthrough (not cached) ---

// ListTeams is not cached: balances change on every settlement and top-up,
// and the admin view wants them fresh.
func (s *CachedStore) ListTeams(ctx context.Context) ([]model.Team, error) {
	return s.primary.ListTeams(ctx)
}

func (s *CachedStore) GetBidsByPlayer(ctx context.Context, playerID string) ([]model.Bid, error) {
	return s.primary.GetBidsByPlayer(ctx, playerID)
}

func (s *CachedStore) GetPurchasesByTeam(ctx context.Context, teamID string) ([]model.Purchase, error) {
	return s.primary.GetPurchasesByTeam(ctx, teamID)
}

// --- Cache helpers ---

func (s *CachedStore) cachePlayer(ctx context.Context, p *model.Player) {
	if data, err := json.Marshal(p); err == nil {
		s.rdb.Set(ctx, playerKey(p.ID), data, s.ttl)
	}
}

func (s *CachedStore) cacheTeam(ctx context.Context, t *model.Team) {
	if data, err := json.Marshal(t); err == nil {
		s.rdb.Set(ctx, teamKey(t.ID), data, s.ttl)
	}
}

func playerKey(id string) string { return fmt.Sprintf("player:%s", id) }
func teamKey(id string) string   { return fmt.Sprintf("team:%s", id) }
func playersListKey() string     { return "players:all" }
