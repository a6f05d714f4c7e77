package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/risesports/auction-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Credit amounts are BIGINT; the conditional debit keeps the non-negative
// balance invariant enforced at the database as well.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, p *model.Player) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO players (id, name, role, base_price, sold, winner_id, final_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Role, p.BasePrice, p.Sold, p.WinnerID, p.FinalPrice, p.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	var p model.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, role, base_price, sold, winner_id, final_price, created_at
		 FROM players WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Role, &p.BasePrice, &p.Sold, &p.WinnerID, &p.FinalPrice, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]model.Player, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, role, base_price, sold, winner_id, final_price, created_at
		 FROM players ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &p.BasePrice, &p.Sold,
			&p.WinnerID, &p.FinalPrice, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *PostgresStore) MarkPlayerSold(ctx context.Context, playerID, winnerID string, finalPrice int64) error {
	// The sold = FALSE guard enforces sell-once even if two settlement
	// paths ever raced.
	tag, err := s.pool.Exec(ctx,
		`UPDATE players SET sold = TRUE, winner_id = $2, final_price = $3
		 WHERE id = $1 AND sold = FALSE`,
		playerID, winnerID, finalPrice,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %s already sold or missing", playerID)
	}
	return nil
}

func (s *PostgresStore) CreateTeam(ctx context.Context, t *model.Team) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO teams (id, name, credits, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.Credits, t.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var t model.Team
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, credits, created_at FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Credits, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", id, err)
	}
	return &t, nil
}

func (s *PostgresStore) ListTeams(ctx context.Context) ([]model.Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, credits, created_at FROM teams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Credits, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *PostgresStore) DebitTeamCredits(ctx context.Context, teamID string, amount int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE teams SET credits = credits - $2 WHERE id = $1 AND credits >= $2`,
		teamID, amount,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Either the team is missing or the balance was insufficient;
		// distinguish so callers see a clean not-found.
		if _, err := s.GetTeam(ctx, teamID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) CreditTeamCredits(ctx context.Context, teamID string, amount int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE teams SET credits = credits + $2 WHERE id = $1`,
		teamID, amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) InsertBid(ctx context.Context, b *model.Bid) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bids (id, player_id, team_id, team_name, amount, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.PlayerID, b.TeamID, b.TeamName, b.Amount, b.Timestamp,
	)
	return err
}

func (s *PostgresStore) GetBidsByPlayer(ctx context.Context, playerID string) ([]model.Bid, error) {
	// seq, not timestamp: two rapid bids can land in the same clock tick and
	// acceptance order is the contract.
	rows, err := s.pool.Query(ctx,
		`SELECT id, player_id, team_id, team_name, amount, timestamp
		 FROM bids WHERE player_id = $1 ORDER BY seq DESC`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.ID, &b.PlayerID, &b.TeamID, &b.TeamName, &b.Amount, &b.Timestamp); err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (s *PostgresStore) GetPurchasesByTeam(ctx context.Context, teamID string) ([]model.Purchase, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, role, final_price
		 FROM players
		 WHERE sold = TRUE AND winner_id = $1
		 ORDER BY name`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.PlayerID, &p.PlayerName, &p.Role, &p.Price); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
