// Package auction implements the auction coordination core: the state
// machine that owns the current round, arbitrates concurrent bids, runs the
// countdown, and settles the round against the ledger.
//
// The coordinator is logically single-writer: one mutex guards the round, and
// every transition — start, bid arbitration, tick, expiry, settlement — runs
// inside it. Timer expiry takes the same mutex before leaving Active, so a
// bid racing the expiry either lands before the transition or is rejected
// with ErrRoundNotActive; there is no window in between. Events are
// published after the state mutation commits, still inside the critical
// section, so every observer sees them in commit order (the publisher is
// non-blocking).
package auction

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/risesports/auction-engine/internal/ledger"
	"github.com/risesports/auction-engine/internal/metrics"
	"github.com/risesports/auction-engine/internal/model"
	"github.com/risesports/auction-engine/internal/publish"
	"github.com/risesports/auction-engine/internal/store"
)

// State is the coordinator's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateActive
	StateSettling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateSettling:
		return "settling"
	default:
		return "unknown"
	}
}

// AntiSnipeConfig controls the optional timer reset discouraging last-second
// bids: a new highest bid landing with WindowSec or less on the clock pushes
// the countdown back up to FloorSec.
type AntiSnipeConfig struct {
	Enabled   bool
	WindowSec int
	FloorSec  int
}

// Config holds coordinator tunables.
type Config struct {
	// RoundSeconds is the countdown for each round. Defaults to 60.
	RoundSeconds int
	AntiSnipe    AntiSnipeConfig
}

// Coordinator owns the single active round. At most one round exists
// system-wide; the machine returns to Idle after every settlement.
type Coordinator struct {
	store  store.Store
	ledger *ledger.Ledger
	pub    publish.Publisher
	clock  clockwork.Clock
	cfg    Config

	mu        sync.Mutex
	state     State
	player    *model.Player
	timer     *RoundTimer
	remaining int
	bids      []model.Bid // acceptance order
	highest   *model.HighestBid
	last      model.AuctionState // snapshot of the most recently settled round
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(st store.Store, led *ledger.Ledger, pub publish.Publisher, clock clockwork.Clock, cfg Config) *Coordinator {
	if cfg.RoundSeconds <= 0 {
		cfg.RoundSeconds = 60
	}
	return &Coordinator{
		store:  st,
		ledger: led,
		pub:    pub,
		clock:  clock,
		cfg:    cfg,
	}
}

// StartAuction opens a round for the given player and starts the countdown.
// Fails with ErrAuctionInProgress when a round is live, ErrPlayerAlreadySold
// when the player has already been sold.
func (c *Coordinator) StartAuction(ctx context.Context, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrAuctionInProgress
	}

	player, err := c.store.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if player.Sold {
		return ErrPlayerAlreadySold
	}

	c.state = StateActive
	c.player = player
	c.remaining = c.cfg.RoundSeconds
	c.bids = nil
	c.highest = nil
	c.timer = NewRoundTimer(c.clock, c.cfg.RoundSeconds, c.handleTick, c.handleExpiry)
	c.timer.Start()

	slog.Info("auction started",
		"player_id", player.ID,
		"player", player.Name,
		"base_price", player.BasePrice,
		"duration_sec", c.remaining,
	)

	c.pub.PublishAuctionUpdate(c.snapshotLocked())
	return nil
}

// SubmitBid arbitrates one bid against the active round. The checks and the
// highest-bid update form a single critical section: concurrent submissions
// are linearized, so exactly one bid can hold any given "highest" slot.
// Rejections are returned to the caller only and never broadcast.
func (c *Coordinator) SubmitBid(ctx context.Context, teamID string, amount int64) (*model.Bid, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		metrics.BidsTotal.WithLabelValues("not_active").Inc()
		return nil, ErrRoundNotActive
	}

	// Monotonic-bid check: first bid must reach the base price, every later
	// bid must strictly beat the current highest.
	minAcceptable := c.player.BasePrice
	if c.highest != nil {
		minAcceptable = c.highest.Amount + 1
	}
	if amount <= 0 || amount < minAcceptable {
		metrics.BidsTotal.WithLabelValues("too_low").Inc()
		return nil, ErrBidTooLow
	}

	team, err := c.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ok, err := c.ledger.ReserveCheck(ctx, teamID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.BidsTotal.WithLabelValues("insufficient_credits").Inc()
		return nil, ErrInsufficientCredits
	}

	bid := model.Bid{
		ID:        uuid.New().String(),
		PlayerID:  c.player.ID,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Amount:    amount,
		Timestamp: c.clock.Now().UTC(),
	}
	if err := c.store.InsertBid(ctx, &bid); err != nil {
		return nil, err
	}

	c.bids = append(c.bids, bid)
	c.highest = &model.HighestBid{
		TeamID:   team.ID,
		TeamName: team.Name,
		Amount:   amount,
	}

	if c.cfg.AntiSnipe.Enabled && c.remaining <= c.cfg.AntiSnipe.WindowSec {
		c.timer.ExtendToFloor(c.cfg.AntiSnipe.FloorSec)
		c.remaining = c.timer.Remaining()
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	slog.Info("bid accepted",
		"player_id", c.player.ID,
		"team", team.Name,
		"amount", amount,
		"time_remaining", c.remaining,
	)

	c.pub.PublishNewBid(bid)
	c.pub.PublishAuctionUpdate(c.snapshotLocked())
	return &bid, nil
}

// ForceStop ends the active round immediately and settles it exactly as a
// natural expiry would. Administrative override.
func (c *Coordinator) ForceStop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrRoundNotActive
	}
	c.timer.Cancel()
	c.settleLocked(ctx)
	return nil
}

// Snapshot returns a consistent view of the current round, or the last
// settled round (Active false) when the coordinator is idle.
func (c *Coordinator) Snapshot() model.AuctionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActive {
		return c.snapshotLocked()
	}
	return c.last
}

// State returns the coordinator's lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) snapshotLocked() model.AuctionState {
	return model.AuctionState{
		Active:        c.state == StateActive,
		CurrentPlayer: c.player,
		TimeRemaining: c.remaining,
		HighestBid:    c.highest,
	}
}

// handleTick runs once per elapsed second while the round is live.
func (c *Coordinator) handleTick(int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return
	}
	// Re-read under the round lock: an anti-snipe extension can land between
	// the timer firing and this callback acquiring the lock, making the
	// callback argument stale.
	c.remaining = c.timer.Remaining()
	c.pub.PublishAuctionUpdate(c.snapshotLocked())
}

// handleExpiry fires when the countdown reaches zero. The Active → Settling
// transition happens under the round mutex, closing the bid-after-expiry
// window.
func (c *Coordinator) handleExpiry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked(context.Background())
}

// settleLocked finalizes the round: ledger debit and sale for a winning bid,
// no-op for a bidless round. Requires c.mu held and state Active; calling it
// again after settlement has no effect, which makes expiry handling
// idempotent. Settlement is attempted exactly once — an InsufficientFunds
// here means a balance changed out from under an accepted bid, which is an
// invariant violation surfaced to operators, never retried.
func (c *Coordinator) settleLocked(ctx context.Context) {
	if c.state != StateActive {
		return
	}
	c.state = StateSettling
	c.remaining = 0

	player := c.player
	highest := c.highest

	switch {
	case highest == nil:
		metrics.RoundsTotal.WithLabelValues("unsold").Inc()
		slog.Info("round settled unsold", "player_id", player.ID, "player", player.Name)

	default:
		err := c.ledger.Settle(ctx, highest.TeamID, highest.Amount)
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			metrics.SettlementFailures.Inc()
			metrics.RoundsTotal.WithLabelValues("failed").Inc()
			slog.Error("settlement failed: balance below accepted bid at commit",
				"player_id", player.ID,
				"team", highest.TeamID,
				"amount", highest.Amount,
			)

		case err != nil:
			metrics.RoundsTotal.WithLabelValues("failed").Inc()
			slog.Error("settlement error", "player_id", player.ID, "err", err)

		default:
			if err := c.store.MarkPlayerSold(ctx, player.ID, highest.TeamID, highest.Amount); err != nil {
				// Debit landed but the sale record did not; refund to keep
				// credit conservation intact and flag the round.
				if cerr := c.ledger.AddCredits(ctx, highest.TeamID, highest.Amount); cerr != nil {
					slog.Error("refund after failed sale record also failed",
						"player_id", player.ID, "team", highest.TeamID, "err", cerr)
				}
				metrics.RoundsTotal.WithLabelValues("failed").Inc()
				slog.Error("settlement error: recording sale failed", "player_id", player.ID, "err", err)
			} else {
				winner := highest.TeamID
				price := highest.Amount
				player.Sold = true
				player.WinnerID = &winner
				player.FinalPrice = &price
				metrics.RoundsTotal.WithLabelValues("sold").Inc()
				slog.Info("round settled",
					"player_id", player.ID,
					"player", player.Name,
					"winner", highest.TeamName,
					"price", price,
				)
			}
		}
	}

	c.state = StateIdle
	c.timer = nil
	c.last = model.AuctionState{
		Active:        false,
		CurrentPlayer: player,
		TimeRemaining: 0,
		HighestBid:    highest,
	}
	c.pub.PublishAuctionUpdate(c.last)
}
