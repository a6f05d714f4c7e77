// Package ledger tracks team credit balances and committed purchases.
//
// All mutations for one team are serialized through a per-team mutex, so an
// administrative top-up can never interleave with an in-flight settlement for
// the same team. Cross-team operations proceed independently.
package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/risesports/auction-engine/internal/model"
	"github.com/risesports/auction-engine/internal/store"
)

// ErrInsufficientFunds is returned by Settle when the balance is smaller
// than the settlement amount at commit time. Because every accepted bid was
// balance-checked, hitting this denotes a consistency fault, not a normal
// rejection.
var ErrInsufficientFunds = errors.New("ledger: insufficient funds at settlement")

// Ledger exposes balance reads, the pre-acceptance reserve check, and the
// settlement debit. Funds are never reserved: rounds do not overlap and only
// the winning bid ever debits.
type Ledger struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex // teamID → serialization lock
}

// New creates a Ledger backed by the given store.
func New(st store.Store) *Ledger {
	return &Ledger{
		store: st,
		locks: make(map[string]*sync.Mutex),
	}
}

// teamLock returns the mutex serializing mutations for one team.
func (l *Ledger) teamLock(teamID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk, ok := l.locks[teamID]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[teamID] = lk
	}
	return lk
}

// Balance reads a team's current credit balance. No side effects.
func (l *Ledger) Balance(ctx context.Context, teamID string) (int64, error) {
	t, err := l.store.GetTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	return t.Credits, nil
}

// ReserveCheck reports whether amount is covered by the team's balance.
// It does not reserve anything.
func (l *Ledger) ReserveCheck(ctx context.Context, teamID string, amount int64) (bool, error) {
	balance, err := l.Balance(ctx, teamID)
	if err != nil {
		return false, err
	}
	return amount <= balance, nil
}

// Settle debits amount from the team's balance. The balance is re-checked
// atomically with the debit; on a shortfall nothing is mutated and
// ErrInsufficientFunds is returned.
func (l *Ledger) Settle(ctx context.Context, teamID string, amount int64) error {
	lk := l.teamLock(teamID)
	lk.Lock()
	defer lk.Unlock()

	ok, err := l.store.DebitTeamCredits(ctx, teamID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientFunds
	}
	return nil
}

// AddCredits applies an administrative top-up, serialized against any
// in-flight settlement for the same team.
func (l *Ledger) AddCredits(ctx context.Context, teamID string, amount int64) error {
	lk := l.teamLock(teamID)
	lk.Lock()
	defer lk.Unlock()

	return l.store.CreditTeamCredits(ctx, teamID, amount)
}

// Purchases returns the players a team has won with the prices paid.
func (l *Ledger) Purchases(ctx context.Context, teamID string) ([]model.Purchase, error) {
	return l.store.GetPurchasesByTeam(ctx, teamID)
}
