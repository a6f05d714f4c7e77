package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/risesports/auction-engine/internal/ledger"
	"github.com/risesports/auction-engine/internal/model"
	"github.com/risesports/auction-engine/internal/store"
)

func newLedger(t *testing.T) (*ledger.Ledger, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	return ledger.New(ms), ms
}

func seedTeam(t *testing.T, ms *store.MemoryStore, id string, credits int64) {
	t.Helper()
	err := ms.CreateTeam(context.Background(), &model.Team{
		ID:        id,
		Name:      "Team " + id,
		Credits:   credits,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to seed team: %v", err)
	}
}

func TestBalance(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 500)

	got, err := led.Balance(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if got != 500 {
		t.Errorf("balance = %d, want 500", got)
	}

	if _, err := led.Balance(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown team error = %v, want store.ErrNotFound", err)
	}
}

func TestReserveCheck(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 500)

	cases := []struct {
		amount int64
		want   bool
	}{
		{499, true},
		{500, true}, // exact balance is spendable
		{501, false},
	}
	for _, tc := range cases {
		ok, err := led.ReserveCheck(context.Background(), "t1", tc.amount)
		if err != nil {
			t.Fatalf("ReserveCheck(%d) failed: %v", tc.amount, err)
		}
		if ok != tc.want {
			t.Errorf("ReserveCheck(%d) = %v, want %v", tc.amount, ok, tc.want)
		}
	}
}

func TestReserveCheckDoesNotReserve(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 500)

	if _, err := led.ReserveCheck(context.Background(), "t1", 400); err != nil {
		t.Fatalf("ReserveCheck failed: %v", err)
	}
	got, _ := led.Balance(context.Background(), "t1")
	if got != 500 {
		t.Errorf("balance = %d after ReserveCheck, want 500 untouched", got)
	}
}

func TestSettle(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 500)

	if err := led.Settle(context.Background(), "t1", 300); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	got, _ := led.Balance(context.Background(), "t1")
	if got != 200 {
		t.Errorf("balance = %d, want 200", got)
	}
}

func TestSettleExactBalance(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 500)

	if err := led.Settle(context.Background(), "t1", 500); err != nil {
		t.Fatalf("Settle of exact balance failed: %v", err)
	}
	got, _ := led.Balance(context.Background(), "t1")
	if got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestSettleInsufficientFunds(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 100)

	err := led.Settle(context.Background(), "t1", 150)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	// A failed settlement must not touch the balance.
	got, _ := led.Balance(context.Background(), "t1")
	if got != 100 {
		t.Errorf("balance = %d after failed settle, want 100", got)
	}
}

func TestAddCredits(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 100)

	if err := led.AddCredits(context.Background(), "t1", 250); err != nil {
		t.Fatalf("AddCredits failed: %v", err)
	}
	got, _ := led.Balance(context.Background(), "t1")
	if got != 350 {
		t.Errorf("balance = %d, want 350", got)
	}

	if err := led.AddCredits(context.Background(), "ghost", 10); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown team error = %v, want store.ErrNotFound", err)
	}
}

// Concurrent settlements against one balance must never overdraw it.
func TestConcurrentSettlementsNeverOverdraw(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 1000)

	const workers = 20
	const amount = 100 // only 10 can succeed

	var wg sync.WaitGroup
	var okCount int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := led.Settle(context.Background(), "t1", amount); err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if okCount != 10 {
		t.Errorf("successful settlements = %d, want 10", okCount)
	}
	got, _ := led.Balance(context.Background(), "t1")
	if got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

// Top-ups and settlements for one team interleave without losing updates.
func TestConcurrentMixedMutations(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 0)

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			led.AddCredits(context.Background(), "t1", 10)
		}
	}()
	var settledTotal int64
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := led.Settle(context.Background(), "t1", 5); err == nil {
				settledTotal += 5
			}
		}
	}()
	wg.Wait()

	got, _ := led.Balance(context.Background(), "t1")
	if got != 10*rounds-settledTotal {
		t.Errorf("balance = %d, want %d (credited %d, settled %d)",
			got, 10*rounds-settledTotal, int64(10*rounds), settledTotal)
	}
	if got < 0 {
		t.Errorf("balance went negative: %d", got)
	}
}

func TestPurchases(t *testing.T) {
	led, ms := newLedger(t)
	seedTeam(t, ms, "t1", 1000)

	for _, p := range []model.Player{
		{ID: "p1", Name: "Faker", Role: "Mid", BasePrice: 100},
		{ID: "p2", Name: "Keria", Role: "Support", BasePrice: 80},
		{ID: "p3", Name: "Zeus", Role: "Top", BasePrice: 90},
	} {
		p := p
		p.CreatedAt = time.Now().UTC()
		if err := ms.CreatePlayer(context.Background(), &p); err != nil {
			t.Fatalf("failed to seed player: %v", err)
		}
	}
	if err := ms.MarkPlayerSold(context.Background(), "p1", "t1", 150); err != nil {
		t.Fatalf("MarkPlayerSold failed: %v", err)
	}
	if err := ms.MarkPlayerSold(context.Background(), "p2", "t1", 120); err != nil {
		t.Fatalf("MarkPlayerSold failed: %v", err)
	}

	purchases, err := led.Purchases(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Purchases failed: %v", err)
	}
	if len(purchases) != 2 {
		t.Fatalf("got %d purchases, want 2", len(purchases))
	}
	var total int64
	for _, p := range purchases {
		total += p.Price
	}
	if total != 270 {
		t.Errorf("total spent = %d, want 270", total)
	}
}
