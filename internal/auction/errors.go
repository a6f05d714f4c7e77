package auction

import "errors"

// Validation failures are returned to the submitting client only; they never
// mutate state and are never broadcast.
var (
	// ErrRoundNotActive is returned for bids and stops outside an active round.
	ErrRoundNotActive = errors.New("auction: no active round")

	// ErrBidTooLow is returned when a bid does not beat the current highest
	// bid (or does not reach the base price for the first bid).
	ErrBidTooLow = errors.New("auction: bid too low")

	// ErrInsufficientCredits is returned when a bid exceeds the team's balance.
	ErrInsufficientCredits = errors.New("auction: insufficient credits")

	// ErrPlayerAlreadySold is returned when starting an auction for a sold player.
	ErrPlayerAlreadySold = errors.New("auction: player already sold")

	// ErrAuctionInProgress is returned when starting an auction while a round
	// is already live.
	ErrAuctionInProgress = errors.New("auction: another round is in progress")
)
