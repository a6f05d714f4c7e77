// Package api provides the HTTP boundary for the auction engine: catalog
// management, bid submission, auction control, and query endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/risesports/auction-engine/internal/auction"
	"github.com/risesports/auction-engine/internal/ledger"
	"github.com/risesports/auction-engine/internal/model"
	"github.com/risesports/auction-engine/internal/store"
)

// Service wires the HTTP handlers to the auction core.
type Service struct {
	store       store.Store
	ledger      *ledger.Ledger
	coordinator *auction.Coordinator
}

// NewService creates the HTTP service.
func NewService(st store.Store, led *ledger.Ledger, coord *auction.Coordinator) *Service {
	return &Service{
		store:       st,
		ledger:      led,
		coordinator: coord,
	}
}

// Routes mounts all API endpoints on the given router.
func (s *Service) Routes(r chi.Router) {
	r.Get("/auction", s.GetAuctionState)
	r.Post("/auction/start", s.StartAuction)
	r.Post("/auction/stop", s.StopAuction)

	r.Get("/bids", s.GetBidHistory)
	r.Post("/bids", s.SubmitBid)

	r.Get("/players", s.ListPlayers)
	r.Post("/players", s.CreatePlayer)

	r.Get("/teams", s.ListTeams)
	r.Post("/teams", s.CreateTeam)
	r.Post("/teams/credits", s.AddCredits)
}

// --- Request/Response types ---

// StartAuctionRequest is the JSON body for POST /api/auction/start.
type StartAuctionRequest struct {
	PlayerID string `json:"playerId"`
}

// BidRequest is the JSON body for POST /api/bids.
type BidRequest struct {
	TeamID string `json:"teamId"`
	Amount int64  `json:"amount"`
}

// CreatePlayerRequest is the JSON body for POST /api/players.
type CreatePlayerRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	BasePrice int64  `json:"basePrice"`
}

// CreateTeamRequest is the JSON body for POST /api/teams.
type CreateTeamRequest struct {
	Name    string `json:"name"`
	Credits int64  `json:"credits"`
}

// AddCreditsRequest is the JSON body for POST /api/teams/credits.
type AddCreditsRequest struct {
	TeamID string `json:"teamId"`
	Amount int64  `json:"amount"`
}

// TeamView is a team with its won players, as rendered by the admin page.
type TeamView struct {
	model.Team
	Players []model.Purchase `json:"players"`
}

// --- Auction control ---

// GetAuctionState handles GET /api/auction.
func (s *Service) GetAuctionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

// StartAuction handles POST /api/auction/start.
func (s *Service) StartAuction(w http.ResponseWriter, r *http.Request) {
	var req StartAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PlayerID == "" {
		writeError(w, "playerId is required", http.StatusBadRequest)
		return
	}

	if err := s.coordinator.StartAuction(r.Context(), req.PlayerID); err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

// StopAuction handles POST /api/auction/stop — administrative force stop.
func (s *Service) StopAuction(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.ForceStop(r.Context()); err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

// --- Bids ---

// SubmitBid handles POST /api/bids.
func (s *Service) SubmitBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TeamID == "" {
		writeError(w, "teamId is required", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	bid, err := s.coordinator.SubmitBid(r.Context(), req.TeamID, req.Amount)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

// GetBidHistory handles GET /api/bids?playerId=
// Returns accepted bids for the player, most recent first.
func (s *Service) GetBidHistory(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		writeError(w, "playerId query parameter is required", http.StatusBadRequest)
		return
	}

	bids, err := s.store.GetBidsByPlayer(r.Context(), playerID)
	if err != nil {
		writeError(w, "failed to load bid history", http.StatusInternalServerError)
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	writeJSON(w, http.StatusOK, bids)
}

// --- Player catalog ---

// ListPlayers handles GET /api/players.
func (s *Service) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		writeError(w, "failed to list players", http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []model.Player{}
	}
	writeJSON(w, http.StatusOK, players)
}

// CreatePlayer handles POST /api/players.
func (s *Service) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.BasePrice < 0 {
		writeError(w, "basePrice must not be negative", http.StatusBadRequest)
		return
	}

	player := &model.Player{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Role:      req.Role,
		BasePrice: req.BasePrice,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePlayer(r.Context(), player); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("player created", "id", player.ID, "name", player.Name, "base_price", player.BasePrice)
	writeJSON(w, http.StatusCreated, player)
}

// --- Teams ---

// ListTeams handles GET /api/teams. Each team carries its won players.
func (s *Service) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		writeError(w, "failed to list teams", http.StatusInternalServerError)
		return
	}

	views := make([]TeamView, 0, len(teams))
	for _, t := range teams {
		purchases, err := s.ledger.Purchases(ctx, t.ID)
		if err != nil {
			writeError(w, "failed to load team purchases", http.StatusInternalServerError)
			return
		}
		if purchases == nil {
			purchases = []model.Purchase{}
		}
		views = append(views, TeamView{Team: t, Players: purchases})
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateTeam handles POST /api/teams.
func (s *Service) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Credits < 0 {
		writeError(w, "credits must not be negative", http.StatusBadRequest)
		return
	}

	team := &model.Team{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Credits:   req.Credits,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTeam(r.Context(), team); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("team created", "id", team.ID, "name", team.Name, "credits", team.Credits)
	writeJSON(w, http.StatusCreated, team)
}

// AddCredits handles POST /api/teams/credits — administrative top-up, routed
// straight to the ledger (no arbitration involved).
func (s *Service) AddCredits(w http.ResponseWriter, r *http.Request) {
	var req AddCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TeamID == "" {
		writeError(w, "teamId is required", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	if err := s.ledger.AddCredits(r.Context(), req.TeamID, req.Amount); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "team not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to add credits", http.StatusInternalServerError)
		return
	}

	slog.Info("credits added", "team_id", req.TeamID, "amount", req.Amount)

	team, err := s.store.GetTeam(r.Context(), req.TeamID)
	if err != nil {
		writeError(w, "failed to load team", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// --- Helpers ---

// writeCoreError maps coordinator errors onto HTTP statuses. Validation
// rejections surface only to the caller; nothing is broadcast for them.
func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrInsufficientCredits),
		errors.Is(err, auction.ErrRoundNotActive),
		errors.Is(err, auction.ErrPlayerAlreadySold),
		errors.Is(err, auction.ErrAuctionInProgress):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	default:
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
