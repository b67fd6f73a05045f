// Package api exposes the staking operations over a JSON HTTP interface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/plugin/ochttp"

	"github.com/stakevault/svault/shared/common"
	"github.com/stakevault/svault/staking"
)

var log = logrus.WithField("prefix", "api")

// Staking is the controller surface consumed by the API.
type Staking interface {
	Stake(caller common.Address, amount uint64) (uint64, error)
	Withdraw(caller common.Address, amount uint64) error
	ClaimRewards(caller common.Address) (uint64, error)
	EmergencyWithdraw(caller common.Address) (uint64, error)

	GetStakeInfo(staker common.Address) staking.StakeInfo
	GetCurrentMultiplier(staker common.Address) uint64
	CalculateAPR() uint64
	TotalStaked() uint64
	Paused() bool

	SetRewardRatio(caller common.Address, numerator uint64) error
	SetTiers(caller common.Address, durations, multipliers []uint64) error
	SetStakingTokenCap(caller common.Address, cap uint64) error
	SetMinStakingBoostAmount(caller common.Address, amount uint64) error
	WithdrawExcessTokens(caller, to common.Address, amount uint64) error
	SetPaused(caller common.Address, paused bool) error
}

// Config for the api service.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Service serves the staking JSON API.
type Service struct {
	server     *http.Server
	controller Staking
	mu         sync.RWMutex
	failStatus error
}

type rpcResponse struct {
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

type actionRequest struct {
	Address     string   `json:"address"`
	To          string   `json:"to,omitempty"`
	Amount      uint64   `json:"amount,omitempty"`
	Numerator   uint64   `json:"numerator,omitempty"`
	Durations   []uint64 `json:"durations,omitempty"`
	Multipliers []uint64 `json:"multipliers,omitempty"`
	Paused      bool     `json:"paused,omitempty"`
}

// NewService creates the api service bound to the given controller.
func NewService(cfg *Config, controller Staking) *Service {
	s := &Service{controller: controller}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/staking/info", s.stakeInfoHandler)
	mux.HandleFunc("/v1/staking/multiplier", s.multiplierHandler)
	mux.HandleFunc("/v1/staking/apr", s.aprHandler)
	mux.HandleFunc("/v1/staking/status", s.statusHandler)

	mux.HandleFunc("/v1/staking/stake", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		received, err := s.controller.Stake(caller, req.Amount)
		return map[string]uint64{"staked": received}, err
	}))
	mux.HandleFunc("/v1/staking/withdraw", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.Withdraw(caller, req.Amount)
	}))
	mux.HandleFunc("/v1/staking/claim", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		payout, err := s.controller.ClaimRewards(caller)
		return map[string]uint64{"rewards": payout}, err
	}))
	mux.HandleFunc("/v1/staking/emergency-withdraw", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		amount, err := s.controller.EmergencyWithdraw(caller)
		return map[string]uint64{"withdrawn": amount}, err
	}))

	mux.HandleFunc("/v1/admin/reward-ratio", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.SetRewardRatio(caller, req.Numerator)
	}))
	mux.HandleFunc("/v1/admin/tiers", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.SetTiers(caller, req.Durations, req.Multipliers)
	}))
	mux.HandleFunc("/v1/admin/cap", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.SetStakingTokenCap(caller, req.Amount)
	}))
	mux.HandleFunc("/v1/admin/min-boost", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.SetMinStakingBoostAmount(caller, req.Amount)
	}))
	mux.HandleFunc("/v1/admin/withdraw-excess", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.WithdrawExcessTokens(caller, common.HexToAddress(req.To), req.Amount)
	}))
	mux.HandleFunc("/v1/admin/pause", s.actionHandler(func(req *actionRequest, caller common.Address) (interface{}, error) {
		return nil, s.controller.SetPaused(caller, req.Paused)
	}))

	handler := s.corsMiddleware(cfg.AllowedOrigins, mux)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      &ochttp.Handler{Handler: handler},
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Service) corsMiddleware(origins []string, h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowCredentials: true,
		MaxAge:           600,
		AllowedHeaders:   []string{"*"},
	})
	return c.Handler(h)
}

func (s *Service) stakeInfoHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := queryAddress(w, r)
	if !ok {
		return
	}

	writeResponse(w, http.StatusOK, rpcResponse{Data: s.controller.GetStakeInfo(addr)})
}

func (s *Service) multiplierHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := queryAddress(w, r)
	if !ok {
		return
	}

	writeResponse(w, http.StatusOK, rpcResponse{Data: map[string]uint64{
		"multiplier": s.controller.GetCurrentMultiplier(addr),
	}})
}

func (s *Service) aprHandler(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, rpcResponse{Data: map[string]uint64{
		"aprBps": s.controller.CalculateAPR(),
	}})
}

func (s *Service) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, rpcResponse{Data: map[string]interface{}{
		"totalStaked": s.controller.TotalStaked(),
		"paused":      s.controller.Paused(),
	}})
}

type actionFunc func(req *actionRequest, caller common.Address) (interface{}, error)

func (s *Service) actionHandler(action actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeResponse(w, http.StatusMethodNotAllowed, rpcResponse{Error: "post method required"})
			return
		}

		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeResponse(w, http.StatusBadRequest, rpcResponse{Error: "malformed request body"})
			return
		}

		if !common.IsHexAddress(req.Address) {
			writeResponse(w, http.StatusBadRequest, rpcResponse{Error: "malformed address"})
			return
		}

		data, err := action(&req, common.HexToAddress(req.Address))
		if err != nil {
			writeResponse(w, http.StatusBadRequest, rpcResponse{Error: err.Error()})
			return
		}

		writeResponse(w, http.StatusOK, rpcResponse{Data: data})
	}
}

func queryAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := r.URL.Query().Get("address")
	if !common.IsHexAddress(raw) {
		writeResponse(w, http.StatusBadRequest, rpcResponse{Error: "malformed address"})
		return nil, false
	}

	return common.HexToAddress(raw), true
}

func writeResponse(w http.ResponseWriter, status int, response rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf("Error writing response: %s", err)
	}
}

// Start the api service.
func (s *Service) Start() {
	log.WithField("address", s.server.Addr).Info("Starting staking API")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("Could not listen on %s: %v", s.server.Addr, err)

		s.mu.Lock()
		s.failStatus = err
		s.mu.Unlock()
	}
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	log.Info("Stopping staking API")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.failStatus
}
