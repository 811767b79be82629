package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/example/tokenprog/internal/cache"
	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	"github.com/example/tokenprog/internal/types"
	"github.com/example/tokenprog/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// Invoker is the program surface the handlers need; *client.Client implements it.
type Invoker interface {
	ConfigAddress(mint sol.PublicKey) (sol.PublicKey, error)
	Initialize(ctx context.Context, mint sol.PublicKey, args program.InitializeArgs) (sol.Signature, error)
	SetTradingEnabled(ctx context.Context, mint sol.PublicKey, enabled bool) (sol.Signature, error)
	UpdateFees(ctx context.Context, mint sol.PublicKey, fees program.UpdateFeesArgs) (sol.Signature, error)
	FetchConfig(ctx context.Context, mint sol.PublicKey) (program.TokenConfig, error)
}

// ProgramDeps bundles dependencies needed by ProgramHandler. Accounts is the
// cache AccountsHandler reads; a successful instruction drops the config
// address from it. It may be nil.
type ProgramDeps struct {
	Invoker  Invoker
	Configs  *cache.Cache[program.TokenConfig]
	Accounts *cache.Cache[ledger.Account]
	Timeout  time.Duration
}

// ProgramHandler exposes the program's instructions over HTTP.
type ProgramHandler struct{ Deps ProgramDeps }

func NewProgramHandler(deps ProgramDeps) *ProgramHandler { return &ProgramHandler{Deps: deps} }

func (h *ProgramHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	if h.Deps.Timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.Deps.Timeout)
}

// invalidate drops cached views of mint's config after a successful write.
func (h *ProgramHandler) invalidate(mint sol.PublicKey) sol.PublicKey {
	h.Deps.Configs.Invalidate(mint.String())
	addr, err := h.Deps.Invoker.ConfigAddress(mint)
	if err == nil && h.Deps.Accounts != nil {
		h.Deps.Accounts.Invalidate(addr.String())
	}
	return addr
}

func parsePubkey(s string) (sol.PublicKey, bool) {
	pk, err := sol.PublicKeyFromBase58(s)
	if err != nil {
		return sol.PublicKey{}, false
	}
	return pk, true
}

// Initialize handles POST /api/initialize.
func (h *ProgramHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req types.InitializeRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	mint, ok := parsePubkey(req.Mint)
	if !ok {
		jsonutil.Error(w, http.StatusBadRequest, "invalid mint")
		return
	}
	wallet, ok := parsePubkey(req.MarketingWallet)
	if !ok {
		jsonutil.Error(w, http.StatusBadRequest, "invalid marketing_wallet")
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	sig, err := h.Deps.Invoker.Initialize(ctx, mint, program.InitializeArgs{
		Name:            req.Name,
		Symbol:          req.Symbol,
		Decimals:        req.Decimals,
		MarketingWallet: wallet,
	})
	if err != nil {
		writeError(w, "initialize", err)
		return
	}
	addr := h.invalidate(mint)
	log.Printf("event=initialized mint=%s config=%s sig=%s", mint, addr, sig)
	jsonutil.JSON(w, http.StatusOK, types.TxResponse{Signature: sig.String(), Config: addr.String()})
}

// SetTrading handles POST /api/trading.
func (h *ProgramHandler) SetTrading(w http.ResponseWriter, r *http.Request) {
	var req types.SetTradingRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	mint, ok := parsePubkey(req.Mint)
	if !ok {
		jsonutil.Error(w, http.StatusBadRequest, "invalid mint")
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	sig, err := h.Deps.Invoker.SetTradingEnabled(ctx, mint, req.Enabled)
	if err != nil {
		writeError(w, "set_trading_enabled", err)
		return
	}
	h.invalidate(mint)
	jsonutil.JSON(w, http.StatusOK, types.TxResponse{Signature: sig.String()})
}

// UpdateFees handles POST /api/fees.
func (h *ProgramHandler) UpdateFees(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateFeesRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	mint, ok := parsePubkey(req.Mint)
	if !ok {
		jsonutil.Error(w, http.StatusBadRequest, "invalid mint")
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	sig, err := h.Deps.Invoker.UpdateFees(ctx, mint, program.UpdateFeesArgs{
		ReflectionFeeBP: req.ReflectionFeeBP,
		MarketingFeeBP:  req.MarketingFeeBP,
		BurnFeeBP:       req.BurnFeeBP,
		DevFeeBP:        req.DevFeeBP,
	})
	if err != nil {
		writeError(w, "update_fees", err)
		return
	}
	h.invalidate(mint)
	jsonutil.JSON(w, http.StatusOK, types.TxResponse{Signature: sig.String()})
}

// GetConfig handles GET /api/config/{mint}.
func (h *ProgramHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	mint, ok := parsePubkey(chi.URLParam(r, "mint"))
	if !ok {
		jsonutil.Error(w, http.StatusBadRequest, "invalid mint")
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	cfg, source, err := h.Deps.Configs.GetOrFetch(ctx, mint.String(), func(ctx context.Context) (program.TokenConfig, error) {
		return h.Deps.Invoker.FetchConfig(ctx, mint)
	})
	if err != nil {
		writeError(w, "get_config", err)
		return
	}
	addr, _ := h.Deps.Invoker.ConfigAddress(mint)
	log.Printf("event=config mint=%s source=%s", mint, source)
	jsonutil.JSON(w, http.StatusOK, types.NewConfigView(addr.String(), cfg))
}
