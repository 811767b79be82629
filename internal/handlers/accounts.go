package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/example/tokenprog/internal/cache"
	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	"github.com/example/tokenprog/internal/types"
	"github.com/example/tokenprog/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
)

const maxAddresses = 100

// AccountReader reads committed account state from a cluster.
type AccountReader interface {
	GetAccount(ctx context.Context, addr sol.PublicKey) (ledger.Account, error)
}

// AccountsDeps bundles dependencies needed by AccountsHandler.
type AccountsDeps struct {
	Cache          *cache.Cache[ledger.Account]
	Reader         AccountReader
	ProgramID      sol.PublicKey
	Timeout        time.Duration
	MaxConcurrency int
}

type AccountsHandler struct{ Deps AccountsDeps }

func NewAccountsHandler(deps AccountsDeps) *AccountsHandler { return &AccountsHandler{Deps: deps} }

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ServeHTTP handles POST /api/accounts.
func (h *AccountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.GetAccountsRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	if len(req.Addresses) == 0 {
		jsonutil.Error(w, http.StatusBadRequest, "addresses required")
		return
	}
	if len(req.Addresses) > maxAddresses {
		jsonutil.Error(w, http.StatusBadRequest, "too many addresses")
		return
	}

	addrs := dedupe(req.Addresses)
	resp := types.GetAccountsResponse{
		Accounts: make([]types.AccountEntry, 0, len(addrs)),
		Errors:   []types.ErrorEntry{},
	}
	valid := make(map[string]sol.PublicKey, len(addrs))
	for _, s := range addrs {
		pk, ok := parsePubkey(s)
		if !ok {
			resp.Errors = append(resp.Errors, types.ErrorEntry{Address: s, Error: "invalid public key"})
			continue
		}
		valid[s] = pk
	}

	timeout := h.Deps.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	limit := h.Deps.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	var mu sync.Mutex
	for s, pk := range valid {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			acct, source, err := h.Deps.Cache.GetOrFetch(ctx, s, func(ctx context.Context) (ledger.Account, error) {
				return h.Deps.Reader.GetAccount(ctx, pk)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Errors = append(resp.Errors, types.ErrorEntry{Address: s, Error: err.Error()})
				return nil
			}
			resp.Accounts = append(resp.Accounts, types.AccountEntry{
				Address:     s,
				Lamports:    acct.Lamports,
				Sol:         types.LamportsToSol(acct.Lamports),
				Owner:       acct.Owner.String(),
				DataLen:     len(acct.Data),
				Initialized: acct.Owner.Equals(h.Deps.ProgramID) && program.HasConfigDiscriminator(acct.Data),
				Source:      source,
				FetchedAt:   types.NowRFC3339(),
			})
			log.Printf("event=account address=%s source=%s", s, source)
			return nil
		})
	}
	_ = g.Wait()

	// sort for deterministic output
	sort.Slice(resp.Accounts, func(i, j int) bool { return resp.Accounts[i].Address < resp.Accounts[j].Address })
	sort.Slice(resp.Errors, func(i, j int) bool { return resp.Errors[i].Address < resp.Errors[j].Address })

	jsonutil.JSON(w, http.StatusOK, resp)
}
