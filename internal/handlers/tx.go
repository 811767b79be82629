package handlers

import (
	"net/http"
	"time"

	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	"github.com/example/tokenprog/internal/types"
	"github.com/example/tokenprog/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// ReceiptSource looks up committed transactions; *ledger.Bank implements it.
type ReceiptSource interface {
	GetTransaction(sig sol.Signature) (ledger.Receipt, bool)
}

type TxHandler struct{ Receipts ReceiptSource }

func NewTxHandler(src ReceiptSource) *TxHandler { return &TxHandler{Receipts: src} }

// ServeHTTP handles GET /api/tx/{signature}.
func (h *TxHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sig, err := sol.SignatureFromBase58(chi.URLParam(r, "signature"))
	if err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "invalid signature")
		return
	}
	rc, ok := h.Receipts.GetTransaction(sig)
	if !ok {
		jsonutil.Error(w, http.StatusNotFound, "transaction not found")
		return
	}
	events, err := program.ParseEvents(rc.Logs)
	if err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := types.ReceiptResponse{
		Signature: rc.Signature.String(),
		Slot:      rc.Slot,
		BlockTime: rc.BlockTime.UTC().Format(time.RFC3339),
		Logs:      rc.Logs,
		Events:    make([]types.EventView, 0, len(events)),
	}
	for _, ev := range events {
		resp.Events = append(resp.Events, types.EventView{Name: ev.Name, Data: ev.Value})
	}
	jsonutil.JSON(w, http.StatusOK, resp)
}
