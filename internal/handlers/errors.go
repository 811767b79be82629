package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	"github.com/example/tokenprog/internal/types"
	"github.com/example/tokenprog/pkg/jsonutil"
)

// statusFor maps program and ledger failures to HTTP status codes.
func statusFor(err error) int {
	var pe *program.Error
	switch {
	case errors.Is(err, program.ErrAlreadyInitialized), errors.Is(err, ledger.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, program.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, program.ErrInsufficientResources):
		return http.StatusPaymentRequired
	case errors.Is(err, program.ErrNotInitialized), errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrConflict), errors.Is(err, ledger.ErrBlockhashNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, op string, err error) {
	code := statusFor(err)
	resp := types.ErrorResponse{Error: err.Error()}
	var pe *program.Error
	if errors.As(err, &pe) {
		resp.Error = pe.Name
		resp.Code = pe.Code
	}
	log.Printf("event=program_error op=%s status=%d err=%q", op, code, err)
	jsonutil.JSON(w, code, resp)
}
