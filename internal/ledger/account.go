package ledger

import (
	"bytes"
	"errors"

	sol "github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrConflict           = errors.New("account version conflict")
	ErrInsufficientFunds  = errors.New("insufficient funds for rent")
	ErrAccountInUse       = errors.New("account already in use")
	ErrBlockhashNotFound  = errors.New("blockhash not found")
	ErrAlreadyProcessed   = errors.New("transaction already processed")
	ErrSignatureFailure   = errors.New("transaction signature verification failure")
	ErrMissingSigner      = errors.New("missing required signature")
	ErrUnknownProgram     = errors.New("program not registered")
	ErrReadonlyWrite      = errors.New("instruction modified a read-only account")
	ErrExternalData       = errors.New("instruction modified data of an account it does not own")
	ErrInvalidAccountIdx  = errors.New("instruction references an account index out of range")
	ErrUnbalancedLamports = errors.New("instruction changed the total lamports of its accounts")
	ErrExternalDebit      = errors.New("instruction debited an account it does not own")
)

// Account is the stored state of a single address.
// Version is the store's optimistic-concurrency counter; 0 means the
// account has never been persisted.
type Account struct {
	Address    sol.PublicKey
	Lamports   uint64
	Owner      sol.PublicKey
	Data       []byte
	Executable bool
	Version    uint64
}

// Empty reports whether the account holds nothing: no lamports, no data,
// and system ownership.
func (a Account) Empty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && (a.Owner.IsZero() || a.Owner.Equals(sol.SystemProgramID))
}

func (a Account) clone() Account {
	c := a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return c
}

func (a Account) sameState(b Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner.Equals(b.Owner) &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}

const (
	// AccountStorageOverhead is charged on top of every account's data length.
	AccountStorageOverhead     = 128
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2
)

// Rent holds the parameters for the rent-exempt minimum balance.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: DefaultLamportsPerByteYear, ExemptionThreshold: DefaultExemptionThreshold}
}

// MinimumBalance returns the lamports an account of the given data size must
// hold to be rent exempt.
func (r Rent) MinimumBalance(space int) uint64 {
	return (AccountStorageOverhead + uint64(space)) * r.LamportsPerByteYear * r.ExemptionThreshold
}
