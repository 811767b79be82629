package ledger

import (
	"fmt"
	"time"

	sol "github.com/gagliardetto/solana-go"
)

// InstructionAccount is one account reference of a compiled instruction,
// with the signer and writable flags resolved from the message header.
type InstructionAccount struct {
	Key        sol.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Program processes instructions addressed to its ID.
type Program interface {
	ProgramID() sol.PublicKey
	Process(ic *InvokeContext, accounts []InstructionAccount, data []byte) error
}

// InvokeContext is a program's view of the transaction being executed.
// Mutations go to a working copy that the bank commits only if every
// instruction of the transaction succeeds.
type InvokeContext struct {
	programID sol.PublicKey
	accounts  map[sol.PublicKey]*Account
	signers   map[sol.PublicKey]bool
	writable  map[sol.PublicKey]bool
	rent      Rent
	now       time.Time
	slot      uint64
	logs      *[]string

	// lamports taken from each account by system-program helpers
	sysDebits map[sol.PublicKey]uint64
}

func (ic *InvokeContext) ProgramID() sol.PublicKey { return ic.programID }
func (ic *InvokeContext) Rent() Rent               { return ic.rent }
func (ic *InvokeContext) Now() time.Time           { return ic.now }
func (ic *InvokeContext) Slot() uint64             { return ic.slot }

// Account returns the working copy of an account loaded by the transaction.
func (ic *InvokeContext) Account(key sol.PublicKey) (*Account, error) {
	a, ok := ic.accounts[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s not in transaction", ErrAccountNotFound, key)
	}
	return a, nil
}

func (ic *InvokeContext) IsSigner(key sol.PublicKey) bool { return ic.signers[key] }

func (ic *InvokeContext) Log(format string, args ...any) {
	*ic.logs = append(*ic.logs, fmt.Sprintf(format, args...))
}

// CreateAccount allocates space bytes at addr, assigns it to owner and funds
// it with the rent-exempt minimum taken from payer.
func (ic *InvokeContext) CreateAccount(payer, addr sol.PublicKey, space int, owner sol.PublicKey) (*Account, error) {
	if !ic.signers[payer] || !ic.writable[payer] {
		return nil, fmt.Errorf("%w: payer %s", ErrMissingSigner, payer)
	}
	if !ic.writable[addr] {
		return nil, fmt.Errorf("%w: %s", ErrReadonlyWrite, addr)
	}
	from, err := ic.Account(payer)
	if err != nil {
		return nil, err
	}
	to, err := ic.Account(addr)
	if err != nil {
		return nil, err
	}
	if !to.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}
	need := ic.rent.MinimumBalance(space)
	if from.Lamports < need {
		return nil, fmt.Errorf("%w: need %d lamports, payer %s has %d", ErrInsufficientFunds, need, payer, from.Lamports)
	}
	ic.debit(payer, from, need)
	to.Lamports = need
	to.Data = make([]byte, space)
	to.Owner = owner
	ic.Log("Program %s invoke [2]", sol.SystemProgramID)
	ic.Log("Program %s success", sol.SystemProgramID)
	return to, nil
}

// InitAccount is CreateAccount for an address that may already hold
// lamports: payer tops addr up to the rent-exempt minimum, then addr is
// allocated and assigned. addr must still be system-owned with no data.
func (ic *InvokeContext) InitAccount(payer, addr sol.PublicKey, space int, owner sol.PublicKey) (*Account, error) {
	to, err := ic.Account(addr)
	if err != nil {
		return nil, err
	}
	if to.Lamports == 0 {
		return ic.CreateAccount(payer, addr, space, owner)
	}
	if !ic.signers[payer] || !ic.writable[payer] {
		return nil, fmt.Errorf("%w: payer %s", ErrMissingSigner, payer)
	}
	if !ic.writable[addr] {
		return nil, fmt.Errorf("%w: %s", ErrReadonlyWrite, addr)
	}
	if len(to.Data) != 0 || !(to.Owner.IsZero() || to.Owner.Equals(sol.SystemProgramID)) {
		return nil, fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}
	from, err := ic.Account(payer)
	if err != nil {
		return nil, err
	}
	var shortfall uint64
	if need := ic.rent.MinimumBalance(space); to.Lamports < need {
		shortfall = need - to.Lamports
	}
	if from.Lamports < shortfall {
		return nil, fmt.Errorf("%w: need %d lamports, payer %s has %d", ErrInsufficientFunds, shortfall, payer, from.Lamports)
	}
	if shortfall > 0 {
		ic.debit(payer, from, shortfall)
		to.Lamports += shortfall
		ic.Log("Program %s invoke [2]", sol.SystemProgramID)
		ic.Log("Program %s success", sol.SystemProgramID)
	}
	to.Data = make([]byte, space)
	to.Owner = owner
	ic.Log("Program %s invoke [2]", sol.SystemProgramID)
	ic.Log("Program %s success", sol.SystemProgramID)
	return to, nil
}

func (ic *InvokeContext) debit(key sol.PublicKey, a *Account, lamports uint64) {
	a.Lamports -= lamports
	if ic.sysDebits != nil {
		ic.sysDebits[key] += lamports
	}
}
