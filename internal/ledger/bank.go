package ledger

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math/bits"
	"sync"
	"time"

	sol "github.com/gagliardetto/solana-go"
)

const (
	defaultMaxRetries           = 8
	defaultMaxRecentBlockhashes = 150
)

// BankConfig configures a Bank. Zero values pick defaults.
type BankConfig struct {
	Store                Store
	Rent                 Rent
	Clock                func() time.Time
	MaxRetries           int
	MaxRecentBlockhashes int
}

// Receipt records a committed transaction.
type Receipt struct {
	Signature sol.Signature
	Slot      uint64
	BlockTime time.Time
	Logs      []string
}

// Bank executes signed transactions against a Store. A transaction's
// instructions run against a working copy of its accounts; the copy is
// committed in one Store.Commit or discarded.
type Bank struct {
	store      Store
	rent       Rent
	clock      func() time.Time
	maxRetries int
	maxRecent  int

	progMu   sync.RWMutex
	programs map[sol.PublicKey]Program

	mu       sync.Mutex
	slot     uint64
	genesis  [32]byte
	recent   []sol.Hash
	inflight map[sol.Signature]struct{}
	receipts map[sol.Signature]Receipt
}

func NewBank(cfg BankConfig) *Bank {
	b := &Bank{
		store:      cfg.Store,
		rent:       cfg.Rent,
		clock:      cfg.Clock,
		maxRetries: cfg.MaxRetries,
		maxRecent:  cfg.MaxRecentBlockhashes,
		programs:   make(map[sol.PublicKey]Program),
		inflight:   make(map[sol.Signature]struct{}),
		receipts:   make(map[sol.Signature]Receipt),
	}
	if b.store == nil {
		b.store = NewMemoryStore()
	}
	if b.rent == (Rent{}) {
		b.rent = DefaultRent()
	}
	if b.clock == nil {
		b.clock = time.Now
	}
	if b.maxRetries <= 0 {
		b.maxRetries = defaultMaxRetries
	}
	if b.maxRecent <= 0 {
		b.maxRecent = defaultMaxRecentBlockhashes
	}
	_, _ = rand.Read(b.genesis[:])
	b.recent = append(b.recent, b.hashForSlot(0))
	return b
}

// Register makes a program callable. A later registration for the same ID
// replaces the earlier one.
func (b *Bank) Register(p Program) {
	b.progMu.Lock()
	b.programs[p.ProgramID()] = p
	b.progMu.Unlock()
}

func (b *Bank) program(id sol.PublicKey) (Program, bool) {
	b.progMu.RLock()
	defer b.progMu.RUnlock()
	p, ok := b.programs[id]
	return p, ok
}

func (b *Bank) Rent() Rent { return b.rent }

func (b *Bank) Ping(ctx context.Context) error { return b.store.Ping(ctx) }

func (b *Bank) hashForSlot(slot uint64) sol.Hash {
	var buf [40]byte
	copy(buf[:32], b.genesis[:])
	binary.LittleEndian.PutUint64(buf[32:], slot)
	return sol.Hash(sha256.Sum256(buf[:]))
}

// LatestBlockhash returns the hash transactions should reference.
func (b *Bank) LatestBlockhash(context.Context) (sol.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recent[len(b.recent)-1], nil
}

func (b *Bank) isRecent(h sol.Hash) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.recent {
		if r == h {
			return true
		}
	}
	return false
}

// advance moves to the next slot and records its blockhash. Callers hold b.mu.
func (b *Bank) advance() uint64 {
	b.slot++
	b.recent = append(b.recent, b.hashForSlot(b.slot))
	if len(b.recent) > b.maxRecent {
		b.recent = b.recent[len(b.recent)-b.maxRecent:]
	}
	return b.slot
}

// GetAccount returns the committed state of addr.
func (b *Bank) GetAccount(ctx context.Context, addr sol.PublicKey) (Account, error) {
	return b.store.Get(ctx, addr)
}

// GetTransaction returns the receipt of a committed transaction.
func (b *Bank) GetTransaction(sig sol.Signature) (Receipt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[sig]
	return r, ok
}

// Airdrop credits lamports to addr, creating a system account if needed.
func (b *Bank) Airdrop(ctx context.Context, addr sol.PublicKey, lamports uint64) (sol.Signature, error) {
	var sig sol.Signature
	_, _ = rand.Read(sig[:])
	for attempt := 0; attempt < b.maxRetries; attempt++ {
		acct, err := b.load(ctx, addr)
		if err != nil {
			return sol.Signature{}, err
		}
		acct.Lamports += lamports
		err = b.store.Commit(ctx, []Account{acct})
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return sol.Signature{}, err
		}
		b.record(sig, []string{fmt.Sprintf("Airdrop %d lamports to %s", lamports, addr)})
		log.Printf("event=airdrop address=%s lamports=%d", addr, lamports)
		return sig, nil
	}
	return sol.Signature{}, ErrConflict
}

func (b *Bank) load(ctx context.Context, addr sol.PublicKey) (Account, error) {
	acct, err := b.store.Get(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return Account{Address: addr, Owner: sol.SystemProgramID}, nil
	}
	return acct, err
}

func (b *Bank) record(sig sol.Signature, logs []string) Receipt {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := Receipt{Signature: sig, Slot: b.advance(), BlockTime: b.clock(), Logs: logs}
	b.receipts[sig] = r
	delete(b.inflight, sig)
	return r
}

func (b *Bank) reserve(sig sol.Signature) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.receipts[sig]; ok {
		return ErrAlreadyProcessed
	}
	if _, ok := b.inflight[sig]; ok {
		return ErrAlreadyProcessed
	}
	b.inflight[sig] = struct{}{}
	return nil
}

func (b *Bank) release(sig sol.Signature) {
	b.mu.Lock()
	delete(b.inflight, sig)
	b.mu.Unlock()
}

// Submit verifies, executes and commits a signed legacy transaction and
// returns its signature. On any error nothing is persisted.
func (b *Bank) Submit(ctx context.Context, tx *sol.Transaction) (sol.Signature, error) {
	sig, err := b.verify(tx)
	if err != nil {
		return sol.Signature{}, err
	}
	if !b.isRecent(tx.Message.RecentBlockhash) {
		return sol.Signature{}, ErrBlockhashNotFound
	}
	if err := b.reserve(sig); err != nil {
		return sol.Signature{}, err
	}
	start := time.Now()
	for attempt := 0; attempt < b.maxRetries; attempt++ {
		writes, logs, err := b.execute(ctx, tx)
		if err != nil {
			b.release(sig)
			log.Printf("event=tx_failed sig=%s err=%q", sig, err)
			return sol.Signature{}, err
		}
		err = b.store.Commit(ctx, writes)
		if errors.Is(err, ErrConflict) {
			log.Printf("event=tx_conflict sig=%s attempt=%d", sig, attempt+1)
			continue
		}
		if err != nil {
			b.release(sig)
			return sol.Signature{}, fmt.Errorf("commit: %w", err)
		}
		r := b.record(sig, logs)
		log.Printf("event=tx_committed sig=%s slot=%d writes=%d dur_ms=%d", sig, r.Slot, len(writes), time.Since(start).Milliseconds())
		return sig, nil
	}
	b.release(sig)
	return sol.Signature{}, ErrConflict
}

func (b *Bank) verify(tx *sol.Transaction) (sol.Signature, error) {
	if tx == nil || len(tx.Signatures) == 0 {
		return sol.Signature{}, ErrMissingSigner
	}
	keys := tx.Message.AccountKeys
	n := int(tx.Message.Header.NumRequiredSignatures)
	if n == 0 || len(tx.Signatures) != n || len(keys) < n {
		return sol.Signature{}, ErrMissingSigner
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return sol.Signature{}, fmt.Errorf("encode message: %w", err)
	}
	for i := 0; i < n; i++ {
		if !tx.Signatures[i].Verify(keys[i], msg) {
			return sol.Signature{}, fmt.Errorf("%w: %s", ErrSignatureFailure, keys[i])
		}
	}
	return tx.Signatures[0], nil
}

// execute runs every instruction of tx against fresh state and returns the
// accounts that changed, each stamped with the version it was read at.
func (b *Bank) execute(ctx context.Context, tx *sol.Transaction) ([]Account, []string, error) {
	msg := tx.Message
	keys := msg.AccountKeys
	h := msg.Header
	nsig := int(h.NumRequiredSignatures)
	signers := make(map[sol.PublicKey]bool, nsig)
	writable := make(map[sol.PublicKey]bool, len(keys))
	for i, k := range keys {
		if i < nsig {
			signers[k] = true
			writable[k] = i < nsig-int(h.NumReadonlySignedAccounts)
		} else {
			writable[k] = i < len(keys)-int(h.NumReadonlyUnsignedAccounts)
		}
	}

	loaded := make(map[sol.PublicKey]Account, len(keys))
	working := make(map[sol.PublicKey]*Account, len(keys))
	for _, k := range keys {
		acct, err := b.load(ctx, k)
		if err != nil {
			return nil, nil, err
		}
		loaded[k] = acct
		c := acct.clone()
		working[k] = &c
	}

	b.mu.Lock()
	slot := b.slot + 1
	b.mu.Unlock()
	now := b.clock()
	var logs []string

	for i, ix := range msg.Instructions {
		pidx := int(ix.ProgramIDIndex)
		if pidx >= len(keys) {
			return nil, nil, fmt.Errorf("instruction %d: %w", i, ErrInvalidAccountIdx)
		}
		pid := keys[pidx]
		prog, ok := b.program(pid)
		if !ok {
			return nil, nil, fmt.Errorf("instruction %d: %w: %s", i, ErrUnknownProgram, pid)
		}
		metas := make([]InstructionAccount, 0, len(ix.Accounts))
		for _, ai := range ix.Accounts {
			if int(ai) >= len(keys) {
				return nil, nil, fmt.Errorf("instruction %d: %w", i, ErrInvalidAccountIdx)
			}
			k := keys[int(ai)]
			metas = append(metas, InstructionAccount{Key: k, IsSigner: signers[k], IsWritable: writable[k]})
		}

		before := make(map[sol.PublicKey]Account, len(working))
		for k, a := range working {
			before[k] = a.clone()
		}
		ic := &InvokeContext{
			programID: pid,
			accounts:  working,
			signers:   signers,
			writable:  writable,
			rent:      b.rent,
			now:       now,
			slot:      slot,
			logs:      &logs,
			sysDebits: make(map[sol.PublicKey]uint64),
		}
		ic.Log("Program %s invoke [1]", pid)
		if err := prog.Process(ic, metas, []byte(ix.Data)); err != nil {
			ic.Log("Program %s failed: %v", pid, err)
			return nil, logs, fmt.Errorf("instruction %d: %w", i, err)
		}
		if err := checkMutations(pid, before, working, writable, ic.sysDebits); err != nil {
			return nil, logs, fmt.Errorf("instruction %d: %w", i, err)
		}
		ic.Log("Program %s success", pid)
	}

	var writes []Account
	for _, k := range keys {
		cur := *working[k]
		orig := loaded[k]
		if cur.sameState(orig) {
			continue
		}
		cur.Version = orig.Version
		writes = append(writes, cur)
	}
	return writes, logs, nil
}

// checkMutations enforces what a program may do to the accounts it was
// handed: write only writable accounts, change data only of accounts it
// owns, debit only accounts it owns (or through the system helpers) and
// leave the total lamports unchanged.
func checkMutations(pid sol.PublicKey, before map[sol.PublicKey]Account, after map[sol.PublicKey]*Account, writable map[sol.PublicKey]bool, sysDebits map[sol.PublicKey]uint64) error {
	var sumBefore, sumAfter, carry uint64
	for k, prev := range before {
		cur := *after[k]
		sumBefore, carry = bits.Add64(sumBefore, prev.Lamports, 0)
		if carry != 0 {
			return fmt.Errorf("%w: lamport overflow", ErrUnbalancedLamports)
		}
		sumAfter, carry = bits.Add64(sumAfter, cur.Lamports, 0)
		if carry != 0 {
			return fmt.Errorf("%w: lamport overflow", ErrUnbalancedLamports)
		}
		if cur.sameState(prev) {
			continue
		}
		if !writable[k] {
			return fmt.Errorf("%w: %s", ErrReadonlyWrite, k)
		}
		if !bytes.Equal(cur.Data, prev.Data) && !cur.Owner.Equals(pid) {
			return fmt.Errorf("%w: %s", ErrExternalData, k)
		}
		if cur.Lamports < prev.Lamports && !prev.Owner.Equals(pid) && prev.Lamports-cur.Lamports > sysDebits[k] {
			return fmt.Errorf("%w: %s", ErrExternalDebit, k)
		}
	}
	if sumBefore != sumAfter {
		return fmt.Errorf("%w: %d before, %d after", ErrUnbalancedLamports, sumBefore, sumAfter)
	}
	return nil
}
