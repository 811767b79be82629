package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client talks to a remote cluster over JSON-RPC. It satisfies the same
// cluster surface as the in-process ledger.Bank.
type Client struct {
	c          *rpc.Client
	commitment rpc.CommitmentType
}

func NewClient(rpcURL string, commitment string) *Client {
	cm := rpc.CommitmentType(commitment)
	if cm == "" {
		cm = rpc.CommitmentFinalized
	}
	return &Client{c: rpc.New(rpcURL), commitment: cm}
}

func (cl *Client) LatestBlockhash(ctx context.Context) (sol.Hash, error) {
	res, err := cl.c.GetLatestBlockhash(ctx, cl.commitment)
	if err != nil {
		return sol.Hash{}, err
	}
	if res == nil || res.Value == nil {
		return sol.Hash{}, errors.New("empty blockhash response")
	}
	return res.Value.Blockhash, nil
}

// Submit sends a signed transaction. Preflight simulation runs at the
// client's commitment; confirmation is left to the caller.
func (cl *Client) Submit(ctx context.Context, tx *sol.Transaction) (sol.Signature, error) {
	start := time.Now()
	sig, err := cl.c.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: cl.commitment,
	})
	if err != nil {
		return sol.Signature{}, programError(err)
	}
	log.Printf("event=rpc_send sig=%s latency_ms=%d", sig, time.Since(start).Milliseconds())
	return sig, nil
}

func (cl *Client) GetAccount(ctx context.Context, addr sol.PublicKey) (ledger.Account, error) {
	start := time.Now()
	res, err := cl.c.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Encoding:   sol.EncodingBase64,
		Commitment: cl.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return ledger.Account{}, ledger.ErrAccountNotFound
		}
		return ledger.Account{}, err
	}
	if res == nil || res.Value == nil {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	log.Printf("event=rpc_fetch address=%s latency_ms=%d", addr, time.Since(start).Milliseconds())
	v := res.Value
	acct := ledger.Account{
		Address:    addr,
		Lamports:   v.Lamports,
		Owner:      v.Owner,
		Executable: v.Executable,
	}
	if v.Data != nil {
		acct.Data = v.Data.GetBinary()
	}
	return acct, nil
}

func (cl *Client) Ping(ctx context.Context) error {
	_, err := cl.c.GetHealth(ctx)
	return err
}

var customErrRe = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)

// programError wraps the typed program error when a preflight failure
// reports a known custom error code.
func programError(err error) error {
	m := customErrRe.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	code, perr := strconv.ParseUint(m[1], 16, 32)
	if perr != nil {
		return err
	}
	if pe, ok := program.ErrorFromCode(uint32(code)); ok {
		return fmt.Errorf("%w: %v", pe, err)
	}
	return err
}
