package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	sol "github.com/gagliardetto/solana-go"
)

// Cluster is where transactions are sent and accounts are read from: the
// in-process ledger.Bank or a remote RPC node.
type Cluster interface {
	LatestBlockhash(ctx context.Context) (sol.Hash, error)
	Submit(ctx context.Context, tx *sol.Transaction) (sol.Signature, error)
	GetAccount(ctx context.Context, addr sol.PublicKey) (ledger.Account, error)
}

// Config is passed explicitly to New; nothing is read from the environment.
type Config struct {
	ProgramID sol.PublicKey
	Payer     sol.PrivateKey
}

// Client invokes the token program on behalf of a single payer/authority.
type Client struct {
	programID sol.PublicKey
	payer     sol.PrivateKey
	cluster   Cluster
}

func New(cfg Config, cluster Cluster) (*Client, error) {
	if len(cfg.Payer) == 0 {
		return nil, errors.New("client: payer key required")
	}
	if cluster == nil {
		return nil, errors.New("client: cluster required")
	}
	id := cfg.ProgramID
	if id.IsZero() {
		id = program.DefaultProgramID
	}
	return &Client{programID: id, payer: cfg.Payer, cluster: cluster}, nil
}

func (c *Client) ProgramID() sol.PublicKey { return c.programID }

// Authority is the payer's public key; it signs every instruction.
func (c *Client) Authority() sol.PublicKey { return c.payer.PublicKey() }

// ConfigAddress returns the config account address for mint.
func (c *Client) ConfigAddress(mint sol.PublicKey) (sol.PublicKey, error) {
	addr, _, err := program.FindConfigAddress(c.programID, mint)
	return addr, err
}

// Initialize creates the config account for mint and returns the
// transaction signature.
func (c *Client) Initialize(ctx context.Context, mint sol.PublicKey, args program.InitializeArgs) (sol.Signature, error) {
	ix, err := program.NewInitializeInstruction(c.programID, mint, c.Authority(), args)
	if err != nil {
		return sol.Signature{}, err
	}
	return c.send(ctx, "initialize", ix)
}

func (c *Client) SetTradingEnabled(ctx context.Context, mint sol.PublicKey, enabled bool) (sol.Signature, error) {
	ix, err := program.NewSetTradingEnabledInstruction(c.programID, mint, c.Authority(), enabled)
	if err != nil {
		return sol.Signature{}, err
	}
	return c.send(ctx, "set_trading_enabled", ix)
}

func (c *Client) UpdateFees(ctx context.Context, mint sol.PublicKey, fees program.UpdateFeesArgs) (sol.Signature, error) {
	ix, err := program.NewUpdateFeesInstruction(c.programID, mint, c.Authority(), fees)
	if err != nil {
		return sol.Signature{}, err
	}
	return c.send(ctx, "update_fees", ix)
}

// FetchConfig reads and decodes the config account for mint.
func (c *Client) FetchConfig(ctx context.Context, mint sol.PublicKey) (program.TokenConfig, error) {
	addr, err := c.ConfigAddress(mint)
	if err != nil {
		return program.TokenConfig{}, err
	}
	acct, err := c.cluster.GetAccount(ctx, addr)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return program.TokenConfig{}, program.ErrNotInitialized
		}
		return program.TokenConfig{}, err
	}
	if !acct.Owner.Equals(c.programID) {
		return program.TokenConfig{}, program.ErrNotInitialized
	}
	return program.UnmarshalConfig(acct.Data)
}

func (c *Client) send(ctx context.Context, name string, ix sol.Instruction) (sol.Signature, error) {
	start := time.Now()
	bh, err := c.cluster.LatestBlockhash(ctx)
	if err != nil {
		return sol.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}
	payer := c.payer.PublicKey()
	tx, err := sol.NewTransaction([]sol.Instruction{ix}, bh, sol.TransactionPayer(payer))
	if err != nil {
		return sol.Signature{}, fmt.Errorf("build %s: %w", name, err)
	}
	_, err = tx.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		if key.Equals(payer) {
			return &c.payer
		}
		return nil
	})
	if err != nil {
		return sol.Signature{}, fmt.Errorf("sign %s: %w", name, err)
	}
	sig, err := c.cluster.Submit(ctx, tx)
	if err != nil {
		return sol.Signature{}, err
	}
	log.Printf("event=tx_sent ix=%s sig=%s latency_ms=%d", name, sig, time.Since(start).Milliseconds())
	return sig, nil
}
