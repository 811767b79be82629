package client

import (
	"context"
	"errors"
	"testing"

	"github.com/example/tokenprog/internal/ledger"
	"github.com/example/tokenprog/internal/program"
	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, lamports uint64) (*Client, *ledger.Bank) {
	t.Helper()
	bank := ledger.NewBank(ledger.BankConfig{})
	bank.Register(program.NewProcessor(program.DefaultProgramID))
	payer := sol.NewWallet().PrivateKey
	_, err := bank.Airdrop(context.Background(), payer.PublicKey(), lamports)
	require.NoError(t, err)
	c, err := New(Config{Payer: payer}, bank)
	require.NoError(t, err)
	return c, bank
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, ledger.NewBank(ledger.BankConfig{}))
	require.Error(t, err)
	_, err = New(Config{Payer: sol.NewWallet().PrivateKey}, nil)
	require.Error(t, err)

	c, err := New(Config{Payer: sol.NewWallet().PrivateKey}, ledger.NewBank(ledger.BankConfig{}))
	require.NoError(t, err)
	require.True(t, c.ProgramID().Equals(program.DefaultProgramID))
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c, bank := newLocal(t, 10_000_000_000)
	mint := sol.NewWallet().PublicKey()

	_, err := c.FetchConfig(ctx, mint)
	require.ErrorIs(t, err, program.ErrNotInitialized)

	wallet := sol.NewWallet().PublicKey()
	sig, err := c.Initialize(ctx, mint, program.InitializeArgs{Name: "Big Balls", Symbol: "BIGBALLS", Decimals: 9, MarketingWallet: wallet})
	require.NoError(t, err)
	_, ok := bank.GetTransaction(sig)
	require.True(t, ok)

	cfg, err := c.FetchConfig(ctx, mint)
	require.NoError(t, err)
	require.True(t, cfg.Authority.Equals(c.Authority()))
	require.True(t, cfg.MarketingWallet.Equals(wallet))
	require.False(t, cfg.TradingEnabled)

	_, err = c.SetTradingEnabled(ctx, mint, true)
	require.NoError(t, err)
	_, err = c.UpdateFees(ctx, mint, program.UpdateFeesArgs{ReflectionFeeBP: 10, MarketingFeeBP: 20, BurnFeeBP: 30, DevFeeBP: 40})
	require.NoError(t, err)

	cfg, err = c.FetchConfig(ctx, mint)
	require.NoError(t, err)
	require.True(t, cfg.TradingEnabled)
	require.Equal(t, uint32(100), cfg.TotalFeeBP())

	_, err = c.Initialize(ctx, mint, program.InitializeArgs{Name: "Again", Symbol: "AG", MarketingWallet: wallet})
	require.ErrorIs(t, err, program.ErrAlreadyInitialized)
}

func TestFetchConfig_ForeignOwner(t *testing.T) {
	ctx := context.Background()
	c, bank := newLocal(t, 1_000_000_000)
	mint := sol.NewWallet().PublicKey()
	addr, err := c.ConfigAddress(mint)
	require.NoError(t, err)
	_, err = bank.Airdrop(ctx, addr, 1)
	require.NoError(t, err)

	_, err = c.FetchConfig(ctx, mint)
	require.ErrorIs(t, err, program.ErrNotInitialized)
}

type downCluster struct{}

var errDown = errors.New("cluster down")

func (downCluster) LatestBlockhash(context.Context) (sol.Hash, error) { return sol.Hash{}, errDown }
func (downCluster) Submit(context.Context, *sol.Transaction) (sol.Signature, error) {
	return sol.Signature{}, errDown
}
func (downCluster) GetAccount(context.Context, sol.PublicKey) (ledger.Account, error) {
	return ledger.Account{}, errDown
}

func TestClient_ClusterErrorsPropagate(t *testing.T) {
	c, err := New(Config{Payer: sol.NewWallet().PrivateKey}, downCluster{})
	require.NoError(t, err)
	_, err = c.SetTradingEnabled(context.Background(), sol.NewWallet().PublicKey(), true)
	require.ErrorIs(t, err, errDown)
	_, err = c.FetchConfig(context.Background(), sol.NewWallet().PublicKey())
	require.ErrorIs(t, err, errDown)
}
