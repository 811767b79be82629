package ledger

import (
	"context"
	"testing"

	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestRent_MinimumBalance(t *testing.T) {
	r := DefaultRent()
	require.Equal(t, uint64((128+0)*3480*2), r.MinimumBalance(0))
	require.Equal(t, uint64((128+165)*3480*2), r.MinimumBalance(165))
}

func TestMemoryStore_CommitVersions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	addr := sol.NewWallet().PublicKey()

	_, err := s.Get(ctx, addr)
	require.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, s.Commit(ctx, []Account{{Address: addr, Lamports: 5, Owner: sol.SystemProgramID}}))
	got, err := s.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.Version)
	require.Equal(t, uint64(5), got.Lamports)

	// a second create of the same address loses
	require.ErrorIs(t, s.Commit(ctx, []Account{{Address: addr, Lamports: 9}}), ErrConflict)

	got.Lamports = 7
	require.NoError(t, s.Commit(ctx, []Account{got}))
	// stale version
	require.ErrorIs(t, s.Commit(ctx, []Account{got}), ErrConflict)

	cur, err := s.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(2), cur.Version)
	require.Equal(t, uint64(7), cur.Lamports)
}

func TestMemoryStore_CommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := sol.NewWallet().PublicKey(), sol.NewWallet().PublicKey()
	require.NoError(t, s.Commit(ctx, []Account{{Address: a, Lamports: 1}}))

	err := s.Commit(ctx, []Account{{Address: b, Lamports: 1}, {Address: a, Lamports: 2}})
	require.ErrorIs(t, err, ErrConflict)
	_, err = s.Get(ctx, b)
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Equal(t, 1, s.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	addr := sol.NewWallet().PublicKey()
	require.NoError(t, s.Commit(ctx, []Account{{Address: addr, Data: []byte{1, 2, 3}}}))
	got, err := s.Get(ctx, addr)
	require.NoError(t, err)
	got.Data[0] = 9
	again, err := s.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again.Data)
}
