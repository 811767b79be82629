package main

import (
	"context"
	"testing"

	"github.com/example/tokenprog/internal/config"
	"github.com/example/tokenprog/internal/program"
	sol "github.com/gagliardetto/solana-go"
)

func TestHelpers(t *testing.T) {
	if sanitizePort("") != "8080" { t.Fatalf("sanitize") }
	if sanitizePort("9090") != "9090" { t.Fatalf("sanitize pass") }
	if chooseCommitment("") != "finalized" || chooseCommitment("processed") != "processed" { t.Fatalf("commit") }
}

func TestLoadAuthority(t *testing.T) {
	k, err := loadAuthority("")
	if err != nil || len(k) == 0 { t.Fatalf("random key: %v", err) }
	again, err := loadAuthority(k.String())
	if err != nil { t.Fatalf("decode: %v", err) }
	if !again.PublicKey().Equals(k.PublicKey()) { t.Fatalf("round trip mismatch") }
	if _, err := loadAuthority("not-base58-0OIl"); err == nil { t.Fatalf("expected error") }
}

func TestProgramIDFrom(t *testing.T) {
	id, err := programIDFrom("")
	if err != nil || !id.Equals(program.DefaultProgramID) { t.Fatalf("default id=%s err=%v", id, err) }
	other := sol.NewWallet().PublicKey()
	id, err = programIDFrom(other.String())
	if err != nil || !id.Equals(other) { t.Fatalf("id=%s err=%v", id, err) }
	if _, err := programIDFrom("bad"); err == nil { t.Fatalf("expected error") }
}

func TestNewCluster_LocalFundsAuthority(t *testing.T) {
	cfg := config.Config{Cluster: "local", AirdropLamports: 5_000_000_000}
	authority := sol.NewWallet().PublicKey()
	cl, bank, err := newCluster(context.Background(), cfg, nil, program.DefaultProgramID, authority)
	if err != nil || bank == nil || cl == nil { t.Fatalf("newCluster: %v", err) }
	acct, err := bank.GetAccount(context.Background(), authority)
	if err != nil { t.Fatalf("get: %v", err) }
	if acct.Lamports != cfg.AirdropLamports || !acct.Owner.Equals(sol.SystemProgramID) { t.Fatalf("acct=%+v", acct) }

	if _, _, err := newCluster(context.Background(), config.Config{Cluster: "devnet"}, nil, program.DefaultProgramID, authority); err == nil {
		t.Fatalf("expected unknown cluster error")
	}
}

func TestNewKeyStore_MemoryWithoutMongo(t *testing.T) {
	ks, err := newKeyStore(context.Background(), config.Config{}, nil)
	if err != nil { t.Fatalf("newKeyStore: %v", err) }
	if err := ks.Issue(context.Background(), "k", true, "o"); err != nil { t.Fatalf("issue: %v", err) }
	if ok, err := ks.Validate(context.Background(), "k"); err != nil || !ok { t.Fatalf("validate ok=%v err=%v", ok, err) }
}
