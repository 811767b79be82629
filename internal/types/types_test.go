package types

import (
	"testing"
	"time"

	"github.com/example/tokenprog/internal/program"
	sol "github.com/gagliardetto/solana-go"
)

func TestNowRFC3339_Format(t *testing.T) {
	if _, err := time.Parse(time.RFC3339, NowRFC3339()); err != nil {
		t.Fatalf("not RFC3339: %v", err)
	}
}

func TestLamportsToSol(t *testing.T) {
	if got := LamportsToSol(2_000_000_000); got != 2.0 { t.Fatalf("want 2.0 got %v", got) }
}

func TestNewConfigView(t *testing.T) {
	auth := sol.NewWallet().PublicKey()
	cfg := program.TokenConfig{Name: "Big Balls", Symbol: "BIGBALLS", Decimals: 9, Authority: auth, TotalSupply: 7, ReflectionFeeBP: 200}
	v := NewConfigView("addr", cfg)
	if v.Address != "addr" || v.Name != "Big Balls" || v.Symbol != "BIGBALLS" || v.Decimals != 9 {
		t.Fatalf("bad view: %+v", v)
	}
	if v.Authority != auth.String() || v.TotalSupply != 7 || v.ReflectionFeeBP != 200 {
		t.Fatalf("bad view: %+v", v)
	}
}
