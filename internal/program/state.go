package program

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
)

const (
	MaxNameLen    = 32
	MaxSymbolLen  = 10
	MaxDecimals   = 9
	MaxTotalFeeBP = 1000

	// baseSupply is the whole-token supply minted at initialization.
	baseSupply = 1_000_000_000
)

// TokenConfig is the program-owned state created by Initialize.
type TokenConfig struct {
	Name            string
	Symbol          string
	Decimals        uint8
	TotalSupply     uint64
	TradingEnabled  bool
	Authority       sol.PublicKey
	MarketingWallet sol.PublicKey
	Mint            sol.PublicKey

	MaxTransactionAmount uint64
	MaxWalletAmount      uint64

	ReflectionFeeBP uint16
	MarketingFeeBP  uint16
	BurnFeeBP       uint16
	DevFeeBP        uint16

	// seconds
	BuyCooldown         int64
	SellCooldown        int64
	TransactionCooldown int64

	Bump uint8
}

// ConfigSpace is the allocated size of a config account, discriminator included.
const ConfigSpace = 8 +
	4 + MaxNameLen +
	4 + MaxSymbolLen +
	1 + // decimals
	8 + // total_supply
	1 + // trading_enabled
	32 + 32 + 32 + // authority, marketing_wallet, mint
	8 + 8 + // limits
	2*4 + // fees
	8*3 + // cooldowns
	1 // bump

var configDiscriminator = discriminator("account", "TokenConfig")

func discriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// newTokenConfig applies the launch defaults for a freshly initialized token.
func newTokenConfig(args InitializeArgs, authority, mint sol.PublicKey, bump uint8) TokenConfig {
	supply := uint64(baseSupply)
	for i := uint8(0); i < args.Decimals; i++ {
		supply *= 10
	}
	return TokenConfig{
		Name:                 args.Name,
		Symbol:               args.Symbol,
		Decimals:             args.Decimals,
		TotalSupply:          supply,
		TradingEnabled:       false,
		Authority:            authority,
		MarketingWallet:      args.MarketingWallet,
		Mint:                 mint,
		MaxTransactionAmount: supply / 1000,
		MaxWalletAmount:      supply / 100,
		ReflectionFeeBP:      200,
		MarketingFeeBP:       150,
		BurnFeeBP:            100,
		DevFeeBP:             50,
		BuyCooldown:          300,
		SellCooldown:         1800,
		TransactionCooldown:  60,
		Bump:                 bump,
	}
}

// TotalFeeBP is the sum of all fee components in basis points.
func (c TokenConfig) TotalFeeBP() uint32 {
	return uint32(c.ReflectionFeeBP) + uint32(c.MarketingFeeBP) + uint32(c.BurnFeeBP) + uint32(c.DevFeeBP)
}

// MarshalAccount encodes c as discriminator followed by its borsh form.
func (c TokenConfig) MarshalAccount() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(configDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode token config: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalConfig decodes account data written by MarshalAccount. Trailing
// allocation padding is ignored.
func UnmarshalConfig(data []byte) (TokenConfig, error) {
	var c TokenConfig
	if !HasConfigDiscriminator(data) {
		return c, ErrNotInitialized
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(&c); err != nil {
		return c, fmt.Errorf("decode token config: %w", err)
	}
	return c, nil
}

// HasConfigDiscriminator reports whether data carries the initialized marker.
func HasConfigDiscriminator(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], configDiscriminator[:])
}
