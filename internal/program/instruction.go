package program

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the address the program is deployed at unless
// configured otherwise.
var DefaultProgramID = sol.MustPublicKeyFromBase58("HSP1yi2aHiKBpYVKv6QkURWSjMhr5WEz3xYdZktBFGVd")

const configSeed = "token_config"

// FindConfigAddress derives the config account address for a mint.
func FindConfigAddress(programID, mint sol.PublicKey) (sol.PublicKey, uint8, error) {
	return sol.FindProgramAddress([][]byte{[]byte(configSeed), mint[:]}, programID)
}

var (
	ixInitialize        = discriminator("global", "initialize")
	ixSetTradingEnabled = discriminator("global", "set_trading_enabled")
	ixUpdateFees        = discriminator("global", "update_fees")
)

// InitializeArgs are the arguments of the initialize instruction.
type InitializeArgs struct {
	Name            string
	Symbol          string
	Decimals        uint8
	MarketingWallet sol.PublicKey
}

type SetTradingEnabledArgs struct {
	Enabled bool
}

// UpdateFeesArgs carries fee components in basis points.
type UpdateFeesArgs struct {
	ReflectionFeeBP uint16
	MarketingFeeBP  uint16
	BurnFeeBP       uint16
	DevFeeBP        uint16
}

func (a UpdateFeesArgs) total() uint32 {
	return uint32(a.ReflectionFeeBP) + uint32(a.MarketingFeeBP) + uint32(a.BurnFeeBP) + uint32(a.DevFeeBP)
}

func encodeInstruction(disc [8]byte, args any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("encode instruction args: %w", err)
	}
	return buf.Bytes(), nil
}

// NewInitializeInstruction builds the initialize instruction for mint, paid
// for and owned by authority.
func NewInitializeInstruction(programID, mint, authority sol.PublicKey, args InitializeArgs) (sol.Instruction, error) {
	config, _, err := FindConfigAddress(programID, mint)
	if err != nil {
		return nil, err
	}
	data, err := encodeInstruction(ixInitialize, args)
	if err != nil {
		return nil, err
	}
	return sol.NewInstruction(programID, sol.AccountMetaSlice{
		sol.NewAccountMeta(config, true, false),
		sol.NewAccountMeta(mint, false, false),
		sol.NewAccountMeta(authority, true, true),
		sol.NewAccountMeta(sol.SystemProgramID, false, false),
	}, data), nil
}

func NewSetTradingEnabledInstruction(programID, mint, authority sol.PublicKey, enabled bool) (sol.Instruction, error) {
	return newAuthorityInstruction(programID, mint, authority, ixSetTradingEnabled, SetTradingEnabledArgs{Enabled: enabled})
}

func NewUpdateFeesInstruction(programID, mint, authority sol.PublicKey, args UpdateFeesArgs) (sol.Instruction, error) {
	return newAuthorityInstruction(programID, mint, authority, ixUpdateFees, args)
}

func newAuthorityInstruction(programID, mint, authority sol.PublicKey, disc [8]byte, args any) (sol.Instruction, error) {
	config, _, err := FindConfigAddress(programID, mint)
	if err != nil {
		return nil, err
	}
	data, err := encodeInstruction(disc, args)
	if err != nil {
		return nil, err
	}
	return sol.NewInstruction(programID, sol.AccountMetaSlice{
		sol.NewAccountMeta(config, true, false),
		sol.NewAccountMeta(authority, false, true),
	}, data), nil
}

func decodeArgs(data []byte, v any) error {
	if err := bin.NewBorshDecoder(data).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	return nil
}
