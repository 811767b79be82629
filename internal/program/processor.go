package program

import (
	"errors"
	"fmt"

	"github.com/example/tokenprog/internal/ledger"
	sol "github.com/gagliardetto/solana-go"
)

// Processor is the token-configuration program. It is registered with a
// ledger.Bank and invoked once per instruction.
type Processor struct {
	id sol.PublicKey
}

func NewProcessor(id sol.PublicKey) *Processor { return &Processor{id: id} }

func (p *Processor) ProgramID() sol.PublicKey { return p.id }

// Process dispatches on the 8-byte instruction discriminator.
func (p *Processor) Process(ic *ledger.InvokeContext, accounts []ledger.InstructionAccount, data []byte) error {
	if len(data) < 8 {
		return ErrInvalidInstruction
	}
	var disc [8]byte
	copy(disc[:], data[:8])
	args := data[8:]
	switch disc {
	case ixInitialize:
		var a InitializeArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		ic.Log("Program log: Instruction: Initialize")
		return p.initialize(ic, accounts, a)
	case ixSetTradingEnabled:
		var a SetTradingEnabledArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		ic.Log("Program log: Instruction: SetTradingEnabled")
		return p.setTradingEnabled(ic, accounts, a)
	case ixUpdateFees:
		var a UpdateFeesArgs
		if err := decodeArgs(args, &a); err != nil {
			return err
		}
		ic.Log("Program log: Instruction: UpdateFees")
		return p.updateFees(ic, accounts, a)
	default:
		return ErrInvalidInstruction
	}
}

// initialize creates the config account for a mint. Every precondition is
// checked before the first mutation.
func (p *Processor) initialize(ic *ledger.InvokeContext, accounts []ledger.InstructionAccount, args InitializeArgs) error {
	if len(accounts) < 4 {
		return ErrAccountMismatch
	}
	configMeta, mintMeta, authMeta := accounts[0], accounts[1], accounts[2]
	if !accounts[3].Key.Equals(sol.SystemProgramID) {
		return fmt.Errorf("%w: expected system program, got %s", ErrAccountMismatch, accounts[3].Key)
	}

	want, bump, err := FindConfigAddress(p.id, mintMeta.Key)
	if err != nil {
		return err
	}
	if !configMeta.Key.Equals(want) {
		return ErrInvalidConfigAddress
	}
	config, err := ic.Account(configMeta.Key)
	if err != nil {
		return err
	}
	if p.initialized(*config) {
		return ErrAlreadyInitialized
	}
	if !authMeta.IsSigner || !ic.IsSigner(authMeta.Key) {
		return ErrUnauthorized
	}
	if args.MarketingWallet.IsZero() {
		return ErrInvalidMarketingWallet
	}
	if args.Name == "" || len(args.Name) > MaxNameLen || args.Symbol == "" || len(args.Symbol) > MaxSymbolLen || args.Decimals > MaxDecimals {
		return ErrInvalidMetadata
	}
	payer, err := ic.Account(authMeta.Key)
	if err != nil {
		return err
	}
	// a prefunded config address only needs topping up
	var shortfall uint64
	if need := ic.Rent().MinimumBalance(ConfigSpace); config.Lamports < need {
		shortfall = need - config.Lamports
	}
	if payer.Lamports < shortfall {
		return fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientResources, shortfall, payer.Lamports)
	}

	cfg := newTokenConfig(args, authMeta.Key, mintMeta.Key, bump)
	raw, err := cfg.MarshalAccount()
	if err != nil {
		return err
	}
	acct, err := ic.InitAccount(authMeta.Key, configMeta.Key, ConfigSpace, p.id)
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fmt.Errorf("%w: %v", ErrInsufficientResources, err)
	case errors.Is(err, ledger.ErrAccountInUse):
		return fmt.Errorf("%w: config address %s is in use", ErrAccountMismatch, configMeta.Key)
	case errors.Is(err, ledger.ErrMissingSigner):
		return ErrUnauthorized
	case err != nil:
		return err
	}
	copy(acct.Data, raw)

	return emit(ic, "TokenInitialized", TokenInitialized{
		Mint:            cfg.Mint,
		Authority:       cfg.Authority,
		TotalSupply:     cfg.TotalSupply,
		Decimals:        cfg.Decimals,
		MarketingWallet: cfg.MarketingWallet,
	})
}

func (p *Processor) initialized(a ledger.Account) bool {
	return a.Owner.Equals(p.id) && HasConfigDiscriminator(a.Data)
}

// loadForAuthority returns the config account and its decoded state after
// checking that accounts[1] signed and is the recorded authority.
func (p *Processor) loadForAuthority(ic *ledger.InvokeContext, accounts []ledger.InstructionAccount) (*ledger.Account, TokenConfig, error) {
	if len(accounts) < 2 {
		return nil, TokenConfig{}, ErrAccountMismatch
	}
	acct, err := ic.Account(accounts[0].Key)
	if err != nil {
		return nil, TokenConfig{}, err
	}
	if !p.initialized(*acct) {
		return nil, TokenConfig{}, ErrNotInitialized
	}
	cfg, err := UnmarshalConfig(acct.Data)
	if err != nil {
		return nil, TokenConfig{}, err
	}
	auth := accounts[1]
	if !auth.IsSigner || !ic.IsSigner(auth.Key) || !auth.Key.Equals(cfg.Authority) {
		return nil, TokenConfig{}, ErrUnauthorized
	}
	return acct, cfg, nil
}

func (p *Processor) store(acct *ledger.Account, cfg TokenConfig) error {
	raw, err := cfg.MarshalAccount()
	if err != nil {
		return err
	}
	if len(raw) > len(acct.Data) {
		return fmt.Errorf("config encodes to %d bytes, account holds %d", len(raw), len(acct.Data))
	}
	data := make([]byte, len(acct.Data))
	copy(data, raw)
	acct.Data = data
	return nil
}

func (p *Processor) setTradingEnabled(ic *ledger.InvokeContext, accounts []ledger.InstructionAccount, args SetTradingEnabledArgs) error {
	acct, cfg, err := p.loadForAuthority(ic, accounts)
	if err != nil {
		return err
	}
	cfg.TradingEnabled = args.Enabled
	if err := p.store(acct, cfg); err != nil {
		return err
	}
	return emit(ic, "TradingStatusChanged", TradingStatusChanged{
		Enabled:   args.Enabled,
		Timestamp: ic.Now().Unix(),
	})
}

func (p *Processor) updateFees(ic *ledger.InvokeContext, accounts []ledger.InstructionAccount, args UpdateFeesArgs) error {
	acct, cfg, err := p.loadForAuthority(ic, accounts)
	if err != nil {
		return err
	}
	if args.total() > MaxTotalFeeBP {
		return ErrInvalidFeeConfiguration
	}
	cfg.ReflectionFeeBP = args.ReflectionFeeBP
	cfg.MarketingFeeBP = args.MarketingFeeBP
	cfg.BurnFeeBP = args.BurnFeeBP
	cfg.DevFeeBP = args.DevFeeBP
	if err := p.store(acct, cfg); err != nil {
		return err
	}
	return emit(ic, "FeesUpdated", FeesUpdated{
		ReflectionFeeBP: args.ReflectionFeeBP,
		MarketingFeeBP:  args.MarketingFeeBP,
		BurnFeeBP:       args.BurnFeeBP,
		DevFeeBP:        args.DevFeeBP,
		Timestamp:       ic.Now().Unix(),
	})
}
