package types

import (
	"time"

	"github.com/example/tokenprog/internal/program"
)

// InitializeRequest is the payload for POST /api/initialize.
type InitializeRequest struct {
	Mint            string `json:"mint"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
	MarketingWallet string `json:"marketing_wallet"`
}

type SetTradingRequest struct {
	Mint    string `json:"mint"`
	Enabled bool   `json:"enabled"`
}

type UpdateFeesRequest struct {
	Mint            string `json:"mint"`
	ReflectionFeeBP uint16 `json:"reflection_fee_bp"`
	MarketingFeeBP  uint16 `json:"marketing_fee_bp"`
	BurnFeeBP       uint16 `json:"burn_fee_bp"`
	DevFeeBP        uint16 `json:"dev_fee_bp"`
}

// TxResponse reports a submitted transaction.
type TxResponse struct {
	Signature string `json:"signature"`
	Config    string `json:"config,omitempty"`
}

// ConfigView is the JSON shape of a decoded TokenConfig.
type ConfigView struct {
	Address              string `json:"address"`
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	Decimals             uint8  `json:"decimals"`
	TotalSupply          uint64 `json:"total_supply"`
	TradingEnabled       bool   `json:"trading_enabled"`
	Authority            string `json:"authority"`
	MarketingWallet      string `json:"marketing_wallet"`
	Mint                 string `json:"mint"`
	MaxTransactionAmount uint64 `json:"max_transaction_amount"`
	MaxWalletAmount      uint64 `json:"max_wallet_amount"`
	ReflectionFeeBP      uint16 `json:"reflection_fee_bp"`
	MarketingFeeBP       uint16 `json:"marketing_fee_bp"`
	BurnFeeBP            uint16 `json:"burn_fee_bp"`
	DevFeeBP             uint16 `json:"dev_fee_bp"`
	BuyCooldown          int64  `json:"buy_cooldown"`
	SellCooldown         int64  `json:"sell_cooldown"`
	TransactionCooldown  int64  `json:"transaction_cooldown"`
}

func NewConfigView(address string, c program.TokenConfig) ConfigView {
	return ConfigView{
		Address:              address,
		Name:                 c.Name,
		Symbol:               c.Symbol,
		Decimals:             c.Decimals,
		TotalSupply:          c.TotalSupply,
		TradingEnabled:       c.TradingEnabled,
		Authority:            c.Authority.String(),
		MarketingWallet:      c.MarketingWallet.String(),
		Mint:                 c.Mint.String(),
		MaxTransactionAmount: c.MaxTransactionAmount,
		MaxWalletAmount:      c.MaxWalletAmount,
		ReflectionFeeBP:      c.ReflectionFeeBP,
		MarketingFeeBP:       c.MarketingFeeBP,
		BurnFeeBP:            c.BurnFeeBP,
		DevFeeBP:             c.DevFeeBP,
		BuyCooldown:          c.BuyCooldown,
		SellCooldown:         c.SellCooldown,
		TransactionCooldown:  c.TransactionCooldown,
	}
}

// GetAccountsRequest is the payload for POST /api/accounts.
type GetAccountsRequest struct {
	Addresses []string `json:"addresses"`
}

// AccountEntry is one resolved account.
type AccountEntry struct {
	Address     string  `json:"address"`
	Lamports    uint64  `json:"lamports"`
	Sol         float64 `json:"sol"`
	Owner       string  `json:"owner"`
	DataLen     int     `json:"data_len"`
	Initialized bool    `json:"initialized"`
	Source      string  `json:"source"`     // "cache" or "cluster"
	FetchedAt   string  `json:"fetched_at"` // RFC3339
}

// ErrorEntry captures per-address errors that occurred while fetching.
type ErrorEntry struct {
	Address string `json:"address"`
	Error   string `json:"error"`
}

type GetAccountsResponse struct {
	Accounts []AccountEntry `json:"accounts"`
	Errors   []ErrorEntry   `json:"errors"`
}

// EventView is a decoded program event.
type EventView struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

type ReceiptResponse struct {
	Signature string      `json:"signature"`
	Slot      uint64      `json:"slot"`
	BlockTime string      `json:"block_time"`
	Logs      []string    `json:"logs"`
	Events    []EventView `json:"events"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  uint32 `json:"code,omitempty"`
}

func NowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// LamportsToSol converts lamports to SOL as a float.
func LamportsToSol(l uint64) float64 { return float64(l) / 1_000_000_000 }
