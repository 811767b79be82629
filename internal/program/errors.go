package program

import "fmt"

// Error is a typed program failure. Codes follow the custom-error range
// clients expect from on-chain programs (6000 and up).
type Error struct {
	Code uint32
	Name string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg) }

var (
	ErrAlreadyInitialized      = &Error{Code: 6000, Name: "AlreadyInitialized", Msg: "Account is already initialized"}
	ErrInsufficientResources   = &Error{Code: 6001, Name: "InsufficientResources", Msg: "Payer cannot fund account allocation"}
	ErrUnauthorized            = &Error{Code: 6002, Name: "Unauthorized", Msg: "Unauthorized"}
	ErrInvalidMarketingWallet  = &Error{Code: 6003, Name: "InvalidMarketingWallet", Msg: "Invalid marketing wallet address"}
	ErrInvalidFeeConfiguration = &Error{Code: 6004, Name: "InvalidFeeConfiguration", Msg: "Invalid fee configuration"}
	ErrInvalidMetadata         = &Error{Code: 6005, Name: "InvalidMetadata", Msg: "Name, symbol or decimals out of range"}
	ErrInvalidConfigAddress    = &Error{Code: 6006, Name: "InvalidConfigAddress", Msg: "Config account does not match its derived address"}
	ErrInvalidInstruction      = &Error{Code: 6007, Name: "InvalidInstruction", Msg: "Unknown or malformed instruction data"}
	ErrNotInitialized          = &Error{Code: 6008, Name: "NotInitialized", Msg: "Config account is not initialized"}
	ErrAccountMismatch         = &Error{Code: 6009, Name: "AccountMismatch", Msg: "Missing or unexpected instruction accounts"}
)

var byCode = map[uint32]*Error{}

func init() {
	for _, e := range []*Error{
		ErrAlreadyInitialized, ErrInsufficientResources, ErrUnauthorized,
		ErrInvalidMarketingWallet, ErrInvalidFeeConfiguration, ErrInvalidMetadata,
		ErrInvalidConfigAddress, ErrInvalidInstruction, ErrNotInitialized, ErrAccountMismatch,
	} {
		byCode[e.Code] = e
	}
}

// ErrorFromCode maps a custom error code reported by a cluster back to its
// typed error.
func ErrorFromCode(code uint32) (*Error, bool) {
	e, ok := byCode[code]
	return e, ok
}
