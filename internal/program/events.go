package program

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/example/tokenprog/internal/ledger"
	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
)

const eventLogPrefix = "Program data: "

type TokenInitialized struct {
	Mint            sol.PublicKey
	Authority       sol.PublicKey
	TotalSupply     uint64
	Decimals        uint8
	MarketingWallet sol.PublicKey
}

type TradingStatusChanged struct {
	Enabled   bool
	Timestamp int64
}

type FeesUpdated struct {
	ReflectionFeeBP uint16
	MarketingFeeBP  uint16
	BurnFeeBP       uint16
	DevFeeBP        uint16
	Timestamp       int64
}

// Event is a decoded program event. Value holds one of the event structs.
type Event struct {
	Name  string
	Value any
}

var eventTypes = map[[8]byte]struct {
	name string
	make func() any
}{
	discriminator("event", "TokenInitialized"):     {"TokenInitialized", func() any { return new(TokenInitialized) }},
	discriminator("event", "TradingStatusChanged"): {"TradingStatusChanged", func() any { return new(TradingStatusChanged) }},
	discriminator("event", "FeesUpdated"):          {"FeesUpdated", func() any { return new(FeesUpdated) }},
}

func emit(ic *ledger.InvokeContext, name string, ev any) error {
	d := discriminator("event", name)
	buf := new(bytes.Buffer)
	buf.Write(d[:])
	if err := bin.NewBorshEncoder(buf).Encode(ev); err != nil {
		return fmt.Errorf("encode event %s: %w", name, err)
	}
	ic.Log("%s%s", eventLogPrefix, base64.StdEncoding.EncodeToString(buf.Bytes()))
	return nil
}

// ParseEvents decodes the events found in a transaction's log lines.
// Unknown event payloads are skipped.
func ParseEvents(logs []string) ([]Event, error) {
	var out []Event
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, eventLogPrefix)
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("event payload: %w", err)
		}
		if len(raw) < 8 {
			continue
		}
		var d [8]byte
		copy(d[:], raw[:8])
		et, ok := eventTypes[d]
		if !ok {
			continue
		}
		v := et.make()
		if err := bin.NewBorshDecoder(raw[8:]).Decode(v); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", et.name, err)
		}
		out = append(out, Event{Name: et.name, Value: v})
	}
	return out, nil
}
