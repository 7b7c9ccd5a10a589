package tx

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Type represents a transaction type code
type Type uint8

// Transaction type codes handled by the node
const (
	TypeSend        Type = 0
	TypeDapp        Type = 5
	TypeInTransfer  Type = 6
	TypeOutTransfer Type = 7
)

// typeNames maps transaction types to their names
var typeNames = map[Type]string{
	TypeSend:        "send",
	TypeDapp:        "dapp",
	TypeInTransfer:  "inTransfer",
	TypeOutTransfer: "outTransfer",
}

// String returns the name of the transaction type
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", t)
}

// TypeFromName returns the transaction type for a given name
func TypeFromName(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// FixedPoint is the number of base units in one LSK.
const FixedPoint uint64 = 100_000_000

// FeeSchedule holds the fixed fee of each transaction type in base units.
type FeeSchedule struct {
	Send        uint64
	Dapp        uint64
	InTransfer  uint64
	OutTransfer uint64
}

// DefaultFees returns the standard fee table.
func DefaultFees() FeeSchedule {
	return FeeSchedule{
		Send:        FixedPoint / 10,
		Dapp:        25 * FixedPoint,
		InTransfer:  FixedPoint / 10,
		OutTransfer: FixedPoint / 10,
	}
}

// For returns the fee of a transaction type.
func (f FeeSchedule) For(t Type) (uint64, bool) {
	switch t {
	case TypeSend:
		return f.Send, true
	case TypeDapp:
		return f.Dapp, true
	case TypeInTransfer:
		return f.InTransfer, true
	case TypeOutTransfer:
		return f.OutTransfer, true
	}
	return 0, false
}

// FormatLSK renders a base unit amount in LSK without trailing zeros.
func FormatLSK(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -8).String()
}

// ParseLSK converts an LSK amount such as "0.1" to base units.
func ParseLSK(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid LSK amount %q: %w", s, err)
	}
	units := d.Shift(8)
	if !units.IsInteger() || units.IsNegative() {
		return 0, fmt.Errorf("invalid LSK amount %q", s)
	}
	b := units.BigInt()
	if !b.IsUint64() {
		return 0, fmt.Errorf("LSK amount out of range: %s", s)
	}
	return b.Uint64(), nil
}
