package builders

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

// Account is a test account derived from a name.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Address is the ledger address, "<digits>L".
	Address string

	// PublicKey is the hex encoded 32-byte public key.
	PublicKey string
}

// NewAccount creates a test account. Using the same name always produces the
// same account.
func NewAccount(name string) *Account {
	key := sha256.Sum256([]byte(name))
	digest := sha256.Sum256(key[:])
	return &Account{
		Name:      name,
		Address:   strconv.FormatUint(binary.LittleEndian.Uint64(digest[:8]), 10) + "L",
		PublicKey: hex.EncodeToString(key[:]),
	}
}

// LSK converts whole LSK to base units.
func LSK(n uint64) uint64 {
	return n * 100_000_000
}
