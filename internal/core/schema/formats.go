package schema

import (
	"encoding/hex"
	"regexp"
	"strconv"
)

// Format names understood by the validator.
const (
	FormatID        = "id"
	FormatAddress   = "address"
	FormatPublicKey = "publicKey"
	FormatSignature = "signature"
	FormatHex       = "hex"
)

var (
	idPattern      = regexp.MustCompile(`^[0-9]{1,20}$`)
	addressPattern = regexp.MustCompile(`^[0-9]{1,20}L$`)
)

var formats = map[string]func(string) bool{
	FormatID:        isID,
	FormatAddress:   isAddress,
	FormatPublicKey: func(s string) bool { return isHexOfLength(s, 32) },
	FormatSignature: func(s string) bool { return isHexOfLength(s, 64) },
	FormatHex:       func(s string) bool { _, err := hex.DecodeString(s); return err == nil },
}

// isID reports whether s is a decimal string that fits in 64 bits.
func isID(s string) bool {
	if !idPattern.MatchString(s) {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func isAddress(s string) bool {
	if !addressPattern.MatchString(s) {
		return false
	}
	_, err := strconv.ParseUint(s[:len(s)-1], 10, 64)
	return err == nil
}

func isHexOfLength(s string, n int) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == n
}

// CheckFormat reports whether value satisfies the named format.
// Unknown formats never match.
func CheckFormat(format, value string) bool {
	check, ok := formats[format]
	if !ok {
		return false
	}
	return check(value)
}
