package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of account addresses.
const AddressLength = 20

// Address identifies an account able to own tokens or receive royalties. The
// zero value is the null address.
type Address [AddressLength]byte

// ParseAddress decodes a 0x-prefixed hex account address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if len(trimmed) != AddressLength*2 {
		return addr, fmt.Errorf("address must be %d hex characters, got %d", AddressLength*2, len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address encoding: %w", err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

// String renders the address as 0x-prefixed lowercase hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool {
	return a == Address{}
}
