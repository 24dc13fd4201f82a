package util

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// EthereumAddress wraps a checksummed Ethereum address. The zero value is
// the zero address; construct with NewEthereumAddressFromString to validate.
type EthereumAddress struct {
	addr common.Address
}

// NewEthereumAddressFromString parses and validates a 0x-prefixed hex address.
func NewEthereumAddressFromString(s string) (EthereumAddress, error) {
	if !common.IsHexAddress(s) {
		return EthereumAddress{}, errors.Errorf("invalid ethereum address: %s", s)
	}
	return EthereumAddress{addr: common.HexToAddress(s)}, nil
}

// NewEthereumAddressFromBytes builds an address from a 20-byte slice.
func NewEthereumAddressFromBytes(b []byte) (EthereumAddress, error) {
	if len(b) != common.AddressLength {
		return EthereumAddress{}, errors.Errorf("invalid address length: %d", len(b))
	}
	return EthereumAddress{addr: common.BytesToAddress(b)}, nil
}

// Address returns the lowercase hex representation, 0x-prefixed.
func (e EthereumAddress) Address() string {
	return strings.ToLower(e.addr.Hex())
}

// Common returns the underlying go-ethereum address.
func (e EthereumAddress) Common() common.Address {
	return e.addr
}

// Bytes returns the raw 20-byte address.
func (e EthereumAddress) Bytes() []byte {
	return e.addr.Bytes()
}

// Equal compares two addresses byte-wise.
func (e EthereumAddress) Equal(other EthereumAddress) bool {
	return e.addr == other.addr
}

// IsZero reports whether the address is the zero address.
func (e EthereumAddress) IsZero() bool {
	return e.addr == (common.Address{})
}

// IsValidAddress reports whether s is a syntactically valid hex address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// SameAddress compares two hex address strings case-insensitively. Invalid
// inputs never compare equal.
func SameAddress(a, b string) bool {
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
