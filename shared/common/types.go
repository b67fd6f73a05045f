package common

import (
	"database/sql/driver"
	"fmt"
)

// AddressLength is the expected length of the address
const AddressLength = 20

// Address represents the 20 byte address of a staking account.
type Address []byte

// BytesToAddress returns Address with value b.
// If b is larger than len(a), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	if len(b) == 0 {
		return nil
	}

	var a Address = make([]byte, AddressLength)
	a.SetBytes(b)
	return a
}

// HexToAddress returns Address with byte values of s.
// If s is larger than len(a), s will be cropped from the left.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// IsHexAddress verifies whether a string can represent a valid hex-encoded
// staking address or not.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	return len(s) == 2*AddressLength && isHex(s)
}

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string {
	if a == nil {
		return ""
	}

	return Encode(a)
}

// IsEmpty returns true for a nil or all-zero address.
func (a Address) IsEmpty() bool {
	if len(a) == 0 {
		return true
	}

	for _, b := range a {
		if b != 0 {
			return false
		}
	}

	return true
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// SetBytes sets the address to the value of b.
// If b is larger than len(a), b will be cropped from the left.
func (a Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}

	copy(a[AddressLength-len(b):], b)
}

// Scan implements Scanner for database/sql.
func (a Address) Scan(src interface{}) error {
	srcB, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("can't scan %T into Address", src)
	}
	if len(srcB) != AddressLength {
		return fmt.Errorf("can't scan []byte of len %d into Address, want %d", len(srcB), AddressLength)
	}
	copy(a, srcB)
	return nil
}

// Value implements valuer for database/sql.
func (a Address) Value() (driver.Value, error) {
	return a, nil
}
