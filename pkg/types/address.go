package types

// Address is the hash of a public key's canonical encoding (spec.md §2,
// "Address derivation"). It is derived by crypto.AddressFromPubKey or
// parsed from hex (HexToAddress, UnmarshalJSON), and is compared for
// equality against the hex token carried in a locking script.
type Address Hash

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return Hash(a).IsZero()
}

// String returns the lowercase hex-encoded address.
func (a Address) String() string {
	return Hash(a).String()
}

// MarshalJSON encodes the address as a hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return Hash(a).MarshalJSON()
}

// UnmarshalJSON decodes a hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	return (*Hash)(a).UnmarshalJSON(data)
}

// HexToAddress converts a hex string to an Address.
func HexToAddress(s string) (Address, error) {
	h, err := HexToHash(s)
	return Address(h), err
}
