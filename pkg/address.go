package pkg

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// IdentityLength is the size in bytes of a decoded account identity.
const IdentityLength = 32

// ValidateIdentity checks that identity is a base58 encoded 32-byte public key,
// the format every borrower, lender, authority and treasury is addressed by.
func ValidateIdentity(identity string) error {
	if identity == "" {
		return fmt.Errorf("identity is empty")
	}

	decoded := base58.Decode(identity)
	// Decode returns an empty slice on invalid characters
	if len(decoded) == 0 {
		return fmt.Errorf("identity %q is not valid base58", identity)
	}

	if len(decoded) != IdentityLength {
		return fmt.Errorf("identity %q decodes to %d bytes, expected %d", identity, len(decoded), IdentityLength)
	}

	return nil
}

// EncodeIdentity renders raw key bytes as an identity string.
func EncodeIdentity(key []byte) (string, error) {
	if len(key) != IdentityLength {
		return "", fmt.Errorf("identity key must be %d bytes, got %d", IdentityLength, len(key))
	}
	return base58.Encode(key), nil
}
