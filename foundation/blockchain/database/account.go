package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AccountID is the hex address of the key that signs a transaction. It
// identifies senders, receivers and block beneficiaries.
type AccountID string

// ToAccountID validates the hex address and returns it in checksum form.
func ToAccountID(hex string) (AccountID, error) {
	if !common.IsHexAddress(hex) {
		return "", fmt.Errorf("invalid account id %q", hex)
	}

	return AccountID(common.HexToAddress(hex).Hex()), nil
}

// PublicKeyToAccountID derives the account id of the public key.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).Hex())
}

// IsAccountID reports whether the value is a well formed hex address.
func (a AccountID) IsAccountID() bool {
	return common.IsHexAddress(string(a))
}
