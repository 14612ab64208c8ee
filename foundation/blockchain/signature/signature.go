// Package signature provides helper functions for hashing and signing the
// values stored in the blockchain.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// storeID is added to the recovery id of every signature so signatures made
// for this chain are never valid on Ethereum, which uses 27.
const storeID = 29

// Set of errors returned when checking a signature.
var (
	ErrRecoveryID = errors.New("invalid recovery id")
	ErrValues     = errors.New("invalid signature values")
)

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// =============================================================================

// Signature is an ECDSA signature in the [R|S|V] format with the store id
// embedded in V.
type Signature struct {
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Sign uses the specified private key to sign the value.
func Sign(value any, privateKey *ecdsa.PrivateKey) (Signature, error) {
	data, err := stamp(value)
	if err != nil {
		return Signature{}, err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return Signature{}, err
	}

	// Check the public key recovered from the signature is the signer's.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return Signature{}, err
	}

	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return Signature{}, errors.New("invalid signature")
	}

	s := Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:64]),
		V: new(big.Int).SetBytes([]byte{sig[64] + storeID}),
	}

	return s, nil
}

// Parse converts the hex representation produced by String back into a
// signature.
func Parse(sigStr string) (Signature, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return Signature{}, fmt.Errorf("decode signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("signature is %d bytes, expected %d", len(sig), crypto.SignatureLength)
	}

	s := Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:64]),
		V: new(big.Int).SetBytes([]byte{sig[64]}),
	}

	return s, nil
}

// IsZero reports whether the signature is missing any of its parts.
func (s Signature) IsZero() bool {
	return s.V == nil || s.R == nil || s.S == nil
}

// Verify checks the signature conforms to our standards.
func (s Signature) Verify() error {
	if s.IsZero() {
		return ErrValues
	}

	id := s.V.Uint64() - storeID
	if id != 0 && id != 1 {
		return ErrRecoveryID
	}

	if !crypto.ValidateSignatureValues(byte(id), s.R, s.S, false) {
		return ErrValues
	}

	return nil
}

// Signer extracts the address of the account that signed the value. The
// exact value that was signed must be provided or a different address is
// returned.
func (s Signature) Signer(value any) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, s.Bytes())
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// Bytes returns the 65 byte signature with the store id removed.
func (s Signature) Bytes() []byte {
	sig := make([]byte, crypto.SignatureLength)
	if s.IsZero() {
		return sig
	}

	s.R.FillBytes(sig[:32])
	s.S.FillBytes(sig[32:64])
	sig[64] = byte(s.V.Uint64() - storeID)

	return sig
}

// String returns the signature as a hex string keeping the store id.
func (s Signature) String() string {
	sig := s.Bytes()
	if !s.IsZero() {
		sig[64] = byte(s.V.Uint64())
	}

	return hexutil.Encode(sig)
}

// =============================================================================

// stamp returns a 32 byte hash of the value with the store stamp embedded.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(v)
	stamp := []byte("\x19Blockstore Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}
