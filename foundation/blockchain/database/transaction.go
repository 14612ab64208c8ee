package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Tx is the transactional information between two parties.
type Tx struct {
	Nonce uint64    `json:"nonce"` // Unique id for the transaction supplied by the user.
	ToID  AccountID `json:"to"`    // Account receiving the benefit of the transaction.
	Value uint64    `json:"value"` // Monetary value received from this transaction.
	Tip   uint64    `json:"tip"`   // Tip offered by the sender to include this transaction.
	Data  []byte    `json:"data"`  // Extra data related to the transaction.
}

// NewTx constructs a new transaction.
func NewTx(nonce uint64, toID AccountID, value uint64, tip uint64, data []byte) (Tx, error) {
	if !toID.IsAccountID() {
		return Tx{}, errors.New("to account is not properly formatted")
	}

	tx := Tx{
		Nonce: nonce,
		ToID:  toID,
		Value: value,
		Tip:   tip,
		Data:  data,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	if !tx.ToID.IsAccountID() {
		return SignedTx{}, errors.New("to account is not properly formatted")
	}

	sig, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	return SignedTx{Tx: tx, Signature: sig}, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain.
type SignedTx struct {
	Tx
	Signature signature.Signature `json:"signature"`
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and checks the format of the to account.
func (tx SignedTx) Validate() error {
	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	return tx.Signature.Verify()
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := tx.Signature.Signer(tx.Tx)
	return AccountID(address), err
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d", from, tx.Nonce)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // The time the transaction was received.
	GasPrice  uint64 `json:"gas_price"` // The price of one unit of gas to be paid for fees.
	GasUnits  uint64 `json:"gas_units"` // The number of units of gas used for this transaction.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx, gasPrice uint64, unitsOfGas uint64) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: uint64(time.Now().UTC().Unix()),
		GasPrice:  gasPrice,
		GasUnits:  unitsOfGas,
	}
}

// Hash returns the transaction hash used to look the transaction up.
func (tx BlockTx) Hash() string {
	return signature.Hash(tx)
}

// hashBytes returns the transaction hash as a merkle leaf.
func (tx BlockTx) hashBytes() ([]byte, error) {
	return hexutil.Decode(tx.Hash())
}
