package gateway

import (
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/storage"
)

// Transaction is the rpc view of a transaction recorded in a block.
type Transaction struct {
	Hash        string             `json:"transaction_hash"`
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name,omitempty"`
	ToAccount   database.AccountID `json:"to"`
	ToName      string             `json:"to_name,omitempty"`
	Nonce       uint64             `json:"nonce"`
	Value       uint64             `json:"value"`
	Tip         uint64             `json:"tip"`
	Data        []byte             `json:"data,omitempty"`
	TimeStamp   uint64             `json:"timestamp"`
	GasPrice    uint64             `json:"gas_price"`
	GasUnits    uint64             `json:"gas_units"`
	Sig         string             `json:"sig"`
}

// toTransaction converts a stored transaction into its rpc view.
func toTransaction(tx database.BlockTx) Transaction {
	from, _ := tx.FromAccount()

	return Transaction{
		Hash:        tx.Hash(),
		FromAccount: from,
		ToAccount:   tx.ToID,
		Nonce:       tx.Nonce,
		Value:       tx.Value,
		Tip:         tx.Tip,
		Data:        tx.Data,
		TimeStamp:   tx.TimeStamp,
		GasPrice:    tx.GasPrice,
		GasUnits:    tx.GasUnits,
		Sig:         tx.Signature.String(),
	}
}

// GetBlockTxsByNumber returns the transactions of the specified block in
// their rpc view. A missing block reports ErrBlockNotFound, any other storage
// failure reports an internal error.
func GetBlockTxsByNumber(txn *storage.Txn, number uint64) ([]Transaction, error) {
	trans, err := txn.BlockTransactions(number)
	if err != nil {
		return nil, toError(err, ErrBlockNotFound)
	}

	out := make([]Transaction, len(trans))
	for i, tx := range trans {
		out[i] = toTransaction(tx)
	}

	return out, nil
}
