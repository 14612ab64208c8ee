// Package genesis maintains access to the genesis file and generates demo
// chains from it.
package genesis

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time            `json:"date"`
	ChainID       uint16               `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	Beneficiary   database.AccountID   `json:"beneficiary"`     // The account producing generated blocks.
	TransPerBlock uint16               `json:"trans_per_block"` // The number of transactions put in each generated block.
	GasPrice      uint64               `json:"gas_price"`       // Fee paid for each transaction in a block.
	Accounts      []database.AccountID `json:"accounts"`        // Accounts receiving generated transactions.
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Generate produces n blocks following parent, or starting a new chain when
// parent is nil. Every transaction is signed with privateKey.
func (g Genesis) Generate(privateKey *ecdsa.PrivateKey, parent *database.Block, n int) ([]database.Block, error) {
	if len(g.Accounts) == 0 {
		return nil, errors.New("genesis has no accounts")
	}

	nonce := uint64(1)
	if parent != nil {
		nonce = (parent.Header.Number+1)*uint64(g.TransPerBlock) + 1
	}

	blocks := make([]database.Block, 0, n)
	for i := 0; i < n; i++ {
		trans := make([]database.BlockTx, 0, g.TransPerBlock)

		for j := 0; j < int(g.TransPerBlock); j++ {
			toID := g.Accounts[(i+j)%len(g.Accounts)]

			tx, err := database.NewTx(nonce, toID, uint64(10*(j+1)), 1, nil)
			if err != nil {
				return nil, err
			}
			nonce++

			signed, err := tx.Sign(privateKey)
			if err != nil {
				return nil, err
			}

			trans = append(trans, database.NewBlockTx(signed, g.GasPrice, 1))
		}

		block, err := database.NewBlock(g.Beneficiary, parent, trans)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
		parent = &blocks[len(blocks)-1]
	}

	return blocks, nil
}
