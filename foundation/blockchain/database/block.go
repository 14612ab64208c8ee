package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/merkle"
	"github.com/ardanlabs/blockstore/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64    `json:"number"`          // Block number in the chain.
	PrevBlockHash string    `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64    `json:"timestamp"`       // Time the block was produced.
	BeneficiaryID AccountID `json:"beneficiary"`     // The account who produced the block.
	TransRoot     string    `json:"trans_root"`      // Merkle root of the transactions in this block.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader `json:"header"`
	Trans  []BlockTx   `json:"trans"`
}

// NewBlock constructs the block that follows parent with the specified
// transactions. A nil parent produces the genesis block.
func NewBlock(beneficiaryID AccountID, parent *Block, trans []BlockTx) (Block, error) {
	root, err := ComputeTransRoot(trans)
	if err != nil {
		return Block{}, err
	}

	header := BlockHeader{
		PrevBlockHash: signature.ZeroHash,
		TimeStamp:     uint64(time.Now().UTC().Unix()),
		BeneficiaryID: beneficiaryID,
		TransRoot:     root,
	}

	if parent != nil {
		header.Number = parent.Header.Number + 1
		header.PrevBlockHash = parent.Hash()
		if header.TimeStamp < parent.Header.TimeStamp {
			header.TimeStamp = parent.Header.TimeStamp
		}
	}

	return Block{Header: header, Trans: trans}, nil
}

// Hash returns the unique hash for the Block. Only the header is hashed so the
// chain can be checked with headers alone.
func (b Block) Hash() string {
	return signature.Hash(b.Header)
}

// ValidateGenesis checks the block can start a new chain.
func (b Block) ValidateGenesis() error {
	if b.Header.Number != 0 {
		return fmt.Errorf("genesis block must be number 0, got %d", b.Header.Number)
	}

	if b.Header.PrevBlockHash != signature.ZeroHash {
		return fmt.Errorf("genesis block must have a zero parent hash, got %s", b.Header.PrevBlockHash)
	}

	return b.validateTrans()
}

// Validate takes a block and validates it to be appended after prev.
func (b Block) Validate(prev Block, evHandler EvHandler) error {
	evHandler("database: Validate: blk[%d]: check: chain is not forked", b.Header.Number)

	nextNumber := prev.Header.Number + 1
	if b.Header.Number >= nextNumber+2 {
		return ErrChainForked
	}

	evHandler("database: Validate: blk[%d]: check: block number is the next number", b.Header.Number)

	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: Validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != prev.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, prev.Hash())
	}

	if prev.Header.TimeStamp > 0 {
		evHandler("database: Validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

		parentTime := time.Unix(int64(prev.Header.TimeStamp), 0)
		blockTime := time.Unix(int64(b.Header.TimeStamp), 0)
		if blockTime.Before(parentTime) {
			return fmt.Errorf("block timestamp is before parent block, parent %s, block %s", parentTime, blockTime)
		}
	}

	evHandler("database: Validate: blk[%d]: check: merkle root and signatures", b.Header.Number)

	return b.validateTrans()
}

// TxIndex returns the position of the transaction with the specified hash.
func (b Block) TxIndex(hash string) (int, bool) {
	for i, tx := range b.Trans {
		if tx.Hash() == hash {
			return i, true
		}
	}

	return 0, false
}

// TxProof returns the merkle proof that the transaction at index is part of
// the block's trans root.
func (b Block) TxProof(index int) (TxProof, error) {
	if index < 0 || index >= len(b.Trans) {
		return TxProof{}, ErrNotFound
	}

	tree, err := transTree(b.Trans)
	if err != nil {
		return TxProof{}, err
	}

	hashes, order, err := tree.Proof(index)
	if err != nil {
		return TxProof{}, err
	}

	proof := TxProof{
		TxHash: b.Trans[index].Hash(),
		Root:   tree.RootHex(),
		Order:  order,
	}
	for _, h := range hashes {
		proof.Hashes = append(proof.Hashes, hexutil.Encode(h))
	}

	return proof, nil
}

// validateTrans checks the trans root and every transaction signature.
func (b Block) validateTrans() error {
	root, err := ComputeTransRoot(b.Trans)
	if err != nil {
		return err
	}

	if b.Header.TransRoot != root {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", root, b.Header.TransRoot)
	}

	for i, tx := range b.Trans {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("tx[%d]: %w", i, err)
		}
	}

	return nil
}

// =============================================================================

// TxProof carries the merkle proof for one transaction.
type TxProof struct {
	TxHash string         `json:"tx_hash"`
	Root   string         `json:"root"`
	Hashes []string       `json:"hashes"`
	Order  []merkle.Order `json:"order"`
}

// Verify recomputes the root from the proof.
func (p TxProof) Verify() error {
	leaf, err := hexutil.Decode(p.TxHash)
	if err != nil {
		return err
	}

	root, err := hexutil.Decode(p.Root)
	if err != nil {
		return err
	}

	hashes := make([][]byte, len(p.Hashes))
	for i, h := range p.Hashes {
		if hashes[i], err = hexutil.Decode(h); err != nil {
			return err
		}
	}

	if !merkle.VerifyProof(leaf, hashes, p.Order, root, nil) {
		return errors.New("proof does not match root")
	}

	return nil
}

// ComputeTransRoot returns the merkle root of the transactions. A block
// without transactions has the zero hash as its root.
func ComputeTransRoot(trans []BlockTx) (string, error) {
	if len(trans) == 0 {
		return signature.ZeroHash, nil
	}

	tree, err := transTree(trans)
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

func transTree(trans []BlockTx) (*merkle.Tree, error) {
	leaves := make([][]byte, len(trans))
	for i, tx := range trans {
		h, err := tx.hashBytes()
		if err != nil {
			return nil, err
		}
		leaves[i] = h
	}

	return merkle.New(leaves)
}
