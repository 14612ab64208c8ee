package storage

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
	bolt "go.etcd.io/bbolt"
)

// Txn is a consistent view of the index. Blocks are read from the blocks file
// through the locations the view holds. A Txn is only valid inside the
// function it was handed to.
type Txn struct {
	tx      *bolt.Tx
	storage *Storage
}

// Writable reports whether the transaction can append blocks.
func (t *Txn) Writable() bool {
	return t.tx.Writable()
}

// NextBlockNumber returns the number the next appended block must have.
func (t *Txn) NextBlockNumber() (uint64, error) {
	v := t.tx.Bucket(bucketMarkers).Get(markerNextBlock)
	if v == nil {
		return 0, nil
	}

	return decodeUint64(v)
}

// LatestBlockNumber returns the number of the last appended block. It
// returns database.ErrNotFound when nothing was appended yet.
func (t *Txn) LatestBlockNumber() (uint64, error) {
	next, err := t.NextBlockNumber()
	if err != nil {
		return 0, err
	}

	if next == 0 {
		return 0, database.ErrNotFound
	}

	return next - 1, nil
}

// FileOffset returns the offset in the blocks file the next block is
// written to.
func (t *Txn) FileOffset() (int, error) {
	v := t.tx.Bucket(bucketMarkers).Get(markerOffset)
	if v == nil {
		return 0, nil
	}

	off, err := decodeUint64(v)
	return int(off), err
}

// Location returns where the specified block is kept in the blocks file.
func (t *Txn) Location(number uint64) (mmapfile.LocationInFile, error) {
	v := t.tx.Bucket(bucketBlocks).Get(encodeUint64(number))
	if v == nil {
		return mmapfile.LocationInFile{}, fmt.Errorf("block %d: %w", number, database.ErrNotFound)
	}

	return decodeLocation(v)
}

// Block returns the specified block.
func (t *Txn) Block(number uint64) (database.Block, error) {
	loc, err := t.Location(number)
	if err != nil {
		return database.Block{}, err
	}

	return t.storage.reader.Get(loc)
}

// BlockHeader returns the header of the specified block.
func (t *Txn) BlockHeader(number uint64) (database.BlockHeader, error) {
	block, err := t.Block(number)
	if err != nil {
		return database.BlockHeader{}, err
	}

	return block.Header, nil
}

// BlockTransactions returns the transactions of the specified block.
func (t *Txn) BlockTransactions(number uint64) ([]database.BlockTx, error) {
	block, err := t.Block(number)
	if err != nil {
		return nil, err
	}

	return block.Trans, nil
}

// TxLocation returns the block and position holding the transaction.
func (t *Txn) TxLocation(hash string) (TxLocation, error) {
	v := t.tx.Bucket(bucketTxs).Get([]byte(hash))
	if v == nil {
		return TxLocation{}, fmt.Errorf("tx %s: %w", hash, database.ErrNotFound)
	}

	return decodeTxLocation(v)
}

// TransactionByHash returns the transaction with the specified hash along
// with the block that holds it.
func (t *Txn) TransactionByHash(hash string) (database.BlockTx, database.Block, TxLocation, error) {
	loc, err := t.TxLocation(hash)
	if err != nil {
		return database.BlockTx{}, database.Block{}, TxLocation{}, err
	}

	block, err := t.Block(loc.BlockNumber)
	if err != nil {
		return database.BlockTx{}, database.Block{}, TxLocation{}, err
	}

	if int(loc.Index) >= len(block.Trans) {
		return database.BlockTx{}, database.Block{}, TxLocation{}, fmt.Errorf("storage: tx %s index %d past block %d", hash, loc.Index, loc.BlockNumber)
	}

	return block.Trans[loc.Index], block, loc, nil
}

// Append validates the block against the latest block, writes it to the
// blocks file and indexes it. The index changes become visible when the
// enclosing update commits. Bytes written for an update that never commits
// are overwritten by the next append.
func (t *Txn) Append(block database.Block) (mmapfile.LocationInFile, error) {
	if !t.tx.Writable() {
		return mmapfile.LocationInFile{}, errors.New("storage: append in a read only transaction")
	}

	ev := t.storage.evHandler
	number := block.Header.Number

	next, err := t.NextBlockNumber()
	if err != nil {
		return mmapfile.LocationInFile{}, err
	}

	ev("storage: Append: blk[%d]: next[%d]: validate", number, next)

	if next == 0 {
		if err := block.ValidateGenesis(); err != nil {
			return mmapfile.LocationInFile{}, err
		}
	} else {
		prev, err := t.Block(next - 1)
		if err != nil {
			return mmapfile.LocationInFile{}, fmt.Errorf("reading latest block: %w", err)
		}

		if err := block.Validate(prev, ev); err != nil {
			return mmapfile.LocationInFile{}, err
		}
	}

	offset, err := t.FileOffset()
	if err != nil {
		return mmapfile.LocationInFile{}, err
	}

	w := t.storage.writer
	n, err := w.Insert(offset, block)
	if err != nil {
		return mmapfile.LocationInFile{}, err
	}

	if err := w.Flush(); err != nil {
		return mmapfile.LocationInFile{}, err
	}

	loc := mmapfile.LocationInFile{Offset: offset, Len: n}

	if err := t.tx.Bucket(bucketBlocks).Put(encodeUint64(number), encodeLocation(loc)); err != nil {
		return mmapfile.LocationInFile{}, err
	}

	txs := t.tx.Bucket(bucketTxs)
	for i, tx := range block.Trans {
		txLoc := TxLocation{BlockNumber: number, Index: uint32(i)}
		if err := txs.Put([]byte(tx.Hash()), encodeTxLocation(txLoc)); err != nil {
			return mmapfile.LocationInFile{}, err
		}
	}

	markers := t.tx.Bucket(bucketMarkers)
	if err := markers.Put(markerNextBlock, encodeUint64(number+1)); err != nil {
		return mmapfile.LocationInFile{}, err
	}
	if err := markers.Put(markerOffset, encodeUint64(uint64(loc.End()))); err != nil {
		return mmapfile.LocationInFile{}, err
	}

	ev("storage: Append: blk[%d]: loc[%s]: txs[%d]", number, loc, len(block.Trans))

	return loc, nil
}
