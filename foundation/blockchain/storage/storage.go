// Package storage keeps blocks in an append-only memory mapped file and
// indexes them by number and transaction hash in a bbolt database.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/blockstore/foundation/blockchain/codec"
	"github.com/ardanlabs/blockstore/foundation/blockchain/database"
	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
	bolt "go.etcd.io/bbolt"
)

// Set of files kept under the storage path.
const (
	indexFile  = "index.db"
	blocksFile = "blocks.dat"
)

// ErrCodecMismatch is returned when the storage was created with a different
// codec than the one configured.
var ErrCodecMismatch = errors.New("storage: codec does not match existing data")

// Config represents the configuration required to open storage.
type Config struct {
	DBPath    string
	File      mmapfile.Config
	Codec     string
	EvHandler database.EvHandler
}

// Storage manages reading and writing of blocks.
type Storage struct {
	db        *bolt.DB
	writer    *mmapfile.Writer[database.Block]
	reader    mmapfile.Reader[database.Block]
	codec     string
	evHandler database.EvHandler
}

// Open opens the index and the blocks file under the configured path,
// creating them when they don't exist.
func Open(cfg Config) (*Storage, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Codec == "" {
		cfg.Codec = "json"
	}

	c, err := codec.ByName[database.Block](cfg.Codec)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		return nil, err
	}

	writer, reader, err := mmapfile.Open(cfg.File, filepath.Join(cfg.DBPath, blocksFile), c)
	if err != nil {
		return nil, fmt.Errorf("opening blocks file: %w", err)
	}

	db, err := bolt.Open(filepath.Join(cfg.DBPath, indexFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMarkers, bucketBlocks, bucketTxs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		markers := tx.Bucket(bucketMarkers)
		switch existing := markers.Get(markerCodec); {
		case existing == nil:
			return markers.Put(markerCodec, []byte(c.Name()))
		case string(existing) != c.Name():
			return fmt.Errorf("%w: stored %q, configured %q", ErrCodecMismatch, existing, c.Name())
		}

		return nil
	})
	if err != nil {
		db.Close()
		writer.Close()
		return nil, err
	}

	s := Storage{
		db:        db,
		writer:    writer,
		reader:    reader,
		codec:     c.Name(),
		evHandler: ev,
	}

	ev("storage: Open: path[%s]: codec[%s]: capacity[%d]", cfg.DBPath, c.Name(), writer.Capacity())

	return &s, nil
}

// Close releases the index and the blocks file.
func (s *Storage) Close() error {
	return errors.Join(s.db.Close(), s.writer.Close())
}

// View runs fn inside a read only transaction. Any number of views can run
// at the same time as each other and as an update.
func (s *Storage) View(fn func(txn *Txn) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Txn{tx: tx, storage: s})
	})
}

// Update runs fn inside the single read write transaction. Index changes made
// by fn are committed together when fn returns nil.
func (s *Storage) Update(fn func(txn *Txn) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Txn{tx: tx, storage: s})
	})
}

// Append validates the block against the latest block and stores it.
func (s *Storage) Append(block database.Block) (mmapfile.LocationInFile, error) {
	var loc mmapfile.LocationInFile

	err := s.Update(func(txn *Txn) error {
		var err error
		loc, err = txn.Append(block)
		return err
	})

	return loc, err
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (s *Storage) ForEach() *Iterator {
	return &Iterator{storage: s}
}

// =============================================================================

// Stats describes the current state of the storage.
type Stats struct {
	Codec        string `json:"codec"`
	Capacity     int    `json:"capacity"`
	FileOffset   int    `json:"file_offset"`
	NextBlock    uint64 `json:"next_block"`
	Transactions int    `json:"transactions"`
	IndexSize    int64  `json:"index_size"`
}

// Stats returns the current state of the storage.
func (s *Storage) Stats() (Stats, error) {
	var st Stats

	err := s.View(func(txn *Txn) error {
		var err error
		if st.NextBlock, err = txn.NextBlockNumber(); err != nil {
			return err
		}
		if st.FileOffset, err = txn.FileOffset(); err != nil {
			return err
		}

		st.Transactions = txn.tx.Bucket(bucketTxs).Stats().KeyN
		st.IndexSize = txn.tx.Size()
		return nil
	})

	st.Codec = s.codec
	st.Capacity = s.writer.Capacity()

	return st, err
}

// =============================================================================

// Iterator walks the stored blocks in order.
type Iterator struct {
	storage *Storage
	current uint64
	eoc     bool
}

// Next retrieves the next block. The iterator is done once the next block
// can't be found.
func (it *Iterator) Next() (database.Block, error) {
	if it.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	var block database.Block
	err := it.storage.View(func(txn *Txn) error {
		var err error
		block, err = txn.Block(it.current)
		return err
	})

	if errors.Is(err, database.ErrNotFound) {
		it.eoc = true
		return database.Block{}, err
	}

	if err == nil {
		it.current++
	}

	return block, err
}

// Done returns the end of chain value.
func (it *Iterator) Done() bool {
	return it.eoc
}
