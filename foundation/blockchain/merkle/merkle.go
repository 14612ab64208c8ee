// Package merkle computes merkle roots and inclusion proofs over a list of
// leaf hashes for block transaction validation.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Order tells a verifier which side of the running hash a proof hash goes on.
type Order int8

// Set of proof orders.
const (
	Left  Order = 0 // Proof hash is concatenated first.
	Right Order = 1 // Proof hash is concatenated second.
)

// ErrNoLeaves is returned when a tree is built from nothing.
var ErrNoLeaves = errors.New("merkle: no leaves")

// Tree holds every level of a merkle tree, leaves first.
type Tree struct {
	levels [][][]byte
	newH   func() hash.Hash
}

// Option changes how a tree is built.
type Option func(t *Tree)

// WithHashStrategy replaces the default sha256 hash.
func WithHashStrategy(fn func() hash.Hash) Option {
	return func(t *Tree) {
		t.newH = fn
	}
}

// New builds a tree from the leaf hashes. A level with an odd number of
// nodes pairs its last node with itself.
func New(leaves [][]byte, options ...Option) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	t := Tree{
		newH: sha256.New,
	}
	for _, option := range options {
		option(&t)
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)
	t.levels = append(t.levels, level)

	for {
		level = t.next(level)
		t.levels = append(t.levels, level)
		if len(level) == 1 {
			break
		}
	}

	return &t, nil
}

// Root returns the root hash.
func (t *Tree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex returns the root hash hex encoded.
func (t *Tree) RootHex() string {
	return hexutil.Encode(t.Root())
}

// Proof returns the hashes and their order needed to recompute the root from
// the leaf at index.
func (t *Tree) Proof(index int) ([][]byte, []Order, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, nil, errors.New("merkle: leaf index out of range")
	}

	var proof [][]byte
	var order []Order

	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling >= len(level) {
			sibling = index
		}

		proof = append(proof, level[sibling])
		if index%2 == 0 {
			order = append(order, Right)
		} else {
			order = append(order, Left)
		}

		index /= 2
	}

	return proof, order, nil
}

// Verify recomputes the root from a leaf hash and its proof.
func (t *Tree) Verify(leaf []byte, proof [][]byte, order []Order) bool {
	return VerifyProof(leaf, proof, order, t.Root(), t.newH)
}

// VerifyProof recomputes a root from a leaf hash and its proof and compares
// it against root. A nil hash function uses sha256.
func VerifyProof(leaf []byte, proof [][]byte, order []Order, root []byte, newH func() hash.Hash) bool {
	if len(proof) != len(order) {
		return false
	}
	if newH == nil {
		newH = sha256.New
	}

	sum := leaf
	for i, p := range proof {
		h := newH()
		if order[i] == Left {
			h.Write(p)
			h.Write(sum)
		} else {
			h.Write(sum)
			h.Write(p)
		}
		sum = h.Sum(nil)
	}

	return bytes.Equal(sum, root)
}

// next hashes a level into the one above it.
func (t *Tree) next(level [][]byte) [][]byte {
	out := make([][]byte, 0, (len(level)+1)/2)

	for i := 0; i < len(level); i += 2 {
		right := i + 1
		if right == len(level) {
			right = i
		}

		h := t.newH()
		h.Write(level[i])
		h.Write(level[right])
		out = append(out, h.Sum(nil))
	}

	return out
}
