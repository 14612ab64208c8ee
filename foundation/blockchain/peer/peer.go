// Package peer maintains the peer related information such as the set
// of known peers and their status.
package peer

import (
	"sort"
	"sync"
)

// Peer represents information about a node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New constructs a new peer value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// String implements the fmt.Stringer interface for logging.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// Status represents what a node reports about its chain and the peers it
// knows about.
type Status struct {
	NextBlock       uint64 `json:"next_block"`
	LatestBlockHash string `json:"latest_block_hash"`
	KnownPeers      []Peer `json:"known_peers"`
}

// HasBlocksAfter reports whether the peer holds blocks numbered next or
// higher.
func (s Status) HasBlocksAfter(next uint64) bool {
	return s.NextBlock > next
}

// =============================================================================

// Set represents the data representation to maintain a set of known peers.
type Set struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewSet constructs a new set to manage node peer information.
func NewSet() *Set {
	return &Set{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. It reports whether the node was new.
func (s *Set) Add(peer Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[peer]; exists {
		return false
	}

	s.set[peer] = struct{}{}
	return true
}

// Remove removes a node from the set.
func (s *Set) Remove(peer Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.set, peer)
}

// Copy returns the known peers sorted by host, leaving out the specified host.
func (s *Set) Copy(host string) []Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := make([]Peer, 0, len(s.set))
	for peer := range s.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Host < peers[j].Host })

	return peers
}

// Len returns the number of known peers.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.set)
}
