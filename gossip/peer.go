package gossip

import (
	"github.com/andydunstall/drift/actor"
)

// Peer is an addressable handle to another shell of the same envelope
// type. Peers are compared by address.
type Peer[E any] struct {
	ref actor.Ref
}

// NewPeer wraps a shell ref as a peer, such as to drive a logic in
// tests.
func NewPeer[E any](ref actor.Ref) Peer[E] {
	return Peer[E]{ref: ref}
}

func (p Peer[E]) Addr() string {
	return p.ref.Addr()
}

func (p Peer[E]) Ref() actor.Ref {
	return p.ref
}

// peerSet is the deduplicated, insertion-ordered set of peers the shell
// currently considers reachable.
type peerSet[E any] struct {
	peers []Peer[E]
}

func newPeerSet[E any]() *peerSet[E] {
	return &peerSet[E]{}
}

// Insert adds the peer if not already a member. Returns whether the set
// changed.
func (s *peerSet[E]) Insert(peer Peer[E]) bool {
	if s.Contains(peer.Addr()) {
		return false
	}
	s.peers = append(s.peers, peer)
	return true
}

// Remove removes the peer with the given address. Returns whether the
// set changed.
func (s *peerSet[E]) Remove(addr string) bool {
	for i, peer := range s.peers {
		if peer.Addr() == addr {
			s.peers = append(s.peers[:i:i], s.peers[i+1:]...)
			return true
		}
	}
	return false
}

func (s *peerSet[E]) Contains(addr string) bool {
	for _, peer := range s.peers {
		if peer.Addr() == addr {
			return true
		}
	}
	return false
}

// List returns a snapshot of the set in insertion order.
func (s *peerSet[E]) List() []Peer[E] {
	peers := make([]Peer[E], len(s.peers))
	copy(peers, s.peers)
	return peers
}

func (s *peerSet[E]) Len() int {
	return len(s.peers)
}
