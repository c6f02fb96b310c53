// Package counter is a ready-made gossip logic whose state is a
// grow-only set of values merged by union. Two shells gossiping the
// same stream converge on the union of everything either has seen.
//
// Deltas already acknowledged by a peer are pruned from payloads to
// that peer, so steady-state rounds send nothing.
package counter

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/andydunstall/drift/gossip"
)

// Set is the envelope: a set of values merged by union.
type Set map[uint64]struct{}

func NewSet(values ...uint64) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Clone() Set {
	clone := make(Set, len(s))
	for v := range s {
		clone[v] = struct{}{}
	}
	return clone
}

func (s Set) Merge(other Set) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Diff returns the values in s not in other.
func (s Set) Diff(other Set) Set {
	diff := make(Set)
	for v := range s {
		if _, ok := other[v]; !ok {
			diff[v] = struct{}{}
		}
	}
	return diff
}

// Values returns the sorted values of the set.
func (s Set) Values() []uint64 {
	values := make([]uint64, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i] < values[j]
	})
	return values
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// Inspect is a side channel message invoking the callback with a
// snapshot of the logic's values, serialised with the shell's other
// work.
type Inspect func(values []uint64)

// Logic gossips a Set.
type Logic struct {
	ctx gossip.LogicContext

	// fanout is how many peers to gossip with per round, or 0 for all.
	fanout int

	set Set

	// acked tracks the values each peer has acknowledged, keyed by peer
	// address, so payloads only carry what the peer may not have.
	acked map[string]Set
}

// NewFactory returns a factory constructing a Logic per stream. fanout
// bounds how many peers each round gossips with; 0 means every peer.
func NewFactory(fanout int) gossip.Factory[Set] {
	return func(ctx gossip.LogicContext) gossip.Logic[Set] {
		return &Logic{
			ctx:    ctx,
			fanout: fanout,
			set:    make(Set),
			acked:  make(map[string]Set),
		}
	}
}

func (l *Logic) SelectPeers(peers []gossip.Peer[Set]) []gossip.Peer[Set] {
	if l.fanout <= 0 || l.fanout >= len(peers) {
		return peers
	}
	selected := make([]gossip.Peer[Set], len(peers))
	copy(selected, peers)
	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected[:l.fanout]
}

func (l *Logic) MakePayload(target gossip.Peer[Set]) (Set, bool) {
	delta := l.set.Diff(l.acked[target.Addr()])
	if len(delta) == 0 {
		return nil, false
	}
	return delta, true
}

func (l *Logic) ReceiveGossip(_ gossip.Peer[Set], payload Set) {
	l.set.Merge(payload)
}

func (l *Logic) ReceivePayloadACK(target gossip.Peer[Set], delivered Set) {
	acked, ok := l.acked[target.Addr()]
	if !ok {
		acked = make(Set)
		l.acked[target.Addr()] = acked
	}
	acked.Merge(delivered)
}

func (l *Logic) LocalUpdate(payload Set) {
	l.set.Merge(payload)
}

func (l *Logic) ReceiveSideChannel(msg any) error {
	switch m := msg.(type) {
	case Inspect:
		m(l.set.Values())
		return nil
	case Set:
		l.set.Merge(m)
		return nil
	default:
		return fmt.Errorf("unsupported message type: %T", msg)
	}
}

var _ gossip.Logic[Set] = &Logic{}
