package gossip

import (
	"go.uber.org/zap"

	"github.com/andydunstall/drift/actor"
	"github.com/andydunstall/drift/cluster"
	"github.com/andydunstall/drift/pkg/log"
	"github.com/andydunstall/drift/receptionist"
)

// Discovery is the source of peers for a shell, chosen once at start.
//
// Whatever the source, every candidate is funnelled through the shell's
// single introduce path, which rejects self, watches the peer, inserts
// it and arms the round timer on the first peer.
type Discovery[E any] interface {
	subscribe(self actor.Ref, logger log.Logger)
}

// Manual sources peers exclusively from the control handle's Introduce.
func Manual[E any]() Discovery[E] {
	return manualDiscovery[E]{}
}

type manualDiscovery[E any] struct{}

func (manualDiscovery[E]) subscribe(_ actor.Ref, _ log.Logger) {
}

// MemberResolver resolves a cluster member to the ref of its gossip
// shell. Returns false if the member cannot be resolved, such as a node
// not running a shell of this envelope type.
type MemberResolver func(member cluster.Member) (actor.Ref, bool)

// ClusterMembers sources peers from cluster membership events.
//
// Each snapshot member and each membership change whose status is at or
// above the floor, and whose node is not the local node, is resolved to
// a shell ref and introduced. Reachability and leadership events are
// ignored.
func ClusterMembers[E any](
	membership *cluster.Membership,
	node string,
	floor cluster.Status,
	resolve MemberResolver,
) Discovery[E] {
	return &clusterDiscovery[E]{
		membership: membership,
		node:       node,
		floor:      floor,
		resolve:    resolve,
	}
}

type clusterDiscovery[E any] struct {
	membership *cluster.Membership
	node       string
	floor      cluster.Status
	resolve    MemberResolver
}

func (d *clusterDiscovery[E]) subscribe(self actor.Ref, logger log.Logger) {
	d.membership.Subscribe(func(event cluster.Event) {
		switch e := event.(type) {
		case cluster.Snapshot:
			for _, member := range e.Members {
				d.maybeIntroduce(self, member, logger)
			}
		case cluster.Change:
			d.maybeIntroduce(self, e.Member, logger)
		default:
			// Reachability and leadership events don't affect the peer
			// set.
		}
	})
}

func (d *clusterDiscovery[E]) maybeIntroduce(
	self actor.Ref,
	member cluster.Member,
	logger log.Logger,
) {
	if member.Node == d.node {
		return
	}
	if member.Status < d.floor {
		return
	}
	ref, ok := d.resolve(member)
	if !ok {
		logger.Warn(
			"member does not resolve to a gossip shell",
			zap.String("node", member.Node),
			zap.String("status", member.Status.String()),
		)
		return
	}
	self.Tell(introduceMsg{ref: ref})
}

// ReceptionistListing registers the shell under the given key and
// sources peers from the key's listings. Registering every shell of a
// group under the same key gives symmetric discovery between all of
// them.
func ReceptionistListing[E any](
	r receptionist.Receptionist,
	key string,
) Discovery[E] {
	return &receptionistDiscovery[E]{
		receptionist: r,
		key:          key,
	}
}

type receptionistDiscovery[E any] struct {
	receptionist receptionist.Receptionist
	key          string
}

func (d *receptionistDiscovery[E]) subscribe(self actor.Ref, _ log.Logger) {
	d.receptionist.Register(d.key, self)
	d.receptionist.Subscribe(d.key, func(listing receptionist.Listing) {
		// The introduce path filters out the shell itself.
		for _, ref := range listing.Refs {
			self.Tell(introduceMsg{ref: ref})
		}
	})
}
