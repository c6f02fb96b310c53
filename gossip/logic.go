package gossip

import (
	"github.com/andydunstall/drift/pkg/log"
)

// Logic is the pluggable policy for one gossip stream. The shell owns
// one logic instance per active identifier.
//
// All methods are invoked on the shell's own goroutine, serialised with
// every other message the shell handles, so implementations don't
// require locking. They must be bounded and non-blocking.
type Logic[E any] interface {
	// SelectPeers chooses this round's targets from the currently known
	// peers. May return any subset, including none.
	SelectPeers(peers []Peer[E]) []Peer[E]

	// MakePayload materialises the payload to send to the given target.
	// Returns false to skip the target this round.
	MakePayload(target Peer[E]) (E, bool)

	// ReceiveGossip merges an inbound payload. The engine does not
	// deduplicate, so the merge must be idempotent under
	// retransmission.
	ReceiveGossip(origin Peer[E], payload E)

	// ReceivePayloadACK is invoked when an in-flight payload was
	// acknowledged by the target, so state only kept for redelivery can
	// be pruned.
	ReceivePayloadACK(target Peer[E], delivered E)

	// LocalUpdate absorbs an update from the local application.
	LocalUpdate(payload E)

	// ReceiveSideChannel handles an out-of-band application message.
	// A returned error is logged; it does not affect the shell or the
	// other streams.
	ReceiveSideChannel(msg any) error
}

// LogicContext is passed to the factory when a logic instance is
// created.
type LogicContext struct {
	// ID is the identifier of the stream the logic serves.
	ID Identifier

	// ShellAddr is the address of the owning shell.
	ShellAddr string

	Logger log.Logger
}

// Factory constructs the logic instance for an identifier. Invoked
// lazily on the first reference to the identifier, whether from a local
// update or inbound gossip.
type Factory[E any] func(ctx LogicContext) Logic[E]
