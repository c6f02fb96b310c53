package gossip

import (
	"github.com/andydunstall/drift/actor"
)

// Ack acknowledges delivery of a gossip payload. The ACK confirms
// delivery, not application-level acceptance: it is sent even when the
// receiving logic fails to merge the payload.
type Ack struct{}

// gossipMsg is a peer-to-peer gossip payload. The receiver replies to
// ackTo with an Ack.
type gossipMsg[E any] struct {
	id      Identifier
	origin  actor.Ref
	payload E
	ackTo   actor.Ref
}

// updateMsg routes a local application update to the stream's logic.
type updateMsg[E any] struct {
	id      Identifier
	payload E
}

// removeMsg drops the logic for the identifier.
type removeMsg struct {
	id Identifier
}

// introduceMsg hints a peer to the shell. The shell rejects itself,
// watches and inserts the peer, and arms the round timer if this is the
// first peer.
type introduceMsg struct {
	ref actor.Ref
}

// sideChannelMsg carries an out-of-band application message to the
// logic of a specific stream. Unknown identifiers are routed to the
// dead letter log.
type sideChannelMsg struct {
	id  Identifier
	msg any
}

// periodicTick is delivered by the round timer.
type periodicTick struct{}

// statusRequest asks the shell for a status snapshot.
type statusRequest struct {
	replyTo actor.Ref
}
