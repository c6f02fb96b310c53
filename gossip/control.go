package gossip

import (
	"fmt"
	"time"

	"github.com/andydunstall/drift/actor"
	"github.com/andydunstall/drift/pkg/log"
)

type options[E any] struct {
	discovery Discovery[E]
	logger    log.Logger
}

type Option[E any] func(*options[E])

// WithDiscovery sets the peer discovery mode. Defaults to Manual.
func WithDiscovery[E any](d Discovery[E]) Option[E] {
	return func(o *options[E]) {
		o.discovery = d
	}
}

// WithLogger sets the logger the shell logs to. Defaults to the
// system's logger.
func WithLogger[E any](logger log.Logger) Option[E] {
	return func(o *options[E]) {
		o.logger = logger
	}
}

// Start spawns a gossip shell on the system and returns its control
// handle.
//
// The factory constructs the logic instance serving each identifier
// referenced on the shell, whether by a local update or inbound gossip.
func Start[E any](
	system *actor.System,
	name string,
	conf Config,
	factory Factory[E],
	opts ...Option[E],
) (*Control[E], error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	o := options[E]{
		discovery: Manual[E](),
		logger:    system.Logger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	metrics := newMetrics()
	sh := newShell(
		conf,
		factory,
		o.discovery,
		metrics,
		o.logger.WithSubsystem("gossip"),
	)

	ref, err := system.Spawn(name, sh)
	if err != nil {
		return nil, fmt.Errorf("spawn shell: %w", err)
	}

	return &Control[E]{
		ref:     ref,
		system:  system,
		metrics: metrics,
	}, nil
}

// Control is a thin send-only facade bound to a single shell. It holds
// no state of its own; it exists so callers don't depend on the shell's
// message set.
type Control[E any] struct {
	ref     actor.Ref
	system  *actor.System
	metrics *Metrics
}

// Ref returns the shell's ref, such as to introduce this shell to
// another.
func (c *Control[E]) Ref() actor.Ref {
	return c.ref
}

// Introduce hints a peer to the shell.
func (c *Control[E]) Introduce(peer actor.Ref) {
	c.ref.Tell(introduceMsg{ref: peer})
}

// Update absorbs a local application update into the logic for the
// identifier, creating the logic if required. The update is visible to
// the next payload the logic materialises.
func (c *Control[E]) Update(id Identifier, payload E) {
	c.ref.Tell(updateMsg[E]{id: id, payload: payload})
}

// Remove drops the logic for the identifier.
func (c *Control[E]) Remove(id Identifier) {
	c.ref.Tell(removeMsg{id: id})
}

// SideChannelTell sends an out-of-band message to the logic for the
// identifier. If no logic for the identifier exists the message becomes
// a dead letter.
func (c *Control[E]) SideChannelTell(id Identifier, msg any) {
	c.ref.Tell(sideChannelMsg{id: id, msg: msg})
}

// Status asks the shell for a status snapshot.
func (c *Control[E]) Status(timeout time.Duration) (Status, error) {
	resp, err := c.system.Ask(
		c.ref,
		timeout,
		func(replyTo actor.Ref) any {
			return statusRequest{replyTo: replyTo}
		},
	)
	if err != nil {
		return Status{}, fmt.Errorf("shell status: %w", err)
	}
	status, ok := resp.(Status)
	if !ok {
		return Status{}, fmt.Errorf("shell status: unexpected reply type %T", resp)
	}
	return status, nil
}

// Metrics returns the shell's metrics for the caller to register.
func (c *Control[E]) Metrics() *Metrics {
	return c.metrics
}

// Close stops the shell. Outstanding ACK waits are abandoned and the
// round timer is released.
func (c *Control[E]) Close() {
	c.system.Stop(c.ref)
}
