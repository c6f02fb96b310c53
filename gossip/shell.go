package gossip

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/andydunstall/drift/actor"
	"github.com/andydunstall/drift/pkg/log"
)

// shell is the actor owning the peer set, the logic registry and the
// round scheduler for one engine instance.
//
// All state is mutated on the shell's own mailbox goroutine. The ask for
// an ACK is non-blocking; its completion re-enters the mailbox, so logic
// state is never touched concurrently.
type shell[E any] struct {
	conf Config

	factory Factory[E]

	discovery Discovery[E]

	peers     *peerSet[E]
	registry  *logicRegistry[E]
	scheduler *roundScheduler

	rounds uint64

	metrics *Metrics

	logger log.Logger
}

func newShell[E any](
	conf Config,
	factory Factory[E],
	discovery Discovery[E],
	metrics *Metrics,
	logger log.Logger,
) *shell[E] {
	return &shell[E]{
		conf:      conf,
		factory:   factory,
		discovery: discovery,
		peers:     newPeerSet[E](),
		registry:  newLogicRegistry[E](),
		scheduler: newRoundScheduler(conf.Interval, conf.IntervalJitter),
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *shell[E]) Receive(ctx *actor.Context, msg any) {
	// Whatever was handled, make sure the next round is scheduled while
	// peers remain.
	defer func() {
		s.scheduler.Ensure(ctx, s.peers.Len() > 0)
	}()

	switch m := msg.(type) {
	case actor.Started:
		s.logger = s.logger.With(zap.String("shell", ctx.Self().Addr()))
		s.logger.Info(
			"starting gossip shell",
			zap.Duration("interval", s.conf.Interval),
			zap.Float64("interval-jitter", s.conf.IntervalJitter),
			zap.Duration("ack-timeout", s.conf.AckTimeout),
		)
		s.discovery.subscribe(ctx.Self(), s.logger)
	case gossipMsg[E]:
		s.handleGossip(ctx, m)
	case updateMsg[E]:
		s.getOrCreateLogic(ctx, m.id).LocalUpdate(m.payload)
	case removeMsg:
		if s.registry.Remove(m.id) {
			s.metrics.Logics.Dec()
			s.logger.Debug("logic removed", zap.String("identifier", m.id.String()))
		}
	case introduceMsg:
		s.introduce(ctx, m.ref)
	case sideChannelMsg:
		s.handleSideChannel(ctx, m)
	case periodicTick:
		s.scheduler.Fired()
		s.round(ctx)
	case statusRequest:
		m.replyTo.Tell(s.status(ctx))
	case actor.Terminated:
		s.handleTerminated(ctx, m)
	case actor.Completion:
		m.Run()
	default:
		ctx.System().DeadLetter(ctx.Self().Addr(), msg)
	}
}

// handleGossip merges an inbound payload and acknowledges it.
func (s *shell[E]) handleGossip(ctx *actor.Context, m gossipMsg[E]) {
	s.metrics.GossipsInbound.Inc()

	logic := s.getOrCreateLogic(ctx, m.id)

	// The ACK confirms delivery, not acceptance: send it however the
	// merge goes.
	defer m.ackTo.Tell(Ack{})

	logic.ReceiveGossip(Peer[E]{ref: m.origin}, m.payload)
}

// introduce is the single gate onto the peer set, whichever discovery
// mode produced the peer.
func (s *shell[E]) introduce(ctx *actor.Context, ref actor.Ref) {
	if ref == nil {
		return
	}
	if ref.Addr() == ctx.Self().Addr() {
		// Never gossip with ourselves.
		return
	}
	if !s.peers.Insert(Peer[E]{ref: ref}) {
		return
	}
	ctx.Watch(ref)
	s.metrics.Peers.Inc()
	s.logger.Info("peer added", zap.String("peer", ref.Addr()))
}

func (s *shell[E]) handleSideChannel(ctx *actor.Context, m sideChannelMsg) {
	logic, ok := s.registry.Get(m.id)
	if !ok {
		s.metrics.SideChannelUnhandled.Inc()
		ctx.System().DeadLetter(ctx.Self().Addr(), m)
		return
	}
	if err := logic.ReceiveSideChannel(m.msg); err != nil {
		// The message still counts as delivered; the failure is the
		// logic's alone.
		s.logger.Error(
			"side channel message rejected",
			zap.String("identifier", m.id.String()),
			zap.Error(err),
		)
	}
}

func (s *shell[E]) handleTerminated(ctx *actor.Context, m actor.Terminated) {
	if !s.peers.Remove(m.Ref.Addr()) {
		return
	}
	s.metrics.Peers.Dec()
	s.logger.Info("peer terminated", zap.String("peer", m.Ref.Addr()))

	if s.peers.Len() == 0 {
		s.scheduler.Cancel(ctx)
	}
}

// round runs one gossip round: every active logic selects targets from
// the current peers and sends each a payload.
func (s *shell[E]) round(ctx *actor.Context) {
	if s.peers.Len() == 0 {
		return
	}

	s.rounds++
	s.metrics.Rounds.Inc()

	peers := s.peers.List()

	for _, id := range s.registry.Identifiers() {
		logic, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		for _, target := range logic.SelectPeers(peers) {
			payload, ok := logic.MakePayload(target)
			if !ok {
				continue
			}
			if target.ref == nil {
				s.logger.Warn(
					"selected peer is not addressable",
					zap.String("identifier", id.String()),
				)
				continue
			}
			s.sendGossip(ctx, id, target, payload)
		}
	}
}

func (s *shell[E]) sendGossip(
	ctx *actor.Context,
	id Identifier,
	target Peer[E],
	payload E,
) {
	s.metrics.GossipsOutbound.Inc()

	ctx.Ask(
		target.ref,
		s.conf.AckTimeout,
		func(replyTo actor.Ref) any {
			return gossipMsg[E]{
				id:      id,
				origin:  ctx.Self(),
				payload: payload,
				ackTo:   replyTo,
			}
		},
		func(resp any, err error) {
			if err != nil {
				s.metrics.AckFailures.Inc()
				// No retry; the next round makes its own decisions.
				s.logger.Warn(
					"gossip not acknowledged",
					zap.String("identifier", id.String()),
					zap.String("peer", target.Addr()),
					zap.Error(err),
				)
				return
			}
			if _, ok := resp.(Ack); !ok {
				s.metrics.AckFailures.Inc()
				s.logger.Warn(
					"unexpected ack reply",
					zap.String("identifier", id.String()),
					zap.String("peer", target.Addr()),
					zap.String("type", fmt.Sprintf("%T", resp)),
				)
				return
			}
			s.metrics.AcksReceived.Inc()
			// The logic may have been removed, or removed and
			// re-created, while the gossip was in flight. Notify
			// whichever instance now serves the identifier.
			if logic, ok := s.registry.Get(id); ok {
				logic.ReceivePayloadACK(target, payload)
			}
		},
	)
}

func (s *shell[E]) getOrCreateLogic(ctx *actor.Context, id Identifier) Logic[E] {
	if logic, ok := s.registry.Get(id); ok {
		return logic
	}
	logic := s.factory(LogicContext{
		ID:        id,
		ShellAddr: ctx.Self().Addr(),
		Logger:    s.logger.With(zap.String("identifier", id.String())),
	})
	s.registry.Add(id, logic)
	s.metrics.Logics.Inc()
	s.logger.Debug("logic created", zap.String("identifier", id.String()))
	return logic
}

func (s *shell[E]) status(ctx *actor.Context) Status {
	peers := make([]string, 0, s.peers.Len())
	for _, peer := range s.peers.List() {
		peers = append(peers, peer.Addr())
	}
	identifiers := make([]string, 0, s.registry.Len())
	for _, id := range s.registry.Identifiers() {
		identifiers = append(identifiers, id.String())
	}
	return Status{
		Addr:        ctx.Self().Addr(),
		Peers:       peers,
		Identifiers: identifiers,
		Rounds:      s.rounds,
		NextRound:   s.scheduler.Armed(),
	}
}
