package gossip

import (
	"math/rand"
	"time"

	"github.com/andydunstall/drift/actor"
)

// roundTimerKey names the shell's single round timer.
const roundTimerKey = "gossip-round"

// roundScheduler drives the shell's periodic rounds with a single named
// single-shot timer. The timer is armed whenever the shell has peers and
// no round is pending, and cancelled when the peer set empties.
type roundScheduler struct {
	interval time.Duration
	jitter   float64

	armed bool
}

func newRoundScheduler(interval time.Duration, jitter float64) *roundScheduler {
	return &roundScheduler{
		interval: interval,
		jitter:   jitter,
	}
}

// Ensure arms the timer for a freshly sampled interval if the shell has
// peers and no timer is armed. Called after every handled message.
func (s *roundScheduler) Ensure(ctx *actor.Context, hasPeers bool) {
	if !hasPeers || s.armed {
		return
	}
	ctx.StartSingleTimer(roundTimerKey, periodicTick{}, s.sample())
	s.armed = true
}

// Fired records the armed timer has delivered its tick.
func (s *roundScheduler) Fired() {
	s.armed = false
}

// Cancel disarms the timer. A tick already in the mailbox may still be
// delivered; the round it triggers is a no-op without peers.
func (s *roundScheduler) Cancel(ctx *actor.Context) {
	if !s.armed {
		return
	}
	ctx.CancelTimer(roundTimerKey)
	s.armed = false
}

func (s *roundScheduler) Armed() bool {
	return s.armed
}

// sample returns the next round interval, uniform in
// [interval*(1-jitter), interval*(1+jitter)].
func (s *roundScheduler) sample() time.Duration {
	if s.jitter == 0 {
		return s.interval
	}
	f := (rand.Float64()*2 - 1) * s.jitter
	return time.Duration(float64(s.interval) * (1 + f))
}
