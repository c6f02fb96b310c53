package actor

import (
	"time"

	"github.com/google/uuid"
)

// Context is passed to an actor's Receive and exposes the runtime
// operations available to it. A Context is only valid on the actor's
// own goroutine.
type Context struct {
	proc *process
}

// Self returns the ref of the actor itself.
func (c *Context) Self() Ref {
	return c.proc.ref
}

func (c *Context) System() *System {
	return c.proc.system
}

// Watch registers the actor to receive a Terminated message when the
// watched actor stops. Watching an already stopped actor delivers
// Terminated immediately.
func (c *Context) Watch(ref Ref) {
	c.proc.system.watch(c.proc.ref, ref)
}

// StartSingleTimer starts a named single-shot timer which delivers msg
// to the actor's own mailbox after delay. Starting a timer with the key
// of an active timer replaces it.
func (c *Context) StartSingleTimer(key string, msg any, delay time.Duration) {
	p := c.proc

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if prev, ok := p.timers[key]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		p.mu.Lock()
		// Ignore if cancelled or replaced since firing.
		if p.stopped || p.timers[key] != t {
			p.mu.Unlock()
			return
		}
		delete(p.timers, key)
		p.queue = append(p.queue, msg)
		p.mu.Unlock()

		select {
		case p.wake <- struct{}{}:
		default:
		}
	})
	p.timers[key] = t
}

// CancelTimer cancels the named timer if active.
func (c *Context) CancelTimer(key string) {
	p := c.proc

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if t, ok := p.timers[key]; ok {
		t.Stop()
		delete(p.timers, key)
	}
}

// Ask sends target a message carrying an ephemeral reply ref, then
// invokes the continuation with the response, or ErrTimeout if no
// response arrives within the timeout.
//
// Ask returns immediately. The continuation runs back on the actor's own
// mailbox (delivered as a Completion message), so it may mutate actor
// state without locking. If the actor stops while the ask is in flight
// the continuation is abandoned.
func (c *Context) Ask(
	target Ref,
	timeout time.Duration,
	build func(replyTo Ref) any,
	then func(resp any, err error),
) {
	p := c.proc

	ch := make(chan any, 1)
	replyTo := &funcRef{
		id:   uuid.New().String(),
		addr: p.ref.addr + "/ask",
		f: func(msg any) {
			select {
			case ch <- msg:
			default:
			}
		},
	}

	target.Tell(build(replyTo))

	go func() {
		var resp any
		var err error
		select {
		case resp = <-ch:
		case <-time.After(timeout):
			err = ErrTimeout
		case <-p.done:
			// Actor stopped; abandon the completion.
			return
		}
		p.enqueue(Completion{run: func() {
			then(resp, err)
		}})
	}()
}
