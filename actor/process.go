package actor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// stop is enqueued to request the actor terminates once the messages
// ahead of it have been processed.
type stop struct{}

// process owns an actor's mailbox and run loop.
type process struct {
	ref    *localRef
	actor  Actor
	system *System

	ctx *Context

	// mu protects queue, timers and stopped.
	mu      sync.Mutex
	queue   []any
	timers  map[string]*time.Timer
	stopped bool

	// wake signals the run loop that the queue is non-empty.
	wake chan struct{}
	// done is closed once the run loop has terminated.
	done chan struct{}
}

func newProcess(ref *localRef, actor Actor, system *System) *process {
	p := &process{
		ref:    ref,
		actor:  actor,
		system: system,
		timers: make(map[string]*time.Timer),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	p.ctx = &Context{proc: p}
	ref.proc = p
	return p
}

// enqueue appends the message to the mailbox. Returns false if the actor
// has stopped.
func (p *process) enqueue(msg any) bool {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, msg)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return true
}

func (p *process) run() {
	p.actor.Receive(p.ctx, Started{})

	for {
		<-p.wake

		for {
			p.mu.Lock()
			if len(p.queue) == 0 {
				p.mu.Unlock()
				break
			}
			batch := p.queue
			p.queue = nil
			p.mu.Unlock()

			for _, msg := range batch {
				if _, ok := msg.(stop); ok {
					p.terminate()
					return
				}
				p.dispatch(msg)
			}
		}
	}
}

// dispatch delivers a single message to the actor. A panic in Receive is
// contained to that message rather than killing the actor.
func (p *process) dispatch(msg any) {
	defer func() {
		if r := recover(); r != nil {
			p.system.logger.Error(
				"actor panic",
				zap.String("addr", p.ref.addr),
				zap.Any("err", r),
			)
		}
	}()
	p.actor.Receive(p.ctx, msg)
}

func (p *process) terminate() {
	p.mu.Lock()
	p.stopped = true
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
	p.queue = nil
	p.mu.Unlock()

	close(p.done)
	p.system.onTerminated(p.ref)
}
