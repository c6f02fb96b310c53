package actor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/andydunstall/drift/pkg/log"
)

// ErrTimeout is returned by an ask whose reply did not arrive within the
// ask timeout.
var ErrTimeout = errors.New("ask timeout")

// System manages a set of actors spawned in this process.
type System struct {
	name string

	// mu protects procs and watchers.
	mu    sync.Mutex
	procs map[string]*process
	// watchers maps a watched actor address to the refs watching it.
	watchers map[string][]Ref

	deadLetters *atomic.Int64

	closed *atomic.Bool

	logger log.Logger
}

func NewSystem(name string, logger log.Logger) *System {
	return &System{
		name:        name,
		procs:       make(map[string]*process),
		watchers:    make(map[string][]Ref),
		deadLetters: atomic.NewInt64(0),
		closed:      atomic.NewBool(false),
		logger:      logger.WithSubsystem("actor"),
	}
}

func (s *System) Name() string {
	return s.name
}

func (s *System) Logger() log.Logger {
	return s.logger
}

// Spawn starts an actor with the given name and returns its ref. Names
// must be unique within the system.
func (s *System) Spawn(name string, actor Actor) (Ref, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("spawn %s: system closed", name)
	}

	addr := s.name + "/" + name

	s.mu.Lock()
	if _, ok := s.procs[addr]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("spawn %s: name taken", name)
	}
	ref := &localRef{
		id:   uuid.New().String(),
		addr: addr,
	}
	proc := newProcess(ref, actor, s)
	s.procs[addr] = proc
	s.mu.Unlock()

	go proc.run()

	s.logger.Debug("spawned actor", zap.String("addr", addr))

	return ref, nil
}

// Stop requests the actor terminates once the messages already in its
// mailbox have been processed. Watchers are notified once it has.
func (s *System) Stop(ref Ref) {
	s.mu.Lock()
	proc, ok := s.procs[ref.Addr()]
	s.mu.Unlock()
	if !ok {
		return
	}
	proc.enqueue(stop{})
}

// Ask sends target a message carrying an ephemeral reply ref and blocks
// until the response arrives or the timeout expires. Used by callers
// outside the actor system; actors must use Context.Ask instead.
func (s *System) Ask(
	target Ref,
	timeout time.Duration,
	build func(replyTo Ref) any,
) (any, error) {
	ch := make(chan any, 1)
	replyTo := &funcRef{
		id:   uuid.New().String(),
		addr: target.Addr() + "/ask",
		f: func(msg any) {
			select {
			case ch <- msg:
			default:
			}
		},
	}

	target.Tell(build(replyTo))

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// DeadLetter routes a message an actor could not handle to the dead
// letter log.
func (s *System) DeadLetter(target string, msg any) {
	s.deadLetter(target, msg)
}

// DeadLetters returns the number of dead letters logged by the system.
func (s *System) DeadLetters() int64 {
	return s.deadLetters.Load()
}

// Close stops all actors and waits for them to terminate.
func (s *System) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		// Already closed.
		return
	}

	s.mu.Lock()
	procs := make([]*process, 0, len(s.procs))
	for _, proc := range s.procs {
		procs = append(procs, proc)
	}
	s.mu.Unlock()

	for _, proc := range procs {
		proc.enqueue(stop{})
	}
	for _, proc := range procs {
		<-proc.done
	}
}

func (s *System) watch(watcher Ref, watched Ref) {
	s.mu.Lock()
	proc, ok := s.procs[watched.Addr()]
	if !ok || proc.stoppedLocked() {
		s.mu.Unlock()
		// Already stopped; notify immediately.
		watcher.Tell(Terminated{Ref: watched})
		return
	}
	for _, w := range s.watchers[watched.Addr()] {
		if w.Addr() == watcher.Addr() {
			s.mu.Unlock()
			return
		}
	}
	s.watchers[watched.Addr()] = append(s.watchers[watched.Addr()], watcher)
	s.mu.Unlock()
}

// onTerminated is called by a process once its run loop has exited.
func (s *System) onTerminated(ref *localRef) {
	s.mu.Lock()
	delete(s.procs, ref.addr)
	watchers := s.watchers[ref.addr]
	delete(s.watchers, ref.addr)
	s.mu.Unlock()

	s.logger.Debug("actor terminated", zap.String("addr", ref.addr))

	for _, w := range watchers {
		w.Tell(Terminated{Ref: ref})
	}
}

func (s *System) deadLetter(target string, msg any) {
	s.deadLetters.Inc()
	s.logger.Warn(
		"dead letter",
		zap.String("target", target),
		zap.String("type", fmt.Sprintf("%T", msg)),
	)
}

func (p *process) stoppedLocked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
