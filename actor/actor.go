package actor

// Actor is the behaviour of a spawned actor.
//
// Receive is invoked for each mailbox message in order, always on the
// same goroutine, so implementations don't require locking.
type Actor interface {
	Receive(ctx *Context, msg any)
}

// ActorFunc adapts a function to the Actor interface.
type ActorFunc func(ctx *Context, msg any)

func (f ActorFunc) Receive(ctx *Context, msg any) {
	f(ctx, msg)
}

// Started is delivered as the first message to every spawned actor,
// before any other mailbox message.
type Started struct{}

// Terminated is delivered to watchers when a watched actor stops.
type Terminated struct {
	Ref Ref
}

// Completion carries the continuation of an Ask back onto the asking
// actor's mailbox. Actors using Context.Ask must handle Completion in
// Receive by calling Run.
type Completion struct {
	run func()
}

func (c Completion) Run() {
	c.run()
}

// Ref is an addressable handle to an actor. Refs are compared by
// address.
type Ref interface {
	// ID returns the unique instance ID of the actor.
	ID() string
	// Addr returns the actor address within its system.
	Addr() string
	// Tell sends the message to the actor's mailbox. Tell never blocks;
	// sends to a stopped actor become dead letters.
	Tell(msg any)
}

// localRef is a Ref to an actor spawned in this process.
type localRef struct {
	id   string
	addr string
	proc *process
}

func (r *localRef) ID() string {
	return r.id
}

func (r *localRef) Addr() string {
	return r.addr
}

func (r *localRef) Tell(msg any) {
	if !r.proc.enqueue(msg) {
		r.proc.system.deadLetter(r.addr, msg)
	}
}

var _ Ref = &localRef{}

// funcRef is a lightweight Ref backed by a function, used for ask
// replies and external subscribers.
type funcRef struct {
	id   string
	addr string
	f    func(msg any)
}

func (r *funcRef) ID() string {
	return r.id
}

func (r *funcRef) Addr() string {
	return r.addr
}

func (r *funcRef) Tell(msg any) {
	r.f(msg)
}

var _ Ref = &funcRef{}
