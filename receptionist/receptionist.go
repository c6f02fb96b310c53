// Package receptionist provides a keyed actor registry with listing
// subscriptions.
//
// Actors register under a string key; subscribers to that key receive a
// listing of all registered refs whenever the set changes. Registering
// every member of a group under the same key gives each member an
// automatically refreshed view of all the others.
package receptionist

import (
	"sync"

	"github.com/andydunstall/drift/actor"
)

// Listing is the set of refs registered under a key.
type Listing struct {
	Key  string
	Refs []actor.Ref
}

type Receptionist interface {
	// Register adds the ref to the listing for the given key.
	Register(key string, ref actor.Ref)
	// Subscribe registers a subscriber for listings of the given key.
	// The subscriber immediately receives the current listing, then a
	// refreshed listing on every change. Subscribers must not block.
	Subscribe(key string, sub func(Listing))
}

// Local is an in-process receptionist.
type Local struct {
	// mu protects refs and subs.
	mu   sync.Mutex
	refs map[string][]actor.Ref
	subs map[string][]func(Listing)
}

func NewLocal() *Local {
	return &Local{
		refs: make(map[string][]actor.Ref),
		subs: make(map[string][]func(Listing)),
	}
}

func (r *Local) Register(key string, ref actor.Ref) {
	r.mu.Lock()
	for _, existing := range r.refs[key] {
		if existing.Addr() == ref.Addr() {
			r.mu.Unlock()
			return
		}
	}
	r.refs[key] = append(r.refs[key], ref)
	listing := r.listingLocked(key)
	subs := make([]func(Listing), len(r.subs[key]))
	copy(subs, r.subs[key])
	r.mu.Unlock()

	for _, sub := range subs {
		sub(listing)
	}
}

// Deregister removes the ref from the listing for the given key.
func (r *Local) Deregister(key string, ref actor.Ref) {
	r.mu.Lock()
	refs := r.refs[key]
	removed := false
	for i, existing := range refs {
		if existing.Addr() == ref.Addr() {
			r.refs[key] = append(refs[:i:i], refs[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		r.mu.Unlock()
		return
	}
	listing := r.listingLocked(key)
	subs := make([]func(Listing), len(r.subs[key]))
	copy(subs, r.subs[key])
	r.mu.Unlock()

	for _, sub := range subs {
		sub(listing)
	}
}

func (r *Local) Subscribe(key string, sub func(Listing)) {
	r.mu.Lock()
	r.subs[key] = append(r.subs[key], sub)
	listing := r.listingLocked(key)
	r.mu.Unlock()

	sub(listing)
}

func (r *Local) listingLocked(key string) Listing {
	refs := make([]actor.Ref, len(r.refs[key]))
	copy(refs, r.refs[key])
	return Listing{Key: key, Refs: refs}
}

var _ Receptionist = &Local{}
