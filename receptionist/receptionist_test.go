package receptionist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andydunstall/drift/actor"
)

type fakeRef struct {
	addr string
}

func (r *fakeRef) ID() string {
	return r.addr
}

func (r *fakeRef) Addr() string {
	return r.addr
}

func (r *fakeRef) Tell(_ any) {
}

var _ actor.Ref = &fakeRef{}

func listingAddrs(l Listing) []string {
	addrs := make([]string, 0, len(l.Refs))
	for _, ref := range l.Refs {
		addrs = append(addrs, ref.Addr())
	}
	return addrs
}

func TestLocal_Register(t *testing.T) {
	t.Run("notifies subscribers", func(t *testing.T) {
		r := NewLocal()

		var listings []Listing
		r.Subscribe("my-key", func(listing Listing) {
			listings = append(listings, listing)
		})

		r.Register("my-key", &fakeRef{addr: "sys/a"})
		r.Register("my-key", &fakeRef{addr: "sys/b"})

		assert.Equal(t, 3, len(listings))
		assert.Equal(t, []string{}, listingAddrs(listings[0]))
		assert.Equal(t, []string{"sys/a"}, listingAddrs(listings[1]))
		assert.Equal(t, []string{"sys/a", "sys/b"}, listingAddrs(listings[2]))
	})

	t.Run("deduplicates", func(t *testing.T) {
		r := NewLocal()

		var listings []Listing
		r.Subscribe("my-key", func(listing Listing) {
			listings = append(listings, listing)
		})

		r.Register("my-key", &fakeRef{addr: "sys/a"})
		r.Register("my-key", &fakeRef{addr: "sys/a"})

		// The duplicate registration is dropped without a refresh.
		assert.Equal(t, 2, len(listings))
		assert.Equal(t, []string{"sys/a"}, listingAddrs(listings[1]))
	})

	t.Run("keys are independent", func(t *testing.T) {
		r := NewLocal()

		var listings []Listing
		r.Subscribe("my-key", func(listing Listing) {
			listings = append(listings, listing)
		})

		r.Register("other-key", &fakeRef{addr: "sys/a"})

		assert.Equal(t, 1, len(listings))
	})
}

func TestLocal_Deregister(t *testing.T) {
	r := NewLocal()

	a := &fakeRef{addr: "sys/a"}
	b := &fakeRef{addr: "sys/b"}
	r.Register("my-key", a)
	r.Register("my-key", b)

	var listings []Listing
	r.Subscribe("my-key", func(listing Listing) {
		listings = append(listings, listing)
	})

	r.Deregister("my-key", a)

	assert.Equal(t, 2, len(listings))
	assert.Equal(t, []string{"sys/b"}, listingAddrs(listings[1]))

	// Deregistering an unknown ref is a no-op.
	r.Deregister("my-key", a)
	assert.Equal(t, 2, len(listings))
}

func TestEtcdConfig_Validate(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		conf := DefaultEtcdConfig()
		assert.NoError(t, conf.Validate())
	})

	t.Run("missing endpoints", func(t *testing.T) {
		conf := DefaultEtcdConfig()
		conf.Endpoints = nil
		assert.Error(t, conf.Validate())
	})

	t.Run("missing ttl", func(t *testing.T) {
		conf := DefaultEtcdConfig()
		conf.TTL = 0
		assert.Error(t, conf.Validate())
	})
}
