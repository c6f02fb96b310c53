package gossip_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydunstall/drift/actor"
	"github.com/andydunstall/drift/cluster"
	"github.com/andydunstall/drift/gossip"
	"github.com/andydunstall/drift/gossip/counter"
	"github.com/andydunstall/drift/pkg/log"
	"github.com/andydunstall/drift/receptionist"
)

func testConfig() gossip.Config {
	return gossip.Config{
		Interval:       time.Millisecond * 10,
		IntervalJitter: 0.25,
		AckTimeout:     time.Millisecond * 100,
	}
}

// inspect reads the counter values a shell holds for the stream via the
// side channel.
func inspect(
	control *gossip.Control[counter.Set],
	id gossip.Identifier,
) ([]uint64, bool) {
	ch := make(chan []uint64, 1)
	control.SideChannelTell(id, counter.Inspect(func(values []uint64) {
		ch <- values
	}))
	select {
	case values := <-ch:
		return values, true
	case <-time.After(time.Second):
		return nil, false
	}
}

func holds(
	control *gossip.Control[counter.Set],
	id gossip.Identifier,
	expected []uint64,
) func() bool {
	return func() bool {
		values, ok := inspect(control, id)
		if !ok {
			return false
		}
		return assert.ObjectsAreEqual(expected, values)
	}
}

func TestGossip_TwoNodeConvergence(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	id := gossip.NewIdentifier("x")

	a, err := gossip.Start(system, "gossip-a", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)
	b, err := gossip.Start(system, "gossip-b", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)

	a.Update(id, counter.NewSet(1))
	b.Update(id, counter.NewSet(2))

	a.Introduce(b.Ref())
	b.Introduce(a.Ref())

	assert.Eventually(
		t, holds(a, id, []uint64{1, 2}), time.Second*5, time.Millisecond*10,
	)
	assert.Eventually(
		t, holds(b, id, []uint64{1, 2}), time.Second*5, time.Millisecond*10,
	)
}

func TestGossip_IdentifierIsolation(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	a, err := gossip.Start(system, "gossip-a", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)
	b, err := gossip.Start(system, "gossip-b", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)

	a.Introduce(b.Ref())

	// A gossips stream "x" only; B must never see stream "y".
	a.Update(gossip.NewIdentifier("x"), counter.NewSet(1))

	assert.Eventually(
		t,
		holds(b, gossip.NewIdentifier("x"), []uint64{1}),
		time.Second*5,
		time.Millisecond*10,
	)

	status, err := b.Status(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, status.Identifiers)
}

func TestGossip_SelfIntroduction(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	control, err := gossip.Start(
		system, "gossip", testConfig(), counter.NewFactory(0),
	)
	require.NoError(t, err)

	control.Introduce(control.Ref())

	time.Sleep(time.Millisecond * 50)

	status, err := control.Status(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, len(status.Peers))
	assert.False(t, status.NextRound)
	assert.Equal(t, uint64(0), status.Rounds)
}

func TestGossip_IdempotentIntroduction(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	a, err := gossip.Start(system, "gossip-a", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)
	b, err := gossip.Start(system, "gossip-b", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)

	a.Introduce(b.Ref())
	a.Introduce(b.Ref())

	assert.Eventually(t, func() bool {
		status, err := a.Status(time.Second)
		if err != nil {
			return false
		}
		return len(status.Peers) == 1
	}, time.Second, time.Millisecond*10)

	status, err := a.Status(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"test/gossip-b"}, status.Peers)
	assert.True(t, status.NextRound)
}

func TestGossip_TerminationCascade(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	controls := make([]*gossip.Control[counter.Set], 3)
	for i := range controls {
		control, err := gossip.Start(
			system,
			fmt.Sprintf("gossip-%d", i),
			testConfig(),
			counter.NewFactory(0),
		)
		require.NoError(t, err)
		controls[i] = control
	}
	a, b, c := controls[0], controls[1], controls[2]

	// Full mesh.
	for _, control := range controls {
		for _, peer := range controls {
			control.Introduce(peer.Ref())
		}
	}

	peerCount := func(control *gossip.Control[counter.Set]) int {
		status, err := control.Status(time.Second)
		if err != nil {
			return -1
		}
		return len(status.Peers)
	}

	assert.Eventually(t, func() bool {
		return peerCount(a) == 2 && peerCount(b) == 2
	}, time.Second, time.Millisecond*10)

	// C terminates; A and B observe its removal but keep gossiping with
	// each other.
	c.Close()
	assert.Eventually(t, func() bool {
		return peerCount(a) == 1 && peerCount(b) == 1
	}, time.Second, time.Millisecond*10)

	status, err := a.Status(time.Second)
	require.NoError(t, err)
	assert.True(t, status.NextRound)

	// B terminates out from under A; A's timer becomes unarmed.
	b.Close()
	assert.Eventually(t, func() bool {
		status, err := a.Status(time.Second)
		if err != nil {
			return false
		}
		return len(status.Peers) == 0 && !status.NextRound
	}, time.Second, time.Millisecond*10)

	// With no peers, no further rounds run.
	status, err = a.Status(time.Second)
	require.NoError(t, err)
	rounds := status.Rounds

	time.Sleep(time.Millisecond * 100)

	status, err = a.Status(time.Second)
	require.NoError(t, err)
	assert.Equal(t, rounds, status.Rounds)

	// Introducing a fresh peer re-arms the timer.
	d, err := gossip.Start(system, "gossip-d", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)
	a.Introduce(d.Ref())

	assert.Eventually(t, func() bool {
		status, err := a.Status(time.Second)
		if err != nil {
			return false
		}
		return status.Rounds > rounds
	}, time.Second, time.Millisecond*10)
}

func TestGossip_ReceptionistDiscovery(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	recept := receptionist.NewLocal()

	controls := make([]*gossip.Control[counter.Set], 4)
	for i := range controls {
		control, err := gossip.Start(
			system,
			fmt.Sprintf("gossip-%d", i),
			testConfig(),
			counter.NewFactory(0),
			gossip.WithDiscovery[counter.Set](
				gossip.ReceptionistListing[counter.Set](recept, "gossip/test"),
			),
		)
		require.NoError(t, err)
		controls[i] = control
	}

	// Every shell discovers all the others, never itself.
	for i, control := range controls {
		assert.Eventually(t, func() bool {
			status, err := control.Status(time.Second)
			if err != nil {
				return false
			}
			return len(status.Peers) == 3
		}, time.Second, time.Millisecond*10)

		status, err := control.Status(time.Second)
		require.NoError(t, err)
		assert.NotContains(
			t, status.Peers, fmt.Sprintf("test/gossip-%d", i),
		)
	}

	// The discovered cluster converges.
	id := gossip.NewIdentifier("x")
	for i, control := range controls {
		control.Update(id, counter.NewSet(uint64(i)))
	}
	for _, control := range controls {
		assert.Eventually(
			t,
			holds(control, id, []uint64{0, 1, 2, 3}),
			time.Second*5,
			time.Millisecond*10,
		)
	}
}

func TestGossip_ClusterDiscovery(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	membership := cluster.NewMembership()

	controls := make(map[string]*gossip.Control[counter.Set])
	for _, node := range []string{"node-0", "node-1", "node-2"} {
		resolve := func(member cluster.Member) (actor.Ref, bool) {
			control, ok := controls[member.Node]
			if !ok {
				return nil, false
			}
			return control.Ref(), true
		}
		control, err := gossip.Start(
			system,
			"gossip-"+node,
			testConfig(),
			counter.NewFactory(0),
			gossip.WithDiscovery[counter.Set](
				gossip.ClusterMembers[counter.Set](
					membership, node, cluster.StatusUp, resolve,
				),
			),
		)
		require.NoError(t, err)
		controls[node] = control
	}
	a := controls["node-0"]

	peers := func(control *gossip.Control[counter.Set]) []string {
		status, err := control.Status(time.Second)
		if err != nil {
			return nil
		}
		return status.Peers
	}

	// Members below the status floor are not introduced.
	membership.UpdateMember(cluster.Member{Node: "node-1", Status: cluster.StatusJoining})
	time.Sleep(time.Millisecond * 50)
	assert.Equal(t, 0, len(peers(a)))

	// Crossing the floor introduces the member, except to itself.
	membership.UpdateMember(cluster.Member{Node: "node-1", Status: cluster.StatusUp})
	assert.Eventually(t, func() bool {
		return len(peers(a)) == 1
	}, time.Second, time.Millisecond*10)
	assert.Equal(t, []string{"test/gossip-node-1"}, peers(a))
	assert.Equal(t, 0, len(peers(controls["node-1"])))

	// Reachability and leadership events are ignored.
	membership.SetReachability(
		cluster.Member{Node: "node-2", Status: cluster.StatusUp}, true,
	)
	membership.SetLeader("node-2")
	time.Sleep(time.Millisecond * 50)
	assert.Equal(t, 1, len(peers(a)))

	// Unresolvable members are skipped.
	membership.UpdateMember(cluster.Member{Node: "node-9", Status: cluster.StatusUp})
	time.Sleep(time.Millisecond * 50)
	assert.Equal(t, 1, len(peers(a)))

	membership.UpdateMember(cluster.Member{Node: "node-2", Status: cluster.StatusUp})
	assert.Eventually(t, func() bool {
		return len(peers(a)) == 2
	}, time.Second, time.Millisecond*10)
}

func TestGossip_RemoveRecreatesOnInboundGossip(t *testing.T) {
	system := actor.NewSystem("test", log.NewNopLogger())
	defer system.Close()

	id := gossip.NewIdentifier("x")

	a, err := gossip.Start(system, "gossip-a", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)
	b, err := gossip.Start(system, "gossip-b", testConfig(), counter.NewFactory(0))
	require.NoError(t, err)

	a.Introduce(b.Ref())
	b.Introduce(a.Ref())

	a.Update(id, counter.NewSet(1))
	assert.Eventually(
		t, holds(b, id, []uint64{1}), time.Second*5, time.Millisecond*10,
	)

	// Wait for B's payload to A to be acknowledged, so B has nothing
	// left to send until it sees a new update.
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(b.Metrics().AcksReceived) >= 1
	}, time.Second*5, time.Millisecond*10)

	a.Remove(id)
	assert.Eventually(t, func() bool {
		status, err := a.Status(time.Second)
		if err != nil {
			return false
		}
		return len(status.Identifiers) == 0
	}, time.Second, time.Millisecond*10)

	// New state on B reaches A through gossip, re-creating a fresh
	// logic for the removed identifier.
	b.Update(id, counter.NewSet(7))
	assert.Eventually(t, func() bool {
		values, ok := inspect(a, id)
		if !ok {
			return false
		}
		return assert.ObjectsAreEqual([]uint64{7}, values)
	}, time.Second*5, time.Millisecond*10)
}
