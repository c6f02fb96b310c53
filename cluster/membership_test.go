package cluster

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembership_Subscribe(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		m := NewMembership()
		m.UpdateMember(Member{Node: "node-1", Status: StatusUp})
		m.UpdateMember(Member{Node: "node-2", Status: StatusJoining})

		var events []Event
		m.Subscribe(func(event Event) {
			events = append(events, event)
		})

		assert.Equal(t, 1, len(events))
		snapshot, ok := events[0].(Snapshot)
		assert.True(t, ok)

		members := snapshot.Members
		sort.Slice(members, func(i, j int) bool {
			return members[i].Node < members[j].Node
		})
		assert.Equal(
			t,
			[]Member{
				{"node-1", StatusUp},
				{"node-2", StatusJoining},
			},
			members,
		)
	})

	t.Run("changes", func(t *testing.T) {
		m := NewMembership()

		var events []Event
		m.Subscribe(func(event Event) {
			events = append(events, event)
		})

		m.UpdateMember(Member{Node: "node-1", Status: StatusJoining})
		m.UpdateMember(Member{Node: "node-1", Status: StatusUp})
		m.RemoveMember("node-1")

		assert.Equal(
			t,
			[]Event{
				Snapshot{Members: []Member{}},
				Change{Member: Member{Node: "node-1", Status: StatusJoining}},
				Change{Member: Member{Node: "node-1", Status: StatusUp}},
				Change{Member: Member{Node: "node-1", Status: StatusDown}},
			},
			events,
		)
	})

	t.Run("remove unknown", func(t *testing.T) {
		m := NewMembership()

		var events []Event
		m.Subscribe(func(event Event) {
			events = append(events, event)
		})

		m.RemoveMember("node-1")

		// Only the initial snapshot.
		assert.Equal(t, 1, len(events))
	})

	t.Run("reachability and leadership", func(t *testing.T) {
		m := NewMembership()

		var events []Event
		m.Subscribe(func(event Event) {
			events = append(events, event)
		})

		m.SetReachability(Member{Node: "node-1", Status: StatusUp}, false)
		m.SetLeader("node-1")

		assert.Equal(
			t,
			[]Event{
				Snapshot{Members: []Member{}},
				ReachabilityChange{
					Member:    Member{Node: "node-1", Status: StatusUp},
					Reachable: false,
				},
				LeadershipChange{Leader: "node-1"},
			},
			events,
		)
	})
}

func TestStatus_Ordering(t *testing.T) {
	assert.True(t, StatusJoining < StatusUp)
	assert.True(t, StatusUp < StatusLeaving)
	assert.True(t, StatusLeaving < StatusExiting)
	assert.True(t, StatusExiting < StatusDown)
}
