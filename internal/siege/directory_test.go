package siege

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wishmaster117/mod-city-siege/internal/model"
)

func TestDirectoryRegisterRejectsDuplicates(t *testing.T) {
	dir := NewDirectory(3)

	require.NoError(t, dir.Register(1, model.TierMinion, model.RoleAttacker))
	err := dir.Register(1, model.TierElite, model.RoleDefender)
	require.ErrorIs(t, err, ErrDuplicateActor)

	// The original entry survives the rejected registration.
	entry, ok := dir.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.TierMinion, entry.Tier)
	assert.Equal(t, model.RoleAttacker, entry.Role())
}

func TestDirectoryAdvanceIsMonotonic(t *testing.T) {
	dir := NewDirectory(2)
	require.NoError(t, dir.Register(7, model.TierMinion, model.RoleAttacker))

	last := 0
	for i := 0; i < 5; i++ {
		p, advanced := dir.Advance(7)
		if !advanced {
			break
		}
		require.Greater(t, p.Index, last, "attacker index must only grow")
		last = p.Index
	}

	entry, _ := dir.Get(7)
	assert.Equal(t, 2, entry.Progress.Index, "clamped at the objective")
	_, advanced := dir.Advance(7)
	assert.False(t, advanced)
}

func TestDirectoryAdvanceUnknownActor(t *testing.T) {
	dir := NewDirectory(1)
	_, advanced := dir.Advance(99)
	assert.False(t, advanced)
}

func TestDirectoryReassignTransfersSlot(t *testing.T) {
	dir := NewDirectory(4)
	require.NoError(t, dir.Register(10, model.TierElite, model.RoleDefender))

	// March a little before dying.
	dir.Advance(10)
	dir.Advance(10)

	require.NoError(t, dir.Reassign(10, 20))

	_, ok := dir.Get(10)
	assert.False(t, ok, "old identity is gone")

	entry, ok := dir.Get(20)
	require.True(t, ok)
	assert.Equal(t, model.TierElite, entry.Tier)
	assert.Equal(t, model.RoleDefender, entry.Role())
	assert.Equal(t, 4, entry.Progress.Index, "replacement restarts from the defender's first leg")
}

func TestDirectoryReassignErrors(t *testing.T) {
	dir := NewDirectory(1)
	require.NoError(t, dir.Register(1, model.TierMinion, model.RoleAttacker))
	require.NoError(t, dir.Register(2, model.TierMinion, model.RoleAttacker))

	assert.ErrorIs(t, dir.Reassign(99, 3), ErrActorNotFound)
	assert.ErrorIs(t, dir.Reassign(1, 2), ErrDuplicateActor)
	assert.Equal(t, 2, dir.Len())
}

func TestDirectoryResetKeepsIdentity(t *testing.T) {
	dir := NewDirectory(3)
	require.NoError(t, dir.Register(5, model.TierMinion, model.RoleAttacker))
	dir.Advance(5)
	dir.Advance(5)

	require.NoError(t, dir.Reset(5))
	entry, ok := dir.Get(5)
	require.True(t, ok)
	assert.Equal(t, 0, entry.Progress.Index)

	assert.ErrorIs(t, dir.Reset(42), ErrActorNotFound)
}

func TestDirectoryRemove(t *testing.T) {
	dir := NewDirectory(0)
	require.NoError(t, dir.Register(1, model.TierLeader, model.RoleAttacker))
	dir.Remove(1)
	dir.Remove(1) // no-op

	assert.Equal(t, 0, dir.Len())
	_, ok := dir.Get(1)
	assert.False(t, ok)
}
